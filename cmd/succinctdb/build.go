// build.go -- 'build' command implementation
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"fmt"
	"os"
	"time"

	succinct "github.com/opencoff/go-succinct"
	flag "github.com/opencoff/pflag"
)

type buildCommand struct{}

func init() {
	registerCommand("build", &buildCommand{})
}

func (b *buildCommand) run(args []string, opt *Option) (err error) {
	var input, output string
	var seed uint64
	var c, alpha, eps float64
	var width int
	var dict, benchmark bool

	fs := flag.NewFlagSet("build", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.StringVarP(&input, "input", "i", "", "Read records from `FILE`")
	fs.StringVarP(&output, "output", "o", "", "Write the DB to `FILE`")
	fs.Uint64VarP(&seed, "seed", "s", 0, "Use `SEED` instead of a random build seed")
	fs.Float64VarP(&c, "c", "c", 7.0, "Use `C` as the PTHash bucket-count multiplier")
	fs.Float64VarP(&alpha, "alpha", "a", 0.95, "Use `A` as the PTHash load factor")
	fs.Float64Var(&eps, "eps", 0.10, "Use `EPS` as the BuRR per-layer overhead")
	fs.IntVarP(&width, "w", "w", 0, "Build a BuRR index with band width `W` (0: build a PTHash MPHF instead)")
	fs.BoolVarP(&dict, "dict", "d", false, "Use a DictArray pivot encoding instead of PackedArray")
	fs.BoolVarP(&benchmark, "benchmark", "b", false, "Print build throughput")
	fs.Usage = func() {
		fmt.Printf(`Usage: build [options] -i INPUT -o DB

Reads newline-delimited records from INPUT and writes a constant DB to DB.
With -w 0 (the default) the index is a PTHash MPHF, one key per line, the
key split from an optional value on the first run of whitespace. With
-w > 0 the index is a BuRR table, split on comma instead.

Options:
`)
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err = fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if input == "" || output == "" {
		return fmt.Errorf("build: -i and -o are required")
	}
	if width < 0 || width > 64 {
		return fmt.Errorf("build: -w must be in [0, 64]")
	}

	opt.benchmark = benchmark

	var db *succinct.DBWriter
	defer func(e *error) {
		if *e != nil && db != nil {
			db.Abort()
		}
	}(&err)

	delim := " \t"
	if width > 0 {
		db, err = succinct.NewBurrDBWriter(output, uint(width), eps)
		delim = ","
	} else {
		params := succinct.PTHashParams{C: c, Alpha: alpha, MaxAttempts: 1000, UseDictArray: dict}
		db, err = succinct.NewMPHFDBWriter(output, params)
	}
	if err != nil {
		return fmt.Errorf("build: can't create %s: %w", output, err)
	}

	if seed != 0 {
		db.SetSeed(seed)
	}

	n, err := AddTextFile(db, input, delim)
	if err != nil {
		return fmt.Errorf("build: can't add %s: %w", input, err)
	}
	opt.Printf("+ %s: %d records\n", input, n)

	start := time.Now()
	if err = db.Freeze(); err != nil {
		return fmt.Errorf("build: can't write %s: %w", output, err)
	}
	delta := time.Since(start)

	if benchmark {
		speed := (1.0e6 * float64(n)) / float64(delta.Microseconds())
		fmt.Printf("%d keys, %s (%.1f keys/sec)\n", n, delta.Truncate(time.Millisecond), speed)
	}

	return nil
}
