// lookup.go -- 'lookup' command implementation
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
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/opencoff/go-fasthash"
	succinct "github.com/opencoff/go-succinct"
	flag "github.com/opencoff/pflag"
)

type lookupCommand struct{}

func init() {
	registerCommand("lookup", &lookupCommand{})
}

func (l *lookupCommand) run(args []string, opt *Option) error {
	var input, key string
	var benchmark bool

	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.StringVarP(&input, "input", "i", "", "Read the DB from `FILE`")
	fs.StringVarP(&key, "key", "k", "", "Look up `KEY` (default: read keys from stdin, one per line)")
	fs.BoolVarP(&benchmark, "benchmark", "b", false, "Run a synthetic lookup-throughput benchmark instead")
	fs.Usage = func() {
		fmt.Printf(`Usage: lookup [options] -i DB

Looks up one key (-k) or a stream of keys (one per line on stdin) in DB.

Options:
`)
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	if input == "" {
		return fmt.Errorf("lookup: -i is required")
	}

	db, err := succinct.NewDBReader(input, 1000)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	defer db.Close()

	if benchmark {
		return l.benchmark(db)
	}

	if key != "" {
		return l.lookupOne(db, key)
	}

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if err := l.lookupOne(db, sc.Text()); err != nil {
			warn("%s", err)
		}
	}
	return sc.Err()
}

func (l *lookupCommand) lookupOne(db *succinct.DBReader, key string) error {
	h := fasthash.Hash64(0, []byte(key))
	v, ok := db.Lookup(h)
	if !ok {
		fmt.Printf("%s: not found\n", key)
		return nil
	}
	fmt.Printf("%s: %x\n", key, v)
	return nil
}

// benchmark drives N synthetic lookups (keys derived from xxhash of a
// counter, so the benchmark never depends on the DB's actual key set) and
// reports throughput. Misses are expected and not an error.
func (l *lookupCommand) benchmark(db *succinct.DBReader) error {
	const n = 1 << 20

	start := time.Now()
	for i := uint64(0); i < n; i++ {
		var buf [8]byte
		for j := 0; j < 8; j++ {
			buf[j] = byte(i >> (8 * j))
		}
		h := xxhash.Sum64(buf[:])
		db.Lookup(h)
	}
	delta := time.Since(start)
	speed := (1.0e6 * float64(n)) / float64(delta.Microseconds())
	fmt.Printf("%d lookups, %s (%.1f lookups/sec)\n", n, delta.Truncate(time.Millisecond), speed)
	return nil
}
