// fsck.go -- 'fsck' command implementation
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

	succinct "github.com/opencoff/go-succinct"
	flag "github.com/opencoff/pflag"
)

type fsckCommand struct{}

func init() {
	registerCommand("fsck", &fsckCommand{})
}

func (f *fsckCommand) run(args []string, opt *Option) (err error) {
	var db *succinct.DBReader

	fs := flag.NewFlagSet("fsck", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.Usage = func() {
		fmt.Printf(`Usage: fsck [options] DB

where 'DB' is the name of a succinctdb database

Re-validates the whole-file checksum (done implicitly on open) and then
walks every record, verifying its per-record checksum, reporting the
first mismatch found.

Options:
`)
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err = fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("fsck: %w", err)
	}

	args = fs.Args()
	if len(args) < 1 {
		return fmt.Errorf("fsck: insufficient args")
	}

	fn := args[0]
	db, err = succinct.NewDBReader(fn, 1000)
	if err != nil {
		return fmt.Errorf("fsck: %w", err)
	}
	defer db.Close()

	var n uint64
	err = db.IterFunc(func(k uint64, v []byte) error {
		n++
		return nil
	})
	if err != nil {
		return fmt.Errorf("fsck: %w", err)
	}

	fmt.Printf("%s: OK, %d records\n", fn, n)
	opt.Printf(db.Desc())
	return nil
}
