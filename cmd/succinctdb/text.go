// text.go -- read newline-delimited key/value records and populate a
// succinct.DBWriter
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
	"io"
	"os"
	"strings"

	"github.com/opencoff/go-fasthash"
	succinct "github.com/opencoff/go-succinct"
)

type record struct {
	key uint64
	val []byte
}

// AddTextFile loads 'fn' and adds every record to w, splitting each line on
// one of the bytes in 'delim'. Blank lines and '#'-led comments are
// skipped. Returns the number of records added.
func AddTextFile(w *succinct.DBWriter, fn string, delim string) (uint64, error) {
	fd, err := os.Open(fn)
	if err != nil {
		return 0, err
	}
	defer fd.Close()

	return AddTextStream(w, fd, delim)
}

// AddTextStream is AddTextFile over an already-open reader.
func AddTextStream(w *succinct.DBWriter, fd io.Reader, delim string) (uint64, error) {
	if len(delim) == 0 {
		delim = " \t"
	}

	sc := bufio.NewScanner(fd)
	var n uint64

	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if len(s) == 0 || s[0] == '#' {
			continue
		}

		var k, v string
		if i := strings.IndexAny(s, delim); i > 0 {
			k = s[:i]
			v = strings.TrimSpace(s[i+1:])
		} else {
			k = s
		}

		if len(v) >= 4294967295 {
			continue
		}

		r := makeRecord(k, v)
		if err := w.Add(r.key, r.val); err != nil {
			return n, err
		}
		n++
	}

	return n, sc.Err()
}

// makeRecord hashes the textual key into the u64 key space every container
// in this module operates on.
func makeRecord(key, val string) *record {
	h := fasthash.Hash64(0, []byte(key))
	var vb []byte
	if len(val) > 0 {
		vb = []byte(val)
	}
	return &record{h, vb}
}
