// dbwriter_test.go -- end-to-end test suite for DBWriter/DBReader
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

package succinct

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
)

func TestDBWriterReaderMPHF(t *testing.T) {
	assert := newAsserter(t)

	fn := filepath.Join(t.TempDir(), "mphf.db")
	w, err := NewMPHFDBWriter(fn, DefaultPTHashParams())
	assert(err == nil, "new writer failed: %s", err)
	w.SetSeed(123)

	r := rand.New(rand.NewSource(55))
	n := 500
	keys := make([]uint64, n)
	vals := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = uint64(i)*97 + 3
		vals[i] = []byte(fmt.Sprintf("value-%d", r.Int()))
	}

	added, err := w.AddKeyVals(keys, vals)
	assert(err == nil, "add failed: %s", err)
	assert(added == n, "added mismatch; exp %d, saw %d", n, added)

	err = w.Freeze()
	assert(err == nil, "freeze failed: %s", err)

	rd, err := NewDBReader(fn, 64)
	assert(err == nil, "open reader failed: %s", err)
	defer rd.Close()

	assert(rd.Len() == n, "reader len mismatch; exp %d, saw %d", n, rd.Len())

	for i := 0; i < n; i++ {
		got, ok := rd.Lookup(keys[i])
		assert(ok, "lookup(%d) not found", keys[i])
		assert(string(got) == string(vals[i]), "lookup(%d): value mismatch", keys[i])
	}

	_, ok := rd.Lookup(0xdeadbeef)
	assert(!ok, "lookup of absent key unexpectedly succeeded")
}

func TestDBWriterReaderBurr(t *testing.T) {
	assert := newAsserter(t)

	fn := filepath.Join(t.TempDir(), "burr.db")
	w, err := NewBurrDBWriter(fn, 32, 0.05)
	assert(err == nil, "new writer failed: %s", err)
	w.SetSeed(321)

	r := rand.New(rand.NewSource(9))
	n := 3000
	keys := make([]uint64, n)
	vals := make([][]byte, n)
	for i := 0; i < n; i++ {
		keys[i] = uint64(i)
		vals[i] = []byte(fmt.Sprintf("v%d", r.Int()))
	}

	added, err := w.AddKeyVals(keys, vals)
	assert(err == nil, "add failed: %s", err)
	assert(added == n, "added mismatch; exp %d, saw %d", n, added)

	err = w.Freeze()
	assert(err == nil, "freeze failed: %s", err)

	rd, err := NewDBReader(fn, 64)
	assert(err == nil, "open reader failed: %s", err)
	defer rd.Close()

	for i := 0; i < n; i++ {
		got, ok := rd.Lookup(keys[i])
		assert(ok, "lookup(%d) not found", keys[i])
		assert(string(got) == string(vals[i]), "lookup(%d): value mismatch", keys[i])
	}
}

func TestDBWriterDuplicateKeyRejected(t *testing.T) {
	assert := newAsserter(t)

	fn := filepath.Join(t.TempDir(), "dup.db")
	w, err := NewMPHFDBWriter(fn, DefaultPTHashParams())
	assert(err == nil, "new writer failed: %s", err)

	err = w.Add(1, []byte("a"))
	assert(err == nil, "first add failed: %s", err)
	err = w.Add(1, []byte("b"))
	assert(err == ErrExists, "expected ErrExists, saw %v", err)

	assert(w.Abort() == nil, "abort failed")
}
