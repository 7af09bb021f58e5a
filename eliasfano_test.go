// eliasfano_test.go -- test suite for EliasFano
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
	"bytes"
	"math/rand"
	"testing"
)

func TestEliasFanoMonotone(t *testing.T) {
	assert := newAsserter(t)

	r := rand.New(rand.NewSource(0x0194f614c15227ba))
	const n = 100000

	x := make([]uint64, n)
	var prev uint64
	for i := 0; i < n; i++ {
		prev += uint64(r.Intn(50))
		x[i] = prev
	}

	ef := EncodeEliasFano(x)
	assert(ef.Len() == n, "len mismatch; exp %d, saw %d", n, ef.Len())

	for i, want := range x {
		got := ef.Get(uint64(i))
		assert(got == want, "get(%d): exp %d, saw %d", i, want, got)
	}
}

func TestEliasFanoMonotoneNonDecreasing(t *testing.T) {
	assert := newAsserter(t)

	ef := EncodeEliasFano([]uint64{3, 3, 3, 7, 7, 20, 20, 20, 999})
	var prev uint64
	for i := uint64(0); i < ef.Len(); i++ {
		cur := ef.Get(i)
		if i > 0 {
			assert(cur >= prev, "not monotone at %d: %d < %d", i, cur, prev)
		}
		prev = cur
	}
	assert(ef.Get(0) == 3, "get(0): exp 3, saw %d", ef.Get(0))
	assert(ef.Get(8) == 999, "get(8): exp 999, saw %d", ef.Get(8))
}

func TestEliasFanoEmpty(t *testing.T) {
	assert := newAsserter(t)
	ef := EncodeEliasFano(nil)
	assert(ef.Len() == 0, "empty len mismatch; exp 0, saw %d", ef.Len())
}

func TestEliasFanoNonMonotonePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on non-monotone input")
		}
	}()
	EncodeEliasFano([]uint64{5, 3, 9})
}

func TestEliasFanoMarshal(t *testing.T) {
	assert := newAsserter(t)

	r := rand.New(rand.NewSource(7))
	const n = 2000
	x := make([]uint64, n)
	var prev uint64
	for i := 0; i < n; i++ {
		prev += uint64(r.Intn(100))
		x[i] = prev
	}

	ef := EncodeEliasFano(x)

	var buf bytes.Buffer
	nw, err := ef.MarshalBinary(&buf)
	assert(err == nil, "marshal failed: %s", err)
	assert(nw%8 == 0, "marshal: not 8-byte aligned: %d", nw)

	ef2, consumed, err := unmarshalEliasFano(buf.Bytes())
	assert(err == nil, "unmarshal failed: %s", err)
	assert(consumed == uint64(buf.Len()), "unmarshal: consumed %d, exp %d", consumed, buf.Len())

	for i, want := range x {
		got := ef2.Get(uint64(i))
		assert(got == want, "unmarshal get(%d): exp %d, saw %d", i, want, got)
	}
}
