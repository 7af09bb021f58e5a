// darray_test.go -- test suite for DArray
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

func TestDArrayDense(t *testing.T) {
	assert := newAsserter(t)

	r := rand.New(rand.NewSource(0x0194f614c15227ba))
	const n = 10000

	bs := newBitset(n)
	var positions []uint64
	for i := uint64(0); i < n; i++ {
		if r.Intn(2) == 0 {
			bs.set(i)
			positions = append(positions, i)
		}
	}

	d1 := newDArray(bs, false)
	assert(d1.Count() == uint64(len(positions)), "count mismatch; exp %d, saw %d", len(positions), d1.Count())
	for i, p := range positions {
		got := d1.Select(bs, uint64(i))
		assert(got == p, "select1(%d): exp %d, saw %d", i, p, got)
	}

	var zeroPositions []uint64
	for i := uint64(0); i < n; i++ {
		if !bs.isSet(i) {
			zeroPositions = append(zeroPositions, i)
		}
	}
	d0 := newDArray(bs, true)
	assert(d0.Count() == uint64(len(zeroPositions)), "select0 count mismatch; exp %d, saw %d", len(zeroPositions), d0.Count())
	for i, p := range zeroPositions {
		got := d0.Select(bs, uint64(i))
		assert(got == p, "select0(%d): exp %d, saw %d", i, p, got)
	}
}

func TestDArraySparseOverflow(t *testing.T) {
	assert := newAsserter(t)

	// A block spanning more than 2^16 bits forces the overflow path.
	const n = 1 << 22
	bs := newBitset(n)
	var positions []uint64
	for i := uint64(0); i < 1024; i++ {
		p := i * (1 << 11) // spacing wide enough that first..last >= 2^16
		bs.set(p)
		positions = append(positions, p)
	}

	d := newDArray(bs, false)
	for i, p := range positions {
		got := d.Select(bs, uint64(i))
		assert(got == p, "overflow select(%d): exp %d, saw %d", i, p, got)
	}
}

func TestDArrayMarshal(t *testing.T) {
	assert := newAsserter(t)

	r := rand.New(rand.NewSource(42))
	const n = 5000
	bs := newBitset(n)
	var positions []uint64
	for i := uint64(0); i < n; i++ {
		if r.Intn(3) == 0 {
			bs.set(i)
			positions = append(positions, i)
		}
	}

	d := newDArray(bs, false)

	var buf bytes.Buffer
	nw, err := d.MarshalBinary(&buf)
	assert(err == nil, "marshal failed: %s", err)
	assert(nw%8 == 0, "marshal: not 8-byte aligned: %d", nw)

	d2, consumed, err := unmarshalDArray(buf.Bytes(), d.Count(), false)
	assert(err == nil, "unmarshal failed: %s", err)
	assert(consumed == uint64(buf.Len()), "unmarshal: consumed %d, exp %d", consumed, buf.Len())

	for i, p := range positions {
		got := d2.Select(bs, uint64(i))
		assert(got == p, "unmarshal select(%d): exp %d, saw %d", i, p, got)
	}
}
