// packedarray_test.go -- test suite for PackedArray
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
	"testing"
)

func TestPackedArrayMixedWidths(t *testing.T) {
	assert := newAsserter(t)

	vals := []uint64{5, 2, 9, 100, 0, 5, 10, 90, 9, 1, 65, 10}
	p := EncodePackedArray(vals)

	assert(p.Width() == 7, "width mismatch; exp 7, saw %d", p.Width())
	assert(len(p.data) == 2, "data.len mismatch; exp 2, saw %d", len(p.data))
	assert(p.Len() == uint64(len(vals)), "len mismatch; exp %d, saw %d", len(vals), p.Len())

	for i, v := range vals {
		assert(p.Get(uint64(i)) == v, "get(%d): exp %d, saw %d", i, v, p.Get(uint64(i)))
	}
}

func TestPackedArrayEmpty(t *testing.T) {
	assert := newAsserter(t)

	p := EncodePackedArray(nil)
	assert(p.Width() == 1, "empty width mismatch; exp 1, saw %d", p.Width())
	assert(p.Len() == 0, "empty len mismatch; exp 0, saw %d", p.Len())
	assert(len(p.data) == 0, "empty data mismatch; exp 0 words, saw %d", len(p.data))
}

func TestPackedArrayWidth64Boundary(t *testing.T) {
	assert := newAsserter(t)

	p := NewPackedArray(64, 4)
	vals := []uint64{0, ^uint64(0), 0x0123456789abcdef, 42}
	for i, v := range vals {
		p.setFromZero(uint64(i), v)
	}
	for i, v := range vals {
		assert(p.Get(uint64(i)) == v, "width-64 get(%d): exp %#x, saw %#x", i, v, p.Get(uint64(i)))
	}
}

func TestPackedArrayMarshal(t *testing.T) {
	assert := newAsserter(t)

	vals := []uint64{5, 2, 9, 100, 0, 5, 10, 90, 9, 1, 65, 10}
	p := EncodePackedArray(vals)

	var b bytes.Buffer
	nw, err := p.MarshalBinary(&b)
	assert(err == nil, "marshal failed: %s", err)
	assert(nw == b.Len(), "marshal: returned count mismatch; exp %d, saw %d", b.Len(), nw)
	assert(nw%8 == 0, "marshal: not 8-byte aligned: %d", nw)

	q, n, err := unmarshalPackedArray(b.Bytes(), p.Len())
	assert(err == nil, "unmarshal failed: %s", err)
	assert(n == uint64(b.Len()), "unmarshal: consumed %d, exp %d", n, b.Len())
	assert(q.Width() == p.Width(), "unmarshal width mismatch; exp %d, saw %d", p.Width(), q.Width())

	for i, v := range vals {
		assert(q.Get(uint64(i)) == v, "unmarshal get(%d): exp %d, saw %d", i, v, q.Get(uint64(i)))
	}
}
