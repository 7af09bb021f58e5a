// dictarray_test.go -- test suite for DictArray
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

func TestDictArrayDedup(t *testing.T) {
	assert := newAsserter(t)

	vals := []uint64{5, 5, 5, 9, 9, 2, 5, 9, 100, 2}
	da := EncodeDictArray(vals)

	assert(da.Len() == uint64(len(vals)), "len mismatch; exp %d, saw %d", len(vals), da.Len())
	for i, v := range vals {
		got := da.Get(uint64(i))
		assert(got == v, "get(%d): exp %d, saw %d", i, v, got)
	}
	assert(da.dict.Len() == 4, "dict dedup mismatch; exp 4 unique, saw %d", da.dict.Len())
}

func TestDictArrayRepeatHeavy(t *testing.T) {
	assert := newAsserter(t)

	r := rand.New(rand.NewSource(11))
	vals := make([]uint64, 5000)
	for i := range vals {
		vals[i] = uint64(r.Intn(8))
	}

	da := EncodeDictArray(vals)
	for i, v := range vals {
		got := da.Get(uint64(i))
		assert(got == v, "get(%d): exp %d, saw %d", i, v, got)
	}
}

func TestDictArrayMarshal(t *testing.T) {
	assert := newAsserter(t)

	vals := []uint64{1, 2, 1, 1, 3, 2, 4, 4, 4, 4, 0}
	da := EncodeDictArray(vals)

	var buf bytes.Buffer
	nw, err := da.MarshalBinary(&buf)
	assert(err == nil, "marshal failed: %s", err)
	assert(nw%8 == 0, "marshal: not 8-byte aligned: %d", nw)

	da2, consumed, err := unmarshalDictArray(buf.Bytes())
	assert(err == nil, "unmarshal failed: %s", err)
	assert(consumed == uint64(buf.Len()), "unmarshal: consumed %d, exp %d", consumed, buf.Len())

	for i, v := range vals {
		got := da2.Get(uint64(i))
		assert(got == v, "unmarshal get(%d): exp %d, saw %d", i, v, got)
	}
}
