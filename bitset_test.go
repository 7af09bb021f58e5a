// bitset_test.go -- test suite for bitset
//
// (c) Sudhi Herle 2018
//
// License GPLv2
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

func TestBitset(t *testing.T) {
	assert := newAsserter(t)

	bv := newBitset(100)
	assert(bv.size() == 128, "size mismatch; exp 128, saw %d", bv.size())

	var i uint64
	for i = 0; i < bv.size(); i++ {
		if 1 == (i & 1) {
			bv.set(i)
		}
	}

	for i = 0; i < bv.size(); i++ {
		if 1 == (i & 1) {
			assert(bv.isSet(i), "%d not set", i)
		} else {
			assert(!bv.isSet(i), "%d is set", i)
		}
	}
}

func TestBitsetRank(t *testing.T) {
	assert := newAsserter(t)

	bv := newBitset(1000)
	var want uint64
	for i := uint64(0); i < 1000; i++ {
		assert(bv.rank(i) == want, "rank(%d): exp %d, saw %d", i, want, bv.rank(i))
		if i%3 == 0 {
			bv.set(i)
			want++
		}
	}
}

func TestBitsetMarshal(t *testing.T) {
	assert := newAsserter(t)

	var b bytes.Buffer

	bv := newBitset(100)
	assert(bv.size() == 128, "size mismatch; exp 128, saw %d", bv.size())

	var i uint64
	for i = 0; i < bv.size(); i++ {
		if 1 == (i & 1) {
			bv.set(i)
		}
	}

	bv.MarshalBinary(&b)
	expsz := 8 * (1 + bv.words())
	assert(uint64(b.Len()) == expsz, "marshal size incorrect; exp %d, saw %d", expsz, b.Len())

	bn, n, err := unmarshalBitset(b.Bytes(), bv.n)
	assert(err == nil, "unmarshal failed: %s", err)
	assert(bn.size() == bv.size(), "unmarshal size error; exp %d, saw %d", bv.size(), bn.size())
	assert(n == uint64(b.Len()), "unmarshal: not enough bytes consumed; exp %d, saw %d", b.Len(), n)

	for i = 0; i < bv.size(); i++ {
		if bv.isSet(i) {
			assert(bn.isSet(i), "unmarshal %d is unset", i)
		} else {
			assert(!bn.isSet(i), "unmarshal %d is set", i)
		}
	}
}
