// pthash_test.go -- test suite for the PTHash MPHF
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

func assertBijection(t *testing.T, assert func(cond bool, msg string, args ...interface{}), m *MPHF, keys []uint64) {
	seen := make(map[uint64]bool, len(keys))
	for _, k := range keys {
		x := m.Lookup(k)
		assert(x < m.Len(), "lookup(%d) = %d out of range [0, %d)", k, x, m.Len())
		assert(!seen[x], "lookup(%d) = %d collides with an earlier key", k, x)
		seen[x] = true
	}
}

func TestMPHFSquares(t *testing.T) {
	assert := newAsserter(t)

	keys := make([]uint64, 256)
	for i := range keys {
		keys[i] = uint64(i * i)
	}

	params := PTHashParams{C: 7, Alpha: 0.80, MaxAttempts: 10}
	m, err := BuildMPHFUsingRandomSeed(keys, params)
	assert(err == nil, "build failed: %s", err)
	assert(m.Len() == uint64(len(keys)), "len mismatch; exp %d, saw %d", len(keys), m.Len())

	assertBijection(t, assert, m, keys)
}

func TestMPHFCollisionDetection(t *testing.T) {
	assert := newAsserter(t)

	keys := []uint64{5, 5}
	params := DefaultPTHashParams()
	_, err := BuildMPHFUsingSeed(keys, params, 1)
	assert(err == ErrHashCollision, "expected ErrHashCollision, saw %v", err)
}

func TestMPHFSingleKey(t *testing.T) {
	assert := newAsserter(t)

	m, err := BuildMPHFUsingSeed([]uint64{12345}, DefaultPTHashParams(), 7)
	assert(err == nil, "build failed: %s", err)
	assert(m.Len() == 1, "len mismatch; exp 1, saw %d", m.Len())
	assert(m.Lookup(12345) == 0, "lookup(12345): exp 0, saw %d", m.Lookup(12345))
}

func TestMPHFDeterministic(t *testing.T) {
	assert := newAsserter(t)

	keys := make([]uint64, 2000)
	for i := range keys {
		keys[i] = uint64(i)*2654435761 + 17
	}

	params := DefaultPTHashParams()
	m1, err := BuildMPHFUsingSeed(keys, params, 999)
	assert(err == nil, "build 1 failed: %s", err)
	m2, err := BuildMPHFUsingSeed(keys, params, 999)
	assert(err == nil, "build 2 failed: %s", err)

	for _, k := range keys {
		assert(m1.Lookup(k) == m2.Lookup(k), "nondeterministic lookup for key %d", k)
	}
}

func TestMPHFAlphaRelaxation(t *testing.T) {
	assert := newAsserter(t)

	keys := make([]uint64, 5000)
	for i := range keys {
		keys[i] = uint64(i)*0x9E3779B185EBCA87 + 1
	}

	params := PTHashParams{C: 7, Alpha: 0.90, MaxAttempts: 20}
	m, err := BuildMPHFUsingRandomSeed(keys, params)
	assert(err == nil, "build failed: %s", err)
	assertBijection(t, assert, m, keys)
}

func TestMPHFDictArrayPivots(t *testing.T) {
	assert := newAsserter(t)

	keys := make([]uint64, 1000)
	for i := range keys {
		keys[i] = uint64(i)*31 + 3
	}

	params := PTHashParams{C: 7, Alpha: 0.95, MaxAttempts: 20, UseDictArray: true}
	m, err := BuildMPHFUsingRandomSeed(keys, params)
	assert(err == nil, "build failed: %s", err)
	assertBijection(t, assert, m, keys)
}

func TestMPHFMarshal(t *testing.T) {
	assert := newAsserter(t)

	keys := make([]uint64, 800)
	for i := range keys {
		keys[i] = uint64(i)*17 + 5
	}

	params := PTHashParams{C: 7, Alpha: 0.85, MaxAttempts: 20}
	m, err := BuildMPHFUsingRandomSeed(keys, params)
	assert(err == nil, "build failed: %s", err)

	var buf bytes.Buffer
	nw, err := m.MarshalBinary(&buf)
	assert(err == nil, "marshal failed: %s", err)
	assert(nw%8 == 0, "marshal: not 8-byte aligned: %d", nw)

	m2, consumed, err := UnmarshalMPHF(buf.Bytes())
	assert(err == nil, "unmarshal failed: %s", err)
	assert(consumed == uint64(buf.Len()), "unmarshal: consumed %d, exp %d", consumed, buf.Len())

	for _, k := range keys {
		assert(m.Lookup(k) == m2.Lookup(k), "roundtrip mismatch for key %d", k)
	}
}
