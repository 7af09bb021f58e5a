// pthash.go -- PTHash minimal perfect hash function: the frozen structure
// and its lookup path. See pthash_build.go for construction.
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
	"encoding/binary"
	"fmt"
	"io"
)

// pivotEncoding is the contract MPHF's per-bucket pivot table must satisfy.
// Both PackedArray and DictArray implement it; DictArray is preferable when
// pivots repeat often, which happens at large alpha.
type pivotEncoding interface {
	Get(i uint64) uint64
	Len() uint64
	Bits() uint64
	MarshalBinary(w io.Writer) (int, error)
}

const (
	pivotEncPackedArray = 0
	pivotEncDictArray   = 1
)

var (
	_ pivotEncoding = &PackedArray{}
	_ pivotEncoding = &DictArray{}
)

// PTHashParams configures an MPHF build. Zero-value Params (all fields 0)
// is not usable -- callers should start from DefaultPTHashParams.
type PTHashParams struct {
	// C controls the bucket count m = C*n'/(log2(n')+1): larger C means a
	// faster build at the cost of a larger pivot table.
	C float64

	// Alpha is the load factor in (0, 1]; n' = floor(n/Alpha). Smaller
	// Alpha eases construction at the cost of a free_slots table.
	Alpha float64

	// MaxAttempts bounds BuildMPHFUsingRandomSeed's seed retries.
	MaxAttempts int

	// UseDictArray selects DictArray (instead of PackedArray) as the
	// pivot encoding -- worthwhile when pivots repeat, typically at
	// large Alpha.
	UseDictArray bool
}

// DefaultPTHashParams returns a reasonable default tuning: c=7, alpha=0.95.
func DefaultPTHashParams() PTHashParams {
	return PTHashParams{C: 7, Alpha: 0.95, MaxAttempts: 1000}
}

// maxPivot safeguards the per-bucket pivot search against runaway
// construction parameters, converting an overrun into ErrHashCollision
// rather than looping forever.
const maxPivot = 1 << 20

// MPHF is a minimal perfect hash function built by the PTHash algorithm: a
// bijection from an n-key universe onto [0, n), built via a size-skewed
// bucketer and a per-bucket pivot search over a (possibly relaxed) n'-slot
// universe.
type MPHF struct {
	n         uint64
	seed      uint64
	b         bucketer
	pivots    pivotEncoding
	freeSlots *EliasFano // nil when n' == n (alpha == 1)
}

// Len returns n, the size of the key universe.
func (m *MPHF) Len() uint64 { return m.n }

// Lookup returns mphf(key), a value in [0, n). Behaviour is only specified
// for keys that were present at build time; unknown keys return some value
// in [0, n), not an error.
func (m *MPHF) Lookup(key uint64) uint64 {
	h := keyHash(m.seed, key)
	return m.lookupHash(h)
}

func (m *MPHF) lookupHash(h uint64) uint64 {
	bkt := m.b.bucket(h)
	p := m.pivots.Get(bkt)
	x := posMix(m.seed, p, h) % m.b.n
	if x < m.n {
		return x
	}
	return m.freeSlots.Get(x - m.n)
}

// Find implements the MPH interface DBWriter/DBReader share across both
// MPHF and BumpedRibbon: it never fails to produce an index (PTHash is
// total over u64), so it always reports ok=true.
func (m *MPHF) Find(key uint64) (uint64, bool) {
	return m.Lookup(key), true
}

// Bits returns the approximate total on-disk footprint in bits.
func (m *MPHF) Bits() uint64 {
	total := m.pivots.Bits()
	if m.freeSlots != nil {
		total += m.freeSlots.Bits()
	}
	return total
}

// DumpMeta writes a human-readable summary of the MPHF to w.
func (m *MPHF) DumpMeta(w io.Writer) {
	bpk := float64(0)
	if m.n > 0 {
		bpk = float64(m.Bits()) / float64(m.n)
	}
	fmt.Fprintf(w, "MPHF<PTHash>: n=%d seed=%#x buckets=%d n'=%d bits/key=%.3f\n",
		m.n, m.seed, m.b.m, m.b.n, bpk)
}

// MarshalBinary writes n, seed, a u64 free_slots presence flag, the
// bucketer, the EliasFano free_slots table (only when the flag is set), and
// the tagged pivot encoding, in that order.
func (m *MPHF) MarshalBinary(w io.Writer) (int, error) {
	var hdr [24]byte
	binary.LittleEndian.PutUint64(hdr[0:8], m.n)
	binary.LittleEndian.PutUint64(hdr[8:16], m.seed)
	hasFree := uint64(0)
	if m.freeSlots != nil {
		hasFree = 1
	}
	binary.LittleEndian.PutUint64(hdr[16:24], hasFree)

	total, err := writeAll(w, hdr[:])
	if err != nil {
		return total, err
	}

	n, err := m.b.MarshalBinary(w)
	if err != nil {
		return total + n, err
	}
	total += n

	if m.freeSlots != nil {
		n, err = m.freeSlots.MarshalBinary(w)
		if err != nil {
			return total + n, err
		}
		total += n
	}

	var tag [8]byte
	if m.pivots != nil {
		if _, ok := m.pivots.(*DictArray); ok {
			binary.LittleEndian.PutUint64(tag[:], pivotEncDictArray)
		} else {
			binary.LittleEndian.PutUint64(tag[:], pivotEncPackedArray)
		}
	}
	n, err = writeAll(w, tag[:])
	if err != nil {
		return total + n, err
	}
	total += n

	n, err = m.pivots.MarshalBinary(w)
	return total + n, err
}

// UnmarshalMPHF reads an MPHF previously written by MarshalBinary.
func UnmarshalMPHF(buf []byte) (*MPHF, uint64, error) {
	if len(buf) < 24 {
		return nil, 0, ErrTooSmall
	}
	n := binary.LittleEndian.Uint64(buf[0:8])
	seed := binary.LittleEndian.Uint64(buf[8:16])
	hasFree := binary.LittleEndian.Uint64(buf[16:24])
	off := uint64(24)

	b, m, err := unmarshalBucketer(buf[off:])
	if err != nil {
		return nil, 0, err
	}
	off += m

	var freeSlots *EliasFano
	if hasFree != 0 {
		freeSlots, m, err = unmarshalEliasFano(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += m
	}

	if uint64(len(buf))-off < 8 {
		return nil, 0, ErrTooSmall
	}
	tag := binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8

	var pivots pivotEncoding
	switch tag {
	case pivotEncDictArray:
		var da *DictArray
		da, m, err = unmarshalDictArray(buf[off:])
		pivots = da
	default:
		var pa *PackedArray
		pa, m, err = unmarshalPackedArray(buf[off:], b.m)
		pivots = pa
	}
	if err != nil {
		return nil, 0, err
	}
	off += m

	mp := &MPHF{
		n:         n,
		seed:      seed,
		b:         b,
		pivots:    pivots,
		freeSlots: freeSlots,
	}
	return mp, off, nil
}
