// bucketer.go -- PTHash's size-skewed hash-to-bucket map
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
	"io"
)

// bucketer concentrates roughly 60% of keys into roughly 30% of buckets --
// the size skew the PTHash pivot search exploits: fixing the hardest
// (largest) buckets first, against a smaller target space, bounds search
// time.
type bucketer struct {
	n, m, p1, p2 uint64
}

// newBucketer builds a bucketer over a universe of n' slots, targeting
// roughly c buckets per slot on average (scaled by log2(n')).
func newBucketer(n uint64, c float64) bucketer {
	if n == 0 {
		return bucketer{}
	}
	logn := log2Floor(n) + 1
	m := uint64(c * float64(n) / float64(logn))
	if m == 0 {
		m = 1
	}
	p1 := uint64(0.6 * float64(n))
	p2 := uint64(0.3 * float64(m))
	if p2 == 0 {
		p2 = 1
	}
	return bucketer{n: n, m: m, p1: p1, p2: p2}
}

// bucket maps a 64-bit key hash to a bucket id in [0, m).
func (b bucketer) bucket(h uint64) uint64 {
	if b.n == 0 {
		return 0
	}
	if h%b.n < b.p1 {
		return h % b.p2
	}
	return b.p2 + (h % (b.m - b.p2))
}

// numBuckets returns m, the total number of buckets.
func (b bucketer) numBuckets() uint64 { return b.m }

// MarshalBinary writes n, m, p1, p2 as four u64 fields.
func (b bucketer) MarshalBinary(w io.Writer) (int, error) {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:8], b.n)
	binary.LittleEndian.PutUint64(buf[8:16], b.m)
	binary.LittleEndian.PutUint64(buf[16:24], b.p1)
	binary.LittleEndian.PutUint64(buf[24:32], b.p2)
	return writeAll(w, buf[:])
}

func unmarshalBucketer(buf []byte) (bucketer, uint64, error) {
	if len(buf) < 32 {
		return bucketer{}, 0, ErrTooSmall
	}
	b := bucketer{
		n:  binary.LittleEndian.Uint64(buf[0:8]),
		m:  binary.LittleEndian.Uint64(buf[8:16]),
		p1: binary.LittleEndian.Uint64(buf[16:24]),
		p2: binary.LittleEndian.Uint64(buf[24:32]),
	}
	return b, 32, nil
}
