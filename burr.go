// burr.go -- Bumped Ribbon Retrieval (BuRR): a layered RowSolver where
// rows that can't be placed in one layer cascade ("bump") into the next,
// with a fixed fallback ribbon absorbing whatever never settles.
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
	"math"
	"sort"
)

// maxBumpedLayers bounds BuRR's layer cascade; the fallback ribbon absorbs
// anything still unplaced after this many layers.
const maxBumpedLayers = 4

// minBumpedResidual is the point at which the cascade stops early and
// routes the remainder straight to the fallback ribbon.
const minBumpedResidual = 2048

// burrRow is one (key, value) pair together with the two fingerprints
// computed for whichever layer is currently trying to place it.
type burrRow struct {
	key   uint64
	value uint64
	h1    uint64
	h2    uint64
}

// layerSeed derives a per-layer hash seed from the top-level BuRR seed, so
// a bumped row gets an independent row/band assignment in the next layer
// (and in the fallback, treated as one layer past the cascade).
func layerSeed(seed uint64, layer int) uint64 {
	return mix(seed ^ (uint64(layer)+1)*goldenGamma)
}

// BumpedLayer is one layer of a BumpedRibbon: a RibbonTable over a bucketed
// universe, plus a per-bucket threshold code recording how much of the
// bucket's low-i suffix was bumped onward to the next layer.
type BumpedLayer struct {
	bucketSize     uint64
	upperThreshold uint64
	lowerThreshold uint64
	thresholds     *PackedArray // width 2, one code per bucket
	table          *RibbonTable
}

// isBumped reports whether row i in this layer's universe was bumped to
// the next layer rather than answered here.
func (l *BumpedLayer) isBumped(i uint64) bool {
	bk := i / l.bucketSize
	code := l.thresholds.get(bk)

	var t uint64
	switch code {
	case 0:
		t = 0
	case 1:
		t = l.lowerThreshold
	case 2:
		t = l.upperThreshold
	default:
		t = l.bucketSize
	}
	return i%l.bucketSize < t
}

func thresholdCode(t, lower, upper, bucketSize uint64) uint64 {
	switch {
	case t == 0:
		return 0
	case t <= lower:
		return 1
	case t <= upper:
		return 2
	default:
		return 3
	}
}

func thresholdValue(code, lower, upper, bucketSize uint64) uint64 {
	switch code {
	case 0:
		return 0
	case 1:
		return lower
	case 2:
		return upper
	default:
		return bucketSize
	}
}

// buildBumpedLayer builds one layer over table universe m from 'rows'
// (already fingerprinted for this layer's seed). It returns the layer and
// the rows bumped onward to the next layer.
func buildBumpedLayer(rows []burrRow, w, r uint, m, bucketSize, lower, upper uint64) (*BumpedLayer, []burrRow) {
	type irow struct {
		i, c, val, at uint64
		src           int
	}

	irows := make([]irow, len(rows))
	for idx, rw := range rows {
		i, c := rowFromHash(rw.h1, rw.h2, m, w)
		irows[idx] = irow{i: i, c: c, val: rw.value, src: idx}
	}
	sort.Slice(irows, func(a, b int) bool { return irows[a].i < irows[b].i })

	sys := newRibbonBandingSystem(m, w, r)
	numBuckets := (m + bucketSize - 1) / bucketSize
	codes := make([]uint64, numBuckets)

	var bumped []burrRow

	pos := 0
	for bk := uint64(0); bk < numBuckets; bk++ {
		bucketStart := bk * bucketSize
		bucketEnd := bucketStart + bucketSize

		start := pos
		for pos < len(irows) && irows[pos].i < bucketEnd {
			pos++
		}
		bucketRows := irows[start:pos]

		var bumpOffset uint64
		inserted := bucketRows[:0:0]
		for k := len(bucketRows) - 1; k >= 0; k-- {
			rw := bucketRows[k]
			res := sys.insertRow(rw.i, rw.c, rw.val)
			if res == insertFailure {
				bumpOffset = rw.i - bucketStart + 1
				for _, lost := range bucketRows[:k+1] {
					bumped = append(bumped, rows[lost.src])
				}
				break
			}
			rw.at = ^uint64(0)
			if res == insertSuccess {
				rw.at = rw.i
				for band := rw.c ^ sys.c.get(rw.at); band != 0; band ^= sys.c.get(rw.at) {
					j := uint64(ctz(band))
					band >>= j
					rw.at += j
				}
			}
			inserted = append(inserted, rw)
		}

		code := thresholdCode(bumpOffset, lower, upper, bucketSize)
		codes[bk] = code
		t := thresholdValue(code, lower, upper, bucketSize)

		for _, rw := range inserted {
			if rw.i-bucketStart < t {
				if rw.at != ^uint64(0) {
					sys.clearRow(rw.at)
				}
				bumped = append(bumped, rows[rw.src])
			}
		}
	}

	thresholds := NewPackedArray(2, numBuckets)
	for bk, c := range codes {
		thresholds.setFromZero(uint64(bk), c)
	}

	layer := &BumpedLayer{
		bucketSize:     bucketSize,
		upperThreshold: upper,
		lowerThreshold: lower,
		thresholds:     thresholds,
		table:          sys.backSubstitute(),
	}
	return layer, bumped
}

// BumpedRibbon is a layered BuRR structure: up to maxBumpedLayers
// cascading BumpedLayers followed by a fixed fallback RibbonTable that
// always answers.
type BumpedRibbon struct {
	w        uint
	r        uint
	seed     uint64
	layers   []*BumpedLayer
	fallback *RibbonTable
}

// BuildBumpedRibbon builds a BumpedRibbon mapping each keys[i] to
// values[i], using band width w and retrieval epsilon eps (fractional
// per-layer table overhead).
func BuildBumpedRibbon(keys, values []uint64, w uint, seed uint64, eps float64) (*BumpedRibbon, error) {
	if len(keys) != len(values) {
		panic("succinct: BuildBumpedRibbon: keys and values length mismatch")
	}

	var maxVal uint64
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	r := bitWidthFor(maxVal)
	if len(values) == 0 {
		r = 1
	}

	logw := log2Ceil(uint64(w))
	if logw == 0 {
		logw = 1
	}
	bucketSize := (uint64(w) * uint64(w)) / (4 * logw)
	if bucketSize == 0 {
		bucketSize = 1
	}
	lower := bucketSize / 7
	upper := bucketSize / 4

	cur := make([]burrRow, len(keys))
	for i, k := range keys {
		cur[i] = burrRow{key: k, value: values[i]}
	}

	var layers []*BumpedLayer
	for l := 0; l < maxBumpedLayers && uint64(len(cur)) >= minBumpedResidual; l++ {
		lseed := layerSeed(seed, l)
		for i := range cur {
			cur[i].h1, cur[i].h2 = keyHashPair(lseed, cur[i].key)
		}

		m := uint64(math.Ceil(float64(len(cur)) * (eps + 1)))
		if wp1 := uint64(w) + 1; m < wp1 {
			m = wp1
		}

		layer, bumped := buildBumpedLayer(cur, w, r, m, bucketSize, lower, upper)
		layers = append(layers, layer)
		cur = bumped
	}

	fseed := layerSeed(seed, len(layers))
	for i := range cur {
		cur[i].h1, cur[i].h2 = keyHashPair(fseed, cur[i].key)
	}

	fallback, err := buildFallbackRibbon(cur, w, r)
	if err != nil {
		return nil, err
	}

	return &BumpedRibbon{w: w, r: r, seed: seed, layers: layers, fallback: fallback}, nil
}

// buildFallbackRibbon places the residual rows into a RibbonTable via an
// expanding-universe retry loop.
func buildFallbackRibbon(rows []burrRow, w, r uint) (*RibbonTable, error) {
	n := uint64(len(rows))
	m := n
	if wp1 := uint64(w) + 1; m < wp1 {
		m = wp1
	}
	growth := n / 10
	if growth == 0 {
		growth = 1
	}

	for iter := 0; iter < 50; iter++ {
		sys := newRibbonBandingSystem(m, w, r)
		ok := true
		for _, rw := range rows {
			i, c := rowFromHash(rw.h1, rw.h2, m, w)
			if sys.insertRow(i, c, rw.value) == insertFailure {
				ok = false
				break
			}
		}
		if ok {
			return sys.backSubstitute(), nil
		}
		m += growth
	}
	return nil, fmt.Errorf("burr: %w: fallback ribbon exhausted 50 universe sizes", ErrHashCollision)
}

// Lookup returns the value associated with key. Behaviour is only
// specified for keys present at build time.
func (br *BumpedRibbon) Lookup(key uint64) uint64 {
	for l, layer := range br.layers {
		lseed := layerSeed(br.seed, l)
		h1, h2 := keyHashPair(lseed, key)
		i, c := rowFromHash(h1, h2, layer.table.n, br.w)
		if !layer.isBumped(i) {
			return layer.table.Lookup(i, c)
		}
	}

	fseed := layerSeed(br.seed, len(br.layers))
	h1, h2 := keyHashPair(fseed, key)
	i, c := rowFromHash(h1, h2, br.fallback.n, br.w)
	return br.fallback.Lookup(i, c)
}

// Find implements the MPH interface shared with MPHF so DBWriter/DBReader
// can be backed by either: for BuRR, the "index" is simply the stored
// value, which the build step assigns as the record's position.
func (br *BumpedRibbon) Find(key uint64) (uint64, bool) {
	return br.Lookup(key), true
}

// Len returns the number of rows in the structure's largest layer.
func (br *BumpedRibbon) Len() uint64 {
	if len(br.layers) > 0 {
		return br.layers[0].table.n
	}
	return br.fallback.n
}

// Bits returns the approximate total on-disk footprint in bits.
func (br *BumpedRibbon) Bits() uint64 {
	var total uint64
	for _, l := range br.layers {
		total += l.thresholds.Bits() + l.table.Bits()
	}
	total += br.fallback.Bits()
	return total
}

// DumpMeta writes a human-readable summary of the structure to w.
func (br *BumpedRibbon) DumpMeta(w io.Writer) {
	fmt.Fprintf(w, "BumpedRibbon: w=%d seed=%#x layers=%d fallback-n=%d bits=%d\n",
		br.w, br.seed, len(br.layers), br.fallback.n, br.Bits())
	for i, l := range br.layers {
		fmt.Fprintf(w, "  layer %d: n=%d bucket_size=%d lower=%d upper=%d\n",
			i, l.table.n, l.bucketSize, l.lowerThreshold, l.upperThreshold)
	}
}

// MarshalBinary writes w, seed, layers_len, each layer, then the fallback
// table.
func (br *BumpedRibbon) MarshalBinary(w io.Writer) (int, error) {
	var hdr [24]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(br.w))
	binary.LittleEndian.PutUint64(hdr[8:16], br.seed)
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(len(br.layers)))

	total, err := writeAll(w, hdr[:])
	if err != nil {
		return total, err
	}

	for _, l := range br.layers {
		n, err := l.MarshalBinary(w)
		if err != nil {
			return total + n, err
		}
		total += n
	}

	n, err := br.fallback.MarshalBinary(w)
	return total + n, err
}

// MarshalBinary writes bucket_size, upper_threshold, lower_threshold, the
// thresholds PackedArray, then the RibbonTable.
func (l *BumpedLayer) MarshalBinary(w io.Writer) (int, error) {
	var hdr [24]byte
	binary.LittleEndian.PutUint64(hdr[0:8], l.bucketSize)
	binary.LittleEndian.PutUint64(hdr[8:16], l.upperThreshold)
	binary.LittleEndian.PutUint64(hdr[16:24], l.lowerThreshold)

	total, err := writeAll(w, hdr[:])
	if err != nil {
		return total, err
	}

	n, err := l.thresholds.MarshalBinary(w)
	if err != nil {
		return total + n, err
	}
	total += n

	n, err = l.table.MarshalBinary(w)
	return total + n, err
}

// unmarshalBumpedLayer reads a BumpedLayer previously written by
// MarshalBinary. The thresholds PackedArray's logical length is fixed up
// from the table's n once both are known: PackedArray's
// on-disk form is self-delimiting from its width+word-count header alone,
// so the read order here matches the write order exactly.
func unmarshalBumpedLayer(buf []byte) (*BumpedLayer, uint64, error) {
	if len(buf) < 24 {
		return nil, 0, ErrTooSmall
	}
	bucketSize := binary.LittleEndian.Uint64(buf[0:8])
	upper := binary.LittleEndian.Uint64(buf[8:16])
	lower := binary.LittleEndian.Uint64(buf[16:24])
	off := uint64(24)

	thresholds, n, err := unmarshalPackedArray(buf[off:], 0)
	if err != nil {
		return nil, 0, err
	}
	off += n

	table, n, err := unmarshalRibbonTable(buf[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	thresholds.n = (table.n + bucketSize - 1) / bucketSize

	l := &BumpedLayer{
		bucketSize:     bucketSize,
		upperThreshold: upper,
		lowerThreshold: lower,
		thresholds:     thresholds,
		table:          table,
	}
	return l, off, nil
}

// UnmarshalBumpedRibbon reads a BumpedRibbon previously written by
// MarshalBinary.
func UnmarshalBumpedRibbon(buf []byte) (*BumpedRibbon, uint64, error) {
	if len(buf) < 24 {
		return nil, 0, ErrTooSmall
	}
	w := uint(binary.LittleEndian.Uint64(buf[0:8]))
	seed := binary.LittleEndian.Uint64(buf[8:16])
	nLayers := binary.LittleEndian.Uint64(buf[16:24])
	off := uint64(24)

	layers := make([]*BumpedLayer, nLayers)
	for i := uint64(0); i < nLayers; i++ {
		l, n, err := unmarshalBumpedLayer(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		layers[i] = l
	}

	fallback, n, err := unmarshalRibbonTable(buf[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	var r uint
	if len(layers) > 0 {
		r = layers[0].table.data.width
	} else {
		r = fallback.data.width
	}

	br := &BumpedRibbon{w: w, r: r, seed: seed, layers: layers, fallback: fallback}
	return br, off, nil
}
