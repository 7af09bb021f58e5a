// darray.go -- constant-time select() index over a dense bitset
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
	"math/bits"
)

const (
	darrayBlockSize       = 1024
	darraySubblockSize    = 32
	darrayMaxBlockDist    = 1 << 16
)

// darrayBlock is one entry of the block inventory. When overflow is false,
// pos is the absolute bit-position of the block's first matching bit.
// When overflow is true, pos is the starting index into overflowPositions
// where this block's 1024 absolute positions are stored verbatim.
type darrayBlock struct {
	overflow bool
	pos      uint64
}

// DArray answers select(i) -- the position of the i-th matching bit in a
// bitset, in expected O(1) time -- using a two-level block/subblock
// inventory with a raw-position overflow fallback for sparse blocks. It is
// always built with respect to a fixed polarity: set bits (select1) or
// unset bits (select0, by inverting every word on read).
type DArray struct {
	blocks             []darrayBlock
	subblocks          []uint16
	overflowPositions  []uint64
	count              uint64 // number of matching bits
	zero               bool   // polarity: true => select0 (count unset bits)
}

// newDArray builds a DArray over bs answering select() for matching bits
// (set bits when zero=false, unset bits when zero=true).
func newDArray(bs *bitset, zero bool) *DArray {
	d := &DArray{zero: zero}

	var scratch [darrayBlockSize]uint64
	n := 0 // positions buffered in scratch since last flush
	var blockFirst uint64

	flush := func() {
		if n == 0 {
			return
		}
		first := scratch[0]
		last := scratch[n-1]
		if last-first < darrayMaxBlockDist {
			d.blocks = append(d.blocks, darrayBlock{overflow: false, pos: first})
			for j := 0; j < n; j += darraySubblockSize {
				d.subblocks = append(d.subblocks, uint16(scratch[j]-first))
			}
		} else {
			overflowStart := uint64(len(d.overflowPositions))
			d.blocks = append(d.blocks, darrayBlock{overflow: true, pos: overflowStart})
			d.overflowPositions = append(d.overflowPositions, scratch[:n]...)
			for j := 0; j < n; j += darraySubblockSize {
				d.subblocks = append(d.subblocks, 0)
			}
		}
		n = 0
	}

	nwords := bs.words()
	for wi := uint64(0); wi < nwords; wi++ {
		word := bs.v[wi]
		if zero {
			word = ^word
		}
		for word != 0 {
			b := uint(bits.TrailingZeros64(word))
			pos := wi*64 + uint64(b)
			if pos >= bs.n {
				word &= word - 1
				continue
			}
			if n == 0 {
				blockFirst = pos
			}
			_ = blockFirst
			scratch[n] = pos
			n++
			d.count++
			if n == darrayBlockSize {
				flush()
			}
			word &= word - 1
		}
	}
	flush()

	return d
}

// Select returns the position of the i-th matching bit (0-indexed,
// ascending order).
func (d *DArray) Select(bs *bitset, i uint64) uint64 {
	blk := i / darrayBlockSize
	b := d.blocks[blk]

	if b.overflow {
		return d.overflowPositions[b.pos+(i%darrayBlockSize)]
	}

	subIdx := i / darraySubblockSize
	start := b.pos + uint64(d.subblocks[subIdx])

	rem := i % darraySubblockSize
	if rem == 0 {
		return start
	}

	wordIdx := start / 64
	word := d.readWord(bs, wordIdx)
	// mask off bits below 'start' within this word
	word &= ^uint64(0) << (start % 64)

	cnt := uint64(bits.OnesCount64(word))
	for cnt <= rem {
		rem -= cnt
		wordIdx++
		word = d.readWord(bs, wordIdx)
		cnt = uint64(bits.OnesCount64(word))
	}

	sel := selectInWord(word, uint(rem))
	return wordIdx*64 + uint64(sel)
}

func (d *DArray) readWord(bs *bitset, wordIdx uint64) uint64 {
	w := bs.v[wordIdx]
	if d.zero {
		w = ^w
	}
	return w
}

// selectInWord returns the bit position (0..63) of the k-th (0-indexed)
// set bit in w.
func selectInWord(w uint64, k uint) uint {
	for i := uint(0); i < k; i++ {
		w &= w - 1
	}
	return uint(bits.TrailingZeros64(w))
}

// Count returns the number of matching bits indexed by this DArray.
func (d *DArray) Count() uint64 { return d.count }

// MarshalBinary writes the DArray: block inventory (packed {overflow:1,
// pos:63} per entry), subblock inventory (u16 each), overflow positions
// (u64 each) -- each slice length-prefixed and 8-byte aligned.
func (d *DArray) MarshalBinary(w io.Writer) (int, error) {
	packedBlocks := make([]uint64, len(d.blocks))
	for i, b := range d.blocks {
		v := b.pos & (uint64(1)<<63 - 1)
		if b.overflow {
			v |= uint64(1) << 63
		}
		packedBlocks[i] = v
	}

	total := 0
	n, err := writeSlice64(w, packedBlocks)
	if err != nil {
		return total, err
	}
	total += n

	n, err = writeSlice16(w, d.subblocks)
	if err != nil {
		return total, err
	}
	total += n

	n, err = writeSlice64(w, d.overflowPositions)
	if err != nil {
		return total, err
	}
	total += n

	return total, nil
}

// unmarshalDArray reads a DArray previously written by MarshalBinary.
// count and zero (the polarity) must be supplied by the caller, since
// neither is part of the serialized payload (the containing structure,
// e.g. EliasFano, already knows them).
func unmarshalDArray(buf []byte, count uint64, zero bool) (*DArray, uint64, error) {
	off := uint64(0)

	packedBlocks, n, err := readSlice64(buf[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	subblocks, n, err := readSlice16(buf[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	overflow, n, err := readSlice64(buf[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n

	blocks := make([]darrayBlock, len(packedBlocks))
	for i, v := range packedBlocks {
		blocks[i] = darrayBlock{
			overflow: v&(uint64(1)<<63) != 0,
			pos:      v & (uint64(1)<<63 - 1),
		}
	}

	d := &DArray{
		blocks:            blocks,
		subblocks:         subblocks,
		overflowPositions: overflow,
		count:             count,
		zero:              zero,
	}
	return d, off, nil
}

// --- shared length-prefixed, 8-byte-aligned slice codecs ---

func writeSlice64(w io.Writer, v []uint64) (int, error) {
	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(len(v)))
	n, err := writeAll(w, hdr[:])
	if err != nil {
		return n, err
	}
	m, err := writeAll(w, u64sToByteSlice(v))
	return n + m, err
}

func readSlice64(buf []byte) ([]uint64, uint64, error) {
	if len(buf) < 8 {
		return nil, 0, ErrTooSmall
	}
	count := binary.LittleEndian.Uint64(buf[:8])
	need := 8 + count*8
	if uint64(len(buf)) < need {
		return nil, 0, ErrTooSmall
	}
	return bsToUint64Slice(buf[8:need]), need, nil
}

func writeSlice16(w io.Writer, v []uint16) (int, error) {
	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(len(v)))
	n, err := writeAll(w, hdr[:])
	if err != nil {
		return n, err
	}
	m, err := writeAll(w, u16sToByteSlice(v))
	if err != nil {
		return n + m, err
	}
	pad := (8 - (len(v)*2)%8) % 8
	if pad > 0 {
		var z [8]byte
		p, err := writeAll(w, z[:pad])
		if err != nil {
			return n + m + p, err
		}
		m += p
	}
	return n + m, nil
}

func readSlice16(buf []byte) ([]uint16, uint64, error) {
	if len(buf) < 8 {
		return nil, 0, ErrTooSmall
	}
	count := binary.LittleEndian.Uint64(buf[:8])
	bytelen := count * 2
	pad := uint64((8 - (bytelen)%8) % 8)
	need := 8 + bytelen + pad
	if uint64(len(buf)) < need {
		return nil, 0, ErrTooSmall
	}
	v := bsToUint16Slice(buf[8 : 8+bytelen])
	return v, need, nil
}
