// endian.go -- byte-slice <-> word-slice reinterpretation and endian helpers
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
	"math/bits"
	"unsafe"
)

// u64sToByteSlice reinterprets a []uint64 as a []byte without copying.
// The returned slice aliases 'v' and must not outlive it.
func u64sToByteSlice(v []uint64) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*8)
}

// bsToUint64Slice reinterprets a []byte as a []uint64 without copying.
// len(b) must be a multiple of 8; the returned slice aliases 'b'.
func bsToUint64Slice(b []byte) []uint64 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), len(b)/8)
}

func u32sToByteSlice(v []uint32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

func bsToUint32Slice(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func u16sToByteSlice(v []uint16) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*2)
}

func bsToUint16Slice(b []byte) []uint16 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b[0])), len(b)/2)
}

func toLittleEndianUint16(x uint16) uint16 {
	return toLEUint16(x)
}

func toLittleEndianUint32(x uint32) uint32 {
	return toLEUint32(x)
}

func toLittleEndianUint64(x uint64) uint64 {
	return toLEUint64(x)
}

func popcount(x uint64) uint64 {
	return uint64(bits.OnesCount64(x))
}

func ctz(x uint64) int {
	return bits.TrailingZeros64(x)
}

func log2Ceil(x uint64) uint64 {
	if x <= 1 {
		return 0
	}
	return uint64(bits.Len64(x - 1))
}

// log2Floor returns floor(log2(x)) for x >= 1.
func log2Floor(x uint64) uint64 {
	return uint64(bits.Len64(x) - 1)
}
