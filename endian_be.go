// endian_be.go -- endian convertors for big-endian architectures
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

//go:build s390x || ppc64 || mips || mips64
// +build s390x ppc64 mips mips64

package succinct

import "math/bits"

func toLEUint16(x uint16) uint16 { return bits.ReverseBytes16(x) }
func toLEUint32(x uint32) uint32 { return bits.ReverseBytes32(x) }
func toLEUint64(x uint64) uint64 { return bits.ReverseBytes64(x) }

func toBEUint16(x uint16) uint16 { return x }
func toBEUint32(x uint32) uint32 { return x }
func toBEUint64(x uint64) uint64 { return x }
