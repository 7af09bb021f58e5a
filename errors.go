// errors.go - public errors exposed by succinct
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
	"errors"
)

var (
	// ErrHashCollision is returned when two distinct keys produce an
	// identical 64-bit hash, or when a bounded retry budget (a fresh
	// build seed, or an expanding ribbon universe) is exhausted without
	// success.
	ErrHashCollision = errors.New("succinct: hash collision or exhausted retry budget")

	// ErrOutOfMemory is returned when an allocation during build or read
	// fails.
	ErrOutOfMemory = errors.New("succinct: out of memory")

	// ErrFrozen is returned when attempting to add new records to an
	// already frozen DB. It is also returned when trying to freeze a DB
	// that's already frozen.
	ErrFrozen = errors.New("DB already frozen")

	// ErrValueTooLarge is returned if the value-length is larger than
	// 2^32-1 bytes
	ErrValueTooLarge = errors.New("value is larger than 2^32-1 bytes")

	// ErrExists is returned if a duplicate key is added to the DB
	ErrExists = errors.New("key exists in DB")

	// ErrNoKey is returned when a key cannot be found in the DB
	ErrNoKey = errors.New("no such key")

	// ErrTooSmall means the header or buffer is too small for unmarshalling
	ErrTooSmall = errors.New("not enough data to unmarshal")

	// ErrParse names a malformed input record. No function in this
	// module returns it: the CLI's text loader takes every line that is
	// neither blank nor a '#' comment as a string key with an optional
	// value.
	ErrParse = errors.New("succinct: malformed input record")
)
