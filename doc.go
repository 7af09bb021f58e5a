// doc.go - top level documentation
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

// Package succinct implements succinct data structures for compact storage
// and fast query over large static key sets and associated values:
//
//  1. PTHash: a minimal perfect hash function (MPHF) that maps n distinct
//     keys onto a bijection with [0, n), in well under 4 bits/key.
//  2. BuRR (Bumped Ribbon Retrieval): a static key/value retrieval structure
//     built from a banded GF(2) linear system, with near-zero space overhead
//     over n*r bits.
//  3. PackedArray, DictArray and EliasFano: bit-packed integer containers
//     used internally by both engines and usable standalone.
//  4. DArray: a constant-time select() index over a dense bitset, used by
//     EliasFano to reconstruct its high bits.
//
// succinct exposes a convenient way to serialize keys and values OR just keys
// into an on-disk single-file database, via the 'DBWriter' and 'DBReader'
// types. Each object added is a <key, value> pair, where the key is a uint64 -
// most commonly obtained by hashing a user specific object. Callers should use
// a good hash function (e.g., siphash) that produces a uniform distribution
// of keys; 'DBWriter' never inspects key provenance.
package succinct
