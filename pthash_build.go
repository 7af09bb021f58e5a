// pthash_build.go -- construction path for the PTHash minimal perfect
// hash function: bucket assignment, descending-size bucket ordering,
// per-bucket pivot search, and alpha-relaxation free-slot compression.
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
	"fmt"
	"runtime"
	"sort"
	"sync"
)

// MinParallelPTHashKeys is the key-count threshold below which the
// hash/bucket-assignment pass runs on a single goroutine; at or above it,
// the pass is sharded across GOMAXPROCS goroutines.
const MinParallelPTHashKeys = 20000

// BuildMPHFUsingSeed builds an MPHF from keys using the fixed seed given.
// It returns ErrHashCollision if two distinct keys hash identically, or if
// the per-bucket pivot search exceeds its safeguard cap.
func BuildMPHFUsingSeed(keys []uint64, params PTHashParams, seed uint64) (*MPHF, error) {
	n := uint64(len(keys))
	if n == 0 {
		return &MPHF{pivots: NewPackedArray(1, 0)}, nil
	}

	nPrime := uint64(float64(n) / params.Alpha)
	if nPrime < n {
		nPrime = n
	}

	buck := newBucketer(nPrime, params.C)

	h, bkt, counts := computeHashesAndBuckets(keys, seed, buck)

	if hasDuplicateHash(h) {
		return nil, ErrHashCollision
	}

	order, bucketStart := groupByBucket(bkt, counts)
	sorted := sortBucketsBySizeDesc(counts)

	taken := newBitset(nPrime)
	attempted := newBitset(nPrime)
	pivots := make([]uint64, buck.m)

	var touched []uint64 // scratch: positions set in 'attempted' this try

	for _, b := range sorted {
		start, end := bucketStart[b], bucketStart[b+1]
		if start == end {
			continue
		}
		entries := order[start:end]

		pivot, err := searchPivot(entries, h, seed, nPrime, taken, attempted, &touched)
		if err != nil {
			return nil, err
		}
		pivots[b] = pivot
	}

	var pivotEnc pivotEncoding
	if params.UseDictArray {
		pivotEnc = EncodeDictArray(pivots)
	} else {
		pivotEnc = EncodePackedArray(pivots)
	}

	mp := &MPHF{
		n:      n,
		seed:   seed,
		b:      buck,
		pivots: pivotEnc,
	}

	if nPrime > n {
		mp.freeSlots = buildFreeSlots(taken, n, nPrime)
	}

	return mp, nil
}

// BuildMPHFUsingRandomSeed retries BuildMPHFUsingSeed with fresh seeds
// (drawn from crypto/rand) until it succeeds or params.MaxAttempts is
// exhausted.
func BuildMPHFUsingRandomSeed(keys []uint64, params PTHashParams) (*MPHF, error) {
	attempts := params.MaxAttempts
	if attempts <= 0 {
		attempts = 1000
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		mp, err := BuildMPHFUsingSeed(keys, params, rand64())
		if err == nil {
			return mp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrHashCollision
	}
	return nil, ErrHashCollision
}

// computeHashesAndBuckets fingerprints every key and assigns it a bucket
// id, sharding the work across goroutines once n crosses
// MinParallelPTHashKeys: disjoint output slices per shard, a per-shard
// local histogram merged into the shared one under a single mutex.
func computeHashesAndBuckets(keys []uint64, seed uint64, buck bucketer) ([]uint64, []uint32, []uint32) {
	n := len(keys)
	h := make([]uint64, n)
	bkt := make([]uint32, n)
	counts := make([]uint32, buck.m)

	fill := func(start, end int, local []uint32) {
		for i := start; i < end; i++ {
			hh := keyHash(seed, keys[i])
			h[i] = hh
			b := uint32(buck.bucket(hh))
			bkt[i] = b
			local[b]++
		}
	}

	if n < MinParallelPTHashKeys {
		fill(0, n, counts)
		return h, bkt, counts
	}

	ncpu := runtime.GOMAXPROCS(0)
	shard := (n + ncpu - 1) / ncpu
	var wg sync.WaitGroup
	var mu sync.Mutex

	for s := 0; s < ncpu; s++ {
		start := s * shard
		if start >= n {
			break
		}
		end := start + shard
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			local := make([]uint32, buck.m)
			fill(start, end, local)
			mu.Lock()
			for i, c := range local {
				counts[i] += c
			}
			mu.Unlock()
		}(start, end)
	}
	wg.Wait()

	return h, bkt, counts
}

func hasDuplicateHash(h []uint64) bool {
	sorted := append([]uint64(nil), h...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return true
		}
	}
	return false
}

// groupByBucket builds a CSR-style grouping of key indices by bucket id,
// ascending: order[bucketStart[b]:bucketStart[b+1]] lists the indices of
// every key assigned to bucket b.
func groupByBucket(bkt []uint32, counts []uint32) ([]uint32, []uint32) {
	m := len(counts)
	bucketStart := make([]uint32, m+1)
	for i := 0; i < m; i++ {
		bucketStart[i+1] = bucketStart[i] + counts[i]
	}

	cursor := append([]uint32(nil), bucketStart[:m]...)
	order := make([]uint32, len(bkt))
	for i, b := range bkt {
		order[cursor[b]] = uint32(i)
		cursor[b]++
	}
	return order, bucketStart
}

// sortBucketsBySizeDesc orders bucket ids by (-count, +id), the mandatory
// PTHash pivot-search visitation order. Implemented
// as a counting sort over bucket sizes, grounded in the same idiom as
// tamirms-streamhash's countingSortBucketsInto: the full bucket set is
// known upfront, so a single counting-sort pass beats a heap.
func sortBucketsBySizeDesc(counts []uint32) []uint32 {
	m := len(counts)
	var maxSize uint32
	for _, c := range counts {
		if c > maxSize {
			maxSize = c
		}
	}

	bySize := make([]uint32, maxSize+1)
	for _, c := range counts {
		bySize[c]++
	}

	positions := make([]uint32, maxSize+1)
	var cumulative uint32
	for size := int(maxSize); size >= 0; size-- {
		positions[size] = cumulative
		cumulative += bySize[size]
	}

	sorted := make([]uint32, m)
	for id := 0; id < m; id++ {
		size := counts[id]
		sorted[positions[size]] = uint32(id)
		positions[size]++
	}
	return sorted
}

// searchPivot finds the smallest pivot p such that every key hash in
// entries lands on a distinct position outside 'taken'. A scratch bitset stages tentative positions for the current attempt;
// 'touched' records which bits were set so they can be cleared in O(bucket
// size) rather than re-zeroing the whole scratch bitset.
func searchPivot(entries []uint32, h []uint64, seed, nPrime uint64, taken, attempted *bitset, touched *[]uint64) (uint64, error) {
	for p := uint64(0); p < maxPivot; p++ {
		ok := true
		*touched = (*touched)[:0]

		for _, idx := range entries {
			x := posMix(seed, p, h[idx]) % nPrime
			if taken.isSet(x) || attempted.isSet(x) {
				ok = false
				break
			}
			attempted.set(x)
			*touched = append(*touched, x)
		}

		for _, x := range *touched {
			attempted.clear(x)
		}

		if ok {
			for _, idx := range entries {
				x := posMix(seed, p, h[idx]) % nPrime
				taken.set(x)
			}
			return p, nil
		}
	}
	return 0, fmt.Errorf("pthash: %w: pivot search exceeded %d attempts", ErrHashCollision, maxPivot)
}

// buildFreeSlots redirects every position n+j in
// [n, n') that a key actually occupies, redirect it to the next unused
// slot below n, in ascending order; positions in [n, n') nobody ever hits
// keep the previous redirect target, since they're never queried.
func buildFreeSlots(taken *bitset, n, nPrime uint64) *EliasFano {
	vals := make([]uint64, nPrime-n)
	cursor := uint64(0)
	var last uint64

	for j := uint64(0); j < nPrime-n; j++ {
		if taken.isSet(n + j) {
			for cursor < n && taken.isSet(cursor) {
				cursor++
			}
			last = cursor
			cursor++
		}
		vals[j] = last
	}

	return EncodeEliasFano(vals)
}
