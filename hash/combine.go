// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

// Package hash holds the row-fingerprint combiner and two hashers: a stable
// seeded hasher over raw column bytes (backed by xxhash), which the group-by
// kernel composes with the combiner, and an identity passthrough hasher for
// callers who already hold 64-bit keys.
package hash

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// combinerConstant is required for bit-exact compatibility with the
// reference row-fingerprint combiner; it must never be changed.
const combinerConstant = 0x9e3779b9

// Combine folds two u64 hashes into one fingerprint. The constant and shifts
// are load-bearing: combine(0,0) == 0x9e3779b9 and
// combine(1,1) == 1 ^ (1 + 0x9e3779b9 + 64 + 0) are part of this module's
// testable contract.
func Combine(l, r uint64) uint64 {
	return l ^ (r + combinerConstant + (l << 6) + (r >> 2))
}

// NewSeededHasher returns a fresh xxhash digest seeded with seed. Writing the
// same bytes to two digests created with the same seed always yields the
// same Sum64, which is what lets the group-by kernel defer expensive
// row-value comparisons until a fingerprint collision is observed.
func NewSeededHasher(seed uint64) io.Writer {
	return xxhash.NewWithSeed(seed)
}

// Sum64 extracts the accumulated digest from a hasher built by
// NewSeededHasher. It panics (a programming error, not a user error) if w was
// not created by NewSeededHasher.
func Sum64(w io.Writer) uint64 {
	d, ok := w.(*xxhash.Digest)
	if !ok {
		panic("hash: Sum64 called on a writer not created by NewSeededHasher")
	}
	return d.Sum64()
}
