// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCombineBitExact(t *testing.T) {
	require.Equal(t, uint64(0x9e3779b9), Combine(0, 0))
	require.Equal(t, uint64(1)^(1+0x9e3779b9+64+0), Combine(1, 1))
}

func TestSeededHasherIsStable(t *testing.T) {
	a := NewSeededHasher(42)
	b := NewSeededHasher(42)
	_, _ = a.Write([]byte("hello"))
	_, _ = b.Write([]byte("hello"))
	require.Equal(t, Sum64(a), Sum64(b))

	c := NewSeededHasher(7)
	_, _ = c.Write([]byte("hello"))
	require.NotEqual(t, Sum64(a), Sum64(c))
}

func TestIdentityHasherRejectsNonIntegerWrites(t *testing.T) {
	h := NewIdentityHasher()
	_, _ = h.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.Equal(t, uint64(0x0807060504030201), h.Sum64())

	require.Panics(t, func() {
		h2 := NewIdentityHasher()
		_, _ = h2.Write([]byte{1, 2, 3})
	})
}
