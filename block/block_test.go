// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package block

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNewDataBlock_RowCountMismatch(t *testing.T) {
	_, err := NewDataBlock(
		[]Field{{Name: "a", Type: Int64}, {Name: "b", Type: Int64}},
		[]Column{NewNumericColumn([]int64{1, 2, 3}), NewNumericColumn([]int64{1, 2})},
	)
	require.Error(t, err)
}

func TestTakeFilterSlicePreserveRowCount(t *testing.T) {
	b, err := NewDataBlock(
		[]Field{{Name: "a", Type: Int64}, {Name: "s", Type: String}},
		[]Column{
			NewNumericColumn([]int64{10, 20, 30, 40}),
			NewStringColumn([]string{"w", "x", "y", "z"}),
		},
	)
	require.NoError(t, err)

	taken := b.Take([]int{3, 0})
	require.Equal(t, 2, taken.NumRows())
	col, err := taken.GetByName("a")
	require.NoError(t, err)
	nc := col.(*NumericColumn[int64])
	v0, _ := nc.At(0)
	v1, _ := nc.At(1)
	require.Equal(t, int64(40), v0)
	require.Equal(t, int64(10), v1)

	filtered, err := b.Filter([]bool{false, true, false, true})
	require.NoError(t, err)
	require.Equal(t, 2, filtered.NumRows())

	sliced, err := b.Slice(1, 3)
	require.NoError(t, err)
	require.Equal(t, 2, sliced.NumRows())
	for _, c := range []Column{col} {
		require.Equal(t, 2, c.Len())
	}
}

func TestResortToSchema(t *testing.T) {
	b, err := NewDataBlock(
		[]Field{{Name: "a", Type: Int64}, {Name: "b", Type: Int64}},
		[]Column{NewNumericColumn([]int64{1}), NewNumericColumn([]int64{2})},
	)
	require.NoError(t, err)

	target := Schema{Fields: []Field{{Name: "b", Type: Int64}, {Name: "a", Type: Int64}}}
	sorted, err := b.ResortToSchema(target)
	require.NoError(t, err)
	first, err := sorted.GetByOffset(0)
	require.NoError(t, err)
	v, _ := first.(*NumericColumn[int64]).At(0)
	require.Equal(t, int64(2), v)

	if diff := cmp.Diff(target, sorted.Schema()); diff != "" {
		t.Errorf("resorted schema mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyDataBlock(t *testing.T) {
	b := EmptyDataBlock(Schema{Fields: []Field{{Name: "a", Type: Int64}}})
	require.True(t, b.IsEmpty())
	require.Equal(t, 0, b.NumRows())
	require.Equal(t, 1, b.NumColumns())
}

func TestNullableColumnValidity(t *testing.T) {
	col := NewNullableNumericColumn([]int64{1, 0, 3}, []bool{true, false, true})
	require.True(t, col.Valid(0))
	require.False(t, col.Valid(1))
	require.True(t, col.Valid(2))
}

func TestConcatReproducesAllRows(t *testing.T) {
	a, err := NewDataBlock([]Field{{Name: "a", Type: Int64}}, []Column{NewNumericColumn([]int64{1, 2})})
	require.NoError(t, err)
	c, err := NewDataBlock([]Field{{Name: "a", Type: Int64}}, []Column{NewNumericColumn([]int64{3, 4})})
	require.NoError(t, err)

	merged, err := a.Concat(c)
	require.NoError(t, err)
	require.Equal(t, 4, merged.NumRows())
}
