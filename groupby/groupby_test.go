// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package groupby

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datafuselabs/fusequery-core/block"
)

func buildBlock(t *testing.T, fields []block.Field, columns []block.Column) *block.DataBlock {
	t.Helper()
	b, err := block.NewDataBlock(fields, columns)
	require.NoError(t, err)
	return b
}

func TestGetIndices_ModuloGrouping(t *testing.T) {
	a := []int64{1, 2, 3, 4, 5}
	mod3 := make([]int64, len(a))
	for i, v := range a {
		mod3[i] = v % 3
	}
	b := buildBlock(t,
		[]block.Field{{Name: "a", Type: block.Int64}, {Name: "m", Type: block.Int64}},
		[]block.Column{block.NewNumericColumn(a), block.NewNumericColumn(mod3)},
	)

	table, err := GetIndices(b, []string{"m"})
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	byValue := map[int64][]int{}
	for _, bucket := range table.Buckets() {
		v := mod3[bucket.Key.Idx]
		byValue[v] = append([]int(nil), bucket.Indices...)
	}
	require.Equal(t, []int{2}, byValue[0])
	require.Equal(t, []int{0, 3}, byValue[1])
	require.Equal(t, []int{1, 4}, byValue[2])
}

func TestGetIndices_EmptyColumnListYieldsOneGroup(t *testing.T) {
	a := []int64{10, 20, 30}
	b := buildBlock(t,
		[]block.Field{{Name: "a", Type: block.Int64}},
		[]block.Column{block.NewNumericColumn(a)},
	)

	table, err := GetIndices(b, nil)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	got := table.Buckets()[0].Indices
	sort.Ints(got)
	require.Equal(t, []int{0, 1, 2}, got)
}

func TestGetIndices_EmptyBlockYieldsEmptyTable(t *testing.T) {
	b := buildBlock(t,
		[]block.Field{{Name: "a", Type: block.Int64}},
		[]block.Column{block.NewNumericColumn[int64](nil)},
	)
	table, err := GetIndices(b, []string{"a"})
	require.NoError(t, err)
	require.Equal(t, 0, table.Len())
}

func TestGetIndices_UnknownColumn(t *testing.T) {
	b := buildBlock(t,
		[]block.Field{{Name: "a", Type: block.Int64}},
		[]block.Column{block.NewNumericColumn([]int64{1})},
	)
	_, err := GetIndices(b, []string{"missing"})
	require.Error(t, err)
}

func TestGetIndices_DuplicateColumn(t *testing.T) {
	b := buildBlock(t,
		[]block.Field{{Name: "a", Type: block.Int64}},
		[]block.Column{block.NewNumericColumn([]int64{1})},
	)
	_, err := GetIndices(b, []string{"a", "a"})
	require.Error(t, err)
}

func TestGroup_RoundTripReproducesEveryRow(t *testing.T) {
	a := []int64{1, 2, 1, 3, 2, 1}
	b := buildBlock(t,
		[]block.Field{{Name: "a", Type: block.Int64}},
		[]block.Column{block.NewNumericColumn(a)},
	)

	groups, err := Group(b, []string{"a"})
	require.NoError(t, err)

	seen := map[int64]int{}
	total := 0
	for _, g := range groups {
		col, err := g.Block.GetByName("a")
		require.NoError(t, err)
		nc := col.(*block.NumericColumn[int64])
		for i := 0; i < nc.Len(); i++ {
			v, _ := nc.At(i)
			seen[v]++
			total++
		}
	}
	require.Equal(t, len(a), total)
	require.Equal(t, 3, seen[1])
	require.Equal(t, 2, seen[2])
	require.Equal(t, 1, seen[3])
}

func TestRowsInSameBucketAgreeOnEveryColumn(t *testing.T) {
	a := []int64{1, 1, 2, 2}
	s := []string{"x", "y", "x", "x"}
	b := buildBlock(t,
		[]block.Field{{Name: "a", Type: block.Int64}, {Name: "s", Type: block.String}},
		[]block.Column{block.NewNumericColumn(a), block.NewStringColumn(s)},
	)

	table, err := GetIndices(b, []string{"a", "s"})
	require.NoError(t, err)
	require.Equal(t, 3, table.Len()) // (1,x) (1,y) (2,x)
}
