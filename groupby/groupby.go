// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package groupby

import (
	"bytes"
	"math"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/datafuselabs/fusequery-core/block"
	"github.com/datafuselabs/fusequery-core/hash"
)

// Seed is the fixed seed passed to the per-column hasher so that the same
// block hashed twice produces identical fingerprints, a precondition for
// group_by's deterministic bucket ordering.
const Seed uint64 = 0x9e3779b97f4a7c15

// GetIndices resolves columnNames against b and computes
// {group fingerprint -> row indices}, preserving first-seen order within
// each group. An empty columnNames list yields a single group containing
// every row, per spec.md §4.2's edge cases; an empty block yields an empty
// table.
func GetIndices(b *block.DataBlock, columnNames []string) (*GroupIndicesTable, error) {
	if err := requireNoDuplicates(columnNames); err != nil {
		return nil, err
	}

	columns := make([]block.Column, len(columnNames))
	for i, name := range columnNames {
		c, err := b.GetByName(name)
		if err != nil {
			return nil, err
		}
		columns[i] = c
	}

	table := newTable(columnNames)
	rows := b.NumRows()
	if rows == 0 {
		return table, nil
	}

	fingerprints := computeFingerprints(columns, rows)
	equal := func(a, c int) bool { return rowsEqual(columns, a, c) }

	for i := 0; i < rows; i++ {
		fp := fingerprints[i]
		if existing, ok := table.find(fp, equal, i); ok {
			existing.indices = append(existing.indices, i)
			continue
		}
		table.insert(fp, i)
	}
	return table, nil
}

// Group is GetIndices plus materialization of each bucket as a sub-block via
// DataBlock.Take, returned in the same first-seen bucket order.
func Group(b *block.DataBlock, columnNames []string) ([]GroupedBlock, error) {
	table, err := GetIndices(b, columnNames)
	if err != nil {
		return nil, err
	}
	out := make([]GroupedBlock, 0, table.Len())
	for _, bucket := range table.Buckets() {
		out = append(out, GroupedBlock{
			Key:   bucket.Key,
			Block: b.Take(bucket.Indices),
		})
	}
	return out, nil
}

// GroupedBlock pairs a group's key with its materialized sub-block.
type GroupedBlock struct {
	Key   IdxHash
	Block *block.DataBlock
}

func requireNoDuplicates(columnNames []string) error {
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, name := range columnNames {
		if !seen.Add(name) {
			return errDuplicateColumn(name)
		}
	}
	return nil
}

// computeFingerprints implements spec.md §4.2 steps 2-3: a per-column vector
// of u64 hashes, row-wise combined starting from the first column using
// hash.Combine. A null value hashes as math.MaxUint64 regardless of type.
func computeFingerprints(columns []block.Column, rows int) []uint64 {
	fingerprints := make([]uint64, rows)
	if len(columns) == 0 {
		return fingerprints // all zero: one implicit group.
	}
	for ci, col := range columns {
		for i := 0; i < rows; i++ {
			h := rowHash(col, i)
			if ci == 0 {
				fingerprints[i] = h
			} else {
				fingerprints[i] = hash.Combine(fingerprints[i], h)
			}
		}
	}
	return fingerprints
}

func rowHash(col block.Column, i int) uint64 {
	if !col.Valid(i) {
		return math.MaxUint64
	}
	h := hash.NewSeededHasher(Seed)
	col.WriteHashInput(h, i)
	return hash.Sum64(h)
}

// rowsEqual implements the group-by table's equality contract: pointwise
// equality of the grouping columns at rows i and j, comparing the columns'
// canonical hash-input encoding rather than raw Go values so that the same
// comparison works uniformly across column types.
func rowsEqual(columns []block.Column, i, j int) bool {
	for _, c := range columns {
		iValid, jValid := c.Valid(i), c.Valid(j)
		if iValid != jValid {
			return false
		}
		if !iValid {
			continue // both null: equal on this column.
		}
		var bi, bj bytes.Buffer
		c.WriteHashInput(&bi, i)
		c.WriteHashInput(&bj, j)
		if !bytes.Equal(bi.Bytes(), bj.Bytes()) {
			return false
		}
	}
	return true
}
