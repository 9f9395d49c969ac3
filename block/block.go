// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package block

import (
	"github.com/cockroachdb/errors"
)

// DataBlock is an ordered sequence of named columns, all of equal row count.
// Blocks are the unit of transfer between executor processors. A block with
// zero columns or zero rows is "empty" per spec.md §3; it still carries a
// Schema so downstream operators know its shape.
type DataBlock struct {
	schema  Schema
	columns []Column
}

// NewDataBlock builds a block from parallel name/column slices. It returns a
// user error (not an internal one) if row counts disagree, since mismatched
// columns are a caller mistake rather than an engine bug.
func NewDataBlock(fields []Field, columns []Column) (*DataBlock, error) {
	if len(fields) != len(columns) {
		return nil, errors.Newf("block is empty: %d fields but %d columns", len(fields), len(columns))
	}
	var rows int
	if len(columns) > 0 {
		rows = columns[0].Len()
	}
	for i, c := range columns {
		if c.Len() != rows {
			return nil, errors.Newf("column %q has %d rows, expected %d", fields[i].Name, c.Len(), rows)
		}
	}
	return &DataBlock{schema: Schema{Fields: append([]Field(nil), fields...)}, columns: columns}, nil
}

// EmptyDataBlock returns a zero-row, schema-only block.
func EmptyDataBlock(schema Schema) *DataBlock {
	columns := make([]Column, len(schema.Fields))
	for i, f := range schema.Fields {
		columns[i] = emptyColumnForType(f.Type)
	}
	return &DataBlock{schema: schema, columns: columns}
}

func emptyColumnForType(t DataType) Column {
	switch t {
	case Int64:
		return NewNumericColumn[int64](nil)
	case UInt64:
		return NewNumericColumn[uint64](nil)
	case Float64:
		return NewNumericColumn[float64](nil)
	case String:
		return NewStringColumn(nil)
	case Boolean:
		return NewBoolColumn(nil)
	default:
		panic(errors.AssertionFailedf("it's a bug: unknown data type %v", t))
	}
}

func (b *DataBlock) Schema() Schema { return b.schema }

func (b *DataBlock) NumRows() int {
	if len(b.columns) == 0 {
		return 0
	}
	return b.columns[0].Len()
}

func (b *DataBlock) NumColumns() int { return len(b.columns) }

func (b *DataBlock) IsEmpty() bool { return b.NumRows() == 0 }

// GetByName returns the named column, or an UnknownColumn user error.
func (b *DataBlock) GetByName(name string) (Column, error) {
	idx := b.schema.IndexOf(name)
	if idx < 0 {
		return nil, errors.Newf("unknown column: %q", name)
	}
	return b.columns[idx], nil
}

// GetByOffset returns the column at the given position.
func (b *DataBlock) GetByOffset(i int) (Column, error) {
	if i < 0 || i >= len(b.columns) {
		return nil, errors.Newf("column offset %d out of range [0, %d)", i, len(b.columns))
	}
	return b.columns[i], nil
}

// AppendColumn returns a new block with an additional named column. The new
// column's length must match the block's existing row count.
func (b *DataBlock) AppendColumn(field Field, col Column) (*DataBlock, error) {
	if len(b.columns) > 0 && col.Len() != b.NumRows() {
		return nil, errors.Newf("appended column %q has %d rows, expected %d", field.Name, col.Len(), b.NumRows())
	}
	fields := append(append([]Field(nil), b.schema.Fields...), field)
	columns := append(append([]Column(nil), b.columns...), col)
	return &DataBlock{schema: Schema{Fields: fields}, columns: columns}, nil
}

// Take returns a new block containing the listed rows from every column, in
// the supplied order. Preserves the equal-row-count invariant by construction.
func (b *DataBlock) Take(indices []int) *DataBlock {
	columns := make([]Column, len(b.columns))
	for i, c := range b.columns {
		columns[i] = c.Take(indices)
	}
	return &DataBlock{schema: b.schema, columns: columns}
}

// Filter returns a new block retaining only rows where mask is true. The mask
// must have exactly NumRows() entries.
func (b *DataBlock) Filter(mask []bool) (*DataBlock, error) {
	if len(mask) != b.NumRows() {
		return nil, errors.Newf("filter mask has %d entries, expected %d", len(mask), b.NumRows())
	}
	columns := make([]Column, len(b.columns))
	for i, c := range b.columns {
		columns[i] = c.Filter(mask)
	}
	return &DataBlock{schema: b.schema, columns: columns}, nil
}

// Slice returns a new block covering rows [start, end).
func (b *DataBlock) Slice(start, end int) (*DataBlock, error) {
	if start < 0 || end > b.NumRows() || start > end {
		return nil, errors.Newf("slice [%d, %d) out of range for %d rows", start, end, b.NumRows())
	}
	columns := make([]Column, len(b.columns))
	for i, c := range b.columns {
		columns[i] = c.Slice(start, end)
	}
	return &DataBlock{schema: b.schema, columns: columns}, nil
}

// ResortToSchema permutes this block's columns to match the target schema's
// field order, by name. Every field in target must be present in b.
func (b *DataBlock) ResortToSchema(target Schema) (*DataBlock, error) {
	columns := make([]Column, len(target.Fields))
	for i, f := range target.Fields {
		c, err := b.GetByName(f.Name)
		if err != nil {
			return nil, err
		}
		columns[i] = c
	}
	return &DataBlock{schema: target, columns: columns}, nil
}

// MemorySize sums the memory footprint of every column.
func (b *DataBlock) MemorySize() int {
	total := 0
	for _, c := range b.columns {
		total += c.MemorySize()
	}
	return total
}

// Clone performs a shallow, reference-sharing copy: columns are immutable
// once produced, so only the column-reference slice is copied.
func (b *DataBlock) Clone() *DataBlock {
	columns := append([]Column(nil), b.columns...)
	return &DataBlock{schema: b.schema, columns: columns}
}

// Concat appends rows of `other` after b's rows, column-wise. It requires the
// same number of fields and matching column data types at each position;
// field names are not compared, and the result keeps b's schema.
func (b *DataBlock) Concat(other *DataBlock) (*DataBlock, error) {
	if len(b.schema.Fields) != len(other.schema.Fields) {
		return nil, errors.Newf("schema mismatch: %d vs %d fields", len(b.schema.Fields), len(other.schema.Fields))
	}
	n := b.NumRows()
	m := other.NumRows()
	indices := make([]int, 0, n+m)
	// Take operates per-block; concatenation instead builds columns directly.
	columns := make([]Column, len(b.columns))
	for i := range b.columns {
		left := b.columns[i].Take(rangeIndices(n))
		right := other.columns[i].Take(rangeIndices(m))
		merged, err := concatColumns(left, right)
		if err != nil {
			return nil, err
		}
		columns[i] = merged
	}
	_ = indices
	return &DataBlock{schema: b.schema, columns: columns}, nil
}

func rangeIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func concatColumns(a, b Column) (Column, error) {
	if a.DataType() != b.DataType() {
		return nil, errors.Newf("cannot concat columns of type %v and %v", a.DataType(), b.DataType())
	}
	// Fallback: materialize through Take over a combined index space is not
	// possible across two distinct columns, so we rebuild the dense value
	// representation for the two supported composite cases used by this
	// module: numeric and string. Boolean follows the same shape.
	switch ta := a.(type) {
	case *StringColumn:
		tb := b.(*StringColumn)
		values := append(append([]string(nil), ta.values...), tb.values...)
		return NewStringColumn(values), nil
	case *BoolColumn:
		tb := b.(*BoolColumn)
		values := make([]bool, 0, ta.length+tb.length)
		for i := 0; i < ta.length; i++ {
			values = append(values, ta.values.Test(uint(i)))
		}
		for i := 0; i < tb.length; i++ {
			values = append(values, tb.values.Test(uint(i)))
		}
		return NewBoolColumn(values), nil
	default:
		return concatNumeric(a, b)
	}
}

func concatNumeric(a, b Column) (Column, error) {
	switch ta := a.(type) {
	case *NumericColumn[int64]:
		tb := b.(*NumericColumn[int64])
		return NewNumericColumn(append(append([]int64(nil), ta.values...), tb.values...)), nil
	case *NumericColumn[uint64]:
		tb := b.(*NumericColumn[uint64])
		return NewNumericColumn(append(append([]uint64(nil), ta.values...), tb.values...)), nil
	case *NumericColumn[float64]:
		tb := b.(*NumericColumn[float64])
		return NewNumericColumn(append(append([]float64(nil), ta.values...), tb.values...)), nil
	default:
		return nil, errors.AssertionFailedf("it's a bug: unhandled column type %T", a)
	}
}
