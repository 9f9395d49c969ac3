// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package block

import (
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
)

// Column is a typed, length-tagged vector of values. Columns are immutable
// once produced; mutating operations (Take, Filter, Slice) always return a
// new Column sharing no mutable state with the receiver.
type Column interface {
	DataType() DataType
	Len() int
	Nullable() bool
	// Valid reports whether row i holds a non-null value. It is always true
	// for non-nullable columns.
	Valid(i int) bool
	MemorySize() int
	Take(indices []int) Column
	Filter(mask []bool) Column
	Slice(start, end int) Column
	// WriteHashInput writes a stable byte encoding of row i's value to w, for
	// use by the group-by kernel and the filter index's digesting step. For a
	// null row it writes whatever placeholder value is stored at i; callers
	// distinguish nulls via Valid.
	WriteHashInput(w io.Writer, i int)
}

// Numeric is the set of scalar Go types backing a NumericColumn.
type Numeric interface {
	~int64 | ~uint64 | ~float64
}

func dataTypeOf[T Numeric]() DataType {
	var zero T
	switch any(zero).(type) {
	case int64:
		return Int64
	case uint64:
		return UInt64
	case float64:
		return Float64
	default:
		panic(errors.AssertionFailedf("it's a bug: unsupported numeric type %T", zero))
	}
}

// NumericColumn is a dense vector of fixed-width numeric values with an
// optional validity bitmap for nullability.
type NumericColumn[T Numeric] struct {
	values   []T
	validity *bitset.BitSet // nil means non-nullable
}

// NewNumericColumn constructs a non-nullable numeric column from values.
func NewNumericColumn[T Numeric](values []T) *NumericColumn[T] {
	return &NumericColumn[T]{values: values}
}

// NewNullableNumericColumn constructs a nullable numeric column. valid[i]
// false marks row i as null; values[i] is ignored for null rows.
func NewNullableNumericColumn[T Numeric](values []T, valid []bool) *NumericColumn[T] {
	bs := bitset.New(uint(len(valid)))
	for i, v := range valid {
		if v {
			bs.Set(uint(i))
		}
	}
	return &NumericColumn[T]{values: values, validity: bs}
}

func (c *NumericColumn[T]) DataType() DataType { return dataTypeOf[T]() }
func (c *NumericColumn[T]) Len() int            { return len(c.values) }
func (c *NumericColumn[T]) Nullable() bool      { return c.validity != nil }

func (c *NumericColumn[T]) Valid(i int) bool {
	if c.validity == nil {
		return true
	}
	return c.validity.Test(uint(i))
}

func (c *NumericColumn[T]) At(i int) (T, bool) {
	return c.values[i], c.Valid(i)
}

func (c *NumericColumn[T]) MemorySize() int {
	size := len(c.values) * int(sizeOf[T]())
	if c.validity != nil {
		size += int(c.validity.BinaryStorageSize())
	}
	return size
}

func sizeOf[T Numeric]() uintptr {
	var zero T
	switch any(zero).(type) {
	case int64, uint64, float64:
		return 8
	default:
		return 8
	}
}

func (c *NumericColumn[T]) Take(indices []int) Column {
	values := make([]T, len(indices))
	var valid []bool
	if c.validity != nil {
		valid = make([]bool, len(indices))
	}
	for j, i := range indices {
		values[j] = c.values[i]
		if valid != nil {
			valid[j] = c.Valid(i)
		}
	}
	if valid != nil {
		return NewNullableNumericColumn(values, valid)
	}
	return NewNumericColumn(values)
}

func (c *NumericColumn[T]) Filter(mask []bool) Column {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return c.Take(indices)
}

func (c *NumericColumn[T]) Slice(start, end int) Column {
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return c.Take(indices)
}

func (c *NumericColumn[T]) WriteHashInput(w io.Writer, i int) {
	v := c.values[i]
	var buf [8]byte
	switch x := any(v).(type) {
	case int64:
		putUint64(buf[:], uint64(x))
	case uint64:
		putUint64(buf[:], x)
	case float64:
		putUint64(buf[:], float64Bits(x))
	}
	_, _ = w.Write(buf[:])
}

// StringColumn is a dense vector of variable-length strings.
type StringColumn struct {
	values   []string
	validity *bitset.BitSet
}

func NewStringColumn(values []string) *StringColumn {
	return &StringColumn{values: values}
}

func NewNullableStringColumn(values []string, valid []bool) *StringColumn {
	bs := bitset.New(uint(len(valid)))
	for i, v := range valid {
		if v {
			bs.Set(uint(i))
		}
	}
	return &StringColumn{values: values, validity: bs}
}

func (c *StringColumn) DataType() DataType { return String }
func (c *StringColumn) Len() int           { return len(c.values) }
func (c *StringColumn) Nullable() bool     { return c.validity != nil }

func (c *StringColumn) Valid(i int) bool {
	if c.validity == nil {
		return true
	}
	return c.validity.Test(uint(i))
}

func (c *StringColumn) At(i int) (string, bool) {
	return c.values[i], c.Valid(i)
}

func (c *StringColumn) MemorySize() int {
	size := 0
	for _, v := range c.values {
		size += len(v)
	}
	if c.validity != nil {
		size += int(c.validity.BinaryStorageSize())
	}
	return size
}

func (c *StringColumn) Take(indices []int) Column {
	values := make([]string, len(indices))
	var valid []bool
	if c.validity != nil {
		valid = make([]bool, len(indices))
	}
	for j, i := range indices {
		values[j] = c.values[i]
		if valid != nil {
			valid[j] = c.Valid(i)
		}
	}
	if valid != nil {
		return NewNullableStringColumn(values, valid)
	}
	return NewStringColumn(values)
}

func (c *StringColumn) Filter(mask []bool) Column {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return c.Take(indices)
}

func (c *StringColumn) Slice(start, end int) Column {
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return c.Take(indices)
}

func (c *StringColumn) WriteHashInput(w io.Writer, i int) {
	_, _ = io.WriteString(w, c.values[i])
}

// BoolColumn is a bit-packed vector of booleans.
type BoolColumn struct {
	values   *bitset.BitSet
	length   int
	validity *bitset.BitSet
}

func NewBoolColumn(values []bool) *BoolColumn {
	bs := bitset.New(uint(len(values)))
	for i, v := range values {
		if v {
			bs.Set(uint(i))
		}
	}
	return &BoolColumn{values: bs, length: len(values)}
}

func (c *BoolColumn) DataType() DataType { return Boolean }
func (c *BoolColumn) Len() int           { return c.length }
func (c *BoolColumn) Nullable() bool     { return c.validity != nil }

func (c *BoolColumn) Valid(i int) bool {
	if c.validity == nil {
		return true
	}
	return c.validity.Test(uint(i))
}

func (c *BoolColumn) At(i int) (bool, bool) {
	return c.values.Test(uint(i)), c.Valid(i)
}

func (c *BoolColumn) MemorySize() int {
	size := int(c.values.BinaryStorageSize())
	if c.validity != nil {
		size += int(c.validity.BinaryStorageSize())
	}
	return size
}

func (c *BoolColumn) Take(indices []int) Column {
	values := make([]bool, len(indices))
	for j, i := range indices {
		values[j] = c.values.Test(uint(i))
	}
	return NewBoolColumn(values)
}

func (c *BoolColumn) Filter(mask []bool) Column {
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return c.Take(indices)
}

func (c *BoolColumn) Slice(start, end int) Column {
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return c.Take(indices)
}

func (c *BoolColumn) WriteHashInput(w io.Writer, i int) {
	var b [1]byte
	if c.values.Test(uint(i)) {
		b[0] = 1
	}
	_, _ = w.Write(b[:])
}
