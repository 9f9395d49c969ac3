// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package blockfilter

import (
	"bytes"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/datafuselabs/fusequery-core/block"
	"github.com/datafuselabs/fusequery-core/expr"
	"github.com/datafuselabs/fusequery-core/internal/siphash"
	"github.com/datafuselabs/fusequery-core/internal/xorfilter"
)

// CurrentVersion is written into every BlockFilter built by this version of
// the module. Versions older than CurrentVersion decode into the legacy
// path described in spec.md §6, which hashes datavalues directly instead of
// through siphash.
const CurrentVersion = 2

// LegacyVersion is the last version that hashed raw datavalues instead of a
// siphash digest; kept for tests of the version-gated decode path.
const LegacyVersion = 1

// FuncContext carries the keyed-hash parameters used when digesting column
// values. Two builds sharing a FuncContext (and the same version) produce
// identical filters. The BlockFilter keeps the FuncContext it was built with
// and Find digests probe values under it.
type FuncContext struct {
	SipKey0, SipKey1 uint64
}

// DefaultFuncContext is a fixed, arbitrary 128-bit key. Production callers
// should supply their own per-deployment key via Build's ctx argument; this
// default exists so tests and the supplemental bloom_indexer.libevm.go-style
// callers (ingest paths that don't care about key rotation) have something
// to pass.
var DefaultFuncContext = FuncContext{SipKey0: 0x0706050403020100, SipKey1: 0x0f0e0d0c0b0a0908}

func bloomFieldName(column string) string { return fmt.Sprintf("Bloom(%s)", column) }

// BlockFilter is a parallel schema/data-block pair: one Xor8 filter per
// supported column of the source schema, plus that column's approximate
// distinct count.
type BlockFilter struct {
	Version      int
	SourceSchema block.Schema

	ctx         FuncContext
	columns     []string
	filters     map[string]*xorfilter.Xor8
	cardinality map[string]uint64
}

func supportsType(t block.DataType) bool {
	switch t {
	case block.Int64, block.UInt64, block.Float64, block.String:
		return true
	default:
		return false
	}
}

// Build constructs a BlockFilter over one or more blocks that together make
// up a partition, per spec.md §4.3. Only columns whose data type is
// supported by the Xor filter are indexed; unsupported columns are silently
// skipped (Find reports Uncertain for them, never an error).
func Build(blocks []*block.DataBlock, source block.Schema, ctx FuncContext, version int) (*BlockFilter, error) {
	if len(blocks) == 0 {
		return nil, errBadArguments("block is empty: no input blocks given to Build")
	}
	totalRows := 0
	for _, b := range blocks {
		totalRows += b.NumRows()
	}

	type indexed struct {
		field block.Field
	}
	var toIndex []indexed
	for _, f := range source.Fields {
		if supportsType(f.Type) {
			toIndex = append(toIndex, indexed{field: f})
		}
	}

	filters := make([]*xorfilter.Xor8, len(toIndex))
	cardinalities := make([]uint64, len(toIndex))

	g := new(errgroup.Group)
	for i, col := range toIndex {
		i, col := i, col
		g.Go(func() error {
			digests := make([]uint64, 0, totalRows)
			for _, b := range blocks {
				c, err := b.GetByName(col.field.Name)
				if err != nil {
					return err
				}
				for row := 0; row < c.Len(); row++ {
					digests = append(digests, digestAt(c, row, version, ctx))
				}
			}
			res, err := xorfilter.Build(digests)
			if err != nil {
				return errInternal("xor8 build failed for column %q: %v", col.field.Name, err)
			}
			filters[i] = res.Filter
			cardinalities[i] = res.ApproximateCardinality
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bf := &BlockFilter{
		Version:      version,
		SourceSchema: source,
		ctx:          ctx,
		filters:      make(map[string]*xorfilter.Xor8, len(toIndex)),
		cardinality:  make(map[string]uint64, len(toIndex)),
	}
	for i, col := range toIndex {
		bf.columns = append(bf.columns, col.field.Name)
		bf.filters[col.field.Name] = filters[i]
		bf.cardinality[col.field.Name] = cardinalities[i]
	}
	return bf, nil
}

// digestAt computes the digest for row `row` of column c: 0 for a null
// value (spec.md §4.3 step 2), otherwise siphash of the value's canonical
// byte encoding for the current version, or a direct hash of the raw bytes
// for the legacy version (spec.md §6's version-gated decode path).
func digestAt(c block.Column, row, version int, ctx FuncContext) uint64 {
	if !c.Valid(row) {
		return 0
	}
	var buf bytes.Buffer
	c.WriteHashInput(&buf, row)
	if version < CurrentVersion {
		return legacyDigest(buf.Bytes())
	}
	return siphash.Sum64(ctx.SipKey0, ctx.SipKey1, buf.Bytes())
}

// legacyDigest reproduces the pre-siphash behavior: hashing the raw
// datavalue bytes directly. It intentionally does not use siphash so that
// filters built with LegacyVersion differ from current-version filters even
// over identical input, exercising the version gate end to end.
func legacyDigest(b []byte) uint64 {
	var h uint64 = 0xcbf29ce484222325
	for _, c := range b {
		h ^= uint64(c)
		h *= 0x100000001b3
	}
	return h
}

// Cardinality returns the approximate distinct-value count observed for
// column name at Build time, or 0 if the column was not indexed.
func (f *BlockFilter) Cardinality(column string) uint64 {
	return f.cardinality[column]
}

// Find implements spec.md §4.3's `find(c, v, t)`: Uncertain if there is no
// filter for c, the type is unsupported, or v is null; MustFalse iff the
// filter proves v absent from column c.
func (f *BlockFilter) Find(column string, value expr.Constant, dataType block.DataType) Verdict {
	if value.Null {
		return Uncertain
	}
	if !supportsType(dataType) {
		return Uncertain
	}
	filter, ok := f.filters[column]
	if !ok {
		return Uncertain
	}
	digest := digestOfValue(value.Value, dataType, f.Version, f.ctx)
	if filter.Contains(digest) {
		return Uncertain
	}
	return MustFalse
}

func digestOfValue(v any, dataType block.DataType, version int, ctx FuncContext) uint64 {
	var buf bytes.Buffer
	switch dataType {
	case block.Int64:
		writeNumericHashInput(&buf, v)
	case block.UInt64:
		writeNumericHashInput(&buf, v)
	case block.Float64:
		writeNumericHashInput(&buf, v)
	case block.String:
		buf.WriteString(v.(string))
	}
	if version < CurrentVersion {
		return legacyDigest(buf.Bytes())
	}
	return siphash.Sum64(ctx.SipKey0, ctx.SipKey1, buf.Bytes())
}

func writeNumericHashInput(buf *bytes.Buffer, v any) {
	var u uint64
	switch x := v.(type) {
	case int64:
		u = uint64(x)
	case uint64:
		u = x
	case float64:
		u = math.Float64bits(x)
	}
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
	buf.Write(b[:])
}

// Eval implements spec.md §4.3's rewrite-then-fold predicate evaluation.
func (f *BlockFilter) Eval(e expr.Expr, schema block.Schema) Verdict {
	rewritten := expr.Rewrite(e, func(column string, value any, isNull bool) (expr.Expr, bool) {
		idx := schema.IndexOf(column)
		if idx < 0 {
			return nil, false
		}
		verdict := f.Find(column, expr.Constant{Value: value, Null: isNull}, schema.Fields[idx].Type)
		if verdict == MustFalse {
			return expr.Literal(false), true
		}
		return nil, false
	})
	folded := expr.Fold(rewritten)
	if expr.IsFalse(folded) {
		return MustFalse
	}
	return Uncertain
}

// Columns returns the indexed column names.
func (f *BlockFilter) Columns() []string { return append([]string(nil), f.columns...) }
