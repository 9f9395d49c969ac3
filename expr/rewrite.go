// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package expr

// ColumnConstantReplacer is consulted by Rewrite for every sub-expression of
// the shape `Column(name) = Constant(value)` (or its mirror image). It
// returns a replacement expression and true when it wants to substitute,
// or (nil, false) to leave the sub-expression untouched.
type ColumnConstantReplacer func(column string, value any, isNull bool) (Expr, bool)

// Rewrite walks e, replacing every `Column(c) = Constant(v)` sub-expression
// (in either operand order) for which replace returns true. Rewriting is
// purely an optimization: it must be safe under any column ordering, and it
// recurses into Cast and Call so that predicates nested inside those still
// get a chance to be rewritten.
func Rewrite(e Expr, replace ColumnConstantReplacer) Expr {
	switch n := e.(type) {
	case Equal:
		if col, cst, ok := asColumnConstant(n.Left, n.Right); ok {
			if repl, did := replace(col.Name, cst.Value, cst.Null); did {
				return repl
			}
		}
		return Equal{Left: Rewrite(n.Left, replace), Right: Rewrite(n.Right, replace)}
	case Or:
		return Or{Left: Rewrite(n.Left, replace), Right: Rewrite(n.Right, replace)}
	case And:
		return And{Left: Rewrite(n.Left, replace), Right: Rewrite(n.Right, replace)}
	case Cast:
		return Cast{Inner: Rewrite(n.Inner, replace), To: n.To}
	case Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Rewrite(a, replace)
		}
		return Call{Name: n.Name, Args: args}
	default:
		return e
	}
}

func asColumnConstant(a, b Expr) (Column, Constant, bool) {
	if col, ok := a.(Column); ok {
		if cst, ok := b.(Constant); ok {
			return col, cst, true
		}
	}
	if col, ok := b.(Column); ok {
		if cst, ok := a.(Constant); ok {
			return col, cst, true
		}
	}
	return Column{}, Constant{}, false
}

// Fold constant-folds e, collapsing And/Or trees whose operands are already
// Literal. It never evaluates Equal/Cast/Call against real data — that is
// Rewrite's job, driven by the filter index — so folding only simplifies
// the boolean skeleton Rewrite leaves behind.
func Fold(e Expr) Expr {
	switch n := e.(type) {
	case Or:
		l, r := Fold(n.Left), Fold(n.Right)
		if lb, ok := l.(Literal); ok {
			if bool(lb) {
				return Literal(true)
			}
			return r
		}
		if rb, ok := r.(Literal); ok {
			if bool(rb) {
				return Literal(true)
			}
			return l
		}
		return Or{Left: l, Right: r}
	case And:
		l, r := Fold(n.Left), Fold(n.Right)
		if lb, ok := l.(Literal); ok {
			if !bool(lb) {
				return Literal(false)
			}
			return r
		}
		if rb, ok := r.(Literal); ok {
			if !bool(rb) {
				return Literal(false)
			}
			return l
		}
		return And{Left: l, Right: r}
	default:
		return e
	}
}

// IsFalse reports whether e is the folded literal `false`.
func IsFalse(e Expr) bool {
	lit, ok := e.(Literal)
	return ok && !bool(lit)
}
