// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

// Package logging holds small slog helpers used by the executor runtime to
// log structured diagnostics about values whose concrete type matters more
// than their content (a processor that failed).
package logging

import (
	"fmt"

	"golang.org/x/exp/slog"
)

// TypeOf returns a LogValuer that reports the concrete type of v via the
// %T verb, deferring the fmt.Sprintf call until the log record is actually
// emitted (slog.LogValuer values are only resolved by handlers that use
// them).
func TypeOf(v any) slog.LogValuer {
	return concreteTypeValue{v}
}

type concreteTypeValue struct{ v any }

func (v concreteTypeValue) LogValue() slog.Value {
	return slog.StringValue(fmt.Sprintf("%T", v.v))
}
