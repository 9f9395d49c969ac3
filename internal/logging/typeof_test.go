// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	type foo struct{}

	tests := map[any]string{
		nil:         "<nil>",
		int(0):      "int",
		int(1):      "int",
		uint(0):     "uint",
		foo{}:       "logging.foo",
		(*foo)(nil): "*logging.foo",
	}

	for in, want := range tests {
		got := TypeOf(in).LogValue()
		assert.Equalf(t, want, got.String(), "TypeOf(%T(%[1]v))", in, in)
	}
}
