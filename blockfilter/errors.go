// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package blockfilter

import "github.com/cockroachdb/errors"

func errBadArguments(format string, args ...any) error {
	return errors.Newf("bad arguments: "+format, args...)
}

func errInternal(format string, args ...any) error {
	return errors.AssertionFailedf("it's a bug: "+format, args...)
}
