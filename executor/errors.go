// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package executor

import "github.com/cockroachdb/errors"

func errInternal(format string, args ...any) error {
	return errors.AssertionFailedf("it's a bug: "+format, args...)
}
