// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package groupby

import "github.com/cockroachdb/errors"

func errDuplicateColumn(name string) error {
	return errors.Newf("duplicate grouping column: %q", name)
}
