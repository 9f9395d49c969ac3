// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package block

import "math"

func putUint64(buf []byte, v uint64) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	buf[4] = byte(v >> 32)
	buf[5] = byte(v >> 40)
	buf[6] = byte(v >> 48)
	buf[7] = byte(v >> 56)
}

func float64Bits(f float64) uint64 {
	return math.Float64bits(f)
}
