// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package frame

import (
	"golang.org/x/exp/constraints"
)

// Validity masks hold one bit per row, least
// significant bit first; a set bit means the
// row holds a value.

func maskBytes(n int) int { return (n + 7) / 8 }

func testBit[K constraints.Integer](in []byte, k K) bool {
	return in[uint(k)/8]&(1<<(uint(k)%8)) != 0
}

func setBit[K constraints.Integer](in []byte, k K) {
	in[uint(k)/8] |= 1 << (uint(k) % 8)
}

// setBits sets the bits [first, last) in "in"
func setBits(in []byte, first, last int) {
	if first >= last {
		return
	}
	for first < last && first%8 != 0 {
		setBit(in, first)
		first++
	}
	for ; first+8 <= last; first += 8 {
		in[first/8] = 0xff
	}
	for ; first < last; first++ {
		setBit(in, first)
	}
}

// PackMask packs valid into a mask of
// ceil(len(valid)/8) bytes. Bits past
// the last row are zero.
func PackMask(valid []bool) []byte {
	out := make([]byte, maskBytes(len(valid)))
	for i := range valid {
		if valid[i] {
			setBit(out, i)
		}
	}
	return out
}

// UnpackMask reads the first n bits of mask.
// Padding bits past n are ignored.
// It is an error for mask to hold fewer than n bits.
func UnpackMask(mask []byte, n int) ([]bool, error) {
	if err := checkMask("", mask, n); err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = testBit(mask, i)
	}
	return out, nil
}

func checkMask(path string, mask []byte, n int) error {
	if n < 0 {
		return errintegrity(path, "negative row count %d", n)
	}
	if len(mask) < maskBytes(n) {
		return errintegrity(path, "mask has %d bytes; need %d for %d rows", len(mask), maskBytes(n), n)
	}
	return nil
}

// validity computes the mask of a column
func validity(values []interface{}) []byte {
	out := make([]byte, maskBytes(len(values)))
	for i := range values {
		if values[i] != nil {
			setBit(out, i)
		}
	}
	return out
}

// allValid returns a mask with the first n bits set
func allValid(n int) []byte {
	out := make([]byte, maskBytes(n))
	setBits(out, 0, n)
	return out
}
