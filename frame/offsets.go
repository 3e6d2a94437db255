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
	"encoding/binary"
	"math"
)

// BuildOffsets returns the prefix sums of lengths,
// starting from zero; the result has len(lengths)+1 entries.
func BuildOffsets(lengths []int) ([]int32, error) {
	return buildOffsets("", lengths)
}

func buildOffsets(path string, lengths []int) ([]int32, error) {
	out := make([]int32, len(lengths)+1)
	total := 0
	for i, n := range lengths {
		if n < 0 {
			return nil, errintegrity(path, "row %d has negative length %d", i, n)
		}
		total += n
		if total > math.MaxInt32 {
			return nil, errintegrity(path, "offsets overflow int32 at row %d", i)
		}
		out[i+1] = int32(total)
	}
	return out, nil
}

// DiffOffsets checks that off starts at zero,
// never decreases and ends at total, and returns
// the length of each row.
func DiffOffsets(off []int32, total int) ([]int, error) {
	return diffOffsets("", off, total)
}

func diffOffsets(path string, off []int32, total int) ([]int, error) {
	if len(off) == 0 {
		return nil, errintegrity(path, "empty offset array")
	}
	if off[0] != 0 {
		return nil, errintegrity(path, "first offset is %d, not 0", off[0])
	}
	lengths := make([]int, len(off)-1)
	for i := range lengths {
		if off[i+1] < off[i] {
			return nil, errintegrity(path, "offset %d (%d) is less than offset %d (%d)", i+1, off[i+1], i, off[i])
		}
		lengths[i] = int(off[i+1] - off[i])
	}
	if last := off[len(off)-1]; int(last) != total {
		return nil, errintegrity(path, "last offset %d does not match child length %d", last, total)
	}
	return lengths, nil
}

func appendOffsets(dst []byte, off []int32) []byte {
	for _, o := range off {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(o))
	}
	return dst
}

// readOffsets decodes an offset blob, which
// must hold at least one int32
func readOffsets(path string, buf []byte) ([]int32, error) {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, errintegrity(path, "offset blob of %d bytes is not a non-empty array of int32", len(buf))
	}
	out := make([]int32, len(buf)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}
