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
	"unicode/utf8"

	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/dtype"
)

// bytesOf returns the raw bytes of one row
// of a utf8, bytes or opaque column
func bytesOf(path string, row int, t dtype.Type, v interface{}) ([]byte, error) {
	if b, ok := t.(dtype.Binary); ok && b.UTF8 {
		s, ok := v.(string)
		if !ok {
			return nil, errtype(path, row, t, v)
		}
		if !utf8.ValidString(s) {
			return nil, &TypeError{Path: path, Row: row, Want: t, Value: v, Msg: "string is not valid UTF-8"}
		}
		return []byte(s), nil
	}
	buf, ok := v.([]byte)
	if !ok {
		return nil, errtype(path, row, t, v)
	}
	return buf, nil
}

// encodeBinary encodes utf8, bytes and opaque
// columns: the non-null rows are concatenated
// and null rows have length zero
func encodeBinary(path string, t dtype.Type, values []interface{}) (*doc.Struct, error) {
	var buf []byte
	lengths := make([]int, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		b, err := bytesOf(path, i, t, v)
		if err != nil {
			return nil, err
		}
		lengths[i] = len(b)
		buf = append(buf, b...)
	}
	off, err := buildOffsets(path, lengths)
	if err != nil {
		return nil, err
	}
	if buf == nil {
		buf = []byte{}
	}
	return array(t, doc.Blob(buf), validity(values), off), nil
}

func decodeBinary(path string, text bool, s *doc.Struct) ([]interface{}, error) {
	data := blobOf(s, keyData)
	off, err := readOffsets(path, blobOf(s, keyOffset))
	if err != nil {
		return nil, err
	}
	if _, err := diffOffsets(path, off, len(data)); err != nil {
		return nil, err
	}
	n := len(off) - 1
	mask, err := maskOf(path, s, n)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	for i := range out {
		if !testBit(mask, i) {
			continue
		}
		row := data[off[i]:off[i+1]:off[i+1]]
		if !text {
			out[i] = row
			continue
		}
		if !utf8.Valid(row) {
			return nil, &EncodingError{Path: path, Row: i}
		}
		out[i] = string(row)
	}
	return out, nil
}
