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
	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/dtype"
)

// array assembles an encoded array with
// its fields in the order t, p, d, m, o
func array(t dtype.Type, data doc.Datum, mask []byte, off []int32) *doc.Struct {
	s := descriptor(t)
	s.Add(keyData, data)
	s.Add(keyMask, doc.Blob(mask))
	if off != nil {
		s.Add(keyOffset, doc.Blob(appendOffsets(make([]byte, 0, 4*len(off)), off)))
	}
	return s
}

func blobOf(s *doc.Struct, key string) []byte {
	d, _ := s.Get(key)
	b, _ := d.(doc.Blob)
	return b
}

func structOf(s *doc.Struct, key string) *doc.Struct {
	d, _ := s.Get(key)
	c, _ := d.(*doc.Struct)
	return c
}

// maskOf returns the mask of s after
// checking that it covers n rows
func maskOf(path string, s *doc.Struct, n int) ([]byte, error) {
	mask := blobOf(s, keyMask)
	if err := checkMask(path, mask, n); err != nil {
		return nil, err
	}
	return mask, nil
}

// EncodeColumn encodes c as a single encoded array.
func EncodeColumn(c *Column) (*doc.Struct, error) {
	if err := dtype.Check(c.Type); err != nil {
		return nil, errschema("", "%s", err)
	}
	return encodeValues("", c.Type, c.Values)
}

// DecodeColumn validates and decodes one encoded array.
func DecodeColumn(d doc.Datum) (*Column, error) {
	if err := ValidateArray(d); err != nil {
		return nil, err
	}
	return decodeArray("", d.(*doc.Struct))
}

func encodeValues(path string, t dtype.Type, values []interface{}) (*doc.Struct, error) {
	switch t := t.(type) {
	case dtype.Null:
		return encodeNull(path, values)
	case dtype.Bool, dtype.Int, dtype.Float, dtype.DateTime, dtype.Timestamp:
		return encodeFixed(path, t, values)
	case dtype.Binary:
		return encodeBinary(path, t, values)
	case dtype.Opaque:
		return encodeBinary(path, t, values)
	case dtype.Dictionary:
		return encodeDict(path, t, values)
	case dtype.List:
		return encodeList(path, t, values)
	case dtype.Struct:
		return encodeStruct(path, t, values)
	}
	return nil, errschema(path, "cannot encode type %T", t)
}

// decodeArray decodes an array whose
// shape has already been validated
func decodeArray(path string, s *doc.Struct) (*Column, error) {
	t, err := typeOf(path, s)
	if err != nil {
		return nil, err
	}
	values, err := decodeValues(path, t, s)
	if err != nil {
		return nil, err
	}
	return &Column{Type: t, Values: values}, nil
}

func decodeValues(path string, t dtype.Type, s *doc.Struct) ([]interface{}, error) {
	switch t := t.(type) {
	case dtype.Null:
		return decodeNull(path, s)
	case dtype.Bool, dtype.Int, dtype.Float, dtype.DateTime, dtype.Timestamp:
		return decodeFixed(path, t, s)
	case dtype.Binary:
		return decodeBinary(path, t.UTF8, s)
	case dtype.Opaque:
		return decodeBinary(path, false, s)
	case dtype.Dictionary:
		return decodeDict(path, t, s)
	case dtype.List:
		return decodeList(path, t, s)
	case dtype.Struct:
		return decodeStruct(path, t, s)
	}
	return nil, errschema(path, "cannot decode type %T", t)
}

// child decodes the nested array s and
// checks that its type is want
func child(path string, s *doc.Struct, want dtype.Type) ([]interface{}, error) {
	if s == nil {
		return nil, errschema(path, "missing nested array")
	}
	t, err := typeOf(path, s)
	if err != nil {
		return nil, err
	}
	if !dtype.Equal(t, want) {
		return nil, errschema(path, "array has type %s; parameter declares %s", t, want)
	}
	return decodeValues(path, t, s)
}

func encodeNull(path string, values []interface{}) (*doc.Struct, error) {
	for i, v := range values {
		if v != nil {
			return nil, errtype(path, i, dtype.Null{}, v)
		}
	}
	return array(dtype.Null{}, doc.Int(len(values)), make([]byte, maskBytes(len(values))), nil), nil
}

func decodeNull(path string, s *doc.Struct) ([]interface{}, error) {
	d, _ := s.Get(keyData)
	n, ok := d.(doc.Int)
	if !ok || n < 0 {
		return nil, errschema(path, "null data must be a non-negative row count")
	}
	// the mask bounds the row count
	m := blobOf(s, keyMask)
	if int64(n) > 8*int64(len(m)) {
		return nil, errintegrity(path, "mask has %d bytes; need %d for %d rows", len(m), maskBytes(int(n)), int64(n))
	}
	for i := 0; i < int(n); i++ {
		if testBit(m, i) {
			return nil, errintegrity(path, "row %d of a null array is marked valid", i)
		}
	}
	return make([]interface{}, n), nil
}
