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

// encodeList flattens the elements of all
// rows into one child array; offsets count
// elements, not bytes
func encodeList(path string, t dtype.List, values []interface{}) (*doc.Struct, error) {
	lengths := make([]int, len(values))
	flat := []interface{}{}
	for i, v := range values {
		if v == nil {
			continue
		}
		lst, ok := v.([]interface{})
		if !ok {
			return nil, errtype(path, i, t, v)
		}
		lengths[i] = len(lst)
		flat = append(flat, lst...)
	}
	off, err := buildOffsets(path, lengths)
	if err != nil {
		return nil, err
	}
	elems, err := encodeValues(path+"[]", t.Elem, flat)
	if err != nil {
		return nil, err
	}
	return array(t, elems, validity(values), off), nil
}

func decodeList(path string, t dtype.List, s *doc.Struct) ([]interface{}, error) {
	flat, err := child(path+"[]", structOf(s, keyData), t.Elem)
	if err != nil {
		return nil, err
	}
	off, err := readOffsets(path, blobOf(s, keyOffset))
	if err != nil {
		return nil, err
	}
	if _, err := diffOffsets(path, off, len(flat)); err != nil {
		return nil, err
	}
	n := len(off) - 1
	mask, err := maskOf(path, s, n)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	for i := range out {
		if testBit(mask, i) {
			lo, hi := off[i], off[i+1]
			out[i] = flat[lo:hi:hi]
		}
	}
	return out, nil
}

// encodeStruct transposes the records of
// a struct column into one array per field
func encodeStruct(path string, t dtype.Struct, values []interface{}) (*doc.Struct, error) {
	cols := make([][]interface{}, len(t.Fields))
	for j := range cols {
		cols[j] = make([]interface{}, len(values))
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		rec, ok := v.(Record)
		if !ok {
			return nil, errtype(path, i, t, v)
		}
		if len(rec) != len(t.Fields) {
			return nil, &TypeError{Path: path, Row: i, Want: t, Value: v,
				Msg: "record has the wrong number of fields"}
		}
		for j := range rec {
			cols[j][i] = rec[j]
		}
	}
	fields := &doc.Struct{Fields: make([]doc.Field, 0, len(t.Fields))}
	for j := range t.Fields {
		name := t.Fields[j].Name
		a, err := encodeValues(sub(path, name), t.Fields[j].Type, cols[j])
		if err != nil {
			return nil, err
		}
		fields.Add(name, a)
	}
	data := doc.NewStruct(
		doc.Field{Label: keyLength, Value: doc.Int(len(values))},
		doc.Field{Label: keyFields, Value: fields},
	)
	return array(t, data, validity(values), nil), nil
}

func decodeStruct(path string, t dtype.Struct, s *doc.Struct) ([]interface{}, error) {
	data := structOf(s, keyData)
	if data == nil {
		return nil, errschema(path, "struct data is not a struct")
	}
	ld, _ := data.Get(keyLength)
	l, ok := ld.(doc.Int)
	if !ok || l < 0 {
		return nil, errschema(path, "struct data needs a non-negative length")
	}
	fs := structOf(data, keyFields)
	if fs == nil {
		return nil, errschema(path, "struct data has no field map")
	}
	for _, label := range fs.Labels() {
		if t.Index(label) < 0 {
			return nil, errschema(sub(path, label), "field is not declared by the struct type")
		}
	}
	cols := make([][]interface{}, len(t.Fields))
	for j := range t.Fields {
		fpath := sub(path, t.Fields[j].Name)
		fa := structOf(fs, t.Fields[j].Name)
		if fa == nil {
			return nil, errschema(fpath, "declared field is missing")
		}
		vals, err := child(fpath, fa, t.Fields[j].Type)
		if err != nil {
			return nil, err
		}
		if int64(len(vals)) != int64(l) {
			return nil, errintegrity(fpath, "field has %d rows; struct length is %d", len(vals), int64(l))
		}
		cols[j] = vals
	}
	n := int(l)
	mask, err := maskOf(path, s, n)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	for i := range out {
		if !testBit(mask, i) {
			continue
		}
		rec := make(Record, len(cols))
		for j := range cols {
			rec[j] = cols[j][i]
		}
		out[i] = rec
	}
	return out, nil
}
