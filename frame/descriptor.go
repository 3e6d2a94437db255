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
	"math"

	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/dtype"
)

// wire keys
const (
	keyType   = "t"
	keyParam  = "p"
	keyData   = "d"
	keyMask   = "m"
	keyOffset = "o"

	// struct data
	keyLength = "l"
	keyFields = "f"

	// struct parameter entries
	keyName = "n"

	// dictionary data and parameter
	keyIndex = "i"
	keyDict  = "d"
)

// param returns the "p" value for t,
// or nil if t has no parameter.
func param(t dtype.Type) doc.Datum {
	switch t := t.(type) {
	case dtype.Timestamp:
		if t.Zone == "" {
			return nil
		}
		return doc.String(t.Zone)
	case dtype.Opaque:
		return doc.Int(t.Subtype)
	case dtype.Dictionary:
		return doc.NewStruct(
			doc.Field{Label: keyIndex, Value: descriptor(t.Index)},
			doc.Field{Label: keyDict, Value: descriptor(t.Value)},
		)
	case dtype.List:
		return descriptor(t.Elem)
	case dtype.Struct:
		lst := &doc.List{Items: make([]doc.Datum, len(t.Fields))}
		for i := range t.Fields {
			lst.Items[i] = doc.NewStruct(
				doc.Field{Label: keyName, Value: doc.String(t.Fields[i].Name)},
				doc.Field{Label: keyType, Value: descriptor(t.Fields[i].Type)},
			)
		}
		return lst
	}
	return nil
}

// descriptor returns the {t, p} struct describing t.
func descriptor(t dtype.Type) *doc.Struct {
	s := doc.NewStruct(doc.Field{Label: keyType, Value: doc.String(t.Tag())})
	if p := param(t); p != nil {
		s.Add(keyParam, p)
	}
	return s
}

// typeOf decodes the type described by the
// "t" and "p" fields of s, which is either a
// type descriptor or an encoded array.
// The shape of s must already have been validated.
func typeOf(path string, s *doc.Struct) (dtype.Type, error) {
	td, _ := s.Get(keyType)
	tag, ok := td.(doc.String)
	if !ok {
		return nil, errschema(path, "type tag is %s, not a string", kindOf(td))
	}
	p, hasp := s.Get(keyParam)
	if t, ok := dtype.FromTag(string(tag)); ok {
		if ts, ok := t.(dtype.Timestamp); ok && hasp {
			zone, ok := p.(doc.String)
			if !ok {
				return nil, errschema(path, "timestamp zone is %s, not a string", kindOf(p))
			}
			ts.Zone = string(zone)
			return ts, nil
		}
		return t, nil
	}
	if !hasp {
		return nil, errschema(path, "type %q requires a parameter", string(tag))
	}
	switch tag {
	case "opaque":
		code, ok := p.(doc.Int)
		if !ok || code < math.MinInt32 || code > math.MaxInt32 {
			return nil, errschema(path, "opaque subtype must be an int32")
		}
		return dtype.Opaque{Subtype: int32(code)}, nil
	case "ordered", "factor":
		ps, ok := p.(*doc.Struct)
		if !ok {
			return nil, errschema(path, "dictionary parameter is %s, not a struct", kindOf(p))
		}
		id, _ := ps.Get(keyIndex)
		is, ok := id.(*doc.Struct)
		if !ok {
			return nil, errschema(sub(path, keyIndex), "missing index type")
		}
		it, err := typeOf(sub(path, keyIndex), is)
		if err != nil {
			return nil, err
		}
		idx, ok := it.(dtype.Int)
		if !ok || !idx.Signed {
			return nil, errschema(sub(path, keyIndex), "dictionary index %s is not a signed integer", it)
		}
		vd, _ := ps.Get(keyDict)
		vs, ok := vd.(*doc.Struct)
		if !ok {
			return nil, errschema(sub(path, keyDict), "missing value type")
		}
		vt, err := typeOf(sub(path, keyDict), vs)
		if err != nil {
			return nil, err
		}
		return dtype.Dictionary{Index: idx, Value: vt, Ordered: tag == "ordered"}, nil
	case "list":
		ps, ok := p.(*doc.Struct)
		if !ok {
			return nil, errschema(path, "list parameter is %s, not a type descriptor", kindOf(p))
		}
		et, err := typeOf(path+"[]", ps)
		if err != nil {
			return nil, err
		}
		return dtype.List{Elem: et}, nil
	case "struct":
		pl, ok := p.(*doc.List)
		if !ok || len(pl.Items) == 0 {
			return nil, errschema(path, "struct parameter must be a non-empty list")
		}
		st := dtype.Struct{Fields: make([]dtype.Field, len(pl.Items))}
		for i, item := range pl.Items {
			fs, ok := item.(*doc.Struct)
			if !ok {
				return nil, errschema(path, "struct field %d is %s, not a struct", i, kindOf(item))
			}
			nd, _ := fs.Get(keyName)
			name, ok := nd.(doc.String)
			if !ok {
				return nil, errschema(path, "struct field %d has no name", i)
			}
			fd, _ := fs.Get(keyType)
			fts, ok := fd.(*doc.Struct)
			if !ok {
				return nil, errschema(sub(path, string(name)), "struct field has no type descriptor")
			}
			ft, err := typeOf(sub(path, string(name)), fts)
			if err != nil {
				return nil, err
			}
			st.Fields[i] = dtype.Field{Name: string(name), Type: ft}
		}
		if err := dtype.Check(st); err != nil {
			return nil, errschema(path, "%s", err)
		}
		return st, nil
	}
	return nil, errschema(path, "unknown type tag %q", string(tag))
}

func kindOf(d doc.Datum) string {
	if d == nil {
		return "missing"
	}
	return d.Kind().String()
}
