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

// MaxDepth is the deepest nesting of encoded
// arrays and type descriptors that Validate accepts.
const MaxDepth = 64

type dataShape uint8

const (
	dataBlob   dataShape = iota // binary buffer
	dataCount                   // integer row count
	dataDict                    // {i: array, d: array}
	dataChild                   // one nested array
	dataFields                  // {l: count, f: {name: array}}
)

type paramShape uint8

const (
	paramNone    paramShape = iota
	paramZone               // optional zone string
	paramSubtype            // int32
	paramDict               // {i: descriptor, d: descriptor}
	paramType               // descriptor
	paramFields             // [{n: name, t: descriptor}]
)

// rule is the grammar of one type tag
type rule struct {
	data    dataShape
	param   paramShape
	offsets bool // "o" required
}

func (r rule) needparam() bool {
	return r.param != paramNone && r.param != paramZone
}

// grammar maps every type tag to its rule;
// it is populated once by init and only read afterwards.
var grammar = map[string]rule{
	"null":    {data: dataCount},
	"utf8":    {data: dataBlob, offsets: true},
	"bytes":   {data: dataBlob, offsets: true},
	// opaque rows are addressed through offsets like bytes;
	// producers that omit "o" for opaque are not accepted
	"opaque":  {data: dataBlob, offsets: true, param: paramSubtype},
	"ordered": {data: dataDict, param: paramDict},
	"factor":  {data: dataDict, param: paramDict},
	"list":    {data: dataChild, offsets: true, param: paramType},
	"struct":  {data: dataFields, param: paramFields},
}

func init() {
	for _, tag := range []string{
		"bool",
		"int8", "int16", "int32", "int64",
		"uint8", "uint16", "uint32", "uint64",
		"float16", "float32", "float64",
		"date[d]", "date[ms]",
		"time[s]", "time[ms]", "time[us]", "time[ns]",
	} {
		grammar[tag] = rule{data: dataBlob}
	}
	for _, tag := range []string{
		"timestamp[s]", "timestamp[ms]", "timestamp[us]", "timestamp[ns]",
	} {
		grammar[tag] = rule{data: dataBlob, param: paramZone}
	}
}

func signedTag(tag string) bool {
	t, ok := dtype.FromTag(tag)
	if !ok {
		return false
	}
	i, ok := t.(dtype.Int)
	return ok && i.Signed
}

// Validate checks that d is a well-formed frame
// document: a non-empty struct of encoded arrays,
// each conforming (recursively) to the grammar of
// its type tag. Validate only checks the shape of
// the document; the consistency of masks, offsets
// and row counts is checked when decoding.
//
// The returned error, if any, is a *SchemaError.
func Validate(d doc.Datum) error {
	s, ok := d.(*doc.Struct)
	if !ok {
		return errschema("", "document is %s, not a struct", kindOf(d))
	}
	if len(s.Fields) == 0 {
		return errschema("", "document has no columns")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i := range s.Fields {
		name := s.Fields[i].Label
		if _, ok := seen[name]; ok {
			return errschema(name, "duplicate column")
		}
		seen[name] = struct{}{}
		if err := validateArray(name, s.Fields[i].Value, 1); err != nil {
			return err
		}
	}
	return nil
}

// ValidateArray checks one encoded array.
func ValidateArray(d doc.Datum) error {
	return validateArray("", d, 1)
}

// fields checks that s has no duplicate
// labels and only labels accepted by ok
func fields(path string, s *doc.Struct, ok func(string) bool) error {
	seen := make(map[string]struct{}, len(s.Fields))
	for i := range s.Fields {
		label := s.Fields[i].Label
		if _, dup := seen[label]; dup {
			return errschema(path, "duplicate key %q", label)
		}
		seen[label] = struct{}{}
		if !ok(label) {
			return errschema(path, "unexpected key %q", label)
		}
	}
	return nil
}

func ruleOf(path string, s *doc.Struct) (string, rule, error) {
	td, ok := s.Get(keyType)
	if !ok {
		return "", rule{}, errschema(path, "missing key %q", keyType)
	}
	tag, ok := td.(doc.String)
	if !ok {
		return "", rule{}, errschema(path, "type tag is %s, not a string", kindOf(td))
	}
	r, ok := grammar[string(tag)]
	if !ok {
		return "", rule{}, errschema(path, "unknown type tag %q", string(tag))
	}
	return string(tag), r, nil
}

func validateArray(path string, d doc.Datum, depth int) error {
	if depth > MaxDepth {
		return errschema(path, "nesting exceeds %d levels", MaxDepth)
	}
	s, ok := d.(*doc.Struct)
	if !ok {
		return errschema(path, "encoded array is %s, not a struct", kindOf(d))
	}
	_, r, err := ruleOf(path, s)
	if err != nil {
		return err
	}
	err = fields(path, s, func(label string) bool {
		switch label {
		case keyType, keyData, keyMask:
			return true
		case keyParam:
			return r.param != paramNone
		case keyOffset:
			return r.offsets
		}
		return false
	})
	if err != nil {
		return err
	}
	m, ok := s.Get(keyMask)
	if !ok {
		return errschema(path, "missing key %q", keyMask)
	}
	if _, ok := m.(doc.Blob); !ok {
		return errschema(path, "mask is %s, not a blob", kindOf(m))
	}
	if r.offsets {
		o, ok := s.Get(keyOffset)
		if !ok {
			return errschema(path, "missing key %q", keyOffset)
		}
		if _, ok := o.(doc.Blob); !ok {
			return errschema(path, "offsets are %s, not a blob", kindOf(o))
		}
	}
	if p, ok := s.Get(keyParam); ok {
		if err := validateParam(path, r.param, p, depth); err != nil {
			return err
		}
	} else if r.needparam() {
		return errschema(path, "missing key %q", keyParam)
	}
	data, ok := s.Get(keyData)
	if !ok {
		return errschema(path, "missing key %q", keyData)
	}
	return validateData(path, r.data, data, depth)
}

func validateData(path string, shape dataShape, d doc.Datum, depth int) error {
	switch shape {
	case dataBlob:
		if _, ok := d.(doc.Blob); !ok {
			return errschema(path, "data is %s, not a blob", kindOf(d))
		}
		return nil
	case dataCount:
		n, ok := d.(doc.Int)
		if !ok || n < 0 {
			return errschema(path, "data must be a non-negative row count")
		}
		return nil
	case dataChild:
		return validateArray(path+"[]", d, depth+1)
	case dataDict:
		s, ok := d.(*doc.Struct)
		if !ok {
			return errschema(path, "dictionary data is %s, not a struct", kindOf(d))
		}
		err := fields(path, s, func(label string) bool {
			return label == keyIndex || label == keyDict
		})
		if err != nil {
			return err
		}
		idx, ok := s.Get(keyIndex)
		if !ok {
			return errschema(path, "dictionary data is missing indices")
		}
		if err := validateArray(sub(path, keyIndex), idx, depth+1); err != nil {
			return err
		}
		if tag, _, _ := ruleOf(path, idx.(*doc.Struct)); !signedTag(tag) {
			return errschema(sub(path, keyIndex), "dictionary index %q is not a signed integer", tag)
		}
		pool, ok := s.Get(keyDict)
		if !ok {
			return errschema(path, "dictionary data is missing values")
		}
		return validateArray(sub(path, keyDict), pool, depth+1)
	case dataFields:
		s, ok := d.(*doc.Struct)
		if !ok {
			return errschema(path, "struct data is %s, not a struct", kindOf(d))
		}
		err := fields(path, s, func(label string) bool {
			return label == keyLength || label == keyFields
		})
		if err != nil {
			return err
		}
		l, ok := s.Get(keyLength)
		if n, isint := l.(doc.Int); !ok || !isint || n < 0 {
			return errschema(path, "struct data needs a non-negative length")
		}
		fd, _ := s.Get(keyFields)
		fs, ok := fd.(*doc.Struct)
		if !ok || len(fs.Fields) == 0 {
			return errschema(path, "struct data needs a non-empty field map")
		}
		if err := fields(path, fs, func(string) bool { return true }); err != nil {
			return err
		}
		for i := range fs.Fields {
			if err := validateArray(sub(path, fs.Fields[i].Label), fs.Fields[i].Value, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return errschema(path, "unknown data shape %d", shape)
}

func validateParam(path string, shape paramShape, p doc.Datum, depth int) error {
	switch shape {
	case paramZone:
		if _, ok := p.(doc.String); !ok {
			return errschema(path, "timestamp zone is %s, not a string", kindOf(p))
		}
		return nil
	case paramSubtype:
		n, ok := p.(doc.Int)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return errschema(path, "opaque subtype must be an int32")
		}
		return nil
	case paramType:
		return validateType(path+"[]", p, depth+1)
	case paramDict:
		s, ok := p.(*doc.Struct)
		if !ok {
			return errschema(path, "dictionary parameter is %s, not a struct", kindOf(p))
		}
		err := fields(path, s, func(label string) bool {
			return label == keyIndex || label == keyDict
		})
		if err != nil {
			return err
		}
		idx, ok := s.Get(keyIndex)
		if !ok {
			return errschema(path, "dictionary parameter is missing the index type")
		}
		if err := validateType(sub(path, keyIndex), idx, depth+1); err != nil {
			return err
		}
		if tag, _, _ := ruleOf(path, idx.(*doc.Struct)); !signedTag(tag) {
			return errschema(sub(path, keyIndex), "dictionary index %q is not a signed integer", tag)
		}
		val, ok := s.Get(keyDict)
		if !ok {
			return errschema(path, "dictionary parameter is missing the value type")
		}
		return validateType(sub(path, keyDict), val, depth+1)
	case paramFields:
		l, ok := p.(*doc.List)
		if !ok || len(l.Items) == 0 {
			return errschema(path, "struct parameter must be a non-empty list")
		}
		for i, item := range l.Items {
			fs, ok := item.(*doc.Struct)
			if !ok {
				return errschema(path, "struct field %d is %s, not a struct", i, kindOf(item))
			}
			err := fields(path, fs, func(label string) bool {
				return label == keyName || label == keyType
			})
			if err != nil {
				return err
			}
			nd, _ := fs.Get(keyName)
			name, ok := nd.(doc.String)
			if !ok {
				return errschema(path, "struct field %d has no name", i)
			}
			td, ok := fs.Get(keyType)
			if !ok {
				return errschema(sub(path, string(name)), "struct field has no type")
			}
			if err := validateType(sub(path, string(name)), td, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return errschema(path, "unexpected parameter")
}

// validateType checks a {t, p} type descriptor
func validateType(path string, d doc.Datum, depth int) error {
	if depth > MaxDepth {
		return errschema(path, "nesting exceeds %d levels", MaxDepth)
	}
	s, ok := d.(*doc.Struct)
	if !ok {
		return errschema(path, "type descriptor is %s, not a struct", kindOf(d))
	}
	_, r, err := ruleOf(path, s)
	if err != nil {
		return err
	}
	err = fields(path, s, func(label string) bool {
		return label == keyType || (label == keyParam && r.param != paramNone)
	})
	if err != nil {
		return err
	}
	p, ok := s.Get(keyParam)
	if !ok {
		if r.needparam() {
			return errschema(path, "missing key %q", keyParam)
		}
		return nil
	}
	return validateParam(path, r.param, p, depth)
}
