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

// Package doc implements the structured document
// that carries encoded frames.
//
// Documents are trees of Datum values stored as
// Amazon Ion binary. Only the subset of Ion that
// frames need is modeled: structs, lists, blobs,
// integers and strings, plus annotations and null.
package doc

import (
	"bytes"
	"fmt"
)

// Kind is the kind of a Datum.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
	BlobKind
	ListKind
	StructKind
	AnnotationKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case BlobKind:
		return "blob"
	case ListKind:
		return "list"
	case StructKind:
		return "struct"
	case AnnotationKind:
		return "annotation"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Datum is one document value.
type Datum interface {
	Kind() Kind

	equal(Datum) bool
}

var (
	_ Datum = Null{}
	_ Datum = Bool(false)
	_ Datum = Int(0)
	_ Datum = Float(0)
	_ Datum = String("")
	_ Datum = Blob(nil)
	_ Datum = &List{}
	_ Datum = &Struct{}
	_ Datum = &Annotation{}
)

// Null is the null datum.
type Null struct{}

func (Null) Kind() Kind { return NullKind }

func (Null) equal(x Datum) bool {
	_, ok := x.(Null)
	return ok
}

// Bool is a boolean datum.
type Bool bool

func (Bool) Kind() Kind { return BoolKind }

func (b Bool) equal(x Datum) bool {
	b2, ok := x.(Bool)
	return ok && b == b2
}

// Int is a signed 64-bit integer datum.
type Int int64

func (Int) Kind() Kind { return IntKind }

func (i Int) equal(x Datum) bool {
	i2, ok := x.(Int)
	return ok && i == i2
}

// Float is a float datum.
type Float float64

func (Float) Kind() Kind { return FloatKind }

func (f Float) equal(x Datum) bool {
	f2, ok := x.(Float)
	return ok && f == f2
}

// String is a text datum. Ion symbols
// are read back as strings as well.
type String string

func (String) Kind() Kind { return StringKind }

func (s String) equal(x Datum) bool {
	s2, ok := x.(String)
	return ok && s == s2
}

// Blob is an uninterpreted binary datum.
type Blob []byte

func (Blob) Kind() Kind { return BlobKind }

func (b Blob) equal(x Datum) bool {
	b2, ok := x.(Blob)
	return ok && bytes.Equal(b, b2)
}

// List is an ordered sequence of datums.
type List struct {
	Items []Datum
}

// NewList returns a list holding items.
func NewList(items ...Datum) *List { return &List{Items: items} }

func (*List) Kind() Kind { return ListKind }

func (l *List) Len() int { return len(l.Items) }

func (l *List) equal(x Datum) bool {
	l2, ok := x.(*List)
	if !ok || len(l.Items) != len(l2.Items) {
		return false
	}
	for i := range l.Items {
		if !Equal(l.Items[i], l2.Items[i]) {
			return false
		}
	}
	return true
}

// Field is a labeled member of a Struct.
type Field struct {
	Label string
	Value Datum
}

// Struct is a sequence of labeled datums.
// The order of fields is preserved when the
// struct is written and read back.
type Struct struct {
	Fields []Field
}

// NewStruct returns a struct holding fields.
func NewStruct(fields ...Field) *Struct { return &Struct{Fields: fields} }

func (*Struct) Kind() Kind { return StructKind }

func (s *Struct) Len() int { return len(s.Fields) }

// Add appends a field to the struct.
func (s *Struct) Add(label string, value Datum) {
	s.Fields = append(s.Fields, Field{Label: label, Value: value})
}

// Get returns the value of the first
// field with the given label.
func (s *Struct) Get(label string) (Datum, bool) {
	for i := range s.Fields {
		if s.Fields[i].Label == label {
			return s.Fields[i].Value, true
		}
	}
	return nil, false
}

// Labels returns the field labels in order.
func (s *Struct) Labels() []string {
	out := make([]string, len(s.Fields))
	for i := range s.Fields {
		out[i] = s.Fields[i].Label
	}
	return out
}

func (s *Struct) equal(x Datum) bool {
	s2, ok := x.(*Struct)
	if !ok || len(s.Fields) != len(s2.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i].Label != s2.Fields[i].Label ||
			!Equal(s.Fields[i].Value, s2.Fields[i].Value) {
			return false
		}
	}
	return true
}

// Annotation is a datum wrapped
// with one or more text labels.
type Annotation struct {
	Labels []string
	Value  Datum
}

func (*Annotation) Kind() Kind { return AnnotationKind }

func (a *Annotation) equal(x Datum) bool {
	a2, ok := x.(*Annotation)
	if !ok || len(a.Labels) != len(a2.Labels) {
		return false
	}
	for i := range a.Labels {
		if a.Labels[i] != a2.Labels[i] {
			return false
		}
	}
	return Equal(a.Value, a2.Value)
}

// Equal returns whether a and b are
// identical documents. Struct fields must
// appear in the same order.
func Equal(a, b Datum) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.equal(b)
}
