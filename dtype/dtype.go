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

// Package dtype describes the logical types
// of frame columns.
//
// A Type is one of the concrete types declared
// in this package; the set is closed, so a type
// switch over all of them is exhaustive.
package dtype

import (
	"fmt"
	"strings"
)

// Type is a logical column type.
type Type interface {
	// Tag returns the wire tag of the type.
	Tag() string
	// String returns the text form of the type
	// accepted by Parse.
	String() string

	sealed()
}

var (
	_ Type = Null{}
	_ Type = Bool{}
	_ Type = Int{}
	_ Type = Float{}
	_ Type = DateTime{}
	_ Type = Timestamp{}
	_ Type = Binary{}
	_ Type = Opaque{}
	_ Type = Dictionary{}
	_ Type = List{}
	_ Type = Struct{}
)

// Unit is a time resolution.
type Unit uint8

const (
	Day Unit = iota
	Second
	Millisecond
	Microsecond
	Nanosecond
)

func (u Unit) String() string {
	switch u {
	case Day:
		return "d"
	case Second:
		return "s"
	case Millisecond:
		return "ms"
	case Microsecond:
		return "us"
	case Nanosecond:
		return "ns"
	default:
		return fmt.Sprintf("Unit(%d)", uint8(u))
	}
}

func unitOf(s string) (Unit, bool) {
	switch s {
	case "d":
		return Day, true
	case "s":
		return Second, true
	case "ms":
		return Millisecond, true
	case "us":
		return Microsecond, true
	case "ns":
		return Nanosecond, true
	}
	return 0, false
}

// Null is the type of a column
// where every row is null.
type Null struct{}

func (Null) Tag() string    { return "null" }
func (Null) String() string { return "null" }
func (Null) sealed()        {}

// Bool is the boolean type.
type Bool struct{}

func (Bool) Tag() string    { return "bool" }
func (Bool) String() string { return "bool" }
func (Bool) sealed()        {}

// Int is a fixed-width integer type.
type Int struct {
	Bits   int // 8, 16, 32 or 64
	Signed bool
}

var (
	Int8   = Int{Bits: 8, Signed: true}
	Int16  = Int{Bits: 16, Signed: true}
	Int32  = Int{Bits: 32, Signed: true}
	Int64  = Int{Bits: 64, Signed: true}
	Uint8  = Int{Bits: 8}
	Uint16 = Int{Bits: 16}
	Uint32 = Int{Bits: 32}
	Uint64 = Int{Bits: 64}
)

func (i Int) Tag() string {
	if i.Signed {
		return fmt.Sprintf("int%d", i.Bits)
	}
	return fmt.Sprintf("uint%d", i.Bits)
}

func (i Int) String() string { return i.Tag() }
func (Int) sealed()          {}

// Float is an IEEE-754 floating point type.
type Float struct {
	Bits int // 16, 32 or 64
}

var (
	Float16 = Float{Bits: 16}
	Float32 = Float{Bits: 32}
	Float64 = Float{Bits: 64}
)

func (f Float) Tag() string    { return fmt.Sprintf("float%d", f.Bits) }
func (f Float) String() string { return f.Tag() }
func (Float) sealed()          {}

// DateKind distinguishes calendar dates
// from times of day.
type DateKind uint8

const (
	Date DateKind = iota
	Time
)

// DateTime is either a date (days or milliseconds
// since the epoch) or a time of day (units since midnight).
type DateTime struct {
	Kind DateKind
	Unit Unit
}

func (d DateTime) Tag() string {
	if d.Kind == Date {
		return "date[" + d.Unit.String() + "]"
	}
	return "time[" + d.Unit.String() + "]"
}

func (d DateTime) String() string { return d.Tag() }
func (DateTime) sealed()          {}

// Timestamp is a count of units since the
// Unix epoch. An empty Zone means the timestamp
// is not associated with any time zone.
type Timestamp struct {
	Unit Unit
	Zone string
}

func (t Timestamp) Tag() string { return "timestamp[" + t.Unit.String() + "]" }

func (t Timestamp) String() string {
	if t.Zone == "" {
		return t.Tag()
	}
	return "timestamp[" + t.Unit.String() + ", " + quoteName(t.Zone) + "]"
}

func (Timestamp) sealed() {}

// Binary is a variable-length byte string type.
// UTF8 binaries must hold valid UTF-8 text.
type Binary struct {
	UTF8 bool
}

var (
	UTF8  = Binary{UTF8: true}
	Bytes = Binary{}
)

func (b Binary) Tag() string {
	if b.UTF8 {
		return "utf8"
	}
	return "bytes"
}

func (b Binary) String() string { return b.Tag() }
func (Binary) sealed()          {}

// Opaque is a column of uninterpreted bytes
// tagged with a caller-defined subtype code.
type Opaque struct {
	Subtype int32
}

func (Opaque) Tag() string      { return "opaque" }
func (o Opaque) String() string { return fmt.Sprintf("opaque(%d)", o.Subtype) }
func (Opaque) sealed()          {}

// Dictionary is a categorical type: rows hold
// indices of type Index into a pool of Value.
// When Ordered is set the pool order defines
// the order of the categories.
type Dictionary struct {
	Index   Int
	Value   Type
	Ordered bool
}

func (d Dictionary) Tag() string {
	if d.Ordered {
		return "ordered"
	}
	return "factor"
}

func (d Dictionary) String() string {
	return d.Tag() + "<" + d.Index.String() + ", " + str(d.Value) + ">"
}

func (Dictionary) sealed() {}

// List is a variable-length list of Elem.
type List struct {
	Elem Type
}

func (List) Tag() string      { return "list" }
func (l List) String() string { return "list<" + str(l.Elem) + ">" }
func (List) sealed()          {}

// Field is one named member of a Struct.
type Field struct {
	Name string
	Type Type
}

// Struct is a fixed set of named fields.
type Struct struct {
	Fields []Field
}

func (Struct) Tag() string { return "struct" }

func (s Struct) String() string {
	var b strings.Builder
	b.WriteString("struct<")
	for i := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteName(s.Fields[i].Name))
		b.WriteString(": ")
		b.WriteString(str(s.Fields[i].Type))
	}
	b.WriteString(">")
	return b.String()
}

func (Struct) sealed() {}

// Index returns the position of the
// first field called name, or -1.
func (s Struct) Index(name string) int {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return i
		}
	}
	return -1
}

func str(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// Width returns the number of bytes used
// to store one row of a fixed-width type,
// or 0 if t is not a fixed-width type.
func Width(t Type) int {
	switch t := t.(type) {
	case Bool:
		return 1
	case Int:
		return t.Bits / 8
	case Float:
		return t.Bits / 8
	case DateTime:
		if t.Unit == Day || (t.Kind == Time && t.Unit <= Millisecond) {
			return 4
		}
		return 8
	case Timestamp:
		return 8
	}
	return 0
}

// FixedWidth returns whether t is stored
// as a contiguous buffer of Width(t) byte rows.
func FixedWidth(t Type) bool { return Width(t) > 0 }

// Equal returns whether a and b
// describe the same type.
func Equal(a, b Type) bool {
	switch a := a.(type) {
	case Null, Bool, Int, Float, DateTime, Binary, Opaque:
		return a == b
	case Timestamp:
		b, ok := b.(Timestamp)
		return ok && a == b
	case Dictionary:
		b, ok := b.(Dictionary)
		return ok && a.Index == b.Index && a.Ordered == b.Ordered && Equal(a.Value, b.Value)
	case List:
		b, ok := b.(List)
		return ok && Equal(a.Elem, b.Elem)
	case Struct:
		b, ok := b.(Struct)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name ||
				!Equal(a.Fields[i].Type, b.Fields[i].Type) {
				return false
			}
		}
		return true
	}
	return false
}

// leaves maps the tags of types that
// need no parameter onto their types.
var leaves = map[string]Type{}

func init() {
	for _, t := range []Type{
		Null{}, Bool{},
		Int8, Int16, Int32, Int64,
		Uint8, Uint16, Uint32, Uint64,
		Float16, Float32, Float64,
		DateTime{Date, Day}, DateTime{Date, Millisecond},
		DateTime{Time, Second}, DateTime{Time, Millisecond},
		DateTime{Time, Microsecond}, DateTime{Time, Nanosecond},
		Timestamp{Unit: Second}, Timestamp{Unit: Millisecond},
		Timestamp{Unit: Microsecond}, Timestamp{Unit: Nanosecond},
		UTF8, Bytes,
	} {
		leaves[t.Tag()] = t
	}
}

// FromTag returns the type for a tag that
// requires no parameter. Types with a parameter
// (opaque, dictionaries, lists and structs) are
// not returned; timestamps are returned without a zone.
func FromTag(tag string) (Type, bool) {
	t, ok := leaves[tag]
	return t, ok
}

// Check verifies the structural invariants of t:
// legal widths and units, signed dictionary indices,
// and non-empty structs with unique field names.
func Check(t Type) error {
	switch t := t.(type) {
	case nil:
		return fmt.Errorf("missing type")
	case Null, Bool, Binary, Opaque:
		return nil
	case Int, Float, DateTime:
		if _, ok := leaves[t.Tag()]; !ok {
			return fmt.Errorf("illegal type %s", t.Tag())
		}
		return nil
	case Timestamp:
		if t.Unit == Day || t.Unit > Nanosecond {
			return fmt.Errorf("illegal timestamp unit %s", t.Unit)
		}
		return nil
	case Dictionary:
		if !t.Index.Signed {
			return fmt.Errorf("dictionary index %s is not a signed integer", t.Index)
		}
		if err := Check(t.Index); err != nil {
			return err
		}
		if err := Check(t.Value); err != nil {
			return fmt.Errorf("dictionary value: %w", err)
		}
		return nil
	case List:
		if err := Check(t.Elem); err != nil {
			return fmt.Errorf("list element: %w", err)
		}
		return nil
	case Struct:
		if len(t.Fields) == 0 {
			return fmt.Errorf("struct has no fields")
		}
		seen := make(map[string]struct{}, len(t.Fields))
		for i := range t.Fields {
			name := t.Fields[i].Name
			if _, ok := seen[name]; ok {
				return fmt.Errorf("duplicate struct field %q", name)
			}
			seen[name] = struct{}{}
			if err := Check(t.Fields[i].Type); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown type %T", t)
}
