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

// Package frame implements the encoding of columnar
// frames into Ion documents and the decoding of such
// documents back into frames.
//
// A frame is encoded as a struct mapping each column
// name to an encoded array. Every encoded array is a
// struct with the following fields:
//
//	t  the type tag (e.g. "int32", "utf8", "list")
//	p  the type parameter, for types that have one
//	d  the data
//	m  the validity mask (bit i set means row i is not null)
//	o  int32 offsets, for variable-length types
//
// All fixed-width values and offsets are little-endian.
package frame

import (
	"bytes"
	"fmt"
	"math"
	"reflect"

	"github.com/SnellerInc/ionframe/dtype"

	"github.com/x448/float16"
	"golang.org/x/exp/slices"
)

// Record is one row of a struct column.
// The values are in the order of the
// fields of the column's dtype.Struct.
type Record []interface{}

// Column is a typed sequence of rows.
// A nil value is a null row.
//
// The Go representation of each row is
// determined by Type:
//
//	dtype.Bool        bool
//	dtype.Int         int8 ... int64, uint8 ... uint64
//	dtype.Float       float16.Float16, float32, float64
//	dtype.DateTime    int32 (4-byte units) or int64
//	dtype.Timestamp   int64
//	dtype.Binary      string (utf8) or []byte
//	dtype.Opaque      []byte
//	dtype.Dictionary  the representation of the value type
//	dtype.List        []interface{}
//	dtype.Struct      Record
type Column struct {
	Type   dtype.Type
	Values []interface{}
}

// Len returns the number of rows in c.
func (c *Column) Len() int { return len(c.Values) }

// Nulls returns the number of null rows in c.
func (c *Column) Nulls() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// Slice returns the rows [i, j) of c.
// The returned column shares storage with c.
func (c *Column) Slice(i, j int) *Column {
	return &Column{Type: c.Type, Values: c.Values[i:j:j]}
}

// Equal returns whether c and o have the same
// type and hold the same values.
func (c *Column) Equal(o *Column) bool {
	if !dtype.Equal(c.Type, o.Type) || len(c.Values) != len(o.Values) {
		return false
	}
	for i := range c.Values {
		if !equalValue(c.Type, c.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

func equalValue(t dtype.Type, a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch t := t.(type) {
	case dtype.Binary, dtype.Opaque:
		switch a := a.(type) {
		case []byte:
			b, ok := b.([]byte)
			return ok && bytes.Equal(a, b)
		}
		return same(a, b)
	case dtype.Float:
		// compare bit patterns so that NaN == NaN
		switch a := a.(type) {
		case float32:
			b, ok := b.(float32)
			return ok && math.Float32bits(a) == math.Float32bits(b)
		case float64:
			b, ok := b.(float64)
			return ok && math.Float64bits(a) == math.Float64bits(b)
		case float16.Float16:
			b, ok := b.(float16.Float16)
			return ok && a.Bits() == b.Bits()
		}
		return false
	case dtype.Dictionary:
		return equalValue(t.Value, a, b)
	case dtype.List:
		la, ok := a.([]interface{})
		lb, ok2 := b.([]interface{})
		if !ok || !ok2 || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !equalValue(t.Elem, la[i], lb[i]) {
				return false
			}
		}
		return true
	case dtype.Struct:
		ra, ok := a.(Record)
		rb, ok2 := b.(Record)
		if !ok || !ok2 || len(ra) != len(rb) || len(ra) != len(t.Fields) {
			return false
		}
		for i := range ra {
			if !equalValue(t.Fields[i].Type, ra[i], rb[i]) {
				return false
			}
		}
		return true
	}
	return same(a, b)
}

// same compares scalars without panicking
// on values of incomparable types
func same(a, b interface{}) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// Frame is an ordered set of named
// columns that all have the same length.
type Frame struct {
	names []string
	cols  []*Column
	index map[string]int
}

// New returns an empty frame.
func New() *Frame {
	return &Frame{index: make(map[string]int)}
}

// Add appends a column to f. It is an error to
// add a column with a name already present in f
// or with a length different from the columns
// already in f.
func (f *Frame) Add(name string, c *Column) error {
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if _, ok := f.index[name]; ok {
		return fmt.Errorf("frame: duplicate column %q", name)
	}
	if len(f.cols) > 0 && c.Len() != f.Len() {
		return errintegrity(name, "column has %d rows; frame has %d", c.Len(), f.Len())
	}
	f.index[name] = len(f.cols)
	f.names = append(f.names, name)
	f.cols = append(f.cols, c)
	return nil
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	return slices.Clone(f.names)
}

// NumColumns returns the number of columns in f.
func (f *Frame) NumColumns() int { return len(f.cols) }

// Column returns the column with the given name.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// At returns the name and column at position i.
func (f *Frame) At(i int) (string, *Column) {
	return f.names[i], f.cols[i]
}

// Len returns the number of rows in f.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// Equal returns whether f and o hold the same
// columns, in the same order, with the same values.
func (f *Frame) Equal(o *Frame) bool {
	if len(f.cols) != len(o.cols) {
		return false
	}
	for i := range f.cols {
		if f.names[i] != o.names[i] || !f.cols[i].Equal(o.cols[i]) {
			return false
		}
	}
	return true
}

// Slice returns a frame holding the rows [i, j) of f.
// The returned frame shares storage with f.
func (f *Frame) Slice(i, j int) *Frame {
	if i < 0 || j < i || j > f.Len() {
		panic(fmt.Sprintf("frame.Slice: bad range [%d:%d] with %d rows", i, j, f.Len()))
	}
	out := New()
	for k := range f.cols {
		out.names = append(out.names, f.names[k])
		out.cols = append(out.cols, f.cols[k].Slice(i, j))
		out.index[f.names[k]] = k
	}
	return out
}

// SplitRows splits f into consecutive frames
// of at most n rows each. A frame with no rows
// yields a single empty frame.
func (f *Frame) SplitRows(n int) []*Frame {
	if n <= 0 {
		panic("frame.SplitRows: n must be positive")
	}
	rows := f.Len()
	if rows == 0 {
		return []*Frame{f.Slice(0, 0)}
	}
	out := make([]*Frame, 0, (rows+n-1)/n)
	for i := 0; i < rows; i += n {
		out = append(out, f.Slice(i, min(i+n, rows)))
	}
	return out
}
