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
	"fmt"

	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/dtype"

	"golang.org/x/sync/errgroup"
)

// Codec encodes and decodes frames.
// The zero value is ready to use and
// processes columns sequentially.
type Codec struct {
	// Parallel is the number of columns
	// encoded or decoded concurrently.
	// Values <= 1 mean sequential processing.
	Parallel int

	// Check, if set, validates every encoded
	// document against the wire grammar before
	// it is returned.
	Check bool

	// Logf, if non-nil, is a callback used for
	// logging the shape of encoded and decoded frames.
	Logf func(f string, args ...interface{})
}

func (c *Codec) logf(f string, args ...interface{}) {
	// let `go vet` know this is printf-like
	if false {
		_ = fmt.Sprintf(f, args...)
	}
	if c.Logf != nil {
		c.Logf(f, args...)
	}
}

// each calls fn(i) for i in [0, n),
// concurrently when c.Parallel > 1
func (c *Codec) each(n int, fn func(i int) error) error {
	if c.Parallel <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	g.SetLimit(c.Parallel)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

// Encode encodes f as a document mapping
// each column name to its encoded array,
// in column order.
func (c *Codec) Encode(f *Frame) (*doc.Struct, error) {
	if f.NumColumns() == 0 {
		return nil, errschema("", "frame has no columns")
	}
	first, _ := f.At(0)
	for i := 1; i < f.NumColumns(); i++ {
		name, col := f.At(i)
		if col.Len() != f.Len() {
			return nil, errintegrity(name, "column has %d rows; column %q has %d", col.Len(), first, f.Len())
		}
	}
	arrays := make([]*doc.Struct, f.NumColumns())
	err := c.each(len(arrays), func(i int) error {
		name, col := f.At(i)
		if err := dtype.Check(col.Type); err != nil {
			return errschema(name, "%s", err)
		}
		a, err := encodeValues(name, col.Type, col.Values)
		arrays[i] = a
		return err
	})
	if err != nil {
		return nil, err
	}
	out := &doc.Struct{Fields: make([]doc.Field, len(arrays))}
	for i := range arrays {
		name, _ := f.At(i)
		out.Fields[i] = doc.Field{Label: name, Value: arrays[i]}
	}
	if c.Check {
		if err := Validate(out); err != nil {
			return nil, fmt.Errorf("frame: encoder produced an invalid document: %w", err)
		}
	}
	c.logf("frame: encoded %d columns, %d rows", f.NumColumns(), f.Len())
	return out, nil
}

// Decode validates d and decodes it into a frame.
// Either every column decodes and all columns have
// the same number of rows, or an error is returned.
func (c *Codec) Decode(d doc.Datum) (*Frame, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}
	s := d.(*doc.Struct)
	cols := make([]*Column, len(s.Fields))
	err := c.each(len(cols), func(i int) error {
		col, err := decodeArray(s.Fields[i].Label, s.Fields[i].Value.(*doc.Struct))
		cols[i] = col
		return err
	})
	if err != nil {
		return nil, err
	}
	rows := cols[0].Len()
	for i := range cols {
		if cols[i].Len() != rows {
			return nil, errintegrity(s.Fields[i].Label, "column has %d rows; column %q has %d",
				cols[i].Len(), s.Fields[0].Label, rows)
		}
	}
	f := New()
	for i := range cols {
		if err := f.Add(s.Fields[i].Label, cols[i]); err != nil {
			return nil, err
		}
	}
	c.logf("frame: decoded %d columns, %d rows", f.NumColumns(), f.Len())
	return f, nil
}

// Marshal returns the Ion binary encoding of f.
func (c *Codec) Marshal(f *Frame) ([]byte, error) {
	d, err := c.Encode(f)
	if err != nil {
		return nil, err
	}
	return doc.Marshal(d)
}

// Unmarshal decodes a frame from a
// buffer holding one Ion document.
func (c *Codec) Unmarshal(buf []byte) (*Frame, error) {
	d, err := doc.Unmarshal(buf)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	return c.Decode(d)
}

// Encode encodes f with the default Codec.
func Encode(f *Frame) (*doc.Struct, error) {
	var c Codec
	return c.Encode(f)
}

// Decode decodes d with the default Codec.
func Decode(d doc.Datum) (*Frame, error) {
	var c Codec
	return c.Decode(d)
}

// Marshal is Codec.Marshal with the default Codec.
func Marshal(f *Frame) ([]byte, error) {
	var c Codec
	return c.Marshal(f)
}

// Unmarshal is Codec.Unmarshal with the default Codec.
func Unmarshal(buf []byte) (*Frame, error) {
	var c Codec
	return c.Unmarshal(buf)
}
