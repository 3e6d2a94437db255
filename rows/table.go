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

// Package rows converts between frames and
// row-oriented tables described by a Schema.
package rows

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/SnellerInc/ionframe/frame"
)

// Host converts between frames and
// a host tabular representation T.
type Host[T any] interface {
	ToFrame(T) (*frame.Frame, error)
	FromFrame(*frame.Frame) (T, error)
}

// Row maps column names to values.
// Missing columns are null.
type Row map[string]interface{}

// Table is a sequence of rows
// conforming to a schema.
type Table struct {
	Schema *Schema
	Rows   []Row
}

// Tables is the Host for *Table.
type Tables struct{}

var _ Host[*Table] = Tables{}

// ToFrame converts t into a frame with one column
// per schema column, coercing each value with Coerce.
// Coercion failures are returned as *frame.TypeError.
func (Tables) ToFrame(t *Table) (*frame.Frame, error) {
	if t.Schema == nil {
		return nil, errors.New("rows: table has no schema")
	}
	if err := t.Schema.check(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	for i, r := range t.Rows {
		for k := range r {
			if t.Schema.Column(k) == nil {
				return nil, fmt.Errorf("rows: row %d: column %q not in schema", i, k)
			}
		}
	}
	f := frame.New()
	for _, def := range t.Schema.Columns {
		typ := def.DType()
		values := make([]interface{}, len(t.Rows))
		for i, r := range t.Rows {
			v, err := Coerce(typ, r[def.Name])
			if err != nil {
				return nil, &frame.TypeError{Path: def.Name, Row: i, Want: typ, Value: r[def.Name], Msg: err.Error()}
			}
			values[i] = v
		}
		if err := f.Add(def.Name, &frame.Column{Type: typ, Values: values}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// FromFrame converts f into a table;
// values are converted with Export.
func (Tables) FromFrame(f *frame.Frame) (*Table, error) {
	t := &Table{Schema: SchemaOf(f), Rows: make([]Row, f.Len())}
	for i := range t.Rows {
		t.Rows[i] = make(Row, f.NumColumns())
	}
	for j := 0; j < f.NumColumns(); j++ {
		name, c := f.At(j)
		for i, v := range c.Values {
			t.Rows[i][name] = Export(c.Type, v)
		}
	}
	return t, nil
}

// Encode converts v to a frame with h and
// returns the Ion encoding of the frame.
func Encode[T any](h Host[T], c *frame.Codec, v T) ([]byte, error) {
	f, err := h.ToFrame(v)
	if err != nil {
		return nil, err
	}
	return c.Marshal(f)
}

// Decode decodes a frame from buf and
// converts it to a T with h.
func Decode[T any](h Host[T], c *frame.Codec, buf []byte) (T, error) {
	f, err := c.Unmarshal(buf)
	if err != nil {
		var zero T
		return zero, err
	}
	return h.FromFrame(f)
}

// ReadJSON reads a table from a stream of
// JSON objects (e.g. NDJSON), one per row.
func ReadJSON(r io.Reader, s *Schema) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	t := &Table{Schema: s}
	for {
		var row Row
		err := dec.Decode(&row)
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("rows: reading row %d: %w", len(t.Rows), err)
		}
		t.Rows = append(t.Rows, row)
	}
}

// WriteJSON writes the rows of t as NDJSON.
func WriteJSON(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	for i := range t.Rows {
		if err := enc.Encode(t.Rows[i]); err != nil {
			return fmt.Errorf("rows: writing row %d: %w", i, err)
		}
	}
	return nil
}
