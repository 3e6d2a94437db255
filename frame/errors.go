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

	"github.com/SnellerInc/ionframe/dtype"
)

// SchemaError is returned when a document
// (or a type being encoded) does not conform
// to the wire grammar.
type SchemaError struct {
	Path string
	Msg  string
}

func (s *SchemaError) Error() string {
	if s.Path == "" {
		return "frame: schema: " + s.Msg
	}
	return fmt.Sprintf("frame: schema: %s: %s", s.Path, s.Msg)
}

// IntegrityError is returned when a document
// is well-formed but internally inconsistent,
// e.g. a short mask or non-monotonic offsets.
type IntegrityError struct {
	Path string
	Msg  string
}

func (i *IntegrityError) Error() string {
	if i.Path == "" {
		return "frame: integrity: " + i.Msg
	}
	return fmt.Sprintf("frame: integrity: %s: %s", i.Path, i.Msg)
}

// TypeError is returned from encoding when
// a row value does not match the type of
// its column.
type TypeError struct {
	Path  string
	Row   int
	Want  dtype.Type
	Value interface{}
	Msg   string
}

func (t *TypeError) Error() string {
	msg := t.Msg
	if msg == "" {
		msg = fmt.Sprintf("found %T, wanted a value of type %s", t.Value, t.Want)
	}
	return fmt.Sprintf("frame: %s row %d: %s", t.Path, t.Row, msg)
}

// EncodingError is returned from decoding
// when a utf8 row does not hold valid UTF-8.
type EncodingError struct {
	Path string
	Row  int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("frame: %s row %d: invalid UTF-8", e.Path, e.Row)
}

func errschema(path, f string, args ...interface{}) error {
	return &SchemaError{Path: path, Msg: fmt.Sprintf(f, args...)}
}

func errintegrity(path, f string, args ...interface{}) error {
	return &IntegrityError{Path: path, Msg: fmt.Sprintf(f, args...)}
}

func errtype(path string, row int, want dtype.Type, v interface{}) error {
	return &TypeError{Path: path, Row: row, Want: want, Value: v}
}

// sub returns the path of a child of path
func sub(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
