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

package doc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/amazon-ion/ion-go/ion"
)

// ErrEmpty is returned from Unmarshal
// when the input holds no values.
var ErrEmpty = errors.New("doc: no value in input")

func sym(s string) ion.SymbolToken { return ion.NewSymbolTokenFromString(s) }

// Write writes d to w as one value.
func Write(w ion.Writer, d Datum) error {
	switch d := d.(type) {
	case Null:
		return w.WriteNull()
	case Bool:
		return w.WriteBool(bool(d))
	case Int:
		return w.WriteInt(int64(d))
	case Float:
		return w.WriteFloat(float64(d))
	case String:
		return w.WriteString(string(d))
	case Blob:
		return w.WriteBlob([]byte(d))
	case *List:
		if err := w.BeginList(); err != nil {
			return err
		}
		for i := range d.Items {
			if err := Write(w, d.Items[i]); err != nil {
				return err
			}
		}
		return w.EndList()
	case *Struct:
		if err := w.BeginStruct(); err != nil {
			return err
		}
		for i := range d.Fields {
			if err := w.FieldName(sym(d.Fields[i].Label)); err != nil {
				return err
			}
			if err := Write(w, d.Fields[i].Value); err != nil {
				return err
			}
		}
		return w.EndStruct()
	case *Annotation:
		for _, l := range d.Labels {
			if err := w.Annotation(sym(l)); err != nil {
				return err
			}
		}
		return Write(w, d.Value)
	case nil:
		return fmt.Errorf("doc.Write: nil datum")
	}
	return fmt.Errorf("doc.Write: unexpected datum %T", d)
}

// Marshal returns the Ion binary encoding of d.
func Marshal(d Datum) ([]byte, error) {
	var buf bytes.Buffer
	w := ion.NewBinaryWriter(&buf)
	if err := Write(w, d); err != nil {
		return nil, err
	}
	if err := w.Finish(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteText writes the Ion text
// form of d to dst, for debugging.
func WriteText(dst io.Writer, d Datum) error {
	w := ion.NewTextWriter(dst)
	if err := Write(w, d); err != nil {
		return err
	}
	return w.Finish()
}

// Read reads the value that r is positioned
// on (i.e. after a successful r.Next).
func Read(r ion.Reader) (Datum, error) {
	anns, err := r.Annotations()
	if err != nil {
		return nil, err
	}
	d, err := readValue(r)
	if err != nil {
		return nil, err
	}
	if len(anns) == 0 {
		return d, nil
	}
	a := &Annotation{Value: d}
	for i := range anns {
		if anns[i].Text == nil {
			return nil, fmt.Errorf("doc: annotation without text")
		}
		a.Labels = append(a.Labels, *anns[i].Text)
	}
	return a, nil
}

func readValue(r ion.Reader) (Datum, error) {
	if r.IsNull() {
		return Null{}, nil
	}
	switch t := r.Type(); t {
	case ion.BoolType:
		b, err := r.BoolValue()
		if err != nil {
			return nil, err
		}
		return Bool(*b), nil
	case ion.IntType:
		i, err := r.Int64Value()
		if err != nil {
			return nil, fmt.Errorf("doc: reading int: %w", err)
		}
		return Int(*i), nil
	case ion.FloatType:
		f, err := r.FloatValue()
		if err != nil {
			return nil, err
		}
		return Float(*f), nil
	case ion.StringType:
		s, err := r.StringValue()
		if err != nil {
			return nil, err
		}
		return String(*s), nil
	case ion.SymbolType:
		s, err := r.SymbolValue()
		if err != nil {
			return nil, err
		}
		if s.Text == nil {
			return nil, fmt.Errorf("doc: symbol without text")
		}
		return String(*s.Text), nil
	case ion.BlobType, ion.ClobType:
		b, err := r.ByteValue()
		if err != nil {
			return nil, err
		}
		return Blob(append([]byte{}, b...)), nil
	case ion.ListType, ion.SexpType:
		if err := r.StepIn(); err != nil {
			return nil, err
		}
		l := &List{}
		for r.Next() {
			d, err := Read(r)
			if err != nil {
				return nil, err
			}
			l.Items = append(l.Items, d)
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		return l, r.StepOut()
	case ion.StructType:
		if err := r.StepIn(); err != nil {
			return nil, err
		}
		s := &Struct{}
		for r.Next() {
			fn, err := r.FieldName()
			if err != nil {
				return nil, err
			}
			if fn == nil || fn.Text == nil {
				return nil, fmt.Errorf("doc: struct field without a name")
			}
			d, err := Read(r)
			if err != nil {
				return nil, err
			}
			s.Add(*fn.Text, d)
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
		return s, r.StepOut()
	default:
		return nil, fmt.Errorf("doc: unsupported ion type %s", t)
	}
}

// Unmarshal decodes exactly one
// value from an Ion (binary or text) buffer.
func Unmarshal(buf []byte) (Datum, error) {
	r := ion.NewReaderBytes(buf)
	if !r.Next() {
		if err := r.Err(); err != nil {
			return nil, err
		}
		return nil, ErrEmpty
	}
	d, err := Read(r)
	if err != nil {
		return nil, err
	}
	if r.Next() {
		return nil, fmt.Errorf("doc: trailing %s value after document", r.Type())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return d, nil
}
