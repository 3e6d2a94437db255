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

package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/dtype"
	"github.com/SnellerInc/ionframe/frame"
)

func testFrame(t *testing.T, rows int) *frame.Frame {
	ids := make([]interface{}, rows)
	names := make([]interface{}, rows)
	tags := make([]interface{}, rows)
	for i := 0; i < rows; i++ {
		ids[i] = int64(i)
		if i%7 != 3 {
			names[i] = fmt.Sprintf("name-%d", i%5)
		}
		if i%4 != 0 {
			tags[i] = []interface{}{int32(i), int32(-i)}
		}
	}
	f := frame.New()
	for _, c := range []struct {
		name string
		typ  dtype.Type
		vals []interface{}
	}{
		{"id", dtype.Int64, ids},
		{"name", dtype.MustParse("factor<int8, utf8>"), names},
		{"tags", dtype.MustParse("list<int32>"), tags},
	} {
		if err := f.Add(c.name, &frame.Column{Type: c.typ, Values: c.vals}); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestRoundTrip(t *testing.T) {
	src := testFrame(t, 1000)
	for _, comp := range []string{"", "zstd", "zstd-better", "s2"} {
		t.Run(fmt.Sprintf("compression=%q", comp), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, comp)
			if err != nil {
				t.Fatal(err)
			}
			w.Logf = t.Logf
			w.Codec.Check = true
			parts := src.SplitRows(333)
			for _, part := range parts {
				if err := w.Write(part); err != nil {
					t.Fatal(err)
				}
			}
			if w.Batches() != len(parts) || w.Rows() != src.Len() {
				t.Fatalf("wrote %d batches, %d rows", w.Batches(), w.Rows())
			}
			got, err := ReadAll(bytes.NewReader(buf.Bytes()))
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(parts) {
				t.Fatalf("read %d batches, want %d", len(got), len(parts))
			}
			for i := range got {
				if !got[i].Equal(parts[i]) {
					t.Fatalf("batch %d differs", i)
				}
			}
		})
	}
}

func TestEmptyStream(t *testing.T) {
	got, err := ReadAll(bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d batches", len(got))
	}
	r := NewReader(bytes.NewReader(nil))
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestUnknownCompression(t *testing.T) {
	if _, err := NewWriter(io.Discard, "lz77"); !errors.Is(err, ErrUnknownCompression) {
		t.Fatalf("NewWriter: got error %v", err)
	}
	batch := &doc.Annotation{
		Labels: []string{"brotli"},
		Value: doc.NewStruct(
			doc.Field{Label: keySize, Value: doc.Int(1)},
			doc.Field{Label: keyBody, Value: doc.Blob{0}},
		),
	}
	buf, err := doc.Marshal(batch)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ReadAll(bytes.NewReader(buf))
	if !errors.Is(err, ErrUnknownCompression) {
		t.Fatalf("ReadAll: got error %v", err)
	}
}

func TestCorruptBatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "s2")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(testFrame(t, 10)); err != nil {
		t.Fatal(err)
	}
	d, err := doc.Unmarshal(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	a := d.(*doc.Annotation)
	body := a.Value.(*doc.Struct)
	// lie about the decompressed size
	n, _ := body.Get(keySize)
	body.Fields[0].Value = n.(doc.Int) + 1
	bad, err := doc.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadAll(bytes.NewReader(bad)); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDecodeErrorsPropagate(t *testing.T) {
	// a well-formed Ion value that is not a frame
	buf, err := doc.Marshal(doc.NewStruct(doc.Field{Label: "x", Value: doc.Int(1)}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = ReadAll(bytes.NewReader(buf))
	var se *frame.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("got error %v", err)
	}
}
