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
	"errors"
	"testing"

	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/dtype"
)

func st(kv ...interface{}) *doc.Struct {
	s := &doc.Struct{}
	for i := 0; i < len(kv); i += 2 {
		s.Add(kv[i].(string), kv[i+1].(doc.Datum))
	}
	return s
}

func col(a *doc.Struct) *doc.Struct { return st("x", a) }

func TestValidateRejects(t *testing.T) {
	blob := doc.Blob{0, 0, 0, 0}
	mask := doc.Blob{1}
	off := doc.Blob{0, 0, 0, 0, 1, 0, 0, 0}
	int32d := st("t", doc.String("int32"))
	tcs := []struct {
		name string
		doc  doc.Datum
	}{
		{"not-a-struct", doc.Int(1)},
		{"no-columns", st()},
		{"column-not-struct", st("x", doc.Blob{})},
		{"unknown-tag", col(st("t", doc.String("int128"), "d", blob, "m", mask))},
		{"tag-not-string", col(st("t", doc.Int(3), "d", blob, "m", mask))},
		{"missing-tag", col(st("d", blob, "m", mask))},
		{"missing-data", col(st("t", doc.String("int32"), "m", mask))},
		{"missing-mask", col(st("t", doc.String("int32"), "d", blob))},
		{"data-not-blob", col(st("t", doc.String("int32"), "d", doc.Int(4), "m", mask))},
		{"mask-not-blob", col(st("t", doc.String("int32"), "d", blob, "m", doc.Int(1)))},
		{"unexpected-offsets", col(st("t", doc.String("int32"), "d", blob, "m", mask, "o", off))},
		{"unexpected-param", col(st("t", doc.String("int32"), "p", doc.Int(1), "d", blob, "m", mask))},
		{"unexpected-key", col(st("t", doc.String("int32"), "d", blob, "m", mask, "z", doc.Int(0)))},
		{"duplicate-key", col(st("t", doc.String("int32"), "d", blob, "m", mask, "m", mask))},
		{"missing-offsets", col(st("t", doc.String("utf8"), "d", doc.Blob("a"), "m", mask))},
		{"zone-not-string", col(st("t", doc.String("timestamp[s]"), "p", doc.Int(0), "d", doc.Blob(make([]byte, 8)), "m", mask))},
		{"opaque-no-subtype", col(st("t", doc.String("opaque"), "d", doc.Blob("a"), "m", mask, "o", off))},
		{"opaque-big-subtype", col(st("t", doc.String("opaque"), "p", doc.Int(1 << 40), "d", doc.Blob("a"), "m", mask, "o", off))},
		{"list-no-param", col(st("t", doc.String("list"),
			"d", st("t", doc.String("int32"), "d", blob, "m", mask), "m", mask, "o", off))},
		{"list-param-is-value", col(st("t", doc.String("list"), "p", doc.Int(5),
			"d", st("t", doc.String("int32"), "d", blob, "m", mask), "m", mask, "o", off))},
		{"list-bad-child", col(st("t", doc.String("list"), "p", int32d,
			"d", st("t", doc.String("int32"), "d", blob), "m", mask, "o", off))},
		{"null-negative", col(st("t", doc.String("null"), "d", doc.Int(-1), "m", mask))},
		{"null-without-mask", col(st("t", doc.String("null"), "d", doc.Int(1<<24)))},
		{"dict-unsigned-index", col(st("t", doc.String("factor"),
			"p", st("i", st("t", doc.String("uint8")), "d", st("t", doc.String("utf8"))),
			"d", st("i", st("t", doc.String("uint8"), "d", doc.Blob{0}, "m", mask),
				"d", st("t", doc.String("utf8"), "d", doc.Blob("a"), "m", mask, "o", off)),
			"m", mask))},
		{"dict-missing-pool", col(st("t", doc.String("factor"),
			"p", st("i", st("t", doc.String("int8")), "d", st("t", doc.String("utf8"))),
			"d", st("i", st("t", doc.String("int8"), "d", doc.Blob{0}, "m", mask)),
			"m", mask))},
		{"struct-empty-param", col(st("t", doc.String("struct"), "p", doc.NewList(),
			"d", st("l", doc.Int(1), "f", st("a", st("t", doc.String("int32"), "d", blob, "m", mask))),
			"m", mask))},
		{"struct-no-length", col(st("t", doc.String("struct"),
			"p", doc.NewList(st("n", doc.String("a"), "t", int32d)),
			"d", st("f", st("a", st("t", doc.String("int32"), "d", blob, "m", mask))),
			"m", mask))},
		{"struct-empty-fields", col(st("t", doc.String("struct"),
			"p", doc.NewList(st("n", doc.String("a"), "t", int32d)),
			"d", st("l", doc.Int(1), "f", st()),
			"m", mask))},
		{"struct-field-no-name", col(st("t", doc.String("struct"),
			"p", doc.NewList(st("t", int32d)),
			"d", st("l", doc.Int(1), "f", st("a", st("t", doc.String("int32"), "d", blob, "m", mask))),
			"m", mask))},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.doc)
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("got error %v, want a SchemaError", err)
			}
			t.Log(err)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	mask := doc.Blob{1}
	tcs := []struct {
		name string
		doc  doc.Datum
	}{
		{"int32", col(st("t", doc.String("int32"), "d", doc.Blob{1, 0, 0, 0}, "m", mask))},
		{"null", col(st("t", doc.String("null"), "d", doc.Int(3), "m", doc.Blob{0}))},
		{"naive-timestamp", col(st("t", doc.String("timestamp[ns]"), "d", doc.Blob(make([]byte, 8)), "m", mask))},
		{"zoned-timestamp", col(st("t", doc.String("timestamp[ns]"), "p", doc.String("UTC"), "d", doc.Blob(make([]byte, 8)), "m", mask))},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.doc); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestValidateDepth(t *testing.T) {
	typ := dtype.Type(dtype.Int32)
	for i := 0; i < MaxDepth+1; i++ {
		typ = dtype.List{Elem: typ}
	}
	arr, err := encodeValues("x", typ, []interface{}{})
	if err != nil {
		t.Fatal(err)
	}
	err = Validate(col(arr))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("got error %v", err)
	}

	typ = dtype.Int32
	for i := 0; i < MaxDepth/2; i++ {
		typ = dtype.List{Elem: typ}
	}
	arr, err = encodeValues("x", typ, []interface{}{nil})
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(col(arr)); err != nil {
		t.Fatal(err)
	}
}

func TestSchemaErrorPath(t *testing.T) {
	bad := st("t", doc.String("struct"),
		"p", doc.NewList(st("n", doc.String("a"), "t", st("t", doc.String("int32")))),
		"d", st("l", doc.Int(1), "f", st("a", st("t", doc.String("int32"), "d", doc.Blob{0, 0, 0, 0}))),
		"m", doc.Blob{1})
	err := Validate(st("outer", bad))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("got error %v", err)
	}
	if se.Path != "outer.a" {
		t.Fatalf("path %q", se.Path)
	}
}
