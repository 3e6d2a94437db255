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

package dtype

import (
	"errors"
	"testing"
)

func TestParseString(t *testing.T) {
	tcs := []struct {
		in   string
		want Type
	}{
		{"null", Null{}},
		{"bool", Bool{}},
		{"int8", Int8},
		{"uint64", Uint64},
		{"float16", Float16},
		{"date[d]", DateTime{Kind: Date, Unit: Day}},
		{"time[us]", DateTime{Kind: Time, Unit: Microsecond}},
		{"timestamp[ms]", Timestamp{Unit: Millisecond}},
		{"timestamp[ns, UTC]", Timestamp{Unit: Nanosecond, Zone: "UTC"}},
		{"timestamp[s, America/New_York]", Timestamp{Unit: Second, Zone: "America/New_York"}},
		{`timestamp[s, "+05:30"]`, Timestamp{Unit: Second, Zone: "+05:30"}},
		{"utf8", UTF8},
		{"bytes", Bytes},
		{"opaque(7)", Opaque{Subtype: 7}},
		{"opaque(-2)", Opaque{Subtype: -2}},
		{"list<int32>", List{Elem: Int32}},
		{"ordered<int8, utf8>", Dictionary{Index: Int8, Value: UTF8, Ordered: true}},
		{"factor<int32, list<float64>>", Dictionary{Index: Int32, Value: List{Elem: Float64}}},
		{`struct<a: int32, "b c": utf8>`, Struct{Fields: []Field{
			{Name: "a", Type: Int32},
			{Name: "b c", Type: UTF8},
		}}},
		{"list<struct<a: int32, b: list<struct<c: bool>>>>", List{Elem: Struct{Fields: []Field{
			{Name: "a", Type: Int32},
			{Name: "b", Type: List{Elem: Struct{Fields: []Field{{Name: "c", Type: Bool{}}}}}},
		}}}},
	}
	for _, tc := range tcs {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q): %s", tc.in, err)
			continue
		}
		if !Equal(got, tc.want) {
			t.Errorf("Parse(%q) = %s, want %s", tc.in, got, tc.want)
		}
		if s := got.String(); s != tc.in {
			t.Errorf("%q printed as %q", tc.in, s)
		}
		again, err := Parse(got.String())
		if err != nil || !Equal(again, got) {
			t.Errorf("re-parsing %q: %v %v", got.String(), again, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"int128",
		"list<int32",
		"list<>",
		"struct<>",
		"struct<a: int32, a: utf8>",
		"factor<uint8, utf8>",
		"factor<utf8, utf8>",
		"timestamp[d]",
		"timestamp[fortnight]",
		"date[us]",
		"opaque(x)",
		"int32 int32",
		`struct<"a: int32>`,
	} {
		_, err := Parse(in)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Parse(%q): got error %v", in, err)
		}
	}
}

func TestCheck(t *testing.T) {
	bad := []Type{
		nil,
		Int{Bits: 12, Signed: true},
		Float{Bits: 8},
		DateTime{Kind: Date, Unit: Second},
		Timestamp{Unit: Day},
		Dictionary{Index: Uint16, Value: UTF8},
		Dictionary{Index: Int16, Value: Int{Bits: 3}},
		List{Elem: nil},
		Struct{},
		Struct{Fields: []Field{{Name: "a", Type: Bool{}}, {Name: "a", Type: Bool{}}}},
	}
	for _, typ := range bad {
		if err := Check(typ); err == nil {
			t.Errorf("Check(%v) succeeded", typ)
		}
	}
}

func TestWidth(t *testing.T) {
	tcs := []struct {
		t Type
		w int
	}{
		{Bool{}, 1},
		{Int16, 2},
		{Uint64, 8},
		{Float16, 2},
		{DateTime{Kind: Date, Unit: Day}, 4},
		{DateTime{Kind: Date, Unit: Millisecond}, 8},
		{DateTime{Kind: Time, Unit: Second}, 4},
		{DateTime{Kind: Time, Unit: Millisecond}, 4},
		{DateTime{Kind: Time, Unit: Nanosecond}, 8},
		{Timestamp{Unit: Second}, 8},
		{UTF8, 0},
		{List{Elem: Int8}, 0},
	}
	for _, tc := range tcs {
		if got := Width(tc.t); got != tc.w {
			t.Errorf("Width(%s) = %d, want %d", tc.t, got, tc.w)
		}
	}
}

func TestEqual(t *testing.T) {
	a := MustParse("struct<a: list<int8>, b: timestamp[ms, UTC]>")
	b := MustParse("struct<a: list<int8>, b: timestamp[ms, UTC]>")
	if !Equal(a, b) {
		t.Fatal("equal types compare unequal")
	}
	for _, other := range []string{
		"struct<a: list<int8>, b: timestamp[ms]>",
		"struct<a: list<int16>, b: timestamp[ms, UTC]>",
		"struct<b: timestamp[ms, UTC], a: list<int8>>",
		"struct<a: list<int8>>",
	} {
		if Equal(a, MustParse(other)) {
			t.Errorf("%s == %s", a, other)
		}
	}
	if Equal(MustParse("ordered<int8, utf8>"), MustParse("factor<int8, utf8>")) {
		t.Error("ordered == factor")
	}
}
