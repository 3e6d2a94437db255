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
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	items := []Datum{
		Null{},
		Bool(true),
		Int(-1),
		Int(1 << 40),
		Float(1.5),
		String("foo"),
		Blob{0, 1, 2, 0xff},
		Blob{},
		NewList(Int(1), String("x"), NewList()),
		NewStruct(
			Field{"z", Int(0)},
			Field{"a", Blob("abc")},
			Field{"m", NewStruct(Field{"inner", NewList(Int(3))})},
		),
		&Annotation{Labels: []string{"zstd"}, Value: NewStruct(Field{"n", Int(3)})},
	}
	for i := range items {
		buf, err := Marshal(items[i])
		if err != nil {
			t.Fatalf("item %d: %s", i, err)
		}
		out, err := Unmarshal(buf)
		if err != nil {
			t.Fatalf("item %d: %s", i, err)
		}
		if !Equal(items[i], out) {
			t.Errorf("item %d: got %#v, want %#v", i, out, items[i])
		}
	}
}

func TestStructOrder(t *testing.T) {
	s := NewStruct()
	labels := []string{"zz", "b", "a", "c"}
	for i, l := range labels {
		s.Add(l, Int(i))
	}
	buf, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	d, err := Unmarshal(buf)
	if err != nil {
		t.Fatal(err)
	}
	got := d.(*Struct).Labels()
	if strings.Join(got, ",") != strings.Join(labels, ",") {
		t.Fatalf("labels %v, want %v", got, labels)
	}
	v, ok := d.(*Struct).Get("a")
	if !ok || !Equal(v, Int(2)) {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	if _, ok := d.(*Struct).Get("missing"); ok {
		t.Fatal("Get(missing) succeeded")
	}
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := Unmarshal(nil)
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("empty input: got %v", err)
	}
	one, err := Marshal(Int(1))
	if err != nil {
		t.Fatal(err)
	}
	two, err := Marshal(Int(2))
	if err != nil {
		t.Fatal(err)
	}
	_, err = Unmarshal(append(one, two...))
	if err == nil {
		t.Error("expected an error for trailing values")
	}
	// text input is accepted too
	d, err := Unmarshal([]byte(`{t: "int32", d: {{AAAAAA==}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if tag, _ := d.(*Struct).Get("t"); !Equal(tag, String("int32")) {
		t.Errorf("t = %v", tag)
	}
}

func TestWriteText(t *testing.T) {
	var out bytes.Buffer
	err := WriteText(&out, NewStruct(Field{"t", String("bool")}, Field{"d", Int(3)}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "bool") {
		t.Errorf("unexpected text %q", out.String())
	}
}
