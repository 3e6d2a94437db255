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

package compr

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	ctl := bytes.Repeat([]byte("frame"), 1000)
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			a, err := Lookup(name)
			if err != nil {
				t.Fatal(err)
			}
			if a.Name() != name {
				t.Fatalf("bad name %q", a.Name())
			}
			// Compress appends
			prefix := []byte("hdr")
			cmp := a.Compress(append([]byte(nil), prefix...), ctl)
			if !bytes.HasPrefix(cmp, prefix) {
				t.Fatal("prefix clobbered")
			}
			if len(cmp)-len(prefix) >= len(ctl) {
				t.Errorf("%d bytes compressed to %d", len(ctl), len(cmp)-len(prefix))
			}
			out, err := a.Decompress(cmp[len(prefix):], len(ctl))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(out, ctl) {
				t.Fatal("mismatch")
			}
			if _, err := a.Decompress(cmp[len(prefix):], len(ctl)-1); err == nil {
				t.Fatal("wrong size accepted")
			}
			if _, err := a.Decompress(cmp[len(prefix):], -1); err == nil {
				t.Fatal("negative size accepted")
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	for _, name := range Names() {
		a, _ := Lookup(name)
		out, err := a.Decompress(a.Compress(nil, nil), 0)
		if err != nil {
			t.Fatalf("%s: %s", name, err)
		}
		if len(out) != 0 {
			t.Fatalf("%s: got %d bytes", name, len(out))
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("lz4")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("got error %v", err)
	}
}
