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
	"math/rand"
	"reflect"
	"testing"
)

func TestMaskRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 67; n++ {
		valid := make([]bool, n)
		for i := range valid {
			valid[i] = rng.Intn(3) != 0
		}
		mask := PackMask(valid)
		if len(mask) != (n+7)/8 {
			t.Fatalf("n=%d: mask has %d bytes", n, len(mask))
		}
		if n%8 != 0 && mask[len(mask)-1]>>(n%8) != 0 {
			t.Fatalf("n=%d: padding bits set in %08b", n, mask[len(mask)-1])
		}
		got, err := UnpackMask(mask, n)
		if err != nil {
			t.Fatalf("n=%d: %s", n, err)
		}
		if !reflect.DeepEqual(got, valid) {
			t.Fatalf("n=%d: got %v, want %v", n, got, valid)
		}
	}
}

func TestMaskBitOrder(t *testing.T) {
	mask := PackMask([]bool{true, false, false, true, false, false, false, false, false, true})
	want := []byte{0x09, 0x02}
	if !reflect.DeepEqual(mask, want) {
		t.Fatalf("got %x, want %x", mask, want)
	}
}

func TestUnpackMask(t *testing.T) {
	// padding is ignored on read
	got, err := UnpackMask([]byte{0xff}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []bool{true, true, true}) {
		t.Fatalf("got %v", got)
	}
	// a short mask is an error, not a truncation
	_, err = UnpackMask([]byte{0xff}, 9)
	var ie *IntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("short mask: got error %v", err)
	}
	if _, err := UnpackMask(nil, 0); err != nil {
		t.Fatalf("empty mask: %s", err)
	}
}

func TestSetBits(t *testing.T) {
	for first := 0; first < 20; first++ {
		for last := first; last < 30; last++ {
			buf := make([]byte, 4)
			setBits(buf, first, last)
			for i := 0; i < 32; i++ {
				want := i >= first && i < last
				if testBit(buf, i) != want {
					t.Fatalf("setBits(%d, %d): bit %d is %v", first, last, i, !want)
				}
			}
		}
	}
}
