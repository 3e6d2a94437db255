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
	"encoding/binary"
	"math"

	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/dtype"

	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// stride is the codec of one fixed-width type
type stride struct {
	width int
	// put stores v in dst[:width] and returns
	// false if v has the wrong Go type
	put func(dst []byte, v interface{}) bool
	// get loads a value from src[:width] and returns
	// false if the bytes are not a legal value
	get func(src []byte) (interface{}, bool)
}

func putInt[T constraints.Integer](dst []byte, v T) {
	switch len(dst) {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(dst, uint64(v))
	default:
		panic("frame: bad integer width")
	}
}

func getInt[T constraints.Integer](src []byte) T {
	switch len(src) {
	case 1:
		return T(src[0])
	case 2:
		return T(binary.LittleEndian.Uint16(src))
	case 4:
		return T(binary.LittleEndian.Uint32(src))
	case 8:
		return T(binary.LittleEndian.Uint64(src))
	}
	panic("frame: bad integer width")
}

func intStride[T constraints.Integer](width int) stride {
	return stride{
		width: width,
		put: func(dst []byte, v interface{}) bool {
			x, ok := v.(T)
			if ok {
				putInt(dst, x)
			}
			return ok
		},
		get: func(src []byte) (interface{}, bool) {
			return getInt[T](src), true
		},
	}
}

var boolStride = stride{
	width: 1,
	put: func(dst []byte, v interface{}) bool {
		b, ok := v.(bool)
		if ok && b {
			dst[0] = 1
		}
		return ok
	},
	get: func(src []byte) (interface{}, bool) {
		switch src[0] {
		case 0:
			return false, true
		case 1:
			return true, true
		}
		return nil, false
	},
}

var float16Stride = stride{
	width: 2,
	put: func(dst []byte, v interface{}) bool {
		f, ok := v.(float16.Float16)
		if ok {
			binary.LittleEndian.PutUint16(dst, f.Bits())
		}
		return ok
	},
	get: func(src []byte) (interface{}, bool) {
		return float16.Frombits(binary.LittleEndian.Uint16(src)), true
	},
}

var float32Stride = stride{
	width: 4,
	put: func(dst []byte, v interface{}) bool {
		f, ok := v.(float32)
		if ok {
			binary.LittleEndian.PutUint32(dst, math.Float32bits(f))
		}
		return ok
	},
	get: func(src []byte) (interface{}, bool) {
		return math.Float32frombits(binary.LittleEndian.Uint32(src)), true
	},
}

var float64Stride = stride{
	width: 8,
	put: func(dst []byte, v interface{}) bool {
		f, ok := v.(float64)
		if ok {
			binary.LittleEndian.PutUint64(dst, math.Float64bits(f))
		}
		return ok
	},
	get: func(src []byte) (interface{}, bool) {
		return math.Float64frombits(binary.LittleEndian.Uint64(src)), true
	},
}

// strideOf returns the codec for a fixed-width type
func strideOf(t dtype.Type) (stride, bool) {
	switch t := t.(type) {
	case dtype.Bool:
		return boolStride, true
	case dtype.Int:
		switch {
		case t.Bits == 8 && t.Signed:
			return intStride[int8](1), true
		case t.Bits == 8:
			return intStride[uint8](1), true
		case t.Bits == 16 && t.Signed:
			return intStride[int16](2), true
		case t.Bits == 16:
			return intStride[uint16](2), true
		case t.Bits == 32 && t.Signed:
			return intStride[int32](4), true
		case t.Bits == 32:
			return intStride[uint32](4), true
		case t.Bits == 64 && t.Signed:
			return intStride[int64](8), true
		case t.Bits == 64:
			return intStride[uint64](8), true
		}
	case dtype.Float:
		switch t.Bits {
		case 16:
			return float16Stride, true
		case 32:
			return float32Stride, true
		case 64:
			return float64Stride, true
		}
	case dtype.DateTime, dtype.Timestamp:
		if dtype.Width(t) == 4 {
			return intStride[int32](4), true
		}
		return intStride[int64](8), true
	}
	return stride{}, false
}

func encodeFixed(path string, t dtype.Type, values []interface{}) (*doc.Struct, error) {
	st, ok := strideOf(t)
	if !ok {
		return nil, errschema(path, "%s is not a fixed-width type", t)
	}
	w := st.width
	buf := make([]byte, w*len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		if !st.put(buf[i*w:(i+1)*w], v) {
			return nil, errtype(path, i, t, v)
		}
	}
	return array(t, doc.Blob(buf), validity(values), nil), nil
}

func decodeFixed(path string, t dtype.Type, s *doc.Struct) ([]interface{}, error) {
	st, ok := strideOf(t)
	if !ok {
		return nil, errschema(path, "%s is not a fixed-width type", t)
	}
	data := blobOf(s, keyData)
	w := st.width
	if len(data)%w != 0 {
		return nil, errintegrity(path, "data of %d bytes is not a multiple of the %d-byte stride", len(data), w)
	}
	n := len(data) / w
	mask, err := maskOf(path, s, n)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	for i := range out {
		if !testBit(mask, i) {
			continue
		}
		v, ok := st.get(data[i*w : (i+1)*w])
		if !ok {
			return nil, errintegrity(path, "row %d: byte %#x is not a %s", i, data[i*w], t)
		}
		out[i] = v
	}
	return out, nil
}
