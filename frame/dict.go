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
	"bytes"
	"encoding/binary"

	"github.com/SnellerInc/ionframe/doc"
	"github.com/SnellerInc/ionframe/dtype"

	"github.com/dchest/siphash"
)

// arbitrary siphash keys; pool hashes
// never leave a single encode call
const (
	poolKey0 = 0x736e656c6c657221
	poolKey1 = 0x696f6e6672616d65
)

// appendKey appends the canonical byte form of
// v to dst; two values of type t have the same
// key exactly when they are equal
func appendKey(dst []byte, path string, row int, t dtype.Type, v interface{}) ([]byte, error) {
	if v == nil {
		return append(dst, 0), nil
	}
	dst = append(dst, 1)
	switch t := t.(type) {
	case dtype.Null:
		return nil, errtype(path, row, t, v)
	case dtype.Bool, dtype.Int, dtype.Float, dtype.DateTime, dtype.Timestamp:
		st, _ := strideOf(t)
		n := len(dst)
		dst = append(dst, make([]byte, st.width)...)
		if !st.put(dst[n:], v) {
			return nil, errtype(path, row, t, v)
		}
		return dst, nil
	case dtype.Binary, dtype.Opaque:
		b, err := bytesOf(path, row, t, v)
		if err != nil {
			return nil, err
		}
		dst = binary.AppendUvarint(dst, uint64(len(b)))
		return append(dst, b...), nil
	case dtype.Dictionary:
		return appendKey(dst, path, row, t.Value, v)
	case dtype.List:
		lst, ok := v.([]interface{})
		if !ok {
			return nil, errtype(path, row, t, v)
		}
		dst = binary.AppendUvarint(dst, uint64(len(lst)))
		var err error
		for i := range lst {
			dst, err = appendKey(dst, path, row, t.Elem, lst[i])
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	case dtype.Struct:
		rec, ok := v.(Record)
		if !ok || len(rec) != len(t.Fields) {
			return nil, errtype(path, row, t, v)
		}
		var err error
		for i := range rec {
			dst, err = appendKey(dst, sub(path, t.Fields[i].Name), row, t.Fields[i].Type, rec[i])
			if err != nil {
				return nil, err
			}
		}
		return dst, nil
	}
	return nil, errtype(path, row, t, v)
}

type poolEntry struct {
	key []byte
	pos int
}

// poolTable maps canonical keys
// to positions in the value pool
type poolTable struct {
	buckets map[uint64][]poolEntry
}

func (p *poolTable) find(key []byte) (int, bool) {
	for _, e := range p.buckets[siphash.Hash(poolKey0, poolKey1, key)] {
		if bytes.Equal(e.key, key) {
			return e.pos, true
		}
	}
	return 0, false
}

func (p *poolTable) insert(key []byte, pos int) {
	h := siphash.Hash(poolKey0, poolKey1, key)
	p.buckets[h] = append(p.buckets[h], poolEntry{key: key, pos: pos})
}

// maxIndex returns the largest pool
// position representable by an index type
func maxIndex(t dtype.Int) int64 {
	return int64(1)<<(t.Bits-1) - 1
}

func indexValue(t dtype.Int, pos int) interface{} {
	switch t.Bits {
	case 8:
		return int8(pos)
	case 16:
		return int16(pos)
	case 32:
		return int32(pos)
	}
	return int64(pos)
}

func indexOf(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// encodeDict deduplicates the non-null rows into
// a pool in order of first occurrence; each row
// stores the position of its value in the pool
func encodeDict(path string, t dtype.Dictionary, values []interface{}) (*doc.Struct, error) {
	var pool []interface{}
	tab := poolTable{buckets: make(map[uint64][]poolEntry)}
	idx := make([]interface{}, len(values))
	var key []byte
	for i, v := range values {
		if v == nil {
			continue
		}
		var err error
		key, err = appendKey(key[:0], path, i, t.Value, v)
		if err != nil {
			return nil, err
		}
		pos, ok := tab.find(key)
		if !ok {
			pos = len(pool)
			if int64(pos) > maxIndex(t.Index) {
				return nil, &TypeError{Path: path, Row: i, Want: t, Value: v,
					Msg: "dictionary has more distinct values than " + t.Index.String() + " can index"}
			}
			pool = append(pool, v)
			tab.insert(append([]byte(nil), key...), pos)
		}
		idx[i] = indexValue(t.Index, pos)
	}
	ia, err := encodeValues(sub(path, keyIndex), t.Index, idx)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		pool = []interface{}{}
	}
	da, err := encodeValues(sub(path, keyDict), t.Value, pool)
	if err != nil {
		return nil, err
	}
	data := doc.NewStruct(
		doc.Field{Label: keyIndex, Value: ia},
		doc.Field{Label: keyDict, Value: da},
	)
	return array(t, data, validity(values), nil), nil
}

func decodeDict(path string, t dtype.Dictionary, s *doc.Struct) ([]interface{}, error) {
	data := structOf(s, keyData)
	if data == nil {
		return nil, errschema(path, "dictionary data is not a struct")
	}
	idx, err := child(sub(path, keyIndex), structOf(data, keyIndex), t.Index)
	if err != nil {
		return nil, err
	}
	pool, err := child(sub(path, keyDict), structOf(data, keyDict), t.Value)
	if err != nil {
		return nil, err
	}
	n := len(idx)
	mask, err := maskOf(path, s, n)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, n)
	for i := range out {
		if !testBit(mask, i) {
			continue
		}
		if idx[i] == nil {
			return nil, errintegrity(path, "row %d is valid but its index is null", i)
		}
		pos, _ := indexOf(idx[i])
		if pos < 0 || pos >= int64(len(pool)) {
			return nil, errintegrity(path, "row %d: index %d out of range [0, %d)", i, pos, len(pool))
		}
		if pool[pos] == nil {
			return nil, errintegrity(path, "row %d: dictionary entry %d is null", i, pos)
		}
		out[i] = pool[pos]
	}
	return out, nil
}
