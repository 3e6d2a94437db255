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

package rows

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/SnellerInc/ionframe/dtype"
	"github.com/SnellerInc/ionframe/frame"

	"github.com/x448/float16"
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04:05.999999999"
)

// Coerce converts v to the Go representation
// of a value of type t (see frame.Column).
// Values already in that representation are
// returned unchanged. Otherwise v may be a value
// as produced by encoding/json (with UseNumber):
//
//   - numbers for integer, float, date and time types
//   - "2006-01-02" strings for dates
//   - "15:04:05.999" strings for times of day
//   - RFC 3339 strings for timestamps and date[ms]
//   - base64 strings for bytes and opaque values
//   - arrays for lists, objects for structs
func Coerce(t dtype.Type, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t := t.(type) {
	case dtype.Null:
		return nil, fmt.Errorf("null column holds %T", v)
	case dtype.Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case dtype.Int:
		return toInt(t, v)
	case dtype.Float:
		return toFloat(t, v)
	case dtype.DateTime:
		return toDateTime(t, v)
	case dtype.Timestamp:
		return toTimestamp(t, v)
	case dtype.Binary:
		if t.UTF8 {
			if s, ok := v.(string); ok {
				return s, nil
			}
			break
		}
		return toBytes(v)
	case dtype.Opaque:
		return toBytes(v)
	case dtype.Dictionary:
		return Coerce(t.Value, v)
	case dtype.List:
		lst, ok := v.([]interface{})
		if !ok {
			break
		}
		out := make([]interface{}, len(lst))
		for i := range lst {
			e, err := Coerce(t.Elem, lst[i])
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = e
		}
		return out, nil
	case dtype.Struct:
		return toRecord(t, v)
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t)
}

func toRecord(t dtype.Struct, v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case frame.Record:
		if len(v) != len(t.Fields) {
			return nil, fmt.Errorf("record has %d fields; %s has %d", len(v), t, len(t.Fields))
		}
		return v, nil
	case map[string]interface{}:
		for k := range v {
			if t.Index(k) < 0 {
				return nil, fmt.Errorf("unknown field %q", k)
			}
		}
		rec := make(frame.Record, len(t.Fields))
		for i := range t.Fields {
			x, err := Coerce(t.Fields[i].Type, v[t.Fields[i].Name])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", t.Fields[i].Name, err)
			}
			rec[i] = x
		}
		return rec, nil
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t)
}

// number returns the decimal text of a numeric value
func number(v interface{}) (string, bool) {
	switch v := v.(type) {
	case json.Number:
		return string(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	}
	return "", false
}

func toInt(t dtype.Int, v interface{}) (interface{}, error) {
	if same(t, v) {
		return v, nil
	}
	s, ok := number(v)
	if !ok {
		return nil, fmt.Errorf("cannot use %T as %s", v, t)
	}
	if t.Signed {
		n, err := strconv.ParseInt(s, 10, t.Bits)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		return signed(t.Bits, n), nil
	}
	n, err := strconv.ParseUint(s, 10, t.Bits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}
	switch t.Bits {
	case 8:
		return uint8(n), nil
	case 16:
		return uint16(n), nil
	case 32:
		return uint32(n), nil
	}
	return n, nil
}

func signed(bits int, n int64) interface{} {
	switch bits {
	case 8:
		return int8(n)
	case 16:
		return int16(n)
	case 32:
		return int32(n)
	}
	return n
}

// same returns whether v already has the
// Go type used for values of integer type t
func same(t dtype.Int, v interface{}) bool {
	switch v.(type) {
	case int8:
		return t == dtype.Int8
	case int16:
		return t == dtype.Int16
	case int32:
		return t == dtype.Int32
	case int64:
		return t == dtype.Int64
	case uint8:
		return t == dtype.Uint8
	case uint16:
		return t == dtype.Uint16
	case uint32:
		return t == dtype.Uint32
	case uint64:
		return t == dtype.Uint64
	}
	return false
}

func toFloat(t dtype.Float, v interface{}) (interface{}, error) {
	var f float64
	switch x := v.(type) {
	case float16.Float16:
		if t.Bits == 16 {
			return x, nil
		}
		f = float64(x.Float32())
	case float32:
		if t.Bits == 32 {
			return x, nil
		}
		f = float64(x)
	case float64:
		f = x
	default:
		s, ok := number(v)
		if !ok {
			return nil, fmt.Errorf("cannot use %T as %s", v, t)
		}
		var err error
		f, err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
	}
	switch t.Bits {
	case 16:
		return float16.Fromfloat32(float32(f)), nil
	case 32:
		return float32(f), nil
	}
	return f, nil
}

func unitOf(u dtype.Unit) time.Duration {
	switch u {
	case dtype.Day:
		return 24 * time.Hour
	case dtype.Second:
		return time.Second
	case dtype.Millisecond:
		return time.Millisecond
	case dtype.Microsecond:
		return time.Microsecond
	}
	return time.Nanosecond
}

// count returns n as the Go type used for
// rows of the date/time type t
func count(t dtype.Type, n int64) (interface{}, error) {
	if dtype.Width(t) == 8 {
		return n, nil
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fmt.Errorf("%d out of range for %s", n, t)
	}
	return int32(n), nil
}

// rawCount handles values given as unit counts
func rawCount(t dtype.Type, v interface{}) (interface{}, bool, error) {
	switch v.(type) {
	case int32:
		if dtype.Width(t) == 4 {
			return v, true, nil
		}
	case int64:
		if dtype.Width(t) == 8 {
			return v, true, nil
		}
	}
	s, ok := number(v)
	if !ok {
		return nil, false, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, true, fmt.Errorf("%s: %w", t, err)
	}
	c, err := count(t, n)
	return c, true, err
}

func toDateTime(t dtype.DateTime, v interface{}) (interface{}, error) {
	if c, ok, err := rawCount(t, v); ok {
		return c, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("cannot use %T as %s", v, t)
	}
	if t.Kind == dtype.Time {
		tm, err := time.Parse(timeFormat, s)
		if err != nil {
			return nil, err
		}
		since := tm.Sub(time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, time.UTC))
		return count(t, int64(since/unitOf(t.Unit)))
	}
	tm, err := time.Parse(dateFormat, s)
	if err != nil {
		tm, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, err
		}
	}
	if t.Unit == dtype.Day {
		return count(t, floorDiv(tm.Unix(), 86400))
	}
	return count(t, tm.UnixMilli())
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func toTimestamp(t dtype.Timestamp, v interface{}) (interface{}, error) {
	if c, ok, err := rawCount(t, v); ok {
		return c, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("cannot use %T as %s", v, t)
	}
	tm, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	switch t.Unit {
	case dtype.Second:
		return tm.Unix(), nil
	case dtype.Millisecond:
		return tm.UnixMilli(), nil
	case dtype.Microsecond:
		return tm.UnixMicro(), nil
	}
	return tm.UnixNano(), nil
}

func toBytes(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case []byte:
		return v, nil
	case string:
		buf, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("decoding base64: %w", err)
		}
		return buf, nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", v)
}

// Export converts a row value of type t into
// a form that encoding/json can represent and
// that Coerce maps back to the same value.
func Export(t dtype.Type, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch t := t.(type) {
	case dtype.Float:
		if f, ok := v.(float16.Float16); ok {
			return f.Float32()
		}
	case dtype.DateTime:
		n := asInt64(v)
		switch {
		case t.Kind == dtype.Time:
			return time.Time{}.Add(time.Duration(n) * unitOf(t.Unit)).Format(timeFormat)
		case t.Unit == dtype.Day:
			return time.Unix(n*86400, 0).UTC().Format(dateFormat)
		default:
			return time.UnixMilli(n).UTC().Format(time.RFC3339Nano)
		}
	case dtype.Timestamp:
		n := asInt64(v)
		var tm time.Time
		switch t.Unit {
		case dtype.Second:
			tm = time.Unix(n, 0)
		case dtype.Millisecond:
			tm = time.UnixMilli(n)
		case dtype.Microsecond:
			tm = time.UnixMicro(n)
		default:
			tm = time.Unix(0, n)
		}
		loc := time.UTC
		if t.Zone != "" {
			if l, err := time.LoadLocation(t.Zone); err == nil {
				loc = l
			}
		}
		return tm.In(loc).Format(time.RFC3339Nano)
	case dtype.Dictionary:
		return Export(t.Value, v)
	case dtype.List:
		lst := v.([]interface{})
		out := make([]interface{}, len(lst))
		for i := range lst {
			out[i] = Export(t.Elem, lst[i])
		}
		return out
	case dtype.Struct:
		rec := v.(frame.Record)
		out := make(map[string]interface{}, len(rec))
		for i := range rec {
			out[t.Fields[i].Name] = Export(t.Fields[i].Type, rec[i])
		}
		return out
	}
	return v
}

func asInt64(v interface{}) int64 {
	switch v := v.(type) {
	case int32:
		return int64(v)
	case int64:
		return v
	}
	panic(fmt.Sprintf("rows: unexpected date/time value %T", v))
}
