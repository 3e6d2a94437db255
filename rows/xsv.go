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
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SnellerInc/ionframe/dtype"
)

// Chopper splits delimited text into records.
type Chopper interface {
	// Next returns the fields of the next
	// record, or io.EOF at the end of input.
	// The returned slice may be reused by
	// the next call.
	Next() ([]string, error)
}

// CSV returns a Chopper for RFC 4180 input.
// If sep is zero, fields are separated by commas.
func CSV(r io.Reader, sep rune) Chopper {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	if sep != 0 {
		cr.Comma = sep
	}
	return &csvChopper{cr: cr}
}

type csvChopper struct {
	cr *csv.Reader
}

func (c *csvChopper) Next() ([]string, error) { return c.cr.Read() }

// TSV returns a Chopper for tab-separated input.
// Records are single lines; the escapes \t, \n,
// \r and \\ are decoded within fields.
// Blank lines are skipped.
func TSV(r io.Reader) Chopper {
	return &tsvChopper{s: bufio.NewScanner(r)}
}

type tsvChopper struct {
	s      *bufio.Scanner
	fields []string
}

func (t *tsvChopper) Next() ([]string, error) {
	for t.s.Scan() {
		line := t.s.Text()
		if line == "" {
			continue
		}
		t.fields = t.fields[:0]
		for _, f := range strings.Split(line, "\t") {
			t.fields = append(t.fields, unescape(f))
		}
		return t.fields, nil
	}
	if err := t.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func unescape(f string) string {
	if strings.IndexByte(f, '\\') < 0 {
		return f
	}
	var b strings.Builder
	b.Grow(len(f))
	for i := 0; i < len(f); i++ {
		if f[i] == '\\' && i+1 < len(f) {
			if c := backslash(f[i+1]); c != 0 {
				b.WriteByte(c)
				i++
				continue
			}
		}
		b.WriteByte(f[i])
	}
	return b.String()
}

func backslash(c byte) byte {
	switch c {
	case '\\':
		return '\\'
	case 't':
		return '\t'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	}
	return 0
}

// ReadDelimited reads a table from the records
// produced by c. Fields map positionally onto
// the columns of s, and the first skip records
// (e.g. a header) are ignored. Empty fields are
// null; a record with more fields than s has
// columns is an error.
func ReadDelimited(c Chopper, s *Schema, skip int) (*Table, error) {
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	t := &Table{Schema: s}
	for n := 0; ; n++ {
		fields, err := c.Next()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, fmt.Errorf("rows: record %d: %w", n, err)
		}
		if n < skip {
			continue
		}
		if len(fields) > len(s.Columns) {
			return nil, fmt.Errorf("rows: record %d has %d fields; schema has %d columns", n, len(fields), len(s.Columns))
		}
		r := make(Row, len(fields))
		for i, f := range fields {
			if f == "" {
				continue
			}
			v, err := parseField(s.Columns[i].DType(), f)
			if err != nil {
				return nil, fmt.Errorf("rows: record %d: column %q: %w", n, s.Columns[i].Name, err)
			}
			r[s.Columns[i].Name] = v
		}
		t.Rows = append(t.Rows, r)
	}
}

// parseField converts the text of a field into
// a value accepted by Coerce. Lists and structs
// are written as JSON.
func parseField(t dtype.Type, f string) (interface{}, error) {
	switch t := t.(type) {
	case dtype.Bool:
		return strconv.ParseBool(f)
	case dtype.Int, dtype.Float:
		return json.Number(f), nil
	case dtype.DateTime, dtype.Timestamp:
		if _, err := strconv.ParseInt(f, 10, 64); err == nil {
			return json.Number(f), nil
		}
		return f, nil
	case dtype.Dictionary:
		return parseField(t.Value, f)
	case dtype.List, dtype.Struct:
		var v interface{}
		dec := json.NewDecoder(strings.NewReader(f))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return f, nil
}
