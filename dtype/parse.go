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
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError is returned from Parse
// when the input is not a valid type.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (s *SyntaxError) Error() string {
	return fmt.Sprintf("dtype: parsing %q at offset %d: %s", s.Input, s.Pos, s.Msg)
}

// Parse parses the text form of a type,
// as produced by Type.String. For example:
//
//	int32
//	timestamp[ms, UTC]
//	list<struct<a: int32, "b c": utf8>>
//	factor<int8, utf8>
//	opaque(7)
//
// The returned type has been checked with Check.
func Parse(s string) (Type, error) {
	p := &parser{in: s}
	t, err := p.typ()
	if err != nil {
		return nil, err
	}
	p.space()
	if p.pos != len(p.in) {
		return nil, p.errorf("unexpected trailing input")
	}
	if err := Check(t); err != nil {
		return nil, &SyntaxError{Input: s, Pos: 0, Msg: err.Error()}
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	in  string
	pos int
}

func (p *parser) errorf(f string, args ...interface{}) error {
	return &SyntaxError{Input: p.in, Pos: p.pos, Msg: fmt.Sprintf(f, args...)}
}

func (p *parser) space() {
	for p.pos < len(p.in) && strings.IndexByte(" \t\r\n", p.in[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.space()
	if p.pos >= len(p.in) {
		return 0
	}
	return p.in[p.pos]
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func isword(c byte) bool {
	return c == '_' || c == '-' || c == '/' || c == '+' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func (p *parser) word() string {
	p.space()
	start := p.pos
	for p.pos < len(p.in) && isword(p.in[p.pos]) {
		p.pos++
	}
	return p.in[start:p.pos]
}

// name parses a bare word or a quoted string
func (p *parser) name() (string, error) {
	if p.peek() != '"' {
		w := p.word()
		if w == "" {
			return "", p.errorf("expected a name")
		}
		return w, nil
	}
	start := p.pos
	for i := start + 1; i < len(p.in); i++ {
		switch p.in[i] {
		case '\\':
			i++
		case '"':
			s, err := strconv.Unquote(p.in[start : i+1])
			if err != nil {
				return "", p.errorf("bad quoted name: %s", err)
			}
			p.pos = i + 1
			return s, nil
		}
	}
	return "", p.errorf("unterminated quoted name")
}

func (p *parser) typ() (Type, error) {
	start := p.pos
	w := p.word()
	switch w {
	case "":
		return nil, p.errorf("expected a type")
	case "list":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		elem, err := p.typ()
		if err != nil {
			return nil, err
		}
		return List{Elem: elem}, p.expect('>')
	case "ordered", "factor":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		idx, err := p.typ()
		if err != nil {
			return nil, err
		}
		it, ok := idx.(Int)
		if !ok {
			return nil, p.errorf("dictionary index %s is not an integer", idx)
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		val, err := p.typ()
		if err != nil {
			return nil, err
		}
		return Dictionary{Index: it, Value: val, Ordered: w == "ordered"}, p.expect('>')
	case "struct":
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		var st Struct
		for {
			name, err := p.name()
			if err != nil {
				return nil, err
			}
			if err := p.expect(':'); err != nil {
				return nil, err
			}
			ft, err := p.typ()
			if err != nil {
				return nil, err
			}
			st.Fields = append(st.Fields, Field{Name: name, Type: ft})
			if p.peek() != ',' {
				break
			}
			p.pos++
		}
		return st, p.expect('>')
	case "opaque":
		if err := p.expect('('); err != nil {
			return nil, err
		}
		num := p.word()
		sub, err := strconv.ParseInt(num, 10, 32)
		if err != nil {
			return nil, p.errorf("bad opaque subtype %q", num)
		}
		return Opaque{Subtype: int32(sub)}, p.expect(')')
	case "date", "time", "timestamp":
		if err := p.expect('['); err != nil {
			return nil, err
		}
		unit := p.word()
		u, ok := unitOf(unit)
		if !ok {
			return nil, p.errorf("unknown unit %q", unit)
		}
		zone := ""
		if w == "timestamp" && p.peek() == ',' {
			p.pos++
			z, err := p.name()
			if err != nil {
				return nil, err
			}
			zone = z
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		if w == "timestamp" {
			return Timestamp{Unit: u, Zone: zone}, nil
		}
		kind := Date
		if w == "time" {
			kind = Time
		}
		return DateTime{Kind: kind, Unit: u}, nil
	}
	t, ok := FromTag(w)
	if !ok {
		p.pos = start
		return nil, p.errorf("unknown type %q", w)
	}
	return t, nil
}

// quoteName quotes name unless it
// can be read back as a bare word.
func quoteName(name string) string {
	if name == "" {
		return `""`
	}
	for i := 0; i < len(name); i++ {
		if !isword(name[i]) {
			return strconv.Quote(name)
		}
	}
	return name
}
