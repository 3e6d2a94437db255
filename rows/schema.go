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
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/SnellerInc/ionframe/dtype"
	"github.com/SnellerInc/ionframe/frame"

	"sigs.k8s.io/yaml"
)

var (
	ErrNoColumns       = errors.New("schema has no columns")
	ErrUnnamedColumn   = errors.New("schema column has no name")
	ErrDuplicateColumn = errors.New("duplicate schema column")
)

// Schema describes the columns of a table.
// Schemas are read from YAML or JSON, e.g.
//
//	columns:
//	  - name: id
//	    type: int64
//	  - name: tags
//	    type: list<utf8>
type Schema struct {
	Columns []ColumnDef `json:"columns"`
}

// ColumnDef is one column of a Schema.
type ColumnDef struct {
	// Name is the column name.
	Name string `json:"name"`
	// Type is the text form of the
	// column type (see dtype.Parse).
	Type string `json:"type"`

	typ dtype.Type
}

func (c *ColumnDef) UnmarshalJSON(data []byte) error {
	type _columnDef ColumnDef
	if err := json.Unmarshal(data, (*_columnDef)(c)); err != nil {
		return err
	}
	if c.Name == "" {
		return ErrUnnamedColumn
	}
	t, err := dtype.Parse(c.Type)
	if err != nil {
		return fmt.Errorf("column %q: %w", c.Name, err)
	}
	c.typ = t
	return nil
}

// DType returns the parsed column type.
func (c *ColumnDef) DType() dtype.Type { return c.typ }

// Column returns the definition of
// the column called name, or nil.
func (s *Schema) Column(name string) *ColumnDef {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			return &s.Columns[i]
		}
	}
	return nil
}

func (s *Schema) check() error {
	if len(s.Columns) == 0 {
		return ErrNoColumns
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for i := range s.Columns {
		c := &s.Columns[i]
		if c.Name == "" {
			return ErrUnnamedColumn
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.typ == nil {
			t, err := dtype.Parse(c.Type)
			if err != nil {
				return fmt.Errorf("column %q: %w", c.Name, err)
			}
			c.typ = t
		}
	}
	return nil
}

// ParseSchema parses a YAML or JSON schema.
func ParseSchema(buf []byte) (*Schema, error) {
	s := new(Schema)
	if err := yaml.Unmarshal(buf, s); err != nil {
		return nil, fmt.Errorf("rows: parsing schema: %w", err)
	}
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return s, nil
}

// LoadSchema reads a schema file.
func LoadSchema(path string) (*Schema, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSchema(buf)
}

// NewSchema builds a schema from names and types.
func NewSchema(names []string, types []dtype.Type) (*Schema, error) {
	if len(names) != len(types) {
		return nil, fmt.Errorf("rows: %d names for %d types", len(names), len(types))
	}
	s := &Schema{Columns: make([]ColumnDef, len(names))}
	for i := range names {
		if types[i] == nil {
			return nil, fmt.Errorf("rows: column %q has no type", names[i])
		}
		s.Columns[i] = ColumnDef{Name: names[i], Type: types[i].String(), typ: types[i]}
	}
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return s, nil
}

// SchemaOf returns the schema of f.
func SchemaOf(f *frame.Frame) *Schema {
	s := &Schema{Columns: make([]ColumnDef, f.NumColumns())}
	for i := range s.Columns {
		name, c := f.At(i)
		s.Columns[i] = ColumnDef{Name: name, Type: c.Type.String(), typ: c.Type}
	}
	return s
}

// YAML returns the YAML form of s.
func (s *Schema) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
