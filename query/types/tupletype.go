// Copyright 2025 Rowkit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mitchellh/hashstructure"

	"github.com/rowkit/go-tuple-query/internal/similartext"
	"github.com/rowkit/go-tuple-query/query"
)

var tupleTypeTag = query.NewKeyTag()

// TupleType is a row schema: an ordered set of named, typed columns, some of
// which may be hidden from the default projection. A column whose type is
// itself a TupleType is a nested or joined row, addressable by dotted path.
type TupleType struct {
	rowClass   string
	columns    query.Schema
	index      map[string]*query.Column
	projection []string
	nullable   bool
}

// NewTupleType builds a tuple type over the given columns.
func NewTupleType(rowClass string, columns query.Schema) *TupleType {
	index := make(map[string]*query.Column, len(columns))
	for _, c := range columns {
		index[c.Name] = c
	}
	return &TupleType{rowClass: rowClass, columns: columns, index: index}
}

// RowClass returns the name of the backing row class.
func (t *TupleType) RowClass() string { return t.rowClass }

// Columns returns the full ordered column set, hidden columns included.
func (t *TupleType) Columns() query.Schema { return t.columns }

// Projection returns the projected column names, or nil for the full set.
func (t *TupleType) Projection() []string { return t.projection }

func (t *TupleType) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, c := range t.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", c.Name, c.Type)
	}
	b.WriteString("}")
	if t.nullable {
		b.WriteString("?")
	}
	return b.String()
}

func (t *TupleType) Nullable() query.Type {
	if t.nullable {
		return t
	}
	nt := *t
	nt.nullable = true
	return &nt
}

func (t *TupleType) IsNullable() bool { return t.nullable }

func (t *TupleType) Equals(other query.Type) bool {
	o, ok := other.(*TupleType)
	if !ok || o.nullable != t.nullable || len(o.columns) != len(t.columns) {
		return false
	}
	for i, c := range t.columns {
		oc := o.columns[i]
		if c.Name != oc.Name || c.Hidden != oc.Hidden || !c.Type.Equals(oc.Type) {
			return false
		}
	}
	return true
}

func (t *TupleType) EncodeKey(enc *query.KeyEncoder) {
	if !enc.BeginEntity(t, tupleTypeTag) {
		return
	}
	enc.WriteBool(t.nullable)
	enc.EncodeObject(t.rowClass)
	enc.WriteLength(len(t.columns), false)
	for _, c := range t.columns {
		enc.EncodeObject(c.Name)
		enc.WriteBool(c.Hidden)
		c.Type.EncodeKey(enc)
	}
}

// Convert checks that v is a row of matching arity and converts each column
// value.
func (t *TupleType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		if t.nullable {
			return nil, nil
		}
		return nil, query.ErrTypeMismatch.New("null", t.String())
	}
	var row query.Row
	switch v := v.(type) {
	case query.Row:
		row = v
	case []interface{}:
		row = v
	default:
		return nil, query.ErrNotTuple.New(fmt.Sprintf("%T", v))
	}
	if len(row) != len(t.columns) {
		return nil, query.ErrInvalidColumnNumber.New(len(row), len(t.columns))
	}
	out := make(query.Row, len(row))
	for i, c := range t.columns {
		cv, err := c.Type.Convert(row[i])
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

// Compare orders two rows column by column.
func (t *TupleType) Compare(a, b interface{}) (int, error) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, nil
		case a == nil:
			return 1, nil
		default:
			return -1, nil
		}
	}
	ra, err := t.Convert(a)
	if err != nil {
		return 0, err
	}
	rb, err := t.Convert(b)
	if err != nil {
		return 0, err
	}
	rowA, rowB := ra.(query.Row), rb.(query.Row)
	for i, c := range t.columns {
		cmp, err := c.Type.Compare(rowA[i], rowB[i])
		if err != nil {
			return 0, err
		}
		if cmp != 0 {
			return cmp, nil
		}
	}
	return 0, nil
}

// Column resolves a possibly dotted path. Each nested step marks the result
// nullable if any column along the path is nullable.
func (t *TupleType) Column(path string) (*query.Column, error) {
	names := strings.Split(path, ".")
	cur := t
	nullable := false
	var col *query.Column
	for i, name := range names {
		col = cur.index[name]
		if col == nil {
			return nil, query.ErrColumnNotFound.New(path, suggestColumn(cur.columns, name))
		}
		nullable = nullable || col.Type.IsNullable()
		if i < len(names)-1 {
			next, ok := col.Type.(*TupleType)
			if !ok {
				return nil, query.ErrColumnNotFound.New(path, "")
			}
			cur = next
		}
	}
	resolved := *col
	resolved.Name = path
	if nullable && !col.Type.IsNullable() {
		resolved.Type = col.Type.Nullable()
	}
	return &resolved, nil
}

// WithProjection returns a subset tuple containing exactly the named
// columns, in the given order.
func (t *TupleType) WithProjection(names []string) (*TupleType, error) {
	seen := make(map[string]bool, len(names))
	cols := make(query.Schema, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, query.ErrDuplicateColumn.New(name)
		}
		seen[name] = true
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	nt := NewTupleType(t.rowClass, cols)
	nt.projection = names
	nt.nullable = t.nullable
	return nt, nil
}

// IsFullProjection reports whether names cover every non-hidden column
// exactly once, in any order.
func (t *TupleType) IsFullProjection(names []string) bool {
	visible := 0
	for _, c := range t.columns {
		if !c.Hidden {
			visible++
		}
	}
	if len(names) != visible {
		return false
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		c := t.index[name]
		if c == nil || c.Hidden || seen[name] {
			return false
		}
		seen[name] = true
	}
	return true
}

var (
	madeMu    sync.Mutex
	madeTuple = map[uint64]*TupleType{}
)

// MakeTupleType synthesizes a row type for a fresh column set, deduplicated
// by the (name, type) signature so repeated plans share one row class.
func MakeTupleType(columns query.Schema) (*TupleType, error) {
	sig := make([][2]string, len(columns))
	for i, c := range columns {
		sig[i] = [2]string{c.Name, c.Type.String()}
	}
	h, err := hashstructure.Hash(sig, nil)
	if err != nil {
		return nil, err
	}

	madeMu.Lock()
	defer madeMu.Unlock()
	if t, ok := madeTuple[h]; ok {
		return t, nil
	}
	t := NewTupleType("row$"+uuid.NewString(), columns)
	madeTuple[h] = t
	return t, nil
}

func suggestColumn(cols query.Schema, name string) string {
	return similartext.Find(cols.Names(), name)
}
