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

package expression

import (
	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/types"
)

var columnRefTag = query.NewKeyTag()

// ColumnRef reads a column of the source row by dotted path. The resolved
// column already carries path nullability: a read through a nullable
// intermediate row is itself nullable.
type ColumnRef struct {
	span
	rowType query.Type
	col     *query.Column
}

// NewColumnRef resolves path against the row type and builds the reference.
func NewColumnRef(rowType *types.TupleType, path string, start, end int) (*ColumnRef, error) {
	col, err := rowType.Column(path)
	if err != nil {
		return nil, query.WrapError(err, start, end)
	}
	return &ColumnRef{span: span{start, end}, rowType: rowType, col: col}, nil
}

// NewColumnRefFor builds a reference over an already resolved column.
func NewColumnRefFor(rowType query.Type, col *query.Column, start, end int) *ColumnRef {
	return &ColumnRef{span: span{start, end}, rowType: rowType, col: col}
}

func (c *ColumnRef) Column() *query.Column { return c.col }
func (c *ColumnRef) RowType() query.Type   { return c.rowType }

func (c *ColumnRef) Type() query.Type { return c.col.Type }

func (c *ColumnRef) String() string { return c.col.Name }

func (c *ColumnRef) AsType(t query.Type) (query.Expression, error) {
	if c.col.Type.Equals(t) {
		return c, nil
	}
	return NewConvert(c, t)
}

func (c *ColumnRef) Not(pos int) (query.Expression, error) {
	if bt, ok := c.col.Type.(*types.BasicType); ok && bt.Class() == types.BoolClass {
		return newNotWrapper(c, pos)
	}
	return nil, query.WrapError(query.ErrNotBoolean.New(c.col.Type), c.start, c.end)
}

func (c *ColumnRef) Negate(pos int, widen bool) (query.Expression, error) {
	return negateByZeroMinus(c, pos, widen)
}

func (c *ColumnRef) SupportsLogicalNot() bool { return false }

func (c *ColumnRef) IsPure() bool     { return true }
func (c *ColumnRef) IsConstant() bool { return false }
func (c *ColumnRef) IsNullable() bool { return c.col.Type.IsNullable() }
func (c *ColumnRef) IsZero() bool     { return false }
func (c *ColumnRef) IsOne() bool      { return false }
func (c *ColumnRef) IsNull() bool     { return false }
func (c *ColumnRef) IsTrivial() bool  { return true }

func (c *ColumnRef) IsOrderDependent() bool { return false }
func (c *ColumnRef) IsGrouping() bool       { return false }
func (c *ColumnRef) IsAccumulating() bool   { return false }
func (c *ColumnRef) IsAggregating() bool    { return false }
func (c *ColumnRef) CanThrowRuntime() bool  { return false }

// AsAggregate admits a plain column only when it is one of the grouping
// columns.
func (c *ColumnRef) AsAggregate(groupColumns []string) (query.Expression, error) {
	for _, g := range groupColumns {
		if g == c.col.Name {
			return c, nil
		}
	}
	return nil, query.WrapError(
		query.ErrAggregateContext.New(c.col.Name), c.start, c.end)
}

func (c *ColumnRef) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	if r, ok := reassignments[c.col.Name]; ok {
		return r, nil
	}
	return c, nil
}

func (c *ColumnRef) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, c); ok {
		return r
	}
	return c
}

func (c *ColumnRef) SourceColumn() *query.Column { return c.col }
func (c *ColumnRef) MaxArgument() int            { return 0 }

func (c *ColumnRef) GatherEvalColumns(collect func(*query.Column)) {
	collect(c.col)
}

func (c *ColumnRef) ToRowFilter(info *query.RowInfo, columns map[string]*query.Column) query.RowFilter {
	// A bare boolean column lowers as col == true.
	if bt, ok := c.col.Type.(*types.BasicType); ok && bt.Class() == types.BoolClass {
		if resolved := resolveFilterColumn(c, info, columns); resolved != nil {
			return query.NewColumnToConstant(resolved, query.OpEq, true, types.Bool)
		}
	}
	return opaque(c)
}

func (c *ColumnRef) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(columnRefTag)
	enc.EncodeObject(c.col.Name)
	c.col.Type.EncodeKey(enc)
}

func (c *ColumnRef) Equals(other query.Expression) bool {
	o, ok := other.(*ColumnRef)
	return ok && o.col.Name == c.col.Name && o.col.Type.Equals(c.col.Type)
}

func (c *ColumnRef) Children() []query.Expression { return nil }

// resolveFilterColumn checks that a column reference is addressable in the
// filter's row schema and records it in the out set.
func resolveFilterColumn(c *ColumnRef, info *query.RowInfo, columns map[string]*query.Column) *query.Column {
	if info == nil {
		return nil
	}
	col := info.Column(c.col.Name)
	if col == nil {
		return nil
	}
	if columns != nil {
		columns[col.Name] = col
	}
	return col
}
