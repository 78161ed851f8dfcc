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

var comparisonTag = query.NewKeyTag()

// Comparison is a relational operator over two operands unified by the
// lenient common-type rules. Operands keep their original shape; the common
// type drives evaluation.
type Comparison struct {
	span
	op     query.CompareOp
	left   query.Expression
	right  query.Expression
	common query.Type
}

// NewComparison unifies the operand types and builds the node.
func NewComparison(op query.CompareOp, left, right query.Expression) (query.Expression, error) {
	common, err := types.CommonType(left.Type(), right.Type(), int(op))
	if err != nil {
		return nil, query.WrapError(err, left.Start(), right.End())
	}
	cl, err := coerceOperand(left, common)
	if err != nil {
		return nil, err
	}
	cr, err := coerceOperand(right, common)
	if err != nil {
		return nil, err
	}
	return &Comparison{
		span:   span{left.Start(), right.End()},
		op:     op,
		left:   cl,
		right:  cr,
		common: common,
	}, nil
}

// coerceOperand converts an operand toward the common type without
// disturbing the shapes the filter lowering matches on. Literal and
// argument nodes rebind in place; a column that differs from the common
// type only in flags is left alone.
func coerceOperand(e query.Expression, common query.Type) (query.Expression, error) {
	if e.Type().Equals(common) {
		return e, nil
	}
	switch e.(type) {
	case *Constant, *Param:
		return e.AsType(common)
	}
	eb, eok := e.Type().(*types.BasicType)
	cb, cok := common.(*types.BasicType)
	if eok && cok && eb.Class() == cb.Class() {
		return e, nil
	}
	return e.AsType(common)
}

func (c *Comparison) Op() query.CompareOp     { return c.op }
func (c *Comparison) Left() query.Expression  { return c.left }
func (c *Comparison) Right() query.Expression { return c.right }

// CommonType returns the unified operand type the comparison evaluates
// under.
func (c *Comparison) CommonType() query.Type { return c.common }

func (c *Comparison) Type() query.Type { return boolType(c.left, c.right) }

func (c *Comparison) String() string {
	return c.left.String() + " " + c.op.String() + " " + c.right.String()
}

func (c *Comparison) AsType(t query.Type) (query.Expression, error) {
	if c.Type().Equals(t) {
		return c, nil
	}
	return NewConvert(c, t)
}

// Not flips to the complementary operator.
func (c *Comparison) Not(pos int) (query.Expression, error) {
	n := *c
	n.op = c.op.Complement()
	return &n, nil
}

func (c *Comparison) Negate(int, bool) (query.Expression, error) {
	return nil, query.WrapError(query.ErrNotNumeric.New(c.Type()), c.start, c.end)
}

func (c *Comparison) SupportsLogicalNot() bool { return true }

func (c *Comparison) IsPure() bool     { return allPure(c.left, c.right) }
func (c *Comparison) IsConstant() bool { return c.left.IsConstant() && c.right.IsConstant() }
func (c *Comparison) IsNullable() bool { return c.Type().IsNullable() }
func (c *Comparison) IsZero() bool     { return false }
func (c *Comparison) IsOne() bool      { return false }
func (c *Comparison) IsNull() bool     { return false }
func (c *Comparison) IsTrivial() bool  { return false }

func (c *Comparison) IsOrderDependent() bool { return anyOrderDependent(c.left, c.right) }
func (c *Comparison) IsGrouping() bool       { return anyGrouping(c.left, c.right) }
func (c *Comparison) IsAccumulating() bool   { return anyAccumulating(c.left, c.right) }
func (c *Comparison) IsAggregating() bool    { return anyAggregating(c.left, c.right) }
func (c *Comparison) CanThrowRuntime() bool  { return anyThrows(c.left, c.right) }

func (c *Comparison) AsAggregate(groupColumns []string) (query.Expression, error) {
	l, err := c.left.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	r, err := c.right.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	if l == c.left && r == c.right {
		return c, nil
	}
	return NewComparison(c.op, l, r)
}

func (c *Comparison) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	l, err := c.left.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	r, err := c.right.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	if l == c.left && r == c.right {
		return c, nil
	}
	return NewComparison(c.op, l, r)
}

func (c *Comparison) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, c); ok {
		return r
	}
	l := c.left.Replace(m)
	r := c.right.Replace(m)
	if l == c.left && r == c.right {
		return c
	}
	n := *c
	n.left, n.right = l, r
	return &n
}

func (c *Comparison) SourceColumn() *query.Column { return nil }
func (c *Comparison) MaxArgument() int            { return maxArgument(c.left, c.right) }

func (c *Comparison) GatherEvalColumns(collect func(*query.Column)) {
	gatherAll(collect, c.left, c.right)
}

// ToRowFilter matches the column-to-something shapes of the filter algebra,
// reversing the operator when the column sits on the right.
func (c *Comparison) ToRowFilter(info *query.RowInfo, columns map[string]*query.Column) query.RowFilter {
	if f := lowerComparison(c.left, c.op, c.right, info, columns); f != nil {
		return f
	}
	if f := lowerComparison(c.right, c.op.Reverse(), c.left, info, columns); f != nil {
		return f
	}
	return opaque(c)
}

func lowerComparison(left query.Expression, op query.CompareOp, right query.Expression, info *query.RowInfo, columns map[string]*query.Column) query.RowFilter {
	lref := underlyingColumnRef(left)
	if lref == nil {
		return nil
	}
	col := resolveFilterColumn(lref, info, columns)
	if col == nil {
		return nil
	}
	switch r := right.(type) {
	case *ColumnRef:
		if rc := resolveFilterColumn(r, info, columns); rc != nil {
			return query.NewColumnToColumn(col, op, rc)
		}
	case *Param:
		return query.NewColumnToArg(col, op, r.Ordinal())
	case *Constant:
		return query.NewColumnToConstant(col, op, r.Value(), r.Type())
	}
	return nil
}

// underlyingColumnRef looks through trivial wrappers to the column read.
func underlyingColumnRef(e query.Expression) *ColumnRef {
	for {
		switch n := e.(type) {
		case *ColumnRef:
			return n
		case *Wrapped:
			e = n.Inner()
		default:
			return nil
		}
	}
}

func (c *Comparison) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(comparisonTag)
	enc.WriteU8(byte(c.op))
	c.left.EncodeKey(enc)
	c.right.EncodeKey(enc)
}

func (c *Comparison) Equals(other query.Expression) bool {
	o, ok := other.(*Comparison)
	return ok && o.op == c.op && c.left.Equals(o.left) && c.right.Equals(o.right)
}

func (c *Comparison) Children() []query.Expression {
	return []query.Expression{c.left, c.right}
}

// newNotWrapper expresses logical not over an operand that has no direct
// complement by comparing it against false.
func newNotWrapper(e query.Expression, pos int) (query.Expression, error) {
	f := NewBoolConstant(false, e.End(), e.End())
	return NewComparison(query.OpEq, e, f)
}
