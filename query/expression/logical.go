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
)

var logicalTag = query.NewKeyTag()

// LogicalOp is a short-circuiting boolean connective.
type LogicalOp byte

const (
	AndLogical LogicalOp = iota
	OrLogical
)

func (op LogicalOp) String() string {
	if op == AndLogical {
		return "&&"
	}
	return "||"
}

// Logical is a short-circuiting and/or over two boolean operands. The right
// operand only evaluates when the left does not decide the result.
type Logical struct {
	span
	op    LogicalOp
	left  query.Expression
	right query.Expression
}

// NewLogical coerces both operands to boolean and builds the node. Constant
// operands fold.
func NewLogical(op LogicalOp, left, right query.Expression) (query.Expression, error) {
	cl, err := toBoolean(left)
	if err != nil {
		return nil, err
	}
	cr, err := toBoolean(right)
	if err != nil {
		return nil, err
	}

	// Terminal folding mirrors the filter algebra identities.
	if c, ok := cl.(*Constant); ok {
		if b, ok := c.Value().(bool); ok {
			if (op == AndLogical) == b {
				return cr, nil
			}
			return c, nil
		}
	}
	if c, ok := cr.(*Constant); ok {
		if b, ok := c.Value().(bool); ok {
			if (op == AndLogical) == b {
				return cl, nil
			}
			return c, nil
		}
	}
	return &Logical{span: span{left.Start(), right.End()}, op: op, left: cl, right: cr}, nil
}

// toBoolean checks that an operand is boolean typed, converting dynamic
// operands.
func toBoolean(e query.Expression) (query.Expression, error) {
	t := e.Type()
	if isBooleanType(t) {
		return e, nil
	}
	converted, err := e.AsType(nullableBool)
	if err != nil {
		return nil, query.WrapError(query.ErrNotBoolean.New(t), e.Start(), e.End())
	}
	return converted, nil
}

func (l *Logical) Op() LogicalOp           { return l.op }
func (l *Logical) Left() query.Expression  { return l.left }
func (l *Logical) Right() query.Expression { return l.right }

func (l *Logical) Type() query.Type { return boolType(l.left, l.right) }

func (l *Logical) String() string {
	return "(" + l.left.String() + " " + l.op.String() + " " + l.right.String() + ")"
}

func (l *Logical) AsType(t query.Type) (query.Expression, error) {
	if l.Type().Equals(t) {
		return l, nil
	}
	return NewConvert(l, t)
}

// Not applies De Morgan when both operands support logical not.
func (l *Logical) Not(pos int) (query.Expression, error) {
	if !l.left.SupportsLogicalNot() || !l.right.SupportsLogicalNot() {
		return newNotWrapper(l, pos)
	}
	nl, err := l.left.Not(pos)
	if err != nil {
		return nil, err
	}
	nr, err := l.right.Not(pos)
	if err != nil {
		return nil, err
	}
	flipped := OrLogical
	if l.op == OrLogical {
		flipped = AndLogical
	}
	return NewLogical(flipped, nl, nr)
}

func (l *Logical) Negate(int, bool) (query.Expression, error) {
	return nil, query.WrapError(query.ErrNotNumeric.New(l.Type()), l.start, l.end)
}

func (l *Logical) SupportsLogicalNot() bool {
	return l.left.SupportsLogicalNot() && l.right.SupportsLogicalNot()
}

func (l *Logical) IsPure() bool     { return allPure(l.left, l.right) }
func (l *Logical) IsConstant() bool { return l.left.IsConstant() && l.right.IsConstant() }
func (l *Logical) IsNullable() bool { return l.Type().IsNullable() }
func (l *Logical) IsZero() bool     { return false }
func (l *Logical) IsOne() bool      { return false }
func (l *Logical) IsNull() bool     { return false }
func (l *Logical) IsTrivial() bool  { return false }

func (l *Logical) IsOrderDependent() bool { return anyOrderDependent(l.left, l.right) }
func (l *Logical) IsGrouping() bool       { return anyGrouping(l.left, l.right) }
func (l *Logical) IsAccumulating() bool   { return anyAccumulating(l.left, l.right) }
func (l *Logical) IsAggregating() bool    { return anyAggregating(l.left, l.right) }
func (l *Logical) CanThrowRuntime() bool  { return anyThrows(l.left, l.right) }

func (l *Logical) AsAggregate(groupColumns []string) (query.Expression, error) {
	a, err := l.left.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	b, err := l.right.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	if a == l.left && b == l.right {
		return l, nil
	}
	return NewLogical(l.op, a, b)
}

func (l *Logical) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	a, err := l.left.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	b, err := l.right.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	if a == l.left && b == l.right {
		return l, nil
	}
	return NewLogical(l.op, a, b)
}

func (l *Logical) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, l); ok {
		return r
	}
	a := l.left.Replace(m)
	b := l.right.Replace(m)
	if a == l.left && b == l.right {
		return l
	}
	n := *l
	n.left, n.right = a, b
	return &n
}

func (l *Logical) SourceColumn() *query.Column { return nil }
func (l *Logical) MaxArgument() int            { return maxArgument(l.left, l.right) }

func (l *Logical) GatherEvalColumns(collect func(*query.Column)) {
	gatherAll(collect, l.left, l.right)
}

func (l *Logical) ToRowFilter(info *query.RowInfo, columns map[string]*query.Column) query.RowFilter {
	a := l.left.ToRowFilter(info, columns)
	b := l.right.ToRowFilter(info, columns)
	if l.op == AndLogical {
		return a.And(b)
	}
	return a.Or(b)
}

func (l *Logical) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(logicalTag)
	enc.WriteU8(byte(l.op))
	l.left.EncodeKey(enc)
	l.right.EncodeKey(enc)
}

func (l *Logical) Equals(other query.Expression) bool {
	o, ok := other.(*Logical)
	return ok && o.op == l.op && l.left.Equals(o.left) && l.right.Equals(o.right)
}

func (l *Logical) Children() []query.Expression {
	return []query.Expression{l.left, l.right}
}
