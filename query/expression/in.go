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

var inTag = query.NewKeyTag()

// In tests membership of the left operand in the right operand, which is
// coerced to an array of values at evaluation time.
type In struct {
	span
	left    query.Expression
	right   query.Expression
	negated bool
}

func NewIn(left, right query.Expression, start, end int) *In {
	return &In{span: span{start, end}, left: left, right: right}
}

func (i *In) Left() query.Expression  { return i.left }
func (i *In) Right() query.Expression { return i.right }
func (i *In) Negated() bool           { return i.negated }

func (i *In) Type() query.Type { return boolType(i.left, i.right) }

func (i *In) String() string {
	s := i.left.String() + " in " + i.right.String()
	if i.negated {
		return "!(" + s + ")"
	}
	return s
}

func (i *In) AsType(t query.Type) (query.Expression, error) {
	if i.Type().Equals(t) {
		return i, nil
	}
	return NewConvert(i, t)
}

func (i *In) Not(pos int) (query.Expression, error) {
	n := *i
	n.negated = !i.negated
	return &n, nil
}

func (i *In) Negate(int, bool) (query.Expression, error) {
	return nil, query.WrapError(query.ErrNotNumeric.New(i.Type()), i.start, i.end)
}

func (i *In) SupportsLogicalNot() bool { return true }

func (i *In) IsPure() bool     { return allPure(i.left, i.right) }
func (i *In) IsConstant() bool { return i.left.IsConstant() && i.right.IsConstant() }
func (i *In) IsNullable() bool { return i.Type().IsNullable() }
func (i *In) IsZero() bool     { return false }
func (i *In) IsOne() bool      { return false }
func (i *In) IsNull() bool     { return false }
func (i *In) IsTrivial() bool  { return false }

func (i *In) IsOrderDependent() bool { return anyOrderDependent(i.left, i.right) }
func (i *In) IsGrouping() bool       { return anyGrouping(i.left, i.right) }
func (i *In) IsAccumulating() bool   { return anyAccumulating(i.left, i.right) }
func (i *In) IsAggregating() bool    { return anyAggregating(i.left, i.right) }

// CanThrowRuntime holds: the right operand's coercion to an array can fail.
func (i *In) CanThrowRuntime() bool { return true }

func (i *In) AsAggregate(groupColumns []string) (query.Expression, error) {
	l, err := i.left.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	r, err := i.right.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	if l == i.left && r == i.right {
		return i, nil
	}
	n := *i
	n.left, n.right = l, r
	return &n, nil
}

func (i *In) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	l, err := i.left.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	r, err := i.right.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	if l == i.left && r == i.right {
		return i, nil
	}
	n := *i
	n.left, n.right = l, r
	return &n, nil
}

func (i *In) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, i); ok {
		return r
	}
	l := i.left.Replace(m)
	r := i.right.Replace(m)
	if l == i.left && r == i.right {
		return i
	}
	n := *i
	n.left, n.right = l, r
	return &n
}

func (i *In) SourceColumn() *query.Column { return nil }
func (i *In) MaxArgument() int            { return maxArgument(i.left, i.right) }

func (i *In) GatherEvalColumns(collect func(*query.Column)) {
	gatherAll(collect, i.left, i.right)
}

func (i *In) ToRowFilter(info *query.RowInfo, columns map[string]*query.Column) query.RowFilter {
	lref := underlyingColumnRef(i.left)
	if lref != nil {
		if col := resolveFilterColumn(lref, info, columns); col != nil {
			if p, ok := i.right.(*Param); ok {
				f := query.NewIn(col, p.Ordinal())
				if i.negated {
					return f.Not()
				}
				return f
			}
		}
	}
	return opaque(i)
}

func (i *In) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(inTag)
	enc.WriteBool(i.negated)
	i.left.EncodeKey(enc)
	i.right.EncodeKey(enc)
}

// Equals compares both sides and both negation flags.
func (i *In) Equals(other query.Expression) bool {
	o, ok := other.(*In)
	return ok && i.negated == o.negated && i.left.Equals(o.left) && i.right.Equals(o.right)
}

func (i *In) Children() []query.Expression {
	return []query.Expression{i.left, i.right}
}
