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

var (
	assignTag = query.NewKeyTag()
	varTag    = query.NewKeyTag()
)

// Assign binds a name to the value of its inner expression in the
// evaluation context. A later assignment to the same name shadows the
// earlier one. Its purity, nullability and classification predicates are
// those of its inner expression; it is never trivial.
type Assign struct {
	span
	name  string
	inner query.Expression
}

func NewAssign(name string, inner query.Expression, start, end int) *Assign {
	return &Assign{span: span{start, end}, name: name, inner: inner}
}

func (a *Assign) Name() string            { return a.name }
func (a *Assign) Inner() query.Expression { return a.inner }

func (a *Assign) Type() query.Type { return a.inner.Type() }

func (a *Assign) String() string { return a.name + " = " + a.inner.String() }

func (a *Assign) AsType(t query.Type) (query.Expression, error) {
	if a.Type().Equals(t) {
		return a, nil
	}
	inner, err := a.inner.AsType(t)
	if err != nil {
		return nil, err
	}
	return NewAssign(a.name, inner, a.start, a.end), nil
}

func (a *Assign) Not(pos int) (query.Expression, error) {
	inner, err := a.inner.Not(pos)
	if err != nil {
		return nil, err
	}
	return NewAssign(a.name, inner, a.start, a.end), nil
}

func (a *Assign) Negate(pos int, widen bool) (query.Expression, error) {
	inner, err := a.inner.Negate(pos, widen)
	if err != nil {
		return nil, err
	}
	return NewAssign(a.name, inner, a.start, a.end), nil
}

func (a *Assign) SupportsLogicalNot() bool { return a.inner.SupportsLogicalNot() }

func (a *Assign) IsPure() bool     { return a.inner.IsPure() }
func (a *Assign) IsConstant() bool { return a.inner.IsConstant() }
func (a *Assign) IsNullable() bool { return a.inner.IsNullable() }
func (a *Assign) IsZero() bool     { return a.inner.IsZero() }
func (a *Assign) IsOne() bool      { return a.inner.IsOne() }
func (a *Assign) IsNull() bool     { return a.inner.IsNull() }
func (a *Assign) IsTrivial() bool  { return false }

func (a *Assign) IsOrderDependent() bool { return a.inner.IsOrderDependent() }
func (a *Assign) IsGrouping() bool       { return a.inner.IsGrouping() }
func (a *Assign) IsAccumulating() bool   { return a.inner.IsAccumulating() }
func (a *Assign) IsAggregating() bool    { return a.inner.IsAggregating() }
func (a *Assign) CanThrowRuntime() bool  { return a.inner.CanThrowRuntime() }

func (a *Assign) AsAggregate(groupColumns []string) (query.Expression, error) {
	inner, err := a.inner.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	if inner == a.inner {
		return a, nil
	}
	return NewAssign(a.name, inner, a.start, a.end), nil
}

func (a *Assign) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	inner, err := a.inner.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	if inner == a.inner {
		return a, nil
	}
	return NewAssign(a.name, inner, a.start, a.end), nil
}

func (a *Assign) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, a); ok {
		return r
	}
	inner := a.inner.Replace(m)
	if inner == a.inner {
		return a
	}
	return NewAssign(a.name, inner, a.start, a.end)
}

func (a *Assign) SourceColumn() *query.Column { return nil }
func (a *Assign) MaxArgument() int            { return a.inner.MaxArgument() }

func (a *Assign) GatherEvalColumns(collect func(*query.Column)) {
	a.inner.GatherEvalColumns(collect)
}

func (a *Assign) ToRowFilter(info *query.RowInfo, columns map[string]*query.Column) query.RowFilter {
	return opaque(a)
}

func (a *Assign) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(assignTag)
	enc.EncodeObject(a.name)
	a.inner.EncodeKey(enc)
}

func (a *Assign) Equals(other query.Expression) bool {
	o, ok := other.(*Assign)
	return ok && o.name == a.name && a.inner.Equals(o.inner)
}

func (a *Assign) Children() []query.Expression { return []query.Expression{a.inner} }

// Var reads a local previously bound by an Assign.
type Var struct {
	span
	assign *Assign
}

func NewVar(assign *Assign, start, end int) *Var {
	return &Var{span: span{start, end}, assign: assign}
}

func (v *Var) Assign() *Assign { return v.assign }

func (v *Var) Type() query.Type { return v.assign.Type() }

func (v *Var) String() string { return v.assign.Name() }

func (v *Var) AsType(t query.Type) (query.Expression, error) {
	if v.Type().Equals(t) {
		return v, nil
	}
	return NewConvert(v, t)
}

func (v *Var) Not(pos int) (query.Expression, error) {
	return newNotWrapper(v, pos)
}

func (v *Var) Negate(pos int, widen bool) (query.Expression, error) {
	return negateByZeroMinus(v, pos, widen)
}

func (v *Var) SupportsLogicalNot() bool { return false }

func (v *Var) IsPure() bool     { return v.assign.IsPure() }
func (v *Var) IsConstant() bool { return false }
func (v *Var) IsNullable() bool { return v.assign.IsNullable() }
func (v *Var) IsZero() bool     { return false }
func (v *Var) IsOne() bool      { return false }
func (v *Var) IsNull() bool     { return false }
func (v *Var) IsTrivial() bool  { return true }

func (v *Var) IsOrderDependent() bool { return v.assign.IsOrderDependent() }
func (v *Var) IsGrouping() bool       { return false }
func (v *Var) IsAccumulating() bool   { return false }
func (v *Var) IsAggregating() bool    { return false }
func (v *Var) CanThrowRuntime() bool  { return false }

// AsAggregate requires the backing assignment to already be aggregating:
// reading a per-row local inside an aggregate position would be ambiguous.
func (v *Var) AsAggregate([]string) (query.Expression, error) {
	if v.assign.IsAggregating() {
		return v, nil
	}
	return nil, query.WrapError(
		query.ErrAggregateContext.New(v.assign.Name()), v.start, v.end)
}

func (v *Var) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	if r, ok := reassignments[v.assign.Name()]; ok {
		return r, nil
	}
	return v, nil
}

func (v *Var) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, v); ok {
		return r
	}
	return v
}

func (v *Var) SourceColumn() *query.Column { return nil }
func (v *Var) MaxArgument() int            { return 0 }

func (v *Var) GatherEvalColumns(collect func(*query.Column)) {
	v.assign.GatherEvalColumns(collect)
}

func (v *Var) ToRowFilter(*query.RowInfo, map[string]*query.Column) query.RowFilter {
	return opaque(v)
}

func (v *Var) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(varTag)
	enc.EncodeObject(v.assign.Name())
	v.assign.EncodeKey(enc)
}

func (v *Var) Equals(other query.Expression) bool {
	o, ok := other.(*Var)
	return ok && v.assign.Equals(o.assign)
}

func (v *Var) Children() []query.Expression { return nil }
