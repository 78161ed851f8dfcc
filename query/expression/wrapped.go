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

// Wrapped is a parenthesized expression: it keeps the wider source span and
// otherwise behaves as its inner expression, including source-column
// propagation.
type Wrapped struct {
	span
	inner query.Expression
}

func NewWrapped(inner query.Expression, start, end int) *Wrapped {
	return &Wrapped{span: span{start, end}, inner: inner}
}

func (w *Wrapped) Inner() query.Expression { return w.inner }

func (w *Wrapped) Type() query.Type { return w.inner.Type() }

func (w *Wrapped) String() string { return "(" + w.inner.String() + ")" }

func (w *Wrapped) AsType(t query.Type) (query.Expression, error) {
	if w.Type().Equals(t) {
		return w, nil
	}
	return w.inner.AsType(t)
}

func (w *Wrapped) Not(pos int) (query.Expression, error) { return w.inner.Not(pos) }

func (w *Wrapped) Negate(pos int, widen bool) (query.Expression, error) {
	return w.inner.Negate(pos, widen)
}

func (w *Wrapped) SupportsLogicalNot() bool { return w.inner.SupportsLogicalNot() }

func (w *Wrapped) IsPure() bool     { return w.inner.IsPure() }
func (w *Wrapped) IsConstant() bool { return w.inner.IsConstant() }
func (w *Wrapped) IsNullable() bool { return w.inner.IsNullable() }
func (w *Wrapped) IsZero() bool     { return w.inner.IsZero() }
func (w *Wrapped) IsOne() bool      { return w.inner.IsOne() }
func (w *Wrapped) IsNull() bool     { return w.inner.IsNull() }
func (w *Wrapped) IsTrivial() bool  { return w.inner.IsTrivial() }

func (w *Wrapped) IsOrderDependent() bool { return w.inner.IsOrderDependent() }
func (w *Wrapped) IsGrouping() bool       { return w.inner.IsGrouping() }
func (w *Wrapped) IsAccumulating() bool   { return w.inner.IsAccumulating() }
func (w *Wrapped) IsAggregating() bool    { return w.inner.IsAggregating() }
func (w *Wrapped) CanThrowRuntime() bool  { return w.inner.CanThrowRuntime() }

func (w *Wrapped) AsAggregate(groupColumns []string) (query.Expression, error) {
	inner, err := w.inner.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	if inner == w.inner {
		return w, nil
	}
	return NewWrapped(inner, w.start, w.end), nil
}

func (w *Wrapped) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	inner, err := w.inner.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	if inner == w.inner {
		return w, nil
	}
	return NewWrapped(inner, w.start, w.end), nil
}

func (w *Wrapped) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, w); ok {
		return r
	}
	inner := w.inner.Replace(m)
	if inner == w.inner {
		return w
	}
	return NewWrapped(inner, w.start, w.end)
}

func (w *Wrapped) SourceColumn() *query.Column { return w.inner.SourceColumn() }
func (w *Wrapped) MaxArgument() int            { return w.inner.MaxArgument() }

func (w *Wrapped) GatherEvalColumns(collect func(*query.Column)) {
	w.inner.GatherEvalColumns(collect)
}

func (w *Wrapped) ToRowFilter(info *query.RowInfo, columns map[string]*query.Column) query.RowFilter {
	return w.inner.ToRowFilter(info, columns)
}

func (w *Wrapped) EncodeKey(enc *query.KeyEncoder) {
	// Parentheses are not semantic; encode as the inner expression.
	w.inner.EncodeKey(enc)
}

func (w *Wrapped) Equals(other query.Expression) bool {
	if o, ok := other.(*Wrapped); ok {
		return w.inner.Equals(o.inner)
	}
	return w.inner.Equals(other)
}

func (w *Wrapped) Children() []query.Expression { return []query.Expression{w.inner} }
