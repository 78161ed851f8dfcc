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
	"fmt"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/types"
)

var rangeTag = query.NewKeyTag()

// RangeValue is a constant inclusive range. Nil endpoints are open.
type RangeValue struct {
	Lo interface{}
	Hi interface{}
}

func (r RangeValue) String() string {
	s := ""
	if r.Lo != nil {
		s += fmt.Sprintf("%v", r.Lo)
	}
	s += ".."
	if r.Hi != nil {
		s += fmt.Sprintf("%v", r.Hi)
	}
	return s
}

func (r RangeValue) Equal(other RangeValue) bool {
	return r.Lo == other.Lo && r.Hi == other.Hi
}

// Contains tests membership using the element type's ordering.
func (r RangeValue) Contains(t query.Type, v interface{}) (bool, error) {
	if v == nil {
		return false, nil
	}
	if r.Lo != nil {
		cmp, err := t.Compare(v, r.Lo)
		if err != nil {
			return false, err
		}
		if cmp < 0 {
			return false, nil
		}
	}
	if r.Hi != nil {
		cmp, err := t.Compare(v, r.Hi)
		if err != nil {
			return false, err
		}
		if cmp > 0 {
			return false, nil
		}
	}
	return true, nil
}

// Range is an inclusive range expression with optional endpoints. A range
// over constant endpoints folds into a canonical range constant.
type Range struct {
	span
	lo      query.Expression
	hi      query.Expression
	element query.Type
}

// NewRange builds a range, folding constant endpoints.
func NewRange(lo, hi query.Expression, start, end int) (query.Expression, error) {
	element := query.Type(types.Any)
	switch {
	case lo != nil && hi != nil:
		common, err := types.CommonType(lo.Type(), hi.Type(), 0)
		if err != nil {
			return nil, query.WrapError(err, start, end)
		}
		element = common
	case lo != nil:
		element = lo.Type()
	case hi != nil:
		element = hi.Type()
	}

	loConst, loOk := constantOrNil(lo)
	hiConst, hiOk := constantOrNil(hi)
	if loOk && hiOk {
		var loV, hiV interface{}
		if loConst != nil {
			loV = loConst.Value()
		}
		if hiConst != nil {
			hiV = hiConst.Value()
		}
		return NewConstant(RangeValue{Lo: loV, Hi: hiV}, element, start, end), nil
	}
	return &Range{span: span{start, end}, lo: lo, hi: hi, element: element}, nil
}

func constantOrNil(e query.Expression) (*Constant, bool) {
	if e == nil {
		return nil, true
	}
	c, ok := e.(*Constant)
	return c, ok
}

func (r *Range) Lo() query.Expression { return r.lo }
func (r *Range) Hi() query.Expression { return r.hi }

// Type is the unified endpoint type; the range itself is only meaningful as
// the right operand of in.
func (r *Range) Type() query.Type { return r.element }

func (r *Range) String() string {
	s := ""
	if r.lo != nil {
		s += r.lo.String()
	}
	s += ".."
	if r.hi != nil {
		s += r.hi.String()
	}
	return s
}

func (r *Range) AsType(t query.Type) (query.Expression, error) {
	if r.element.Equals(t) {
		return r, nil
	}
	return nil, query.WrapError(
		query.ErrTypeMismatch.New("range", t.String()), r.start, r.end)
}

func (r *Range) Not(pos int) (query.Expression, error) {
	return nil, query.WrapError(query.ErrNotBoolean.New(r.element), r.start, r.end)
}

func (r *Range) Negate(int, bool) (query.Expression, error) {
	return nil, query.WrapError(query.ErrNotNumeric.New(r.element), r.start, r.end)
}

func (r *Range) SupportsLogicalNot() bool { return false }

func (r *Range) IsPure() bool     { return allPure(r.lo, r.hi) }
func (r *Range) IsConstant() bool { return false }
func (r *Range) IsNullable() bool { return false }
func (r *Range) IsZero() bool     { return false }
func (r *Range) IsOne() bool      { return false }
func (r *Range) IsNull() bool     { return false }
func (r *Range) IsTrivial() bool  { return false }

func (r *Range) IsOrderDependent() bool { return anyOrderDependent(r.lo, r.hi) }
func (r *Range) IsGrouping() bool       { return anyGrouping(r.lo, r.hi) }
func (r *Range) IsAccumulating() bool   { return anyAccumulating(r.lo, r.hi) }
func (r *Range) IsAggregating() bool    { return anyAggregating(r.lo, r.hi) }
func (r *Range) CanThrowRuntime() bool  { return anyThrows(r.lo, r.hi) }

func (r *Range) AsAggregate(groupColumns []string) (query.Expression, error) {
	lo, hi, changed, err := rebuildRange(r, groupColumns, nil, false)
	if err != nil {
		return nil, err
	}
	if !changed {
		return r, nil
	}
	return NewRange(lo, hi, r.start, r.end)
}

func (r *Range) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	lo, hi, changed, err := rebuildRange(r, nil, reassignments, true)
	if err != nil {
		return nil, err
	}
	if !changed {
		return r, nil
	}
	return NewRange(lo, hi, r.start, r.end)
}

func rebuildRange(r *Range, groupColumns []string, reassignments map[string]query.Expression, window bool) (lo, hi query.Expression, changed bool, err error) {
	apply := func(e query.Expression) (query.Expression, error) {
		if e == nil {
			return nil, nil
		}
		if window {
			return e.AsWindow(reassignments)
		}
		return e.AsAggregate(groupColumns)
	}
	lo, err = apply(r.lo)
	if err != nil {
		return nil, nil, false, err
	}
	hi, err = apply(r.hi)
	if err != nil {
		return nil, nil, false, err
	}
	return lo, hi, lo != r.lo || hi != r.hi, nil
}

func (r *Range) Replace(m map[query.Expression]query.Expression) query.Expression {
	if n, ok := replaced(m, r); ok {
		return n
	}
	var lo, hi query.Expression
	if r.lo != nil {
		lo = r.lo.Replace(m)
	}
	if r.hi != nil {
		hi = r.hi.Replace(m)
	}
	if lo == r.lo && hi == r.hi {
		return r
	}
	n, err := NewRange(lo, hi, r.start, r.end)
	if err != nil {
		return r
	}
	return n
}

func (r *Range) SourceColumn() *query.Column { return nil }
func (r *Range) MaxArgument() int            { return maxArgument(r.lo, r.hi) }

func (r *Range) GatherEvalColumns(collect func(*query.Column)) {
	gatherAll(collect, r.lo, r.hi)
}

func (r *Range) ToRowFilter(*query.RowInfo, map[string]*query.Column) query.RowFilter {
	return opaque(r)
}

func (r *Range) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(rangeTag)
	enc.WriteBool(r.lo != nil)
	if r.lo != nil {
		r.lo.EncodeKey(enc)
	}
	enc.WriteBool(r.hi != nil)
	if r.hi != nil {
		r.hi.EncodeKey(enc)
	}
}

func (r *Range) Equals(other query.Expression) bool {
	o, ok := other.(*Range)
	if !ok {
		return false
	}
	return exprEqual(r.lo, o.lo) && exprEqual(r.hi, o.hi)
}

func exprEqual(a, b query.Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

func (r *Range) Children() []query.Expression {
	var children []query.Expression
	if r.lo != nil {
		children = append(children, r.lo)
	}
	if r.hi != nil {
		children = append(children, r.hi)
	}
	return children
}
