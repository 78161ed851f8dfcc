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

var convertTag = query.NewKeyTag()

// Convert coerces its operand to a target type. A widening conversion never
// fails; a narrowing one throws at run time when the value does not fit.
type Convert struct {
	span
	inner  query.Expression
	target query.Type
	lossy  bool
}

// NewConvert builds a conversion node, classifying it as widening or
// narrowing.
func NewConvert(inner query.Expression, target query.Type) (query.Expression, error) {
	if inner.Type().Equals(target) {
		return inner, nil
	}
	return &Convert{
		span:   span{inner.Start(), inner.End()},
		inner:  inner,
		target: target,
		lossy:  isLossyConversion(inner.Type(), target),
	}, nil
}

// isLossyConversion reports whether converting from one type to another can
// lose information or fail.
func isLossyConversion(from, to query.Type) bool {
	if from == types.Null {
		return false
	}
	if from == types.Any {
		return true
	}
	fb, fok := from.(*types.BasicType)
	tb, tok := to.(*types.BasicType)
	if !fok || !tok {
		return true
	}
	if fb.IsNullable() && !tb.IsNullable() {
		return true
	}
	fc, tc := fb.Class(), tb.Class()
	if fc == tc {
		return false
	}
	if tc == types.StringClass || tc == types.BigDecimalClass {
		return false
	}
	if tc == types.BigIntClass {
		return fc.IsFloat() || fc == types.BigDecimalClass || fc == types.StringClass
	}
	if !fc.IsNumeric() || !tc.IsNumeric() {
		return true
	}
	if fc.IsInteger() && tc.IsInteger() {
		if fc.IsUnsigned() != tc.IsUnsigned() {
			// Unsigned into a strictly wider signed type is exact.
			return tc.IsUnsigned() || tc.Width() <= fc.Width()
		}
		return tc.Width() < fc.Width()
	}
	if fc.IsInteger() && tc.IsFloat() {
		return tc.Width() <= fc.Width()
	}
	if fc.IsFloat() && tc.IsFloat() {
		return tc.Width() < fc.Width()
	}
	return true
}

func (c *Convert) Inner() query.Expression { return c.inner }
func (c *Convert) Lossy() bool             { return c.lossy }

func (c *Convert) Type() query.Type { return c.target }

func (c *Convert) String() string {
	return c.target.String() + "(" + c.inner.String() + ")"
}

func (c *Convert) AsType(t query.Type) (query.Expression, error) {
	if c.target.Equals(t) {
		return c, nil
	}
	// Re-convert the original operand instead of stacking conversions.
	return NewConvert(c.inner, t)
}

func (c *Convert) Not(pos int) (query.Expression, error) {
	if isBooleanType(c.target) {
		return newNotWrapper(c, pos)
	}
	return nil, query.WrapError(query.ErrNotBoolean.New(c.target), c.start, c.end)
}

func (c *Convert) Negate(pos int, widen bool) (query.Expression, error) {
	return negateByZeroMinus(c, pos, widen)
}

func (c *Convert) SupportsLogicalNot() bool { return false }

func (c *Convert) IsPure() bool     { return c.inner.IsPure() }
func (c *Convert) IsConstant() bool { return c.inner.IsConstant() }
func (c *Convert) IsNullable() bool { return c.target.IsNullable() }
func (c *Convert) IsZero() bool     { return c.inner.IsZero() }
func (c *Convert) IsOne() bool      { return c.inner.IsOne() }
func (c *Convert) IsNull() bool     { return c.inner.IsNull() }
func (c *Convert) IsTrivial() bool  { return false }

func (c *Convert) IsOrderDependent() bool { return c.inner.IsOrderDependent() }
func (c *Convert) IsGrouping() bool       { return c.inner.IsGrouping() }
func (c *Convert) IsAccumulating() bool   { return c.inner.IsAccumulating() }
func (c *Convert) IsAggregating() bool    { return c.inner.IsAggregating() }

func (c *Convert) CanThrowRuntime() bool {
	return c.lossy || c.inner.CanThrowRuntime()
}

func (c *Convert) AsAggregate(groupColumns []string) (query.Expression, error) {
	inner, err := c.inner.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	if inner == c.inner {
		return c, nil
	}
	return NewConvert(inner, c.target)
}

func (c *Convert) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	inner, err := c.inner.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	if inner == c.inner {
		return c, nil
	}
	return NewConvert(inner, c.target)
}

func (c *Convert) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, c); ok {
		return r
	}
	inner := c.inner.Replace(m)
	if inner == c.inner {
		return c
	}
	n := *c
	n.inner = inner
	return &n
}

// SourceColumn is nil: a cast is not a trivial wrapper, its output no
// longer is the source column's value space.
func (c *Convert) SourceColumn() *query.Column { return nil }

func (c *Convert) MaxArgument() int { return c.inner.MaxArgument() }

func (c *Convert) GatherEvalColumns(collect func(*query.Column)) {
	c.inner.GatherEvalColumns(collect)
}

func (c *Convert) ToRowFilter(*query.RowInfo, map[string]*query.Column) query.RowFilter {
	return opaque(c)
}

func (c *Convert) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(convertTag)
	c.target.EncodeKey(enc)
	c.inner.EncodeKey(enc)
}

func (c *Convert) Equals(other query.Expression) bool {
	o, ok := other.(*Convert)
	return ok && c.target.Equals(o.target) && c.inner.Equals(o.inner)
}

func (c *Convert) Children() []query.Expression { return []query.Expression{c.inner} }
