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

package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/expression"
	"github.com/rowkit/go-tuple-query/query/types"
)

func testInfo() *query.RowInfo {
	rt := types.NewTupleType("TestRow", query.Schema{
		{Name: "a", Field: "a", Type: types.Int32},
		{Name: "b", Field: "b", Type: types.Int32},
		{Name: "c", Field: "c", Type: types.Int64.Nullable()},
		{Name: "name", Field: "name", Type: types.String},
	})
	return query.NewRowInfo("TestRow", rt, rt.Columns())
}

func TestParseProjectionAndFilter(t *testing.T) {
	require := require.New(t)

	q, err := Parse("{a, b} a == ?1", testInfo())
	require.NoError(err)
	require.Len(q.Projection, 2)
	require.Equal("a", q.Projection[0].Name())
	require.Equal("b", q.Projection[1].Name())

	cmp, ok := q.Filter.(*expression.Comparison)
	require.True(ok)
	require.Equal(query.OpEq, cmp.Op())
	require.IsType(&expression.ColumnRef{}, cmp.Left())
	p, ok := cmp.Right().(*expression.Param)
	require.True(ok)
	require.Equal(1, p.Ordinal())
}

func TestParseProjectionAssignment(t *testing.T) {
	require := require.New(t)

	q, err := Parse("{a, b = a + 1} a > 0", testInfo())
	require.NoError(err)
	require.Len(q.Projection, 2)

	assign, ok := q.Projection[1].Inner().(*expression.Assign)
	require.True(ok)
	require.Equal("b", assign.Name())
	require.IsType(&expression.Arithmetic{}, assign.Inner())
}

func TestParseProjectionFlags(t *testing.T) {
	require := require.New(t)

	q, err := Parse("{+a, -b, ~c, -!name}", testInfo())
	require.NoError(err)
	require.Len(q.Projection, 4)

	require.True(q.Projection[0].OrderBy())
	require.False(q.Projection[0].Descending())

	require.True(q.Projection[1].OrderBy())
	require.True(q.Projection[1].Descending())

	require.True(q.Projection[2].Exclude())
	require.True(q.Projection[2].ShouldExclude())

	require.True(q.Projection[3].OrderBy())
	require.True(q.Projection[3].Descending())
	require.True(q.Projection[3].NullLow())
}

func TestParsePrecedence(t *testing.T) {
	require := require.New(t)

	// || binds loosest, then &&, then comparison, then arithmetic.
	e, err := ParseExpression("a > 0 && b < 10 || flagless(1)", testInfo())
	require.Error(err) // no function calls in the grammar
	_ = e

	e, err = ParseExpression("a > 1 + 2 * 3 && b < 10", testInfo())
	require.NoError(err)
	and, ok := e.(*expression.Logical)
	require.True(ok)
	require.Equal(expression.AndLogical, and.Op())

	left, ok := and.Left().(*expression.Comparison)
	require.True(ok)
	// The right side of > folded structure: 1 + (2 * 3).
	sum, ok := left.Right().(*expression.Arithmetic)
	require.True(ok)
	require.Equal(expression.AddOp, sum.Op())
	mul, ok := sum.Right().(*expression.Arithmetic)
	require.True(ok)
	require.Equal(expression.MulOp, mul.Op())
}

func TestParseParens(t *testing.T) {
	require := require.New(t)

	e, err := ParseExpression("(a + b) * 2 > 0", testInfo())
	require.NoError(err)
	cmp, ok := e.(*expression.Comparison)
	require.True(ok)
	mul, ok := cmp.Left().(*expression.Arithmetic)
	require.True(ok)
	require.Equal(expression.MulOp, mul.Op())
	require.IsType(&expression.Wrapped{}, mul.Left())
}

func TestParseIn(t *testing.T) {
	require := require.New(t)

	e, err := ParseExpression("a in ?1", testInfo())
	require.NoError(err)
	in, ok := e.(*expression.In)
	require.True(ok)
	require.False(in.Negated())
	require.IsType(&expression.Param{}, in.Right())
}

func TestParseRange(t *testing.T) {
	require := require.New(t)

	// Constant endpoints fold into a range constant.
	e, err := ParseExpression("a in 1..10", testInfo())
	require.NoError(err)
	in, ok := e.(*expression.In)
	require.True(ok)
	c, ok := in.Right().(*expression.Constant)
	require.True(ok)
	rv, ok := c.Value().(expression.RangeValue)
	require.True(ok)
	require.Equal(int32(1), rv.Lo)
	require.Equal(int32(10), rv.Hi)

	// Open start.
	e, err = ParseExpression("a in ..10", testInfo())
	require.NoError(err)
	rv = e.(*expression.In).Right().(*expression.Constant).Value().(expression.RangeValue)
	require.Nil(rv.Lo)
	require.Equal(int32(10), rv.Hi)

	// Non-constant endpoint stays an expression.
	e, err = ParseExpression("a in b..c", testInfo())
	require.NoError(err)
	require.IsType(&expression.Range{}, e.(*expression.In).Right())
}

func TestParseUnary(t *testing.T) {
	require := require.New(t)

	// Negating a literal folds.
	e, err := ParseExpression("a == -5", testInfo())
	require.NoError(err)
	c, ok := e.(*expression.Comparison).Right().(*expression.Constant)
	require.True(ok)
	require.Equal(int32(-5), c.Value())

	e, err = ParseExpression("a == ~b", testInfo())
	require.NoError(err)
	require.IsType(&expression.BitNot{}, e.(*expression.Comparison).Right())

	// Logical not of a comparison flips the operator.
	e, err = ParseExpression("!(a == b)", testInfo())
	require.NoError(err)
	require.Equal(query.OpNe, e.(*expression.Comparison).Op())
}

func TestParseDottedPathUnknown(t *testing.T) {
	require := require.New(t)

	_, err := ParseExpression("a.b == 1", testInfo())
	require.Error(err)
	require.True(query.ErrColumnNotFound.Is(err))
}

func TestParseLocals(t *testing.T) {
	require := require.New(t)

	q, err := Parse("{x = a + 1, y = x * 2}", testInfo())
	require.NoError(err)
	require.Len(q.Projection, 2)
	y := q.Projection[1].Inner().(*expression.Assign)
	mul := y.Inner().(*expression.Arithmetic)
	require.IsType(&expression.Var{}, mul.Left())
}

func TestParseArgOrdinals(t *testing.T) {
	require := require.New(t)

	// Bare ? takes the next unused ordinal.
	e, err := ParseExpression("a == ? && b == ?", testInfo())
	require.NoError(err)
	and := e.(*expression.Logical)
	require.Equal(1, and.Left().(*expression.Comparison).Right().(*expression.Param).Ordinal())
	require.Equal(2, and.Right().(*expression.Comparison).Right().(*expression.Param).Ordinal())
	require.Equal(2, e.MaxArgument())
}

func TestParseErrors(t *testing.T) {
	require := require.New(t)

	// Duplicate projection column.
	_, err := Parse("{a, a}", testInfo())
	require.Error(err)
	require.True(query.ErrDuplicateColumn.Is(err))

	// Unknown column, with a suggestion.
	_, err = Parse("{nmae}", testInfo())
	require.Error(err)
	require.True(query.ErrColumnNotFound.Is(err))
	require.Contains(err.Error(), "maybe you mean name?")

	// Malformed number literal is a lex error.
	_, err = Parse("{a} a == 0b2", testInfo())
	require.Error(err)
	require.True(query.ErrSyntax.Is(err))

	// Dangling operator carries the offending span.
	_, err = Parse("{a} a ==", testInfo())
	require.Error(err)
	_, _, ok := query.ErrorSpan(err)
	require.True(ok)

	// Trailing garbage.
	_, err = Parse("{a} a > 0 )", testInfo())
	require.Error(err)
	require.True(query.ErrUnexpectedToken.Is(err))
}

func TestParseStringLiteral(t *testing.T) {
	require := require.New(t)

	e, err := ParseExpression(`name == "piper"`, testInfo())
	require.NoError(err)
	c := e.(*expression.Comparison).Right().(*expression.Constant)
	require.Equal("piper", c.Value())
}
