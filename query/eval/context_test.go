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

package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/expression"
	"github.com/rowkit/go-tuple-query/query/parse"
	"github.com/rowkit/go-tuple-query/query/types"
)

func testInfo() *query.RowInfo {
	rt := types.NewTupleType("TestRow", query.Schema{
		{Name: "a", Field: "a", Type: types.Int32},
		{Name: "b", Field: "b", Type: types.Int32},
		{Name: "c", Field: "c", Type: types.Int64.Nullable()},
	})
	return query.NewRowInfo("TestRow", rt, rt.Columns())
}

func TestContextMemoSavepoints(t *testing.T) {
	require := require.New(t)

	ctx := NewContext(testInfo(), nil, query.NewRow(int32(1), int32(2), nil))
	e := expression.NewParam(1, 0, 2)

	sp := ctx.RefSavepoint()
	ctx.Memoize(e, 42)
	v, ok := ctx.Memoized(e)
	require.True(ok)
	require.Equal(42, v)

	// Rollback invalidates entries created since the savepoint.
	ctx.RefRollback(sp)
	_, ok = ctx.Memoized(e)
	require.False(ok)

	sp = ctx.RefSavepoint()
	ctx.Memoize(e, 43)
	ctx.RefCommit(sp)
	v, ok = ctx.Memoized(e)
	require.True(ok)
	require.Equal(43, v)
}

func TestContextLocalUndo(t *testing.T) {
	require := require.New(t)

	ctx := NewContext(testInfo(), nil, nil)
	ctx.SetLocal("x", 1)

	sp := ctx.LocalSavepoint()
	ctx.SetLocal("x", 2)
	ctx.SetLocal("y", 3)

	v, ok := ctx.Local("x")
	require.True(ok)
	require.Equal(2, v)

	// Rollback restores the shadowed binding and unbinds the new one.
	ctx.LocalRollback(sp)
	v, ok = ctx.Local("x")
	require.True(ok)
	require.Equal(1, v)
	_, ok = ctx.Local("y")
	require.False(ok)
}

func evalSrc(t *testing.T, src string, args, row query.Row) (interface{}, error) {
	info := testInfo()
	e, err := parse.ParseExpression(src, info)
	require.NoError(t, err)
	return Eval(NewContext(info, args, row), e)
}

func TestInterpreterBasics(t *testing.T) {
	require := require.New(t)

	row := query.NewRow(int32(6), int32(4), int64(100))

	v, err := evalSrc(t, "a + b * 2", nil, row)
	require.NoError(err)
	require.Equal(int32(14), v)

	v, err = evalSrc(t, "a > b && a < 10", nil, row)
	require.NoError(err)
	require.Equal(true, v)

	v, err = evalSrc(t, "a == ?1", query.NewRow(int32(6)), row)
	require.NoError(err)
	require.Equal(true, v)

	v, err = evalSrc(t, "a in 1..6", nil, row)
	require.NoError(err)
	require.Equal(true, v)

	v, err = evalSrc(t, "a / b", nil, row)
	require.NoError(err)
	require.Equal(int32(1), v)

	_, err = evalSrc(t, "a / 0", nil, row)
	require.Error(err)
}

func TestInterpreterNullPropagation(t *testing.T) {
	require := require.New(t)

	row := query.NewRow(int32(6), int32(4), nil)

	// Null operands make comparisons and arithmetic unknown.
	v, err := evalSrc(t, "c + 1 > 0", nil, row)
	require.NoError(err)
	require.Nil(v)

	// Short-circuiting decides without the unknown side where it can.
	v, err = evalSrc(t, "a > 100 && c > 0", nil, row)
	require.NoError(err)
	require.Equal(false, v)

	v, err = evalSrc(t, "a > 0 || c > 0", nil, row)
	require.NoError(err)
	require.Equal(true, v)

	v, err = evalSrc(t, "a > 0 && c > 0", nil, row)
	require.NoError(err)
	require.Nil(v)
}

func TestInterpreterMemoizesPureSubexpressions(t *testing.T) {
	require := require.New(t)

	info := testInfo()
	e, err := parse.ParseExpression("(a + b) * (a + b)", info)
	require.NoError(err)

	ctx := NewContext(info, nil, query.NewRow(int32(3), int32(4), nil))
	v, err := Eval(ctx, e)
	require.NoError(err)
	require.Equal(int32(49), v)

	// The shared subexpression landed in the memo.
	mul := e.(*expression.Arithmetic)
	_, ok := ctx.Memoized(mul.Left().(*expression.Wrapped).Inner())
	require.True(ok)
}

func TestInterpreterBitOps(t *testing.T) {
	require := require.New(t)

	row := query.NewRow(int32(6), int32(3), nil)

	v, err := evalSrc(t, "a & b", nil, row)
	require.NoError(err)
	require.Equal(int32(2), v)

	v, err = evalSrc(t, "a | b", nil, row)
	require.NoError(err)
	require.Equal(int32(7), v)

	v, err = evalSrc(t, "a ^ b", nil, row)
	require.NoError(err)
	require.Equal(int32(5), v)

	v, err = evalSrc(t, "a == ~b + 10", nil, row)
	require.NoError(err)
	require.Equal(true, v)
}
