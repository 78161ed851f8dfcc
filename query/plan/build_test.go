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

package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/eval"
	"github.com/rowkit/go-tuple-query/query/parse"
	"github.com/rowkit/go-tuple-query/query/types"
)

// testTable is a minimal storage collaborator for planner tests.
type testTable struct {
	info *query.RowInfo
	rows []query.Row
}

func newTestTable() *testTable {
	rt := types.NewTupleType("TestRow", query.Schema{
		{Name: "a", Field: "a", Type: types.Int32},
		{Name: "b", Field: "b", Type: types.Int32},
		{Name: "c", Field: "c", Type: types.Int64.Nullable()},
	})
	return &testTable{
		info: query.NewRowInfo("test", rt, rt.Columns()),
		rows: []query.Row{
			{int32(1), int32(10), int64(100)},
			{int32(2), int32(20), nil},
			{int32(3), int32(30), int64(300)},
			{int32(-4), int32(40), int64(400)},
		},
	}
}

func (t *testTable) Info() *query.RowInfo { return t.info }

func (t *testTable) Map(target *query.RowInfo, m query.Mapper) (query.Table, error) {
	return t, nil
}

func (t *testTable) View(orderSpec string) (query.Table, error) { return t, nil }

func (t *testTable) WithQuery(spec *query.QuerySpec) (query.Table, error) { return t, nil }

func buildFor(t *testing.T, tbl *testTable, src string) Node {
	parsed, err := parse.Parse(src, tbl.info)
	require.NoError(t, err)
	node, err := Build(NewTableNode(tbl), parsed.Filter, parsed.Projection)
	require.NoError(t, err)
	return node
}

func TestBuildFullyPushed(t *testing.T) {
	require := require.New(t)

	// {a, b} a == ?1 pushes projection and filter; no mapper.
	node := buildFor(t, newTestTable(), "{a, b} a == ?1")
	u, ok := node.(*UnmappedQuery)
	require.True(ok)
	require.Equal([]string{"a", "b"}, u.Spec().Projection)

	arg, ok := u.Spec().Filter.(*query.ColumnToArgFilter)
	require.True(ok)
	require.Equal("a", arg.Col.Name)
	require.Equal(query.OpEq, arg.Op)
	require.Equal(1, arg.Ordinal)
	require.Equal(1, u.MaxArgument())
	require.Equal([]string{"a", "b"}, u.Info().Schema.Names())
}

func TestBuildMappedAssignment(t *testing.T) {
	require := require.New(t)

	// {a, b = a + 1} a > 0: the filter pushes, the computed column maps.
	node := buildFor(t, newTestTable(), "{a, b = a + 1} a > 0")
	m, ok := node.(*MappedQuery)
	require.True(ok)

	u, ok := m.From().(*UnmappedQuery)
	require.True(ok)
	cc, ok := u.Spec().Filter.(*query.ColumnToConstantFilter)
	require.True(ok)
	require.Equal("a", cc.Col.Name)
	require.Equal(query.OpGt, cc.Op)

	require.Equal(query.TrueFilter, m.Filter())
	require.Len(m.Assigns(), 1)
	require.Equal("b", m.Assigns()[0].Name())
	require.Equal([]string{"a", "b"}, m.Info().Schema.Names())
}

func TestBuildSplitResidual(t *testing.T) {
	require := require.New(t)

	// {a} a > 0 && (b + c) < 10: one conjunct pushes, the other stays
	// opaque in the mapper.
	node := buildFor(t, newTestTable(), "{a} a > 0 && (b + c) < 10")
	m, ok := node.(*MappedQuery)
	require.True(ok)

	u, ok := m.From().(*UnmappedQuery)
	require.True(ok)
	_, ok = u.Spec().Filter.(*query.ColumnToConstantFilter)
	require.True(ok)

	_, ok = m.Filter().(*query.OpaqueFilter)
	require.True(ok)
}

func TestBuildInFilter(t *testing.T) {
	require := require.New(t)

	node := buildFor(t, newTestTable(), "{a} a in ?1")
	u, ok := node.(*UnmappedQuery)
	require.True(ok)
	in, ok := u.Spec().Filter.(*query.InFilter)
	require.True(ok)
	require.Equal("a", in.Col.Name)
	require.Equal(1, in.Ordinal)
}

func TestBuildOrderSpec(t *testing.T) {
	require := require.New(t)

	// {+a, -b} true: the constant-true filter drops; ordering pushes.
	node := buildFor(t, newTestTable(), "{+a, -b} true")
	u, ok := node.(*UnmappedQuery)
	require.True(ok)
	require.Equal("+a,-b", u.Spec().OrderBy)
	require.Equal(query.TrueFilter, u.Spec().Filter)
	require.Equal([]string{"a", "b"}, u.Spec().Projection)
}

func TestBuildNoProjectionNeeded(t *testing.T) {
	require := require.New(t)

	// A full natural-order projection with no filter collapses to the
	// source itself.
	tbl := newTestTable()
	node := buildFor(t, tbl, "{a, b, c}")
	tn, ok := node.(*TableNode)
	require.True(ok)
	require.Same(tbl, tn.Table().(*testTable))
}

func TestBuildFilterOnly(t *testing.T) {
	require := require.New(t)

	node := buildFor(t, newTestTable(), "a > 0")
	u, ok := node.(*UnmappedQuery)
	require.True(ok)
	require.Nil(u.Spec().Projection)
	_, ok = u.Spec().Filter.(*query.ColumnToConstantFilter)
	require.True(ok)
}

func TestBuildIdentityFrom(t *testing.T) {
	require := require.New(t)

	node, err := Build(nil, nil, nil)
	require.NoError(err)
	require.Equal(Identity(), node)
	require.Equal(query.One, node.Cardinality())
}

func TestBuildCardinality(t *testing.T) {
	require := require.New(t)

	tbl := newTestTable()
	node := buildFor(t, tbl, "a > 0")
	require.Equal(query.Many, node.Cardinality())

	node = buildFor(t, tbl, "false")
	require.Equal(query.Zero, node.Cardinality())
}

func TestBuildRejectsNonBooleanFilter(t *testing.T) {
	require := require.New(t)

	tbl := newTestTable()
	parsed, err := parse.Parse("{a} a + 1", tbl.info)
	require.NoError(err)
	_, err = Build(NewTableNode(tbl), parsed.Filter, parsed.Projection)
	require.Error(err)
	require.True(query.ErrNotBoolean.Is(err))
}

func TestMappedQuerySourceProjection(t *testing.T) {
	require := require.New(t)

	// Only b and c are read; the advertised source projection is the
	// sorted strict subset.
	node := buildFor(t, newTestTable(), "{x = b + 1} (b + c) < 10")
	m, ok := node.(*MappedQuery)
	require.True(ok)
	require.Equal("b,c", m.SourceProjection())
	require.Equal("b,c", m.Mapper().SourceProjection())
}

func TestMappedQueryInverseMappings(t *testing.T) {
	require := require.New(t)

	// Terms that pass a column through unchanged expose target-to-source
	// mappings; computed terms do not.
	node := buildFor(t, newTestTable(), "{a, x = b + 1} (b + c) < 10")
	m, ok := node.(*MappedQuery)
	require.True(ok)
	inverse := m.InverseMappings()
	require.Equal("a", inverse["a"])
	_, computed := inverse["x"]
	require.False(computed)
}

// runPlan executes a plan against the test table with the reference
// interpreter, serving as the oracle for pushdown correctness.
func runPlan(t *testing.T, tbl *testTable, node Node, args query.Row) []query.Row {
	var out []query.Row
	switch n := node.(type) {
	case *TableNode:
		out = append(out, tbl.rows...)
	case *UnmappedQuery:
		base := runPlan(t, tbl, n.From(), args)
		for _, row := range base {
			ctx := eval.NewContext(n.From().Info(), args, row)
			ok, err := n.Spec().Filter.Matches(eval.Env{Ctx: ctx})
			require.NoError(t, err)
			if !ok {
				continue
			}
			if n.Spec().Projection == nil {
				out = append(out, row)
				continue
			}
			projected := make(query.Row, 0, len(n.Spec().Projection))
			for _, name := range n.Spec().Projection {
				idx := n.From().Info().Schema.IndexOf(name)
				require.GreaterOrEqual(t, idx, 0)
				projected = append(projected, row[idx])
			}
			out = append(out, projected)
		}
	case *MappedQuery:
		base := runPlan(t, tbl, n.From(), args)
		mapper := n.Mapper()
		for _, row := range base {
			mapped, err := mapper.MapRow(args, row)
			require.NoError(t, err)
			if mapped != nil {
				out = append(out, mapped)
			}
		}
	default:
		t.Fatalf("unexpected node %T", node)
	}
	return out
}

func TestPushdownCorrectness(t *testing.T) {
	require := require.New(t)

	tbl := newTestTable()
	cases := []struct {
		src  string
		args query.Row
		want []query.Row
	}{
		{
			src:  "{a, b} a == ?1",
			args: query.NewRow(int32(2)),
			want: []query.Row{{int32(2), int32(20)}},
		},
		{
			src:  "{a, b = a + 1} a > 0",
			args: nil,
			want: []query.Row{
				{int32(1), int32(2)},
				{int32(2), int32(3)},
				{int32(3), int32(4)},
			},
		},
		{
			src:  "{a} a > 0 && (b + c) < 150",
			args: nil,
			// Row 2 has a null c: the opaque residual is unknown, so the
			// row drops.
			want: []query.Row{{int32(1)}},
		},
		{
			src:  "{a} a in ?1",
			args: query.NewRow([]interface{}{int32(1), int32(3)}),
			want: []query.Row{{int32(1)}, {int32(3)}},
		},
		{
			src:  "{b} a >= 1 && a <= 2",
			args: nil,
			want: []query.Row{{int32(10)}, {int32(20)}},
		},
	}

	for _, c := range cases {
		parsed, err := parse.Parse(c.src, tbl.info)
		require.NoError(err, c.src)
		node, err := Build(NewTableNode(tbl), parsed.Filter, parsed.Projection)
		require.NoError(err, c.src)
		got := runPlan(t, tbl, node, c.args)
		require.Equal(c.want, got, c.src)
	}
}

func TestPlanEncodeKeyStable(t *testing.T) {
	require := require.New(t)

	tbl := newTestTable()
	build := func() Node { return buildFor(t, tbl, "{a, b = a + 1} a > 0 && b < 10") }

	encode := func(n Node) query.Key {
		enc := query.NewKeyEncoder()
		n.EncodeKey(enc)
		return enc.Finish()
	}
	require.True(encode(build()).Equal(encode(build())))
}
