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
	"strings"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/expression"
	"github.com/rowkit/go-tuple-query/query/types"
)

// Build lowers a parsed query into a plan tree with the default CNF budget.
func Build(from Node, filter query.Expression, projection []*expression.Proj) (Node, error) {
	return BuildWithBudget(from, filter, projection, query.DefaultCNFBudget)
}

// BuildWithBudget is Build with an explicit CNF clause budget.
//
// Construction: coerce the filter to boolean and drop a constant true;
// lower it into the row-filter algebra; try CNF, falling back to the
// original form when the budget is exceeded or normalization would
// duplicate a non-pure term; split into a pushdown half and a residual; and
// emit the smallest tree that covers the residual work.
func BuildWithBudget(from Node, filter query.Expression, projection []*expression.Proj, budget int) (Node, error) {
	if from == nil {
		from = Identity()
	}
	info := from.Info()

	filter, err := coerceFilter(filter)
	if err != nil {
		return nil, err
	}

	// The pushdown eligibility of the projection: every term reads a plain
	// top-level column. Output shape and ordering are computed alongside.
	plainCols := projection != nil
	var outNames []string
	for _, p := range projection {
		if !isPlainColumnTerm(p) {
			plainCols = false
		}
		if !p.ShouldExclude() {
			outNames = append(outNames, p.Name())
		}
	}
	orderBy := orderSpec(projection)

	// Lower the filter, recording which schema columns it resolves.
	filterColumns := map[string]*query.Column{}
	rowFilter := query.TrueFilter
	if filter != nil {
		rowFilter = filter.ToRowFilter(info, filterColumns)
	}

	// Prefer conjunctive normal form: it splits clause by clause. Keep the
	// original on budget exhaustion, or when normalization duplicated a
	// non-pure opaque term.
	if cnf, cnfErr := rowFilter.CNF(budget); cnfErr == nil {
		if !query.HasRepeatedNonPure(cnf) {
			rowFilter = cnf
		}
	} else if !query.ErrComplexFilter.Is(cnfErr) {
		return nil, cnfErr
	}
	rowFilter = rowFilter.ReduceMore()

	push, residual := rowFilter.Split(info.AllColumns)

	maxArg := maxArgumentOf(filter, projection)

	// Everything pushable, projection included: no mapper at all.
	if residual == query.TrueFilter && (projection == nil || plainCols) {
		return buildUnmapped(from, info, push, outNames, orderBy, projection != nil, maxArg)
	}

	// Push what the table can do underneath the mapper.
	under := from
	if push != query.TrueFilter {
		under = newPushedQuery(from, info, push, maxArg)
	}

	target, err := targetInfo(info, projection)
	if err != nil {
		return nil, err
	}

	var assigns []*expression.Assign
	for _, p := range projection {
		if a, ok := p.Inner().(*expression.Assign); ok {
			assigns = append(assigns, a)
		}
	}

	// The columns the mapper actually reads: residual filter plus
	// projection expressions.
	readColumns := map[string]*query.Column{}
	collect := func(c *query.Column) { readColumns[c.Name] = c }
	if filter != nil {
		filter.GatherEvalColumns(collect)
	}
	for _, p := range projection {
		p.GatherEvalColumns(collect)
	}

	mapped := NewMappedQuery(under, target, assigns, residual, projection, orderBy, readColumns)
	mapped.maxArg = maxArg
	return mapped, nil
}

// coerceFilter checks the filter is boolean and drops a constant true.
func coerceFilter(filter query.Expression) (query.Expression, error) {
	if filter == nil {
		return nil, nil
	}
	if !isBooleanFilter(filter.Type()) {
		return nil, query.WrapError(
			query.ErrNotBoolean.New(filter.Type()), filter.Start(), filter.End())
	}
	if c, ok := filter.(*expression.Constant); ok {
		if b, ok := c.Value().(bool); ok && b {
			return nil, nil
		}
	}
	return filter, nil
}

func isBooleanFilter(t query.Type) bool {
	if t == types.Null || t == types.Any {
		return true
	}
	bt, ok := t.(*types.BasicType)
	return ok && bt.Class() == types.BoolClass
}

// isPlainColumnTerm reports whether a projection term is a direct read of a
// top-level column: the shape the storage engine can apply itself.
func isPlainColumnTerm(p *expression.Proj) bool {
	src := p.SourceColumn()
	if src == nil || src.Name != p.Name() {
		return false
	}
	return !strings.Contains(p.Name(), ".")
}

// orderSpec renders the ordering contribution of the projection.
func orderSpec(projection []*expression.Proj) string {
	var b strings.Builder
	for _, p := range projection {
		if !p.OrderBy() {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		p.AppendOrderBySpec(&b)
	}
	return b.String()
}

func maxArgumentOf(filter query.Expression, projection []*expression.Proj) int {
	max := 0
	if filter != nil {
		max = filter.MaxArgument()
	}
	for _, p := range projection {
		if n := p.MaxArgument(); n > max {
			max = n
		}
	}
	return max
}

// buildUnmapped emits the fully pushed plan, collapsing to the bare source
// when the query asks nothing of it.
func buildUnmapped(from Node, info *query.RowInfo, push query.RowFilter, outNames []string, orderBy string, projected bool, maxArg int) (Node, error) {
	rowType, _ := info.RowType.(*types.TupleType)

	projection := outNames
	if projected && rowType != nil && rowType.IsFullProjection(outNames) && isNaturalOrder(info.Schema, outNames) {
		projection = nil
	}

	if push == query.TrueFilter && projection == nil && orderBy == "" {
		return from, nil
	}

	outInfo := info
	if projection != nil {
		sub, err := rowType.WithProjection(projection)
		if err != nil {
			return nil, err
		}
		outInfo = query.NewRowInfo(info.Name, sub, sub.Columns())
	}

	u := NewUnmappedQuery(from, &query.QuerySpec{
		Projection: projection,
		OrderBy:    orderBy,
		Filter:     push,
	}, outInfo)
	u.maxArg = maxArg
	return u, nil
}

// newPushedQuery wraps the source with a filter-only pushdown stage.
func newPushedQuery(from Node, info *query.RowInfo, push query.RowFilter, maxArg int) Node {
	u := NewUnmappedQuery(from, &query.QuerySpec{Filter: push}, info)
	u.maxArg = maxArg
	return u
}

func isNaturalOrder(schema query.Schema, names []string) bool {
	visible := make([]string, 0, len(schema))
	for _, c := range schema {
		if !c.Hidden {
			visible = append(visible, c.Name)
		}
	}
	if len(visible) != len(names) {
		return false
	}
	for i, name := range names {
		if visible[i] != name {
			return false
		}
	}
	return true
}

// targetInfo synthesizes the output row schema of a mapped stage.
func targetInfo(source *query.RowInfo, projection []*expression.Proj) (*query.RowInfo, error) {
	if projection == nil {
		return source, nil
	}
	cols := make(query.Schema, 0, len(projection))
	for _, p := range projection {
		if p.ShouldExclude() {
			continue
		}
		cols = append(cols, &query.Column{
			Name:  p.Name(),
			Field: p.Name(),
			Type:  p.Type(),
		})
	}
	rowType, err := types.MakeTupleType(cols)
	if err != nil {
		return nil, err
	}
	return query.NewRowInfo(rowType.RowClass(), rowType, cols), nil
}
