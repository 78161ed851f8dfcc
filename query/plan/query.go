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
	"sort"
	"strings"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/eval"
	"github.com/rowkit/go-tuple-query/query/expression"
)

var (
	unmappedTag = query.NewKeyTag()
	mappedTag   = query.NewKeyTag()
)

// UnmappedQuery is the pushdown stage: a pure QuerySpec applied by the
// underlying table itself.
type UnmappedQuery struct {
	from   Node
	spec   *query.QuerySpec
	info   *query.RowInfo
	card   query.Cardinality
	maxArg int
}

func NewUnmappedQuery(from Node, spec *query.QuerySpec, info *query.RowInfo) *UnmappedQuery {
	card := from.Cardinality().Filter(
		spec.Filter == query.TrueFilter, spec.Filter == query.FalseFilter)
	return &UnmappedQuery{from: from, spec: spec, info: info, card: card}
}

func (u *UnmappedQuery) From() Node             { return u.from }
func (u *UnmappedQuery) Spec() *query.QuerySpec { return u.spec }

// MaxArgument is the highest positional argument ordinal the plan needs.
func (u *UnmappedQuery) MaxArgument() int { return u.maxArg }

func (u *UnmappedQuery) Info() *query.RowInfo { return u.info }

func (u *UnmappedQuery) Cardinality() query.Cardinality { return u.card }

func (u *UnmappedQuery) String() string {
	var b strings.Builder
	b.WriteString("unmapped(")
	b.WriteString(u.from.String())
	if len(u.spec.Projection) > 0 {
		b.WriteString(" {")
		b.WriteString(strings.Join(u.spec.Projection, ", "))
		b.WriteString("}")
	}
	if u.spec.OrderBy != "" {
		b.WriteString(" order ")
		b.WriteString(u.spec.OrderBy)
	}
	if u.spec.Filter != query.TrueFilter {
		b.WriteString(" ")
		b.WriteString(u.spec.Filter.String())
	}
	b.WriteString(")")
	return b.String()
}

func (u *UnmappedQuery) EncodeKey(enc *query.KeyEncoder) {
	if !enc.BeginEntity(u, unmappedTag) {
		return
	}
	u.from.EncodeKey(enc)
	enc.WriteLength(len(u.spec.Projection), u.spec.Projection == nil)
	for _, name := range u.spec.Projection {
		enc.EncodeObject(name)
	}
	enc.EncodeObject(u.spec.OrderBy)
	u.spec.Filter.EncodeKey(enc)
}

// MappedQuery is the residual stage: a per-row transform evaluating
// assignments, the residual filter and the projection.
type MappedQuery struct {
	from       Node
	info       *query.RowInfo
	assigns    []*expression.Assign
	filter     query.RowFilter
	projection []*expression.Proj
	orderBy    string

	sourceColumns    query.Schema
	sourceProjection string
	inverse          map[string]string
	maxArg           int
}

// NewMappedQuery builds the mapped stage. Assignments evaluate in source
// order before the filter; sourceColumns is the set of source columns the
// stage actually reads.
func NewMappedQuery(
	from Node,
	info *query.RowInfo,
	assigns []*expression.Assign,
	filter query.RowFilter,
	projection []*expression.Proj,
	orderBy string,
	sourceColumns map[string]*query.Column,
) *MappedQuery {
	m := &MappedQuery{
		from:       from,
		info:       info,
		assigns:    assigns,
		filter:     filter,
		projection: projection,
		orderBy:    orderBy,
	}
	m.sourceColumns, m.sourceProjection = sourceProjectionOf(from.Info(), sourceColumns)
	m.inverse = inverseMappings(projection)
	return m
}

// sourceProjectionOf renders the comma-joined source column list, sorted
// for determinism, or "" when every column is read.
func sourceProjectionOf(source *query.RowInfo, read map[string]*query.Column) (query.Schema, string) {
	if read == nil || len(read) >= len(source.Schema) {
		return source.Schema, ""
	}
	names := make([]string, 0, len(read))
	for name := range read {
		names = append(names, name)
	}
	sort.Strings(names)
	cols := make(query.Schema, 0, len(names))
	for _, name := range names {
		cols = append(cols, read[name])
	}
	return cols, strings.Join(names, ",")
}

// inverseMappings exposes target-to-source identity mappings for terms that
// pass a single column through unchanged. Storage layers use them to push
// ordering and key lookups backward through the mapper.
func inverseMappings(projection []*expression.Proj) map[string]string {
	inverse := map[string]string{}
	for _, p := range projection {
		if p.ShouldExclude() {
			continue
		}
		src := p.SourceColumn()
		if src == nil {
			continue
		}
		if p.Type().Equals(src.Type) {
			inverse[p.Name()] = src.Name
		}
	}
	return inverse
}

// MaxArgument is the highest positional argument ordinal the plan needs.
func (m *MappedQuery) MaxArgument() int { return m.maxArg }

func (m *MappedQuery) From() Node                         { return m.from }
func (m *MappedQuery) Assigns() []*expression.Assign      { return m.assigns }
func (m *MappedQuery) Filter() query.RowFilter            { return m.filter }
func (m *MappedQuery) Projection() []*expression.Proj     { return m.projection }
func (m *MappedQuery) OrderBy() string                    { return m.orderBy }
func (m *MappedQuery) SourceProjection() string           { return m.sourceProjection }
func (m *MappedQuery) InverseMappings() map[string]string { return m.inverse }

func (m *MappedQuery) Info() *query.RowInfo { return m.info }

func (m *MappedQuery) Cardinality() query.Cardinality {
	return m.from.Cardinality().Filter(
		m.filter == query.TrueFilter, m.filter == query.FalseFilter)
}

func (m *MappedQuery) String() string {
	var b strings.Builder
	b.WriteString("mapped(")
	b.WriteString(m.from.String())
	if len(m.projection) > 0 {
		b.WriteString(" {")
		for i, p := range m.projection {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		b.WriteString("}")
	}
	if m.filter != query.TrueFilter {
		b.WriteString(" ")
		b.WriteString(m.filter.String())
	}
	b.WriteString(")")
	return b.String()
}

func (m *MappedQuery) EncodeKey(enc *query.KeyEncoder) {
	if !enc.BeginEntity(m, mappedTag) {
		return
	}
	m.from.EncodeKey(enc)
	enc.WriteLength(len(m.assigns), false)
	for _, a := range m.assigns {
		a.EncodeKey(enc)
	}
	m.filter.EncodeKey(enc)
	enc.WriteLength(len(m.projection), m.projection == nil)
	for _, p := range m.projection {
		p.EncodeKey(enc)
	}
	enc.EncodeObject(m.orderBy)
}

// Mapper materializes the per-row transform over the reference interpreter.
// An emitted mapper must agree with it row for row.
func (m *MappedQuery) Mapper() query.Mapper {
	return &interpretedMapper{plan: m}
}

type interpretedMapper struct {
	plan *MappedQuery
}

func (im *interpretedMapper) SourceProjection() string {
	return im.plan.sourceProjection
}

// MapRow evaluates assignments in source order, then the residual filter,
// then the projected columns. A false filter yields no row.
func (im *interpretedMapper) MapRow(args, source query.Row) (query.Row, error) {
	m := im.plan
	ctx := eval.NewContext(m.from.Info(), args, source)

	for _, a := range m.assigns {
		if _, err := eval.Eval(ctx, a); err != nil {
			return nil, err
		}
	}

	ok, err := m.filter.Matches(eval.Env{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	if m.projection == nil {
		out := make(query.Row, len(source))
		copy(out, source)
		return out, nil
	}
	var out query.Row
	for _, p := range m.projection {
		if p.ShouldExclude() {
			continue
		}
		var v interface{}
		if a, ok := p.Inner().(*expression.Assign); ok {
			// Assignments already ran, in source order; read the binding.
			v, _ = ctx.Local(a.Name())
		} else {
			v, err = eval.Eval(ctx, p)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, v)
	}
	return out, nil
}
