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
	"strings"

	"github.com/rowkit/go-tuple-query/query"
)

var projTag = query.NewKeyTag()

// Proj is one projection term: a named output expression with exclusion and
// ordering flags. An exclusion that also orders still contributes to the
// ordering spec without producing an output column.
type Proj struct {
	span
	name       string
	inner      query.Expression
	exclude    bool
	orderBy    bool
	descending bool
	nullLow    bool
}

func NewProj(name string, inner query.Expression, start, end int) *Proj {
	return &Proj{span: span{start, end}, name: name, inner: inner}
}

// WithFlags returns a copy carrying the given projection flags.
func (p *Proj) WithFlags(exclude, orderBy, descending, nullLow bool) *Proj {
	n := *p
	n.exclude = exclude
	n.orderBy = orderBy
	n.descending = descending
	n.nullLow = nullLow
	return &n
}

func (p *Proj) Name() string            { return p.name }
func (p *Proj) Inner() query.Expression { return p.inner }
func (p *Proj) Exclude() bool           { return p.exclude }
func (p *Proj) OrderBy() bool           { return p.orderBy }
func (p *Proj) Descending() bool        { return p.descending }
func (p *Proj) NullLow() bool           { return p.nullLow }

// ShouldExclude reports whether the term produces no output column. An
// ordering-only exclusion still orders.
func (p *Proj) ShouldExclude() bool { return p.exclude && !p.orderBy }

// AppendOrderBySpec writes this term's ordering contribution, one of
// +name, -name, +!name, -!name.
func (p *Proj) AppendOrderBySpec(b *strings.Builder) {
	if p.descending {
		b.WriteByte('-')
	} else {
		b.WriteByte('+')
	}
	if p.nullLow {
		b.WriteByte('!')
	}
	b.WriteString(p.name)
}

func (p *Proj) Type() query.Type { return p.inner.Type() }

func (p *Proj) String() string {
	var b strings.Builder
	if p.exclude {
		b.WriteByte('~')
	}
	if p.orderBy {
		if p.descending {
			b.WriteByte('-')
		} else {
			b.WriteByte('+')
		}
		if p.nullLow {
			b.WriteByte('!')
		}
	}
	b.WriteString(p.name)
	if !p.isPlainColumn() {
		b.WriteString(" = ")
		b.WriteString(p.inner.String())
	}
	return b.String()
}

// isPlainColumn reports whether the term is a direct read of the column it
// names.
func (p *Proj) isPlainColumn() bool {
	c := underlyingColumnRef(p.inner)
	return c != nil && c.Column().Name == p.name
}

// IsPlainColumn reports whether this term projects a column through without
// rename, computation, exclusion or ordering.
func (p *Proj) IsPlainColumn() bool {
	return p.isPlainColumn() && !p.exclude && !p.orderBy
}

func (p *Proj) AsType(t query.Type) (query.Expression, error) {
	if p.Type().Equals(t) {
		return p, nil
	}
	inner, err := p.inner.AsType(t)
	if err != nil {
		return nil, err
	}
	n := *p
	n.inner = inner
	return &n, nil
}

func (p *Proj) Not(pos int) (query.Expression, error) {
	inner, err := p.inner.Not(pos)
	if err != nil {
		return nil, err
	}
	n := *p
	n.inner = inner
	return &n, nil
}

func (p *Proj) Negate(pos int, widen bool) (query.Expression, error) {
	inner, err := p.inner.Negate(pos, widen)
	if err != nil {
		return nil, err
	}
	n := *p
	n.inner = inner
	return &n, nil
}

func (p *Proj) SupportsLogicalNot() bool { return p.inner.SupportsLogicalNot() }

func (p *Proj) IsPure() bool     { return p.inner.IsPure() }
func (p *Proj) IsConstant() bool { return p.inner.IsConstant() }
func (p *Proj) IsNullable() bool { return p.inner.IsNullable() }
func (p *Proj) IsZero() bool     { return p.inner.IsZero() }
func (p *Proj) IsOne() bool      { return p.inner.IsOne() }
func (p *Proj) IsNull() bool     { return p.inner.IsNull() }
func (p *Proj) IsTrivial() bool  { return p.inner.IsTrivial() }

func (p *Proj) IsOrderDependent() bool { return p.inner.IsOrderDependent() }
func (p *Proj) IsGrouping() bool       { return p.inner.IsGrouping() }
func (p *Proj) IsAccumulating() bool   { return p.inner.IsAccumulating() }
func (p *Proj) IsAggregating() bool    { return p.inner.IsAggregating() }
func (p *Proj) CanThrowRuntime() bool  { return p.inner.CanThrowRuntime() }

func (p *Proj) AsAggregate(groupColumns []string) (query.Expression, error) {
	inner, err := p.inner.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	if inner == p.inner {
		return p, nil
	}
	n := *p
	n.inner = inner
	return &n, nil
}

func (p *Proj) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	inner, err := p.inner.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	if inner == p.inner {
		return p, nil
	}
	n := *p
	n.inner = inner
	return &n, nil
}

func (p *Proj) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, p); ok {
		return r
	}
	inner := p.inner.Replace(m)
	if inner == p.inner {
		return p
	}
	n := *p
	n.inner = inner
	return &n
}

// SourceColumn propagates through: a projection term is a trivial wrapper
// around its expression.
func (p *Proj) SourceColumn() *query.Column { return p.inner.SourceColumn() }

func (p *Proj) MaxArgument() int { return p.inner.MaxArgument() }

func (p *Proj) GatherEvalColumns(collect func(*query.Column)) {
	p.inner.GatherEvalColumns(collect)
}

func (p *Proj) ToRowFilter(info *query.RowInfo, columns map[string]*query.Column) query.RowFilter {
	return p.inner.ToRowFilter(info, columns)
}

func (p *Proj) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(projTag)
	enc.EncodeObject(p.name)
	enc.WriteBool(p.exclude)
	enc.WriteBool(p.orderBy)
	enc.WriteBool(p.descending)
	enc.WriteBool(p.nullLow)
	p.inner.EncodeKey(enc)
}

func (p *Proj) Equals(other query.Expression) bool {
	o, ok := other.(*Proj)
	return ok && p.name == o.name && p.exclude == o.exclude && p.orderBy == o.orderBy &&
		p.descending == o.descending && p.nullLow == o.nullLow && p.inner.Equals(o.inner)
}

func (p *Proj) Children() []query.Expression { return []query.Expression{p.inner} }
