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

var paramTag = query.NewKeyTag()

// Param is a positional argument reference, written ?N with N starting at
// one. Its declared type defaults to any and is rebound by AsType.
type Param struct {
	span
	ordinal int
	typ     query.Type
}

func NewParam(ordinal, start, end int) *Param {
	return &Param{span: span{start, end}, ordinal: ordinal, typ: types.Any}
}

func (p *Param) Ordinal() int { return p.ordinal }

func (p *Param) Type() query.Type { return p.typ }

func (p *Param) String() string { return fmt.Sprintf("?%d", p.ordinal) }

// AsType rebinds the declared type: the argument is converted to t at
// evaluation time.
func (p *Param) AsType(t query.Type) (query.Expression, error) {
	if p.typ.Equals(t) {
		return p, nil
	}
	return &Param{span: p.span, ordinal: p.ordinal, typ: t}, nil
}

func (p *Param) Not(pos int) (query.Expression, error) {
	b, err := p.AsType(nullableBool)
	if err != nil {
		return nil, err
	}
	return newNotWrapper(b, pos)
}

func (p *Param) Negate(pos int, widen bool) (query.Expression, error) {
	return nil, query.WrapError(query.ErrNotSupported.New("negating an argument"), p.start, p.end)
}

func (p *Param) SupportsLogicalNot() bool { return false }

// IsPure holds: the same argument always yields the same value, even though
// the conversion may fail.
func (p *Param) IsPure() bool     { return true }
func (p *Param) IsConstant() bool { return false }

func (p *Param) IsNullable() bool { return p.typ.IsNullable() }
func (p *Param) IsZero() bool     { return false }
func (p *Param) IsOne() bool      { return false }
func (p *Param) IsNull() bool     { return false }
func (p *Param) IsTrivial() bool  { return true }

func (p *Param) IsOrderDependent() bool { return false }
func (p *Param) IsGrouping() bool       { return false }
func (p *Param) IsAccumulating() bool   { return false }
func (p *Param) IsAggregating() bool    { return false }

// CanThrowRuntime holds when the declared type forces a conversion of the
// dynamic argument value.
func (p *Param) CanThrowRuntime() bool { return p.typ != types.Any }

func (p *Param) AsAggregate([]string) (query.Expression, error) { return p, nil }

func (p *Param) AsWindow(map[string]query.Expression) (query.Expression, error) {
	return p, nil
}

func (p *Param) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, p); ok {
		return r
	}
	return p
}

func (p *Param) SourceColumn() *query.Column { return nil }
func (p *Param) MaxArgument() int            { return p.ordinal }

func (p *Param) GatherEvalColumns(func(*query.Column)) {}

func (p *Param) ToRowFilter(*query.RowInfo, map[string]*query.Column) query.RowFilter {
	return opaque(p)
}

func (p *Param) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(paramTag)
	enc.WriteUvarint(uint64(p.ordinal))
	p.typ.EncodeKey(enc)
}

func (p *Param) Equals(other query.Expression) bool {
	o, ok := other.(*Param)
	return ok && o.ordinal == p.ordinal && o.typ.Equals(p.typ)
}

func (p *Param) Children() []query.Expression { return nil }
