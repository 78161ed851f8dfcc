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
	"math"
	"math/big"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/types"
)

var constantTag = query.NewKeyTag()

// Constant is a literal value with a fixed type.
type Constant struct {
	span
	typ   query.Type
	value interface{}
}

// Shared boolean and null literals. NewConstant and NewBoolConstant return
// them for span-less boolean literals and for null literals of the null
// type; a boolean literal carrying a source span is a separate instance, so
// boolean constants compare by value, not identity.
var (
	True      = &Constant{typ: types.Bool, value: true}
	False     = &Constant{typ: types.Bool, value: false}
	NullConst = &Constant{typ: types.Null, value: nil}
)

var (
	canonMu  sync.Mutex
	canonReg = map[string]*Constant{}
)

// NewConstant builds a literal node. Arbitrary precision values and ranges
// are canonicalized so equal values share one instance.
func NewConstant(value interface{}, typ query.Type, start, end int) *Constant {
	switch v := value.(type) {
	case nil:
		if typ == types.Null {
			return NullConst
		}
	case bool:
		if start == 0 && end == 0 {
			if v {
				return True
			}
			return False
		}
	case *big.Int:
		return canonicalConstant("i:"+v.String(), value, typ, start, end)
	case decimal.Decimal:
		return canonicalConstant("d:"+v.String(), value, typ, start, end)
	case RangeValue:
		return canonicalConstant("r:"+v.String(), value, typ, start, end)
	}
	return &Constant{span: span{start, end}, typ: typ, value: value}
}

func canonicalConstant(key string, value interface{}, typ query.Type, start, end int) *Constant {
	key = typ.String() + "|" + key
	canonMu.Lock()
	defer canonMu.Unlock()
	if c, ok := canonReg[key]; ok {
		return c
	}
	c := &Constant{span: span{start, end}, typ: typ, value: value}
	canonReg[key] = c
	return c
}

// NewBoolConstant returns the shared boolean literal, keeping the span of
// the source token when one exists.
func NewBoolConstant(v bool, start, end int) *Constant {
	if start == 0 && end == 0 {
		if v {
			return True
		}
		return False
	}
	return &Constant{span: span{start, end}, typ: types.Bool, value: v}
}

func (c *Constant) Value() interface{} { return c.value }

func (c *Constant) Type() query.Type { return c.typ }

func (c *Constant) String() string {
	if c.value == nil {
		return "null"
	}
	if s, ok := c.value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", c.value)
}

func (c *Constant) AsType(t query.Type) (query.Expression, error) {
	if c.typ.Equals(t) {
		return c, nil
	}
	v, err := t.Convert(c.value)
	if err != nil {
		return nil, query.WrapError(err, c.start, c.end)
	}
	return NewConstant(v, t, c.start, c.end), nil
}

func (c *Constant) Not(pos int) (query.Expression, error) {
	if b, ok := c.value.(bool); ok {
		return NewBoolConstant(!b, c.start, c.end), nil
	}
	if c.value == nil {
		return c, nil
	}
	return nil, query.WrapError(query.ErrNotBoolean.New(c.typ), c.start, c.end)
}

// Negate constant-folds, promoting to a wider type when negating the
// minimum value of a signed width.
func (c *Constant) Negate(pos int, widen bool) (query.Expression, error) {
	switch v := c.value.(type) {
	case nil:
		return c, nil
	case int8:
		if v == math.MinInt8 && widen {
			return NewConstant(int16(-int16(v)), types.Int16, pos, c.end), nil
		}
		return NewConstant(-v, c.typ, pos, c.end), nil
	case int16:
		if v == math.MinInt16 && widen {
			return NewConstant(int32(-int32(v)), types.Int32, pos, c.end), nil
		}
		return NewConstant(-v, c.typ, pos, c.end), nil
	case int32:
		if v == math.MinInt32 && widen {
			return NewConstant(int64(-int64(v)), types.Int64, pos, c.end), nil
		}
		return NewConstant(-v, c.typ, pos, c.end), nil
	case int64:
		if v == math.MinInt64 && widen {
			return NewConstant(new(big.Int).Neg(big.NewInt(v)), types.BigInt, pos, c.end), nil
		}
		return NewConstant(-v, c.typ, pos, c.end), nil
	case float32:
		return NewConstant(-v, c.typ, pos, c.end), nil
	case float64:
		return NewConstant(-v, c.typ, pos, c.end), nil
	case *big.Int:
		return NewConstant(new(big.Int).Neg(v), c.typ, pos, c.end), nil
	case decimal.Decimal:
		return NewConstant(v.Neg(), c.typ, pos, c.end), nil
	default:
		return nil, query.WrapError(query.ErrNotNumeric.New(c.typ), c.start, c.end)
	}
}

func (c *Constant) SupportsLogicalNot() bool {
	_, ok := c.value.(bool)
	return ok || c.value == nil
}

func (c *Constant) IsPure() bool     { return true }
func (c *Constant) IsConstant() bool { return true }
func (c *Constant) IsNullable() bool { return c.value == nil }
func (c *Constant) IsNull() bool     { return c.value == nil }
func (c *Constant) IsTrivial() bool  { return true }

func (c *Constant) IsZero() bool {
	switch v := c.value.(type) {
	case int8:
		return v == 0
	case int16:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case uint8:
		return v == 0
	case uint16:
		return v == 0
	case uint32:
		return v == 0
	case uint64:
		return v == 0
	case float32:
		return v == 0
	case float64:
		return v == 0
	case *big.Int:
		return v.Sign() == 0
	case decimal.Decimal:
		return v.IsZero()
	}
	return false
}

func (c *Constant) IsOne() bool {
	switch v := c.value.(type) {
	case int8:
		return v == 1
	case int16:
		return v == 1
	case int32:
		return v == 1
	case int64:
		return v == 1
	case uint8:
		return v == 1
	case uint16:
		return v == 1
	case uint32:
		return v == 1
	case uint64:
		return v == 1
	case float32:
		return v == 1
	case float64:
		return v == 1
	case *big.Int:
		return v.Cmp(big.NewInt(1)) == 0
	case decimal.Decimal:
		return v.Equal(decimal.NewFromInt(1))
	}
	return false
}

func (c *Constant) IsOrderDependent() bool { return false }
func (c *Constant) IsGrouping() bool       { return false }
func (c *Constant) IsAccumulating() bool   { return false }
func (c *Constant) IsAggregating() bool    { return false }
func (c *Constant) CanThrowRuntime() bool  { return false }

func (c *Constant) AsAggregate([]string) (query.Expression, error) { return c, nil }

func (c *Constant) AsWindow(map[string]query.Expression) (query.Expression, error) {
	return c, nil
}

func (c *Constant) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, c); ok {
		return r
	}
	return c
}

func (c *Constant) SourceColumn() *query.Column { return nil }
func (c *Constant) MaxArgument() int            { return 0 }

func (c *Constant) GatherEvalColumns(func(*query.Column)) {}

func (c *Constant) ToRowFilter(*query.RowInfo, map[string]*query.Column) query.RowFilter {
	if b, ok := c.value.(bool); ok {
		if b {
			return query.TrueFilter
		}
		return query.FalseFilter
	}
	return opaque(c)
}

func (c *Constant) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(constantTag)
	c.typ.EncodeKey(enc)
	encodeConstantValue(enc, c.value)
}

func encodeConstantValue(enc *query.KeyEncoder, v interface{}) {
	switch v := v.(type) {
	case nil:
		enc.WriteU8(0)
	case bool:
		enc.WriteU8(1)
		enc.WriteBool(v)
	case int8:
		enc.WriteU8(2)
		enc.WriteU8(byte(v))
	case int16:
		enc.WriteU8(3)
		enc.WriteUint16(uint16(v))
	case int32:
		enc.WriteU8(4)
		enc.WriteInt32(v)
	case int64:
		enc.WriteU8(5)
		enc.WriteInt64(v)
	case uint8:
		enc.WriteU8(6)
		enc.WriteU8(v)
	case uint16:
		enc.WriteU8(7)
		enc.WriteUint16(v)
	case uint32:
		enc.WriteU8(8)
		enc.WriteUint32(uint32(v))
	case uint64:
		enc.WriteU8(9)
		enc.WriteUint64(v)
	case float32:
		enc.WriteU8(10)
		enc.WriteUint32(math.Float32bits(v))
	case float64:
		enc.WriteU8(11)
		enc.WriteUint64(math.Float64bits(v))
	case string:
		enc.WriteU8(12)
		enc.EncodeObject(v)
	case *big.Int:
		enc.WriteU8(13)
		enc.EncodeObject(v.String())
	case decimal.Decimal:
		enc.WriteU8(14)
		enc.EncodeObject(v.String())
	case RangeValue:
		enc.WriteU8(15)
		enc.EncodeObject(v.String())
	default:
		enc.WriteU8(16)
		enc.EncodeObject(fmt.Sprintf("%v", v))
	}
}

func (c *Constant) Equals(other query.Expression) bool {
	o, ok := other.(*Constant)
	if !ok || !c.typ.Equals(o.typ) {
		return false
	}
	switch v := c.value.(type) {
	case *big.Int:
		ov, ok := o.value.(*big.Int)
		return ok && v.Cmp(ov) == 0
	case decimal.Decimal:
		ov, ok := o.value.(decimal.Decimal)
		return ok && v.Equal(ov)
	case RangeValue:
		ov, ok := o.value.(RangeValue)
		return ok && v.Equal(ov)
	default:
		return c.value == o.value
	}
}

func (c *Constant) Children() []query.Expression { return nil }
