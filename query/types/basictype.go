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

package types

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/rowkit/go-tuple-query/query"
)

// Class identifies the value space of a basic scalar type.
type Class byte

const (
	BoolClass Class = iota
	Int8Class
	Int16Class
	Int32Class
	Int64Class
	Uint8Class
	Uint16Class
	Uint32Class
	Uint64Class
	Float32Class
	Float64Class
	BigIntClass
	BigDecimalClass
	StringClass
)

func (c Class) String() string {
	switch c {
	case BoolClass:
		return "bool"
	case Int8Class:
		return "int8"
	case Int16Class:
		return "int16"
	case Int32Class:
		return "int32"
	case Int64Class:
		return "int64"
	case Uint8Class:
		return "uint8"
	case Uint16Class:
		return "uint16"
	case Uint32Class:
		return "uint32"
	case Uint64Class:
		return "uint64"
	case Float32Class:
		return "float32"
	case Float64Class:
		return "float64"
	case BigIntClass:
		return "bigint"
	case BigDecimalClass:
		return "bigdecimal"
	default:
		return "string"
	}
}

// IsNumeric reports whether arithmetic is defined over the class.
func (c Class) IsNumeric() bool {
	return c != BoolClass && c != StringClass
}

// IsInteger reports whether the class is a fixed-width integer family
// member.
func (c Class) IsInteger() bool {
	return c >= Int8Class && c <= Uint64Class
}

// IsFloat reports whether the class is a binary floating point family
// member.
func (c Class) IsFloat() bool {
	return c == Float32Class || c == Float64Class
}

// IsUnsigned reports whether the class is an unsigned integer.
func (c Class) IsUnsigned() bool {
	return c >= Uint8Class && c <= Uint64Class
}

// Width returns the bit width of fixed-width classes, or 0.
func (c Class) Width() int {
	switch c {
	case Int8Class, Uint8Class:
		return 8
	case Int16Class, Uint16Class:
		return 16
	case Int32Class, Uint32Class, Float32Class:
		return 32
	case Int64Class, Uint64Class, Float64Class:
		return 64
	default:
		return 0
	}
}

// TypeCode carries the flag bits of a basic type.
type TypeCode byte

const (
	CodeNullable TypeCode = 1 << iota
	CodeUnsigned
	CodeDescending
	CodeNullLow
)

// BasicType is a scalar type. Instances are canonicalized: two basic types
// with the same class and code are the same pointer, so identity comparison
// is a valid fast path.
type BasicType struct {
	class Class
	code  TypeCode
}

var (
	basicMu  sync.Mutex
	basicReg = map[uint16]*BasicType{}
)

// Basic returns the canonical basic type for a class and code.
func Basic(class Class, code TypeCode) *BasicType {
	if class.IsUnsigned() {
		code |= CodeUnsigned
	}
	k := uint16(class)<<8 | uint16(code)
	basicMu.Lock()
	defer basicMu.Unlock()
	if t, ok := basicReg[k]; ok {
		return t
	}
	t := &BasicType{class: class, code: code}
	basicReg[k] = t
	return t
}

// Canonical non-nullable scalar types.
var (
	Bool       = Basic(BoolClass, 0)
	Int8       = Basic(Int8Class, 0)
	Int16      = Basic(Int16Class, 0)
	Int32      = Basic(Int32Class, 0)
	Int64      = Basic(Int64Class, 0)
	Uint8      = Basic(Uint8Class, 0)
	Uint16     = Basic(Uint16Class, 0)
	Uint32     = Basic(Uint32Class, 0)
	Uint64     = Basic(Uint64Class, 0)
	Float32    = Basic(Float32Class, 0)
	Float64    = Basic(Float64Class, 0)
	BigInt     = Basic(BigIntClass, 0)
	BigDecimal = Basic(BigDecimalClass, 0)
	String     = Basic(StringClass, 0)
)

var basicTypeTag = query.NewKeyTag()

func (t *BasicType) Class() Class   { return t.class }
func (t *BasicType) Code() TypeCode { return t.code }

func (t *BasicType) String() string {
	var b strings.Builder
	b.WriteString(t.class.String())
	if t.code&CodeNullable != 0 {
		b.WriteString("?")
	}
	if t.code&CodeDescending != 0 {
		b.WriteString(" desc")
	}
	if t.code&CodeNullLow != 0 {
		b.WriteString(" nulllow")
	}
	return b.String()
}

func (t *BasicType) Nullable() query.Type {
	if t.code&CodeNullable != 0 {
		return t
	}
	return Basic(t.class, t.code|CodeNullable)
}

// NonNullable returns the type with the nullable flag cleared.
func (t *BasicType) NonNullable() *BasicType {
	if t.code&CodeNullable == 0 {
		return t
	}
	return Basic(t.class, t.code&^CodeNullable)
}

// Descending returns the type with inverted ordering direction.
func (t *BasicType) Descending() *BasicType {
	return Basic(t.class, t.code|CodeDescending)
}

// NullLow returns the type ordering nulls before all values.
func (t *BasicType) NullLow() *BasicType {
	return Basic(t.class, t.code|CodeNullLow)
}

func (t *BasicType) IsNullable() bool { return t.code&CodeNullable != 0 }

func (t *BasicType) Equals(other query.Type) bool {
	o, ok := other.(*BasicType)
	return ok && o.class == t.class && o.code == t.code
}

func (t *BasicType) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(basicTypeTag)
	enc.WriteU8(byte(t.class))
	enc.WriteU8(byte(t.code))
}

// Convert coerces v into this type's value space. Nulls pass through for
// nullable types and are rejected otherwise.
func (t *BasicType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		if t.IsNullable() {
			return nil, nil
		}
		return nil, query.ErrTypeMismatch.New("null", t.String())
	}
	out, err := convertToClass(v, t.class)
	if err != nil {
		return nil, query.ErrTypeMismatch.New(fmt.Sprintf("%T(%v)", v, v), t.String())
	}
	return out, nil
}

func convertToClass(v interface{}, class Class) (interface{}, error) {
	switch class {
	case BoolClass:
		return cast.ToBoolE(v)
	case Int8Class:
		return cast.ToInt8E(v)
	case Int16Class:
		return cast.ToInt16E(v)
	case Int32Class:
		return cast.ToInt32E(v)
	case Int64Class:
		return cast.ToInt64E(v)
	case Uint8Class:
		return cast.ToUint8E(v)
	case Uint16Class:
		return cast.ToUint16E(v)
	case Uint32Class:
		return cast.ToUint32E(v)
	case Uint64Class:
		return cast.ToUint64E(v)
	case Float32Class:
		return cast.ToFloat32E(v)
	case Float64Class:
		return cast.ToFloat64E(v)
	case BigIntClass:
		return toBigInt(v)
	case BigDecimalClass:
		return toDecimal(v)
	default:
		return cast.ToStringE(v)
	}
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch v := v.(type) {
	case *big.Int:
		return v, nil
	case decimal.Decimal:
		return v.BigInt(), nil
	case string:
		i, ok := new(big.Int).SetString(v, 10)
		if !ok {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		return i, nil
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return nil, err
		}
		return big.NewInt(i), nil
	}
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case *big.Int:
		return decimal.NewFromBigInt(v, 0), nil
	case string:
		return decimal.NewFromString(v)
	case float32:
		return decimal.NewFromFloat32(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromInt(i), nil
	}
}

// Compare orders two values of this type. A null compares high unless the
// type carries the null-low flag; two nulls compare equal.
func (t *BasicType) Compare(a, b interface{}) (int, error) {
	if a == nil || b == nil {
		return t.compareNulls(a, b), nil
	}
	ca, err := t.Convert(a)
	if err != nil {
		return 0, err
	}
	cb, err := t.Convert(b)
	if err != nil {
		return 0, err
	}
	cmp, err := compareClass(ca, cb, t.class)
	if err != nil {
		return 0, err
	}
	if t.code&CodeDescending != 0 {
		cmp = -cmp
	}
	return cmp, nil
}

func (t *BasicType) compareNulls(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	high := t.code&CodeNullLow == 0
	if a == nil {
		if high {
			return 1
		}
		return -1
	}
	if high {
		return -1
	}
	return 1
}

func compareClass(a, b interface{}, class Class) (int, error) {
	switch class {
	case BoolClass:
		av, bv := a.(bool), b.(bool)
		switch {
		case av == bv:
			return 0, nil
		case !av:
			return -1, nil
		default:
			return 1, nil
		}
	case BigIntClass:
		return a.(*big.Int).Cmp(b.(*big.Int)), nil
	case BigDecimalClass:
		return a.(decimal.Decimal).Cmp(b.(decimal.Decimal)), nil
	case StringClass:
		return strings.Compare(a.(string), b.(string)), nil
	case Float32Class:
		return compareOrdered(float64(a.(float32)), float64(b.(float32))), nil
	case Float64Class:
		return compareOrdered(a.(float64), b.(float64)), nil
	default:
		if class.IsUnsigned() {
			av, _ := cast.ToUint64E(a)
			bv, _ := cast.ToUint64E(b)
			return compareOrdered(av, bv), nil
		}
		av, _ := cast.ToInt64E(a)
		bv, _ := cast.ToInt64E(b)
		return compareOrdered(av, bv), nil
	}
}

func compareOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
