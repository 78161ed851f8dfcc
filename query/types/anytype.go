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

	"github.com/shopspring/decimal"

	"github.com/rowkit/go-tuple-query/query"
)

// Any is the dynamic parameter type: the value is only known at evaluation
// time and every use requires a runtime conversion. It is nullable, since an
// argument may be null.
var Any query.Type = anyType{}

var anyTypeTag = query.NewKeyTag()

type anyType struct{}

func (anyType) String() string           { return "any" }
func (anyType) Nullable() query.Type     { return Any }
func (anyType) IsNullable() bool         { return true }
func (anyType) Equals(t query.Type) bool { return t == Any }

func (anyType) Convert(v interface{}) (interface{}, error) {
	return v, nil
}

func (anyType) Compare(a, b interface{}) (int, error) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, nil
		case a == nil:
			return 1, nil
		default:
			return -1, nil
		}
	}
	t, err := TypeOf(a)
	if err != nil {
		return 0, err
	}
	return t.Compare(a, b)
}

func (anyType) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(anyTypeTag)
}

// TypeOf maps a runtime value to the basic type that holds it.
func TypeOf(v interface{}) (query.Type, error) {
	switch v.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool, nil
	case int8:
		return Int8, nil
	case int16:
		return Int16, nil
	case int32, int:
		return Int32, nil
	case int64:
		return Int64, nil
	case uint8:
		return Uint8, nil
	case uint16:
		return Uint16, nil
	case uint32:
		return Uint32, nil
	case uint64, uint:
		return Uint64, nil
	case float32:
		return Float32, nil
	case float64:
		return Float64, nil
	case string:
		return String, nil
	case *big.Int:
		return BigInt, nil
	case decimal.Decimal:
		return BigDecimal, nil
	default:
		return nil, query.ErrTypeMismatch.New(fmt.Sprintf("%T", v), "basic type")
	}
}
