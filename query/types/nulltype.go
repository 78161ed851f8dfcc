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
	"github.com/rowkit/go-tuple-query/query"
)

// Null is the singleton type of the null literal. It is always nullable and
// its only value is null.
var Null query.Type = nullType{}

var nullTypeTag = query.NewKeyTag()

type nullType struct{}

func (nullType) String() string           { return "null" }
func (nullType) Nullable() query.Type     { return Null }
func (nullType) IsNullable() bool         { return true }
func (nullType) Equals(t query.Type) bool { return t == Null }

func (nullType) Convert(v interface{}) (interface{}, error) {
	if v != nil {
		return nil, query.ErrTypeMismatch.New("non-null value", "null")
	}
	return nil, nil
}

func (nullType) Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	return 0, query.ErrTypeMismatch.New("non-null value", "null")
}

func (nullType) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(nullTypeTag)
}
