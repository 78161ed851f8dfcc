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

package query

import "fmt"

// Type is the contract implemented by every type variant: the null type, the
// dynamic any type, scalar basic types, tuple row types and relation types.
// Implementations live in the types package; the planner and the expression
// IR only ever see this interface.
type Type interface {
	fmt.Stringer

	// Nullable returns the nullable form of this type. Types that are
	// already nullable return themselves.
	Nullable() Type

	// IsNullable reports whether a null value inhabits this type.
	IsNullable() bool

	// Equals reports semantic type equality, including flags.
	Equals(other Type) bool

	// Convert coerces a runtime value into this type's value space. It
	// returns an error for lossy or impossible conversions.
	Convert(v interface{}) (interface{}, error)

	// Compare orders two values of this type. Nulls compare high, matching
	// the default null ordering of filters.
	Compare(a, b interface{}) (int, error)

	// EncodeKey writes this type's canonical image to enc.
	EncodeKey(enc *KeyEncoder)
}

// Cardinality is the row multiplicity of a relation.
type Cardinality byte

const (
	Zero Cardinality = iota
	One
	Optional
	Many
)

func (c Cardinality) String() string {
	switch c {
	case Zero:
		return "zero"
	case One:
		return "one"
	case Optional:
		return "optional"
	default:
		return "many"
	}
}

// Multiply combines the cardinalities of nested relations. Zero absorbs, One
// is the identity, Optional times Optional is Optional, and every other
// pairing is Many; the table is symmetric.
func (c Cardinality) Multiply(other Cardinality) Cardinality {
	switch {
	case c == Zero || other == Zero:
		return Zero
	case c == One:
		return other
	case other == One:
		return c
	case c == Optional && other == Optional:
		return Optional
	default:
		return Many
	}
}

// Filter applies the cardinality effect of a row filter: a constant-true
// filter preserves, a constant-false filter empties, anything else may drop
// rows.
func (c Cardinality) Filter(constantTrue, constantFalse bool) Cardinality {
	switch {
	case constantTrue:
		return c
	case constantFalse:
		return Zero
	default:
		return c.Multiply(Optional)
	}
}
