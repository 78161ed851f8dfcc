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

// OpArithmetic selects the strict common-type mode, which rejects
// non-numeric operands. Any op value of zero or above selects the lenient
// comparison mode, which may collapse mismatched operands to string.
const OpArithmetic = -1

// CommonType finds the widening target for a binary operation over a and b.
// Null and any always widen to the other side's nullable form.
func CommonType(a, b query.Type, op int) (query.Type, error) {
	if a == Null {
		return b.Nullable(), nil
	}
	if b == Null {
		return a.Nullable(), nil
	}
	if a == Any {
		return b.Nullable(), nil
	}
	if b == Any {
		return a.Nullable(), nil
	}

	ba, aOk := a.(*BasicType)
	bb, bOk := b.(*BasicType)
	if !aOk || !bOk {
		if a.Equals(b) {
			return a, nil
		}
		return nil, query.ErrNoCommonType.New(a.String(), b.String())
	}

	nullable := ba.IsNullable() || bb.IsNullable()
	class, err := commonClass(ba.Class(), bb.Class(), op)
	if err != nil {
		return nil, err
	}
	var code TypeCode
	if nullable {
		code = CodeNullable
	}
	return Basic(class, code), nil
}

func commonClass(a, b Class, op int) (Class, error) {
	if a == b {
		return a, nil
	}

	strict := op == OpArithmetic
	if !a.IsNumeric() || !b.IsNumeric() {
		if strict {
			bad := a
			if a.IsNumeric() {
				bad = b
			}
			return 0, query.ErrNotNumeric.New(bad.String())
		}
		// Lenient comparison collapses mismatched non-numeric pairings to
		// their text form.
		return StringClass, nil
	}

	// Arbitrary precision dominates, decimal over integer.
	switch {
	case a == BigDecimalClass || b == BigDecimalClass:
		return BigDecimalClass, nil
	case a == BigIntClass || b == BigIntClass:
		return BigIntClass, nil
	}

	if a.IsFloat() || b.IsFloat() {
		if width(a) > 32 || width(b) > 32 {
			return Float64Class, nil
		}
		return Float32Class, nil
	}

	// Fixed width integers. Mixing signedness widens the unsigned operand
	// into the next wider signed type.
	au, bu := a.IsUnsigned(), b.IsUnsigned()
	switch {
	case au == bu:
		w := maxInt(width(a), width(b))
		return intClass(w, au), nil
	default:
		signed, unsigned := a, b
		if au {
			signed, unsigned = b, a
		}
		need := unsigned.Width() * 2
		if need > 64 {
			return BigIntClass, nil
		}
		return intClass(maxInt(signed.Width(), need), false), nil
	}
}

func width(c Class) int {
	if w := c.Width(); w != 0 {
		return w
	}
	return 64
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func intClass(w int, unsigned bool) Class {
	switch {
	case w <= 8:
		if unsigned {
			return Uint8Class
		}
		return Int8Class
	case w <= 16:
		if unsigned {
			return Uint16Class
		}
		return Int16Class
	case w <= 32:
		if unsigned {
			return Uint32Class
		}
		return Int32Class
	default:
		if unsigned {
			return Uint64Class
		}
		return Int64Class
	}
}
