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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowkit/go-tuple-query/query"
)

func TestCommonTypeNullAndAny(t *testing.T) {
	require := require.New(t)

	got, err := CommonType(Null, Int32, 0)
	require.NoError(err)
	require.True(got.Equals(Int32.Nullable()))

	got, err = CommonType(Int32, Null, OpArithmetic)
	require.NoError(err)
	require.True(got.Equals(Int32.Nullable()))

	got, err = CommonType(Any, Int64, 0)
	require.NoError(err)
	require.True(got.Equals(Int64.Nullable()))

	got, err = CommonType(String, Any, 0)
	require.NoError(err)
	require.True(got.Equals(String.Nullable()))
}

func TestCommonTypeNumericLattice(t *testing.T) {
	cases := []struct {
		a, b *BasicType
		want *BasicType
	}{
		{Int8, Int32, Int32},
		{Int32, Int64, Int64},
		{Uint8, Uint16, Uint16},
		{Float32, Float64, Float64},
		{Int32, Float32, Float32},
		{Int64, Float32, Float64},
		{Int32, Float64, Float64},
		{Int32, BigInt, BigInt},
		{Float64, BigInt, BigInt},
		{BigInt, BigDecimal, BigDecimal},
		{Int64, BigDecimal, BigDecimal},
		// Mixing signedness widens the unsigned side into the next wider
		// signed type.
		{Int8, Uint8, Int16},
		{Int32, Uint16, Int32},
		{Int32, Uint32, Int64},
		{Int64, Uint64, BigInt},
	}
	for _, c := range cases {
		got, err := CommonType(c.a, c.b, OpArithmetic)
		require.NoError(t, err, "%s + %s", c.a, c.b)
		assert.True(t, got.Equals(c.want), "%s + %s = %s, want %s", c.a, c.b, got, c.want)

		// The lattice is symmetric.
		swapped, err := CommonType(c.b, c.a, OpArithmetic)
		require.NoError(t, err)
		assert.True(t, swapped.Equals(got))
	}
}

func TestCommonTypeNullability(t *testing.T) {
	require := require.New(t)

	got, err := CommonType(Int32.Nullable(), Int64, OpArithmetic)
	require.NoError(err)
	require.True(got.IsNullable())
	require.True(got.Equals(Int64.Nullable()))

	got, err = CommonType(Int32, Int64, OpArithmetic)
	require.NoError(err)
	require.False(got.IsNullable())
}

func TestCommonTypeStrictRejectsNonNumeric(t *testing.T) {
	require := require.New(t)

	_, err := CommonType(String, Int32, OpArithmetic)
	require.Error(err)
	require.True(query.ErrNotNumeric.Is(err))

	_, err = CommonType(Bool, Int32, OpArithmetic)
	require.Error(err)
}

func TestCommonTypeLenientCollapsesToString(t *testing.T) {
	require := require.New(t)

	got, err := CommonType(String, Int32, 0)
	require.NoError(err)
	require.True(got.Equals(String))

	got, err = CommonType(Bool, String, 0)
	require.NoError(err)
	require.True(got.Equals(String))
}

func TestBasicTypeCanonical(t *testing.T) {
	require := require.New(t)

	// Equal class and flags share one instance.
	require.Same(Int32, Basic(Int32Class, 0))
	require.Same(Int32.Nullable(), Int32.Nullable())
	require.NotSame(Int32, Int32.Nullable())
	require.Same(Int32, Int32.Nullable().(*BasicType).NonNullable())
}

func TestBasicTypeConvert(t *testing.T) {
	require := require.New(t)

	v, err := Int32.Convert(int64(41))
	require.NoError(err)
	require.Equal(int32(41), v)

	v, err = String.Convert(42)
	require.NoError(err)
	require.Equal("42", v)

	_, err = Int32.Convert(nil)
	require.Error(err)

	v, err = Int32.Nullable().Convert(nil)
	require.NoError(err)
	require.Nil(v)
}

func TestBasicTypeCompareNulls(t *testing.T) {
	require := require.New(t)

	// Nulls order high by default.
	cmp, err := Int32.Nullable().Compare(nil, int32(5))
	require.NoError(err)
	require.Equal(1, cmp)

	cmp, err = Int32.Nullable().Compare(nil, nil)
	require.NoError(err)
	require.Equal(0, cmp)

	// The null-low flag inverts that.
	nl := Int32.NullLow().Nullable().(*BasicType)
	cmp, err = nl.Compare(nil, int32(5))
	require.NoError(err)
	require.Equal(-1, cmp)
}

func TestBasicTypeDescending(t *testing.T) {
	require := require.New(t)

	cmp, err := Int32.Descending().Compare(int32(1), int32(2))
	require.NoError(err)
	require.Equal(1, cmp)
}
