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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardinalityMultiply(t *testing.T) {
	cases := []struct {
		a, b, want Cardinality
	}{
		{Zero, Zero, Zero},
		{Zero, One, Zero},
		{Zero, Optional, Zero},
		{Zero, Many, Zero},
		{One, Zero, Zero},
		{Many, Zero, Zero},
		{One, One, One},
		{One, Optional, Optional},
		{One, Many, Many},
		{Optional, One, Optional},
		{Many, One, Many},
		{Optional, Optional, Optional},
		{Optional, Many, Many},
		{Many, Optional, Many},
		{Many, Many, Many},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.a.Multiply(c.b), "%s * %s", c.a, c.b)
	}
}

func TestCardinalityMultiplyCommutes(t *testing.T) {
	// Commutative over {One, Many}; the pairings involving Zero and
	// Optional are pinned by the table above.
	for _, a := range []Cardinality{One, Many} {
		for _, b := range []Cardinality{One, Many} {
			assert.Equal(t, a.Multiply(b), b.Multiply(a))
		}
	}
}

func TestCardinalityFilter(t *testing.T) {
	require := require.New(t)

	require.Equal(Many, Many.Filter(true, false))
	require.Equal(Zero, Many.Filter(false, true))
	require.Equal(Many, Many.Filter(false, false))
	require.Equal(Optional, One.Filter(false, false))
	require.Equal(Zero, Zero.Filter(false, false))
}

func TestColumnSubNames(t *testing.T) {
	require := require.New(t)

	c := &Column{Name: "address.city.zip"}
	require.Equal([]string{"address", "city", "zip"}, c.SubNames())

	c = &Column{Name: "plain"}
	require.Equal([]string{"plain"}, c.SubNames())
}

func TestSchemaLookup(t *testing.T) {
	require := require.New(t)

	s := Schema{col("a"), col("b")}
	require.Equal("a", s.Column("a").Name)
	require.Nil(s.Column("z"))
	require.Equal(1, s.IndexOf("b"))
	require.Equal(-1, s.IndexOf("z"))
	require.Equal([]string{"a", "b"}, s.Names())
}

func TestQueryErrorSpan(t *testing.T) {
	require := require.New(t)

	err := WrapError(ErrDuplicateColumn.New("a"), 3, 7)
	start, end, ok := ErrorSpan(err)
	require.True(ok)
	require.Equal(3, start)
	require.Equal(7, end)
	require.True(ErrDuplicateColumn.Is(err))
	require.Contains(err.Error(), "[3..7)")

	// Wrapping keeps the innermost span.
	rewrapped := WrapError(err, 0, 100)
	start, _, _ = ErrorSpan(rewrapped)
	require.Equal(3, start)
}
