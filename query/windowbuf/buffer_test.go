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

package windowbuf

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func i(v int64) *int64 { return &v }

func TestBufferAggregates(t *testing.T) {
	require := require.New(t)

	b := NewBuffer[float64](Float64Ops{}, 4, true)
	b.Add(f(1.0))
	b.Add(f(2.0))
	b.Add(nil)
	b.Add(f(4.0))

	require.Equal(4, b.Size())
	require.Equal(3, b.Count(0, 4))
	require.Equal(7.0, b.Sum(0, 4))

	avg, err := b.Average(0, 4)
	require.NoError(err)
	require.Equal(7.0/3, *avg)

	require.Equal(1.0, *b.Min(0, 4))
	require.Equal(4.0, *b.Max(0, 4))

	// Nulls-low minimum: the null wins.
	require.Nil(b.MinNL(0, 4))
	require.Equal(4.0, *b.MaxNL(0, 4))
}

func TestBufferEmptyRangeSentinels(t *testing.T) {
	require := require.New(t)

	// Nullable: empty average is null.
	b := NewBuffer[int64](Int64Ops{}, 2, true)
	avg, err := b.Average(0, 0)
	require.NoError(err)
	require.Nil(avg)
	require.Equal(int64(0), b.Sum(0, 0))
	require.Nil(b.Min(0, 0))
	require.Equal(0, b.Count(0, 0))

	// Non-nullable integer: empty average is an error.
	bi := NewBuffer[int64](Int64Ops{}, 2, false)
	_, err = bi.Average(0, 0)
	require.Error(err)

	// Non-nullable float: empty average is NaN.
	bf := NewBuffer[float64](Float64Ops{}, 2, false)
	avgF, err := bf.Average(0, 0)
	require.NoError(err)
	require.True(math.IsNaN(*avgF))
}

func TestBufferRing(t *testing.T) {
	require := require.New(t)

	b := NewBuffer[int64](Int64Ops{}, 4, false)
	for v := int64(1); v <= 4; v++ {
		b.Add(i(v))
	}
	b.Remove(2)
	require.Equal(2, b.Size())
	require.Equal(int64(3), *b.Get(0))

	// Wrap around the ring.
	b.Add(i(5))
	b.Add(i(6))
	require.Equal(4, b.Size())
	require.Equal(int64(3+4+5+6), b.Sum(0, 4))

	b.RemoveFirst()
	require.Equal(int64(4), *b.Get(0))
}

func TestBufferDoubling(t *testing.T) {
	require := require.New(t)

	b := NewBuffer[int64](Int64Ops{}, 2, false)
	// Force a wrapped state, then grow through it.
	b.Add(i(1))
	b.Add(i(2))
	b.RemoveFirst()
	b.Add(i(3))
	for v := int64(4); v <= 9; v++ {
		b.Add(i(v))
	}
	require.Equal(8, b.Size())
	for idx := 0; idx < 8; idx++ {
		require.Equal(int64(idx+2), *b.Get(idx))
	}
}

func TestBufferInitAndClear(t *testing.T) {
	require := require.New(t)

	b := NewBuffer[int64](Int64Ops{}, 4, false)
	b.Add(i(1))
	b.Add(i(2))
	b.Init(i(9))
	require.Equal(1, b.Size())
	require.Equal(int64(9), *b.Get(0))

	b.Clear()
	require.Equal(0, b.Size())
}

func TestBufferCapacityRounding(t *testing.T) {
	require := require.New(t)

	b := NewBuffer[int64](Int64Ops{}, 5, false)
	require.Equal(8, len(b.values))

	b = NewBuffer[int64](Int64Ops{}, 0, false)
	require.Equal(1, len(b.values))
}

func TestBigIntOps(t *testing.T) {
	require := require.New(t)

	b := NewBuffer[*big.Int](BigIntOps{}, 2, true)
	one, two := big.NewInt(1), big.NewInt(2)
	b.Add(&one)
	b.Add(&two)
	require.Equal(int64(3), b.Sum(0, 2).Int64())

	avg, err := b.Average(0, 2)
	require.NoError(err)
	require.Equal(int64(1), (*avg).Int64())
}

func TestWindowBufferFrames(t *testing.T) {
	require := require.New(t)

	// Frame [-1, 1] around the current row.
	w := NewWindowBuffer[float64](Float64Ops{}, 4, true, -1)
	w.Append(f(1.0)) // offset -1
	w.Append(f(2.0)) // offset 0 (current row)
	w.Append(f(3.0)) // offset 1

	require.Equal(-1, w.StartOffset())
	require.Equal(1, w.EndOffset())

	require.Equal(3, w.FrameCount(-1, 1))
	require.Equal(6.0, w.FrameSum(-1, 1))
	require.Equal(2.0, *w.FrameMin(0, 1))
	require.Equal(3.0, *w.FrameMax(-1, 1))

	// The frame clamps to the buffered range.
	require.Equal(6.0, w.FrameSum(-10, 10))

	// An empty frame returns the type's sentinel.
	require.Equal(0.0, w.FrameSum(5, 7))
	require.Nil(w.FrameMin(5, 7))
	avg, err := w.FrameAverage(5, 7)
	require.NoError(err)
	require.Nil(avg)
}

func TestWindowBufferAdvance(t *testing.T) {
	require := require.New(t)

	w := NewWindowBuffer[float64](Float64Ops{}, 4, true, 0)
	w.Append(f(1.0))
	w.Append(f(2.0))
	w.Append(f(3.0))

	// Advancing without removal keeps an open frame start.
	w.Advance()
	require.Equal(-1, w.StartOffset())
	require.Equal(1, w.EndOffset())
	require.Equal(3, w.Size())

	// Advancing a bounded frame discards what fell out.
	w.AdvanceAndRemove(-1)
	require.Equal(-1, w.StartOffset())
	require.Equal(2, w.Size())
	require.Equal(2.0, *w.Get(0))

	w.AdvanceAndRemove(-1)
	require.Equal(1, w.Size())
	require.Equal(3.0, *w.Get(0))
}
