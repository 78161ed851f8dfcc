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

// Package windowbuf implements the growable circular value buffers backing
// window aggregates: frame-ranged count, sum, average, minimum and maximum
// with the null handling of the query runtime.
package windowbuf

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/rowkit/go-tuple-query/query"
)

// Ops supplies the value-type arithmetic of a buffer.
type Ops[V any] interface {
	Zero() V
	Add(a, b V) V
	Div(sum V, count int) V
	Cmp(a, b V) int
	// NaN returns the not-a-number sentinel of the type, if it has one.
	NaN() (V, bool)
}

// Buffer is a growable ring buffer of nullable values with power-of-two
// capacity and bitmask indexing. A nil element is a null value.
type Buffer[V any] struct {
	values   []*V
	first    int
	size     int
	ops      Ops[V]
	nullable bool
}

// NewBuffer builds a buffer; capacity rounds up to a power of two. The
// nullable flag selects the empty-average behavior.
func NewBuffer[V any](ops Ops[V], capacity int, nullable bool) *Buffer[V] {
	if capacity < 1 {
		capacity = 1
	}
	capacity = ceilPow2(capacity)
	return &Buffer[V]{values: make([]*V, capacity), ops: ops, nullable: nullable}
}

func ceilPow2(n int) int {
	c := 1
	for c < n {
		c <<= 1
	}
	return c
}

// Size returns the number of stored values.
func (b *Buffer[V]) Size() int { return b.size }

// Init resets the buffer to hold exactly one value.
func (b *Buffer[V]) Init(v *V) {
	b.Clear()
	b.Add(v)
}

// Clear removes every value.
func (b *Buffer[V]) Clear() {
	for i := range b.values {
		b.values[i] = nil
	}
	b.first = 0
	b.size = 0
}

// Add appends a value, doubling the capacity when full. Doubling is two
// straight copies: the wrapped tail and the head.
func (b *Buffer[V]) Add(v *V) {
	if b.size == len(b.values) {
		grown := make([]*V, len(b.values)*2)
		n := copy(grown, b.values[b.first:])
		copy(grown[n:], b.values[:b.first])
		b.values = grown
		b.first = 0
	}
	b.values[(b.first+b.size)&(len(b.values)-1)] = v
	b.size++
}

// Get returns the i-th stored value; zero is the first.
func (b *Buffer[V]) Get(i int) *V {
	return b.values[(b.first+i)&(len(b.values)-1)]
}

// Remove discards the first n values.
func (b *Buffer[V]) Remove(n int) {
	if n > b.size {
		n = b.size
	}
	mask := len(b.values) - 1
	for i := 0; i < n; i++ {
		b.values[(b.first+i)&mask] = nil
	}
	b.first = (b.first + n) & mask
	b.size -= n
}

// RemoveFirst discards the first value.
func (b *Buffer[V]) RemoveFirst() { b.Remove(1) }

// clip bounds [from, from+num) to the stored values.
func (b *Buffer[V]) clip(from, num int) (int, int) {
	if from < 0 {
		num += from
		from = 0
	}
	if from+num > b.size {
		num = b.size - from
	}
	return from, num
}

// Count returns the non-null count over [from, from+num).
func (b *Buffer[V]) Count(from, num int) int {
	from, num = b.clip(from, num)
	count := 0
	for i := 0; i < num; i++ {
		if b.Get(from+i) != nil {
			count++
		}
	}
	return count
}

// Sum accumulates the non-null values over [from, from+num); an empty or
// all-null range sums to zero.
func (b *Buffer[V]) Sum(from, num int) V {
	from, num = b.clip(from, num)
	sum := b.ops.Zero()
	for i := 0; i < num; i++ {
		if v := b.Get(from + i); v != nil {
			sum = b.ops.Add(sum, *v)
		}
	}
	return sum
}

// Average divides the sum by the non-null count. A zero divisor returns
// null when the result type is nullable, not-a-number for float types, and
// an error for the rest.
func (b *Buffer[V]) Average(from, num int) (*V, error) {
	from, num = b.clip(from, num)
	count := b.Count(from, num)
	if count == 0 {
		if b.nullable {
			return nil, nil
		}
		if nan, ok := b.ops.NaN(); ok {
			return &nan, nil
		}
		return nil, query.ErrNotSupported.New("average of empty range")
	}
	sum := b.Sum(from, num)
	avg := b.ops.Div(sum, count)
	return &avg, nil
}

// Min returns the smallest non-null value; nulls order high and never win.
// An empty or all-null range is null.
func (b *Buffer[V]) Min(from, num int) *V {
	from, num = b.clip(from, num)
	var best *V
	for i := 0; i < num; i++ {
		v := b.Get(from + i)
		if v == nil {
			continue
		}
		if best == nil || b.ops.Cmp(*v, *best) < 0 {
			best = v
		}
	}
	return best
}

// Max returns the largest non-null value; an empty or all-null range is
// null.
func (b *Buffer[V]) Max(from, num int) *V {
	from, num = b.clip(from, num)
	var best *V
	for i := 0; i < num; i++ {
		v := b.Get(from + i)
		if v == nil {
			continue
		}
		if best == nil || b.ops.Cmp(*v, *best) > 0 {
			best = v
		}
	}
	return best
}

// MinNL is Min with nulls ordered low: any null in range wins.
func (b *Buffer[V]) MinNL(from, num int) *V {
	from, num = b.clip(from, num)
	if num <= 0 {
		return nil
	}
	for i := 0; i < num; i++ {
		if b.Get(from+i) == nil {
			return nil
		}
	}
	return b.Min(from, num)
}

// MaxNL is Max with nulls ordered low: nulls never win, matching Max.
func (b *Buffer[V]) MaxNL(from, num int) *V {
	return b.Max(from, num)
}

// Int64Ops, Float64Ops, BigIntOps and DecimalOps are the standard
// arithmetic instances.

type Int64Ops struct{}

func (Int64Ops) Zero() int64                { return 0 }
func (Int64Ops) Add(a, b int64) int64       { return a + b }
func (Int64Ops) Div(sum int64, n int) int64 { return sum / int64(n) }
func (Int64Ops) NaN() (int64, bool)         { return 0, false }

func (Int64Ops) Cmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

type Float64Ops struct{}

func (Float64Ops) Zero() float64                  { return 0 }
func (Float64Ops) Add(a, b float64) float64       { return a + b }
func (Float64Ops) Div(sum float64, n int) float64 { return sum / float64(n) }
func (Float64Ops) NaN() (float64, bool)           { return math.NaN(), true }

func (Float64Ops) Cmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

type BigIntOps struct{}

func (BigIntOps) Zero() *big.Int { return new(big.Int) }

func (BigIntOps) Add(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }

func (BigIntOps) Div(sum *big.Int, n int) *big.Int {
	return new(big.Int).Quo(sum, big.NewInt(int64(n)))
}

func (BigIntOps) Cmp(a, b *big.Int) int { return a.Cmp(b) }

func (BigIntOps) NaN() (*big.Int, bool) { return nil, false }

type DecimalOps struct{}

func (DecimalOps) Zero() decimal.Decimal { return decimal.Zero }

func (DecimalOps) Add(a, b decimal.Decimal) decimal.Decimal { return a.Add(b) }

func (DecimalOps) Div(sum decimal.Decimal, n int) decimal.Decimal {
	return sum.Div(decimal.NewFromInt(int64(n)))
}

func (DecimalOps) Cmp(a, b decimal.Decimal) int { return a.Cmp(b) }

func (DecimalOps) NaN() (decimal.Decimal, bool) { return decimal.Decimal{}, false }
