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

// WindowBuffer extends the ring buffer with a row-relative frame: start and
// end are inclusive offsets of the buffered values relative to the current
// row, which sits at offset zero.
type WindowBuffer[V any] struct {
	*Buffer[V]
	start int
	end   int
}

// NewWindowBuffer builds a window buffer whose first stored value sits at
// the given offset from the current row.
func NewWindowBuffer[V any](ops Ops[V], capacity int, nullable bool, startOffset int) *WindowBuffer[V] {
	return &WindowBuffer[V]{
		Buffer: NewBuffer[V](ops, capacity, nullable),
		start:  startOffset,
		end:    startOffset - 1,
	}
}

// StartOffset and EndOffset are the inclusive offsets of the buffered
// values.
func (w *WindowBuffer[V]) StartOffset() int { return w.start }
func (w *WindowBuffer[V]) EndOffset() int   { return w.end }

// Append adds a value at the trailing edge of the window.
func (w *WindowBuffer[V]) Append(v *V) {
	w.Add(v)
	w.end++
}

// Advance moves to the next row without discarding: both offsets shift by
// one. Used when the frame start is unbounded.
func (w *WindowBuffer[V]) Advance() {
	w.start--
	w.end--
}

// AdvanceAndRemove moves to the next row and discards leading values that
// fell out of a frame starting at frameStart.
func (w *WindowBuffer[V]) AdvanceAndRemove(frameStart int) {
	w.start--
	w.end--
	for w.start < frameStart && w.Size() > 0 {
		w.RemoveFirst()
		w.start++
	}
}

// frameRange clamps [frameStart, frameEnd] to the buffered offsets and maps
// it to a buffer position range. A non-positive num is an empty frame.
func (w *WindowBuffer[V]) frameRange(frameStart, frameEnd int) (from, num int) {
	if frameStart < w.start {
		frameStart = w.start
	}
	if frameEnd > w.end {
		frameEnd = w.end
	}
	return frameStart - w.start, frameEnd - frameStart + 1
}

// FrameCount counts non-null values over the clamped frame.
func (w *WindowBuffer[V]) FrameCount(frameStart, frameEnd int) int {
	from, num := w.frameRange(frameStart, frameEnd)
	if num <= 0 {
		return 0
	}
	return w.Count(from, num)
}

// FrameSum sums over the clamped frame; an empty frame sums to zero.
func (w *WindowBuffer[V]) FrameSum(frameStart, frameEnd int) V {
	from, num := w.frameRange(frameStart, frameEnd)
	if num <= 0 {
		return w.ops.Zero()
	}
	return w.Sum(from, num)
}

// FrameAverage averages over the clamped frame with the type's empty-range
// behavior.
func (w *WindowBuffer[V]) FrameAverage(frameStart, frameEnd int) (*V, error) {
	from, num := w.frameRange(frameStart, frameEnd)
	if num <= 0 {
		num = 0
	}
	return w.Average(from, num)
}

// FrameMin returns the minimum over the clamped frame, or null when empty.
func (w *WindowBuffer[V]) FrameMin(frameStart, frameEnd int) *V {
	from, num := w.frameRange(frameStart, frameEnd)
	if num <= 0 {
		return nil
	}
	return w.Min(from, num)
}

// FrameMax returns the maximum over the clamped frame, or null when empty.
func (w *WindowBuffer[V]) FrameMax(frameStart, frameEnd int) *V {
	from, num := w.frameRange(frameStart, frameEnd)
	if num <= 0 {
		return nil
	}
	return w.Max(from, num)
}
