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
	"fmt"

	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrSyntax is returned when the tokenizer finds a malformed literal or
	// an unterminated string.
	ErrSyntax = errors.NewKind("syntax error: %s")

	// ErrUnexpectedToken is returned when the parser finds a token it cannot
	// place in the grammar.
	ErrUnexpectedToken = errors.NewKind("unexpected token %q")

	// ErrUnexpectedEOF is returned when the source ends mid-production.
	ErrUnexpectedEOF = errors.NewKind("unexpected end of query")

	// ErrColumnNotFound is returned when a dotted path does not resolve
	// against the row schema.
	ErrColumnNotFound = errors.NewKind("unknown column: %s%s")

	// ErrDuplicateColumn is returned when a projection names the same column
	// more than once.
	ErrDuplicateColumn = errors.NewKind("duplicate column: %s")

	// ErrTypeMismatch is returned when an expression cannot be converted to
	// the requested type.
	ErrTypeMismatch = errors.NewKind("cannot convert %s to %s")

	// ErrNoCommonType is returned when two operand types have no widening
	// target.
	ErrNoCommonType = errors.NewKind("no common type for %s and %s")

	// ErrNotBoolean is returned when a filter expression is not boolean.
	ErrNotBoolean = errors.NewKind("filter must be a boolean expression, not %s")

	// ErrNotNumeric is returned when arithmetic is applied to a non-numeric
	// operand.
	ErrNotNumeric = errors.NewKind("numeric operand required, not %s")

	// ErrNotSupported is returned when an operation is not defined for an
	// expression variant, such as logical not over arithmetic.
	ErrNotSupported = errors.NewKind("operation not supported: %s")

	// ErrRepeatedNonPure is returned when normalization would duplicate a
	// non-pure expression.
	ErrRepeatedNonPure = errors.NewKind("filter requires repeating a non-pure expression")

	// ErrComplexFilter is returned by CNF conversion when the clause budget
	// is exceeded. The planner recovers from it locally.
	ErrComplexFilter = errors.NewKind("filter too complex for normal form")

	// ErrAggregateContext is returned when an expression cannot be used in
	// an aggregate or window position.
	ErrAggregateContext = errors.NewKind("expression cannot be aggregated: %s")

	// ErrNotTuple is returned when a value cannot be read as a tuple row.
	ErrNotTuple = errors.NewKind("value of type %s is not a tuple")

	// ErrInvalidColumnNumber is returned when a tuple value has the wrong
	// arity for its row type.
	ErrInvalidColumnNumber = errors.NewKind("tuple has %d columns, expected %d")

	// ErrKeyTagsExhausted is returned when the process-global key tag space
	// wraps around.
	ErrKeyTagsExhausted = errors.NewKind("key encoder tag space exhausted")

	// ErrCacheDisposed is returned when a cache is used after Dispose.
	ErrCacheDisposed = errors.NewKind("code cache already disposed")
)

// QueryError wraps a compile-time error with the source span it was raised
// at. The span is half-open: [Start, End).
type QueryError struct {
	Err   error
	Start int
	End   int
}

// WrapError attaches a source span to err. Errors that already carry a span
// are returned unchanged so the innermost position wins.
func WrapError(err error, start, end int) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*QueryError); ok {
		return err
	}
	return &QueryError{Err: err, Start: start, End: end}
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s at [%d..%d)", e.Err.Error(), e.Start, e.End)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Cause returns the wrapped error.
func (e *QueryError) Cause() error { return e.Err }

// ErrorSpan reports the source span carried by err, if any.
func ErrorSpan(err error) (start, end int, ok bool) {
	qe, ok := err.(*QueryError)
	if !ok {
		return 0, 0, false
	}
	return qe.Start, qe.End, true
}
