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
	"strings"
)

// CompareOp is a relational operator in the column-filter algebra.
type CompareOp byte

const (
	OpEq CompareOp = iota
	OpNe
	OpGe
	OpLt
	OpLe
	OpGt
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	default:
		return ">"
	}
}

// Complement returns the logically complementary operator.
func (op CompareOp) Complement() CompareOp {
	switch op {
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	case OpGe:
		return OpLt
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	default:
		return OpLe
	}
}

// Reverse returns the operator with its operands swapped.
func (op CompareOp) Reverse() CompareOp {
	switch op {
	case OpGe:
		return OpLe
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	default:
		return op
	}
}

// EvalCompare applies the operator to a three-way comparison result.
func (op CompareOp) EvalCompare(cmp int) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGe:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	default:
		return cmp > 0
	}
}

// FilterEnv supplies runtime values to a filter evaluation: column reads of
// the current row, positional arguments, and evaluation of opaque
// expressions. The eval package provides the standard implementation.
type FilterEnv interface {
	ColumnValue(col *Column) (interface{}, error)
	Argument(ordinal int) (interface{}, error)
	EvalOpaque(e Expression) (interface{}, error)
}

// RowFilter is a predicate in the column-filter algebra. Filters are
// immutable; every operation returns a new filter or a shared terminal.
type RowFilter interface {
	fmt.Stringer

	// And conjoins, flattening nested conjunctions and applying terminal
	// identities.
	And(other RowFilter) RowFilter

	// Or disjoins, flattening nested disjunctions and applying terminal
	// identities.
	Or(other RowFilter) RowFilter

	// Not returns the complement, pushed down to the leaves where the
	// algebra allows.
	Not() RowFilter

	// CNF converts to conjunctive normal form. It returns ErrComplexFilter
	// when the clause count would exceed budget.
	CNF(budget int) (RowFilter, error)

	// ReduceMore applies idempotence, absorption, and contradiction and
	// tautology elimination. It is itself idempotent.
	ReduceMore() RowFilter

	// Split partitions a conjunction into the part referencing only the
	// given columns with no opaque terms, and the residual. Conjoining the
	// two halves is equivalent to the original filter.
	Split(allColumns map[string]*Column) (pushable, residual RowFilter)

	// Matches evaluates the filter against env.
	Matches(env FilterEnv) (bool, error)

	// EncodeKey writes the filter's canonical image to enc.
	EncodeKey(enc *KeyEncoder)

	// Equals reports structural equality.
	Equals(other RowFilter) bool
}

var (
	filterTagTrue       = NewKeyTag()
	filterTagFalse      = NewKeyTag()
	filterTagAnd        = NewKeyTag()
	filterTagOr         = NewKeyTag()
	filterTagNot        = NewKeyTag()
	filterTagColToArg   = NewKeyTag()
	filterTagColToConst = NewKeyTag()
	filterTagColToCol   = NewKeyTag()
	filterTagIn         = NewKeyTag()
	filterTagOpaque     = NewKeyTag()
)

// TrueFilter and FalseFilter are the shared terminals of the algebra.
var (
	TrueFilter  RowFilter = trueFilter{}
	FalseFilter RowFilter = falseFilter{}
)

type trueFilter struct{}

func (trueFilter) String() string                  { return "true" }
func (trueFilter) And(other RowFilter) RowFilter   { return other }
func (trueFilter) Or(RowFilter) RowFilter          { return TrueFilter }
func (trueFilter) Not() RowFilter                  { return FalseFilter }
func (trueFilter) CNF(int) (RowFilter, error)      { return TrueFilter, nil }
func (trueFilter) ReduceMore() RowFilter           { return TrueFilter }
func (trueFilter) Matches(FilterEnv) (bool, error) { return true, nil }
func (trueFilter) Equals(other RowFilter) bool     { return other == TrueFilter }
func (trueFilter) EncodeKey(enc *KeyEncoder)       { enc.WriteU8(filterTagTrue) }

func (trueFilter) Split(map[string]*Column) (RowFilter, RowFilter) {
	return TrueFilter, TrueFilter
}

type falseFilter struct{}

func (falseFilter) String() string                  { return "false" }
func (falseFilter) And(RowFilter) RowFilter         { return FalseFilter }
func (falseFilter) Or(other RowFilter) RowFilter    { return other }
func (falseFilter) Not() RowFilter                  { return TrueFilter }
func (falseFilter) CNF(int) (RowFilter, error)      { return FalseFilter, nil }
func (falseFilter) ReduceMore() RowFilter           { return FalseFilter }
func (falseFilter) Matches(FilterEnv) (bool, error) { return false, nil }
func (falseFilter) Equals(other RowFilter) bool     { return other == FalseFilter }
func (falseFilter) EncodeKey(enc *KeyEncoder)       { enc.WriteU8(filterTagFalse) }

func (falseFilter) Split(map[string]*Column) (RowFilter, RowFilter) {
	return FalseFilter, TrueFilter
}

// AndFilter is a flat conjunction of two or more children.
type AndFilter struct {
	Children []RowFilter
}

// OrFilter is a flat disjunction of two or more children.
type OrFilter struct {
	Children []RowFilter
}

// NewAnd conjoins filters, flattening and applying terminal identities.
func NewAnd(filters ...RowFilter) RowFilter {
	children := make([]RowFilter, 0, len(filters))
	for _, f := range filters {
		switch f := f.(type) {
		case trueFilter:
			continue
		case falseFilter:
			return FalseFilter
		case *AndFilter:
			children = append(children, f.Children...)
		default:
			children = append(children, f)
		}
	}
	switch len(children) {
	case 0:
		return TrueFilter
	case 1:
		return children[0]
	}
	return &AndFilter{Children: children}
}

// NewOr disjoins filters, flattening and applying terminal identities.
func NewOr(filters ...RowFilter) RowFilter {
	children := make([]RowFilter, 0, len(filters))
	for _, f := range filters {
		switch f := f.(type) {
		case falseFilter:
			continue
		case trueFilter:
			return TrueFilter
		case *OrFilter:
			children = append(children, f.Children...)
		default:
			children = append(children, f)
		}
	}
	switch len(children) {
	case 0:
		return FalseFilter
	case 1:
		return children[0]
	}
	return &OrFilter{Children: children}
}

func (f *AndFilter) String() string {
	parts := make([]string, len(f.Children))
	for i, c := range f.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " && ") + ")"
}

func (f *AndFilter) And(other RowFilter) RowFilter { return NewAnd(f, other) }
func (f *AndFilter) Or(other RowFilter) RowFilter  { return NewOr(f, other) }

func (f *AndFilter) Not() RowFilter {
	neg := make([]RowFilter, len(f.Children))
	for i, c := range f.Children {
		neg[i] = c.Not()
	}
	return NewOr(neg...)
}

func (f *AndFilter) Matches(env FilterEnv) (bool, error) {
	for _, c := range f.Children {
		ok, err := c.Matches(env)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (f *AndFilter) EncodeKey(enc *KeyEncoder) {
	enc.WriteU8(filterTagAnd)
	enc.WriteLength(len(f.Children), false)
	for _, c := range f.Children {
		c.EncodeKey(enc)
	}
}

func (f *AndFilter) Equals(other RowFilter) bool {
	o, ok := other.(*AndFilter)
	return ok && filtersEqual(f.Children, o.Children)
}

func (f *OrFilter) String() string {
	parts := make([]string, len(f.Children))
	for i, c := range f.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

func (f *OrFilter) And(other RowFilter) RowFilter { return NewAnd(f, other) }
func (f *OrFilter) Or(other RowFilter) RowFilter  { return NewOr(f, other) }

func (f *OrFilter) Not() RowFilter {
	neg := make([]RowFilter, len(f.Children))
	for i, c := range f.Children {
		neg[i] = c.Not()
	}
	return NewAnd(neg...)
}

func (f *OrFilter) Matches(env FilterEnv) (bool, error) {
	for _, c := range f.Children {
		ok, err := c.Matches(env)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (f *OrFilter) EncodeKey(enc *KeyEncoder) {
	enc.WriteU8(filterTagOr)
	enc.WriteLength(len(f.Children), false)
	for _, c := range f.Children {
		c.EncodeKey(enc)
	}
}

func (f *OrFilter) Equals(other RowFilter) bool {
	o, ok := other.(*OrFilter)
	return ok && filtersEqual(f.Children, o.Children)
}

func filtersEqual(a, b []RowFilter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// NotFilter survives only around terms whose complement has no direct form.
type NotFilter struct {
	Child RowFilter
}

// NewNot returns the complement of f, normalizing away the wrapper wherever
// the child supports direct complementation.
func NewNot(f RowFilter) RowFilter { return f.Not() }

func (f *NotFilter) String() string                { return "!(" + f.Child.String() + ")" }
func (f *NotFilter) And(other RowFilter) RowFilter { return NewAnd(f, other) }
func (f *NotFilter) Or(other RowFilter) RowFilter  { return NewOr(f, other) }
func (f *NotFilter) Not() RowFilter                { return f.Child }

func (f *NotFilter) Matches(env FilterEnv) (bool, error) {
	ok, err := f.Child.Matches(env)
	return !ok, err
}

func (f *NotFilter) EncodeKey(enc *KeyEncoder) {
	enc.WriteU8(filterTagNot)
	f.Child.EncodeKey(enc)
}

func (f *NotFilter) Equals(other RowFilter) bool {
	o, ok := other.(*NotFilter)
	return ok && f.Child.Equals(o.Child)
}

// ColumnToArgFilter compares a column against a positional argument.
type ColumnToArgFilter struct {
	Col     *Column
	Op      CompareOp
	Ordinal int
}

func NewColumnToArg(col *Column, op CompareOp, ordinal int) *ColumnToArgFilter {
	return &ColumnToArgFilter{Col: col, Op: op, Ordinal: ordinal}
}

func (f *ColumnToArgFilter) String() string {
	return fmt.Sprintf("%s %s ?%d", f.Col.Name, f.Op, f.Ordinal)
}

func (f *ColumnToArgFilter) And(other RowFilter) RowFilter { return NewAnd(f, other) }
func (f *ColumnToArgFilter) Or(other RowFilter) RowFilter  { return NewOr(f, other) }

func (f *ColumnToArgFilter) Not() RowFilter {
	return &ColumnToArgFilter{Col: f.Col, Op: f.Op.Complement(), Ordinal: f.Ordinal}
}

func (f *ColumnToArgFilter) Matches(env FilterEnv) (bool, error) {
	left, err := env.ColumnValue(f.Col)
	if err != nil {
		return false, err
	}
	right, err := env.Argument(f.Ordinal)
	if err != nil {
		return false, err
	}
	cmp, err := f.Col.Type.Compare(left, right)
	if err != nil {
		return false, err
	}
	return f.Op.EvalCompare(cmp), nil
}

func (f *ColumnToArgFilter) EncodeKey(enc *KeyEncoder) {
	enc.WriteU8(filterTagColToArg)
	enc.EncodeObject(f.Col.Name)
	enc.WriteU8(byte(f.Op))
	enc.WriteUvarint(uint64(f.Ordinal))
}

func (f *ColumnToArgFilter) Equals(other RowFilter) bool {
	o, ok := other.(*ColumnToArgFilter)
	return ok && f.Col.Name == o.Col.Name && f.Op == o.Op && f.Ordinal == o.Ordinal
}

// ColumnToConstantFilter compares a column against a constant value.
type ColumnToConstantFilter struct {
	Col   *Column
	Op    CompareOp
	Value interface{}
	Typ   Type
}

func NewColumnToConstant(col *Column, op CompareOp, value interface{}, typ Type) *ColumnToConstantFilter {
	return &ColumnToConstantFilter{Col: col, Op: op, Value: value, Typ: typ}
}

func (f *ColumnToConstantFilter) String() string {
	return fmt.Sprintf("%s %s %v", f.Col.Name, f.Op, f.Value)
}

func (f *ColumnToConstantFilter) And(other RowFilter) RowFilter { return NewAnd(f, other) }
func (f *ColumnToConstantFilter) Or(other RowFilter) RowFilter  { return NewOr(f, other) }

func (f *ColumnToConstantFilter) Not() RowFilter {
	return &ColumnToConstantFilter{Col: f.Col, Op: f.Op.Complement(), Value: f.Value, Typ: f.Typ}
}

func (f *ColumnToConstantFilter) Matches(env FilterEnv) (bool, error) {
	left, err := env.ColumnValue(f.Col)
	if err != nil {
		return false, err
	}
	cmp, err := f.Col.Type.Compare(left, f.Value)
	if err != nil {
		return false, err
	}
	return f.Op.EvalCompare(cmp), nil
}

func (f *ColumnToConstantFilter) EncodeKey(enc *KeyEncoder) {
	enc.WriteU8(filterTagColToConst)
	enc.EncodeObject(f.Col.Name)
	enc.WriteU8(byte(f.Op))
	enc.EncodeObject(fmt.Sprintf("%v", f.Value))
}

func (f *ColumnToConstantFilter) Equals(other RowFilter) bool {
	o, ok := other.(*ColumnToConstantFilter)
	return ok && f.Col.Name == o.Col.Name && f.Op == o.Op && f.Value == o.Value
}

// ColumnToColumnFilter compares two columns of the same row.
type ColumnToColumnFilter struct {
	Left  *Column
	Op    CompareOp
	Right *Column
}

func NewColumnToColumn(left *Column, op CompareOp, right *Column) *ColumnToColumnFilter {
	return &ColumnToColumnFilter{Left: left, Op: op, Right: right}
}

func (f *ColumnToColumnFilter) String() string {
	return fmt.Sprintf("%s %s %s", f.Left.Name, f.Op, f.Right.Name)
}

func (f *ColumnToColumnFilter) And(other RowFilter) RowFilter { return NewAnd(f, other) }
func (f *ColumnToColumnFilter) Or(other RowFilter) RowFilter  { return NewOr(f, other) }

func (f *ColumnToColumnFilter) Not() RowFilter {
	return &ColumnToColumnFilter{Left: f.Left, Op: f.Op.Complement(), Right: f.Right}
}

func (f *ColumnToColumnFilter) Matches(env FilterEnv) (bool, error) {
	left, err := env.ColumnValue(f.Left)
	if err != nil {
		return false, err
	}
	right, err := env.ColumnValue(f.Right)
	if err != nil {
		return false, err
	}
	cmp, err := f.Left.Type.Compare(left, right)
	if err != nil {
		return false, err
	}
	return f.Op.EvalCompare(cmp), nil
}

func (f *ColumnToColumnFilter) EncodeKey(enc *KeyEncoder) {
	enc.WriteU8(filterTagColToCol)
	enc.EncodeObject(f.Left.Name)
	enc.WriteU8(byte(f.Op))
	enc.EncodeObject(f.Right.Name)
}

func (f *ColumnToColumnFilter) Equals(other RowFilter) bool {
	o, ok := other.(*ColumnToColumnFilter)
	return ok && f.Left.Name == o.Left.Name && f.Op == o.Op && f.Right.Name == o.Right.Name
}

// InFilter tests column membership in an argument array.
type InFilter struct {
	Col     *Column
	Ordinal int
	Negated bool
}

func NewIn(col *Column, ordinal int) *InFilter {
	return &InFilter{Col: col, Ordinal: ordinal}
}

func (f *InFilter) String() string {
	if f.Negated {
		return fmt.Sprintf("!(%s in ?%d)", f.Col.Name, f.Ordinal)
	}
	return fmt.Sprintf("%s in ?%d", f.Col.Name, f.Ordinal)
}

func (f *InFilter) And(other RowFilter) RowFilter { return NewAnd(f, other) }
func (f *InFilter) Or(other RowFilter) RowFilter  { return NewOr(f, other) }

func (f *InFilter) Not() RowFilter {
	return &InFilter{Col: f.Col, Ordinal: f.Ordinal, Negated: !f.Negated}
}

func (f *InFilter) Matches(env FilterEnv) (bool, error) {
	left, err := env.ColumnValue(f.Col)
	if err != nil {
		return false, err
	}
	arg, err := env.Argument(f.Ordinal)
	if err != nil {
		return false, err
	}
	values, ok := arg.([]interface{})
	if !ok {
		return false, ErrTypeMismatch.New(fmt.Sprintf("%T", arg), "array")
	}
	found := false
	for _, v := range values {
		cmp, err := f.Col.Type.Compare(left, v)
		if err != nil {
			return false, err
		}
		if cmp == 0 {
			found = true
			break
		}
	}
	return found != f.Negated, nil
}

func (f *InFilter) EncodeKey(enc *KeyEncoder) {
	enc.WriteU8(filterTagIn)
	enc.EncodeObject(f.Col.Name)
	enc.WriteBool(f.Negated)
	enc.WriteUvarint(uint64(f.Ordinal))
}

func (f *InFilter) Equals(other RowFilter) bool {
	o, ok := other.(*InFilter)
	return ok && f.Col.Name == o.Col.Name && f.Ordinal == o.Ordinal && f.Negated == o.Negated
}

// OpaqueFilter carries a boolean expression that does not decompose into the
// column algebra. It is never pushable.
type OpaqueFilter struct {
	Expr    Expression
	Negated bool
}

func NewOpaque(e Expression) *OpaqueFilter {
	return &OpaqueFilter{Expr: e}
}

func (f *OpaqueFilter) String() string {
	if f.Negated {
		return "!{" + f.Expr.String() + "}"
	}
	return "{" + f.Expr.String() + "}"
}

func (f *OpaqueFilter) And(other RowFilter) RowFilter { return NewAnd(f, other) }
func (f *OpaqueFilter) Or(other RowFilter) RowFilter  { return NewOr(f, other) }

func (f *OpaqueFilter) Not() RowFilter {
	return &OpaqueFilter{Expr: f.Expr, Negated: !f.Negated}
}

func (f *OpaqueFilter) Matches(env FilterEnv) (bool, error) {
	v, err := env.EvalOpaque(f.Expr)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		if v == nil {
			return false, nil
		}
		return false, ErrNotBoolean.New(fmt.Sprintf("%T", v))
	}
	return b != f.Negated, nil
}

func (f *OpaqueFilter) EncodeKey(enc *KeyEncoder) {
	enc.WriteU8(filterTagOpaque)
	enc.WriteBool(f.Negated)
	f.Expr.EncodeKey(enc)
}

func (f *OpaqueFilter) Equals(other RowFilter) bool {
	o, ok := other.(*OpaqueFilter)
	return ok && f.Negated == o.Negated && f.Expr.Equals(o.Expr)
}
