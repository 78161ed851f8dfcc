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

package expression

import (
	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/types"
)

var arithmeticTag = query.NewKeyTag()

// ArithOp is an arithmetic or bitwise operator.
type ArithOp byte

const (
	AddOp ArithOp = iota
	SubOp
	MulOp
	DivOp
	RemOp
	BitAndOp
	BitOrOp
	BitXorOp
)

func (op ArithOp) String() string {
	switch op {
	case AddOp:
		return "+"
	case SubOp:
		return "-"
	case MulOp:
		return "*"
	case DivOp:
		return "/"
	case RemOp:
		return "%"
	case BitAndOp:
		return "&"
	case BitOrOp:
		return "|"
	default:
		return "^"
	}
}

// Arithmetic applies a numeric or bitwise operator over two operands
// coerced to their strict common type.
type Arithmetic struct {
	span
	op    ArithOp
	left  query.Expression
	right query.Expression
	typ   query.Type
}

// NewArithmetic widens both operands to their common arithmetic type and
// builds the node.
func NewArithmetic(op ArithOp, left, right query.Expression) (query.Expression, error) {
	common, err := types.CommonType(left.Type(), right.Type(), types.OpArithmetic)
	if err != nil {
		return nil, query.WrapError(err, left.Start(), right.End())
	}
	cl, err := left.AsType(common)
	if err != nil {
		return nil, err
	}
	cr, err := right.AsType(common)
	if err != nil {
		return nil, err
	}
	return &Arithmetic{
		span:  span{left.Start(), right.End()},
		op:    op,
		left:  cl,
		right: cr,
		typ:   common,
	}, nil
}

func (a *Arithmetic) Op() ArithOp             { return a.op }
func (a *Arithmetic) Left() query.Expression  { return a.left }
func (a *Arithmetic) Right() query.Expression { return a.right }

func (a *Arithmetic) Type() query.Type { return a.typ }

func (a *Arithmetic) String() string {
	return "(" + a.left.String() + " " + a.op.String() + " " + a.right.String() + ")"
}

func (a *Arithmetic) AsType(t query.Type) (query.Expression, error) {
	if a.typ.Equals(t) {
		return a, nil
	}
	return NewConvert(a, t)
}

func (a *Arithmetic) Not(pos int) (query.Expression, error) {
	return nil, query.WrapError(query.ErrNotBoolean.New(a.typ), a.start, a.end)
}

func (a *Arithmetic) Negate(pos int, widen bool) (query.Expression, error) {
	return negateByZeroMinus(a, pos, widen)
}

func (a *Arithmetic) SupportsLogicalNot() bool { return false }

func (a *Arithmetic) IsPure() bool     { return allPure(a.left, a.right) }
func (a *Arithmetic) IsConstant() bool { return a.left.IsConstant() && a.right.IsConstant() }
func (a *Arithmetic) IsNullable() bool { return a.typ.IsNullable() }
func (a *Arithmetic) IsZero() bool     { return false }
func (a *Arithmetic) IsOne() bool      { return false }
func (a *Arithmetic) IsNull() bool     { return false }
func (a *Arithmetic) IsTrivial() bool  { return false }

func (a *Arithmetic) IsOrderDependent() bool { return anyOrderDependent(a.left, a.right) }
func (a *Arithmetic) IsGrouping() bool       { return anyGrouping(a.left, a.right) }
func (a *Arithmetic) IsAccumulating() bool   { return anyAccumulating(a.left, a.right) }
func (a *Arithmetic) IsAggregating() bool    { return anyAggregating(a.left, a.right) }

func (a *Arithmetic) CanThrowRuntime() bool {
	if anyThrows(a.left, a.right) {
		return true
	}
	switch a.op {
	case DivOp, RemOp:
		return true
	case BitAndOp, BitOrOp, BitXorOp:
		return false
	}
	// Fixed width integer addition can overflow.
	if bt, ok := a.typ.(*types.BasicType); ok {
		return bt.Class().IsInteger()
	}
	return false
}

func (a *Arithmetic) AsAggregate(groupColumns []string) (query.Expression, error) {
	return rebuildBinary(a, groupColumns, nil, false)
}

func (a *Arithmetic) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	return rebuildBinary(a, nil, reassignments, true)
}

// rebuildBinary reapplies AsAggregate or AsWindow over the operands of an
// arithmetic node.
func rebuildBinary(a *Arithmetic, groupColumns []string, reassignments map[string]query.Expression, window bool) (query.Expression, error) {
	var l, r query.Expression
	var err error
	if window {
		l, err = a.left.AsWindow(reassignments)
	} else {
		l, err = a.left.AsAggregate(groupColumns)
	}
	if err != nil {
		return nil, err
	}
	if window {
		r, err = a.right.AsWindow(reassignments)
	} else {
		r, err = a.right.AsAggregate(groupColumns)
	}
	if err != nil {
		return nil, err
	}
	if l == a.left && r == a.right {
		return a, nil
	}
	return NewArithmetic(a.op, l, r)
}

func (a *Arithmetic) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, a); ok {
		return r
	}
	l := a.left.Replace(m)
	r := a.right.Replace(m)
	if l == a.left && r == a.right {
		return a
	}
	n := *a
	n.left, n.right = l, r
	return &n
}

func (a *Arithmetic) SourceColumn() *query.Column { return nil }
func (a *Arithmetic) MaxArgument() int            { return maxArgument(a.left, a.right) }

func (a *Arithmetic) GatherEvalColumns(collect func(*query.Column)) {
	gatherAll(collect, a.left, a.right)
}

func (a *Arithmetic) ToRowFilter(*query.RowInfo, map[string]*query.Column) query.RowFilter {
	return opaque(a)
}

func (a *Arithmetic) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(arithmeticTag)
	enc.WriteU8(byte(a.op))
	a.left.EncodeKey(enc)
	a.right.EncodeKey(enc)
}

func (a *Arithmetic) Equals(other query.Expression) bool {
	o, ok := other.(*Arithmetic)
	return ok && o.op == a.op && a.left.Equals(o.left) && a.right.Equals(o.right)
}

func (a *Arithmetic) Children() []query.Expression {
	return []query.Expression{a.left, a.right}
}

// negateByZeroMinus rewrites -e as 0 - e for non-constant operands. Constant
// negation folds in the Constant node instead, where overflow promotion
// applies.
func negateByZeroMinus(e query.Expression, pos int, widen bool) (query.Expression, error) {
	zero := NewConstant(int32(0), types.Int32, pos, pos)
	neg, err := NewArithmetic(SubOp, zero, e)
	if err != nil {
		return nil, err
	}
	return neg, nil
}

var bitNotTag = query.NewKeyTag()

// BitNot is the ones' complement over the integer family.
type BitNot struct {
	span
	inner query.Expression
}

func NewBitNot(inner query.Expression, start int) (query.Expression, error) {
	bt, ok := inner.Type().(*types.BasicType)
	if !ok || !bt.Class().IsInteger() {
		return nil, query.WrapError(
			query.ErrNotNumeric.New(inner.Type()), start, inner.End())
	}
	return &BitNot{span: span{start, inner.End()}, inner: inner}, nil
}

func (n *BitNot) Inner() query.Expression { return n.inner }

func (n *BitNot) Type() query.Type { return n.inner.Type() }

func (n *BitNot) String() string { return "~" + n.inner.String() }

func (n *BitNot) AsType(t query.Type) (query.Expression, error) {
	if n.Type().Equals(t) {
		return n, nil
	}
	return NewConvert(n, t)
}

func (n *BitNot) Not(pos int) (query.Expression, error) {
	return nil, query.WrapError(query.ErrNotBoolean.New(n.Type()), n.start, n.end)
}

func (n *BitNot) Negate(pos int, widen bool) (query.Expression, error) {
	return negateByZeroMinus(n, pos, widen)
}

func (n *BitNot) SupportsLogicalNot() bool { return false }

func (n *BitNot) IsPure() bool     { return n.inner.IsPure() }
func (n *BitNot) IsConstant() bool { return n.inner.IsConstant() }
func (n *BitNot) IsNullable() bool { return n.inner.IsNullable() }
func (n *BitNot) IsZero() bool     { return false }
func (n *BitNot) IsOne() bool      { return false }
func (n *BitNot) IsNull() bool     { return false }
func (n *BitNot) IsTrivial() bool  { return false }

func (n *BitNot) IsOrderDependent() bool { return n.inner.IsOrderDependent() }
func (n *BitNot) IsGrouping() bool       { return n.inner.IsGrouping() }
func (n *BitNot) IsAccumulating() bool   { return n.inner.IsAccumulating() }
func (n *BitNot) IsAggregating() bool    { return n.inner.IsAggregating() }
func (n *BitNot) CanThrowRuntime() bool  { return n.inner.CanThrowRuntime() }

func (n *BitNot) AsAggregate(groupColumns []string) (query.Expression, error) {
	inner, err := n.inner.AsAggregate(groupColumns)
	if err != nil {
		return nil, err
	}
	if inner == n.inner {
		return n, nil
	}
	return NewBitNot(inner, n.start)
}

func (n *BitNot) AsWindow(reassignments map[string]query.Expression) (query.Expression, error) {
	inner, err := n.inner.AsWindow(reassignments)
	if err != nil {
		return nil, err
	}
	if inner == n.inner {
		return n, nil
	}
	return NewBitNot(inner, n.start)
}

func (n *BitNot) Replace(m map[query.Expression]query.Expression) query.Expression {
	if r, ok := replaced(m, n); ok {
		return r
	}
	inner := n.inner.Replace(m)
	if inner == n.inner {
		return n
	}
	nn := *n
	nn.inner = inner
	return &nn
}

func (n *BitNot) SourceColumn() *query.Column { return nil }
func (n *BitNot) MaxArgument() int            { return n.inner.MaxArgument() }

func (n *BitNot) GatherEvalColumns(collect func(*query.Column)) {
	n.inner.GatherEvalColumns(collect)
}

func (n *BitNot) ToRowFilter(*query.RowInfo, map[string]*query.Column) query.RowFilter {
	return opaque(n)
}

func (n *BitNot) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(bitNotTag)
	n.inner.EncodeKey(enc)
}

func (n *BitNot) Equals(other query.Expression) bool {
	o, ok := other.(*BitNot)
	return ok && n.inner.Equals(o.inner)
}

func (n *BitNot) Children() []query.Expression { return []query.Expression{n.inner} }
