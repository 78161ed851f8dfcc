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

package eval

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/expression"
	"github.com/rowkit/go-tuple-query/query/types"
)

// Eval interprets an expression against a context. It is the reference
// emitter target: an emitted mapper must agree with it on every input.
func Eval(ctx *Context, e query.Expression) (interface{}, error) {
	if e.IsPure() && !e.IsTrivial() {
		if v, ok := ctx.Memoized(e); ok {
			return v, nil
		}
	}
	v, err := eval(ctx, e)
	if err != nil {
		return nil, err
	}
	if e.IsPure() && !e.IsTrivial() {
		ctx.Memoize(e, v)
	}
	return v, nil
}

func eval(ctx *Context, e query.Expression) (interface{}, error) {
	switch e := e.(type) {
	case *expression.Constant:
		return e.Value(), nil

	case *expression.Param:
		v, err := ctx.Argument(e.Ordinal())
		if err != nil {
			return nil, err
		}
		if e.Type() == types.Any {
			return v, nil
		}
		return e.Type().Convert(v)

	case *expression.ColumnRef:
		return readColumn(ctx, e.Column())

	case *expression.Assign:
		v, err := Eval(ctx, e.Inner())
		if err != nil {
			return nil, err
		}
		ctx.SetLocal(e.Name(), v)
		return v, nil

	case *expression.Var:
		v, ok := ctx.Local(e.Assign().Name())
		if !ok {
			return nil, query.ErrNotSupported.New("unbound local " + e.Assign().Name())
		}
		return v, nil

	case *expression.Wrapped:
		return Eval(ctx, e.Inner())

	case *expression.Proj:
		return Eval(ctx, e.Inner())

	case *expression.Convert:
		v, err := Eval(ctx, e.Inner())
		if err != nil {
			return nil, err
		}
		return e.Type().Convert(v)

	case *expression.BitNot:
		return evalBitNot(ctx, e)

	case *expression.Arithmetic:
		return evalArithmetic(ctx, e)

	case *expression.Comparison:
		return evalComparison(ctx, e)

	case *expression.Logical:
		return evalLogical(ctx, e)

	case *expression.In:
		return evalIn(ctx, e)

	case *expression.Range:
		return evalRange(ctx, e)
	}
	return nil, query.ErrNotSupported.New("evaluating " + e.String())
}

// readColumn resolves a possibly dotted column path against the context
// row. A null intermediate row yields null.
func readColumn(ctx *Context, col *query.Column) (interface{}, error) {
	info := ctx.Info()
	if idx := info.Schema.IndexOf(col.Name); idx >= 0 {
		return ctx.Row()[idx], nil
	}

	segments := strings.Split(col.Name, ".")
	schema := info.Schema
	row := ctx.Row()
	for i, seg := range segments {
		idx := schema.IndexOf(seg)
		if idx < 0 {
			return nil, query.ErrColumnNotFound.New(col.Name, "")
		}
		v := row[idx]
		if i == len(segments)-1 {
			return v, nil
		}
		if v == nil {
			return nil, nil
		}
		nested, ok := schema[idx].Type.(*types.TupleType)
		if !ok {
			return nil, query.ErrColumnNotFound.New(col.Name, "")
		}
		row, ok = v.(query.Row)
		if !ok {
			return nil, query.ErrNotTuple.New(col.Name)
		}
		schema = nested.Columns()
	}
	return nil, query.ErrColumnNotFound.New(col.Name, "")
}

func evalBitNot(ctx *Context, e *expression.BitNot) (interface{}, error) {
	v, err := Eval(ctx, e.Inner())
	if err != nil || v == nil {
		return nil, err
	}
	cv, err := e.Type().Convert(v)
	if err != nil {
		return nil, err
	}
	switch n := cv.(type) {
	case int8:
		return ^n, nil
	case int16:
		return ^n, nil
	case int32:
		return ^n, nil
	case int64:
		return ^n, nil
	case uint8:
		return ^n, nil
	case uint16:
		return ^n, nil
	case uint32:
		return ^n, nil
	case uint64:
		return ^n, nil
	}
	return nil, query.ErrNotNumeric.New(e.Type())
}

func evalArithmetic(ctx *Context, e *expression.Arithmetic) (interface{}, error) {
	l, err := Eval(ctx, e.Left())
	if err != nil {
		return nil, err
	}
	r, err := Eval(ctx, e.Right())
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}
	t := e.Type()
	cl, err := t.Convert(l)
	if err != nil {
		return nil, err
	}
	cr, err := t.Convert(r)
	if err != nil {
		return nil, err
	}

	bt, ok := t.(*types.BasicType)
	if !ok {
		return nil, query.ErrNotNumeric.New(t)
	}
	class := bt.Class()
	switch {
	case class == types.BigIntClass:
		return bigIntArith(e.Op(), cl.(*big.Int), cr.(*big.Int))
	case class == types.BigDecimalClass:
		return decimalArith(e.Op(), cl.(decimal.Decimal), cr.(decimal.Decimal))
	case class.IsFloat():
		return floatArith(e.Op(), class, cl, cr)
	case class.IsUnsigned():
		return uintArith(e.Op(), class, cl, cr)
	default:
		return intArith(e.Op(), class, cl, cr)
	}
}

var errDivisionByZero = query.ErrNotSupported.New("division by zero")

func intArith(op expression.ArithOp, class types.Class, l, r interface{}) (interface{}, error) {
	a, _ := types.Int64.Convert(l)
	b, _ := types.Int64.Convert(r)
	x, y := a.(int64), b.(int64)
	var v int64
	switch op {
	case expression.AddOp:
		v = x + y
	case expression.SubOp:
		v = x - y
	case expression.MulOp:
		v = x * y
	case expression.DivOp:
		if y == 0 {
			return nil, errDivisionByZero
		}
		v = x / y
	case expression.RemOp:
		if y == 0 {
			return nil, errDivisionByZero
		}
		v = x % y
	case expression.BitAndOp:
		v = x & y
	case expression.BitOrOp:
		v = x | y
	default:
		v = x ^ y
	}
	return types.Basic(class, 0).Convert(v)
}

func uintArith(op expression.ArithOp, class types.Class, l, r interface{}) (interface{}, error) {
	a, _ := types.Uint64.Convert(l)
	b, _ := types.Uint64.Convert(r)
	x, y := a.(uint64), b.(uint64)
	var v uint64
	switch op {
	case expression.AddOp:
		v = x + y
	case expression.SubOp:
		v = x - y
	case expression.MulOp:
		v = x * y
	case expression.DivOp:
		if y == 0 {
			return nil, errDivisionByZero
		}
		v = x / y
	case expression.RemOp:
		if y == 0 {
			return nil, errDivisionByZero
		}
		v = x % y
	case expression.BitAndOp:
		v = x & y
	case expression.BitOrOp:
		v = x | y
	default:
		v = x ^ y
	}
	return types.Basic(class, 0).Convert(v)
}

func floatArith(op expression.ArithOp, class types.Class, l, r interface{}) (interface{}, error) {
	a, _ := types.Float64.Convert(l)
	b, _ := types.Float64.Convert(r)
	x, y := a.(float64), b.(float64)
	var v float64
	switch op {
	case expression.AddOp:
		v = x + y
	case expression.SubOp:
		v = x - y
	case expression.MulOp:
		v = x * y
	case expression.DivOp:
		v = x / y
	case expression.RemOp:
		return nil, query.ErrNotSupported.New("remainder over floats")
	default:
		return nil, query.ErrNotSupported.New("bitwise over floats")
	}
	if class == types.Float32Class {
		return float32(v), nil
	}
	return v, nil
}

func bigIntArith(op expression.ArithOp, x, y *big.Int) (interface{}, error) {
	z := new(big.Int)
	switch op {
	case expression.AddOp:
		return z.Add(x, y), nil
	case expression.SubOp:
		return z.Sub(x, y), nil
	case expression.MulOp:
		return z.Mul(x, y), nil
	case expression.DivOp:
		if y.Sign() == 0 {
			return nil, errDivisionByZero
		}
		return z.Quo(x, y), nil
	case expression.RemOp:
		if y.Sign() == 0 {
			return nil, errDivisionByZero
		}
		return z.Rem(x, y), nil
	case expression.BitAndOp:
		return z.And(x, y), nil
	case expression.BitOrOp:
		return z.Or(x, y), nil
	default:
		return z.Xor(x, y), nil
	}
}

func decimalArith(op expression.ArithOp, x, y decimal.Decimal) (interface{}, error) {
	switch op {
	case expression.AddOp:
		return x.Add(y), nil
	case expression.SubOp:
		return x.Sub(y), nil
	case expression.MulOp:
		return x.Mul(y), nil
	case expression.DivOp:
		if y.IsZero() {
			return nil, errDivisionByZero
		}
		return x.Div(y), nil
	case expression.RemOp:
		if y.IsZero() {
			return nil, errDivisionByZero
		}
		return x.Mod(y), nil
	default:
		return nil, query.ErrNotSupported.New("bitwise over decimals")
	}
}

func evalComparison(ctx *Context, e *expression.Comparison) (interface{}, error) {
	l, err := Eval(ctx, e.Left())
	if err != nil {
		return nil, err
	}
	r, err := Eval(ctx, e.Right())
	if err != nil {
		return nil, err
	}
	// A null operand makes the comparison unknown.
	if l == nil || r == nil {
		return nil, nil
	}
	cmp, err := e.CommonType().Compare(l, r)
	if err != nil {
		return nil, err
	}
	return e.Op().EvalCompare(cmp), nil
}

// evalLogical short-circuits, scoping memo entries of the right operand
// with a savepoint so a skipped branch never pollutes reuse.
func evalLogical(ctx *Context, e *expression.Logical) (interface{}, error) {
	l, err := Eval(ctx, e.Left())
	if err != nil {
		return nil, err
	}

	and := e.Op() == expression.AndLogical
	if b, ok := l.(bool); ok {
		if and && !b {
			return false, nil
		}
		if !and && b {
			return true, nil
		}
	}

	sp := ctx.RefSavepoint()
	r, err := Eval(ctx, e.Right())
	if err != nil {
		ctx.RefRollback(sp)
		return nil, err
	}
	ctx.RefCommit(sp)

	rb, rOk := r.(bool)
	lb, lOk := l.(bool)
	switch {
	case rOk && lOk:
		if and {
			return lb && rb, nil
		}
		return lb || rb, nil
	case rOk:
		// Left is null: null && false is false, null || true is true.
		if and && !rb {
			return false, nil
		}
		if !and && rb {
			return true, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func evalIn(ctx *Context, e *expression.In) (interface{}, error) {
	l, err := Eval(ctx, e.Left())
	if err != nil {
		return nil, err
	}
	r, err := Eval(ctx, e.Right())
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}

	elemType := e.Left().Type()
	var found bool
	switch r := r.(type) {
	case expression.RangeValue:
		found, err = r.Contains(elemType, l)
		if err != nil {
			return nil, err
		}
	case []interface{}:
		for _, v := range r {
			cmp, err := elemType.Compare(l, v)
			if err != nil {
				return nil, err
			}
			if cmp == 0 {
				found = true
				break
			}
		}
	default:
		return nil, query.ErrTypeMismatch.New("in operand", "array or range")
	}
	return found != e.Negated(), nil
}

func evalRange(ctx *Context, e *expression.Range) (interface{}, error) {
	var lo, hi interface{}
	var err error
	if e.Lo() != nil {
		lo, err = Eval(ctx, e.Lo())
		if err != nil {
			return nil, err
		}
	}
	if e.Hi() != nil {
		hi, err = Eval(ctx, e.Hi())
		if err != nil {
			return nil, err
		}
	}
	return expression.RangeValue{Lo: lo, Hi: hi}, nil
}

// Env adapts a Context to the filter evaluation contract.
type Env struct {
	Ctx *Context
}

func (e Env) ColumnValue(col *query.Column) (interface{}, error) {
	return readColumn(e.Ctx, col)
}

func (e Env) Argument(ordinal int) (interface{}, error) {
	return e.Ctx.Argument(ordinal)
}

func (e Env) EvalOpaque(x query.Expression) (interface{}, error) {
	return Eval(e.Ctx, x)
}
