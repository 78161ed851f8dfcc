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

import "github.com/rowkit/go-tuple-query/query"

// Variable is an opaque handle to an emitter-allocated slot.
type Variable interface{}

// Label is an opaque handle to an emitter-allocated branch target.
type Label interface{}

// Emitter is the abstract code generation contract. The compiler drives it
// to materialize a mapper; a target may generate machine code, bytecode, or
// interpret directly. The reference target in this package interprets.
type Emitter interface {
	// Var allocates a variable of the given type.
	Var(t query.Type) Variable

	// NewLabel allocates an unplaced label; Place pins it at the current
	// position.
	NewLabel() Label
	Place(l Label)

	// LoadConstant, LoadColumn, LoadArgument and LoadLocal push values.
	LoadConstant(v interface{}, t query.Type) Variable
	LoadColumn(col *query.Column) Variable
	LoadArgument(ordinal int, t query.Type) Variable
	LoadLocal(name string) Variable

	// StoreLocal binds a local variable slot by name.
	StoreLocal(name string, v Variable)

	// Arith and Compare apply an operator over two slots.
	Arith(op byte, t query.Type, a, b Variable) Variable
	Compare(op query.CompareOp, t query.Type, a, b Variable) Variable

	// Convert coerces a slot to a target type; lossy conversions throw at
	// run time.
	Convert(v Variable, to query.Type, lossy bool) Variable

	// BranchFalse jumps when the slot holds false or null.
	BranchFalse(v Variable, to Label)
	// Branch jumps unconditionally.
	Branch(to Label)

	// Invoke calls a named method on a receiver slot.
	Invoke(recv Variable, method string, args ...Variable) Variable

	// New instantiates the row class of the given schema.
	New(info *query.RowInfo) Variable

	// SetField stores a slot into a named field of a row instance.
	SetField(row Variable, field string, v Variable)

	// Return finishes emission with a result slot, or nil for no row.
	Return(v Variable)
}
