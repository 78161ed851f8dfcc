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

import "fmt"

// Row is a tuple of column values. A nil element is a null value.
type Row []interface{}

// NewRow builds a row from the given values.
func NewRow(values ...interface{}) Row {
	row := make(Row, len(values))
	copy(row, values)
	return row
}

// Expression is the contract implemented by every node of the expression IR.
// Expressions are immutable once constructed and may be shared freely across
// cached plans.
type Expression interface {
	fmt.Stringer

	// Type returns the expression's type. It is stable for the lifetime of
	// the node.
	Type() Type

	// Start and End delimit the half-open source span of the node.
	Start() int
	End() int

	// AsType converts the expression to the given type. When the current
	// type already equals t the same node is returned, referentially.
	AsType(t Type) (Expression, error)

	// Not returns the logical complement of a boolean expression.
	Not(pos int) (Expression, error)

	// Negate returns the arithmetic negation. When widen is set, negation
	// of a minimum value promotes to the next wider type instead of
	// overflowing.
	Negate(pos int, widen bool) (Expression, error)

	// SupportsLogicalNot reports whether Not can rewrite this node without
	// wrapping.
	SupportsLogicalNot() bool

	IsPure() bool
	IsConstant() bool
	IsNullable() bool
	IsZero() bool
	IsOne() bool
	IsNull() bool

	// IsTrivial reports whether evaluation is a plain read with no
	// computation: constants, columns, and trivial wrappers over them.
	IsTrivial() bool

	IsOrderDependent() bool
	IsGrouping() bool
	IsAccumulating() bool
	IsAggregating() bool

	// CanThrowRuntime reports whether the emitted evaluation of this node
	// can fail at run time: arithmetic overflow, division by zero, lossy
	// conversion.
	CanThrowRuntime() bool

	// AsAggregate rewrites the expression for an aggregate position over
	// the given grouping columns.
	AsAggregate(groupColumns []string) (Expression, error)

	// AsWindow rewrites the expression for a window position, substituting
	// reassigned locals.
	AsWindow(reassignments map[string]Expression) (Expression, error)

	// Replace substitutes subtrees by node identity and returns the
	// rewritten expression, sharing untouched subtrees.
	Replace(replacements map[Expression]Expression) Expression

	// SourceColumn returns the column this expression ultimately reads, or
	// nil. Trivial wrappers propagate it; computation does not.
	SourceColumn() *Column

	// MaxArgument returns the highest positional parameter ordinal
	// referenced, or 0.
	MaxArgument() int

	// GatherEvalColumns enumerates the source columns an evaluation of this
	// expression will touch.
	GatherEvalColumns(collect func(*Column))

	// ToRowFilter lowers a boolean expression into the column-filter
	// algebra, recording resolved columns into columns. Anything that does
	// not decompose becomes an opaque filter.
	ToRowFilter(info *RowInfo, columns map[string]*Column) RowFilter

	// EncodeKey writes the node's canonical byte image to enc.
	EncodeKey(enc *KeyEncoder)

	// Equals reports structural equality.
	Equals(other Expression) bool

	// Children returns the direct subexpressions.
	Children() []Expression
}

// RowInfo describes a row schema as seen by the planner: the row type, the
// flat schema, and an index over all addressable columns including hidden
// ones.
type RowInfo struct {
	Name       string
	RowType    Type
	Schema     Schema
	AllColumns map[string]*Column
}

// NewRowInfo indexes a schema under a row-class name.
func NewRowInfo(name string, rowType Type, schema Schema) *RowInfo {
	all := make(map[string]*Column, len(schema))
	for _, c := range schema {
		all[c.Name] = c
	}
	return &RowInfo{Name: name, RowType: rowType, Schema: schema, AllColumns: all}
}

// Column looks up a column by its exact name in AllColumns, or returns nil.
// Dotted paths are not traversed into nested rows.
func (ri *RowInfo) Column(path string) *Column {
	return ri.AllColumns[path]
}

// QuerySpec is the pushdown contract handed to the underlying table: an
// optional projection, an optional ordering spec string, and a filter in the
// column-filter algebra.
type QuerySpec struct {
	Projection []string
	OrderBy    string
	Filter     RowFilter
}

// Mapper transforms one source row into at most one target row. A nil result
// row with a nil error means the row was filtered out.
type Mapper interface {
	MapRow(args Row, source Row) (Row, error)

	// SourceProjection reports the comma-joined source columns the mapper
	// reads, or "" when it reads all of them.
	SourceProjection() string
}

// Table is the storage-engine collaborator contract.
type Table interface {
	Info() *RowInfo

	// Map produces a virtual table applying a row transform.
	Map(target *RowInfo, m Mapper) (Table, error)

	// View applies an ordering spec of the form "+name,-name,+!name".
	View(orderSpec string) (Table, error)

	// WithQuery pushes a QuerySpec into the table's own scan.
	WithQuery(spec *QuerySpec) (Table, error)
}
