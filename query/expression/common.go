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

// Package expression holds the typed expression IR produced by the parser
// and consumed by the planner.
package expression

import (
	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/types"
)

var (
	plainBool    query.Type = types.Bool
	nullableBool query.Type = types.Bool.Nullable()
)

// span carries the half-open source range of a node.
type span struct {
	start int
	end   int
}

func (s span) Start() int { return s.start }
func (s span) End() int   { return s.end }

// maxArgument folds MaxArgument over children.
func maxArgument(children ...query.Expression) int {
	max := 0
	for _, c := range children {
		if c == nil {
			continue
		}
		if n := c.MaxArgument(); n > max {
			max = n
		}
	}
	return max
}

// gatherAll forwards a column collector to every child.
func gatherAll(collect func(*query.Column), children ...query.Expression) {
	for _, c := range children {
		if c != nil {
			c.GatherEvalColumns(collect)
		}
	}
}

// allPure reports whether every child is pure.
func allPure(children ...query.Expression) bool {
	for _, c := range children {
		if c != nil && !c.IsPure() {
			return false
		}
	}
	return true
}

// anyThrows reports whether any child can fail at run time.
func anyThrows(children ...query.Expression) bool {
	for _, c := range children {
		if c != nil && c.CanThrowRuntime() {
			return true
		}
	}
	return false
}

// anyOrderDependent folds IsOrderDependent over children.
func anyOrderDependent(children ...query.Expression) bool {
	for _, c := range children {
		if c != nil && c.IsOrderDependent() {
			return true
		}
	}
	return false
}

// anyGrouping, anyAccumulating and anyAggregating fold the group-wise
// classification over children.
func anyGrouping(children ...query.Expression) bool {
	for _, c := range children {
		if c != nil && c.IsGrouping() {
			return true
		}
	}
	return false
}

func anyAccumulating(children ...query.Expression) bool {
	for _, c := range children {
		if c != nil && c.IsAccumulating() {
			return true
		}
	}
	return false
}

func anyAggregating(children ...query.Expression) bool {
	for _, c := range children {
		if c != nil && c.IsAggregating() {
			return true
		}
	}
	return false
}

// opaque lowers a non-decomposable boolean expression.
func opaque(e query.Expression) query.RowFilter {
	return query.NewOpaque(e)
}

// replaced consults the replacement map by node identity.
func replaced(m map[query.Expression]query.Expression, e query.Expression) (query.Expression, bool) {
	if m == nil {
		return nil, false
	}
	r, ok := m[e]
	return r, ok
}

// isBooleanType reports whether t is the boolean basic type, nullable or
// not, or the dynamic types that carry booleans.
func isBooleanType(t query.Type) bool {
	if t == types.Null || t == types.Any {
		return true
	}
	bt, ok := t.(*types.BasicType)
	return ok && bt.Class() == types.BoolClass
}

// boolType returns the boolean result type of a predicate over the two
// operands: nullable if either operand can be null.
func boolType(l, r query.Expression) query.Type {
	if l.IsNullable() || (r != nil && r.IsNullable()) {
		return nullableBool
	}
	return plainBool
}
