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

// Package plan builds executable query plans: it lowers a parsed filter
// into the row-filter algebra, splits it into a pushdown part and a
// residual, and constructs the two-stage query tree handed to table
// engines.
package plan

import (
	"fmt"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/types"
)

// Node is a plan tree node.
type Node interface {
	fmt.Stringer

	// Info describes the rows the node produces.
	Info() *query.RowInfo

	// Cardinality is the node's row multiplicity.
	Cardinality() query.Cardinality

	// EncodeKey writes the node's canonical image for plan caching.
	EncodeKey(enc *query.KeyEncoder)
}

var (
	tableTag    = query.NewKeyTag()
	identityTag = query.NewKeyTag()
)

// TableNode is a plan leaf over a physical table.
type TableNode struct {
	table query.Table
}

func NewTableNode(table query.Table) *TableNode {
	return &TableNode{table: table}
}

func (t *TableNode) Table() query.Table { return t.table }

func (t *TableNode) Info() *query.RowInfo { return t.table.Info() }

func (t *TableNode) Cardinality() query.Cardinality { return query.Many }

func (t *TableNode) String() string { return t.table.Info().Name }

func (t *TableNode) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(tableTag)
	enc.EncodeObject(t.table.Info().Name)
}

// identityNode is the join identity: a relation of exactly one empty row.
type identityNode struct{}

var identityInfo = query.NewRowInfo("identity",
	types.NewTupleType("identity", nil), nil)

// Identity returns the shared identity table node. It is the implicit from
// source of a query without one.
func Identity() Node { return identityNode{} }

func (identityNode) Info() *query.RowInfo { return identityInfo }

func (identityNode) Cardinality() query.Cardinality { return query.One }

func (identityNode) String() string { return "identity" }

func (identityNode) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(identityTag)
}
