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

// Package eval holds the per-evaluation context and the abstract emitter
// contract, plus the reference interpreter used as the default emitter
// target.
package eval

import (
	"github.com/rowkit/go-tuple-query/query"
)

// memoEntry is one memoized subexpression result. Entries are invalidated
// by savepoint rollback rather than removed, keeping the memo append-only.
type memoEntry struct {
	expr  query.Expression
	value interface{}
	valid bool
}

// Context carries the state of one evaluation: the argument vector, the
// source row, a result memo keyed by expression identity for common
// subexpression reuse, an undo log of local assignments, and the local
// variable table.
type Context struct {
	info *query.RowInfo
	args query.Row
	row  query.Row

	memo      []*memoEntry
	memoIndex map[query.Expression]*memoEntry

	locals  map[string]interface{}
	undoLog []undoRec
}

// undoRec remembers the shadowed state of one local binding.
type undoRec struct {
	name string
	prev interface{}
	had  bool
}

// NewContext builds a context for one source row.
func NewContext(info *query.RowInfo, args, row query.Row) *Context {
	return &Context{
		info:      info,
		args:      args,
		row:       row,
		memoIndex: map[query.Expression]*memoEntry{},
		locals:    map[string]interface{}{},
	}
}

// Info returns the source row schema.
func (c *Context) Info() *query.RowInfo { return c.info }

// Argument returns the positional argument with the given one-based
// ordinal.
func (c *Context) Argument(ordinal int) (interface{}, error) {
	idx := ordinal - 1
	if idx < 0 || idx >= len(c.args) {
		return nil, query.ErrNotSupported.New("argument ordinal out of range")
	}
	return c.args[idx], nil
}

// Row returns the source row.
func (c *Context) Row() query.Row { return c.row }

// Memoized returns the memoized result for an expression, if still valid.
func (c *Context) Memoized(e query.Expression) (interface{}, bool) {
	entry := c.memoIndex[e]
	if entry == nil || !entry.valid {
		return nil, false
	}
	return entry.value, true
}

// Memoize records a subexpression result. The memo grows monotonically.
func (c *Context) Memoize(e query.Expression, v interface{}) {
	entry := &memoEntry{expr: e, value: v, valid: true}
	c.memo = append(c.memo, entry)
	c.memoIndex[e] = entry
}

// RefSavepoint marks the current memo position. Used to scope the
// short-circuited operand of a logical connective.
func (c *Context) RefSavepoint() int {
	return len(c.memo)
}

// RefRollback invalidates every memo entry created since the savepoint.
func (c *Context) RefRollback(sp int) {
	for i := sp; i < len(c.memo); i++ {
		c.memo[i].valid = false
	}
}

// RefCommit keeps the entries created since the savepoint.
func (c *Context) RefCommit(sp int) {}

// SetLocal binds a local, recording the shadowed binding in the undo log.
func (c *Context) SetLocal(name string, v interface{}) {
	prev, had := c.locals[name]
	c.undoLog = append(c.undoLog, undoRec{name: name, prev: prev, had: had})
	c.locals[name] = v
}

// Local reads a previously bound local.
func (c *Context) Local(name string) (interface{}, bool) {
	v, ok := c.locals[name]
	return v, ok
}

// LocalSavepoint marks the current undo log position.
func (c *Context) LocalSavepoint() int {
	return len(c.undoLog)
}

// LocalRollback restores locals assigned since the savepoint.
func (c *Context) LocalRollback(sp int) {
	for i := len(c.undoLog) - 1; i >= sp; i-- {
		rec := c.undoLog[i]
		if rec.had {
			c.locals[rec.name] = rec.prev
		} else {
			delete(c.locals, rec.name)
		}
	}
	c.undoLog = c.undoLog[:sp]
}
