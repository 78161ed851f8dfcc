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

// Package tqe is the query compiler front end: it parses query text over a
// tuple-row table, plans the filter and projection with pushdown, and
// memoizes compiled plans under canonical keys.
package tqe

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/parse"
	"github.com/rowkit/go-tuple-query/query/plan"
)

// Compiler parses and plans queries, caching compiled plans by canonical
// key. It is safe for concurrent use.
type Compiler struct {
	cfg    *Config
	cache  *query.CodeCache
	logger *logrus.Entry
}

// New builds a compiler. A nil config selects the defaults.
func New(cfg *Config) *Compiler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := logrus.New()
	logger.SetLevel(cfg.logLevel())
	return &Compiler{
		cfg:    cfg,
		cache:  query.NewCodeCache(),
		logger: logrus.NewEntry(logger).WithField("component", "compiler"),
	}
}

// Compile parses src against the table's row schema and returns the plan,
// reusing a cached plan when an equal query was compiled before.
func (c *Compiler) Compile(ctx context.Context, table query.Table, src string) (plan.Node, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "tqe.Compile")
	defer span.Finish()
	span.SetTag("query", src)

	info := table.Info()
	parsed, err := parse.Parse(src, info)
	if err != nil {
		return nil, err
	}

	key := compileKey(info, parsed)
	artifact, err := c.cache.Obtain(key, func() (interface{}, error) {
		c.logger.WithFields(logrus.Fields{
			"table": info.Name,
			"query": src,
		}).Debug("compiling plan")

		from := plan.NewTableNode(table)
		built, buildErr := plan.BuildWithBudget(from, parsed.Filter, parsed.Projection, c.cfg.CNFBudget)
		if buildErr != nil {
			return nil, buildErr
		}
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return artifact.(plan.Node), nil
}

// CompileExpression parses and types a bare filter expression against a row
// schema.
func (c *Compiler) CompileExpression(info *query.RowInfo, src string) (query.Expression, error) {
	return parse.ParseExpression(src, info)
}

// Free drops every cached plan. Plans rebuild identically on demand.
func (c *Compiler) Free() { c.cache.Free() }

// Close disposes the plan cache.
func (c *Compiler) Close() { c.cache.Dispose() }

// compileKey encodes the parsed query into a canonical cache key. The table
// name pins the schema; projection terms and the filter encode
// structurally, so semantically equal queries share one plan.
func compileKey(info *query.RowInfo, parsed *parse.ParsedQuery) query.Key {
	enc := query.NewKeyEncoder()
	enc.EncodeObject(info.Name)
	enc.WriteLength(len(parsed.Projection), parsed.Projection == nil)
	for _, p := range parsed.Projection {
		p.EncodeKey(enc)
	}
	enc.WriteBool(parsed.Filter != nil)
	if parsed.Filter != nil {
		parsed.Filter.EncodeKey(enc)
	}
	return enc.Finish()
}
