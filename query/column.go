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

import "strings"

// Column describes one column of a tuple row type. Name is the visible,
// possibly dotted path; Field is the storage-level field name. Hidden
// columns are excluded from the default projection.
type Column struct {
	Name   string
	Field  string
	Type   Type
	Hidden bool
}

// SubNames splits a dotted column path into its steps.
func (c *Column) SubNames() []string {
	return strings.Split(c.Name, ".")
}

// WithType returns a copy of the column carrying a different type. Used when
// path traversal forces nullability onto a sub-column.
func (c *Column) WithType(t Type) *Column {
	if c.Type == t {
		return c
	}
	nc := *c
	nc.Type = t
	return &nc
}

func (c *Column) String() string {
	return c.Name
}

// Schema is an ordered list of columns.
type Schema []*Column

// Column returns the column with the given visible name, or nil.
func (s Schema) Column(name string) *Column {
	for _, c := range s {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IndexOf returns the position of the named column, or -1.
func (s Schema) IndexOf(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the visible names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}
