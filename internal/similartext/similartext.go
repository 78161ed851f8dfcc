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

// Package similartext offers "maybe you mean" suggestions for error
// messages, based on edit distance over a known name set.
package similartext

import (
	"fmt"
	"reflect"
	"strings"
)

// maxDistanceIgnored is the edit distance above which a name is considered
// too different to suggest.
const maxDistanceIgnored = 3

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Find returns a ", maybe you mean ...?" suffix listing the names closest to
// src, or an empty string when nothing is close enough.
func Find(names []string, src string) string {
	if src == "" {
		return ""
	}

	minDist := -1
	var matches []string
	for _, name := range names {
		dist := levenshtein(name, src)
		if dist > maxDistanceIgnored {
			continue
		}
		if minDist == -1 || dist < minDist {
			minDist = dist
			matches = []string{name}
		} else if dist == minDist {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf(", maybe you mean %s?", strings.Join(matches, " or "))
}

// FindFromMap does the same over the string keys of a map.
func FindFromMap(m interface{}, src string) string {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		panic("not a map")
	}
	var names []string
	for _, k := range rv.MapKeys() {
		if k.Kind() == reflect.String {
			names = append(names, k.String())
		}
	}
	return Find(names, src)
}
