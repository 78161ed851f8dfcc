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

import "sync"

const cacheStripes = 16

// Builder produces a compiled artifact for a key. Builders must be
// deterministic: the cache may drop artifacts under memory pressure and
// rebuild them on the next lookup.
type Builder func() (interface{}, error)

type cacheEntry struct {
	key      Key
	artifact interface{}
}

type cacheStripe struct {
	mu      sync.Mutex
	entries map[[32]byte][]*cacheEntry
}

// CodeCache is a key-addressed cache of compiled artifacts. Lookups bucket on
// the key digest and confirm with full key equality, so colliding digests
// degrade to a list walk instead of a wrong answer. Artifacts published once
// are immutable and safe for concurrent use.
type CodeCache struct {
	stripes  [cacheStripes]cacheStripe
	disposed bool
	mu       sync.RWMutex
}

func NewCodeCache() *CodeCache {
	c := &CodeCache{}
	for i := range c.stripes {
		c.stripes[i].entries = make(map[[32]byte][]*cacheEntry)
	}
	return c
}

func (c *CodeCache) stripe(sum [32]byte) *cacheStripe {
	return &c.stripes[int(sum[0])%cacheStripes]
}

// Obtain returns the artifact for key, building it if absent. The build runs
// outside the stripe lock, so concurrent misses may each build; the first
// artifact published wins and every caller receives it.
func (c *CodeCache) Obtain(key Key, build Builder) (interface{}, error) {
	c.mu.RLock()
	disposed := c.disposed
	c.mu.RUnlock()
	if disposed {
		return nil, ErrCacheDisposed.New()
	}

	sum := key.Sum()
	s := c.stripe(sum)

	s.mu.Lock()
	for _, e := range s.entries[sum] {
		if e.key.Equal(key) {
			s.mu.Unlock()
			return e.artifact, nil
		}
	}
	s.mu.Unlock()

	artifact, err := build()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another builder may have won the race; its artifact is kept and this
	// one discarded, which is acceptable because builders are idempotent.
	for _, e := range s.entries[sum] {
		if e.key.Equal(key) {
			return e.artifact, nil
		}
	}
	s.entries[sum] = append(s.entries[sum], &cacheEntry{key: key, artifact: artifact})
	return artifact, nil
}

// Lookup returns the cached artifact without building.
func (c *CodeCache) Lookup(key Key) (interface{}, bool) {
	sum := key.Sum()
	s := c.stripe(sum)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries[sum] {
		if e.key.Equal(key) {
			return e.artifact, true
		}
	}
	return nil, false
}

// Free drops every cached artifact. Dropped artifacts rebuild identically on
// the next lookup.
func (c *CodeCache) Free() {
	for i := range c.stripes {
		s := &c.stripes[i]
		s.mu.Lock()
		s.entries = make(map[[32]byte][]*cacheEntry)
		s.mu.Unlock()
	}
}

// Dispose frees the cache and rejects further use.
func (c *CodeCache) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()
	c.Free()
}

// Size reports the number of cached artifacts.
func (c *CodeCache) Size() int {
	n := 0
	for i := range c.stripes {
		s := &c.stripes[i]
		s.mu.Lock()
		for _, bucket := range s.entries {
			n += len(bucket)
		}
		s.mu.Unlock()
	}
	return n
}
