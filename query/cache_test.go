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

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(s string) Key {
	enc := NewKeyEncoder()
	enc.EncodeObject(s)
	return enc.Finish()
}

func TestCodeCacheObtain(t *testing.T) {
	require := require.New(t)

	cache := NewCodeCache()
	builds := 0
	build := func() (interface{}, error) {
		builds++
		return "artifact", nil
	}

	v, err := cache.Obtain(testKey("q1"), build)
	require.NoError(err)
	require.Equal("artifact", v)
	require.Equal(1, builds)

	// Second lookup under an equal key reuses the artifact.
	v, err = cache.Obtain(testKey("q1"), build)
	require.NoError(err)
	require.Equal("artifact", v)
	require.Equal(1, builds)

	_, err = cache.Obtain(testKey("q2"), build)
	require.NoError(err)
	require.Equal(2, builds)
	require.Equal(2, cache.Size())
}

func TestCodeCacheFreeRebuilds(t *testing.T) {
	require := require.New(t)

	cache := NewCodeCache()
	builds := 0
	build := func() (interface{}, error) {
		builds++
		return builds, nil
	}

	_, err := cache.Obtain(testKey("q"), build)
	require.NoError(err)
	cache.Free()
	require.Equal(0, cache.Size())

	// Loss is recoverable: the idempotent builder runs again.
	_, err = cache.Obtain(testKey("q"), build)
	require.NoError(err)
	require.Equal(2, builds)
}

func TestCodeCacheDispose(t *testing.T) {
	require := require.New(t)

	cache := NewCodeCache()
	cache.Dispose()
	_, err := cache.Obtain(testKey("q"), func() (interface{}, error) { return 1, nil })
	require.Error(err)
	require.True(ErrCacheDisposed.Is(err))
}

func TestCodeCacheConcurrent(t *testing.T) {
	require := require.New(t)

	cache := NewCodeCache()
	var wg sync.WaitGroup
	results := make([]interface{}, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.Obtain(testKey("shared"), func() (interface{}, error) {
				return new(int), nil
			})
			require.NoError(err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	// Every caller observes the same artifact instance.
	for _, v := range results[1:] {
		require.Same(results[0], v)
	}
}

func TestCodeCacheLookup(t *testing.T) {
	require := require.New(t)

	cache := NewCodeCache()
	_, ok := cache.Lookup(testKey("q"))
	require.False(ok)

	_, err := cache.Obtain(testKey("q"), func() (interface{}, error) { return "x", nil })
	require.NoError(err)

	v, ok := cache.Lookup(testKey("q"))
	require.True(ok)
	require.Equal("x", v)
}
