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

package similartext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	require := require.New(t)

	var names []string
	require.Empty(Find(names, ""))

	names = []string{"score", "name", "aka", "ake"}
	require.Equal(", maybe you mean name?", Find(names, "nmae"))
	require.Empty(Find(names, ""))

	// An exact hit still suggests itself.
	require.Equal(", maybe you mean score?", Find(names, "score"))

	require.Empty(Find(names, "completelyUnrelated"))

	// Ties list every candidate.
	require.Equal(", maybe you mean aka or ake?", Find(names, "aki"))
}

func TestFindFromMap(t *testing.T) {
	require := require.New(t)

	var names map[string]int
	require.Empty(FindFromMap(names, ""))

	names = map[string]int{"alpha": 1, "beta": 2}
	require.Equal(", maybe you mean beta?", FindFromMap(names, "betta"))
	require.Empty(FindFromMap(names, ""))
}
