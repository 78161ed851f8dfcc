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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyEncoderDeterminism(t *testing.T) {
	require := require.New(t)

	encode := func() Key {
		enc := NewKeyEncoder()
		enc.WriteU8(7)
		enc.WriteInt32(-5)
		enc.WriteInt64(1 << 40)
		enc.EncodeObject("hello")
		enc.EncodeObject("hello")
		enc.EncodeObject("world")
		return enc.Finish()
	}

	k1 := encode()
	k2 := encode()
	require.True(k1.Equal(k2))
	require.Equal(k1.Sum(), k2.Sum())

	// Interning: two equal strings take one reference slot.
	require.Len(k1.Refs, 2)
}

func TestKeyEncoderEntityRefs(t *testing.T) {
	require := require.New(t)

	type entity struct{ name string }
	shared := &entity{name: "shared"}
	tag := byte(200)

	enc := NewKeyEncoder()
	require.True(enc.BeginEntity(shared, tag))
	enc.EncodeObject(shared.name)
	// Second visit writes a back-reference, not the fields.
	require.False(enc.BeginEntity(shared, tag))
	k := enc.Finish()

	// tag, OBJECT_REF+id, ENTITY_REF+id
	require.Equal([]byte{tag, tagObjectRef, 0, tagEntityRef, 0}, k.Bytes)
}

func TestKeyEncoderDistinguishesEntities(t *testing.T) {
	require := require.New(t)

	type entity struct{ name string }
	a, b := &entity{name: "x"}, &entity{name: "x"}

	enc := NewKeyEncoder()
	require.True(enc.BeginEntity(a, 9))
	require.True(enc.BeginEntity(b, 9))
	require.False(enc.BeginEntity(a, 9))
	require.False(enc.BeginEntity(b, 9))
	k := enc.Finish()
	// Back-references carry distinct ids.
	require.Equal([]byte{9, 9, tagEntityRef, 0, tagEntityRef, 1}, k.Bytes)
}

func TestKeyEncoderLengths(t *testing.T) {
	require := require.New(t)

	enc := NewKeyEncoder()
	enc.WriteLength(0, true)
	enc.WriteLength(0, false)
	enc.WriteLength(3, false)
	k := enc.Finish()
	require.Equal([]byte{0, 1, 4}, k.Bytes)
}

func TestKeyEncoderBytes(t *testing.T) {
	require := require.New(t)

	enc := NewKeyEncoder()
	enc.WriteBytes(nil)
	enc.WriteBytes([]byte{0xAA, 0xBB})
	k := enc.Finish()
	require.Equal([]byte{0, 3, 0xAA, 0xBB}, k.Bytes)
}

func TestKeyEquality(t *testing.T) {
	require := require.New(t)

	enc1 := NewKeyEncoder()
	enc1.EncodeObject("a")
	k1 := enc1.Finish()

	enc2 := NewKeyEncoder()
	enc2.EncodeObject("b")
	k2 := enc2.Finish()

	// Same byte image, different referenced objects.
	require.Equal(k1.Bytes, k2.Bytes)
	require.False(k1.Equal(k2))
}

func TestNewKeyTagAllocates(t *testing.T) {
	require := require.New(t)

	a := NewKeyTag()
	b := NewKeyTag()
	require.NotEqual(a, b)
	require.Greater(a, byte(reservedTags))
}
