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
	"bytes"
	"encoding/binary"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

// Reserved tags. Variant tags are allocated above these at package
// initialization time.
const (
	tagEntityRef byte = 1
	tagObjectRef byte = 2

	reservedTags = 2
)

var keyTagCounter uint32 = reservedTags

// NewKeyTag allocates a process-global tag byte for an expression or type
// variant. Allocation panics if the tag space wraps: variants are registered
// from init functions, so exhaustion is a programming error, not a runtime
// condition.
func NewKeyTag() byte {
	v := atomic.AddUint32(&keyTagCounter, 1)
	if v > 0xFF {
		panic(ErrKeyTagsExhausted.New())
	}
	return byte(v)
}

// Key is a finished cache key: a canonical byte image plus the objects it
// references. Two semantically equal expression trees produce equal keys.
type Key struct {
	Bytes []byte
	Refs  []interface{}
}

// Equal compares byte images and referenced objects. String references
// compare by value; everything else by identity, which suffices because
// referenced constants are canonicalized.
func (k Key) Equal(other Key) bool {
	if !bytes.Equal(k.Bytes, other.Bytes) || len(k.Refs) != len(other.Refs) {
		return false
	}
	for i, r := range k.Refs {
		o := other.Refs[i]
		if s, ok := r.(string); ok {
			os, ok := o.(string)
			if !ok || s != os {
				return false
			}
			continue
		}
		if r != o {
			return false
		}
	}
	return true
}

// Sum returns a fixed-width digest of the byte image, suitable for bucket
// addressing. Keys that differ only in referenced objects share a digest;
// callers confirm with Equal.
func (k Key) Sum() [32]byte {
	return blake3.Sum256(k.Bytes)
}

// KeyEncoder accumulates the canonical byte image of an expression tree. It
// deduplicates entities by identity and referenced objects by interned slot,
// so shared subtrees encode in constant space after their first visit.
type KeyEncoder struct {
	buf      []byte
	entities map[interface{}]uint64
	objects  map[interface{}]uint64
	strings  map[string]uint64
	refs     []interface{}
}

func NewKeyEncoder() *KeyEncoder {
	return &KeyEncoder{
		buf:      make([]byte, 0, 64),
		entities: make(map[interface{}]uint64),
		objects:  make(map[interface{}]uint64),
		strings:  make(map[string]uint64),
	}
}

// BeginEntity starts the encoding of an identity-deduplicated entity. The
// first visit writes tag and returns true; the caller then writes the
// entity's fields. Later visits write a back-reference and return false.
func (e *KeyEncoder) BeginEntity(entity interface{}, tag byte) bool {
	if id, ok := e.entities[entity]; ok {
		e.WriteU8(tagEntityRef)
		e.WriteUvarint(id)
		return false
	}
	e.entities[entity] = uint64(len(e.entities))
	e.WriteU8(tag)
	return true
}

// EncodeObject writes a referenced object as OBJECT_REF plus its interned
// slot id. Strings are interned by value so equal text shares one slot.
func (e *KeyEncoder) EncodeObject(o interface{}) {
	var id uint64
	if s, ok := o.(string); ok {
		slot, seen := e.strings[s]
		if !seen {
			slot = uint64(len(e.refs))
			e.strings[s] = slot
			e.refs = append(e.refs, s)
		}
		id = slot
	} else {
		slot, seen := e.objects[o]
		if !seen {
			slot = uint64(len(e.refs))
			e.objects[o] = slot
			e.refs = append(e.refs, o)
		}
		id = slot
	}
	e.WriteU8(tagObjectRef)
	e.WriteUvarint(id)
}

func (e *KeyEncoder) WriteU8(b byte) {
	e.buf = append(e.buf, b)
}

func (e *KeyEncoder) WriteBool(b bool) {
	if b {
		e.WriteU8(1)
	} else {
		e.WriteU8(0)
	}
}

func (e *KeyEncoder) WriteUint16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *KeyEncoder) WriteUint32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *KeyEncoder) WriteUint64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *KeyEncoder) WriteInt32(v int32) { e.WriteUint32(uint32(v)) }
func (e *KeyEncoder) WriteInt64(v int64) { e.WriteUint64(uint64(v)) }

func (e *KeyEncoder) WriteUvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

// WriteLength writes an array length as length+1; zero signals a nil array.
func (e *KeyEncoder) WriteLength(n int, isNil bool) {
	if isNil {
		e.WriteUvarint(0)
		return
	}
	e.WriteUvarint(uint64(n) + 1)
}

// WriteBytes writes a length-prefixed byte slice.
func (e *KeyEncoder) WriteBytes(b []byte) {
	e.WriteLength(len(b), b == nil)
	e.buf = append(e.buf, b...)
}

// Finish returns the accumulated key. The encoder must not be reused.
func (e *KeyEncoder) Finish() Key {
	return Key{Bytes: e.buf, Refs: e.refs}
}
