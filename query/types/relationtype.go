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

package types

import (
	"fmt"

	"github.com/rowkit/go-tuple-query/query"
)

var relationTypeTag = query.NewKeyTag()

// RelationType is the type of a table-valued expression: a row type plus the
// cardinality of the row stream.
type RelationType struct {
	Row  *TupleType
	Card query.Cardinality
}

func NewRelationType(row *TupleType, card query.Cardinality) *RelationType {
	return &RelationType{Row: row, Card: card}
}

func (t *RelationType) String() string {
	return fmt.Sprintf("relation[%s]%s", t.Card, t.Row)
}

// Nullable is an identity for relations; an absent relation is the empty
// one.
func (t *RelationType) Nullable() query.Type { return t }

func (t *RelationType) IsNullable() bool { return false }

func (t *RelationType) Equals(other query.Type) bool {
	o, ok := other.(*RelationType)
	return ok && o.Card == t.Card && t.Row.Equals(o.Row)
}

func (t *RelationType) Convert(v interface{}) (interface{}, error) {
	return nil, query.ErrNotSupported.New("converting a relation value")
}

func (t *RelationType) Compare(a, b interface{}) (int, error) {
	return 0, query.ErrNotSupported.New("comparing relation values")
}

func (t *RelationType) EncodeKey(enc *query.KeyEncoder) {
	enc.WriteU8(relationTypeTag)
	enc.WriteU8(byte(t.Card))
	t.Row.EncodeKey(enc)
}
