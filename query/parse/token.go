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

// Package parse turns query text into the expression IR: a hand-written
// tokenizer with a two character pushback feeding a recursive descent
// parser.
package parse

import "fmt"

// TokenKind classifies a lexical token.
type TokenKind int

const (
	EOFToken TokenKind = iota
	IdentToken
	QuotedIdentToken
	IntToken
	FloatToken
	StringToken

	LParenToken
	RParenToken
	LBraceToken
	RBraceToken
	CommaToken
	SemicolonToken
	ColonToken
	DotToken
	DotDotToken
	ArgToken // ?

	PlusToken
	MinusToken
	StarToken
	SlashToken
	PercentToken
	AmpToken
	PipeToken
	CaretToken
	TildeToken
	BangToken
	AndAndToken
	OrOrToken

	AssignToken // =
	EqToken     // ==
	NeToken     // !=
	GeToken     // >=
	LeToken     // <=
	GtToken     // >
	LtToken     // <

	TrueToken
	FalseToken
	NullToken
	InToken
)

var keywords = map[string]TokenKind{
	"true":  TrueToken,
	"false": FalseToken,
	"null":  NullToken,
	"in":    InToken,
}

// Token is a lexical token with its half-open source span.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
}

func (t Token) String() string {
	if t.Kind == EOFToken {
		return "<eof>"
	}
	return fmt.Sprintf("%q", t.Text)
}

// Is reports whether the token has any of the given kinds.
func (t Token) Is(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}
