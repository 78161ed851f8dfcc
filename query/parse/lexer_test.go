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

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowkit/go-tuple-query/query"
)

type lexCase struct {
	src  string
	text string
	kind TokenKind
}

func testLex(t *testing.T, cases []lexCase) {
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			tok, err := NewLexer(c.src).Next()
			require.NoError(t, err)
			assert.Equal(t, c.kind, tok.Kind)
			assert.Equal(t, c.text, tok.Text)
		})
	}
}

func TestLexNumber(t *testing.T) {
	testLex(t, []lexCase{
		{"12", "12", IntToken},
		{"12.45", "12.45", FloatToken},
		{"0x1F", "0x1F", IntToken},
		{"0b101", "0b101", IntToken},
		{"1e10", "1e10", FloatToken},
		{"2.5e-3", "2.5e-3", FloatToken},
		{"1.5f", "1.5f", FloatToken},
		{"2d", "2d", FloatToken},
		{"7L", "7L", IntToken},
		{"9g", "9g", IntToken},
	})
}

func TestLexNumberErrors(t *testing.T) {
	for _, src := range []string{"1dkejrw", "0b", "0b2", "0x", "1e", "1e+", "12abc"} {
		t.Run(src, func(t *testing.T) {
			_, err := NewLexer(src).Next()
			require.Error(t, err)
			require.True(t, query.ErrSyntax.Is(err))
		})
	}
}

func TestLexNumberBeforeRange(t *testing.T) {
	require := require.New(t)

	// 1..5 is int, range, int; not a malformed float.
	l := NewLexer("1..5")
	tok, err := l.Next()
	require.NoError(err)
	require.Equal(IntToken, tok.Kind)
	require.Equal("1", tok.Text)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(DotDotToken, tok.Kind)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(IntToken, tok.Kind)
	require.Equal("5", tok.Text)
}

func TestLexIdentifierAndKeywords(t *testing.T) {
	testLex(t, []lexCase{
		{"foo bar", "foo", IdentToken},
		{"p2p", "p2p", IdentToken},
		{"_x", "_x", IdentToken},
		{"true", "true", TrueToken},
		{"false", "false", FalseToken},
		{"null", "null", NullToken},
		{"in", "in", InToken},
		{"inx", "inx", IdentToken},
	})
}

func TestLexStrings(t *testing.T) {
	testLex(t, []lexCase{
		{`"foo bar"`, "foo bar", StringToken},
		{`'it'`, "it", StringToken},
		{`"a\"b"`, `a"b`, StringToken},
		{"`weird name`", "weird name", QuotedIdentToken},
	})

	_, err := NewLexer(`"unterminated`).Next()
	require.Error(t, err)
	require.True(t, query.ErrSyntax.Is(err))
}

func TestLexOperators(t *testing.T) {
	testLex(t, []lexCase{
		{"==", "==", EqToken},
		{"= 5", "=", AssignToken},
		{"!=", "!=", NeToken},
		{"!x", "!", BangToken},
		{">=", ">=", GeToken},
		{"<=", "<=", LeToken},
		{"> ", ">", GtToken},
		{"< ", "<", LtToken},
		{"&&", "&&", AndAndToken},
		{"&1", "&", AmpToken},
		{"||", "||", OrOrToken},
		{"|1", "|", PipeToken},
		{"..", "..", DotDotToken},
		{". ", ".", DotToken},
		{"?1", "?", ArgToken},
		{"~a", "~", TildeToken},
	})
}

func TestLexSpans(t *testing.T) {
	require := require.New(t)

	l := NewLexer("  abc >= 12")
	tok, err := l.Next()
	require.NoError(err)
	require.Equal(2, tok.Start)
	require.Equal(5, tok.End)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(6, tok.Start)
	require.Equal(8, tok.End)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(9, tok.Start)
	require.Equal(11, tok.End)

	tok, err = l.Next()
	require.NoError(err)
	require.Equal(EOFToken, tok.Kind)
}

func TestLexErrorSpan(t *testing.T) {
	require := require.New(t)

	_, err := NewLexer("a @ b").Next() // consumes "a" fine
	require.NoError(err)

	l := NewLexer("ab @")
	_, err = l.Next()
	require.NoError(err)
	_, err = l.Next()
	require.Error(err)
	start, _, ok := query.ErrorSpan(err)
	require.True(ok)
	require.Equal(3, start)
}
