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
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/rowkit/go-tuple-query/query"
	"github.com/rowkit/go-tuple-query/query/expression"
	"github.com/rowkit/go-tuple-query/query/types"
)

// ParsedQuery is the parser's output: an optional projection list and an
// optional filter expression.
type ParsedQuery struct {
	Projection []*expression.Proj
	Filter     query.Expression
}

// Parser is a recursive descent parser over the token stream. It resolves
// identifiers against the row schema as it goes, so its output is already
// typed.
type Parser struct {
	lex     *Lexer
	tok     Token
	rowType *types.TupleType
	locals  map[string]*expression.Assign
	maxArg  int
}

// Parse parses a full query: an optional braced projection list followed by
// an optional filter expression.
func Parse(src string, info *query.RowInfo) (*ParsedQuery, error) {
	p, err := newParser(src, info)
	if err != nil {
		return nil, err
	}

	out := &ParsedQuery{}
	if p.tok.Is(LBraceToken) {
		out.Projection, err = p.parseProjection()
		if err != nil {
			return nil, err
		}
	}
	if !p.tok.Is(EOFToken) {
		out.Filter, err = p.parseOr()
		if err != nil {
			return nil, err
		}
	}
	if !p.tok.Is(EOFToken) {
		return nil, p.unexpected()
	}
	return out, nil
}

// ParseExpression parses a bare filter expression.
func ParseExpression(src string, info *query.RowInfo) (query.Expression, error) {
	p, err := newParser(src, info)
	if err != nil {
		return nil, err
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.tok.Is(EOFToken) {
		return nil, p.unexpected()
	}
	return e, nil
}

func newParser(src string, info *query.RowInfo) (*Parser, error) {
	rowType, ok := info.RowType.(*types.TupleType)
	if !ok {
		return nil, query.ErrNotSupported.New("row type is not a tuple")
	}
	p := &Parser{
		lex:     NewLexer(src),
		rowType: rowType,
		locals:  map[string]*expression.Assign{},
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) unexpected() error {
	if p.tok.Is(EOFToken) {
		return query.WrapError(query.ErrUnexpectedEOF.New(), p.tok.Start, p.tok.End)
	}
	return query.WrapError(query.ErrUnexpectedToken.New(p.tok.Text), p.tok.Start, p.tok.End)
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if !p.tok.Is(kind) {
		return Token{}, p.unexpected()
	}
	tok := p.tok
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// parseProjection parses { term (, term)* }.
func (p *Parser) parseProjection() ([]*expression.Proj, error) {
	if _, err := p.expect(LBraceToken); err != nil {
		return nil, err
	}
	var terms []*expression.Proj
	seen := map[string]bool{}
	for {
		term, err := p.parseProjTerm()
		if err != nil {
			return nil, err
		}
		if seen[term.Name()] {
			return nil, query.WrapError(
				query.ErrDuplicateColumn.New(term.Name()), term.Start(), term.End())
		}
		seen[term.Name()] = true
		terms = append(terms, term)

		if p.tok.Is(CommaToken) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(RBraceToken); err != nil {
		return nil, err
	}
	return terms, nil
}

// parseProjTerm parses one projection term with its flag prefixes:
// ~ excludes, + and - order, ! orders nulls low.
func (p *Parser) parseProjTerm() (*expression.Proj, error) {
	start := p.tok.Start
	var exclude, orderBy, descending, nullLow bool

	if p.tok.Is(TildeToken) {
		exclude = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.Is(PlusToken, MinusToken) {
		orderBy = true
		descending = p.tok.Is(MinusToken)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Is(BangToken) {
			nullLow = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	name, nameEnd, err := p.parsePath()
	if err != nil {
		return nil, err
	}

	var inner query.Expression
	end := nameEnd
	if p.tok.Is(AssignToken) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		assign := expression.NewAssign(name, value, start, value.End())
		// A later assignment to the same name shadows the earlier one.
		p.locals[name] = assign
		inner = assign
		end = value.End()
	} else {
		inner, err = p.resolveName(name, start, nameEnd)
		if err != nil {
			return nil, err
		}
	}

	proj := expression.NewProj(name, inner, start, end)
	return proj.WithFlags(exclude, orderBy, descending, nullLow), nil
}

// parsePath parses a possibly dotted identifier path.
func (p *Parser) parsePath() (string, int, error) {
	if !p.tok.Is(IdentToken, QuotedIdentToken) {
		return "", 0, p.unexpected()
	}
	var b strings.Builder
	b.WriteString(p.tok.Text)
	end := p.tok.End
	if err := p.advance(); err != nil {
		return "", 0, err
	}
	for p.tok.Is(DotToken) {
		if err := p.advance(); err != nil {
			return "", 0, err
		}
		if !p.tok.Is(IdentToken, QuotedIdentToken) {
			return "", 0, p.unexpected()
		}
		b.WriteByte('.')
		b.WriteString(p.tok.Text)
		end = p.tok.End
		if err := p.advance(); err != nil {
			return "", 0, err
		}
	}
	return b.String(), end, nil
}

// resolveName resolves an identifier to a local variable or a column.
func (p *Parser) resolveName(name string, start, end int) (query.Expression, error) {
	if assign, ok := p.locals[name]; ok {
		return expression.NewVar(assign, start, end), nil
	}
	col, err := expression.NewColumnRef(p.rowType, name, start, end)
	if err != nil {
		return nil, err
	}
	return col, nil
}

// Precedence ladder: || over && over comparison over in over range over
// additive over multiplicative over unary over primary.

func (p *Parser) parseOr() (query.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Is(OrOrToken) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left, err = expression.NewLogical(expression.OrLogical, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseAnd() (query.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.tok.Is(AndAndToken) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left, err = expression.NewLogical(expression.AndLogical, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

var comparisonOps = map[TokenKind]query.CompareOp{
	AssignToken: query.OpEq,
	EqToken:     query.OpEq,
	NeToken:     query.OpNe,
	GeToken:     query.OpGe,
	LtToken:     query.OpLt,
	LeToken:     query.OpLe,
	GtToken:     query.OpGt,
}

func (p *Parser) parseComparison() (query.Expression, error) {
	left, err := p.parseIn()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOps[p.tok.Kind]
	if !ok {
		return left, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseIn()
	if err != nil {
		return nil, err
	}
	return expression.NewComparison(op, left, right)
}

func (p *Parser) parseIn() (query.Expression, error) {
	left, err := p.parseRange()
	if err != nil {
		return nil, err
	}
	for p.tok.Is(InToken) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		left = expression.NewIn(left, right, left.Start(), right.End())
	}
	return left, nil
}

func (p *Parser) parseRange() (query.Expression, error) {
	// A range may omit its start.
	if p.tok.Is(DotDotToken) {
		start := p.tok.Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		hi, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return expression.NewRange(nil, hi, start, hi.End())
	}

	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !p.tok.Is(DotDotToken) {
		return left, nil
	}
	end := p.tok.End
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.startsExpression() {
		hi, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return expression.NewRange(left, hi, left.Start(), hi.End())
	}
	return expression.NewRange(left, nil, left.Start(), end)
}

// startsExpression reports whether the current token can begin an operand,
// which decides whether a range end is open.
func (p *Parser) startsExpression() bool {
	return p.tok.Is(IdentToken, QuotedIdentToken, IntToken, FloatToken, StringToken,
		LParenToken, ArgToken, TrueToken, FalseToken, NullToken,
		PlusToken, MinusToken, TildeToken, BangToken)
}

func (p *Parser) parseAdditive() (query.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.Is(PlusToken, MinusToken, PipeToken, CaretToken) {
		var op expression.ArithOp
		switch p.tok.Kind {
		case PlusToken:
			op = expression.AddOp
		case MinusToken:
			op = expression.SubOp
		case PipeToken:
			op = expression.BitOrOp
		default:
			op = expression.BitXorOp
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left, err = expression.NewArithmetic(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (query.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Is(StarToken, SlashToken, PercentToken, AmpToken) {
		var op expression.ArithOp
		switch p.tok.Kind {
		case StarToken:
			op = expression.MulOp
		case SlashToken:
			op = expression.DivOp
		case PercentToken:
			op = expression.RemOp
		default:
			op = expression.BitAndOp
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left, err = expression.NewArithmetic(op, left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) parseUnary() (query.Expression, error) {
	switch p.tok.Kind {
	case PlusToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	case MinusToken:
		pos := p.tok.Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return operand.Negate(pos, true)
	case TildeToken:
		pos := p.tok.Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expression.NewBitNot(operand, pos)
	case BangToken:
		pos := p.tok.Start
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return operand.Not(pos)
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (query.Expression, error) {
	tok := p.tok
	switch tok.Kind {
	case TrueToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expression.NewBoolConstant(true, tok.Start, tok.End), nil
	case FalseToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expression.NewBoolConstant(false, tok.Start, tok.End), nil
	case NullToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expression.NewConstant(nil, types.Null, tok.Start, tok.End), nil
	case StringToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expression.NewConstant(tok.Text, types.String, tok.Start, tok.End), nil
	case IntToken, FloatToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.numberConstant(tok)
	case ArgToken:
		return p.parseArg()
	case IdentToken, QuotedIdentToken:
		name, end, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		return p.resolveName(name, tok.Start, end)
	case LParenToken:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		rp, err := p.expect(RParenToken)
		if err != nil {
			return nil, err
		}
		return expression.NewWrapped(inner, tok.Start, rp.End), nil
	}
	return nil, p.unexpected()
}

// parseArg parses ?N, or a bare ? taking the next unused ordinal.
func (p *Parser) parseArg() (query.Expression, error) {
	start := p.tok.Start
	end := p.tok.End
	if err := p.advance(); err != nil {
		return nil, err
	}
	ordinal := 0
	if p.tok.Is(IntToken) && p.tok.Start == end {
		n, err := strconv.Atoi(p.tok.Text)
		if err != nil || n < 1 {
			return nil, query.WrapError(
				query.ErrSyntax.New("invalid argument ordinal"), start, p.tok.End)
		}
		ordinal = n
		end = p.tok.End
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		ordinal = p.maxArg + 1
	}
	if ordinal > p.maxArg {
		p.maxArg = ordinal
	}
	return expression.NewParam(ordinal, start, end), nil
}

// numberConstant converts a numeric literal to a typed constant. Suffixes:
// f and d force float width, L forces int64, g forces big integer.
func (p *Parser) numberConstant(tok Token) (query.Expression, error) {
	text := tok.Text
	badNumber := func() error {
		return query.WrapError(query.ErrSyntax.New("malformed number "+text), tok.Start, tok.End)
	}

	if tok.Kind == FloatToken {
		switch text[len(text)-1] {
		case 'f', 'F':
			v, err := strconv.ParseFloat(text[:len(text)-1], 32)
			if err != nil {
				return nil, badNumber()
			}
			return expression.NewConstant(float32(v), types.Float32, tok.Start, tok.End), nil
		case 'd', 'D':
			text = text[:len(text)-1]
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, badNumber()
		}
		return expression.NewConstant(v, types.Float64, tok.Start, tok.End), nil
	}

	switch text[len(text)-1] {
	case 'L':
		v, err := strconv.ParseInt(text[:len(text)-1], 0, 64)
		if err != nil {
			return nil, badNumber()
		}
		return expression.NewConstant(v, types.Int64, tok.Start, tok.End), nil
	case 'g':
		v, ok := new(big.Int).SetString(text[:len(text)-1], 10)
		if !ok {
			return nil, badNumber()
		}
		return expression.NewConstant(v, types.BigInt, tok.Start, tok.End), nil
	}

	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		// Out of int64 range: promote to big integer.
		b, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, badNumber()
		}
		return expression.NewConstant(b, types.BigInt, tok.Start, tok.End), nil
	}
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return expression.NewConstant(int32(v), types.Int32, tok.Start, tok.End), nil
	}
	return expression.NewConstant(v, types.Int64, tok.Start, tok.End), nil
}
