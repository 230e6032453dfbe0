package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/deferq/internal/ir"
)

// ParseCriteria parses a textual filter into an Expression.
//
// Supported forms:
//   - "Age > 30", "Name == 'Bob'", "Name = \"Bob\"", "Age != 3", "Age <> 3"
//   - "Name LIKE 'B%'", "Email IS NULL", "Email IS NOT NULL"
//   - "a AND b", "a OR b", "NOT a", parentheses
//   - right-hand identifiers are column references: "Orders.Total > Orders.Paid"
//
// AND binds tighter than OR. Unqualified column names are qualified with
// table, so "Age > 30" on table "Users" yields Users.Age > 30.
func ParseCriteria(table, text string) (Expression, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &criteriaParser{table: table, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, fmt.Errorf("empty criteria")
	}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at offset %d", t.text, t.pos)
	}
	return expr, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// tokenize splits criteria text into tokens.
func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == '\'' || c == '"':
			lit, n, err := scanQuoted(s[i:], c)
			if err != nil {
				return nil, fmt.Errorf("offset %d: %w", i, err)
			}
			toks = append(toks, token{kind: tokString, text: lit, pos: i})
			i += n
		case strings.ContainsRune("=!<>", rune(c)):
			op := s[i : i+1]
			if i+1 < len(s) && strings.Contains("=<>", s[i+1:i+2]) {
				two := s[i : i+2]
				switch two {
				case "==", "!=", "<>", ">=", "<=":
					op = two
				}
			}
			if op == "!" {
				return nil, fmt.Errorf("offset %d: unexpected '!'", i)
			}
			toks = append(toks, token{kind: tokOp, text: op, pos: i})
			i += len(op)
		case isDigit(c) || ((c == '-' || c == '+') && i+1 < len(s) && isDigit(s[i+1])):
			start := i
			i++
			for i < len(s) && (isDigit(s[i]) || s[i] == '.' || s[i] == 'e' || s[i] == 'E') {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: s[start:i], pos: start})
		case isIdentStart(c):
			start := i
			for i < len(s) && (isIdentStart(s[i]) || isDigit(s[i]) || s[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: s[start:i], pos: start})
		default:
			return nil, fmt.Errorf("offset %d: unexpected character %q", i, c)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(s)})
	return toks, nil
}

// scanQuoted reads a quoted literal; a doubled quote escapes itself.
// Returns the literal and the number of bytes consumed.
func scanQuoted(s string, quote byte) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != quote {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			b.WriteByte(quote)
			i++
			continue
		}
		return b.String(), i + 1, nil
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type criteriaParser struct {
	table string
	toks  []token
	pos   int
}

func (p *criteriaParser) peek() token {
	return p.toks[p.pos]
}

func (p *criteriaParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// keyword reports whether the next token is the given keyword.
func (p *criteriaParser) keyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}

func (p *criteriaParser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or(left, right)
	}
	return left, nil
}

func (p *criteriaParser) parseAnd() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And(left, right)
	}
	return left, nil
}

func (p *criteriaParser) parseUnary() (Expression, error) {
	if p.keyword("NOT") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not(operand), nil
	}
	if p.peek().kind == tokLParen {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at offset %d", t.pos)
		}
		return expr, nil
	}
	return p.parseComparison()
}

func (p *criteriaParser) parseComparison() (Expression, error) {
	t := p.next()
	if t.kind != tokIdent || isKeyword(t.text) {
		return nil, fmt.Errorf("expected column name at offset %d, got %q", t.pos, t.text)
	}
	left := p.qualify(t.text)

	switch {
	case p.keyword("IS"):
		p.next()
		negate := false
		if p.keyword("NOT") {
			p.next()
			negate = true
		}
		if !p.keyword("NULL") {
			return nil, fmt.Errorf("expected NULL after IS at offset %d", p.peek().pos)
		}
		p.next()
		if negate {
			return left.IsNotNull(), nil
		}
		return left.IsNull(), nil

	case p.keyword("LIKE"):
		p.next()
		pat := p.next()
		if pat.kind != tokString {
			return nil, fmt.Errorf("LIKE requires a quoted pattern at offset %d", pat.pos)
		}
		return left.Like(pat.text), nil
	}

	opTok := p.next()
	if opTok.kind != tokOp {
		return nil, fmt.Errorf("expected operator after %s at offset %d", t.text, opTok.pos)
	}
	op, err := toOperator(opTok.text)
	if err != nil {
		return nil, err
	}

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return Comparison{Left: left, Op: op, Right: right}, nil
}

func (p *criteriaParser) parseOperand() (Operand, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return Literal{Value: ir.IRString(t.text)}, nil
	case tokNumber:
		if n, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			return Literal{Value: ir.IRInt(n)}, nil
		}
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at offset %d", t.text, t.pos)
		}
		return Literal{Value: ir.IRFloat(f)}, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return Literal{Value: ir.IRBool(true)}, nil
		case "false":
			return Literal{Value: ir.IRBool(false)}, nil
		case "null":
			return Literal{Value: ir.IRNull{}}, nil
		}
		if isKeyword(t.text) {
			return nil, fmt.Errorf("unexpected keyword %q at offset %d", t.text, t.pos)
		}
		return p.qualify(t.text), nil
	default:
		return nil, fmt.Errorf("expected value at offset %d", t.pos)
	}
}

// qualify prefixes bare column names with the table path.
func (p *criteriaParser) qualify(name string) Reference {
	if strings.Contains(name, ".") || p.table == "" {
		return ParseReference(name)
	}
	return ParseReference(p.table + "." + name)
}

func toOperator(s string) (Operator, error) {
	switch s {
	case "=", "==":
		return OpEq, nil
	case "!=", "<>":
		return OpNe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	default:
		return "", fmt.Errorf("unsupported operator %q", s)
	}
}

func isKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "AND", "OR", "NOT", "IS", "LIKE":
		return true
	}
	return false
}
