// Package calc evaluates the calculator widget's arithmetic expressions.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/" | "%") unary }
//	unary  = [ "-" | "+" ] unary | factor
//	factor = number | "(" expr ")"
//
// "×" and "÷" are accepted as aliases of "*" and "/". "%" is the remainder
// operator. Arithmetic is exact decimal; division is rounded to DivPrecision
// places.
package calc

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	MaxExpressionLength = 256
	DivPrecision        = 10
	maxDepth            = 64
)

var (
	ErrEmpty          = errors.New("empty expression")
	ErrTooLong        = errors.New("expression too long")
	ErrSyntax         = errors.New("invalid expression")
	ErrDivisionByZero = errors.New("division by zero")
)

// Evaluate parses and evaluates expr.
func Evaluate(expr string) (decimal.Decimal, error) {
	if len(expr) > MaxExpressionLength {
		return decimal.Zero, ErrTooLong
	}
	toks, err := tokenize(expr)
	if err != nil {
		return decimal.Zero, err
	}
	if len(toks) == 0 {
		return decimal.Zero, ErrEmpty
	}
	p := &parser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return decimal.Zero, err
	}
	if !p.done() {
		return decimal.Zero, fmt.Errorf("%w: unexpected %q", ErrSyntax, p.peek().text)
	}
	return v, nil
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  decimal.Decimal
}

func tokenize(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			dots := 0
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				if rs[j] == '.' {
					dots++
				}
				j++
			}
			lit := string(rs[i:j])
			if dots > 1 || lit == "." {
				return nil, fmt.Errorf("%w: bad number %q", ErrSyntax, lit)
			}
			n, err := decimal.NewFromString("0" + strings.TrimSuffix(lit, "."))
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q", ErrSyntax, lit)
			}
			toks = append(toks, token{kind: tokNumber, text: lit, num: n})
			i = j
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case strings.ContainsRune("+-*/%×÷−", r):
			toks = append(toks, token{kind: tokOp, text: canonicalOp(r)})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrSyntax, r)
		}
	}
	return toks, nil
}

func canonicalOp(r rune) string {
	switch r {
	case '×':
		return "*"
	case '÷':
		return "/"
	case '−':
		return "-"
	}
	return string(r)
}

type parser struct {
	toks  []token
	pos   int
	depth int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) isOp(ops ...string) (string, bool) {
	t := p.peek()
	if p.done() || t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			return op, true
		}
	}
	return "", false
}

func (p *parser) expr() (decimal.Decimal, error) {
	left, err := p.term()
	if err != nil {
		return left, err
	}
	for {
		op, ok := p.isOp("+", "-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return right, err
		}
		if op == "+" {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
}

func (p *parser) term() (decimal.Decimal, error) {
	left, err := p.unary()
	if err != nil {
		return left, err
	}
	for {
		op, ok := p.isOp("*", "/", "%")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return right, err
		}
		switch op {
		case "*":
			left = left.Mul(right)
		case "/":
			if right.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			left = left.DivRound(right, DivPrecision)
		case "%":
			if right.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			left = left.Mod(right)
		}
	}
}

func (p *parser) unary() (decimal.Decimal, error) {
	if op, ok := p.isOp("+", "-"); ok {
		p.pos++
		if err := p.enter(); err != nil {
			return decimal.Zero, err
		}
		defer p.leave()
		v, err := p.unary()
		if err != nil {
			return v, err
		}
		if op == "-" {
			return v.Neg(), nil
		}
		return v, nil
	}
	return p.factor()
}

func (p *parser) factor() (decimal.Decimal, error) {
	if p.done() {
		return decimal.Zero, fmt.Errorf("%w: unexpected end", ErrSyntax)
	}
	t := p.toks[p.pos]
	switch t.kind {
	case tokNumber:
		p.pos++
		return t.num, nil
	case tokLParen:
		p.pos++
		if err := p.enter(); err != nil {
			return decimal.Zero, err
		}
		defer p.leave()
		v, err := p.expr()
		if err != nil {
			return v, err
		}
		if p.done() || p.peek().kind != tokRParen {
			return decimal.Zero, fmt.Errorf("%w: missing )", ErrSyntax)
		}
		p.pos++
		return v, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unexpected %q", ErrSyntax, t.text)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fmt.Errorf("%w: nested too deeply", ErrSyntax)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }
