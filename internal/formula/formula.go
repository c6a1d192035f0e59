// Package formula computes average molecular masses of chemical formulas
// such as "C6H12O6" or "(CH3)2CO".
package formula

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoized formulas.
const DefaultCacheSize = 1024

var (
	// ErrUnknownElement is returned for a symbol without a known atomic weight.
	ErrUnknownElement = errors.New("unknown element")
	// ErrSyntax is returned for a formula that cannot be parsed.
	ErrSyntax = errors.New("invalid formula")
)

// Calculator computes formula masses and memoizes the results. It is safe
// for concurrent use.
type Calculator struct {
	cache *lru.Cache[string, float64]
}

// NewCalculator returns a Calculator caching up to size formulas.
func NewCalculator(size int) (*Calculator, error) {
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}
	return &Calculator{cache: cache}, nil
}

// Mass returns the average molecular mass of formula.
func (c *Calculator) Mass(formula string) (float64, error) {
	if m, ok := c.cache.Get(formula); ok {
		return m, nil
	}
	m, err := parse(formula)
	if err != nil {
		return 0, err
	}
	c.cache.Add(formula, m)
	return m, nil
}

var defaultCalculator *Calculator

func init() {
	c, err := NewCalculator(DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	defaultCalculator = c
}

// Mass returns the average molecular mass of formula using a shared cache.
func Mass(formula string) (float64, error) {
	return defaultCalculator.Mass(formula)
}

func parse(formula string) (float64, error) {
	if formula == "" {
		return 0, fmt.Errorf("%w: empty formula", ErrSyntax)
	}
	p := &parser{src: formula}
	m, err := p.group(0)
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w %q: unexpected %q at offset %d", ErrSyntax, formula, p.src[p.pos], p.pos)
	}
	return m, nil
}

type parser struct {
	src string
	pos int
}

// group sums the terms up to the end of input or a closing parenthesis.
func (p *parser) group(depth int) (float64, error) {
	var total float64
	terms := 0
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		var m float64
		switch {
		case ch == '(':
			p.pos++
			inner, err := p.group(depth + 1)
			if err != nil {
				return 0, err
			}
			if p.pos >= len(p.src) || p.src[p.pos] != ')' {
				return 0, fmt.Errorf("%w %q: unbalanced parenthesis", ErrSyntax, p.src)
			}
			p.pos++
			m = inner
		case ch == ')':
			if depth == 0 {
				return 0, fmt.Errorf("%w %q: unbalanced parenthesis", ErrSyntax, p.src)
			}
			if terms == 0 {
				return 0, fmt.Errorf("%w %q: empty group", ErrSyntax, p.src)
			}
			return total, nil
		case isUpper(ch):
			start := p.pos
			p.pos++
			for p.pos < len(p.src) && isLower(p.src[p.pos]) {
				p.pos++
			}
			sym := p.src[start:p.pos]
			w, ok := atomicWeights[sym]
			if !ok {
				return 0, fmt.Errorf("%w: %q in %q", ErrUnknownElement, sym, p.src)
			}
			m = w
		default:
			return 0, fmt.Errorf("%w %q: unexpected %q at offset %d", ErrSyntax, p.src, ch, p.pos)
		}
		total += m * float64(p.count())
		terms++
	}
	return total, nil
}

// count reads an optional multiplier; absent means 1.
func (p *parser) count() int {
	n, digits := 0, 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		n = n*10 + int(p.src[p.pos]-'0')
		p.pos++
		digits++
	}
	if digits == 0 {
		return 1
	}
	return n
}

func isUpper(ch byte) bool { return ch >= 'A' && ch <= 'Z' }
func isLower(ch byte) bool { return ch >= 'a' && ch <= 'z' }
func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
