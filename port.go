package gotensor

import (
	"math"
	"math/big"

	"gonum.org/v1/gonum/stat/combin"
)

// ============================================================
// Ports: lazy term streams
// ============================================================

// Port is a forward-only, single-pass stream of terms. Take returns the
// next term, or nil once the stream is exhausted. A Port cannot be
// restarted; create a new one to iterate again. Dropping a Port early
// needs no cleanup.
type Port interface {
	Take() Expr
}

// Drain pulls every remaining term of p into a slice.
func Drain(p Port) []Expr {
	var out []Expr
	for t := p.Take(); t != nil; t = p.Take() {
		out = append(out, t)
	}
	return out
}

// SumPort adds up every remaining term of p through a SumBuilder.
func SumPort(p Port) Expr {
	b := NewSumBuilder()
	for t := p.Take(); t != nil; t = p.Take() {
		b.Put(t)
	}
	return b.Build()
}

// ============================================================
// PowerPort: multinomial expansion of sum^n
// ============================================================

// PowerPort streams the terms of the expansion of s^n. For commuting
// addends each term is a product of n addends chosen with repetition,
// scaled by its multinomial coefficient; the exponent vectors are
// enumerated one at a time as stars and bars, a choice of k-1 bar
// positions among n+k-1 slots. A non-commutative sum yields one term per
// ordered choice of n addends instead.
type PowerPort struct {
	addends []Expr
	n       int
	ordered bool
	gen     *combin.CombinationGenerator
	bars    []int
	digits  []int
	total   int
	taken   int
	done    bool
}

// NewPowerPort returns the port over the terms of s^n. n must not be
// negative.
func NewPowerPort(s *Sum, n int) *PowerPort {
	if n < 0 {
		panic(&ArithmeticError{Op: "power port", Reason: "negative exponent"})
	}
	k := len(s.terms)
	p := &PowerPort{addends: s.terms, n: n}
	if !commutes(s) {
		p.ordered = true
		p.total = saturatedPow(k, n)
		return p
	}
	p.gen = combin.NewCombinationGenerator(n+k-1, k-1)
	p.bars = make([]int, k-1)
	p.total = combin.Binomial(n+k-1, k-1)
	return p
}

// saturatedPow returns k^n, or the largest int when that overflows.
func saturatedPow(k, n int) int {
	out := 1
	for i := 0; i < n; i++ {
		if out > math.MaxInt/k {
			return math.MaxInt
		}
		out *= k
	}
	return out
}

// Len returns the total number of terms: C(n+k-1, k-1) for commuting
// addends and k^n otherwise.
func (p *PowerPort) Len() int { return p.total }

// Remaining returns the number of terms not yet taken.
func (p *PowerPort) Remaining() int { return p.total - p.taken }

// Take returns the next term, or nil when all terms were taken.
func (p *PowerPort) Take() Expr {
	if p.ordered {
		return p.takeOrdered()
	}
	if !p.gen.Next() {
		return nil
	}
	p.taken++
	p.bars = p.gen.Combination(p.bars)
	coeff := big.NewInt(1)
	rem := int64(p.n)
	ops := make([]Expr, 0, p.n)
	for i, e := range p.exponents() {
		coeff.Mul(coeff, new(big.Int).Binomial(rem, int64(e)))
		rem -= int64(e)
		for j := 0; j < e; j++ {
			ops = append(ops, p.addends[i])
		}
	}
	return crossTerm(NumFromRat(new(big.Rat).SetInt(coeff)), ops, nil)
}

// takeOrdered runs an odometer over n addend positions.
func (p *PowerPort) takeOrdered() Expr {
	if p.done {
		return nil
	}
	if p.digits == nil {
		p.digits = make([]int, p.n)
	} else {
		i := p.n - 1
		for ; i >= 0; i-- {
			p.digits[i]++
			if p.digits[i] < len(p.addends) {
				break
			}
			p.digits[i] = 0
		}
		if i < 0 {
			p.done = true
			return nil
		}
	}
	p.taken++
	ops := make([]Expr, p.n)
	for i, d := range p.digits {
		ops[i] = p.addends[d]
	}
	return crossTerm(numOne, ops, nil)
}

// exponents turns the bar positions into the exponent of each addend.
func (p *PowerPort) exponents() []int {
	k := len(p.addends)
	exps := make([]int, k)
	prev := -1
	for i, b := range p.bars {
		exps[i] = b - prev - 1
		prev = b
	}
	exps[k-1] = p.n + k - 2 - prev
	return exps
}

// CreatePort returns the lazy expansion of sum^n. A non-sum input yields
// the single term sum^n.
func CreatePort(sum Expr, n int) Port {
	if n < 0 {
		panic(&ArithmeticError{Op: "CreatePort", Reason: "negative exponent"})
	}
	if s, ok := sum.(*Sum); ok {
		return NewPowerPort(s, n)
	}
	return &termsPort{terms: []Expr{PowOf(sum, N(int64(n)))}}
}

// ============================================================
// Composite ports
// ============================================================

type termsPort struct {
	terms []Expr
	pos   int
}

// newTermsPort streams the addends of e, or e alone when it is not a sum.
// Zero yields nothing.
func newTermsPort(e Expr) *termsPort {
	switch v := e.(type) {
	case *Sum:
		return &termsPort{terms: v.terms}
	case *Num:
		if v.IsZero() {
			return &termsPort{}
		}
	}
	return &termsPort{terms: []Expr{e}}
}

func (p *termsPort) Take() Expr {
	if p.pos >= len(p.terms) {
		return nil
	}
	t := p.terms[p.pos]
	p.pos++
	return t
}

// concatPort streams each addend's own port in turn.
type concatPort struct {
	x     *Expander
	items []Expr
	pos   int
	cur   Port
}

func (p *concatPort) Take() Expr {
	for {
		if p.cur == nil {
			if p.pos >= len(p.items) {
				return nil
			}
			p.cur = p.x.ExpandPort(p.items[p.pos])
			p.pos++
		}
		if t := p.cur.Take(); t != nil {
			return t
		}
		p.cur = nil
	}
}

// productPort runs an odometer over one port per factor. When the port of
// a factor runs dry it is recreated and the factor before it advances.
type productPort struct {
	coeff   *Num
	factory []func() Port
	fixed   []bool
	ports   []Port
	cur     []Expr
	started bool
	done    bool
}

func (p *productPort) Take() Expr {
	if p.done {
		return nil
	}
	if !p.started {
		p.started = true
		for i := range p.factory {
			if !p.reset(i) {
				p.done = true
				return nil
			}
		}
		return p.term()
	}
	for i := len(p.ports) - 1; i >= 0; i-- {
		t := p.ports[i].Take()
		if t == nil {
			continue
		}
		p.cur[i] = t
		for j := i + 1; j < len(p.ports); j++ {
			p.reset(j)
		}
		return p.term()
	}
	p.done = true
	return nil
}

func (p *productPort) reset(i int) bool {
	p.ports[i] = p.factory[i]()
	p.cur[i] = p.ports[i].Take()
	return p.cur[i] != nil
}

func (p *productPort) term() Expr {
	return crossTerm(p.coeff, p.cur, p.fixed)
}

// ExpandPort streams the terms of Expand(e) lazily. See Expander.ExpandPort.
func ExpandPort(e Expr) Port { return defaultExpander.ExpandPort(e) }

// ExpandPort returns a port whose terms add up to the expansion of e.
// Sums stream addend by addend, natural powers of sums go through a
// PowerPort and products multiply their factors' ports term by term, so
// the full expansion is never held in memory at once. Terms are not
// collected: like terms may be emitted more than once.
func (x *Expander) ExpandPort(e Expr) Port {
	switch v := e.(type) {
	case *Sum:
		return &concatPort{x: x, items: v.terms}
	case *Power:
		k, ok := v.exp.(*Num)
		if _, isSum := v.base.(*Sum); isSum && ok && k.IsNatural() {
			if n, ok := k.Int64(); ok {
				if base, ok := x.Expand(v.base).(*Sum); ok {
					return NewPowerPort(base, int(n))
				}
			}
		}
	case *Product:
		return x.productPort(v)
	}
	return newTermsPort(x.Expand(e))
}

func (x *Expander) productPort(v *Product) Port {
	p := &productPort{
		coeff:   v.coeff,
		factory: make([]func() Port, len(v.factors)),
		fixed:   make([]bool, len(v.factors)),
		ports:   make([]Port, len(v.factors)),
		cur:     make([]Expr, len(v.factors)),
	}
	for i, f := range v.factors {
		f := f
		switch g := f.(type) {
		case *Sum:
			p.factory[i] = func() Port { return x.ExpandPort(g) }
			continue
		case *Power:
			if _, ok := g.base.(*Sum); ok {
				p.factory[i] = func() Port { return x.ExpandPort(g) }
				continue
			}
		}
		ex := x.Expand(f)
		if _, ok := ex.(*Sum); !ok {
			p.fixed[i] = true
		}
		p.factory[i] = func() Port { return newTermsPort(ex) }
	}
	return p
}
