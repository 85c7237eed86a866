package gotensor

import (
	"go.uber.org/zap"
)

// ============================================================
// Expansion engine
// ============================================================

// DefaultMaxPasses bounds the fixpoint loop of an Expander.
const DefaultMaxPasses = 1000

type mode int

const (
	modeFull mode = iota
	modeNumerator
	modeTensors
)

func (m mode) String() string {
	switch m {
	case modeNumerator:
		return "numerator"
	case modeTensors:
		return "tensors"
	}
	return "full"
}

// Expander distributes products and natural powers over sums.
// An Expander holds no per-call state and is safe for concurrent use.
type Expander struct {
	logger    *zap.Logger
	maxPasses int
}

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets the logger for pass and rule diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(x *Expander) {
		if l != nil {
			x.logger = l
		}
	}
}

// WithMaxPasses caps the number of fixpoint passes. Values below one are
// ignored.
func WithMaxPasses(n int) Option {
	return func(x *Expander) {
		if n > 0 {
			x.maxPasses = n
		}
	}
}

// NewExpander returns an Expander configured by opts.
func NewExpander(opts ...Option) *Expander {
	x := &Expander{logger: zap.NewNop(), maxPasses: DefaultMaxPasses}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

var defaultExpander = NewExpander()

// Expand fully expands e, then applies rules, and repeats until a pass
// changes nothing. It returns e itself when there is nothing to expand.
func Expand(e Expr, rules ...Transformation) Expr { return defaultExpander.Expand(e, rules...) }

// ExpandNumerator expands e but leaves denominators, factors with a
// negative exponent, untouched.
func ExpandNumerator(e Expr) Expr { return defaultExpander.ExpandNumerator(e) }

// ExpandDenominator expands only the sums raised to negative integer
// powers, nested ones included.
func ExpandDenominator(e Expr) Expr { return defaultExpander.ExpandDenominator(e) }

// ExpandTensors distributes only sums that carry free indices, keeping
// scalar sums folded as coefficients.
func ExpandTensors(e Expr, rules ...Transformation) Expr {
	return defaultExpander.ExpandTensors(e, rules...)
}

func (x *Expander) Expand(e Expr, rules ...Transformation) Expr {
	return x.fixpoint(e, modeFull, rules)
}

func (x *Expander) ExpandNumerator(e Expr) Expr {
	return x.fixpoint(e, modeNumerator, nil)
}

func (x *Expander) ExpandTensors(e Expr, rules ...Transformation) Expr {
	return x.fixpoint(e, modeTensors, rules)
}

func (x *Expander) ExpandDenominator(e Expr) Expr {
	return Transform(e, ChildToParent, func(n Expr) Expr {
		p, ok := n.(*Power)
		if !ok {
			return n
		}
		if _, ok := p.base.(*Sum); !ok {
			return n
		}
		k, ok := p.exp.(*Num)
		if !ok || !k.IsInteger() || !k.IsNegative() {
			return n
		}
		pos := PowOf(p.base, numNeg(k))
		ex := x.Expand(pos)
		if ex == pos {
			return n
		}
		return PowOf(ex, numMinusOne)
	})
}

func (x *Expander) fixpoint(e Expr, m mode, rules []Transformation) Expr {
	for pass := 1; ; pass++ {
		next := x.applyRules(x.pass(e, m), rules)
		changed := next != e
		x.logger.Debug("expansion pass",
			zap.Stringer("mode", m),
			zap.Int("pass", pass),
			zap.Bool("changed", changed))
		if !changed {
			return e
		}
		e = next
		if pass >= x.maxPasses {
			x.logger.Warn("expansion did not reach a fixpoint",
				zap.Stringer("mode", m),
				zap.Int("passes", pass))
			return e
		}
	}
}

func (x *Expander) applyRules(e Expr, rules []Transformation) Expr {
	for i, r := range rules {
		next := r.Transform(e)
		if next != e {
			x.logger.Debug("auxiliary rule changed the tree", zap.Int("rule", i))
			e = next
		}
	}
	return e
}

// pass applies distribute once to every node, bottom-up.
func (x *Expander) pass(e Expr, m mode) Expr {
	var opts []IteratorOption
	switch m {
	case modeNumerator:
		opts = append(opts, WithGuard(func(n Expr) bool { return !isDenominator(n) }))
	case modeTensors:
		opts = append(opts, WithGuard(func(n Expr) bool {
			switch n.(type) {
			case *Power, *Func:
				return false
			}
			return true
		}))
	}
	return Transform(e, ChildToParent, func(n Expr) Expr { return x.distribute(n, m) }, opts...)
}

// distribute pushes the distributive law one level into n. Children are
// already expanded. Anything it cannot expand is returned as is.
func (x *Expander) distribute(n Expr, m mode) Expr {
	switch v := n.(type) {
	case *Product:
		return x.distributeProduct(v, m)
	case *Power:
		if m != modeTensors {
			return x.distributePower(v)
		}
	}
	return n
}

func isDenominator(e Expr) bool {
	p, ok := e.(*Power)
	if !ok {
		return false
	}
	k, ok := p.exp.(*Num)
	return ok && k.IsNegative()
}

func (x *Expander) distributeProduct(p *Product, m mode) Expr {
	factors := p.factors
	var denoms []Expr
	if m == modeNumerator {
		factors = make([]Expr, 0, len(p.factors))
		for _, f := range p.factors {
			if isDenominator(f) {
				denoms = append(denoms, f)
			} else {
				factors = append(factors, f)
			}
		}
	}
	crossed := make([]bool, len(factors))
	sums := 0
	for i, f := range factors {
		s, ok := f.(*Sum)
		if !ok || (m == modeTensors && IsScalar(s)) {
			continue
		}
		crossed[i] = true
		sums++
	}
	if sums == 0 {
		return p
	}
	if len(denoms) > 0 && len(factors) == 1 && p.coeff.IsOne() {
		// a lone numerator sum over denominators is already expanded
		return p
	}
	out := crossSums(p.coeff, factors, crossed)
	if len(denoms) == 0 {
		return out
	}
	return MulOf(append([]Expr{out}, denoms...)...)
}

// crossSums multiplies out the sums at the crossed positions of factors,
// one term per choice of an addend from each, scaled by coeff.
func crossSums(coeff *Num, factors []Expr, crossed []bool) Expr {
	ops := make([]Expr, len(factors))
	fixed := make([]bool, len(factors))
	var pos []int
	for i, f := range factors {
		if crossed[i] {
			pos = append(pos, i)
		} else {
			ops[i] = f
			fixed[i] = true
		}
	}
	counters := make([]int, len(pos))
	b := NewSumBuilder()
	for {
		for k, i := range pos {
			ops[i] = factors[i].(*Sum).terms[counters[k]]
		}
		b.Put(crossTerm(coeff, ops, fixed))
		k := len(counters) - 1
		for ; k >= 0; k-- {
			counters[k]++
			if counters[k] < factors[pos[k]].Len() {
				break
			}
			counters[k] = 0
		}
		if k < 0 {
			return b.Build()
		}
	}
}

func (x *Expander) distributePower(p *Power) Expr {
	n, ok := p.exp.(*Num)
	if !ok || !n.IsNatural() {
		return p
	}
	k, ok := n.Int64()
	if !ok {
		return p
	}
	switch base := p.base.(type) {
	case *Sum:
		b := NewSumBuilder()
		port := NewPowerPort(base, int(k))
		for t := port.Take(); t != nil; t = port.Take() {
			b.Put(t)
		}
		return b.Build()
	default:
		if !hasIndices(base) {
			return p
		}
		// an indexed scalar: repeat it with fresh dummies per copy
		ops := make([]Expr, k)
		for i := range ops {
			ops[i] = base
		}
		return crossTerm(numOne, ops, nil)
	}
}

// IsExpanded reports whether e has no brackets left to expand: no product
// carries a sum factor and no sum is raised to a natural power.
func IsExpanded(e Expr) bool {
	it := NewIterator(e, ParentToChild)
	for n := it.Next(); n != nil; n = it.Next() {
		switch v := n.(type) {
		case *Product:
			for _, f := range v.factors {
				if _, ok := f.(*Sum); ok {
					return false
				}
			}
		case *Power:
			if _, ok := v.base.(*Sum); ok {
				if k, ok := v.exp.(*Num); ok && k.IsNatural() {
					return false
				}
			}
		}
	}
	return true
}
