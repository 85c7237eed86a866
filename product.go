package gotensor

import "sort"

// ============================================================
// Product: canonical multiplication
// ============================================================

// Product is a canonical product: an optional numeric coefficient and at
// least one non-numeric factor. No two commuting factors share a base;
// commuting factors come first in Compare order, non-commutative ones
// follow in their original order.
type Product struct {
	coeff     *Num
	factors   []Expr
	free      Indices
	indexed   bool
	nc        bool
	hash      uint64
	shapeHash uint64
}

func newProduct(coeff *Num, factors []Expr) *Product {
	p := &Product{coeff: coeff, factors: factors}
	groups := make([]Indices, 0, len(factors))
	h := newHasher(kindProduct)
	for _, f := range factors {
		h.u64(f.Hash())
		groups = append(groups, f.Free())
		p.indexed = p.indexed || hasIndices(f)
		p.nc = p.nc || !commutes(f)
	}
	p.free = contract("product", groups...)
	p.shapeHash = h.sum()
	p.hash = p.shapeHash
	if !coeff.IsOne() {
		h.u64(coeff.Hash())
		p.hash = h.sum()
	}
	return p
}

// withCoeff returns p with another coefficient, sharing everything else.
func (p *Product) withCoeff(c *Num) *Product {
	q := *p
	q.coeff = c
	q.hash = p.shapeHash
	if !c.IsOne() {
		h := newHasher(kindProduct)
		for _, f := range p.factors {
			h.u64(f.Hash())
		}
		h.u64(c.Hash())
		q.hash = h.sum()
	}
	return &q
}

// shape returns p with coefficient one.
func (p *Product) shape() *Product {
	if p.coeff.IsOne() {
		return p
	}
	return p.withCoeff(numOne)
}

// Coeff returns the numeric coefficient (1 when absent).
func (p *Product) Coeff() *Num { return p.coeff }

// Factors returns the non-numeric factors.
func (p *Product) Factors() []Expr { return p.factors }

func (p *Product) Hash() uint64     { return p.hash }
func (p *Product) Free() Indices    { return p.free }
func (p *Product) exprType() string { return "product" }

// Len counts the coefficient as a child when it is not one.
func (p *Product) Len() int {
	if p.coeff.IsOne() {
		return len(p.factors)
	}
	return len(p.factors) + 1
}

func (p *Product) At(i int) Expr {
	if p.coeff.IsOne() {
		return p.factors[i]
	}
	if i == 0 {
		return p.coeff
	}
	return p.factors[i-1]
}

func (p *Product) Equal(other Expr) bool {
	o, ok := other.(*Product)
	if !ok || p.hash != o.hash || len(p.factors) != len(o.factors) || !p.coeff.Equal(o.coeff) {
		return false
	}
	for i := range p.factors {
		if !p.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (p *Product) toJSON() map[string]interface{} {
	factors := make([]map[string]interface{}, 0, p.Len())
	for i := 0; i < p.Len(); i++ {
		factors = append(factors, p.At(i).toJSON())
	}
	return map[string]interface{}{"type": "product", "factors": factors}
}

// ============================================================
// ProductBuilder
// ============================================================

type powEntry struct {
	base, exp Expr
	origin    int
}

// ProductBuilder accumulates factors and produces their canonical product.
type ProductBuilder struct {
	coeff   *Num
	entries []powEntry
	buckets map[uint64][]int
	nc      []powEntry
	gen     int
}

// NewProductBuilder returns an empty builder.
func NewProductBuilder() *ProductBuilder { return &ProductBuilder{coeff: numOne} }

// Put multiplies e in. Numbers fold into the coefficient, nested products
// are flattened and equal bases merge by adding exponents. Merging two
// copies of a base with free indices panics with an *IndexError.
func (b *ProductBuilder) Put(e Expr) *ProductBuilder {
	if b.coeff == nil {
		b.coeff = numOne
	}
	switch v := e.(type) {
	case *Num:
		b.coeff = numMul(b.coeff, v)
	case *Product:
		b.gen++
		b.coeff = numMul(b.coeff, v.coeff)
		for _, f := range v.factors {
			b.put(f, b.gen)
		}
	default:
		b.put(e, 0)
	}
	return b
}

func (b *ProductBuilder) put(f Expr, origin int) {
	if b.coeff.IsZero() {
		return
	}
	base, exp := baseExp(f)
	if !commutes(f) {
		if n := len(b.nc); n > 0 && b.nc[n-1].base.Equal(base) {
			b.merge(&b.nc[n-1], exp, origin)
			return
		}
		b.nc = append(b.nc, powEntry{base: base, exp: exp, origin: origin})
		return
	}
	if b.buckets == nil {
		b.buckets = make(map[uint64][]int)
	}
	h := base.Hash()
	for _, i := range b.buckets[h] {
		if b.entries[i].base.Equal(base) {
			b.merge(&b.entries[i], exp, origin)
			return
		}
	}
	b.buckets[h] = append(b.buckets[h], len(b.entries))
	b.entries = append(b.entries, powEntry{base: base, exp: exp, origin: origin})
}

func (b *ProductBuilder) merge(en *powEntry, exp Expr, origin int) {
	if hasIndices(en.base) {
		var idx Index
		if free := en.base.Free(); len(free) > 0 {
			idx = free[0]
		} else if names := DummyNames(en.base).Sorted(); len(names) > 0 {
			idx = Up(names[0])
		}
		panic(&IndexError{Op: "product", Index: idx, Reason: "repeated index"})
	}
	if origin != 0 && en.origin == origin {
		invariant("product carries the base %s twice", en.base)
	}
	en.exp = AddOf(en.exp, exp)
}

// Build returns the canonical product.
func (b *ProductBuilder) Build() Expr {
	coeff := b.coeff
	if coeff == nil {
		coeff = numOne
	}
	if coeff.IsZero() {
		return numZero
	}
	var factors, nc, again []Expr
	fold := func(en powEntry, dst *[]Expr) {
		switch v := PowOf(en.base, en.exp).(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Product:
			again = append(again, v)
		default:
			*dst = append(*dst, v)
		}
	}
	for _, en := range b.entries {
		fold(en, &factors)
	}
	for _, en := range b.nc {
		fold(en, &nc)
	}
	if coeff.IsZero() {
		return numZero
	}
	if len(again) > 0 {
		// a merged power distributed into a product, e.g. (x*y)^(1/2) twice
		nb := NewProductBuilder().Put(coeff)
		for _, f := range factors {
			nb.Put(f)
		}
		for _, f := range again {
			nb.Put(f)
		}
		for _, f := range nc {
			nb.Put(f)
		}
		return nb.Build()
	}
	sort.Slice(factors, func(i, j int) bool { return Compare(factors[i], factors[j]) < 0 })
	factors = append(factors, nc...)
	switch {
	case len(factors) == 0:
		return coeff
	case len(factors) == 1 && coeff.IsOne():
		return factors[0]
	}
	return newProduct(coeff, factors)
}

// MulOf returns the canonical product of factors.
func MulOf(factors ...Expr) Expr {
	b := NewProductBuilder()
	for _, f := range factors {
		b.Put(f)
	}
	return b.Build()
}

// DivOf returns a / b.
func DivOf(a, b Expr) Expr { return MulOf(a, PowOf(b, numMinusOne)) }

// NegOf returns -a.
func NegOf(a Expr) Expr { return MulOf(numMinusOne, a) }
