package gotensor

import "sort"

// ============================================================
// Sum: canonical addition
// ============================================================

// Sum is a canonical sum of at least two addends. No two addends share a
// shape, none is zero, and the addends are kept in Compare order.
type Sum struct {
	terms   []Expr
	free    Indices
	indexed bool
	nc      bool
	hash    uint64
}

// newSum assembles a Sum from canonical, ordered terms sharing one free
// index set. Only SumBuilder calls it.
func newSum(terms []Expr, free Indices) *Sum {
	s := &Sum{terms: terms, free: free}
	h := newHasher(kindSum)
	for _, t := range terms {
		h.u64(t.Hash())
		s.indexed = s.indexed || hasIndices(t)
		s.nc = s.nc || !commutes(t)
	}
	s.hash = h.sum()
	return s
}

func (s *Sum) Terms() []Expr    { return s.terms }
func (s *Sum) Hash() uint64     { return s.hash }
func (s *Sum) Free() Indices    { return s.free }
func (s *Sum) Len() int         { return len(s.terms) }
func (s *Sum) At(i int) Expr    { return s.terms[i] }
func (s *Sum) exprType() string { return "sum" }

func (s *Sum) Equal(other Expr) bool {
	o, ok := other.(*Sum)
	if !ok || s.hash != o.hash || len(s.terms) != len(o.terms) {
		return false
	}
	for i := range s.terms {
		if !s.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (s *Sum) toJSON() map[string]interface{} {
	terms := make([]map[string]interface{}, len(s.terms))
	for i, t := range s.terms {
		terms[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "sum", "terms": terms}
}

// ============================================================
// SumBuilder
// ============================================================

type sumEntry struct {
	coeff *Num
	shape Expr
	// origin numbers the nested Sum the entry came from; 0 is top level.
	origin int
}

// SumBuilder accumulates addends and produces their canonical sum.
// The zero value is ready to use.
type SumBuilder struct {
	entries []sumEntry
	buckets map[uint64][]int
	free    Indices
	hasFree bool
	gen     int
}

// NewSumBuilder returns an empty builder.
func NewSumBuilder() *SumBuilder { return &SumBuilder{} }

// Put adds e. Nested sums are flattened and like terms merged. An addend
// whose free indices differ from the ones already collected panics with an
// *IndexError.
func (b *SumBuilder) Put(e Expr) *SumBuilder {
	if s, ok := e.(*Sum); ok {
		b.gen++
		for _, t := range s.terms {
			b.put(t, b.gen)
		}
		return b
	}
	b.put(e, 0)
	return b
}

func (b *SumBuilder) put(e Expr, origin int) {
	coeff, shape := Split(e)
	if coeff.IsZero() {
		return
	}
	b.checkFree(e)
	if b.buckets == nil {
		b.buckets = make(map[uint64][]int)
	}
	h := shape.Hash()
	for _, i := range b.buckets[h] {
		en := &b.entries[i]
		if !en.shape.Equal(shape) {
			continue
		}
		if origin != 0 && en.origin == origin {
			invariant("sum %s carries the shape %s twice", e, shape)
		}
		en.coeff = numAdd(en.coeff, coeff)
		return
	}
	b.buckets[h] = append(b.buckets[h], len(b.entries))
	b.entries = append(b.entries, sumEntry{coeff: coeff, shape: shape, origin: origin})
}

func (b *SumBuilder) checkFree(e Expr) {
	free := e.Free()
	if !b.hasFree {
		b.free, b.hasFree = free, true
		return
	}
	if b.free.sameSet(free) {
		return
	}
	idx := Index{}
	for _, i := range free {
		if !b.free.Contains(i) {
			idx = i
			break
		}
	}
	if idx.Name == "" {
		for _, i := range b.free {
			if !free.Contains(i) {
				idx = i
				break
			}
		}
	}
	panic(&IndexError{Op: "sum", Index: idx, Reason: "inconsistent free indices"})
}

// Build returns the canonical sum: zero when nothing is left, the single
// addend when one is left, a *Sum otherwise.
func (b *SumBuilder) Build() Expr {
	terms := make([]Expr, 0, len(b.entries))
	nested := false
	for _, en := range b.entries {
		if en.coeff.IsZero() {
			continue
		}
		t := scale(en.coeff, en.shape)
		_, isSum := t.(*Sum)
		nested = nested || isSum
		terms = append(terms, t)
	}
	if nested {
		// 2*(a+b) - (a+b) leaves the bare sum a+b, which must be flattened
		return AddOf(terms...)
	}
	switch len(terms) {
	case 0:
		return numZero
	case 1:
		return terms[0]
	}
	sort.Slice(terms, func(i, j int) bool { return Compare(terms[i], terms[j]) < 0 })
	return newSum(terms, b.free)
}

// AddOf returns the canonical sum of terms.
func AddOf(terms ...Expr) Expr {
	b := NewSumBuilder()
	for _, t := range terms {
		b.Put(t)
	}
	return b.Build()
}

// SubOf returns a - b.
func SubOf(a, b Expr) Expr { return AddOf(a, NegOf(b)) }

// ============================================================
// Shape key
// ============================================================

// Split separates e into its numeric coefficient and its shape: the node
// without that coefficient. Nodes with equal shapes are like terms.
// A number splits into itself and the shape 1.
func Split(e Expr) (*Num, Expr) {
	switch v := e.(type) {
	case *Num:
		return v, numOne
	case *Product:
		if v.coeff.IsOne() {
			return numOne, v
		}
		if len(v.factors) == 1 {
			return v.coeff, v.factors[0]
		}
		return v.coeff, v.shape()
	}
	return numOne, e
}

// scale multiplies a shape by a coefficient without re-running the
// product builder: the shape is already canonical.
func scale(coeff *Num, shape Expr) Expr {
	if coeff.IsOne() {
		return shape
	}
	if n, ok := shape.(*Num); ok {
		return numMul(coeff, n)
	}
	if coeff.IsZero() {
		return numZero
	}
	if p, ok := shape.(*Product); ok {
		return p.withCoeff(numMul(coeff, p.coeff))
	}
	return newProduct(coeff, []Expr{shape})
}
