package gotensor

// ============================================================
// Power
// ============================================================

// Power is base^exp. The exponent is never 0 or 1, both operands are
// scalar, and a numeric base only occurs with a non-integer exponent
// that exact arithmetic cannot fold (2^(1/2), 2^x).
type Power struct {
	base, exp Expr
	indexed   bool
	nc        bool
	hash      uint64
}

func newPower(base, exp Expr) *Power {
	p := &Power{
		base:    base,
		exp:     exp,
		indexed: hasIndices(base) || hasIndices(exp),
		nc:      !commutes(base),
	}
	h := newHasher(kindPower)
	h.u64(base.Hash())
	h.u64(exp.Hash())
	p.hash = h.sum()
	return p
}

func (p *Power) Base() Expr       { return p.base }
func (p *Power) Exp() Expr        { return p.exp }
func (p *Power) Hash() uint64     { return p.hash }
func (p *Power) Free() Indices    { return nil }
func (p *Power) Len() int         { return 2 }
func (p *Power) exprType() string { return "power" }

func (p *Power) At(i int) Expr {
	switch i {
	case 0:
		return p.base
	case 1:
		return p.exp
	}
	panic(outOfRange(p, i))
}

func (p *Power) Equal(other Expr) bool {
	o, ok := other.(*Power)
	return ok && p.hash == o.hash && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Power) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "power", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}

// PowOf returns the canonical base^exp.
//
// Numbers with an integer exponent fold exactly. A power of a power with
// an integer outer exponent multiplies the exponents. An integer power of
// a commutative product without indices distributes over its factors.
// Powers of sums always stay symbolic; expanding them is Expand's job.
func PowOf(base, exp Expr) Expr {
	en, eNum := exp.(*Num)
	if eNum && en.IsOne() {
		return base
	}
	if free := base.Free(); len(free) > 0 {
		panic(&IndexError{Op: "power", Index: free[0], Reason: "non-scalar base"})
	}
	if free := exp.Free(); len(free) > 0 {
		panic(&IndexError{Op: "power", Index: free[0], Reason: "non-scalar exponent"})
	}
	if eNum && en.IsZero() {
		return numOne
	}
	bn, bNum := base.(*Num)
	if bNum {
		switch {
		case bn.IsOne():
			return numOne
		case eNum:
			if k, ok := en.Int64(); ok {
				return numPowInt(bn, k)
			}
			if bn.IsZero() && en.IsReal() && !en.IsNegative() {
				return numZero
			}
		}
		return newPower(base, exp)
	}
	if !eNum || !en.IsInteger() {
		return newPower(base, exp)
	}
	switch v := base.(type) {
	case *Power:
		return PowOf(v.base, MulOf(v.exp, en))
	case *Product:
		if v.nc || v.indexed {
			break
		}
		fs := make([]Expr, 0, len(v.factors)+1)
		fs = append(fs, PowOf(v.coeff, en))
		for _, f := range v.factors {
			fs = append(fs, PowOf(f, en))
		}
		return MulOf(fs...)
	}
	return newPower(base, exp)
}
