package gotensor

import (
	"fmt"
	"math/big"
)

// ============================================================
// Num: exact complex rational number
// ============================================================

// Num is an exact complex number with rational real and imaginary parts.
// A Num is immutable once built; all arithmetic returns fresh values.
type Num struct {
	re, im *big.Rat
	hash   uint64
}

var (
	numZero     = N(0)
	numOne      = N(1)
	numMinusOne = N(-1)
)

func newNum(re, im *big.Rat) *Num {
	n := &Num{re: re, im: im}
	h := newHasher(kindNum)
	h.str(re.RatString())
	h.str(im.RatString())
	n.hash = h.sum()
	return n
}

// N returns the integer n.
func N(n int64) *Num { return newNum(new(big.Rat).SetInt64(n), new(big.Rat)) }

// F returns the rational p/q. It panics with an *ArithmeticError if q is zero.
func F(p, q int64) *Num {
	if q == 0 {
		panic(&ArithmeticError{Op: "F", Reason: "denominator is zero"})
	}
	return newNum(new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q)), new(big.Rat))
}

// Complex returns re + im*I. Both parts must be real.
func Complex(re, im *Num) *Num {
	if !re.IsReal() || !im.IsReal() {
		panic(&ArithmeticError{Op: "Complex", Reason: "parts must be real"})
	}
	return newNum(new(big.Rat).Set(re.re), new(big.Rat).Set(im.re))
}

// I returns the imaginary unit.
func I() *Num { return newNum(new(big.Rat), new(big.Rat).SetInt64(1)) }

// NumFromRat returns the real number r. r is copied.
func NumFromRat(r *big.Rat) *Num { return newNum(new(big.Rat).Set(r), new(big.Rat)) }

func (n *Num) IsZero() bool     { return n.re.Sign() == 0 && n.im.Sign() == 0 }
func (n *Num) IsReal() bool     { return n.im.Sign() == 0 }
func (n *Num) IsOne() bool      { return n.IsReal() && n.re.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsMinusOne() bool { return n.IsReal() && n.re.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool  { return n.IsReal() && n.re.IsInt() }
func (n *Num) IsNegative() bool { return n.IsReal() && n.re.Sign() < 0 }

// IsNatural reports whether n is a non-negative integer.
func (n *Num) IsNatural() bool { return n.IsInteger() && n.re.Sign() >= 0 }

// Real returns a copy of the real part.
func (n *Num) Real() *big.Rat { return new(big.Rat).Set(n.re) }

// Imag returns a copy of the imaginary part.
func (n *Num) Imag() *big.Rat { return new(big.Rat).Set(n.im) }

// Int64 returns n as an int64 when n is an integer that fits.
func (n *Num) Int64() (int64, bool) {
	if !n.IsInteger() || !n.re.Num().IsInt64() {
		return 0, false
	}
	return n.re.Num().Int64(), true
}

func (n *Num) Hash() uint64     { return n.hash }
func (n *Num) Free() Indices    { return nil }
func (n *Num) Len() int         { return 0 }
func (n *Num) At(i int) Expr    { panic(outOfRange(n, i)) }
func (n *Num) exprType() string { return "num" }
func (n *Num) Equal(other Expr) bool {
	o, ok := other.(*Num)
	return ok && n.re.Cmp(o.re) == 0 && n.im.Cmp(o.im) == 0
}

func ratString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	return r.RatString()
}

func (n *Num) String() string {
	if n.IsReal() {
		return ratString(n.re)
	}
	imag := ""
	switch {
	case n.im.Cmp(big.NewRat(1, 1)) == 0:
		imag = "I"
	case n.im.Cmp(big.NewRat(-1, 1)) == 0:
		imag = "-I"
	default:
		imag = ratString(n.im) + "*I"
	}
	if n.re.Sign() == 0 {
		return imag
	}
	if n.im.Sign() < 0 {
		return ratString(n.re) + imag
	}
	return ratString(n.re) + "+" + imag
}

func ratLaTeX(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(r)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) LaTeX() string {
	if n.IsReal() {
		return ratLaTeX(n.re)
	}
	imag := ratLaTeX(n.im) + "\\mathrm{i}"
	if n.re.Sign() == 0 {
		return imag
	}
	if n.im.Sign() < 0 {
		return ratLaTeX(n.re) + imag
	}
	return ratLaTeX(n.re) + "+" + imag
}

func (n *Num) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "num", "value": ratString(n.re)}
	if !n.IsReal() {
		m["imag"] = ratString(n.im)
	}
	return m
}

func numAdd(a, b *Num) *Num {
	return newNum(new(big.Rat).Add(a.re, b.re), new(big.Rat).Add(a.im, b.im))
}

func numSub(a, b *Num) *Num { return numAdd(a, numNeg(b)) }

func numNeg(a *Num) *Num {
	return newNum(new(big.Rat).Neg(a.re), new(big.Rat).Neg(a.im))
}

func numMul(a, b *Num) *Num {
	if a.IsReal() && b.IsReal() {
		return newNum(new(big.Rat).Mul(a.re, b.re), new(big.Rat))
	}
	// (a+bi)(c+di) = (ac-bd) + (ad+bc)i
	ac := new(big.Rat).Mul(a.re, b.re)
	bd := new(big.Rat).Mul(a.im, b.im)
	ad := new(big.Rat).Mul(a.re, b.im)
	bc := new(big.Rat).Mul(a.im, b.re)
	return newNum(ac.Sub(ac, bd), ad.Add(ad, bc))
}

func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic(&ArithmeticError{Op: "reciprocal", Reason: "division by zero"})
	}
	if a.IsReal() {
		return newNum(new(big.Rat).Inv(a.re), new(big.Rat))
	}
	// 1/(a+bi) = (a-bi)/(a^2+b^2)
	norm := new(big.Rat).Mul(a.re, a.re)
	norm.Add(norm, new(big.Rat).Mul(a.im, a.im))
	re := new(big.Rat).Quo(a.re, norm)
	im := new(big.Rat).Quo(a.im, norm)
	return newNum(re, im.Neg(im))
}

// numPowInt raises a to the integer power e by repeated squaring.
func numPowInt(a *Num, e int64) *Num {
	if e == 0 {
		return numOne
	}
	if e < 0 {
		if a.IsZero() {
			panic(&ArithmeticError{Op: "power", Reason: "zero raised to a negative power"})
		}
		return numRecip(numPowInt(a, -e))
	}
	result := numOne
	base := a
	for e > 0 {
		if e&1 == 1 {
			result = numMul(result, base)
		}
		e >>= 1
		if e > 0 {
			base = numMul(base, base)
		}
	}
	return result
}

// numCmp orders numbers by real part, then imaginary part.
func numCmp(a, b *Num) int {
	if c := a.re.Cmp(b.re); c != 0 {
		return c
	}
	return a.im.Cmp(b.im)
}
