package gotensor

import (
	"strings"
)

// ============================================================
// String and LaTeX rendering of composite nodes
// ============================================================

// String renders e in plain notation.
func String(e Expr) string { return e.String() }

// LaTeX renders e as LaTeX.
func LaTeX(e Expr) string { return e.LaTeX() }

// negated reports whether t is rendered with a leading minus and returns
// its absolute value.
func negated(t Expr) (Expr, bool) {
	c, shape := Split(t)
	if !c.IsNegative() {
		return t, false
	}
	return scale(numNeg(c), shape), true
}

func (s *Sum) String() string {
	var sb strings.Builder
	for i, t := range s.terms {
		abs, neg := negated(t)
		switch {
		case i == 0 && neg:
			sb.WriteString("-")
		case i > 0 && neg:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		sb.WriteString(abs.String())
	}
	return sb.String()
}

func (s *Sum) LaTeX() string {
	var sb strings.Builder
	for i, t := range s.terms {
		abs, neg := negated(t)
		switch {
		case i == 0 && neg:
			sb.WriteString("-")
		case i > 0 && neg:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		sb.WriteString(abs.LaTeX())
	}
	return sb.String()
}

func factorString(f Expr) string {
	if _, ok := f.(*Sum); ok {
		return "(" + f.String() + ")"
	}
	return f.String()
}

func (p *Product) String() string {
	parts := make([]string, 0, len(p.factors)+1)
	prefix := ""
	switch {
	case p.coeff.IsOne():
	case p.coeff.IsMinusOne():
		prefix = "-"
	case p.coeff.IsReal():
		parts = append(parts, p.coeff.String())
	default:
		parts = append(parts, "("+p.coeff.String()+")")
	}
	for _, f := range p.factors {
		parts = append(parts, factorString(f))
	}
	return prefix + strings.Join(parts, "*")
}

func (p *Product) LaTeX() string {
	var num, den []string
	for _, f := range p.factors {
		if pw, ok := f.(*Power); ok {
			if e, ok := pw.exp.(*Num); ok && e.IsNegative() {
				den = append(den, PowOf(pw.base, numNeg(e)).LaTeX())
				continue
			}
		}
		if _, ok := f.(*Sum); ok {
			num = append(num, "\\left("+f.LaTeX()+"\\right)")
			continue
		}
		num = append(num, f.LaTeX())
	}
	prefix := ""
	c := p.coeff
	if c.IsNegative() {
		prefix = "-"
		c = numNeg(c)
	}
	if !c.IsOne() {
		if c.IsReal() {
			num = append([]string{c.LaTeX()}, num...)
		} else {
			num = append([]string{"\\left(" + c.LaTeX() + "\\right)"}, num...)
		}
	}
	top := strings.Join(num, " ")
	if top == "" {
		top = "1"
	}
	if len(den) == 0 {
		return prefix + top
	}
	return prefix + "\\frac{" + top + "}{" + strings.Join(den, " ") + "}"
}

func atomic(e Expr) bool {
	switch v := e.(type) {
	case *Sym, *Func:
		return true
	case *Num:
		return v.IsNatural()
	}
	return false
}

func (p *Power) String() string {
	b, e := p.base.String(), p.exp.String()
	if !atomic(p.base) {
		b = "(" + b + ")"
	}
	if !atomic(p.exp) {
		e = "(" + e + ")"
	}
	return b + "^" + e
}

func (p *Power) LaTeX() string {
	if e, ok := p.exp.(*Num); ok && e.IsMinusOne() {
		return "\\frac{1}{" + p.base.LaTeX() + "}"
	}
	b := p.base.LaTeX()
	if !atomic(p.base) {
		b = "\\left(" + b + "\\right)"
	}
	return b + "^{" + p.exp.LaTeX() + "}"
}
