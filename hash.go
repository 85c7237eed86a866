package gotensor

import (
	"cmp"
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// kind tags the node variants. The order is the rank used by Compare.
type kind byte

const (
	kindNum kind = iota
	kindSym
	kindFunc
	kindPower
	kindProduct
	kindSum
)

func kindOf(e Expr) kind {
	switch e.(type) {
	case *Num:
		return kindNum
	case *Sym:
		return kindSym
	case *Func:
		return kindFunc
	case *Power:
		return kindPower
	case *Product:
		return kindProduct
	case *Sum:
		return kindSum
	}
	panic("gotensor: unknown expression node")
}

// hasher accumulates a structural hash. Child hashes are written in order,
// so a node's hash depends on the canonical order of its children.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newHasher(k kind) *hasher {
	h := &hasher{d: xxhash.New()}
	h.d.Write([]byte{byte(k)})
	return h
}

func (h *hasher) u64(v uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], v)
	h.d.Write(h.buf[:])
}

func (h *hasher) str(s string) {
	h.u64(uint64(len(s)))
	h.d.WriteString(s)
}

func (h *hasher) flag(b bool) {
	if b {
		h.d.Write([]byte{1})
	} else {
		h.d.Write([]byte{0})
	}
}

func (h *hasher) indices(ix Indices) {
	h.u64(uint64(len(ix)))
	for _, i := range ix {
		h.str(i.Name)
		h.flag(i.Upper)
	}
}

func (h *hasher) sum() uint64 { return h.d.Sum64() }

// Equal reports whether a and b are structurally identical.
func Equal(a, b Expr) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Equal(b)
}

// Compare is the total structural order used to lay out sum addends and
// commuting product factors. It returns 0 exactly when Equal(a, b).
//
// Numbers sort first. Every other node is keyed by the bases of its
// factors (a product) or its own base, then by the matching exponents,
// then by coefficient. So a, a^2, 2*a*b, b^2 keep that order.
func Compare(a, b Expr) int {
	if a == b {
		return 0
	}
	an, aNum := a.(*Num)
	bn, bNum := b.(*Num)
	switch {
	case aNum && bNum:
		return numCmp(an, bn)
	case aNum:
		return -1
	case bNum:
		return 1
	}
	fa, ca := factorsOf(a)
	fb, cb := factorsOf(b)
	for i := 0; i < len(fa) && i < len(fb); i++ {
		ba, _ := baseExp(fa[i])
		bb, _ := baseExp(fb[i])
		if c := compareBase(ba, bb); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(len(fa), len(fb)); c != 0 {
		return c
	}
	for i := range fa {
		_, ea := baseExp(fa[i])
		_, eb := baseExp(fb[i])
		if c := Compare(ea, eb); c != 0 {
			return c
		}
	}
	return numCmp(ca, cb)
}

// factorsOf returns the non-numeric factors and the coefficient of e.
func factorsOf(e Expr) ([]Expr, *Num) {
	if p, ok := e.(*Product); ok {
		return p.factors, p.coeff
	}
	return []Expr{e}, numOne
}

func baseExp(e Expr) (Expr, Expr) {
	if p, ok := e.(*Power); ok {
		return p.base, p.exp
	}
	return e, numOne
}

func compareBase(a, b Expr) int {
	if a == b {
		return 0
	}
	ka, kb := kindOf(a), kindOf(b)
	if ka == kindPower || kb == kindPower || ka == kindNum || kb == kindNum {
		// nested power bases, or numeric bases of symbolic powers
		if ka != kb {
			return cmp.Compare(ka, kb)
		}
		if ka == kindNum {
			return numCmp(a.(*Num), b.(*Num))
		}
		pa, pb := a.(*Power), b.(*Power)
		if c := compareBase(pa.base, pb.base); c != 0 {
			return c
		}
		return Compare(pa.exp, pb.exp)
	}
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch x := a.(type) {
	case *Sym:
		y := b.(*Sym)
		if c := strings.Compare(x.name, y.name); c != 0 {
			return c
		}
		if c := compareIndices(x.indices, y.indices); c != 0 {
			return c
		}
		return compareFlag(x.nc, y.nc)
	case *Func:
		y := b.(*Func)
		if c := strings.Compare(x.name, y.name); c != 0 {
			return c
		}
		if c := compareIndices(x.indices, y.indices); c != 0 {
			return c
		}
		return compareLists(x.args, y.args)
	case *Product:
		y := b.(*Product)
		if c := compareLists(x.factors, y.factors); c != 0 {
			return c
		}
		return numCmp(x.coeff, y.coeff)
	case *Sum:
		return compareLists(x.terms, b.(*Sum).terms)
	}
	return 0
}

func compareLists(a, b []Expr) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareIndices(a, b Indices) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Name, b[i].Name); c != 0 {
			return c
		}
		if c := compareFlag(a[i].Upper, b[i].Upper); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareFlag(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}
