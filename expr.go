// Package gotensor is a symbolic kernel for tensor expressions.
//
// Expressions are immutable trees built only through canonicalizing
// constructors (AddOf, MulOf, PowOf and friends), so every Sum, Product
// and Power is flattened, has its numeric coefficients folded and its
// like terms merged. On top of that the package provides a generic
// rewrite iterator and an expansion engine that distributes products and
// integer powers over sums while keeping tensor indices consistent.
//
// Design goals:
//   - Exact complex rational arithmetic (math/big.Rat), never floats
//   - Unchanged subtrees are shared, never copied: a rewrite that changes
//     nothing returns the very same node
//   - Deterministic canonical order and stable output
//   - AI/LLM friendly: JSON, LaTeX, and MCP-ready APIs
package gotensor

import (
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is a node of an expression tree. The set of implementations is
// closed: *Num, *Sym, *Sum, *Product, *Power and *Func.
type Expr interface {
	String() string
	LaTeX() string
	Equal(other Expr) bool
	// Hash is a structural hash; equal nodes have equal hashes.
	Hash() uint64
	// Free returns the free indices of the node.
	Free() Indices
	// Len and At expose the children in canonical order.
	Len() int
	At(i int) Expr
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Sym: named scalar or tensor
// ============================================================

// Sym is an atomic symbol, optionally carrying tensor indices.
type Sym struct {
	name    string
	indices Indices
	free    Indices
	nc      bool
	hash    uint64
}

// S returns the scalar symbol name.
func S(name string) *Sym { return newSym(name, nil, false) }

// T returns the tensor name with the given indices, e.g. T("F", Up("a"), Lo("b")).
func T(name string, idx ...Index) *Sym { return newSym(name, idx, false) }

// NC returns a non-commutative symbol: products keep the relative order
// of non-commutative factors.
func NC(name string, idx ...Index) *Sym { return newSym(name, idx, true) }

func newSym(name string, idx Indices, nc bool) *Sym {
	if name == "" {
		panic("gotensor: symbol name must not be empty")
	}
	s := &Sym{name: name, nc: nc}
	if len(idx) > 0 {
		s.indices = append(Indices(nil), idx...)
		s.free = contract("symbol "+name, s.indices)
	}
	h := newHasher(kindSym)
	h.str(name)
	h.indices(s.indices)
	h.flag(nc)
	s.hash = h.sum()
	return s
}

func (s *Sym) Name() string       { return s.name }
func (s *Sym) Indices() Indices   { return s.indices }
func (s *Sym) Commutative() bool  { return !s.nc }
func (s *Sym) Hash() uint64       { return s.hash }
func (s *Sym) Free() Indices      { return s.free }
func (s *Sym) Len() int           { return 0 }
func (s *Sym) At(i int) Expr      { panic(outOfRange(s, i)) }
func (s *Sym) exprType() string   { return "sym" }
func (s *Sym) String() string     { return s.name + s.indices.String() }
func (s *Sym) LaTeX() string      { return s.name + s.indices.String() }
func (s *Sym) Equal(other Expr) bool {
	o, ok := other.(*Sym)
	if !ok || s.hash != o.hash || s.name != o.name || s.nc != o.nc || len(s.indices) != len(o.indices) {
		return false
	}
	for i := range s.indices {
		if s.indices[i] != o.indices[i] {
			return false
		}
	}
	return true
}

func (s *Sym) toJSON() map[string]interface{} {
	m := map[string]interface{}{"type": "sym", "name": s.name}
	if len(s.indices) > 0 {
		m["indices"] = indicesJSON(s.indices)
	}
	if s.nc {
		m["noncommutative"] = true
	}
	return m
}

// withIndices returns s with its index list replaced.
func (s *Sym) withIndices(idx Indices) *Sym { return newSym(s.name, idx, s.nc) }

// ============================================================
// Func: named functions and fields
// ============================================================

// Func is a named operator applied to arguments. A field may carry its own
// indices (F_{a}(x)); the arguments are a separate index scope.
type Func struct {
	name    string
	indices Indices
	free    Indices
	args    []Expr
	indexed bool
	hash    uint64
}

// FuncOf applies the scalar function name to args.
func FuncOf(name string, args ...Expr) Expr { return newFunc(name, nil, args) }

// FieldOf applies the indexed field name to args.
func FieldOf(name string, idx Indices, args ...Expr) Expr { return newFunc(name, idx, args) }

func SinOf(arg Expr) Expr { return FuncOf("sin", arg) }
func CosOf(arg Expr) Expr { return FuncOf("cos", arg) }
func ExpOf(arg Expr) Expr { return FuncOf("exp", arg) }
func LnOf(arg Expr) Expr  { return FuncOf("ln", arg) }

func newFunc(name string, idx Indices, args []Expr) *Func {
	if name == "" {
		panic("gotensor: function name must not be empty")
	}
	if len(args) == 0 {
		panic("gotensor: function " + name + " needs at least one argument")
	}
	f := &Func{name: name, args: append([]Expr(nil), args...)}
	if len(idx) > 0 {
		f.indices = append(Indices(nil), idx...)
		f.free = contract("field "+name, f.indices)
		f.indexed = true
	}
	h := newHasher(kindFunc)
	h.str(name)
	h.indices(f.indices)
	for _, a := range f.args {
		h.u64(a.Hash())
		f.indexed = f.indexed || hasIndices(a)
	}
	f.hash = h.sum()
	return f
}

func (f *Func) FuncName() string  { return f.name }
func (f *Func) Indices() Indices  { return f.indices }
func (f *Func) Args() []Expr      { return f.args }
func (f *Func) Hash() uint64      { return f.hash }
func (f *Func) Free() Indices     { return f.free }
func (f *Func) Len() int          { return len(f.args) }
func (f *Func) At(i int) Expr     { return f.args[i] }
func (f *Func) exprType() string  { return "func" }

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	if !ok || f.hash != o.hash || f.name != o.name || len(f.args) != len(o.args) || compareIndices(f.indices, o.indices) != 0 {
		return false
	}
	for i := range f.args {
		if !f.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (f *Func) String() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.String()
	}
	return f.name + f.indices.String() + "(" + strings.Join(parts, ", ") + ")"
}

func (f *Func) LaTeX() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.LaTeX()
	}
	args := "\\left(" + strings.Join(parts, ", ") + "\\right)"
	switch f.name {
	case "sin", "cos", "tan", "exp", "ln", "sinh", "cosh", "tanh":
		if len(f.indices) == 0 {
			return "\\" + f.name + args
		}
	}
	return "\\operatorname{" + f.name + "}" + f.indices.String() + args
}

func (f *Func) toJSON() map[string]interface{} {
	args := make([]map[string]interface{}, len(f.args))
	for i, a := range f.args {
		args[i] = a.toJSON()
	}
	m := map[string]interface{}{"type": "func", "name": f.name, "args": args}
	if len(f.indices) > 0 {
		m["indices"] = indicesJSON(f.indices)
	}
	return m
}

// ============================================================
// Structural helpers
// ============================================================

// commutes reports whether e commutes with every other factor.
func commutes(e Expr) bool {
	switch v := e.(type) {
	case *Sym:
		return !v.nc
	case *Power:
		return !v.nc
	case *Product:
		return !v.nc
	case *Sum:
		return !v.nc
	}
	return true
}

// Rebuild returns e with its children replaced, canonicalized through the
// builder for e's kind. Leaves are returned unchanged.
func Rebuild(e Expr, children []Expr) Expr {
	switch v := e.(type) {
	case *Sum:
		return AddOf(children...)
	case *Product:
		return MulOf(children...)
	case *Power:
		return PowOf(children[0], children[1])
	case *Func:
		return newFunc(v.name, v.indices, children)
	}
	return e
}

// Size returns the number of nodes in e.
func Size(e Expr) int {
	n := 1
	for i := 0; i < e.Len(); i++ {
		n += Size(e.At(i))
	}
	return n
}

func indicesJSON(ix Indices) []map[string]interface{} {
	out := make([]map[string]interface{}, len(ix))
	for i, idx := range ix {
		out[i] = map[string]interface{}{"name": idx.Name, "upper": idx.Upper}
	}
	return out
}
