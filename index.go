package gotensor

import (
	"sort"
	"strings"
)

// ============================================================
// Indices: tensor index descriptors
// ============================================================

// Index is a single tensor index: a name and its upper/lower state.
type Index struct {
	Name  string
	Upper bool
}

// Up returns the upper (contravariant) index name.
func Up(name string) Index { return Index{Name: name, Upper: true} }

// Lo returns the lower (covariant) index name.
func Lo(name string) Index { return Index{Name: name} }

func (i Index) String() string {
	if i.Upper {
		return "^" + i.Name
	}
	return "_" + i.Name
}

// Inverse returns the same name in the opposite state.
func (i Index) Inverse() Index { return Index{Name: i.Name, Upper: !i.Upper} }

// Indices is an ordered list of indices.
type Indices []Index

// String renders the list in tensor notation, grouping runs of equal state:
// ^{ab}_{c}. Multi-letter names are separated by spaces.
func (ix Indices) String() string {
	if len(ix) == 0 {
		return ""
	}
	sep := ""
	for _, i := range ix {
		if len(i.Name) > 1 {
			sep = " "
			break
		}
	}
	var sb strings.Builder
	for start := 0; start < len(ix); {
		end := start
		for end < len(ix) && ix[end].Upper == ix[start].Upper {
			end++
		}
		if ix[start].Upper {
			sb.WriteString("^{")
		} else {
			sb.WriteString("_{")
		}
		for k := start; k < end; k++ {
			if k > start {
				sb.WriteString(sep)
			}
			sb.WriteString(ix[k].Name)
		}
		sb.WriteString("}")
		start = end
	}
	return sb.String()
}

// Names returns the index names in order.
func (ix Indices) Names() []string {
	out := make([]string, len(ix))
	for i, idx := range ix {
		out[i] = idx.Name
	}
	return out
}

// Contains reports whether idx occurs in the list.
func (ix Indices) Contains(idx Index) bool {
	for _, i := range ix {
		if i == idx {
			return true
		}
	}
	return false
}

// sameSet reports whether both lists hold the same indices, ignoring order.
func (ix Indices) sameSet(other Indices) bool {
	if len(ix) != len(other) {
		return false
	}
	for _, i := range ix {
		if !other.Contains(i) {
			return false
		}
	}
	return true
}

// sorted returns a copy ordered by name, lower before upper.
func (ix Indices) sorted() Indices {
	out := append(Indices(nil), ix...)
	sort.Slice(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return !out[a].Upper && out[b].Upper
	})
	return out
}

// contract concatenates the groups and removes contracted pairs (the same
// name once upper and once lower). What remains are the free indices, in
// order of appearance. A name occurring twice in the same state panics
// with an *IndexError.
func contract(op string, groups ...Indices) Indices {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if total == 0 {
		return nil
	}
	type seen struct{ upper, lower int }
	count := make(map[string]*seen, total)
	for _, g := range groups {
		for _, i := range g {
			s := count[i.Name]
			if s == nil {
				s = &seen{}
				count[i.Name] = s
			}
			if i.Upper {
				s.upper++
			} else {
				s.lower++
			}
			if s.upper > 1 || s.lower > 1 {
				panic(&IndexError{Op: op, Index: i, Reason: "repeated index"})
			}
		}
	}
	var free Indices
	for _, g := range groups {
		for _, i := range g {
			s := count[i.Name]
			if s.upper+s.lower == 1 {
				free = append(free, i)
			}
		}
	}
	return free
}

// ============================================================
// Index capability
// ============================================================

// NameSet is a set of index names.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s NameSet) Has(name string) bool { _, ok := s[name]; return ok }
func (s NameSet) Add(name string)      { s[name] = struct{}{} }

// AddAll adds every name of other.
func (s NameSet) AddAll(other NameSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Clone returns an independent copy.
func (s NameSet) Clone() NameSet {
	out := make(NameSet, len(s))
	out.AddAll(s)
	return out
}

// Intersects reports whether the sets share a name.
func (s NameSet) Intersects(other NameSet) bool {
	a, b := s, other
	if len(a) > len(b) {
		a, b = b, a
	}
	for n := range a {
		if b.Has(n) {
			return true
		}
	}
	return false
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// FreeIndices returns the free indices of e.
func FreeIndices(e Expr) Indices { return e.Free() }

// IsScalar reports whether e has no free indices.
func IsScalar(e Expr) bool { return len(e.Free()) == 0 }

// hasIndices reports whether any index occurs anywhere inside e.
func hasIndices(e Expr) bool {
	switch v := e.(type) {
	case *Sym:
		return len(v.indices) > 0
	case *Func:
		return v.indexed
	case *Power:
		return v.indexed
	case *Product:
		return v.indexed
	case *Sum:
		return v.indexed
	}
	return false
}

// IndexNames returns every index name occurring anywhere inside e,
// including dummies of nested sums, powers and function arguments.
func IndexNames(e Expr) NameSet {
	out := NameSet{}
	collectIndexNames(e, out)
	return out
}

func collectIndexNames(e Expr, out NameSet) {
	if !hasIndices(e) {
		return
	}
	switch v := e.(type) {
	case *Sym:
		for _, i := range v.indices {
			out.Add(i.Name)
		}
		return
	case *Func:
		for _, i := range v.indices {
			out.Add(i.Name)
		}
	}
	for i := 0; i < e.Len(); i++ {
		collectIndexNames(e.At(i), out)
	}
}

// DummyNames returns the index names of e that are not free at its top
// level. These are the names RenameDummies may change.
func DummyNames(e Expr) NameSet {
	names := IndexNames(e)
	for _, i := range e.Free() {
		delete(names, i.Name)
	}
	return names
}
