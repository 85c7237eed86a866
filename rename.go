package gotensor

import "strconv"

// ============================================================
// Dummy index renaming
// ============================================================

// freshNames yields index names not in avoid, in the order a..z, a1..z1,
// a2..z2 and so on. Every name it returns is added to avoid.
type freshNames struct {
	avoid NameSet
	round int
	pos   int
}

func (f *freshNames) next() string {
	for {
		name := string(rune('a' + f.pos))
		if f.round > 0 {
			name += strconv.Itoa(f.round)
		}
		f.pos++
		if f.pos == 26 {
			f.pos = 0
			f.round++
		}
		if !f.avoid.Has(name) {
			f.avoid.Add(name)
			return name
		}
	}
}

// RenameDummies renames the dummy indices of e that occur in forbidden to
// fresh names used neither in e nor in forbidden. Free indices are never
// touched. When nothing collides, e itself is returned.
func RenameDummies(e Expr, forbidden NameSet) Expr {
	if len(forbidden) == 0 || !hasIndices(e) {
		return e
	}
	var clash []string
	for _, n := range DummyNames(e).Sorted() {
		if forbidden.Has(n) {
			clash = append(clash, n)
		}
	}
	if len(clash) == 0 {
		return e
	}
	avoid := IndexNames(e)
	avoid.AddAll(forbidden)
	fresh := &freshNames{avoid: avoid}
	mapping := make(map[string]string, len(clash))
	for _, n := range clash {
		mapping[n] = fresh.next()
	}
	return renameIndices(e, mapping)
}

// renameIndices applies mapping to every index name in e.
func renameIndices(e Expr, mapping map[string]string) Expr {
	rename := func(ix Indices) (Indices, bool) {
		var out Indices
		for i, idx := range ix {
			to, ok := mapping[idx.Name]
			if !ok {
				continue
			}
			if out == nil {
				out = append(Indices(nil), ix...)
			}
			out[i].Name = to
		}
		return out, out != nil
	}
	return Transform(e, ChildToParent, func(n Expr) Expr {
		switch v := n.(type) {
		case *Sym:
			if ix, ok := rename(v.indices); ok {
				return v.withIndices(ix)
			}
		case *Func:
			if ix, ok := rename(v.indices); ok {
				return newFunc(v.name, ix, v.args)
			}
		}
		return n
	}, WithGuard(hasIndices))
}

// crossTerm multiplies coeff and ops into one canonical term. Operands
// marked in fixed keep their names; every other operand whose dummies
// collide with a name already in use gets them renamed first.
func crossTerm(coeff *Num, ops []Expr, fixed []bool) Expr {
	indexed := false
	for _, op := range ops {
		if hasIndices(op) {
			indexed = true
			break
		}
	}
	b := NewProductBuilder().Put(coeff)
	if !indexed {
		for _, op := range ops {
			b.Put(op)
		}
		return b.Build()
	}
	used := NameSet{}
	for i, op := range ops {
		for _, idx := range op.Free() {
			used.Add(idx.Name)
		}
		if fixed != nil && fixed[i] {
			used.AddAll(IndexNames(op))
		}
	}
	for i, op := range ops {
		if (fixed == nil || !fixed[i]) && hasIndices(op) {
			if DummyNames(op).Intersects(used) {
				op = RenameDummies(op, used)
			}
			used.AddAll(IndexNames(op))
		}
		b.Put(op)
	}
	return b.Build()
}
