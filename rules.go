package gotensor

// ============================================================
// Auxiliary rewrite rules
// ============================================================

// Transformation is a rewrite rule applied between expansion passes.
// Transform must return its argument itself when it changes nothing, so
// the fixpoint loop can detect the end with ==.
type Transformation interface {
	Transform(e Expr) Expr
}

// TransformationFunc adapts a function to Transformation.
type TransformationFunc func(Expr) Expr

func (f TransformationFunc) Transform(e Expr) Expr { return f(e) }

// Substitute replaces every subtree equal to from with to. Replacements
// are not searched again. Dummy indices of to are renamed away from the
// names of the tree they are inserted into.
func Substitute(from, to Expr) Transformation {
	return TransformationFunc(func(e Expr) Expr {
		repl := to
		if hasIndices(to) {
			forbidden := IndexNames(e)
			for _, i := range from.Free() {
				delete(forbidden, i.Name)
			}
			repl = RenameDummies(to, forbidden)
		}
		return Transform(e, ParentToChild, func(n Expr) Expr {
			if n.Hash() == from.Hash() && n.Equal(from) && !repl.Equal(n) {
				return repl
			}
			return n
		})
	})
}

// ContractKronecker removes the Kronecker delta name from products:
// name^a_b X^b becomes X^a, and name^a_b Y_a becomes Y_b.
func ContractKronecker(name string) Transformation {
	return TransformationFunc(func(e Expr) Expr {
		return Transform(e, ChildToParent, func(n Expr) Expr {
			p, ok := n.(*Product)
			if !ok {
				return n
			}
			return contractDeltas(name, p)
		}, WithGuard(hasIndices))
	})
}

// delta returns the upper and lower index names of a Kronecker factor.
func delta(name string, e Expr) (up, lo string, ok bool) {
	s, isSym := e.(*Sym)
	if !isSym || s.name != name || len(s.indices) != 2 {
		return "", "", false
	}
	a, b := s.indices[0], s.indices[1]
	if a.Upper == b.Upper || a.Name == b.Name {
		return "", "", false
	}
	if !a.Upper {
		a, b = b, a
	}
	return a.Name, b.Name, true
}

func contractDeltas(name string, p *Product) Expr {
	var out Expr = p
	for {
		prod, ok := out.(*Product)
		if !ok {
			return out
		}
		next, changed := contractOne(name, prod)
		if !changed {
			return out
		}
		out = next
	}
}

// contractOne contracts the first delta factor of p that has a partner.
func contractOne(name string, p *Product) (Expr, bool) {
	for i, f := range p.factors {
		a, b, ok := delta(name, f)
		if !ok {
			continue
		}
		for j, g := range p.factors {
			if j == i {
				continue
			}
			var from, to string
			switch free := g.Free(); {
			case free.Contains(Up(b)):
				from, to = b, a
			case free.Contains(Lo(a)):
				from, to = a, b
			default:
				continue
			}
			if DummyNames(g).Intersects(NewNameSet(a, b)) {
				g = RenameDummies(g, IndexNames(p))
			}
			g = renameIndices(g, map[string]string{from: to})
			ops := make([]Expr, 0, len(p.factors))
			ops = append(ops, p.coeff)
			for k, h := range p.factors {
				switch k {
				case i:
				case j:
					ops = append(ops, g)
				default:
					ops = append(ops, h)
				}
			}
			return MulOf(ops...), true
		}
	}
	return p, false
}
