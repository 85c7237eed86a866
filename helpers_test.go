package gotensor_test

import (
	"testing"

	gt "github.com/njchilds90/gotensor"
)

var (
	a = gt.S("a")
	b = gt.S("b")
	c = gt.S("c")
	d = gt.S("d")
	x = gt.S("x")
	y = gt.S("y")
)

func assertEqualExpr(t *testing.T, want, got gt.Expr) {
	t.Helper()
	if !gt.Equal(want, got) {
		t.Errorf("want %s, got %s", want, got)
	}
}

func strs(es []gt.Expr) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.String()
	}
	return out
}

// trace returns name^i_i.
func trace(name, i string) gt.Expr { return gt.T(name, gt.Up(i), gt.Lo(i)) }

// fault runs fn and returns the index or arithmetic fault it raised.
func fault(fn func()) error { return gt.Try(fn) }
