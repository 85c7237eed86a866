package gotensor_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	gt "github.com/njchilds90/gotensor"
)

// ============================================================
// Expand tests
// ============================================================

func TestExpand_LeavesExpandedTreesIdentical(t *testing.T) {
	for _, e := range []gt.Expr{
		a,
		gt.N(3),
		gt.MulOf(a, b),
		gt.AddOf(a, gt.MulOf(b, c)),
		gt.PowOf(gt.AddOf(a, b), gt.N(-1)),
		gt.PowOf(gt.AddOf(a, b), gt.F(1, 2)),
		gt.SinOf(gt.AddOf(a, b)),
	} {
		assert.True(t, gt.Expand(e) == e, "Expand(%s) rebuilt the tree", e)
	}
}

func TestExpand_BinomialTermCount(t *testing.T) {
	apb := gt.AddOf(a, b)
	for i := int64(2); i < 30; i++ {
		r := gt.Expand(gt.PowOf(apb, gt.N(i)))
		s, ok := r.(*gt.Sum)
		require.True(t, ok, "(a+b)^%d", i)
		assert.Equal(t, int(i)+1, s.Len(), "(a+b)^%d", i)

		// coefficients add up to 2^i
		total := new(big.Rat)
		for _, term := range s.Terms() {
			coeff, _ := gt.Split(term)
			total.Add(total, coeff.Real())
		}
		assert.Equal(t, new(big.Rat).SetInt64(1<<i), total, "(a+b)^%d", i)
	}
}

func TestExpand_Square(t *testing.T) {
	r := gt.Expand(gt.PowOf(gt.AddOf(a, b), gt.N(2)))
	assert.Equal(t, "a^2 + 2*a*b + b^2", r.String())
}

func TestExpand_Distributivity(t *testing.T) {
	apb := gt.AddOf(a, b)

	r := gt.Expand(gt.AddOf(gt.MulOf(apb, c), gt.MulOf(a, c)))
	assertEqualExpr(t, gt.AddOf(gt.MulOf(gt.N(2), a, c), gt.MulOf(b, c)), r)

	r = gt.Expand(gt.SubOf(gt.MulOf(apb, c), gt.MulOf(a, c)))
	assertEqualExpr(t, gt.MulOf(b, c), r)
}

func TestExpand_CancelsToZero(t *testing.T) {
	apb, amb := gt.AddOf(a, b), gt.SubOf(a, b)
	// (a+b)(a-b) - a^2 + b^2 = 0
	e := gt.AddOf(gt.MulOf(apb, amb), gt.NegOf(gt.PowOf(a, gt.N(2))), gt.PowOf(b, gt.N(2)))
	assertEqualExpr(t, gt.N(0), gt.Expand(e))
}

func TestExpand_NestedPowers(t *testing.T) {
	// ((a+b)^2 + c)^2 has 9 terms
	inner := gt.AddOf(gt.PowOf(gt.AddOf(a, b), gt.N(2)), c)
	r := gt.Expand(gt.PowOf(inner, gt.N(2)))
	require.IsType(t, &gt.Sum{}, r)
	assert.Equal(t, 9, r.Len())
	assert.True(t, gt.IsExpanded(r))
}

func TestExpand_InsideFunctions(t *testing.T) {
	r := gt.Expand(gt.SinOf(gt.PowOf(gt.AddOf(a, b), gt.N(2))))
	assertEqualExpr(t, gt.SinOf(gt.AddOf(gt.PowOf(a, gt.N(2)), gt.MulOf(gt.N(2), a, b), gt.PowOf(b, gt.N(2)))), r)
}

func TestExpand_IsExpanded(t *testing.T) {
	apb := gt.AddOf(a, b)
	for _, e := range []gt.Expr{
		gt.PowOf(apb, gt.N(5)),
		gt.MulOf(apb, gt.AddOf(c, d), gt.PowOf(gt.AddOf(a, c), gt.N(2))),
		gt.DivOf(gt.PowOf(apb, gt.N(2)), gt.AddOf(c, d)),
		gt.MulOf(gt.T("x", gt.Up("i")), gt.AddOf(gt.T("y", gt.Lo("i")), gt.T("z", gt.Lo("i")))),
	} {
		assert.False(t, gt.IsExpanded(e), "%s", e)
		assert.True(t, gt.IsExpanded(gt.Expand(e)), "Expand(%s)", e)
	}
}

func TestExpand_Deterministic(t *testing.T) {
	e := gt.MulOf(
		gt.PowOf(gt.AddOf(a, b, gt.N(1)), gt.N(3)),
		gt.AddOf(gt.T("x", gt.Up("i")), gt.T("y", gt.Up("i"))),
		gt.AddOf(trace("A", "i"), c),
	)
	first := gt.Expand(e)
	for i := 0; i < 100; i++ {
		r := gt.Expand(e)
		require.True(t, gt.Equal(first, r), "run %d differs", i)
		require.Equal(t, first.String(), r.String(), "run %d prints differently", i)
	}
}

// ============================================================
// Numerator / denominator tests
// ============================================================

func fraction() gt.Expr {
	return gt.DivOf(gt.PowOf(gt.AddOf(a, b), gt.N(2)), gt.PowOf(gt.AddOf(c, d), gt.N(2)))
}

func square(u, v gt.Expr) gt.Expr {
	return gt.AddOf(gt.PowOf(u, gt.N(2)), gt.MulOf(gt.N(2), u, v), gt.PowOf(v, gt.N(2)))
}

func TestExpandDenominator(t *testing.T) {
	r := gt.ExpandDenominator(fraction())
	want := gt.MulOf(gt.PowOf(gt.AddOf(a, b), gt.N(2)), gt.PowOf(square(c, d), gt.N(-1)))
	assertEqualExpr(t, want, r)
}

func TestExpandDenominator_LeavesSimpleInverse(t *testing.T) {
	inv := gt.PowOf(gt.AddOf(a, b), gt.N(-1))
	assert.True(t, gt.ExpandDenominator(inv) == inv)
}

func TestExpandNumerator(t *testing.T) {
	r := gt.ExpandNumerator(fraction())
	want := gt.MulOf(square(a, b), gt.PowOf(gt.AddOf(c, d), gt.N(-2)))
	assertEqualExpr(t, want, r)
}

func TestExpandNumerator_DistributesOverNumeratorFactors(t *testing.T) {
	e := gt.DivOf(gt.MulOf(gt.AddOf(a, b), c), gt.AddOf(c, d))
	r := gt.ExpandNumerator(e)
	want := gt.MulOf(gt.AddOf(gt.MulOf(a, c), gt.MulOf(b, c)), gt.PowOf(gt.AddOf(c, d), gt.N(-1)))
	assertEqualExpr(t, want, r)
}

// ============================================================
// Tensor expansion tests
// ============================================================

func TestExpandTensors(t *testing.T) {
	f := gt.T("f", gt.Lo("a"))
	tt := gt.T("t", gt.Lo("a"))
	k := gt.T("k", gt.Up("a"))
	apb, apc := gt.AddOf(a, b), gt.AddOf(a, c)

	e := gt.MulOf(gt.AddOf(gt.MulOf(apb, f), gt.MulOf(apc, tt)), c, k)
	r := gt.ExpandTensors(e)

	want := gt.AddOf(gt.MulOf(c, apb, f, k), gt.MulOf(c, apc, tt, k))
	assertEqualExpr(t, want, r)
	assert.True(t, gt.IsScalar(r))

	// scalar sums stay folded; a full expansion goes further
	assert.False(t, gt.IsExpanded(r))
	assert.True(t, gt.IsExpanded(gt.Expand(r)))
}

func TestExpandTensors_LeavesPowersAndFunctions(t *testing.T) {
	e := gt.SinOf(gt.PowOf(gt.AddOf(a, b), gt.N(2)))
	assert.True(t, gt.ExpandTensors(e) == e)
}

func TestExpand_IndexedProductPower(t *testing.T) {
	xi, yi := gt.T("x", gt.Up("i")), gt.T("y", gt.Lo("i"))
	r := gt.Expand(gt.PowOf(gt.MulOf(xi, yi), gt.N(2)))
	want := gt.MulOf(xi, yi, gt.T("x", gt.Up("a")), gt.T("y", gt.Lo("a")))
	assertEqualExpr(t, want, r)
}

func TestExpand_DummyCollisionsDoNotFault(t *testing.T) {
	cases := map[string]gt.Expr{
		"two traces":       gt.MulOf(gt.AddOf(trace("A", "i"), x), gt.AddOf(trace("B", "i"), y)),
		"square of trace":  gt.PowOf(gt.AddOf(trace("A", "i"), x), gt.N(2)),
		"cube of trace":    gt.PowOf(gt.AddOf(trace("A", "i"), trace("B", "j"), x), gt.N(3)),
		"free meets dummy": gt.MulOf(gt.T("v", gt.Up("i")), gt.AddOf(trace("A", "i"), y)),
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			var r gt.Expr
			require.NoError(t, gt.Try(func() { r = gt.Expand(e) }))
			assert.True(t, gt.IsExpanded(r))
			assert.Equal(t, e.Free(), r.Free())
		})
	}
}

func TestExpand_RenamesCollidingDummies(t *testing.T) {
	r := gt.Expand(gt.MulOf(gt.AddOf(trace("A", "i"), x), gt.AddOf(trace("B", "i"), y)))
	want := gt.AddOf(
		gt.MulOf(trace("A", "i"), trace("B", "a")),
		gt.MulOf(trace("A", "i"), y),
		gt.MulOf(x, trace("B", "i")),
		gt.MulOf(x, y),
	)
	assertEqualExpr(t, want, r)

	v := gt.T("v", gt.Up("i"))
	r = gt.Expand(gt.MulOf(v, gt.AddOf(trace("A", "i"), y)))
	assertEqualExpr(t, gt.AddOf(gt.MulOf(v, trace("A", "a")), gt.MulOf(v, y)), r)
}

func TestExpand_PowerOfTrace(t *testing.T) {
	r := gt.Expand(gt.PowOf(trace("A", "i"), gt.N(2)))
	assertEqualExpr(t, gt.MulOf(trace("A", "i"), trace("A", "a")), r)

	// the same copy inside a squared sum is renamed the same way
	sq := gt.Expand(gt.PowOf(gt.AddOf(trace("A", "i"), x), gt.N(2)))
	want := gt.AddOf(r, gt.MulOf(gt.N(2), trace("A", "i"), x), gt.PowOf(x, gt.N(2)))
	assertEqualExpr(t, want, sq)
}

func TestExpandTensors_KeepsScalarSumsWithDummies(t *testing.T) {
	tc := gt.T("t", gt.Lo("c"))
	fg := gt.MulOf(gt.T("f", gt.Lo("b")), gt.T("g", gt.Up("b")))
	e := gt.MulOf(tc, gt.AddOf(a, fg))

	// a + f_b*g^b carries no free index, so it stays a coefficient
	assert.True(t, gt.ExpandTensors(e) == e)
	assertEqualExpr(t, gt.AddOf(gt.MulOf(a, tc), gt.MulOf(fg, tc)), gt.Expand(e))
}

// ============================================================
// Non-commutative expansion tests
// ============================================================

func TestExpand_NonCommutativeSquare(t *testing.T) {
	A, B := gt.NC("A"), gt.NC("B")
	s := gt.AddOf(A, B)
	want := gt.AddOf(gt.PowOf(A, gt.N(2)), gt.MulOf(A, B), gt.MulOf(B, A), gt.PowOf(B, gt.N(2)))

	assertEqualExpr(t, want, gt.Expand(gt.PowOf(s, gt.N(2))))
	assertEqualExpr(t, want, gt.Expand(gt.MulOf(s, s)))
}

func TestExpand_NonCommutativeCube(t *testing.T) {
	A, B := gt.NC("A"), gt.NC("B")
	r := gt.Expand(gt.PowOf(gt.AddOf(A, B), gt.N(3)))
	require.IsType(t, &gt.Sum{}, r)
	assert.Equal(t, 8, r.Len())

	aba := gt.MulOf(A, B, A)
	found := false
	for i := 0; i < r.Len(); i++ {
		found = found || gt.Equal(aba, r.At(i))
	}
	assert.True(t, found, "A*B*A missing from %s", r)
}

func TestExpand_NonCommutativeWithScalars(t *testing.T) {
	A := gt.NC("A")
	r := gt.Expand(gt.PowOf(gt.AddOf(a, A), gt.N(2)))
	want := gt.AddOf(gt.PowOf(a, gt.N(2)), gt.MulOf(gt.N(2), a, A), gt.PowOf(A, gt.N(2)))
	assertEqualExpr(t, want, r)
}

func TestExpand_NonCommutativeProductKeepsOrder(t *testing.T) {
	A, B, C, D := gt.NC("A"), gt.NC("B"), gt.NC("C"), gt.NC("D")
	r := gt.Expand(gt.MulOf(gt.AddOf(A, B), gt.AddOf(C, D)))
	want := gt.AddOf(gt.MulOf(A, C), gt.MulOf(A, D), gt.MulOf(B, C), gt.MulOf(B, D))
	assertEqualExpr(t, want, r)

	swapped := gt.Expand(gt.MulOf(gt.AddOf(C, D), gt.AddOf(A, B)))
	assert.False(t, gt.Equal(r, swapped))
}

// ============================================================
// Expander options
// ============================================================

func TestExpander_MaxPassesWarns(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	x := gt.NewExpander(gt.WithLogger(zap.New(core)), gt.WithMaxPasses(1))

	r := x.Expand(gt.PowOf(gt.AddOf(a, b), gt.N(2)))
	assert.Equal(t, "a^2 + 2*a*b + b^2", r.String())
	assert.Equal(t, 1, logs.FilterMessage("expansion did not reach a fixpoint").Len())
}

func TestExpander_LogsPasses(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	x := gt.NewExpander(gt.WithLogger(zap.New(core)))

	x.Expand(gt.PowOf(gt.AddOf(a, b), gt.N(2)))
	passes := logs.FilterMessage("expansion pass").All()
	require.Len(t, passes, 2)
	assert.Equal(t, true, passes[0].ContextMap()["changed"])
	assert.Equal(t, false, passes[1].ContextMap()["changed"])
	assert.Zero(t, logs.FilterMessage("expansion did not reach a fixpoint").Len())
}

func TestExpander_NilLoggerAndBadPassesFallBack(t *testing.T) {
	x := gt.NewExpander(gt.WithLogger(nil), gt.WithMaxPasses(0))
	r := x.Expand(gt.PowOf(gt.AddOf(a, b), gt.N(3)))
	assert.Equal(t, 4, r.Len())
}
