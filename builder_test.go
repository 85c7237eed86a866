package gotensor_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gt "github.com/njchilds90/gotensor"
)

// ============================================================
// Sum tests
// ============================================================

func TestSum_CollectsLikeTerms(t *testing.T) {
	r := gt.AddOf(a, a, gt.N(2))
	assert.Equal(t, "2 + 2*a", r.String())
	assertEqualExpr(t, gt.AddOf(gt.MulOf(gt.N(2), a), gt.N(2)), r)
}

func TestSum_CancelsToZero(t *testing.T) {
	assertEqualExpr(t, gt.N(0), gt.AddOf(a, gt.NegOf(a)))
	assertEqualExpr(t, gt.N(0), gt.SubOf(gt.MulOf(gt.N(3), a, b), gt.MulOf(b, a, gt.N(3))))
}

func TestSum_SingleTermIsReturnedItself(t *testing.T) {
	assert.True(t, gt.AddOf(a) == gt.Expr(a))
	assert.True(t, gt.AddOf(gt.N(0), a) == gt.Expr(a))
}

func TestSum_Flattens(t *testing.T) {
	r := gt.AddOf(gt.AddOf(a, b), c)
	s, ok := r.(*gt.Sum)
	require.True(t, ok)
	assert.Equal(t, 3, s.Len())
	for _, term := range s.Terms() {
		_, nested := term.(*gt.Sum)
		assert.False(t, nested)
	}
}

func TestSum_FlattensAfterMerging(t *testing.T) {
	apb := gt.AddOf(a, b)
	// 2*(a+b) - (a+b) leaves the bare sum, which must not nest
	r := gt.AddOf(gt.MulOf(gt.N(2), apb), gt.NegOf(apb), c)
	s, ok := r.(*gt.Sum)
	require.True(t, ok)
	assert.Equal(t, 3, s.Len())
	assertEqualExpr(t, gt.AddOf(a, b, c), r)
}

func TestSum_OrderIsIndependentOfInput(t *testing.T) {
	r1 := gt.AddOf(a, b, gt.MulOf(a, b), gt.N(1))
	r2 := gt.AddOf(gt.MulOf(b, a), gt.N(1), b, a)
	assertEqualExpr(t, r1, r2)
	assert.Equal(t, r1.Hash(), r2.Hash())
	assert.Equal(t, r1.String(), r2.String())
}

func TestSum_NaturalTermOrder(t *testing.T) {
	r := gt.AddOf(gt.PowOf(b, gt.N(2)), gt.MulOf(gt.N(2), a, b), gt.PowOf(a, gt.N(2)))
	assert.Equal(t, "a^2 + 2*a*b + b^2", r.String())
	assert.Equal(t, "a - b", gt.SubOf(a, b).String())
	assert.Equal(t, "-a", gt.NegOf(a).String())
}

func TestSum_InconsistentFreeIndices(t *testing.T) {
	err := fault(func() { gt.AddOf(gt.T("x", gt.Up("a")), gt.T("y", gt.Lo("a"))) })
	require.Error(t, err)
	var ie *gt.IndexError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "inconsistent free indices", ie.Reason)
	assert.Equal(t, "sum", ie.Op)
}

func TestSum_FreeIndicesInAnyOrder(t *testing.T) {
	u := gt.T("u", gt.Up("a"), gt.Lo("b"))
	v := gt.MulOf(gt.T("v", gt.Lo("b")), gt.T("w", gt.Up("a")))
	r := gt.AddOf(u, v)
	assert.Len(t, r.Free(), 2)
	assert.True(t, r.Free().Contains(gt.Up("a")))
	assert.True(t, r.Free().Contains(gt.Lo("b")))
}

// ============================================================
// Product tests
// ============================================================

func TestProduct_MergesPowers(t *testing.T) {
	assert.Equal(t, "3*a^2*b", gt.MulOf(a, a, gt.N(3), b).String())
	assertEqualExpr(t, gt.PowOf(a, gt.N(5)), gt.MulOf(gt.PowOf(a, gt.N(2)), gt.PowOf(a, gt.N(3))))
}

func TestProduct_CancelsToOne(t *testing.T) {
	assertEqualExpr(t, gt.N(1), gt.MulOf(a, gt.PowOf(a, gt.N(-1))))
	assertEqualExpr(t, b, gt.DivOf(gt.MulOf(a, b), a))
}

func TestProduct_ZeroAnnihilates(t *testing.T) {
	assertEqualExpr(t, gt.N(0), gt.MulOf(a, gt.N(0), b))
}

func TestProduct_Flattens(t *testing.T) {
	r := gt.MulOf(gt.MulOf(gt.N(2), a), gt.MulOf(gt.N(3), b))
	p, ok := r.(*gt.Product)
	require.True(t, ok)
	assertEqualExpr(t, gt.N(6), p.Coeff())
	assert.Len(t, p.Factors(), 2)
	assert.Equal(t, "6*a*b", r.String())
}

func TestProduct_SingleFactor(t *testing.T) {
	assert.True(t, gt.MulOf(a) == gt.Expr(a))
	assert.True(t, gt.MulOf(gt.N(1), a) == gt.Expr(a))
}

func TestProduct_NonCommutativeOrder(t *testing.T) {
	A, B := gt.NC("A"), gt.NC("B")
	assert.False(t, gt.Equal(gt.MulOf(A, B), gt.MulOf(B, A)))
	assert.Equal(t, "a*b*B*A", gt.MulOf(B, b, A, a).String())
	assert.Equal(t, "A^2*B", gt.MulOf(A, A, B).String())
	assert.Equal(t, "A*B*A", gt.MulOf(A, B, A).String())
}

func TestProduct_Contraction(t *testing.T) {
	s := gt.MulOf(gt.T("x", gt.Up("a")), gt.T("y", gt.Lo("a")))
	assert.True(t, gt.IsScalar(s))

	v := gt.MulOf(gt.T("x", gt.Up("a")), gt.T("y", gt.Lo("b")))
	want := gt.Indices{gt.Up("a"), gt.Lo("b")}
	if diff := cmp.Diff(want, gt.FreeIndices(v)); diff != "" {
		t.Errorf("free indices mismatch (-want +got):\n%s", diff)
	}
}

func TestProduct_RepeatedIndex(t *testing.T) {
	var ie *gt.IndexError

	err := fault(func() { gt.MulOf(gt.T("x", gt.Up("a")), gt.T("y", gt.Up("a"))) })
	require.Error(t, err)
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "repeated index", ie.Reason)
	assert.Equal(t, gt.Up("a"), ie.Index)

	// two copies of the same tensor cannot merge into a power
	err = fault(func() { x := gt.T("x", gt.Up("a")); gt.MulOf(x, x) })
	require.Error(t, err)
	require.True(t, errors.As(err, &ie))

	// a trace carries its own dummies and cannot merge with a copy either
	err = fault(func() { gt.MulOf(trace("A", "i"), trace("A", "i")) })
	require.Error(t, err)
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, gt.Up("i"), ie.Index)

	// a single symbol repeating a state is rejected at construction
	err = fault(func() { gt.T("x", gt.Lo("a"), gt.Lo("a")) })
	assert.Error(t, err)
}

func TestProduct_Split(t *testing.T) {
	coeff, shape := gt.Split(gt.MulOf(gt.N(3), a, b))
	assertEqualExpr(t, gt.N(3), coeff)
	assertEqualExpr(t, gt.MulOf(a, b), shape)

	coeff, shape = gt.Split(gt.MulOf(gt.N(-2), a))
	assertEqualExpr(t, gt.N(-2), coeff)
	assertEqualExpr(t, a, shape)

	coeff, shape = gt.Split(gt.F(1, 2))
	assertEqualExpr(t, gt.F(1, 2), coeff)
	assertEqualExpr(t, gt.N(1), shape)
}

// ============================================================
// Power tests
// ============================================================

func TestPower_Trivial(t *testing.T) {
	assert.True(t, gt.PowOf(a, gt.N(1)) == gt.Expr(a))
	assertEqualExpr(t, gt.N(1), gt.PowOf(a, gt.N(0)))
	assertEqualExpr(t, gt.N(1), gt.PowOf(gt.N(1), x))
	assertEqualExpr(t, gt.N(0), gt.PowOf(gt.N(0), gt.F(1, 2)))
}

func TestPower_NestedPowers(t *testing.T) {
	assertEqualExpr(t, a, gt.PowOf(gt.PowOf(a, gt.F(1, 2)), gt.N(2)))
	assertEqualExpr(t, gt.PowOf(a, gt.N(6)), gt.PowOf(gt.PowOf(a, gt.N(2)), gt.N(3)))
	// a non-integer outer exponent stays nested
	_, ok := gt.PowOf(gt.PowOf(a, gt.N(2)), gt.F(1, 2)).(*gt.Power)
	assert.True(t, ok)
}

func TestPower_DistributesOverProducts(t *testing.T) {
	r := gt.PowOf(gt.MulOf(gt.N(2), a, b), gt.N(2))
	assert.Equal(t, "4*a^2*b^2", r.String())
}

func TestPower_KeepsSumsSymbolic(t *testing.T) {
	r := gt.PowOf(gt.AddOf(a, b), gt.N(-1))
	p, ok := r.(*gt.Power)
	require.True(t, ok)
	assertEqualExpr(t, gt.AddOf(a, b), p.Base())
	assert.Equal(t, "(a + b)^(-1)", r.String())
	assert.Equal(t, `\frac{1}{a + b}`, r.LaTeX())
}

func TestPower_NumericBase(t *testing.T) {
	r := gt.PowOf(gt.N(2), gt.F(1, 2))
	_, ok := r.(*gt.Power)
	assert.True(t, ok)
	assert.Equal(t, "2^(1/2)", r.String())
	_, ok = gt.PowOf(gt.N(2), x).(*gt.Power)
	assert.True(t, ok)
}

func TestPower_IndexedOperands(t *testing.T) {
	var ie *gt.IndexError

	err := fault(func() { gt.PowOf(gt.T("x", gt.Up("a")), gt.N(2)) })
	require.Error(t, err)
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "non-scalar base", ie.Reason)

	err = fault(func() { gt.PowOf(a, gt.T("x", gt.Up("a"))) })
	require.Error(t, err)
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "non-scalar exponent", ie.Reason)

	// a contracted product is scalar and may be raised
	s := gt.MulOf(gt.T("x", gt.Up("i")), gt.T("y", gt.Lo("i")))
	_, ok := gt.PowOf(s, gt.N(2)).(*gt.Power)
	assert.True(t, ok)
}

// ============================================================
// Func tests
// ============================================================

func TestFunc_Basics(t *testing.T) {
	f := gt.SinOf(gt.AddOf(a, b))
	assert.Equal(t, "sin(a + b)", f.String())
	assert.Equal(t, 1, f.Len())
	assert.True(t, gt.Equal(f, gt.SinOf(gt.AddOf(b, a))))
	assert.False(t, gt.Equal(f, gt.CosOf(gt.AddOf(a, b))))

	field := gt.FieldOf("F", gt.Indices{gt.Up("a")}, x)
	assert.Equal(t, gt.Indices{gt.Up("a")}, field.Free())
}

func TestSym_EmptyNamePanics(t *testing.T) {
	assert.Panics(t, func() { gt.S("") })
}
