package gotensor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gt "github.com/njchilds90/gotensor"
)

// ============================================================
// ExpandBatch tests
// ============================================================

func TestExpandBatch_PreservesOrder(t *testing.T) {
	var exprs []gt.Expr
	for i := int64(2); i < 12; i++ {
		exprs = append(exprs, gt.PowOf(gt.AddOf(a, b), gt.N(i)))
	}
	out, err := gt.ExpandBatch(context.Background(), exprs, 3)
	require.NoError(t, err)
	require.Len(t, out, len(exprs))
	for i, e := range exprs {
		assertEqualExpr(t, gt.Expand(e), out[i])
	}
}

func TestExpandBatch_AppliesRules(t *testing.T) {
	exprs := []gt.Expr{
		gt.MulOf(gt.T("d", gt.Up("a"), gt.Lo("b")), gt.T("x", gt.Up("b"))),
		gt.MulOf(gt.T("d", gt.Up("a"), gt.Lo("b")), gt.T("y", gt.Lo("a"))),
	}
	out, err := gt.ExpandBatch(context.Background(), exprs, 0, gt.ContractKronecker("d"))
	require.NoError(t, err)
	assertEqualExpr(t, gt.T("x", gt.Up("a")), out[0])
	assertEqualExpr(t, gt.T("y", gt.Lo("b")), out[1])
}

func TestExpandBatch_ReportsFaults(t *testing.T) {
	rule := gt.Substitute(a, gt.T("x", gt.Up("i")))
	out, err := gt.ExpandBatch(context.Background(), []gt.Expr{c, gt.AddOf(a, b)}, 2, rule)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "expression 1")
	var ie *gt.IndexError
	assert.True(t, errors.As(err, &ie))
}

func TestExpandBatch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gt.ExpandBatch(ctx, []gt.Expr{a, b}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpandBatch_Empty(t *testing.T) {
	out, err := gt.ExpandBatch(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, out)
}
