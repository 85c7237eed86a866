package gotensor_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gt "github.com/njchilds90/gotensor"
)

// ============================================================
// JSON tests
// ============================================================

func decode(t *testing.T, s string) (gt.Expr, error) {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return gt.FromJSON(m)
}

func TestJSON_RoundTrip(t *testing.T) {
	e := gt.AddOf(
		gt.MulOf(gt.F(-3, 4), gt.T("F", gt.Up("a"), gt.Lo("b")), gt.T("x", gt.Up("b"))),
		gt.MulOf(gt.Complex(gt.N(1), gt.N(2)), gt.FieldOf("G", gt.Indices{gt.Up("a")}, gt.PowOf(gt.AddOf(a, gt.NC("B")), gt.F(1, 2)))),
	)
	s, err := gt.ToJSON(e)
	require.NoError(t, err)
	back, err := decode(t, s)
	require.NoError(t, err)
	assertEqualExpr(t, e, back)
}

func TestJSON_FromMap(t *testing.T) {
	e := gt.MulOf(gt.N(2), gt.AddOf(gt.T("x", gt.Up("i")), gt.T("y", gt.Up("i"))), gt.SinOf(a))
	back, err := gt.FromJSON(gt.ToMap(e))
	require.NoError(t, err)
	assertEqualExpr(t, e, back)
}

func TestJSON_CanonicalizesInput(t *testing.T) {
	back, err := decode(t, `{"type":"sum","terms":[
		{"type":"sym","name":"a"},
		{"type":"sym","name":"a"},
		{"type":"num","value":2}
	]}`)
	require.NoError(t, err)
	assertEqualExpr(t, gt.AddOf(gt.MulOf(gt.N(2), a), gt.N(2)), back)
}

func TestJSON_Errors(t *testing.T) {
	cases := map[string]string{
		"missing type":      `{"name":"a"}`,
		"unknown type":      `{"type":"matrix"}`,
		"bad rational":      `{"type":"num","value":"1/x"}`,
		"fractional float":  `{"type":"num","value":0.5}`,
		"empty name":        `{"type":"sym","name":""}`,
		"terms not array":   `{"type":"sum","terms":{}}`,
		"func without args": `{"type":"func","name":"sin","args":[]}`,
		"power without exp": `{"type":"power","base":{"type":"sym","name":"a"}}`,
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decode(t, s)
			assert.Error(t, err)
		})
	}
}

func TestJSON_IndexFaultBecomesError(t *testing.T) {
	_, err := decode(t, `{"type":"sum","terms":[
		{"type":"sym","name":"x","indices":[{"name":"a","upper":true}]},
		{"type":"sym","name":"y","indices":[{"name":"a","upper":false}]}
	]}`)
	require.Error(t, err)
	var ie *gt.IndexError
	assert.True(t, errors.As(err, &ie))
}
