package gotensor

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// ============================================================
// JSON Serialization
// ============================================================

// ToJSON encodes e as a JSON object tree.
func ToJSON(e Expr) (string, error) {
	b, err := json.Marshal(e.toJSON())
	return string(b), err
}

// ToMap returns the object tree ToJSON encodes.
func ToMap(e Expr) map[string]interface{} { return e.toJSON() }

// FromJSON decodes an object tree produced by ToJSON. Nodes are rebuilt
// through the canonical builders; index faults become errors.
func FromJSON(data map[string]interface{}) (Expr, error) {
	var (
		e   Expr
		err error
	)
	if fault := Try(func() { e, err = fromJSON(data) }); fault != nil {
		return nil, fault
	}
	return e, err
}

func fromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("expression must be an object")
	}
	typAny, ok := data["type"]
	if !ok {
		return nil, fmt.Errorf("missing 'type' field")
	}
	typ, ok := typAny.(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("field 'type' must be a non-empty string")
	}

	subObj := func(field string) (map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an object", typ, field)
		}
		return m, nil
	}

	subExprs := func(field string) ([]Expr, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("%s: missing %q", typ, field)
		}
		raw, ok := objects(v)
		if !ok {
			return nil, fmt.Errorf("%s: %q must be an array of objects", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, m := range raw {
			e, err := fromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %s[%d]: %w", typ, field, i, err)
			}
			out[i] = e
		}
		return out, nil
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("%s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("%s: %q must be a non-empty string", typ, field)
		}
		return s, nil
	}

	subIndices := func() (Indices, error) {
		v, ok := data["indices"]
		if !ok {
			return nil, nil
		}
		raw, ok := objects(v)
		if !ok {
			return nil, fmt.Errorf("%s: 'indices' must be an array of objects", typ)
		}
		out := make(Indices, len(raw))
		for i, m := range raw {
			name, ok := m["name"].(string)
			if !ok || name == "" {
				return nil, fmt.Errorf("%s: indices[%d].name must be a non-empty string", typ, i)
			}
			upper, _ := m["upper"].(bool)
			out[i] = Index{Name: name, Upper: upper}
		}
		return out, nil
	}

	rat := func(field string) (*big.Rat, error) {
		// integral JSON numbers are accepted for convenience
		if f, ok := data[field].(float64); ok {
			if f != float64(int64(f)) {
				return nil, fmt.Errorf("%s: %q must be an exact rational string", typ, field)
			}
			return new(big.Rat).SetInt64(int64(f)), nil
		}
		s, err := subString(field)
		if err != nil {
			return nil, err
		}
		r := new(big.Rat)
		if _, ok := r.SetString(s); !ok {
			return nil, fmt.Errorf("invalid num %s: %s", field, s)
		}
		return r, nil
	}

	switch typ {
	case "num":
		re, err := rat("value")
		if err != nil {
			return nil, err
		}
		im := new(big.Rat)
		if _, ok := data["imag"]; ok {
			if im, err = rat("imag"); err != nil {
				return nil, err
			}
		}
		return newNum(re, im), nil

	case "sym":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		idx, err := subIndices()
		if err != nil {
			return nil, err
		}
		nc, _ := data["noncommutative"].(bool)
		return newSym(name, idx, nc), nil

	case "sum":
		terms, err := subExprs("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "product":
		factors, err := subExprs("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "power":
		baseM, err := subObj("base")
		if err != nil {
			return nil, err
		}
		expM, err := subObj("exp")
		if err != nil {
			return nil, err
		}
		base, err := fromJSON(baseM)
		if err != nil {
			return nil, fmt.Errorf("power: base: %w", err)
		}
		exp, err := fromJSON(expM)
		if err != nil {
			return nil, fmt.Errorf("power: exp: %w", err)
		}
		return PowOf(base, exp), nil

	case "func":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		idx, err := subIndices()
		if err != nil {
			return nil, err
		}
		args, err := subExprs("args")
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return nil, fmt.Errorf("func: 'args' must not be empty")
		}
		return newFunc(name, idx, args), nil
	}
	return nil, fmt.Errorf("unknown expression type: %s", typ)
}

// objects accepts both a decoded JSON array and the typed slices ToMap
// builds.
func objects(v interface{}) ([]map[string]interface{}, bool) {
	switch raw := v.(type) {
	case []map[string]interface{}:
		return raw, true
	case []interface{}:
		out := make([]map[string]interface{}, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, false
			}
			out[i] = m
		}
		return out, true
	}
	return nil, false
}
