package gotensor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================
// MCP Tool Interface
// ============================================================

// ToolRequest is a tool call from an agent framework.
type ToolRequest struct {
	Tool   string                 `json:"tool" yaml:"tool"`
	Params map[string]interface{} `json:"params" yaml:"params"`
}

// ToolResponse carries a result or an error message.
type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// DefaultStreamLimit caps the terms returned by expand_stream and
// power_terms when no limit is given.
const DefaultStreamLimit = 100

// MaxPowerTermsExponent bounds the exponent accepted by power_terms.
const MaxPowerTermsExponent = 1000

// Toolbox serves tool calls with one Expander.
type Toolbox struct {
	x       *Expander
	workers int
}

// NewToolbox returns a Toolbox using x. workers bounds expand_batch.
func NewToolbox(x *Expander, workers int) *Toolbox {
	if x == nil {
		x = defaultExpander
	}
	if workers < 1 {
		workers = 1
	}
	return &Toolbox{x: x, workers: workers}
}

var defaultToolbox = NewToolbox(nil, 4)

// HandleToolCall serves req with the default Toolbox.
func HandleToolCall(req ToolRequest) ToolResponse { return defaultToolbox.Handle(req) }

// Handle runs one tool call. Index and arithmetic faults are reported in
// ToolResponse.Error.
func (tb *Toolbox) Handle(req ToolRequest) (resp ToolResponse) {
	if err := Try(func() { resp = tb.handle(req) }); err != nil {
		return ToolResponse{Error: err.Error()}
	}
	return resp
}

func (tb *Toolbox) handle(req ToolRequest) ToolResponse {
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		val, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid type for param %s", key)
		}
		return FromJSON(val)
	}
	getExprList := func(key string) ([]Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be array", key)
		}
		result := make([]Expr, len(raw))
		for i, r := range raw {
			m, ok := r.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("param %s[%d] must be expression object", key, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, fmt.Errorf("param %s[%d]: %w", key, i, err)
			}
			result[i] = e
		}
		return result, nil
	}
	getInt := func(key string, def int, required bool) (int, error) {
		v, ok := req.Params[key]
		if !ok {
			if required {
				return 0, fmt.Errorf("missing param: %s", key)
			}
			return def, nil
		}
		switch n := v.(type) {
		case float64:
			if n != float64(int(n)) {
				return 0, fmt.Errorf("param %s must be an integer", key)
			}
			return int(n), nil
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case uint64:
			return int(n), nil
		}
		return 0, fmt.Errorf("param %s must be an integer", key)
	}
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: e.toJSON(), LaTeX: LaTeX(e), String: String(e)}
	}
	respondTerms := func(terms []Expr, extra map[string]interface{}) ToolResponse {
		objs := make([]map[string]interface{}, len(terms))
		strs := make([]string, len(terms))
		for i, t := range terms {
			objs[i] = t.toJSON()
			strs[i] = t.String()
		}
		res := map[string]interface{}{"terms": objs}
		for k, v := range extra {
			res[k] = v
		}
		return ToolResponse{Result: res, String: strings.Join(strs, "; ")}
	}

	switch req.Tool {
	case "expand", "expand_tensors":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		rules, err := parseRules(req.Params["rules"])
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if req.Tool == "expand" {
			return respond(tb.x.Expand(e, rules...))
		}
		return respond(tb.x.ExpandTensors(e, rules...))

	case "expand_numerator":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(tb.x.ExpandNumerator(e))

	case "expand_denominator":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(tb.x.ExpandDenominator(e))

	case "expand_batch":
		exprs, err := getExprList("exprs")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		rules, err := parseRules(req.Params["rules"])
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		out, err := tb.x.ExpandBatch(context.Background(), exprs, tb.workers, rules...)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		objs := make([]map[string]interface{}, len(out))
		strs := make([]string, len(out))
		for i, e := range out {
			objs[i] = e.toJSON()
			strs[i] = e.String()
		}
		return ToolResponse{Result: objs, String: strings.Join(strs, "; ")}

	case "expand_stream":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		limit, err := getInt("limit", DefaultStreamLimit, false)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		terms, more := take(tb.x.ExpandPort(e), limit)
		return respondTerms(terms, map[string]interface{}{"truncated": more})

	case "power_terms":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		n, err := getInt("n", 0, true)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		if n < 0 {
			return ToolResponse{Error: "param n must not be negative"}
		}
		if n > MaxPowerTermsExponent {
			return ToolResponse{Error: fmt.Sprintf("param n must not exceed %d", MaxPowerTermsExponent)}
		}
		limit, err := getInt("limit", DefaultStreamLimit, false)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		port := CreatePort(e, n)
		count := 1
		if pp, ok := port.(*PowerPort); ok {
			count = pp.Len()
		}
		terms, more := take(port, limit)
		return respondTerms(terms, map[string]interface{}{"count": count, "truncated": more})

	case "is_expanded":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		ok := IsExpanded(e)
		return ToolResponse{Result: ok, String: fmt.Sprint(ok)}

	case "free_indices":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		free := e.Free()
		return ToolResponse{Result: indicesJSON(free), String: free.String()}

	case "to_latex":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: LaTeX(e), LaTeX: LaTeX(e), String: String(e)}

	case "mcp_spec":
		return ToolResponse{Result: MCPToolSpec()}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// take pulls up to limit terms from p and reports whether more remain.
func take(p Port, limit int) ([]Expr, bool) {
	var out []Expr
	for len(out) < limit {
		t := p.Take()
		if t == nil {
			return out, false
		}
		out = append(out, t)
	}
	return out, p.Take() != nil
}

// parseRules decodes the optional rules parameter:
// [{"substitute": {"from": expr, "to": expr}}, {"kronecker": "d"}].
func parseRules(v interface{}) ([]Transformation, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("param rules must be array")
	}
	rules := make([]Transformation, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("rules[%d] must be an object", i)
		}
		switch {
		case m["kronecker"] != nil:
			name, ok := m["kronecker"].(string)
			if !ok || name == "" {
				return nil, fmt.Errorf("rules[%d].kronecker must be a non-empty string", i)
			}
			rules = append(rules, ContractKronecker(name))
		case m["substitute"] != nil:
			sub, ok := m["substitute"].(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("rules[%d].substitute must be an object", i)
			}
			fromM, ok1 := sub["from"].(map[string]interface{})
			toM, ok2 := sub["to"].(map[string]interface{})
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("rules[%d].substitute needs from and to expressions", i)
			}
			from, err := FromJSON(fromM)
			if err != nil {
				return nil, fmt.Errorf("rules[%d].substitute.from: %w", i, err)
			}
			to, err := FromJSON(toM)
			if err != nil {
				return nil, fmt.Errorf("rules[%d].substitute.to: %w", i, err)
			}
			rules = append(rules, Substitute(from, to))
		default:
			return nil, fmt.Errorf("rules[%d]: unknown rule", i)
		}
	}
	return rules, nil
}

// ============================================================
// MCP spec
// ============================================================

// MCPToolSpec returns the JSON schema of every tool.
func MCPToolSpec() string {
	expr := map[string]string{"expr": "object"}
	exprRules := map[string]string{"expr": "object", "rules": "array"}
	tools := []map[string]interface{}{
		ts("expand", "Fully expand products and natural powers over sums. Optional rules: [{substitute:{from,to}}, {kronecker:name}]", []string{"expr"}, exprRules),
		ts("expand_numerator", "Expand only the numerator; factors with negative exponents stay untouched", []string{"expr"}, expr),
		ts("expand_denominator", "Expand only sums raised to negative integer powers", []string{"expr"}, expr),
		ts("expand_tensors", "Distribute only sums carrying free indices; scalar sums stay folded", []string{"expr"}, exprRules),
		ts("expand_batch", "Expand several independent expressions concurrently", []string{"exprs"}, map[string]string{"exprs": "array", "rules": "array"}),
		ts("expand_stream", "Lazily stream the first limit terms of the expansion", []string{"expr"}, map[string]string{"expr": "object", "limit": "integer"}),
		ts("power_terms", "Multinomial terms of sum^n with the total term count", []string{"expr", "n"}, map[string]string{"expr": "object", "n": "integer", "limit": "integer"}),
		ts("is_expanded", "Report whether no brackets are left to expand", []string{"expr"}, expr),
		ts("free_indices", "Return the free tensor indices", []string{"expr"}, expr),
		ts("to_latex", "Convert to LaTeX", []string{"expr"}, expr),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
