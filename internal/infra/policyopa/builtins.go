package policyopa

import "github.com/open-policy-agent/opa/ast"

// allowedBuiltins excludes anything nondeterministic or networked.
var allowedBuiltins = map[string]struct{}{
	"abs":             {},
	"assign":          {},
	"ceil":            {},
	"concat":          {},
	"contains":        {},
	"count":           {},
	"div":             {},
	"endswith":        {},
	"eq":              {},
	"equal":           {},
	"floor":           {},
	"format_int":      {},
	"format_number":   {},
	"gt":              {},
	"gte":             {},
	"json.marshal":    {},
	"json.unmarshal":  {},
	"lower":           {},
	"lt":              {},
	"lte":             {},
	"max":             {},
	"min":             {},
	"minus":           {},
	"mul":             {},
	"neq":             {},
	"object.get":      {},
	"object.remove":   {},
	"object.union":    {},
	"plus":            {},
	"pow":             {},
	"rem":             {},
	"replace":         {},
	"round":           {},
	"sort":            {},
	"split":           {},
	"sprintf":         {},
	"startswith":      {},
	"substring":       {},
	"sum":             {},
	"trim":            {},
	"trim_left":       {},
	"trim_right":      {},
	"upper":           {},
	"urlquery.decode": {},
	"urlquery.encode": {},
}

func filterBuiltins(builtins []*ast.Builtin) []*ast.Builtin {
	allowed := make([]*ast.Builtin, 0, len(builtins))
	for _, builtin := range builtins {
		if _, ok := allowedBuiltins[builtin.Name]; !ok {
			continue
		}
		allowed = append(allowed, builtin)
	}
	return allowed
}
