package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/oattyio/oatty/registry"
)

// exprPattern matches one "${{ expr }}" segment, expr trimmed of
// surrounding whitespace by the capture group's own \s* guards.
var exprPattern = regexp.MustCompile(`\$\{\{\s*(.*?)\s*\}\}`)

// Interpolate walks tree (a registry.JSONValue — null/bool/number/string/
// array/object) recursively, substituting "${{ expr }}" segments found in
// strings. A string that is exactly one "${{ expr }}" segment (no
// surrounding literal text) is replaced by the expr's resolved value
// verbatim, which may be non-string; any other string is rebuilt by
// concatenating literal runs with the string form of each expr's value.
// Arrays and objects are walked; all other JSON value kinds pass through
// unchanged. Grounded on the teacher's recursive cty/any-tree walkers
// (arazzo1/workflow.go's ctyToGo, hclBlockToMap).
func Interpolate(tree registry.JSONValue, scope Scope) (registry.JSONValue, error) {
	switch v := tree.(type) {
	case string:
		return interpolateString(v, scope)
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			r, err := Interpolate(el, scope)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, el := range v {
			r, err := Interpolate(el, scope)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	default:
		return tree, nil
	}
}

func interpolateString(s string, scope Scope) (registry.JSONValue, error) {
	matches := exprPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s, nil
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		expr := s[matches[0][2]:matches[0][3]]
		return evalExpr(expr, scope)
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		expr := s[m[2]:m[3]]
		v, err := evalExpr(expr, scope)
		if err != nil {
			return nil, err
		}
		b.WriteString(stringify(v))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// evalExpr evaluates one ${{ }} payload: a scope path or a literal, per
// spec.md §4.C. It never errors on an unresolved lookup — that yields the
// Missing sentinel, matching spec.md's "dedicated missing sentinel in
// full-expression replacement contexts".
func evalExpr(expr string, scope Scope) (registry.JSONValue, error) {
	p := &parser{s: expr}
	node, err := p.parseAtom()
	if err != nil {
		return nil, &SyntaxError{Expr: expr, Reason: err.Error()}
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, &SyntaxError{Expr: expr, Reason: "unexpected trailing input"}
	}
	return node.evalValue(scope)
}

// stringify renders a resolved value for use inside a mixed literal+expr
// string: nil and Missing become "", booleans their Go string form,
// numbers a minimal decimal form, strings themselves, everything else its
// compact JSON encoding.
func stringify(v registry.JSONValue) string {
	if v == nil || registry.IsMissing(v) {
		return ""
	}
	switch vv := v.(type) {
	case string:
		return vv
	case bool:
		return strconv.FormatBool(vv)
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	default:
		b, err := json.Marshal(vv)
		if err != nil {
			return fmt.Sprintf("%v", vv)
		}
		return string(b)
	}
}
