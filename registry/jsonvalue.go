// Package registry holds the catalog data model: commands, flags,
// positional arguments, provider contracts, and the catalog handle that
// owns them.
package registry

import "fmt"

// JSONValue is the neutral value type that flows through the template
// evaluator, the provider registry, and the codec. It is backed by the same
// null/bool/number/string/array/object shape encoding/json already decodes
// into: nil, bool, float64, string, []any, map[string]any.
type JSONValue = any

// Missing is the sentinel value a full-expression template replacement
// yields when a scope lookup does not resolve (spec: "a dedicated missing
// sentinel in full-expression replacement contexts").
var Missing = &missingSentinel{}

type missingSentinel struct{}

// IsMissing reports whether v is the Missing sentinel.
func IsMissing(v JSONValue) bool {
	_, ok := v.(*missingSentinel)
	return ok
}

// JSONEqual implements the structural equality the condition language uses
// for "==", "!=" and ".includes(...)": JSON-structural for arrays and
// objects, numeric comparison for JSON numbers, byte-wise for strings.
func JSONEqual(a, b JSONValue) bool {
	if IsMissing(a) || IsMissing(b) {
		return IsMissing(a) && IsMissing(b)
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := toFloat64(b)
		return ok && av == bv
	case int:
		bv, ok := toFloat64(b)
		return ok && float64(av) == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !JSONEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !JSONEqual(v, bvv) {
				return false
			}
		}
		return true
	default:
		return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
	}
}

func toFloat64(v JSONValue) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// AsArray returns v as a []any if it is a JSON array.
func AsArray(v JSONValue) ([]any, bool) {
	arr, ok := v.([]any)
	return arr, ok
}

// AsString returns v as a string if it is a JSON string.
func AsString(v JSONValue) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
