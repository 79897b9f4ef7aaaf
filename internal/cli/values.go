package cli

import (
	"encoding/json"
	"strings"

	"github.com/oattyio/oatty/registry"
)

// parseValue implements spec.md §6's `--input key=value` parsing rule:
// "values parsed as JSON if they look like JSON literals, else strings".
// The same rule is applied to `oatty run`'s own flag/positional values,
// since both surfaces feed the same JSONValue-typed argument map.
func parseValue(raw string) registry.JSONValue {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	switch trimmed[0] {
	case '{', '[', '"':
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	case 't', 'f':
		if trimmed == "true" {
			return true
		}
		if trimmed == "false" {
			return false
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v float64
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	case 'n':
		if trimmed == "null" {
			return nil
		}
	}
	return raw
}

// splitKV splits a `key=value` pair, returning ok=false for a bare word
// with no `=`.
func splitKV(s string) (key, value string, ok bool) {
	idx := strings.IndexByte(s, '=')
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}
