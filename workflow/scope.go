package workflow

import (
	"strconv"
	"strings"

	"github.com/oattyio/oatty/registry"
)

// runContextScope adapts a *RunContext to template.Scope, resolving the
// three namespaces spec.md §4.C defines: env.<NAME>, inputs.<path>, and
// steps.<step-id>.output.<path> / steps.<step-id>.status.
type runContextScope struct {
	ctx *RunContext
}

func newRunContextScope(ctx *RunContext) runContextScope {
	return runContextScope{ctx: ctx}
}

func (s runContextScope) Lookup(path string) (registry.JSONValue, bool) {
	switch {
	case path == "env" || strings.HasPrefix(path, "env."):
		return s.lookupEnv(path)
	case path == "inputs" || strings.HasPrefix(path, "inputs."):
		return s.lookupInputs(path)
	case path == "steps" || strings.HasPrefix(path, "steps."):
		return s.lookupSteps(path)
	default:
		return nil, false
	}
}

func (s runContextScope) lookupEnv(path string) (registry.JSONValue, bool) {
	rest := strings.TrimPrefix(path, "env.")
	if rest == path {
		return nil, false
	}
	v, ok := s.ctx.EnvVars[rest]
	if !ok {
		return nil, false
	}
	return v, true
}

func (s runContextScope) lookupInputs(path string) (registry.JSONValue, bool) {
	rest := strings.TrimPrefix(path, "inputs.")
	if rest == path {
		return nil, false
	}
	root, ok := s.ctx.Inputs[firstSegment(rest)]
	if !ok {
		return nil, false
	}
	return walkPath(root, trimFirstSegment(rest))
}

func (s runContextScope) lookupSteps(path string) (registry.JSONValue, bool) {
	rest := strings.TrimPrefix(path, "steps.")
	if rest == path {
		return nil, false
	}
	stepID := firstSegment(rest)
	result, ok := s.ctx.Steps[stepID]
	if !ok {
		return nil, false
	}
	remainder := trimFirstSegment(rest)
	switch {
	case remainder == "status":
		return string(result.Status), true
	case remainder == "output":
		return result.Output, true
	case strings.HasPrefix(remainder, "output."):
		return walkPath(result.Output, strings.TrimPrefix(remainder, "output."))
	default:
		return nil, false
	}
}

// firstSegment returns the leading dotted segment of path, stopping at the
// first '.' that is not inside a '[...]' index.
func firstSegment(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

func trimFirstSegment(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return ""
}

// walkPath resolves a "." and "[idx]" path against a decoded JSON value
// (nil/bool/float64/string/[]any/map[string]any), e.g. "items[0].name".
func walkPath(v registry.JSONValue, path string) (registry.JSONValue, bool) {
	if path == "" {
		return v, true
	}
	field, rest, index, hasIndex := nextPathStep(path)

	if field != "" {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok = m[field]
		if !ok {
			return nil, false
		}
	}

	if hasIndex {
		arr, ok := registry.AsArray(v)
		if !ok || index < 0 || index >= len(arr) {
			return nil, false
		}
		v = arr[index]
	}

	return walkPath(v, rest)
}

// nextPathStep splits "name[3].rest" (or "[3].rest", or "name.rest") into
// its leading field name, an optional bracket index, and the remainder.
func nextPathStep(path string) (field, rest string, index int, hasIndex bool) {
	dot := strings.IndexByte(path, '.')
	bracket := strings.IndexByte(path, '[')

	end := len(path)
	if dot >= 0 && dot < end {
		end = dot
	}
	if bracket >= 0 && bracket < end {
		end = bracket
	}
	field = path[:end]

	switch {
	case bracket >= 0 && bracket == end:
		closeBracket := strings.IndexByte(path[bracket:], ']')
		if closeBracket < 0 {
			return field, "", 0, false
		}
		closeBracket += bracket
		idx, err := strconv.Atoi(path[bracket+1 : closeBracket])
		if err != nil {
			return field, "", 0, false
		}
		rest = strings.TrimPrefix(path[closeBracket+1:], ".")
		return field, rest, idx, true
	case dot >= 0 && dot == end:
		return field, path[dot+1:], 0, false
	default:
		return field, "", 0, false
	}
}
