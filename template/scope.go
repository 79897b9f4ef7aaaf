// Package template implements the `${{ … }}` interpolation surface and the
// small `if` condition grammar used by workflow steps. Neither is backed
// by a general-purpose expression engine: the grammar is deliberately
// small, per spec.md's "arbitrary expression language" Non-goal.
package template

import "github.com/oattyio/oatty/registry"

// Scope resolves one dotted/indexed scope path — the part of an expr after
// trimming "${{" / "}}" whitespace, e.g. "env.TOKEN", "inputs.user.id",
// "steps.fetch.output.items[0]", "steps.fetch.status" — against a run's
// state. It returns (value, true) when the path resolves to a value, and
// (nil, false) when it does not (the caller decides whether that becomes
// an empty string or the Missing sentinel).
type Scope interface {
	Lookup(path string) (registry.JSONValue, bool)
}

// isScopePrefix reports whether ident begins with one of the three scope
// namespaces the grammar recognizes.
func isScopePrefix(ident string) bool {
	for _, prefix := range []string{"env.", "inputs.", "steps."} {
		if len(ident) > len(prefix) && ident[:len(prefix)] == prefix {
			return true
		}
		if ident == prefix[:len(prefix)-1] {
			return true
		}
	}
	return false
}
