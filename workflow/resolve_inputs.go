package workflow

import (
	"context"
	"sort"

	"github.com/oattyio/oatty/provider"
	"github.com/oattyio/oatty/registry"
)

// Selector is the UI-collected callback spec.md §4.E/§5 describes as
// suspension point (iv): "awaiting UI selection during input resolution".
// It is invoked whenever a provider returns more than one candidate value.
// A nil Selector means resolve_inputs is running non-interactively; only
// then does auto_select_first apply.
type Selector func(ctx context.Context, inputName string, candidates []registry.JSONValue) (registry.JSONValue, error)

// ResolveInputs implements spec.md §4.E's resolve_inputs(spec, ctx,
// registry): for each declared input, in the order given below, use
// whatever is already in ctx.Inputs, else a provider's fetched value(s),
// else the declared default, else fail input_missing if the input is
// Required. An input whose Required is false (the value when the workflow
// file omits it) and that none of those sources fill is left unset, with
// no error. Resolved values are written into ctx.Inputs as they are
// decided, so a later input's provider binding can read an earlier input's
// resolved value.
//
// WorkflowSpec.Inputs is a Go map and so has no declaration order of its
// own; this implementation resolves inputs in sorted-name order, which is
// deterministic but not necessarily the order the workflow author wrote
// them in. A provider binding sees only inputs given up front and inputs
// whose names sort before its own; the order does not follow dependencies
// between inputs.
func ResolveInputs(ctx context.Context, spec *WorkflowSpec, run *RunContext, providers *provider.Registry, selector Selector) error {
	names := make([]string, 0, len(spec.Inputs))
	for name := range spec.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := resolveOneInput(ctx, name, spec.Inputs[name], run, providers, selector); err != nil {
			return err
		}
	}
	return nil
}

func resolveOneInput(ctx context.Context, name string, input InputSpec, run *RunContext, providers *provider.Registry, selector Selector) error {
	if existing, ok := run.Inputs[name]; ok {
		return validateInputKind(name, input.ValueKind, existing)
	}

	if input.Provider != nil && providers != nil {
		resolved, err := resolveFromProvider(ctx, name, input, run, providers, selector)
		if err != nil {
			return err
		}
		if resolved {
			return nil
		}
	}

	if input.Default != nil {
		run.Inputs[name] = input.Default
		return nil
	}

	if input.Required {
		return &registry.InputMissingError{Name: name}
	}
	return nil
}

// resolveFromProvider returns (true, nil) when it resolved and wrote
// run.Inputs[name]; (false, nil) means the caller should fall through to
// the default/input_missing cases (this never happens today, since a
// provider that fails short of a value returns a non-nil error instead,
// but the boolean keeps the call site's intent explicit).
func resolveFromProvider(ctx context.Context, name string, input InputSpec, run *RunContext, providers *provider.Registry, selector Selector) (bool, error) {
	args := bindingArgs(input.Provider.Bindings, run)
	values, err := providers.FetchValues(ctx, input.Provider.ProviderID, args)
	if err != nil {
		return false, err
	}

	switch len(values) {
	case 0:
		return false, &registry.InputUnresolvedError{Name: name, Reason: "provider returned no values"}
	case 1:
		run.Inputs[name] = values[0]
		return true, nil
	default:
		if selector != nil {
			chosen, err := selector(ctx, name, values)
			if err != nil {
				return false, err
			}
			run.Inputs[name] = chosen
			return true, nil
		}
		if input.AutoSelectFirst {
			run.Inputs[name] = values[0]
			return true, nil
		}
		return false, &registry.InputUnresolvedError{Name: name, Reason: "provider returned multiple values and auto_select_first is not set"}
	}
}

// bindingArgs builds a provider's fetch_values args from earlier-resolved
// inputs and ctx.environment_variables, per spec.md §4.E point 2. A
// binding's SourceKind of "env" reads run.EnvVars; anything else reads
// run.Inputs under the binding's SourceName, falling back to the
// contract's own input name when no binding override names a different
// source (spec.md §3 InputSpec: "optional provider (provider id + binding
// overrides)" — absence of an override is the common case).
func bindingArgs(bindings []registry.Binding, run *RunContext) map[string]registry.JSONValue {
	args := make(map[string]registry.JSONValue, len(bindings))
	for _, b := range bindings {
		if b.SourceKind == "env" {
			if v, ok := run.EnvVars[b.SourceName]; ok {
				args[b.InputName] = v
			}
			continue
		}
		sourceName := b.SourceName
		if sourceName == "" {
			sourceName = b.InputName
		}
		if v, ok := run.Inputs[sourceName]; ok {
			args[b.InputName] = v
		}
	}
	return args
}

func validateInputKind(name string, kind registry.ValueKind, v registry.JSONValue) error {
	if kind == "" {
		return nil
	}
	if jsonValueMatchesKind(kind, v) {
		return nil
	}
	return &registry.InputTypeMismatchError{Name: name, Expected: kind, Got: jsonKindName(v)}
}

func jsonValueMatchesKind(kind registry.ValueKind, v registry.JSONValue) bool {
	switch kind {
	case registry.ValueKindString:
		_, ok := v.(string)
		return ok
	case registry.ValueKindNumber:
		_, ok := v.(float64)
		return ok
	case registry.ValueKindBoolean:
		_, ok := v.(bool)
		return ok
	case registry.ValueKindArray:
		_, ok := registry.AsArray(v)
		return ok
	case registry.ValueKindObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}

func jsonKindName(v registry.JSONValue) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
