package workflow

import (
	"errors"

	"github.com/oattyio/oatty/registry"
	"github.com/oattyio/oatty/template"
)

// evalStepCondition evaluates step.If (spec.md §4.C), wrapping the
// template package's untyped errors into the step-scoped registry error
// kinds spec.md §7 names. A step with no If always evaluates true.
func evalStepCondition(step *StepSpec, scope template.Scope) (bool, error) {
	if step.If == "" {
		return true, nil
	}
	ok, err := template.EvalCondition(step.If, scope)
	if err == nil {
		return ok, nil
	}

	var syntaxErr *template.SyntaxError
	if errors.As(err, &syntaxErr) {
		return false, &registry.ConditionParseError{StepID: step.ID, Expr: step.If, Reason: syntaxErr.Reason}
	}
	var kindErr *template.KindError
	if errors.As(err, &kindErr) {
		return false, &registry.ConditionTypeError{StepID: step.ID, Expr: step.If, Detail: kindErr.Detail}
	}
	return false, err
}

// resolveStepArgs interpolates step.With against scope and returns it as a
// flat name->value map the dispatcher binds to the target command's
// positionals/flags by name (spec.md §4.E point 1: "map its fields to the
// command's positionals/flags by name"). A step with no With runs the
// command with no arguments.
func resolveStepArgs(step *StepSpec, scope template.Scope) (map[string]registry.JSONValue, error) {
	if step.With == nil {
		return map[string]registry.JSONValue{}, nil
	}
	interpolated, err := template.Interpolate(step.With, scope)
	if err != nil {
		var syntaxErr *template.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &registry.ConditionParseError{StepID: step.ID, Expr: syntaxErr.Expr, Reason: syntaxErr.Reason}
		}
		return nil, err
	}
	args, ok := interpolated.(map[string]any)
	if !ok {
		return nil, &registry.InputUnresolvedError{Name: step.ID, Reason: "step with must interpolate to a JSON object"}
	}
	return args, nil
}
