package registry

import "fmt"

// ValidationKind enumerates the validation_error variants from spec.md §7.
type ValidationKind string

const (
	KindDuplicateStepID  ValidationKind = "duplicate_step_id"
	KindUnknownDependsOn ValidationKind = "unknown_depends_on"
	KindCycleDetected    ValidationKind = "cycle_detected"
	KindUnknownProvider  ValidationKind = "unknown_provider"
	KindFlagConflict     ValidationKind = "flag_conflict"
	KindLegacyTasksShape ValidationKind = "legacy_tasks_shape"
)

// ValidationError is the validation_error{kind, detail} error kind.
type ValidationError struct {
	Kind   ValidationKind
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation_error[%s]: %s", e.Kind, e.Detail)
}

// ParseError is the parse_error{file, pointer, reason} error kind.
type ParseError struct {
	File    string
	Pointer string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse_error: %s (%s): %s", e.File, e.Pointer, e.Reason)
}

// InputMissingError is the input_missing{name} error kind.
type InputMissingError struct {
	Name string
}

func (e *InputMissingError) Error() string {
	return fmt.Sprintf("input_missing: %s", e.Name)
}

// InputTypeMismatchError is the input_type_mismatch{name, expected, got} error kind.
type InputTypeMismatchError struct {
	Name     string
	Expected ValueKind
	Got      string
}

func (e *InputTypeMismatchError) Error() string {
	return fmt.Sprintf("input_type_mismatch: %s expected %s got %s", e.Name, e.Expected, e.Got)
}

// InputUnresolvedError is the input_unresolved{name, reason} error kind.
type InputUnresolvedError struct {
	Name   string
	Reason string
}

func (e *InputUnresolvedError) Error() string {
	return fmt.Sprintf("input_unresolved: %s: %s", e.Name, e.Reason)
}

// ConditionParseError is the condition_parse_error{step_id, expr} error kind.
type ConditionParseError struct {
	StepID string
	Expr   string
	Reason string
}

func (e *ConditionParseError) Error() string {
	return fmt.Sprintf("condition_parse_error: step %s: %q: %s", e.StepID, e.Expr, e.Reason)
}

// ConditionTypeError is the condition_type_error{step_id, expr, detail} error kind.
type ConditionTypeError struct {
	StepID string
	Expr   string
	Detail string
}

func (e *ConditionTypeError) Error() string {
	return fmt.Sprintf("condition_type_error: step %s: %q: %s", e.StepID, e.Expr, e.Detail)
}

// ProviderPreconditionFailure is the provider_precondition_failure{provider_id, missing} error kind.
type ProviderPreconditionFailure struct {
	ProviderID string
	Missing    []string
}

func (e *ProviderPreconditionFailure) Error() string {
	return fmt.Sprintf("provider_precondition_failure: %s missing %v", e.ProviderID, e.Missing)
}

// CommandNotFoundError is the command_not_found{id} error kind. Suggestion
// is populated from a Levenshtein nearest-match scan over the catalog.
type CommandNotFoundError struct {
	ID         string
	Suggestion string
}

func (e *CommandNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("command_not_found: %s (did you mean %q?)", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("command_not_found: %s", e.ID)
}

// WorkflowNotFoundError is raised when the CLI or engine looks up a
// workflow id that is not present in the loaded bundle. It is not one of
// spec.md §7's named error kinds (the spec only names command_not_found);
// it carries the same "did you mean" shape for a consistent CLI
// experience across both kinds of not-found.
type WorkflowNotFoundError struct {
	ID         string
	Suggestion string
}

func (e *WorkflowNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("workflow_not_found: %s (did you mean %q?)", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("workflow_not_found: %s", e.ID)
}

// RequiresConfirmationError is the requires_confirmation{id} error kind.
type RequiresConfirmationError struct {
	ID string
}

func (e *RequiresConfirmationError) Error() string {
	return fmt.Sprintf("requires_confirmation: %s", e.ID)
}

// HostNotAllowedError is the host_not_allowed{url} error kind.
type HostNotAllowedError struct {
	URL string
}

func (e *HostNotAllowedError) Error() string {
	return fmt.Sprintf("host_not_allowed: %s", e.URL)
}

// TransportError is the transport_error{detail} error kind.
type TransportError struct {
	Detail string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport_error: %s", e.Detail)
}

// UnauthorizedError is the unauthorized error kind.
type UnauthorizedError struct{}

func (e *UnauthorizedError) Error() string { return "unauthorized" }

// TransientError is the transient_error{status} error kind.
type TransientError struct {
	Status int
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient_error: status %d", e.Status)
}

// ClientError is the client_error{status, body} error kind.
type ClientError struct {
	Status int
	Body   string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client_error: status %d: %s", e.Status, e.Body)
}

// CancelledError is the cancelled error kind.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "cancelled" }
