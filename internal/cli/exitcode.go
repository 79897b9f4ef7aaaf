package cli

import (
	"errors"

	"github.com/oattyio/oatty/registry"
)

// Exit codes, verbatim from spec.md §6.
const (
	ExitSuccess         = 0
	ExitUsageError      = 2
	ExitValidationError = 3
	ExitRuntimeFailure  = 4
	ExitUnauthorized    = 5
	ExitCancelled       = 7
)

// ExitCodeFor classifies an error returned from a subcommand's RunE into
// one of spec.md §6's exit codes. nil maps to success; anything not
// recognized below is a runtime failure, the catch-all the spec reserves
// for everything that isn't a parse/validation/auth/cancellation outcome.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		parseErr        *registry.ParseError
		validationErr   *registry.ValidationError
		inputMissing    *registry.InputMissingError
		inputMismatch   *registry.InputTypeMismatchError
		inputUnresolved *registry.InputUnresolvedError
		conditionParse  *registry.ConditionParseError
		conditionType   *registry.ConditionTypeError
		unauthorized    *registry.UnauthorizedError
		cancelled       *registry.CancelledError
		usage           *UsageError
	)

	switch {
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &parseErr),
		errors.As(err, &validationErr),
		errors.As(err, &inputMissing),
		errors.As(err, &inputMismatch),
		errors.As(err, &inputUnresolved),
		errors.As(err, &conditionParse),
		errors.As(err, &conditionType):
		return ExitValidationError
	case errors.As(err, &unauthorized):
		return ExitUnauthorized
	case errors.As(err, &cancelled):
		return ExitCancelled
	default:
		return ExitRuntimeFailure
	}
}

// UsageError marks a CLI-level argument mistake (spec.md §6 exit code 2),
// distinct from a validation_error raised by the core on well-formed but
// semantically invalid input.
type UsageError struct {
	Detail string
}

func (e *UsageError) Error() string { return e.Detail }
