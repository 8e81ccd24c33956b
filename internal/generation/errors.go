package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed matches every failure of the gateway: provider
	// errors, timeouts, malformed replies and schema mismatches alike.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrSchemaMismatch additionally matches replies that parsed as JSON but
	// did not satisfy the template's result schema.
	ErrSchemaMismatch = errors.New("generation result does not match schema")

	// ErrUnsupported is the cause when the configured provider has no audio
	// capability.
	ErrUnsupported = errors.New("operation not supported by the configured provider")
)

// Error is the single error shape callers see from the gateway. Cause keeps
// the provider-specific failure for logging; it is never meant for clients.
type Error struct {
	Op       string   // "generate", "transcribe" or "speak"
	Template Template // empty for audio operations
	Schema   bool     // true when the reply failed validation
	Cause    error
}

func (e *Error) Error() string {
	what := e.Op
	if e.Template != "" {
		what += " " + string(e.Template)
	}
	if e.Cause == nil {
		return "generation: " + what + " failed"
	}
	return fmt.Sprintf("generation: %s: %v", what, e.Cause)
}

func (e *Error) Unwrap() []error {
	errs := []error{ErrGenerationFailed}
	if e.Schema {
		errs = append(errs, ErrSchemaMismatch)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
