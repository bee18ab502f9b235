package covenant

import "errors"

var (
	ErrValidation           = errors.New("covenant: validation failed")
	ErrAuthFailed           = errors.New("covenant: authentication failed")
	ErrForbidden            = errors.New("covenant: forbidden")
	ErrNotFound             = errors.New("covenant: contract not found")
	ErrStepAlreadyComplete  = errors.New("covenant: step already complete")
	ErrInvalidStepSignature = errors.New("covenant: invalid step signature")
	ErrStepNotFound         = errors.New("covenant: step not found")
)

// ValidationError wraps ErrValidation with the specific field-level
// reason, the way the teacher's store layer wraps NOT_FOUND/DB_ERROR
// with a message but keeps a sentinel base error for errors.Is checks.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "covenant: validation failed: " + e.Reason }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationErr(reason string) error { return &ValidationError{Reason: reason} }
