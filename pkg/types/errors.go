package types

import "errors"

var (
	// ErrElementNotFound covers element lookups and waits that ran out of budget.
	ErrElementNotFound = errors.New("element not found")
	// ErrCaptchaUnsolved is returned when no text could be recovered from a captcha.
	ErrCaptchaUnsolved = errors.New("captcha unsolved")
	// ErrLookupKeyMissing is returned when a challenge key is absent from the coordinate table.
	ErrLookupKeyMissing = errors.New("lookup key missing")
	// ErrOracleUnreachable wraps failures of the oracle call itself.
	ErrOracleUnreachable = errors.New("oracle unreachable")
	// ErrTargetNotFound is an attempt failure: the success target never appeared.
	ErrTargetNotFound = errors.New("success target not found")
	// ErrValidationFailed is an attempt failure: the poll budget ran out without a pass.
	ErrValidationFailed = errors.New("validation failed")
	// ErrSequenceExhausted is fatal to the mission.
	ErrSequenceExhausted = errors.New("sequence exhausted")
	// ErrCriticalUnhandled marks anything the engine did not anticipate.
	ErrCriticalUnhandled = errors.New("critical unhandled error")
)

// IsNeverOptional reports whether err must fail the step even when the step is
// marked optional.
func IsNeverOptional(err error) bool {
	return errors.Is(err, ErrCaptchaUnsolved) || errors.Is(err, ErrLookupKeyMissing)
}
