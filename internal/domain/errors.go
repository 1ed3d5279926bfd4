package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// ErrValidation is the kind shared by every input rejection below.
	// Callers check errors.Is(err, ErrValidation) to render an inline message.
	ErrValidation = errors.New("validation failed")

	// Grade errors
	ErrInvalidGrade    = validation("grade must be a multiple of 0.25 between 1.00 and 10.00")
	ErrSubjectNotFound = validation("unknown subject")

	// Reward errors
	ErrEmptyRewardName   = validation("reward name must not be empty")
	ErrRewardNameTooLong = validation("reward name must be at most 80 characters")
	ErrInvalidCost       = validation("reward cost must be greater than zero")
	ErrInvalidImage      = validation("reward image must be a base64 image data URI")

	// Credit errors
	ErrNegativeAmount      = validation("credit amount must not be negative")
	ErrInvalidCorrection   = validation("session correction must be 1 or 0.5 credits")
	ErrInsufficientBalance = errors.New("insufficient credit balance")

	// Lookup errors. The controller turns these into silent no-ops.
	ErrGradeNotFound  = errors.New("grade not found")
	ErrRewardNotFound = errors.New("reward not found")
)

// ValidationError is an input rejection. It unwraps to ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Is reports whether target is the shared validation kind.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validation(msg string) error { return &ValidationError{Msg: msg} }
