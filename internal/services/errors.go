package services

import "errors"

var (
	ErrInstallmentCount = errors.New("installment count must be between 2 and 36")
	ErrReadOnlySession  = errors.New("session is read-only")
	ErrSuspendedUser    = errors.New("user is suspended")
	ErrUnknownUser      = errors.New("unknown user")
	ErrEmptyDescription = errors.New("description is required")
	ErrZeroTotal        = errors.New("total amount must be positive")
	ErrSweepIncomplete  = errors.New("late sweep left records unmarked")
)
