package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrInvalidState   = errors.New("invalid state")
	ErrInvalidValue   = errors.New("invalid value")
	ErrAmountMismatch = errors.New("amount mismatch")
	// ErrGateway means the payment provider call failed or timed out; nothing was committed.
	ErrGateway = errors.New("payment gateway error")
	// ErrVerification means a signature check could not be completed, as opposed to a negative result.
	ErrVerification = errors.New("payment verification error")
)
