package types

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable marks a failed market data or ticker fetch.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrInsufficientHistory marks a bar window shorter than an indicator needs.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrNotExecuted is returned when an order gets no confirmation.
	ErrNotExecuted = errors.New("order not executed")
	// ErrRiskViolation wraps every failed risk check.
	ErrRiskViolation = errors.New("risk violation")
	// ErrNotConfigured is returned by collaborators that lack credentials.
	ErrNotConfigured = errors.New("not configured")
	// ErrPositionClosed is returned when closing a position twice.
	ErrPositionClosed = errors.New("position already closed")
	ErrUnknownSymbol  = errors.New("unknown symbol")
)

// FieldError reports a required field missing from a collaborator payload.
type FieldError struct {
	Source string
	Field  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Source, e.Field)
}

func (e *FieldError) Unwrap() error { return ErrDataUnavailable }
