// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, regions, and configuration
//   - Credential errors (200-299): Token fetch, cache, and store errors
//   - Rate limit errors (300-399): Admission control errors
//   - Execution errors (400-499): Order submission and fill recording errors
//   - Risk errors (500-599): Breaker and risk evaluation errors
//   - Transport errors (600-699): Network and timeout errors
//   - Storage errors (700-799): Ledger and breaker store errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeInvalidOrderIntent, "quantity must be positive")
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeQueryFailed, "failed to load positions", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeTradingHalted) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// A TradingHaltedError maps to ErrCodeTradingHalted so halt failures stay
// addressable through the code taxonomy. Returns ErrCodeUnknown otherwise.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var halted *TradingHaltedError
	if errors.As(err, &halted) {
		return ErrCodeTradingHalted
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// TradingHaltedError is returned when order submission is blocked by one or
// more tripped circuit breakers. It carries enough context for the caller to
// decide which breaker needs an explicit recovery action.
type TradingHaltedError struct {
	Breakers []string // breaker types currently tripped
	Message  string   // human-readable message
}

// NewTradingHaltedError creates a new TradingHaltedError for the given tripped breakers.
func NewTradingHaltedError(breakers []string, message string) *TradingHaltedError {
	return &TradingHaltedError{
		Breakers: breakers,
		Message:  message,
	}
}

// NewTradingHaltedErrorf creates a new TradingHaltedError with a formatted message.
func NewTradingHaltedErrorf(breakers []string, format string, args ...any) *TradingHaltedError {
	return &TradingHaltedError{
		Breakers: breakers,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *TradingHaltedError) Error() string {
	return e.Message
}

// IsTradingHalted checks if an error is a TradingHaltedError.
// It uses errors.As to check the error chain.
func IsTradingHalted(err error) bool {
	var haltedErr *TradingHaltedError

	return errors.As(err, &haltedErr)
}
