// Package apperr defines the error taxonomy shared by services and
// handlers. Handlers map these onto HTTP status codes; anything outside the
// taxonomy falls through to a generic 500.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the common 4xx classes.
var (
	// ErrUnauthenticated marks requests with no usable session (401).
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden marks requests whose session lacks the required role (403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks operations against a missing resource (404).
	ErrNotFound = errors.New("not found")
)

// ValidationError marks a missing or invalid field in a request (400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation constructs a ValidationError with a formatted message.
func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientBalanceError is returned when an order needs more meal
// credits than the customer's packs hold.
type InsufficientBalanceError struct {
	Required  int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient meal balance: need %d, have %d", e.Required, e.Available)
}

// PackExpiredError is returned when the customer's only remaining credits
// sit in expired packs.
type PackExpiredError struct {
	PackID int
}

func (e *PackExpiredError) Error() string {
	return fmt.Sprintf("meal pack %d has expired", e.PackID)
}

// IsBusiness reports whether err belongs to the business-rule class
// (insufficient balance, expired pack). Business errors surface as 400s.
func IsBusiness(err error) bool {
	var insufficient *InsufficientBalanceError
	var expired *PackExpiredError
	return errors.As(err, &insufficient) || errors.As(err, &expired)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
