package errors

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrDb           = errors.New("database error")
	ErrUnauthorized = errors.New("unauthenticated")
)

// NotFoundError is returned when an id does not resolve.
type NotFoundError string

func (e NotFoundError) Error() string {
	return string(e)
}

func (e NotFoundError) Map() map[string]any {
	return map[string]any{"message": e.Error()}
}

const (
	ErrRentalNotFound  NotFoundError = "Rental not found"
	ErrPaymentNotFound NotFoundError = "Payment not found"
	ErrCarNotFound     NotFoundError = "Car not found"
	ErrUserNotFound    NotFoundError = "User not found"
)

type ConflictError string

func (e ConflictError) Error() string {
	return string(e)
}

func (e ConflictError) Map() map[string]any {
	return map[string]any{"message": e.Error()}
}

const (
	ErrRentalNotPending    ConflictError = "Rental is not pending"
	ErrPaymentExceedsTotal ConflictError = "Payments would exceed the rental total price"
	ErrCarHasRentals       ConflictError = "Car has rentals"
	ErrCheckoutAlreadyPaid ConflictError = "Checkout session is already paid"
	ErrCheckoutInProgress  ConflictError = "Another checkout session was opened for this payment"
)

const validationMessage = "The given data was invalid."

// ValidationError carries per-field messages keyed by the JSON field name.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{
		Message: validationMessage,
		Fields:  make(map[string][]string),
	}
}

// FieldError builds a validation error with a single field message.
func FieldError(field, msg string) *ValidationError {
	e := NewValidationError()
	e.Add(field, msg)
	return e
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns nil when no field was reported, so callers can `return verr.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return e.Message + " " + strings.Join(parts, ", ")
}

func (e *ValidationError) Map() map[string]any {
	return map[string]any{
		"message": e.Message,
		"errors":  e.Fields,
	}
}

// GatewayError wraps any failure of the external checkout gateway, timeouts included.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return "checkout gateway: " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func (e *GatewayError) Map() map[string]any {
	return map[string]any{"error": e.Error()}
}
