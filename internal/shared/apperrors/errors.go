package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConfigurationError reports a malformed layout or baseline shipped with an event.
type ConfigurationError struct {
	Subject string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %s", e.Subject, e.Reason)
}

// SeatConflictError is returned when a booking commit finds seats that are no longer available.
// SeatIDs lists the offending seats in request order.
type SeatConflictError struct {
	EventID int
	SeatIDs []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats already booked for event %d: %s", e.EventID, strings.Join(e.SeatIDs, ", "))
}

// DuplicateBookingError is returned when a ticket with the same booking id already exists.
type DuplicateBookingError struct {
	BookingID string
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("booking %s already exists", e.BookingID)
}

// PaymentError is returned by the payment step of a checkout.
type PaymentError struct {
	Method string
	Reason string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment with %s failed: %s", e.Method, e.Reason)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError reports bad caller input (unknown seats, empty selections, bad filters).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// SeatUnavailableError is returned when a selection tries to pick a seat that is already booked.
type SeatUnavailableError struct {
	SeatID string
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("seat %s is not available", e.SeatID)
}

// InvalidTransitionError is returned when a state machine is asked for a move it does not allow.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func NotFound(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// HTTPStatus maps an error chain onto the status code the API answers with.
func HTTPStatus(err error) int {
	var (
		configErr     *ConfigurationError
		conflictErr   *SeatConflictError
		duplicateErr  *DuplicateBookingError
		paymentErr    *PaymentError
		notFoundErr   *NotFoundError
		validationErr *ValidationError
		unavailErr    *SeatUnavailableError
		transitionErr *InvalidTransitionError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &conflictErr), errors.As(err, &unavailErr), errors.As(err, &duplicateErr):
		return http.StatusConflict
	case errors.As(err, &paymentErr):
		return http.StatusPaymentRequired
	case errors.As(err, &transitionErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
