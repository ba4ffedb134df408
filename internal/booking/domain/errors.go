package domain

import "errors"

var (
	// ErrNotFound indicates the booking request does not exist.
	ErrNotFound = errors.New("booking request not found")

	// ErrNotAuthorized indicates the caller does not own the request.
	ErrNotAuthorized = errors.New("not authorized for this request")

	// ErrNotPayable indicates payment was attempted before the caregiver
	// accepted the request.
	ErrNotPayable = errors.New("payment available after caregiver accepts")

	// ErrNoPaymentMethod indicates a charge was attempted with no payment
	// method on file.
	ErrNoPaymentMethod = errors.New("no payment method on file")
)
