package paystack

import "errors"

var (
	// ErrUnreachable covers transport failures and 5xx answers; the outcome is unknown.
	ErrUnreachable = errors.New("paystack: gateway unreachable")

	// ErrRejected is returned when Paystack answers but refuses the request.
	ErrRejected = errors.New("paystack: request rejected")

	ErrInvalidResponse = errors.New("paystack: invalid response")

	ErrTransactionNotFound = errors.New("paystack: transaction not found")
)
