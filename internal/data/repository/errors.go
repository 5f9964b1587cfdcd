package repository

import "errors"

var (
	ErrUnknownUnit               = errors.New("unknown unit")
	ErrReservationNotFound       = errors.New("reservation not found")
	ErrDuplicatePaymentReference = errors.New("duplicate payment reference")
	ErrDuplicateBookingReference = errors.New("duplicate booking reference")
	ErrDateConflict              = errors.New("dates overlap an existing reservation")
	ErrStatusChanged             = errors.New("reservation status changed concurrently")
)
