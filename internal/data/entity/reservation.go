package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "pending"
	ReservationStatusConfirmed  ReservationStatus = "confirmed"
	ReservationStatusCheckedIn  ReservationStatus = "checked-in"
	ReservationStatusCheckedOut ReservationStatus = "checked-out"
	ReservationStatusCancelled  ReservationStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// BlockingStatuses hold a unit's nights against new bookings.
var BlockingStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusCheckedIn,
}

var transitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusConfirmed, ReservationStatusCancelled},
	ReservationStatusConfirmed: {ReservationStatusCheckedIn, ReservationStatusCancelled},
	ReservationStatusCheckedIn: {ReservationStatusCheckedOut},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCheckedIn,
		ReservationStatusCheckedOut, ReservationStatusCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) Blocks() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

func (s ReservationStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation is a paid booking. Price fields are frozen at creation; after
// that only Status and UpdatedAt change.
type Reservation struct {
	BaseNoDelete
	BookingReference string            `db:"booking_reference"`
	PaymentReference string            `db:"payment_reference"`
	UserID           uuid.UUID         `db:"user_id"`
	GuestName        string            `db:"guest_name"`
	GuestEmail       string            `db:"guest_email"`
	GuestPhone       string            `db:"guest_phone"`
	PropertyID       string            `db:"property_id"`
	PropertyName     string            `db:"property_name"`
	UnitID           string            `db:"unit_id"`
	UnitLabel        string            `db:"unit_label"`
	Stay             DateRange         `db:"-"`
	Guests           int               `db:"guests"`
	SpecialRequests  string            `db:"special_requests"`
	Quote            PriceQuote        `db:"-"`
	PaymentStatus    PaymentStatus     `db:"payment_status"`
	Status           ReservationStatus `db:"status"`
}

// Transition moves the reservation to next and stamps UpdatedAt. The
// reservation is left untouched when the move is not allowed.
func (r *Reservation) Transition(next ReservationStatus, at time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	r.UpdatedAt = at
	return nil
}
