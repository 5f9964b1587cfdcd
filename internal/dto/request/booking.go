package request

// StayRequest identifies a unit and the nights asked for.
type StayRequest struct {
	PropertyID string `json:"property_id" validate:"required,max=64"`
	UnitID     string `json:"unit_id" validate:"required,max=64"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
}

type QuoteRequest struct {
	StayRequest
}

// AvailabilityRequest checks one stay when both dates are given, otherwise it
// only lists the unit's booked ranges.
type AvailabilityRequest struct {
	PropertyID string `json:"property_id" validate:"required,max=64"`
	UnitID     string `json:"unit_id" validate:"required,max=64"`
	CheckIn    string `json:"check_in" validate:"omitempty,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"omitempty,datetime=2006-01-02"`
}

// BookingIntentRequest carries no amount: the price is always computed server
// side. Guest contact fields default to the signed-in profile.
type BookingIntentRequest struct {
	StayRequest
	Guests          int    `json:"guests" validate:"required,min=1,max=20"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
	GuestName       string `json:"guest_name" validate:"omitempty,max=100"`
	GuestEmail      string `json:"guest_email" validate:"omitempty,email"`
	GuestPhone      string `json:"guest_phone" validate:"omitempty,max=30"`
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
}

type ReservationListRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed checked-in checked-out cancelled"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
