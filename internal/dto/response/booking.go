package response

import (
	"time"

	"apartment-booking/internal/data/entity"
)

type QuoteResponse struct {
	PropertyID       string `json:"property_id"`
	UnitID           string `json:"unit_id"`
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	Nights           int    `json:"nights"`
	NightlyRate      int64  `json:"nightly_rate"`
	BasePrice        int64  `json:"base_price"`
	DiscountPercent  int64  `json:"discount_percent"`
	TaxAmount        int64  `json:"tax_amount"`
	ServiceFeeAmount int64  `json:"service_fee_amount"`
	Subtotal         int64  `json:"subtotal"`
	TotalAmount      int64  `json:"total_amount"`
	Currency         string `json:"currency"`
}

type BookingIntentResponse struct {
	AuthorizationURL string        `json:"authorization_url"`
	PaymentReference string        `json:"payment_reference"`
	Quote            QuoteResponse `json:"quote"`
}

type DateRangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityResponse struct {
	PropertyID      string              `json:"property_id"`
	UnitID          string              `json:"unit_id"`
	Available       *bool               `json:"available,omitempty"`
	Conflicts       []DateRangeResponse `json:"conflicts,omitempty"`
	BookedDates     []DateRangeResponse `json:"booked_dates"`
	UnavailableDays []string            `json:"unavailable_days"`
}

type UnitResponse struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	NightlyRate  int64  `json:"nightly_rate"`
	BedroomCount int    `json:"bedroom_count"`
	Currency     string `json:"currency"`
}

type PropertyResponse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Units []UnitResponse `json:"units"`
}

type ReservationResponse struct {
	ID               string                   `json:"id"`
	BookingReference string                   `json:"booking_reference"`
	PaymentReference string                   `json:"payment_reference"`
	UserID           string                   `json:"user_id"`
	GuestName        string                   `json:"guest_name"`
	GuestEmail       string                   `json:"guest_email"`
	GuestPhone       string                   `json:"guest_phone,omitempty"`
	PropertyID       string                   `json:"property_id"`
	PropertyName     string                   `json:"property_name"`
	UnitID           string                   `json:"unit_id"`
	UnitLabel        string                   `json:"unit_label"`
	CheckIn          string                   `json:"check_in"`
	CheckOut         string                   `json:"check_out"`
	Nights           int                      `json:"nights"`
	Guests           int                      `json:"guests"`
	SpecialRequests  string                   `json:"special_requests,omitempty"`
	NightlyRate      int64                    `json:"nightly_rate"`
	BasePrice        int64                    `json:"base_price"`
	DiscountPercent  int64                    `json:"discount_percent"`
	TaxAmount        int64                    `json:"tax_amount"`
	ServiceFeeAmount int64                    `json:"service_fee_amount"`
	TotalAmount      int64                    `json:"total_amount"`
	Currency         string                   `json:"currency"`
	PaymentStatus    entity.PaymentStatus     `json:"payment_status"`
	Status           entity.ReservationStatus `json:"status"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// Helper converters
func QuoteToResponse(propertyID, unitID string, stay entity.DateRange, q entity.PriceQuote) QuoteResponse {
	return QuoteResponse{
		PropertyID:       propertyID,
		UnitID:           unitID,
		CheckIn:          stay.CheckIn.Format(entity.DateLayout),
		CheckOut:         stay.CheckOut.Format(entity.DateLayout),
		Nights:           q.Nights,
		NightlyRate:      q.NightlyRate,
		BasePrice:        q.BasePrice,
		DiscountPercent:  q.DiscountPercent,
		TaxAmount:        q.TaxAmount,
		ServiceFeeAmount: q.ServiceFeeAmount,
		Subtotal:         q.Subtotal,
		TotalAmount:      q.TotalAmount,
		Currency:         q.Currency,
	}
}

func DateRangeToResponse(r entity.DateRange) DateRangeResponse {
	return DateRangeResponse{
		Start: r.CheckIn.Format(entity.DateLayout),
		End:   r.CheckOut.Format(entity.DateLayout),
	}
}

func DateRangesToResponse(ranges []entity.DateRange) []DateRangeResponse {
	out := make([]DateRangeResponse, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, DateRangeToResponse(r))
	}
	return out
}

func ReservationToResponse(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:               r.ID.String(),
		BookingReference: r.BookingReference,
		PaymentReference: r.PaymentReference,
		UserID:           r.UserID.String(),
		GuestName:        r.GuestName,
		GuestEmail:       r.GuestEmail,
		GuestPhone:       r.GuestPhone,
		PropertyID:       r.PropertyID,
		PropertyName:     r.PropertyName,
		UnitID:           r.UnitID,
		UnitLabel:        r.UnitLabel,
		CheckIn:          r.Stay.CheckIn.Format(entity.DateLayout),
		CheckOut:         r.Stay.CheckOut.Format(entity.DateLayout),
		Nights:           r.Quote.Nights,
		Guests:           r.Guests,
		SpecialRequests:  r.SpecialRequests,
		NightlyRate:      r.Quote.NightlyRate,
		BasePrice:        r.Quote.BasePrice,
		DiscountPercent:  r.Quote.DiscountPercent,
		TaxAmount:        r.Quote.TaxAmount,
		ServiceFeeAmount: r.Quote.ServiceFeeAmount,
		TotalAmount:      r.Quote.TotalAmount,
		Currency:         r.Quote.Currency,
		PaymentStatus:    r.PaymentStatus,
		Status:           r.Status,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func ReservationsToResponse(rs []*entity.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, ReservationToResponse(r))
	}
	return out
}
