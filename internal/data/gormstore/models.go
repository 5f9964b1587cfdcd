package gormstore

import (
	"time"

	"apartment-booking/internal/data/entity"

	"github.com/google/uuid"
)

// Reservation mirrors the reservations table.
type Reservation struct {
	ID               string    `gorm:"primaryKey"`
	BookingReference string    `gorm:"not null;uniqueIndex:idx_reservations_booking_reference"`
	PaymentReference string    `gorm:"not null;uniqueIndex:idx_reservations_payment_reference"`
	UserID           string    `gorm:"not null;index"`
	GuestName        string    `gorm:"not null"`
	GuestEmail       string    `gorm:"not null"`
	GuestPhone       string    `gorm:"not null"`
	PropertyID       string    `gorm:"not null;index:idx_reservations_unit,priority:1"`
	PropertyName     string    `gorm:"not null"`
	UnitID           string    `gorm:"not null;index:idx_reservations_unit,priority:2"`
	UnitLabel        string    `gorm:"not null"`
	CheckIn          time.Time `gorm:"not null;index:idx_reservations_unit,priority:3"`
	CheckOut         time.Time `gorm:"not null"`
	Guests           int       `gorm:"not null"`
	SpecialRequests  string    `gorm:"not null"`
	Nights           int       `gorm:"not null"`
	NightlyRate      int64     `gorm:"not null"`
	BasePrice        int64     `gorm:"not null"`
	DiscountPercent  int64     `gorm:"not null"`
	TaxAmount        int64     `gorm:"not null"`
	ServiceFeeAmount int64     `gorm:"not null"`
	GatewayFeeAmount int64     `gorm:"not null"`
	Subtotal         int64     `gorm:"not null"`
	TotalAmount      int64     `gorm:"not null"`
	Currency         string    `gorm:"not null"`
	PaymentStatus    string    `gorm:"not null"`
	Status           string    `gorm:"not null;index"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime:false"`
}

func (Reservation) TableName() string { return "reservations" }

// User mirrors the users table.
type User struct {
	ID        string     `gorm:"primaryKey"`
	Name      string     `gorm:"not null"`
	Email     string     `gorm:"not null;uniqueIndex"`
	Phone     *string    `gorm:""`
	Role      string     `gorm:"not null"`
	IsActive  bool       `gorm:"not null"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
	DeletedAt *time.Time `gorm:"index"`
}

func (User) TableName() string { return "users" }

// Session mirrors the sessions table.
type Session struct {
	ID        string     `gorm:"primaryKey"`
	UserID    string     `gorm:"not null;index"`
	Token     string     `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time  `gorm:"not null"`
	RevokedAt *time.Time `gorm:""`
	CreatedAt time.Time  `gorm:"not null"`
}

func (Session) TableName() string { return "sessions" }

func reservationFromEntity(r *entity.Reservation) *Reservation {
	return &Reservation{
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
		CheckIn:          r.Stay.CheckIn,
		CheckOut:         r.Stay.CheckOut,
		Guests:           r.Guests,
		SpecialRequests:  r.SpecialRequests,
		Nights:           r.Quote.Nights,
		NightlyRate:      r.Quote.NightlyRate,
		BasePrice:        r.Quote.BasePrice,
		DiscountPercent:  r.Quote.DiscountPercent,
		TaxAmount:        r.Quote.TaxAmount,
		ServiceFeeAmount: r.Quote.ServiceFeeAmount,
		GatewayFeeAmount: r.Quote.GatewayFeeAmount,
		Subtotal:         r.Quote.Subtotal,
		TotalAmount:      r.Quote.TotalAmount,
		Currency:         r.Quote.Currency,
		PaymentStatus:    string(r.PaymentStatus),
		Status:           string(r.Status),
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

func (m *Reservation) toEntity() (*entity.Reservation, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, err
	}

	r := &entity.Reservation{
		BookingReference: m.BookingReference,
		PaymentReference: m.PaymentReference,
		UserID:           userID,
		GuestName:        m.GuestName,
		GuestEmail:       m.GuestEmail,
		GuestPhone:       m.GuestPhone,
		PropertyID:       m.PropertyID,
		PropertyName:     m.PropertyName,
		UnitID:           m.UnitID,
		UnitLabel:        m.UnitLabel,
		Stay:             entity.DateRange{CheckIn: entity.Date(m.CheckIn), CheckOut: entity.Date(m.CheckOut)},
		Guests:           m.Guests,
		SpecialRequests:  m.SpecialRequests,
		Quote: entity.PriceQuote{
			Nights:           m.Nights,
			NightlyRate:      m.NightlyRate,
			BasePrice:        m.BasePrice,
			DiscountPercent:  m.DiscountPercent,
			TaxAmount:        m.TaxAmount,
			ServiceFeeAmount: m.ServiceFeeAmount,
			GatewayFeeAmount: m.GatewayFeeAmount,
			Subtotal:         m.Subtotal,
			TotalAmount:      m.TotalAmount,
			Currency:         m.Currency,
		},
		PaymentStatus: entity.PaymentStatus(m.PaymentStatus),
		Status:        entity.ReservationStatus(m.Status),
	}
	r.ID = id
	r.CreatedAt = m.CreatedAt
	r.UpdatedAt = m.UpdatedAt
	return r, nil
}
