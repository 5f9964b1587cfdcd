package repository

import (
	"apartment-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Reservation ReservationRepository
	User        UserRepository
	Session     SessionRepository
	Rate        RateRepository
}

// NewRepository builds the Postgres-backed repositories around a shared rate
// table.
func NewRepository(db database.PgxIface, rates RateRepository, log *zap.Logger) *Repository {
	return &Repository{
		Reservation: NewReservationRepository(db, log),
		User:        NewUserRepository(db, log),
		Session:     NewSessionRepository(db, log),
		Rate:        rates,
	}
}
