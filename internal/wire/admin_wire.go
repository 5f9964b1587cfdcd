package wire

import (
	"apartment-booking/internal/adaptor"
	"apartment-booking/internal/data/repository"
	"apartment-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))
		r.Use(middleware.Admin(repo.User, log))

		r.Get("/", reservationHandler.ListReservations)
		r.Get("/{id}", reservationHandler.GetReservation)

		r.Put("/{id}/confirm", reservationHandler.ConfirmReservation)
		r.Put("/{id}/cancel", reservationHandler.CancelReservation)
		r.Put("/{id}/check-in", reservationHandler.CheckIn)
		r.Put("/{id}/check-out", reservationHandler.CheckOut)
	})
}
