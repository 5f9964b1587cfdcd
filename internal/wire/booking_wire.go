package wire

import (
	"apartment-booking/internal/adaptor"
	"apartment-booking/internal/data/repository"
	"apartment-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, log))

		// POST /api/bookings - start payment for a stay
		r.Post("/api/bookings", bookingHandler.SubmitBookingIntent)

		// GET /api/user/bookings - the guest's own reservations
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})

	// ==================== PUBLIC ROUTES ====================
	// The payment reference is the credential here; the gateway is asked
	// whether it was paid.
	r.Post("/api/bookings/verify", bookingHandler.VerifyPayment)
	r.Get("/api/bookings/callback", bookingHandler.PaymentCallback)
}
