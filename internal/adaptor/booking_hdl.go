package adaptor

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"apartment-booking/internal/dto/request"
	"apartment-booking/internal/dto/response"
	"apartment-booking/internal/usecase"
	"apartment-booking/pkg/utils"

	"go.uber.org/zap"
)

type BookingHandler struct {
	intake       usecase.IntakeService
	reservations usecase.ReservationService
	frontendURL  string
	log          *zap.Logger
}

func NewBookingHandler(intake usecase.IntakeService, reservations usecase.ReservationService, frontendURL string, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		intake:       intake,
		reservations: reservations,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		log:          log.With(zap.String("handler", "booking")),
	}
}

// SubmitBookingIntent handles POST /api/bookings (protected)
func (h *BookingHandler) SubmitBookingIntent(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.BookingIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	intent, err := h.intake.SubmitBookingIntent(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "start payment")
		return
	}

	utils.ResponseCreated(w, "success", intent)
}

// VerifyPayment handles POST /api/bookings/verify (public)
func (h *BookingHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	reservation, err := h.intake.ConfirmPaymentCallback(r.Context(), req.Reference)
	if err != nil {
		handleServiceError(w, h.log, err, "confirm booking")
		return
	}

	utils.ResponseSuccess(w, "success", response.ReservationToResponse(reservation))
}

// PaymentCallback handles GET /api/bookings/callback, where the gateway sends
// the guest's browser after checkout. With a frontend configured the guest is
// redirected to its confirmation page.
func (h *BookingHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	reference := utils.FirstNonEmpty(query.Get("reference"), query.Get("trxref"))
	if reference == "" {
		utils.ResponseBadRequest(w, "Payment reference is required", nil)
		return
	}

	reservation, err := h.intake.ConfirmPaymentCallback(r.Context(), reference)

	if h.frontendURL == "" {
		if err != nil {
			handleServiceError(w, h.log, err, "confirm booking")
			return
		}
		utils.ResponseSuccess(w, "success", response.ReservationToResponse(reservation))
		return
	}

	params := url.Values{"reference": {reference}}
	if err != nil {
		h.log.Warn("Payment callback did not produce a reservation",
			zap.Error(err),
			zap.String("payment_reference", reference))
		params.Set("status", "failed")
	} else {
		params.Set("status", "success")
		params.Set("booking_reference", reservation.BookingReference)
	}
	http.Redirect(w, r, h.frontendURL+"/booking/payment/callback?"+params.Encode(), http.StatusSeeOther)
}

// GetUserBookings handles GET /api/user/bookings (protected)
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	page := request.PageFromQuery(r.URL.Query(), request.DefaultPerPage)

	bookings, err := h.reservations.GetUserReservations(r.Context(), userID, &page)
	if err != nil {
		handleServiceError(w, h.log, err, "load bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}
