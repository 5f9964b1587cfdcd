package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"apartment-booking/internal/dto/request"
	"apartment-booking/internal/dto/response"
	"apartment-booking/internal/usecase"
	"apartment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationHandler serves the staff reservation endpoints.
type ReservationHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// ListReservations handles GET /api/admin/bookings (admin only)
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ReservationListRequest{
		PaginatedRequest: request.PageFromQuery(query, 20),
		Status:           query.Get("status"),
	}

	reservations, err := h.service.ListReservations(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list reservations")
		return
	}

	utils.ResponseSuccess(w, "success", reservations)
}

// GetReservation handles GET /api/admin/bookings/{id} (admin only). The id
// may also be a booking reference.
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id")
	if key == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	reservation, err := h.service.GetReservation(r.Context(), key)
	if err != nil {
		handleServiceError(w, h.log, err, "load reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// ConfirmReservation handles PUT /api/admin/bookings/{id}/confirm (admin only)
func (h *ReservationHandler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "confirm reservation", h.service.ConfirmReservation)
}

// CheckIn handles PUT /api/admin/bookings/{id}/check-in (admin only)
func (h *ReservationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "check in", h.service.CheckIn)
}

// CheckOut handles PUT /api/admin/bookings/{id}/check-out (admin only)
func (h *ReservationHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "check out", h.service.CheckOut)
}

// CancelReservation handles PUT /api/admin/bookings/{id}/cancel (admin only)
func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	var req request.CancelReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	h.transition(w, r, "cancel reservation", func(ctx context.Context, id uuid.UUID) (*response.ReservationResponse, error) {
		return h.service.CancelReservation(ctx, id, &req)
	})
}

func (h *ReservationHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	apply func(context.Context, uuid.UUID) (*response.ReservationResponse, error),
) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return
	}

	reservation, err := apply(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, operation)
		return
	}

	h.log.Info("Reservation updated by staff",
		zap.String("operation", operation),
		zap.String("reservation_id", id.String()),
		zap.String("status", string(reservation.Status)))
	utils.ResponseSuccess(w, "success", reservation)
}
