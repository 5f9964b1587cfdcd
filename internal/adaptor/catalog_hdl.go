package adaptor

import (
	"net/http"

	"apartment-booking/internal/dto/request"
	"apartment-booking/internal/usecase"
	"apartment-booking/pkg/utils"

	"go.uber.org/zap"
)

type CatalogHandler struct {
	pricing      usecase.PricingService
	availability usecase.AvailabilityService
	log          *zap.Logger
}

func NewCatalogHandler(pricing usecase.PricingService, availability usecase.AvailabilityService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		pricing:      pricing,
		availability: availability,
		log:          log.With(zap.String("handler", "catalog")),
	}
}

// ListProperties handles GET /api/properties (public)
func (h *CatalogHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "success", h.pricing.ListProperties(r.Context()))
}

// GetQuote handles GET /api/quote (public)
func (h *CatalogHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.QuoteRequest{StayRequest: request.StayRequest{
		PropertyID: query.Get("property_id"),
		UnitID:     query.Get("unit_id"),
		CheckIn:    query.Get("check_in"),
		CheckOut:   query.Get("check_out"),
	}}

	quote, err := h.pricing.GetQuote(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "compute quote")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}

// CheckAvailability handles GET /api/availability (public)
func (h *CatalogHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := request.AvailabilityRequest{
		PropertyID: query.Get("property_id"),
		UnitID:     query.Get("unit_id"),
		CheckIn:    query.Get("check_in"),
		CheckOut:   query.Get("check_out"),
	}

	availability, err := h.availability.CheckAvailability(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "load availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}
