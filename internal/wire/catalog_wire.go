package wire

import (
	"apartment-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, catalogHandler *adaptor.CatalogHandler) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/properties", catalogHandler.ListProperties)
	r.Get("/api/quote", catalogHandler.GetQuote)
	r.Get("/api/availability", catalogHandler.CheckAvailability)
}
