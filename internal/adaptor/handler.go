package adaptor

import (
	"apartment-booking/internal/usecase"
	"apartment-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Catalog     *CatalogHandler
	Booking     *BookingHandler
	Reservation *ReservationHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Catalog:     NewCatalogHandler(service.Pricing, service.Availability, log),
		Booking:     NewBookingHandler(service.Intake, service.Reservation, config.App.FrontendURL, log),
		Reservation: NewReservationHandler(service.Reservation, log),
	}
}
