package adaptor

import (
	"errors"
	"net/http"

	"apartment-booking/internal/dto/response"
	"apartment-booking/internal/usecase"
	"apartment-booking/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError maps usecase errors to HTTP responses. Payment failures
// are reported generically; the detail only goes to the log.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		validation  *usecase.ValidationError
		unavailable *usecase.UnavailableError
	)

	switch {
	case errors.As(err, &validation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, "Validation failed", validation.Fields)

	case errors.Is(err, usecase.ErrInvalidDateRange):
		log.Warn("Invalid dates for "+operation, zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrUnknownUnit):
		log.Warn(operation+" failed - unknown unit", zap.Error(err))
		utils.ResponseBadRequest(w, "Unknown property or apartment", nil)

	case errors.Is(err, usecase.ErrReservationNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, "Reservation not found")

	case errors.As(err, &unavailable):
		log.Info(operation+" failed - dates unavailable", zap.Error(err))
		utils.ResponseConflict(w, "Selected dates are not available",
			map[string]any{"conflicts": response.DateRangesToResponse(unavailable.Conflicts)})

	case errors.Is(err, usecase.ErrDatesUnavailable):
		log.Info(operation+" failed - dates unavailable", zap.Error(err))
		utils.ResponseConflict(w, "Selected dates are not available", nil)

	case errors.Is(err, usecase.ErrInvalidTransition):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrPaymentNotSuccessful), errors.Is(err, usecase.ErrAmountMismatch):
		log.Warn(operation+" failed - payment rejected", zap.Error(err))
		utils.ResponsePaymentRequired(w, "Payment could not be completed")

	case errors.Is(err, usecase.ErrGatewayUnreachable):
		log.Error(operation+" failed - gateway unreachable", zap.Error(err))
		utils.ResponseBadGateway(w, "Payment provider unavailable, please try again")

	case errors.Is(err, usecase.ErrStoreUnreachable):
		log.Error(operation+" failed - store unreachable", zap.Error(err))
		utils.ResponseServiceUnavailable(w, "Could not "+operation+", please try again")

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
