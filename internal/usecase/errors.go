package usecase

import (
	"errors"
	"fmt"
	"strings"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/data/repository"
	"apartment-booking/pkg/utils"
)

var (
	ErrInvalidDateRange          = entity.ErrInvalidDateRange
	ErrUnknownUnit               = repository.ErrUnknownUnit
	ErrInvalidTransition         = entity.ErrInvalidTransition
	ErrDuplicatePaymentReference = repository.ErrDuplicatePaymentReference
	ErrReservationNotFound       = repository.ErrReservationNotFound

	ErrDatesUnavailable     = errors.New("dates unavailable")
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	ErrAmountMismatch       = errors.New("paid amount does not match quote")
	ErrGatewayUnreachable   = errors.New("payment gateway unreachable")
	ErrStoreUnreachable     = errors.New("reservation store unreachable")
	ErrValidation           = errors.New("validation failed")
)

// UnavailableError lists the existing stays that block a requested range.
type UnavailableError struct {
	Conflicts []entity.DateRange
}

func (e *UnavailableError) Error() string {
	ranges := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		ranges[i] = c.String()
	}
	return fmt.Sprintf("%s: %s", ErrDatesUnavailable, strings.Join(ranges, ", "))
}

func (e *UnavailableError) Unwrap() error {
	return ErrDatesUnavailable
}

// ValidationError carries per-field messages from utils.ValidateStruct.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, utils.FormatValidationErrors(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
