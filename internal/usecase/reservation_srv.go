package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/data/repository"
	"apartment-booking/internal/dto/request"
	"apartment-booking/internal/dto/response"
	"apartment-booking/internal/integrations/mailer"
	"apartment-booking/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationService interface {
	// Staff endpoints
	ConfirmReservation(ctx context.Context, id uuid.UUID) (*response.ReservationResponse, error)
	CancelReservation(ctx context.Context, id uuid.UUID, req *request.CancelReservationRequest) (*response.ReservationResponse, error)
	CheckIn(ctx context.Context, id uuid.UUID) (*response.ReservationResponse, error)
	CheckOut(ctx context.Context, id uuid.UUID) (*response.ReservationResponse, error)
	// GetReservation accepts a reservation id or a booking reference.
	GetReservation(ctx context.Context, key string) (*response.ReservationResponse, error)
	ListReservations(ctx context.Context, req *request.ReservationListRequest) (*response.PaginatedResponse[response.ReservationResponse], error)

	// Guest endpoints
	GetUserReservations(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	notifier  *Notifier
	metrics   *metrics.Metrics
	now       func() time.Time
	log       *zap.Logger
}

func NewReservationService(repo *repository.Repository, integrations Integrations, now func() time.Time, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:      repo.Reservation,
		notifier:  integrations.notifier(log),
		metrics:   integrations.Metrics,
		now:       now,
		log:       log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) ConfirmReservation(ctx context.Context, id uuid.UUID) (*response.ReservationResponse, error) {
	res, err := s.transition(ctx, id, entity.ReservationStatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.notifier.Send(ctx, res.GuestEmail, mailer.TemplateBookingConfirmed, res, "")
	return toResponse(res), nil
}

func (s *reservationService) CancelReservation(ctx context.Context, id uuid.UUID, req *request.CancelReservationRequest) (*response.ReservationResponse, error) {
	if req == nil {
		req = &request.CancelReservationRequest{}
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	res, err := s.transition(ctx, id, entity.ReservationStatusCancelled)
	if err != nil {
		return nil, err
	}
	s.notifier.Send(ctx, res.GuestEmail, mailer.TemplateBookingCancelled, res, strings.TrimSpace(req.Reason))
	return toResponse(res), nil
}

func (s *reservationService) CheckIn(ctx context.Context, id uuid.UUID) (*response.ReservationResponse, error) {
	res, err := s.transition(ctx, id, entity.ReservationStatusCheckedIn)
	if err != nil {
		return nil, err
	}
	return toResponse(res), nil
}

func (s *reservationService) CheckOut(ctx context.Context, id uuid.UUID) (*response.ReservationResponse, error) {
	res, err := s.transition(ctx, id, entity.ReservationStatusCheckedOut)
	if err != nil {
		return nil, err
	}
	return toResponse(res), nil
}

// transition applies one state machine step. The store only accepts it if the
// status is still the one the decision was based on.
func (s *reservationService) transition(ctx context.Context, id uuid.UUID, next entity.ReservationStatus) (*entity.Reservation, error) {
	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s", ErrReservationNotFound, id)
	}

	from := res.Status
	if err := res.Transition(next, s.now()); err != nil {
		s.log.Warn("Rejected status transition",
			zap.String("reservation_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(next)))
		return nil, err
	}

	err = s.repo.UpdateStatus(ctx, id, from, next, res.UpdatedAt)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrStatusChanged):
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, repository.ErrReservationNotFound):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	s.metrics.Transitions.WithLabelValues(string(from), string(next)).Inc()
	s.log.Info("Reservation status changed",
		zap.String("reservation_id", id.String()),
		zap.String("booking_reference", res.BookingReference),
		zap.String("from", string(from)),
		zap.String("to", string(next)))

	return res, nil
}

func (s *reservationService) GetReservation(ctx context.Context, key string) (*response.ReservationResponse, error) {
	key = strings.TrimSpace(key)

	var (
		res *entity.Reservation
		err error
	)
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		res, err = s.repo.FindByID(ctx, id)
	} else {
		res, err = s.repo.FindByBookingReference(ctx, strings.ToUpper(key))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s", ErrReservationNotFound, key)
	}
	return toResponse(res), nil
}

func (s *reservationService) ListReservations(ctx context.Context, req *request.ReservationListRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ReservationFilter{Status: entity.ReservationStatus(req.Status)}, req.PaginatedRequest)
}

func (s *reservationService) GetUserReservations(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.ReservationFilter{UserID: &userID}, *req)
}

func (s *reservationService) list(ctx context.Context, filter repository.ReservationFilter, page request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	reservations, err := s.repo.List(ctx, filter, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return response.NewPaginatedResponse(response.ReservationsToResponse(reservations), page.Page, page.Limit(), total), nil
}

func toResponse(res *entity.Reservation) *response.ReservationResponse {
	out := response.ReservationToResponse(res)
	return &out
}
