package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/data/repository"
	"apartment-booking/internal/dto/request"
	"apartment-booking/internal/dto/response"

	"go.uber.org/zap"
)

// availabilityHorizon bounds the booked ranges returned to the calendar.
const availabilityHorizon = 365 * 24 * time.Hour

type AvailabilityService interface {
	// IsRangeFree reports whether no blocking reservation shares a night with
	// stay. Conflicts lists the blocking stays when it is not.
	IsRangeFree(ctx context.Context, propertyID, unitID string, stay entity.DateRange) (bool, []entity.DateRange, error)
	ListUnavailableDays(ctx context.Context, propertyID, unitID string, window entity.DateRange) ([]time.Time, error)
	BookedRanges(ctx context.Context, propertyID, unitID string, window entity.DateRange) ([]entity.DateRange, error)
	CheckAvailability(ctx context.Context, req *request.AvailabilityRequest) (*response.AvailabilityResponse, error)
}

type availabilityService struct {
	reservations repository.ReservationRepository
	rates        repository.RateRepository
	now          func() time.Time
	log          *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, now func() time.Time, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		reservations: repo.Reservation,
		rates:        repo.Rate,
		now:          now,
		log:          log.With(zap.String("service", "availability")),
	}
}

func (s *availabilityService) blocking(ctx context.Context, propertyID, unitID string, window entity.DateRange) ([]entity.DateRange, error) {
	if _, err := s.rates.LookupRate(propertyID, unitID); err != nil {
		return nil, err
	}

	reservations, err := s.reservations.FindBlocking(ctx, propertyID, unitID, window)
	if err != nil {
		s.log.Error("Failed to load blocking reservations",
			zap.Error(err),
			zap.String("unit_id", unitID),
			zap.Stringer("window", window))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	ranges := make([]entity.DateRange, 0, len(reservations))
	for _, r := range reservations {
		if r.Status.Blocks() && r.Stay.Overlaps(window) {
			ranges = append(ranges, r.Stay)
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].CheckIn.Before(ranges[j].CheckIn) })
	return ranges, nil
}

func (s *availabilityService) IsRangeFree(ctx context.Context, propertyID, unitID string, stay entity.DateRange) (bool, []entity.DateRange, error) {
	stay, err := entity.NewDateRange(stay.CheckIn, stay.CheckOut)
	if err != nil {
		return false, nil, err
	}

	conflicts, err := s.blocking(ctx, propertyID, unitID, stay)
	if err != nil {
		return false, nil, err
	}
	return len(conflicts) == 0, conflicts, nil
}

func (s *availabilityService) ListUnavailableDays(ctx context.Context, propertyID, unitID string, window entity.DateRange) ([]time.Time, error) {
	ranges, err := s.blocking(ctx, propertyID, unitID, window)
	if err != nil {
		return nil, err
	}
	return nightsWithin(ranges, window), nil
}

// nightsWithin returns the distinct nights of ranges that fall inside window, in order.
func nightsWithin(ranges []entity.DateRange, window entity.DateRange) []time.Time {
	seen := make(map[int64]bool)
	days := make([]time.Time, 0)
	for _, r := range ranges {
		shared, ok := r.Intersect(window)
		if !ok {
			continue
		}
		for _, d := range shared.Nightly() {
			if !seen[d.Unix()] {
				seen[d.Unix()] = true
				days = append(days, d)
			}
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func (s *availabilityService) BookedRanges(ctx context.Context, propertyID, unitID string, window entity.DateRange) ([]entity.DateRange, error) {
	return s.blocking(ctx, propertyID, unitID, window)
}

func (s *availabilityService) CheckAvailability(ctx context.Context, req *request.AvailabilityRequest) (*response.AvailabilityResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if (req.CheckIn == "") != (req.CheckOut == "") {
		return nil, &ValidationError{Fields: map[string]string{
			"CheckIn":  "Check-in and check-out must be given together",
			"CheckOut": "Check-in and check-out must be given together",
		}}
	}

	today := entity.Date(s.now())
	window := entity.DateRange{CheckIn: today, CheckOut: today.Add(availabilityHorizon)}

	resp := &response.AvailabilityResponse{
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
	}

	if req.CheckIn != "" {
		stay, err := entity.ParseDateRange(req.CheckIn, req.CheckOut)
		if err != nil {
			return nil, err
		}
		free, conflicts, err := s.IsRangeFree(ctx, req.PropertyID, req.UnitID, stay)
		if err != nil {
			return nil, err
		}
		resp.Available = &free
		resp.Conflicts = response.DateRangesToResponse(conflicts)

		if stay.CheckOut.After(window.CheckOut) {
			window.CheckOut = stay.CheckOut
		}
	}

	booked, err := s.BookedRanges(ctx, req.PropertyID, req.UnitID, window)
	if err != nil {
		return nil, err
	}
	resp.BookedDates = response.DateRangesToResponse(booked)

	days := nightsWithin(booked, window)
	resp.UnavailableDays = make([]string, len(days))
	for i, d := range days {
		resp.UnavailableDays[i] = d.Format(entity.DateLayout)
	}

	return resp, nil
}
