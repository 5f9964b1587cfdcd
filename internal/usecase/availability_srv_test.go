package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRangeFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "2025-01-10", "2025-01-13", entity.ReservationStatusConfirmed)

	tests := []struct {
		name    string
		in, out string
		free    bool
	}{
		{"same nights", "2025-01-10", "2025-01-13", false},
		{"overlaps start", "2025-01-08", "2025-01-11", false},
		{"inside", "2025-01-11", "2025-01-12", false},
		{"back to back after", "2025-01-13", "2025-01-15", true},
		{"back to back before", "2025-01-07", "2025-01-10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			free, conflicts, err := f.availability.IsRangeFree(ctx, testProperty, testUnit, mustRange(t, tt.in, tt.out))
			require.NoError(t, err)
			assert.Equal(t, tt.free, free)
			if !tt.free {
				require.Len(t, conflicts, 1)
				assert.Equal(t, "2025-01-10..2025-01-13", conflicts[0].String())
			}
		})
	}

	free, _, err := f.availability.IsRangeFree(ctx, testProperty, "premium-3bedroom", mustRange(t, "2025-01-10", "2025-01-13"))
	require.NoError(t, err)
	assert.True(t, free, "other units are independent")
}

func TestIsRangeFreeIgnoresReleasedStatuses(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "2025-01-10", "2025-01-13", entity.ReservationStatusCancelled)
	f.seed(t, "2025-01-10", "2025-01-13", entity.ReservationStatusCheckedOut)

	free, conflicts, err := f.availability.IsRangeFree(context.Background(), testProperty, testUnit, mustRange(t, "2025-01-10", "2025-01-13"))

	require.NoError(t, err)
	assert.True(t, free)
	assert.Empty(t, conflicts)
}

func TestIsRangeFreeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.availability.IsRangeFree(ctx, testProperty, "nope", mustRange(t, "2025-01-10", "2025-01-13"))
	assert.ErrorIs(t, err, ErrUnknownUnit)

	f.reservations.err = errors.New("connection refused")
	_, _, err = f.availability.IsRangeFree(ctx, testProperty, testUnit, mustRange(t, "2025-01-10", "2025-01-13"))
	assert.ErrorIs(t, err, ErrStoreUnreachable)

	f.reservations.err = nil
	_, _, err = f.availability.IsRangeFree(ctx, testProperty, testUnit, entity.DateRange{
		CheckIn:  time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestListUnavailableDays(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "2025-01-10", "2025-01-12", entity.ReservationStatusPending)
	f.seed(t, "2025-01-14", "2025-01-20", entity.ReservationStatusCheckedIn)

	days, err := f.availability.ListUnavailableDays(context.Background(), testProperty, testUnit, mustRange(t, "2025-01-11", "2025-01-16"))

	require.NoError(t, err)
	var got []string
	for _, d := range days {
		got = append(got, d.Format(entity.DateLayout))
	}
	assert.Equal(t, []string{"2025-01-11", "2025-01-14", "2025-01-15"}, got)
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "2025-01-10", "2025-01-12", entity.ReservationStatusConfirmed)

	resp, err := f.availability.CheckAvailability(context.Background(), &request.AvailabilityRequest{
		PropertyID: testProperty, UnitID: testUnit, CheckIn: "2025-01-11", CheckOut: "2025-01-14",
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Available)
	assert.False(t, *resp.Available)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "2025-01-10", resp.Conflicts[0].Start)
	assert.Len(t, resp.BookedDates, 1)
	assert.Equal(t, []string{"2025-01-10", "2025-01-11"}, resp.UnavailableDays)

	resp, err = f.availability.CheckAvailability(context.Background(), &request.AvailabilityRequest{
		PropertyID: testProperty, UnitID: testUnit,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Available)
	assert.Len(t, resp.BookedDates, 1)

	_, err = f.availability.CheckAvailability(context.Background(), &request.AvailabilityRequest{
		PropertyID: testProperty, UnitID: testUnit, CheckIn: "2025-01-11",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckAvailabilityStoreFailureIsNotEmpty(t *testing.T) {
	f := newFixture(t)
	f.reservations.err = errors.New("timeout")

	resp, err := f.availability.CheckAvailability(context.Background(), &request.AvailabilityRequest{
		PropertyID: testProperty, UnitID: testUnit,
	})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrStoreUnreachable)
}
