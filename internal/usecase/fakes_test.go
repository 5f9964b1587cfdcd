package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/data/repository"
	"apartment-booking/internal/integrations/mailer"
	"apartment-booking/internal/integrations/paystack"
	"apartment-booking/pkg/lock"
	"apartment-booking/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testProperty = "pa-claudius"
	testUnit     = "deluxe-1bedroom"
)

var testNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// memReservations behaves like the SQL stores, including the overlap and
// unique reference checks inside Create.
type memReservations struct {
	mu    sync.Mutex
	items []*entity.Reservation
	err   error
	// createHook runs inside Create before the overlap check, without the mutex held.
	createHook func()
	// skipOverlap turns off the exclusion check, leaving the unit lock as
	// the only guard against double booking.
	skipOverlap bool
}

func (m *memReservations) copyOf(r *entity.Reservation) *entity.Reservation {
	c := *r
	return &c
}

func (m *memReservations) Create(_ context.Context, res *entity.Reservation) error {
	if m.createHook != nil {
		m.createHook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, r := range m.items {
		if r.PaymentReference == res.PaymentReference {
			return repository.ErrDuplicatePaymentReference
		}
		if r.BookingReference == res.BookingReference {
			return repository.ErrDuplicateBookingReference
		}
		if !m.skipOverlap && r.PropertyID == res.PropertyID && r.UnitID == res.UnitID && r.Status.Blocks() && r.Stay.Overlaps(res.Stay) {
			return fmt.Errorf("%w: %s", repository.ErrDateConflict, res.Stay)
		}
	}
	m.items = append(m.items, m.copyOf(res))
	return nil
}

func (m *memReservations) find(match func(*entity.Reservation) bool) (*entity.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.items {
		if match(r) {
			return m.copyOf(r), nil
		}
	}
	return nil, nil
}

func (m *memReservations) FindByID(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return m.find(func(r *entity.Reservation) bool { return r.ID == id })
}

func (m *memReservations) FindByPaymentReference(_ context.Context, ref string) (*entity.Reservation, error) {
	return m.find(func(r *entity.Reservation) bool { return r.PaymentReference == ref })
}

func (m *memReservations) FindByBookingReference(_ context.Context, ref string) (*entity.Reservation, error) {
	return m.find(func(r *entity.Reservation) bool { return r.BookingReference == ref })
}

func (m *memReservations) ExistsByBookingReference(ctx context.Context, ref string) (bool, error) {
	r, err := m.FindByBookingReference(ctx, ref)
	return r != nil, err
}

func (m *memReservations) FindBlocking(_ context.Context, propertyID, unitID string, window entity.DateRange) ([]*entity.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.Reservation
	for _, r := range m.items {
		if r.PropertyID == propertyID && r.UnitID == unitID && r.Status.Blocks() && r.Stay.Overlaps(window) {
			out = append(out, m.copyOf(r))
		}
	}
	return out, nil
}

func (m *memReservations) filtered(filter repository.ReservationFilter) []*entity.Reservation {
	var out []*entity.Reservation
	for _, r := range m.items {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, m.copyOf(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memReservations) List(_ context.Context, filter repository.ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	all := m.filtered(filter)
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (m *memReservations) Count(_ context.Context, filter repository.ReservationFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.filtered(filter))), nil
}

func (m *memReservations) UpdateStatus(_ context.Context, id uuid.UUID, from, to entity.ReservationStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, r := range m.items {
		if r.ID != id {
			continue
		}
		if r.Status != from {
			return fmt.Errorf("%w: %s is %s", repository.ErrStatusChanged, id, r.Status)
		}
		r.Status = to
		r.UpdatedAt = updatedAt
		return nil
	}
	return fmt.Errorf("%w: %s", repository.ErrReservationNotFound, id)
}

func (m *memReservations) all() []*entity.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Reservation, len(m.items))
	for i, r := range m.items {
		out[i] = m.copyOf(r)
	}
	return out
}

type memUsers struct {
	users map[uuid.UUID]*entity.User
	err   error
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[id], nil
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) InitializeTransaction(ctx context.Context, in paystack.InitializeRequest) (*paystack.Authorization, error) {
	args := m.Called(ctx, in)
	auth, _ := args.Get(0).(*paystack.Authorization)
	return auth, args.Error(1)
}

func (m *mockGateway) VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error) {
	args := m.Called(ctx, reference)
	tx, _ := args.Get(0).(*paystack.Transaction)
	return tx, args.Error(1)
}

type mockMessenger struct {
	mock.Mock
}

func (m *mockMessenger) SendTemplatedMessage(ctx context.Context, recipient string, kind mailer.TemplateKind, data mailer.ReservationMail) error {
	return m.Called(ctx, recipient, kind, data).Error(0)
}

func (m *mockMessenger) StaffRecipient() string {
	return "staff@example.com"
}

type fixture struct {
	repo         *repository.Repository
	reservations *memReservations
	users        *memUsers
	gateway      *mockGateway
	messenger    *mockMessenger
	notifier     *Notifier
	metrics      *metrics.Metrics
	pricing      PricingService
	availability AvailabilityService
	intake       *intakeService
	reservation  ReservationService
}

func testPolicy() PricingPolicy {
	return PricingPolicy{
		Currency:        "NGN",
		TaxRateBps:      750,
		ServiceFee:      500000,
		GatewayRateBps:  150,
		GatewayFixedFee: 10000,
		Discounts:       []DiscountTier{{7, 5}, {30, 10}},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rates, err := repository.NewRateRepository(repository.DefaultRates())
	require.NoError(t, err)

	f := &fixture{
		reservations: &memReservations{},
		users:        &memUsers{users: map[uuid.UUID]*entity.User{}},
		gateway:      &mockGateway{},
		messenger:    &mockMessenger{},
		metrics:      metrics.New(prometheus.NewRegistry()),
	}
	f.repo = &repository.Repository{Reservation: f.reservations, User: f.users, Rate: rates}

	refs, err := NewReferenceGenerator("CSH", 1)
	require.NoError(t, err)

	log := zap.NewNop()
	f.notifier = NewNotifier(f.messenger, log)

	integrations := Integrations{
		Gateway:   f.gateway,
		Messenger: f.messenger,
		Locker:    lock.NewLocalLocker(),
		Metrics:   f.metrics,
		Notifier:  f.notifier,
	}

	f.pricing = NewPricingService(rates, testPolicy(), f.metrics, log)
	f.availability = NewAvailabilityService(f.repo, fixedClock, log)
	f.intake = NewIntakeService(f.repo, f.pricing, f.availability, integrations, refs,
		IntakeConfig{CallbackURL: "https://book.example.com/api/bookings/callback"}, fixedClock, log).(*intakeService)
	f.intake.newPaymentReference = func() string { return "PAY-TEST" }
	f.reservation = NewReservationService(f.repo, integrations, fixedClock, log)

	t.Cleanup(func() {
		f.notifier.Wait()
		f.gateway.AssertExpectations(t)
		f.messenger.AssertExpectations(t)
	})
	return f
}

func mustRange(t *testing.T, in, out string) entity.DateRange {
	t.Helper()
	r, err := entity.ParseDateRange(in, out)
	require.NoError(t, err)
	return r
}

// seed stores a reservation directly, bypassing the intake flow.
func (f *fixture) seed(t *testing.T, in, out string, status entity.ReservationStatus) *entity.Reservation {
	t.Helper()
	res := &entity.Reservation{
		BookingReference: "CSHSEED" + uuid.NewString()[:8],
		PaymentReference: "PAY-" + uuid.NewString(),
		UserID:           uuid.New(),
		GuestName:        "Seed Guest",
		GuestEmail:       "seed@example.com",
		PropertyID:       testProperty,
		UnitID:           testUnit,
		Stay:             mustRange(t, in, out),
		Guests:           1,
		PaymentStatus:    entity.PaymentStatusPaid,
		Status:           status,
	}
	res.ID = uuid.New()
	res.CreatedAt = testNow
	res.UpdatedAt = testNow
	require.NoError(t, f.reservations.Create(context.Background(), res))
	return res
}
