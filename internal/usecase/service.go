package usecase

import (
	"fmt"
	"strings"
	"time"

	"apartment-booking/internal/data/repository"
	"apartment-booking/pkg/lock"
	"apartment-booking/pkg/metrics"
	"apartment-booking/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Integrations are the outside systems the services talk to.
type Integrations struct {
	Gateway   PaymentGateway
	Messenger Messenger
	Locker    lock.Locker
	Metrics   *metrics.Metrics
	// Notifier is built from Messenger when nil.
	Notifier  *Notifier
}

func (i Integrations) notifier(log *zap.Logger) *Notifier {
	if i.Notifier != nil {
		return i.Notifier
	}
	return NewNotifier(i.Messenger, log)
}

type Service struct {
	Pricing      PricingService
	Availability AvailabilityService
	Intake       IntakeService
	Reservation  ReservationService
	Notifier     *Notifier
}

func NewService(repo *repository.Repository, integrations Integrations, config *utils.Config, log *zap.Logger) (*Service, error) {
	policy := PolicyFromConfig(config.Pricing)
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	references, err := NewReferenceGenerator(config.Booking.ReferencePrefix, config.Booking.NodeID)
	if err != nil {
		return nil, err
	}

	if integrations.Locker == nil {
		integrations.Locker = lock.NewLocalLocker()
	}
	if integrations.Metrics == nil {
		integrations.Metrics = metrics.New(prometheus.NewRegistry())
	}
	if integrations.Gateway == nil || integrations.Messenger == nil {
		return nil, fmt.Errorf("payment gateway and messenger are required")
	}
	integrations.Notifier = integrations.notifier(log)

	now := time.Now
	pricing := NewPricingService(repo.Rate, policy, integrations.Metrics, log)
	availability := NewAvailabilityService(repo, now, log)
	intake := NewIntakeService(repo, pricing, availability, integrations, references, IntakeConfig{
		CallbackURL: strings.TrimRight(config.App.PublicURL, "/") + "/api/bookings/callback",
	}, now, log)

	return &Service{
		Pricing:      pricing,
		Availability: availability,
		Intake:       intake,
		Reservation:  NewReservationService(repo, integrations, now, log),
		Notifier:     integrations.Notifier,
	}, nil
}
