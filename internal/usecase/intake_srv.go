package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/data/repository"
	"apartment-booking/internal/dto/request"
	"apartment-booking/internal/dto/response"
	"apartment-booking/internal/integrations/mailer"
	"apartment-booking/internal/integrations/paystack"
	"apartment-booking/pkg/lock"
	"apartment-booking/pkg/metrics"
	"apartment-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway is the part of the Paystack client the intake flow needs.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, in paystack.InitializeRequest) (*paystack.Authorization, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// Messenger delivers guest and staff notifications.
type Messenger interface {
	SendTemplatedMessage(ctx context.Context, recipient string, kind mailer.TemplateKind, data mailer.ReservationMail) error
	StaffRecipient() string
}

const bookingIntentVersion = 1

// BookingIntent is the snapshot sent to the gateway as transaction metadata
// and read back when the payment is verified.
type BookingIntent struct {
	Version         int    `json:"version"`
	PropertyID      string `json:"property_id"`
	UnitID          string `json:"unit_id"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Guests          int    `json:"guests"`
	SpecialRequests string `json:"special_requests,omitempty"`
	UserID          string `json:"user_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
}

type intentMetadata struct {
	BookingIntent *BookingIntent `json:"booking_intent"`
}

var errInvalidIntent = errors.New("invalid booking intent metadata")

func decodeIntent(raw json.RawMessage) (*BookingIntent, entity.DateRange, uuid.UUID, error) {
	var meta intentMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, entity.DateRange{}, uuid.Nil, fmt.Errorf("%w: %v", errInvalidIntent, err)
	}
	intent := meta.BookingIntent
	if intent == nil {
		return nil, entity.DateRange{}, uuid.Nil, fmt.Errorf("%w: missing booking_intent", errInvalidIntent)
	}
	if intent.Version != bookingIntentVersion {
		return nil, entity.DateRange{}, uuid.Nil, fmt.Errorf("%w: unsupported version %d", errInvalidIntent, intent.Version)
	}
	if intent.PropertyID == "" || intent.UnitID == "" || intent.Email == "" || intent.Guests < 1 {
		return nil, entity.DateRange{}, uuid.Nil, fmt.Errorf("%w: incomplete", errInvalidIntent)
	}

	stay, err := entity.ParseDateRange(intent.CheckIn, intent.CheckOut)
	if err != nil {
		return nil, entity.DateRange{}, uuid.Nil, fmt.Errorf("%w: %v", errInvalidIntent, err)
	}
	userID, err := uuid.Parse(intent.UserID)
	if err != nil {
		return nil, entity.DateRange{}, uuid.Nil, fmt.Errorf("%w: user id: %v", errInvalidIntent, err)
	}
	return intent, stay, userID, nil
}

type IntakeService interface {
	// SubmitBookingIntent prices the stay server side and opens a gateway
	// checkout for it. Nothing is persisted.
	SubmitBookingIntent(ctx context.Context, userID uuid.UUID, req *request.BookingIntentRequest) (*response.BookingIntentResponse, error)
	// ConfirmPaymentCallback turns a verified payment into a pending
	// reservation. Repeated calls for one reference return the same reservation.
	ConfirmPaymentCallback(ctx context.Context, paymentReference string) (*entity.Reservation, error)
}

type IntakeConfig struct {
	CallbackURL string
}

type intakeService struct {
	repo                *repository.Repository
	pricing             PricingService
	availability        AvailabilityService
	gateway             PaymentGateway
	notifier            *Notifier
	locker              lock.Locker
	references          *ReferenceGenerator
	metrics             *metrics.Metrics
	config              IntakeConfig
	now                 func() time.Time
	newPaymentReference func() string
	log                 *zap.Logger
}

func NewIntakeService(
	repo *repository.Repository,
	pricing PricingService,
	availability AvailabilityService,
	integrations Integrations,
	references *ReferenceGenerator,
	config IntakeConfig,
	now func() time.Time,
	log *zap.Logger,
) IntakeService {
	return &intakeService{
		repo:                repo,
		pricing:             pricing,
		availability:        availability,
		gateway:             integrations.Gateway,
		notifier:            integrations.notifier(log),
		locker:              integrations.Locker,
		references:          references,
		metrics:             integrations.Metrics,
		config:              config,
		now:                 now,
		newPaymentReference: NewPaymentReference,
		log:                 log.With(zap.String("service", "intake")),
	}
}

func (s *intakeService) SubmitBookingIntent(ctx context.Context, userID uuid.UUID, req *request.BookingIntentRequest) (*response.BookingIntentResponse, error) {
	resp, err := s.submitBookingIntent(ctx, userID, req)
	s.metrics.BookingIntents.WithLabelValues(metrics.Outcome(err, outcomeLabel)).Inc()
	return resp, err
}

func (s *intakeService) submitBookingIntent(ctx context.Context, userID uuid.UUID, req *request.BookingIntentRequest) (*response.BookingIntentResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Booking intent validation failed", zap.Error(err))
		return nil, err
	}

	stay, err := entity.ParseDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if stay.CheckIn.Before(entity.Date(s.now())) {
		return nil, fmt.Errorf("%w: check-in %s is in the past", ErrInvalidDateRange, stay.CheckIn.Format(entity.DateLayout))
	}

	intent := BookingIntent{
		Version:         bookingIntentVersion,
		PropertyID:      req.PropertyID,
		UnitID:          req.UnitID,
		CheckIn:         stay.CheckIn.Format(entity.DateLayout),
		CheckOut:        stay.CheckOut.Format(entity.DateLayout),
		Guests:          req.Guests,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		UserID:          userID.String(),
		Name:            strings.TrimSpace(req.GuestName),
		Email:           strings.TrimSpace(req.GuestEmail),
		Phone:           strings.TrimSpace(req.GuestPhone),
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load profile: %v", ErrStoreUnreachable, err)
	}
	if user != nil {
		intent.Name = utils.FirstNonEmpty(intent.Name, user.Name)
		intent.Email = utils.FirstNonEmpty(intent.Email, user.Email)
		if user.Phone != nil {
			intent.Phone = utils.FirstNonEmpty(intent.Phone, *user.Phone)
		}
	}
	if intent.Email == "" {
		return nil, &ValidationError{Fields: map[string]string{"GuestEmail": "This field is required"}}
	}

	free, conflicts, err := s.availability.IsRangeFree(ctx, req.PropertyID, req.UnitID, stay)
	if err != nil {
		return nil, err
	}
	if !free {
		s.log.Info("Booking intent rejected, dates unavailable",
			zap.String("unit_id", req.UnitID),
			zap.Stringer("stay", stay))
		return nil, &UnavailableError{Conflicts: conflicts}
	}

	quote, err := s.pricing.Quote(ctx, req.PropertyID, req.UnitID, stay)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(intentMetadata{BookingIntent: &intent})
	if err != nil {
		return nil, fmt.Errorf("encode booking intent: %w", err)
	}

	reference := s.newPaymentReference()
	auth, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       intent.Email,
		Amount:      quote.TotalAmount,
		Reference:   reference,
		Currency:    quote.Currency,
		CallbackURL: s.config.CallbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		s.log.Error("Failed to initialize payment",
			zap.Error(err),
			zap.String("payment_reference", reference))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}

	s.log.Info("Booking intent submitted",
		zap.String("payment_reference", reference),
		zap.String("unit_id", req.UnitID),
		zap.Stringer("stay", stay),
		zap.Int64("total_amount", quote.TotalAmount))

	return &response.BookingIntentResponse{
		AuthorizationURL: auth.AuthorizationURL,
		PaymentReference: reference,
		Quote:            response.QuoteToResponse(req.PropertyID, req.UnitID, stay, quote),
	}, nil
}

func (s *intakeService) ConfirmPaymentCallback(ctx context.Context, paymentReference string) (*entity.Reservation, error) {
	res, err := s.confirmPaymentCallback(ctx, strings.TrimSpace(paymentReference))
	s.metrics.PaymentVerification.WithLabelValues(metrics.Outcome(err, outcomeLabel)).Inc()
	return res, err
}

func (s *intakeService) confirmPaymentCallback(ctx context.Context, reference string) (*entity.Reservation, error) {
	if reference == "" {
		return nil, &ValidationError{Fields: map[string]string{"Reference": "This field is required"}}
	}
	log := s.log.With(zap.String("payment_reference", reference))

	existing, err := s.repo.Reservation.FindByPaymentReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	if existing != nil {
		log.Info("Payment already converted, returning existing reservation",
			zap.String("booking_reference", existing.BookingReference))
		return existing, nil
	}

	tx, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		if errors.Is(err, paystack.ErrTransactionNotFound) {
			log.Warn("Payment reference unknown to gateway")
			return nil, fmt.Errorf("%w: transaction not found", ErrPaymentNotSuccessful)
		}
		log.Error("Failed to verify payment", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}
	if !tx.Successful() {
		log.Warn("Payment not successful", zap.String("gateway_status", tx.Status))
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotSuccessful, tx.Status)
	}

	intent, stay, userID, err := decodeIntent(tx.Metadata)
	if err != nil {
		log.Error("Paid transaction carries unusable booking metadata", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotSuccessful, err)
	}

	quote, err := s.pricing.Quote(ctx, intent.PropertyID, intent.UnitID, stay)
	if err != nil {
		log.Error("Failed to re-price paid booking", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotSuccessful, err)
	}
	if tx.Amount != quote.TotalAmount || !strings.EqualFold(tx.Currency, quote.Currency) {
		log.Error("Paid amount does not match quote",
			zap.Int64("paid_amount", tx.Amount),
			zap.String("paid_currency", tx.Currency),
			zap.Int64("quoted_amount", quote.TotalAmount),
			zap.String("quoted_currency", quote.Currency),
			zap.String("unit_id", intent.UnitID),
			zap.Stringer("stay", stay))
		return nil, fmt.Errorf("%w: paid %d %s, quoted %d %s",
			ErrAmountMismatch, tx.Amount, tx.Currency, quote.TotalAmount, quote.Currency)
	}

	rate, err := s.repo.Rate.LookupRate(intent.PropertyID, intent.UnitID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	res := &entity.Reservation{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PaymentReference: reference,
		UserID:           userID,
		GuestName:        intent.Name,
		GuestEmail:       intent.Email,
		GuestPhone:       intent.Phone,
		PropertyID:       rate.PropertyID,
		PropertyName:     rate.PropertyName,
		UnitID:           rate.UnitID,
		UnitLabel:        rate.Label,
		Stay:             stay,
		Guests:           intent.Guests,
		SpecialRequests:  intent.SpecialRequests,
		Quote:            quote,
		PaymentStatus:    entity.PaymentStatusPaid,
		Status:           entity.ReservationStatusPending,
	}

	created, err := s.persist(ctx, res, log)
	if err != nil {
		return nil, err
	}
	if created != res {
		return created, nil
	}

	log.Info("Reservation created",
		zap.String("booking_reference", res.BookingReference),
		zap.String("unit_id", res.UnitID),
		zap.Stringer("stay", res.Stay))

	s.notifier.Send(ctx, res.GuestEmail, mailer.TemplateBookingReceived, res, "")
	s.notifier.Send(ctx, s.notifier.StaffRecipient(), mailer.TemplateStaffNewBooking, res, "")

	return res, nil
}

// persist stores res under the unit lock. It returns the reservation already
// stored for the same payment reference when another caller got there first.
func (s *intakeService) persist(ctx context.Context, res *entity.Reservation, log *zap.Logger) (*entity.Reservation, error) {
	unlock, err := s.locker.Lock(ctx, "unit:"+res.PropertyID+":"+res.UnitID)
	if err != nil {
		log.Error("Failed to acquire unit lock", zap.Error(err), zap.String("unit_id", res.UnitID))
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	defer unlock()

	existing, err := s.repo.Reservation.FindByPaymentReference(ctx, res.PaymentReference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	if existing != nil {
		return existing, nil
	}

	free, conflicts, err := s.availability.IsRangeFree(ctx, res.PropertyID, res.UnitID, res.Stay)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, s.paidWithoutReservation(ctx, res, conflicts, log)
	}

	for attempt := 1; ; attempt++ {
		ref, err := s.issueBookingReference(ctx)
		if err != nil {
			return nil, err
		}
		res.BookingReference = ref

		err = s.repo.Reservation.Create(ctx, res)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, repository.ErrDuplicateBookingReference) && attempt < maxReferenceAttempts:
			continue
		case errors.Is(err, repository.ErrDuplicatePaymentReference):
			existing, findErr := s.repo.Reservation.FindByPaymentReference(ctx, res.PaymentReference)
			if findErr != nil || existing == nil {
				return nil, fmt.Errorf("%w: reload after duplicate payment reference: %v", ErrStoreUnreachable, findErr)
			}
			return existing, nil
		case errors.Is(err, repository.ErrDateConflict):
			return nil, s.paidWithoutReservation(ctx, res, []entity.DateRange{res.Stay}, log)
		default:
			log.Error("Failed to persist reservation", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
		}
	}
}

func (s *intakeService) issueBookingReference(ctx context.Context) (string, error) {
	for range maxReferenceAttempts {
		ref := s.references.Next()
		taken, err := s.repo.Reservation.ExistsByBookingReference(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
		}
		if !taken {
			return ref, nil
		}
	}
	return "", fmt.Errorf("%w: no free booking reference after %d attempts", ErrStoreUnreachable, maxReferenceAttempts)
}

func (s *intakeService) paidWithoutReservation(ctx context.Context, res *entity.Reservation, conflicts []entity.DateRange, log *zap.Logger) error {
	log.Error("Payment captured but dates no longer free: paid without reservation, refund required",
		zap.String("unit_id", res.UnitID),
		zap.Stringer("stay", res.Stay),
		zap.Int64("amount", res.Quote.TotalAmount),
		zap.String("guest_email", res.GuestEmail))

	res.BookingReference = ""
	s.notifier.Send(ctx, s.notifier.StaffRecipient(), mailer.TemplateStaffPaymentConflict, res,
		"The guest must be refunded or offered other dates.")

	return &UnavailableError{Conflicts: conflicts}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidDateRange):
		return "invalid"
	case errors.Is(err, ErrUnknownUnit):
		return "unknown_unit"
	case errors.Is(err, ErrDatesUnavailable):
		return "dates_unavailable"
	case errors.Is(err, ErrPaymentNotSuccessful):
		return "payment_not_successful"
	case errors.Is(err, ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, ErrGatewayUnreachable):
		return "gateway_unreachable"
	case errors.Is(err, ErrStoreUnreachable):
		return "store_unreachable"
	}
	return ""
}
