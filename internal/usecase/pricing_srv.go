package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/data/repository"
	"apartment-booking/internal/dto/request"
	"apartment-booking/internal/dto/response"
	"apartment-booking/pkg/metrics"
	"apartment-booking/pkg/utils"

	"go.uber.org/zap"
)

const bpsDenominator = 10000

// DiscountTier applies Percent off the nightly total of stays of at least MinNights.
type DiscountTier struct {
	MinNights int
	Percent   int64
}

// PricingPolicy holds the fee schedule. Amounts are minor units, rates basis points.
type PricingPolicy struct {
	Currency        string
	TaxRateBps      int64
	ServiceFee      int64
	GatewayRateBps  int64
	GatewayFixedFee int64
	// GatewayFeeCap bounds the gateway fee; 0 leaves it uncapped.
	GatewayFeeCap int64
	Discounts     []DiscountTier
}

func PolicyFromConfig(cfg utils.PricingConfig) PricingPolicy {
	p := PricingPolicy{
		Currency:        cfg.Currency,
		TaxRateBps:      cfg.TaxRateBps,
		ServiceFee:      cfg.ServiceFee,
		GatewayRateBps:  cfg.GatewayRateBps,
		GatewayFixedFee: cfg.GatewayFixedFee,
		GatewayFeeCap:   cfg.GatewayFeeCap,
	}
	if cfg.WeeklyDiscountNights > 0 && cfg.WeeklyDiscountPercent > 0 {
		p.Discounts = append(p.Discounts, DiscountTier{cfg.WeeklyDiscountNights, cfg.WeeklyDiscountPercent})
	}
	if cfg.MonthlyDiscountNights > 0 && cfg.MonthlyDiscountPercent > 0 {
		p.Discounts = append(p.Discounts, DiscountTier{cfg.MonthlyDiscountNights, cfg.MonthlyDiscountPercent})
	}
	return p
}

func (p PricingPolicy) Validate() error {
	if p.Currency == "" {
		return errors.New("pricing: currency is required")
	}
	if p.TaxRateBps < 0 || p.GatewayRateBps < 0 || p.ServiceFee < 0 || p.GatewayFixedFee < 0 || p.GatewayFeeCap < 0 {
		return errors.New("pricing: rates and fees must not be negative")
	}
	for _, d := range p.Discounts {
		if d.MinNights < 1 || d.Percent < 0 || d.Percent >= 100 {
			return fmt.Errorf("pricing: invalid discount tier %d nights / %d%%", d.MinNights, d.Percent)
		}
	}
	return nil
}

// discountFor returns the percent of the longest tier the stay reaches.
// Tiers do not stack.
func (p PricingPolicy) discountFor(nights int) int64 {
	tiers := append([]DiscountTier(nil), p.Discounts...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinNights > tiers[j].MinNights })
	for _, t := range tiers {
		if nights >= t.MinNights {
			return t.Percent
		}
	}
	return 0
}

// applyBps rounds half up; amounts are never negative here.
func applyBps(amount, bps int64) int64 {
	return (amount*bps + bpsDenominator/2) / bpsDenominator
}

// Price is the pure quote computation. Each rounding happens exactly once.
func (p PricingPolicy) Price(rate entity.UnitRate, stay entity.DateRange) entity.PriceQuote {
	nights := stay.Nights()
	discount := p.discountFor(nights)

	base := (rate.NightlyRate*int64(nights)*(100-discount) + 50) / 100
	tax := applyBps(base, p.TaxRateBps)

	gatewayFee := applyBps(base+tax, p.GatewayRateBps) + p.GatewayFixedFee
	if p.GatewayFeeCap > 0 && gatewayFee > p.GatewayFeeCap {
		gatewayFee = p.GatewayFeeCap
	}
	serviceFee := p.ServiceFee + gatewayFee
	total := base + tax + serviceFee

	return entity.PriceQuote{
		Nights:           nights,
		NightlyRate:      rate.NightlyRate,
		BasePrice:        base,
		DiscountPercent:  discount,
		TaxAmount:        tax,
		ServiceFeeAmount: serviceFee,
		GatewayFeeAmount: gatewayFee,
		Subtotal:         total,
		TotalAmount:      total,
		Currency:         p.Currency,
	}
}

type PricingService interface {
	Quote(ctx context.Context, propertyID, unitID string, stay entity.DateRange) (entity.PriceQuote, error)
	GetQuote(ctx context.Context, req *request.QuoteRequest) (*response.QuoteResponse, error)
	ListProperties(ctx context.Context) []response.PropertyResponse
}

type pricingService struct {
	rates   repository.RateRepository
	policy  PricingPolicy
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewPricingService(rates repository.RateRepository, policy PricingPolicy, m *metrics.Metrics, log *zap.Logger) PricingService {
	return &pricingService{
		rates:   rates,
		policy:  policy,
		metrics: m,
		log:     log.With(zap.String("service", "pricing")),
	}
}

func (s *pricingService) Quote(ctx context.Context, propertyID, unitID string, stay entity.DateRange) (entity.PriceQuote, error) {
	stay, err := entity.NewDateRange(stay.CheckIn, stay.CheckOut)
	if err != nil {
		s.metrics.Quotes.WithLabelValues("invalid", "invalid_date_range").Inc()
		return entity.PriceQuote{}, err
	}

	rate, err := s.rates.LookupRate(propertyID, unitID)
	if err != nil {
		s.metrics.Quotes.WithLabelValues("unknown", "unknown_unit").Inc()
		return entity.PriceQuote{}, err
	}

	q := s.policy.Price(rate, stay)
	s.metrics.Quotes.WithLabelValues(unitID, "ok").Inc()
	return q, nil
}

func (s *pricingService) GetQuote(ctx context.Context, req *request.QuoteRequest) (*response.QuoteResponse, error) {
	if err := validate(req); err != nil {
		s.log.Warn("Quote validation failed", zap.Error(err))
		return nil, err
	}

	stay, err := entity.ParseDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	q, err := s.Quote(ctx, req.PropertyID, req.UnitID, stay)
	if err != nil {
		return nil, err
	}

	resp := response.QuoteToResponse(req.PropertyID, req.UnitID, stay, q)
	return &resp, nil
}

func (s *pricingService) ListProperties(ctx context.Context) []response.PropertyResponse {
	properties := s.rates.ListProperties()
	out := make([]response.PropertyResponse, 0, len(properties))
	for _, id := range properties {
		units := s.rates.ListUnits(id)
		prop := response.PropertyResponse{ID: id, Units: make([]response.UnitResponse, 0, len(units))}
		for _, u := range units {
			prop.Name = u.PropertyName
			prop.Units = append(prop.Units, response.UnitResponse{
				ID:           u.UnitID,
				Label:        u.Label,
				NightlyRate:  u.NightlyRate,
				BedroomCount: u.BedroomCount,
				Currency:     s.policy.Currency,
			})
		}
		out = append(out, prop)
	}
	return out
}
