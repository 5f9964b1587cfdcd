package usecase

import (
	"context"
	"testing"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingPolicyPriceBreakdown(t *testing.T) {
	policy := testPolicy()
	policy.ServiceFee = 5000
	rate := entity.UnitRate{NightlyRate: 165000}

	q := policy.Price(rate, mustRange(t, "2025-01-10", "2025-01-13"))

	assert.Equal(t, entity.PriceQuote{
		Nights:           3,
		NightlyRate:      165000,
		BasePrice:        495000,
		DiscountPercent:  0,
		TaxAmount:        37125,
		ServiceFeeAmount: 22982,
		GatewayFeeAmount: 17982,
		Subtotal:         555107,
		TotalAmount:      555107,
		Currency:         "NGN",
	}, q)
}

func TestPricingPolicyDiscountTiers(t *testing.T) {
	policy := testPolicy()
	rate := entity.UnitRate{NightlyRate: 8000000}

	tests := []struct {
		name     string
		in, out  string
		discount int64
		base     int64
		total    int64
	}{
		{"three nights", "2025-02-01", "2025-02-04", 0, 24000000, 26697000},
		{"six nights no discount", "2025-02-01", "2025-02-07", 0, 48000000, 0},
		{"weekly", "2025-02-01", "2025-02-08", 5, 53200000, 58557850},
		{"twenty nine nights", "2025-02-01", "2025-03-02", 5, 220400000, 0},
		{"monthly", "2025-02-01", "2025-03-03", 10, 216000000, 236193000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := policy.Price(rate, mustRange(t, tt.in, tt.out))

			assert.Equal(t, tt.discount, q.DiscountPercent)
			assert.Equal(t, tt.base, q.BasePrice)
			if tt.total != 0 {
				assert.Equal(t, tt.total, q.TotalAmount)
			}
			assert.Equal(t, q.BasePrice+q.TaxAmount+q.ServiceFeeAmount, q.TotalAmount)
			assert.Equal(t, q.TotalAmount, q.Subtotal)
		})
	}
}

func TestPricingPolicyRounding(t *testing.T) {
	assert.Equal(t, int64(1), applyBps(5, 1000))
	assert.Equal(t, int64(0), applyBps(4, 1000))
	assert.Equal(t, int64(37125), applyBps(495000, 750))

	policy := testPolicy()
	q := policy.Price(entity.UnitRate{NightlyRate: 333}, mustRange(t, "2025-02-01", "2025-02-08"))
	assert.Equal(t, int64(2214), q.BasePrice)
}

func TestPricingPolicyGatewayFeeCap(t *testing.T) {
	policy := testPolicy()
	policy.GatewayFeeCap = 200000

	q := policy.Price(entity.UnitRate{NightlyRate: 8000000}, mustRange(t, "2025-02-01", "2025-02-04"))

	assert.Equal(t, int64(200000), q.GatewayFeeAmount)
	assert.Equal(t, int64(700000), q.ServiceFeeAmount)
}

func TestPricingPolicyIsDeterministic(t *testing.T) {
	policy := testPolicy()
	rate := entity.UnitRate{NightlyRate: 16500000}
	stay := mustRange(t, "2025-03-01", "2025-03-11")

	first := policy.Price(rate, stay)
	for range 10 {
		assert.Equal(t, first, policy.Price(rate, stay))
	}
}

func TestPricingPolicyValidate(t *testing.T) {
	assert.NoError(t, testPolicy().Validate())

	p := testPolicy()
	p.Currency = ""
	assert.Error(t, p.Validate())

	p = testPolicy()
	p.TaxRateBps = -1
	assert.Error(t, p.Validate())

	p = testPolicy()
	p.Discounts = []DiscountTier{{7, 100}}
	assert.Error(t, p.Validate())
}

func TestPricingServiceQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.pricing.Quote(ctx, testProperty, testUnit, mustRange(t, "2025-02-01", "2025-02-04"))
	require.NoError(t, err)
	assert.Equal(t, int64(26697000), q.TotalAmount)

	_, err = f.pricing.Quote(ctx, testProperty, "penthouse", mustRange(t, "2025-02-01", "2025-02-04"))
	assert.ErrorIs(t, err, ErrUnknownUnit)

	day := mustRange(t, "2025-02-01", "2025-02-02").CheckIn
	_, err = f.pricing.Quote(ctx, testProperty, testUnit, entity.DateRange{CheckIn: day, CheckOut: day})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	// Same calendar day at different hours is still zero nights.
	_, err = f.pricing.Quote(ctx, testProperty, testUnit, entity.DateRange{
		CheckIn:  time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	q, err = f.pricing.Quote(ctx, testProperty, testUnit, entity.DateRange{
		CheckIn:  time.Date(2025, 2, 1, 15, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 2, 4, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, int64(26697000), q.TotalAmount)
}

func TestPricingServiceGetQuote(t *testing.T) {
	f := newFixture(t)

	resp, err := f.pricing.GetQuote(context.Background(), &request.QuoteRequest{StayRequest: request.StayRequest{
		PropertyID: testProperty, UnitID: testUnit, CheckIn: "2025-02-01", CheckOut: "2025-02-04",
	}})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Nights)
	assert.Equal(t, int64(26697000), resp.TotalAmount)
	assert.Equal(t, "2025-02-04", resp.CheckOut)

	_, err = f.pricing.GetQuote(context.Background(), &request.QuoteRequest{StayRequest: request.StayRequest{
		PropertyID: testProperty, UnitID: testUnit, CheckIn: "2025-02-04", CheckOut: "2025-02-01",
	}})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = f.pricing.GetQuote(context.Background(), &request.QuoteRequest{StayRequest: request.StayRequest{
		PropertyID: testProperty, UnitID: testUnit, CheckIn: "04/02/2025", CheckOut: "2025-02-01",
	}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "CheckIn")
}

func TestPricingServiceListProperties(t *testing.T) {
	f := newFixture(t)

	props := f.pricing.ListProperties(context.Background())

	require.Len(t, props, 1)
	assert.Equal(t, testProperty, props[0].ID)
	assert.Equal(t, "Pa Claudius Apartments", props[0].Name)
	assert.Len(t, props[0].Units, 3)
}
