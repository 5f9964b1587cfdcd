package entity

// PriceQuote is a derived price breakdown for one stay. It is recomputed on
// demand until a reservation freezes it.
type PriceQuote struct {
	Nights           int    `db:"nights"`
	NightlyRate      int64  `db:"nightly_rate"`
	BasePrice        int64  `db:"base_price"`
	DiscountPercent  int64  `db:"discount_percent"`
	TaxAmount        int64  `db:"tax_amount"`
	ServiceFeeAmount int64  `db:"service_fee_amount"`
	GatewayFeeAmount int64  `db:"gateway_fee_amount"`
	Subtotal         int64  `db:"subtotal"`
	TotalAmount      int64  `db:"total_amount"`
	Currency         string `db:"currency"`
}
