package cmd

import (
	"encoding/json"
	"fmt"

	"apartment-booking/internal/data/repository"
	"apartment-booking/internal/dto/request"
	"apartment-booking/internal/integrations/mailer"
	"apartment-booking/internal/usecase"
	"apartment-booking/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newQuoteCommand prices a stay from the configured rate table without
// touching storage or the gateway.
func newQuoteCommand(opts *rootOptions) *cobra.Command {
	var (
		req    request.QuoteRequest
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a stay with the configured rates and fees",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(opts)
			if err != nil {
				return err
			}

			rates, err := repository.LoadRateTable(config.Pricing.RatesFile)
			if err != nil {
				return fmt.Errorf("load rates: %w", err)
			}

			policy := usecase.PolicyFromConfig(config.Pricing)
			if err := policy.Validate(); err != nil {
				return err
			}

			pricing := usecase.NewPricingService(rates, policy, metrics.New(prometheus.NewRegistry()), zap.NewNop())
			quote, err := pricing.GetQuote(cmd.Context(), &req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(quote)
			}

			fmt.Fprintf(out, "%s / %s\n", quote.PropertyID, quote.UnitID)
			fmt.Fprintf(out, "%s to %s, %d nights\n", quote.CheckIn, quote.CheckOut, quote.Nights)
			fmt.Fprintf(out, "  nightly rate   %s\n", mailer.FormatAmount(quote.NightlyRate, quote.Currency))
			fmt.Fprintf(out, "  base (-%d%%)    %s\n", quote.DiscountPercent, mailer.FormatAmount(quote.BasePrice, quote.Currency))
			fmt.Fprintf(out, "  tax            %s\n", mailer.FormatAmount(quote.TaxAmount, quote.Currency))
			fmt.Fprintf(out, "  service fee    %s\n", mailer.FormatAmount(quote.ServiceFeeAmount, quote.Currency))
			fmt.Fprintf(out, "  total          %s\n", mailer.FormatAmount(quote.TotalAmount, quote.Currency))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.PropertyID, "property", "pa-claudius", "property id")
	cmd.Flags().StringVar(&req.UnitID, "unit", "", "unit id")
	cmd.Flags().StringVar(&req.CheckIn, "check-in", "", "check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.CheckOut, "check-out", "", "check-out date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the quote as JSON")

	return cmd
}
