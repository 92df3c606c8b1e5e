package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/InstallBase-Insight/internal/application/pipeline"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/domain/scoring"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// scoreFlags collects the synthetic record fields for one-off scoring.
type scoreFlags struct {
	productID     string
	productName   string
	platform      string
	quantity      int
	eolDate       string
	supportStatus string
	supportExpiry string
	renewalWindow int
}

// scoreOutput is the printable result of a one-off scoring: the derived
// lead type, value estimate, and the full scoring breakdown.
type scoreOutput struct {
	LeadType   string              `json:"lead_type"`
	ValueMin   string              `json:"value_min"`
	ValueMax   string              `json:"value_max"`
	ValueBasis string              `json:"value_basis"`
	Family     string              `json:"benchmark_family,omitempty"`
	Subscores  scoring.Subscores   `json:"subscores"`
	Overall    float64             `json:"overall"`
	Priority   string              `json:"priority"`
	Components []scoring.Component `json:"components"`
}

// newScoreCommand builds "ibi score": score a single synthetic record with
// the default model, without touching any backend.  Useful for sanity
// checking the model against a known line item.
func newScoreCommand(opts *RootOptions) *cobra.Command {
	flags := &scoreFlags{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single synthetic inventory record with the default model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := flags.record()
			if err != nil {
				return err
			}

			estimator, err := scoring.NewEstimator(nil)
			if err != nil {
				return err
			}
			scorer := scoring.NewDefaultScorer()
			now := time.Now().UTC()

			leadType := pipeline.Classify(rec, flags.renewalWindow, now)
			estimated, basis, family := estimator.Estimate(rec)

			sub := scoring.Subscores{
				Urgency:      scoring.UrgencyScore(rec, now),
				Value:        scoring.ValueScore(estimated, rec.Quantity),
				Propensity:   scoring.PropensityScore(nil, now),
				StrategicFit: scoring.StrategicFitScore(rec, leadType),
			}
			result, err := scorer.Score(sub)
			if err != nil {
				return err
			}

			out := scoreOutput{
				LeadType:   string(leadType),
				ValueMin:   estimated.Min.StringFixed(0),
				ValueMax:   estimated.Max.StringFixed(0),
				ValueBasis: basis,
				Family:     family,
				Subscores:  result.Subscores,
				Overall:    result.Overall,
				Priority:   string(result.Priority),
				Components: result.Components,
			}
			if opts.JSONOutput {
				return printResult(cmd, opts, out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %s  [%s]\n", rec.ProductID, rec.ProductName, out.LeadType)
			fmt.Fprintf(w, "  value:    %s - %s (%s%s)\n", out.ValueMin, out.ValueMax, out.ValueBasis, familySuffix(family))
			for _, c := range result.Components {
				fmt.Fprintf(w, "  %-14s %6.1f x %.2f = %6.2f\n", c.Name, c.Score, c.Weight, c.Contribution)
			}
			fmt.Fprintf(w, "  overall:  %.1f -> %s\n", result.Overall, out.Priority)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.productID, "product-id", "", "product ID of the record (required)")
	f.StringVar(&flags.productName, "product-name", "", "product name used for benchmark lookup")
	f.StringVar(&flags.platform, "platform", "", "platform the product belongs to")
	f.IntVar(&flags.quantity, "quantity", 1, "install-base quantity")
	f.StringVar(&flags.eolDate, "eol", "", "end-of-life date (YYYY-MM-DD)")
	f.StringVar(&flags.supportStatus, "support-status", "unknown", "support status (active, expired, unknown)")
	f.StringVar(&flags.supportExpiry, "support-expiry", "", "support expiry date (YYYY-MM-DD)")
	f.IntVar(&flags.renewalWindow, "renewal-window", 180, "days ahead a support expiry still counts as a renewal")
	return cmd
}

// record builds the synthetic inventory record from the flag values.
func (f *scoreFlags) record() (*inventory.InventoryRecord, error) {
	if f.productID == "" {
		return nil, errors.NewValidation("--product-id is required")
	}
	rec := &inventory.InventoryRecord{
		ID:            "cli-score",
		AccountID:     "cli-account",
		ProductID:     f.productID,
		ProductName:   f.productName,
		Platform:      f.platform,
		Quantity:      f.quantity,
		SupportStatus: inventory.NormalizeSupportStatus(f.supportStatus),
	}
	var err error
	if rec.EOLDate, err = parseDateFlag("eol", f.eolDate); err != nil {
		return nil, err
	}
	if rec.SupportExpiry, err = parseDateFlag("support-expiry", f.supportExpiry); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, errors.NewValidation(fmt.Sprintf("--%s must be YYYY-MM-DD, got %q", name, value))
	}
	return &t, nil
}

func familySuffix(family string) string {
	if family == "" {
		return ""
	}
	return ", family " + family
}
