package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
	"github.com/edgarlens/edgarlens/internal/domain/signal"
	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

// classifyResult mirrors what the API's classify endpoint returns so the
// JSON output of both surfaces lines up.
type classifyResult struct {
	Filing         entity.Filing          `json:"filing"`
	Classification signal.Classification  `json:"classification"`
	InsiderContext *signal.InsiderContext `json:"insider_context,omitempty"`
	CombinedLevel  signal.CombinedLevel   `json:"combined_level"`
}

func newClassifyCmd(opts *RootOptions) *cobra.Command {
	var (
		accession string
		formType  string
		items     []string
		company   string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a corporate-event filing into a signal level",
		Long: "Classify a filing either by accession number against the loaded fixture,\n" +
			"or ad hoc from --form and --items. When the filing's company is known its\n" +
			"insider-trading context is folded into a combined level.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := opContext(cmd, cliCtx)
			defer cancel()

			var filing entity.Filing
			switch {
			case accession != "":
				filing, err = cliCtx.Store.Filing(ctx, accession)
				if err != nil {
					return err
				}
			case len(items) > 0:
				filing = entity.Filing{
					FormType:   formType,
					FilingDate: time.Now().UTC(),
					CompanyID:  company,
				}
				for _, it := range items {
					filing.Items = append(filing.Items, entity.FilingItem{Number: strings.TrimSpace(it)})
				}
			default:
				return fmt.Errorf("either --accession or --items is required")
			}

			cls := signal.ClassifyFiling(filing)
			result := classifyResult{
				Filing:         filing,
				Classification: cls,
				CombinedLevel:  signal.Combine(cls.Level, signal.InsiderContext{}),
			}

			if filing.CompanyID != "" {
				ic, err := cliCtx.Detector.ContextForFiling(ctx, filing, opts.WindowDays)
				if err != nil {
					cliCtx.Logger.Warn("insider context unavailable, classifying without it",
						logging.String("company_id", filing.CompanyID),
						logging.Err(err))
				} else {
					result.InsiderContext = &ic
					result.CombinedLevel = signal.Combine(cls.Level, ic)
				}
			}

			return printResult(cmd, cliCtx, result, func() string {
				return formatClassification(result)
			})
		},
	}

	cmd.Flags().StringVar(&accession, "accession", "", "accession number of a filing in the fixture")
	cmd.Flags().StringVar(&formType, "form", "8-K", "form type for an ad-hoc filing")
	cmd.Flags().StringSliceVar(&items, "items", nil, "reported item numbers for an ad-hoc filing (e.g. 1.01,5.02)")
	cmd.Flags().StringVar(&company, "company", "", "company id for insider context on an ad-hoc filing")
	cmd.Flags().IntVar(&opts.WindowDays, "window-days", 0, "insider lookback window in days (0 uses the engine default)")
	return cmd
}

func formatClassification(r classifyResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s filing", r.Filing.FormType)
	if r.Filing.AccessionNumber != "" {
		fmt.Fprintf(&b, " %s", r.Filing.AccessionNumber)
	}
	fmt.Fprintf(&b, "\n")
	for _, n := range r.Classification.ItemNumbers {
		fmt.Fprintf(&b, "  Item %s: %s\n", n, entity.ItemName(n))
	}
	fmt.Fprintf(&b, "Signal level: %s (%s)\n", r.Classification.Level, r.Classification.Reason)
	if ic := r.InsiderContext; ic != nil {
		fmt.Fprintf(&b, "Insider context: %s, %d buyer(s), $%.0f total", ic.NetDirection, ic.NumBuyers, ic.TotalValue)
		if len(ic.PersonMatches) > 0 {
			fmt.Fprintf(&b, ", matches filing persons: %s", strings.Join(ic.PersonMatches, ", "))
		}
		fmt.Fprintf(&b, "\n")
	}
	fmt.Fprintf(&b, "Combined level: %s", r.CombinedLevel)
	return b.String()
}
