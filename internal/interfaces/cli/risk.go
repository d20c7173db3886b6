package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgarlens/edgarlens/internal/application/risk"
)

func newRiskCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "risk <entity>",
		Short: "Aggregate an entity's risk factors into a cited assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := opContext(cmd, cliCtx)
			defer cancel()

			assessment, err := cliCtx.Assessor.Assess(ctx, args[0])
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx, assessment, func() string {
				return formatAssessment(assessment)
			})
		},
	}
}

func formatAssessment(a risk.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — risk score %d (%s)\n", a.EntityName, a.RiskScore, a.RiskLevel)
	if len(a.Factors) == 0 {
		fmt.Fprintf(&b, "No risk factors triggered.")
		return b.String()
	}
	fmt.Fprintf(&b, "Factors:\n")
	for _, f := range a.Factors {
		fmt.Fprintf(&b, "  +%-3d %s\n", f.Weight, f.Description)
		if f.Citation != nil && f.Citation.FilingID != "" {
			fmt.Fprintf(&b, "       source: %s (%s)  confidence: %.2f\n",
				f.Citation.FilingID, f.Citation.FilingType, f.Confidence)
		}
	}
	fmt.Fprintf(&b, "Evidence steps: %d", a.EvidenceChain.Len())
	return b.String()
}
