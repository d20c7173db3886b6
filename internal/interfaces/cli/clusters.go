package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgarlens/edgarlens/internal/application/insider"
)

func newClustersCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clusters <company>",
		Short: "Detect insider buying clusters for a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := opContext(cmd, cliCtx)
			defer cancel()

			clusters, err := cliCtx.Detector.DetectClusters(ctx, args[0], opts.WindowDays)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx, clusters, func() string {
				return formatClusters(args[0], clusters)
			})
		},
	}

	cmd.Flags().IntVar(&opts.WindowDays, "window-days", 0, "cluster window in days (0 uses the engine default)")
	return cmd
}

func formatClusters(companyID string, clusters []insider.ClusterDetail) string {
	if len(clusters) == 0 {
		return fmt.Sprintf("No insider buying clusters for %s.", companyID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d cluster(s) for %s:\n", len(clusters), companyID)
	for i, cl := range clusters {
		fmt.Fprintf(&b, "  %d. %s to %s: %d buyer(s), $%.0f total\n",
			i+1,
			cl.WindowStart.Format("2006-01-02"), cl.WindowEnd.Format("2006-01-02"),
			cl.NumBuyers, cl.TotalValue)
		for _, buyer := range cl.Buyers {
			name := buyer.Name
			if buyer.Title != "" {
				name += " (" + buyer.Title + ")"
			}
			fmt.Fprintf(&b, "     - %s: $%.0f across %d trade(s)\n", name, buyer.TotalValue, buyer.TradeCount)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
