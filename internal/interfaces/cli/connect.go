package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgarlens/edgarlens/internal/application/connection"
)

func newConnectCmd(opts *RootOptions) *cobra.Command {
	var shared bool

	cmd := &cobra.Command{
		Use:   "connect <entity-a> <entity-b>",
		Short: "Find how two entities are connected, with citations per hop",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := opContext(cmd, cliCtx)
			defer cancel()

			if shared {
				conns, err := cliCtx.Finder.SharedConnections(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printResult(cmd, cliCtx, conns, func() string {
					return formatShared(conns)
				})
			}

			claim, err := cliCtx.Finder.Find(ctx, args[0], args[1], opts.MaxHops)
			if err != nil {
				return err
			}
			return printResult(cmd, cliCtx, claim, func() string {
				return formatClaim(claim)
			})
		},
	}

	cmd.Flags().IntVar(&opts.MaxHops, "max-hops", 0, "maximum path length (0 uses the engine default)")
	cmd.Flags().BoolVar(&shared, "shared", false, "list first-degree connections common to both entities instead")
	return cmd
}

func formatClaim(c connection.Claim) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", c.Claim)
	fmt.Fprintf(&b, "Path (%d hops): %s\n", c.PathLength, c.EvidenceChain.GraphPath)
	fmt.Fprintf(&b, "Evidence:\n")
	for _, step := range c.EvidenceChain.Steps {
		fmt.Fprintf(&b, "  %d. %s\n", step.Index, step.Fact)
		fmt.Fprintf(&b, "     source: %s (%s)  confidence: %.2f\n",
			step.FilingID, step.FilingType, step.Confidence)
	}
	fmt.Fprintf(&b, "Overall confidence: %.2f", c.EvidenceChain.OverallConfidence)
	return b.String()
}

func formatShared(conns []connection.SharedConnection) string {
	if len(conns) == 0 {
		return "No shared connections."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d shared connection(s):\n", len(conns))
	for _, sc := range conns {
		fmt.Fprintf(&b, "  - %s (%s): %s / %s\n",
			sc.Entity.DisplayName(), sc.Entity.Kind, sc.KindToA, sc.KindToB)
	}
	return strings.TrimRight(b.String(), "\n")
}
