// Command negosim replays scripted negotiations through the pricing engine offline.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Ananth-NQI/carnego-backend/internal/config"
	"github.com/Ananth-NQI/carnego-backend/internal/negotiation"
)

// errScenariosFailed makes the process exit non-zero without printing usage
var errScenariosFailed = errors.New("one or more scenarios failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "negosim",
		Short:        "Replay negotiation scenarios through the pricing engine",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newPolicyCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		policyFile string
		parallel   int
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Replay scenarios and check their expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := config.LoadPolicy(policyFile)
			if err != nil {
				return err
			}

			reports := make([]*Report, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(parallel)
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					sc, err := LoadScenario(path)
					if err != nil {
						return err
					}
					reports[i], err = Replay(sc, policy)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := false
			for _, r := range reports {
				printReport(cmd.OutOrStdout(), r, verbose)
				failed = failed || r.Failed()
			}
			if failed {
				return errScenariosFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&policyFile, "policy", "p", "", "pricing policy YAML (defaults when empty)")
	cmd.Flags().IntVarP(&parallel, "parallel", "j", 4, "scenarios replayed at once")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every turn, not only failures")
	return cmd
}

func newPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the default pricing policy as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(negotiation.DefaultPolicy()); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func printReport(w io.Writer, r *Report, verbose bool) {
	status := "PASS"
	if r.Failed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s (%d turns)\n", status, r.Scenario, len(r.Turns))

	for _, t := range r.Turns {
		if !verbose && len(t.Failures) == 0 {
			continue
		}
		price := "-"
		if t.Price != nil {
			price = fmt.Sprintf("%.0f (%.2f/month)", *t.Price, t.Monthly)
		}
		fmt.Fprintf(w, "  #%d %-15s %-12s %-24s %s win-win=%.1f\n", t.Index, t.Intent, t.Phase, t.Reason, price, t.WinWin)
		for _, f := range t.Failures {
			fmt.Fprintf(w, "      ! %s\n", f)
		}
	}
}
