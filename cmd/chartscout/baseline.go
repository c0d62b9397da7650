package chartscout

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chartscout/chartscout/internal/report"
)

func newBaselineCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	o := &scanOptions{}
	var path string
	update := &cobra.Command{
		Use:   "update",
		Short: "Scan and accept every current reference into the baseline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			plan, err := resolveScan(cmd, root, o)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, _, err := plan.execute(ctx, logger)
			if err != nil {
				// a partial baseline would silently accept less than exists
				return err
			}
			if err := report.SaveBaseline(path, res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Baseline updated: %d references in %s\n", res.MatchCount(), path)
			return nil
		},
	}
	addScanFlags(update, o)
	update.Flags().StringVar(&path, "baseline", report.DefaultBaselineFile, "baseline file to write")

	cmd.AddCommand(update)
	return cmd
}
