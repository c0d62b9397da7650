package chartscout

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chartscout/chartscout/internal/cache"
	"github.com/chartscout/chartscout/internal/config"
	"github.com/chartscout/chartscout/internal/engine"
	"github.com/chartscout/chartscout/internal/report"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	var org, dir string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the last saved report again without rescanning",
		Example: `  chartscout show --org my-org --table
  chartscout show --org my-org --sarif > report.sarif`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if org == "" {
				org = config.LoadEnv().Org
			}
			if org == "" {
				return errors.New("no organization given: use --org or CHARTSCOUT_ORG")
			}
			if dir == "" {
				d, err := cache.Dir()
				if err != nil {
					return err
				}
				dir = d
			}
			saved, err := cache.LoadResults(dir, org)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no saved report for %s: run 'chartscout scan --org %s' first", org, org)
				}
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Report from %s\n", saved.Timestamp.Local().Format("2006-01-02 15:04:05"))
			return render(cmd.OutOrStdout(), root, &saved.Result, engine.Stats{}, nil, report.PrintOptions{
				Color: !root.noColor && stdoutIsTerminal(),
			})
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization whose last report is shown")
	cmd.Flags().StringVar(&dir, "dir", "", "directory holding saved reports (default user cache dir)")
	return cmd
}
