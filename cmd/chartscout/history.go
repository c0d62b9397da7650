package chartscout

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/chartscout/chartscout/internal/audit"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var path string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past scans recorded with --audit-log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := audit.NewAuditLog(path).LoadHistory()
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			out := cmd.OutOrStdout()
			if root.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No scans recorded.")
				return nil
			}
			table := tablewriter.NewWriter(out)
			table.Header("When", "Org", "Repos", "Files", "Matches", "New", "Duration")
			for _, r := range records {
				if err := table.Append(
					r.Timestamp.Local().Format("2006-01-02 15:04"),
					r.Org,
					fmt.Sprint(r.Repositories),
					fmt.Sprint(r.FilesScanned),
					fmt.Sprint(r.TotalMatches),
					fmt.Sprint(r.NewMatches),
					r.Duration,
				); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&path, "audit-log", audit.DefaultFile, "audit log to read")
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many scans (0 = all)")
	return cmd
}
