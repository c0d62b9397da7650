package chartscout

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type patternView struct {
	Name    string `json:"name"`
	Regex   string `json:"regex"`
	Capture string `json:"capture"`
}

func newPatternsCmd(root *rootOptions) *cobra.Command {
	var preset, enable, disable, configFile string
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the active patterns in match order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lcfg, gcfg, err := loadFileConfigs(configFile)
			if err != nil {
				return err
			}
			set, err := resolvePatterns(preset, enable, disable, lcfg, gcfg)
			if err != nil {
				return err
			}
			var views []patternView
			for _, d := range set.Definitions() {
				capture := "none"
				if d.HasGroup() {
					capture = "group 1"
				}
				views = append(views, patternView{Name: d.Name, Regex: d.Pattern.String(), Capture: capture})
			}

			out := cmd.OutOrStdout()
			if root.json {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}
			if root.text {
				for _, v := range views {
					fmt.Fprintln(out, v.Name)
				}
				return nil
			}
			table := tablewriter.NewWriter(out)
			table.Header("Name", "Regex", "Extracted")
			for _, v := range views {
				if err := table.Append(v.Name, v.Regex, v.Capture); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "pattern preset: default|legacy")
	cmd.Flags().StringVar(&enable, "enable", "", "only these patterns (comma-separated names)")
	cmd.Flags().StringVar(&disable, "disable", "", "skip these patterns (comma-separated names)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file (default .chartscout.yml, then the global config)")
	return cmd
}
