package chartscout

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chartscout/chartscout/internal/logging"
)

var version = "0.1.0"

// errMatchesFound makes the process exit 1 without printing an error.
var errMatchesFound = errors.New("matches found")

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	json      bool
	sarif     bool
	text      bool
	table     bool
	noColor   bool
	threads   int
	logLevel  string
	logFormat string
}

func (o *rootOptions) logger(w io.Writer) (*log.Logger, error) {
	return logging.New(w, o.logLevel, o.logFormat)
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "chartscout",
		Short:         "Find Bitnami chart and image references across a GitHub organization",
		Long:          "chartscout scans every repository of a GitHub organization through the API, without cloning, and reports where YAML files reference Bitnami charts and images.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&opts.json, "json", false, "emit JSON")
	pf.BoolVar(&opts.sarif, "sarif", false, "emit SARIF 2.1.0")
	pf.BoolVar(&opts.text, "text", false, "emit the nested text report (default)")
	pf.BoolVar(&opts.table, "table", false, "emit one table row per match")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colorized output")
	pf.IntVar(&opts.threads, "threads", 0, "repositories scanned concurrently (0 = config or 4)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format: text|json")
	root.MarkFlagsMutuallyExclusive("json", "sarif", "text", "table")

	root.AddCommand(
		newScanCmd(opts),
		newPatternsCmd(opts),
		newConfigCmd(),
		newBaselineCmd(opts),
		newHistoryCmd(opts),
		newShowCmd(opts),
		newCompletionCmd(root),
	)
	return root
}

// Execute runs the chartscout CLI. It should be called by the main package.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if errors.Is(err, errMatchesFound) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}
