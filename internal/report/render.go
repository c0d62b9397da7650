package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/chartscout/chartscout/internal/types"
)

// DefaultSubject names the artifact source in report headings.
const DefaultSubject = "Bitnami"

type PrintOptions struct {
	// Color enables ANSI styling. Callers turn it on only for terminals.
	Color bool
	// Subject is the artifact source named in headings; DefaultSubject if empty.
	Subject      string
	Duration     time.Duration
	ReposScanned int
	FilesScanned int
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	repoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	matchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func (o PrintOptions) subject() string {
	if o.Subject == "" {
		return DefaultSubject
	}
	return o.Subject
}

func (o PrintOptions) style(s lipgloss.Style, text string) string {
	if !o.Color {
		return text
	}
	return s.Render(text)
}

// PrintText writes the nested repository → file → match report.
func PrintText(w io.Writer, res *types.ScanResult, opts PrintOptions) {
	if res == nil {
		res = &types.ScanResult{}
	}
	fmt.Fprintln(w, opts.style(headingStyle, fmt.Sprintf("=== 🧾 %s Usage Report ===", opts.subject())))
	if res.MatchCount() == 0 {
		fmt.Fprintln(w, opts.style(okStyle, fmt.Sprintf("✅ No %s usage found in any repo.", opts.subject())))
	} else {
		for _, repo := range res.Repositories {
			fmt.Fprintln(w)
			fmt.Fprintln(w, opts.style(repoStyle, "📦 "+repo.Name))
			for _, f := range repo.Files {
				fmt.Fprintln(w, "  "+opts.style(pathStyle, "📄 "+f.Path))
				for _, m := range f.Matches {
					line := "    ➤ " + opts.style(matchStyle, m.Match)
					if m.Value != "" {
						line += " → " + opts.style(valueStyle, m.Value)
					}
					fmt.Fprintln(w, line)
				}
			}
		}
	}
	printFooter(w, res, opts)
}

// PrintTable writes one row per match.
func PrintTable(w io.Writer, res *types.ScanResult, opts PrintOptions) error {
	if res == nil {
		res = &types.ScanResult{}
	}
	recs := res.Records()
	if len(recs) == 0 {
		fmt.Fprintf(w, "No %s usage found ✅\n", opts.subject())
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Repository", "Path", "Pattern", "Match", "Extracted")
		for _, r := range recs {
			if err := table.Append(r.Repository, r.Path, r.Pattern, r.Match, r.Value); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	printFooter(w, res, opts)
	return nil
}

func printFooter(w io.Writer, res *types.ScanResult, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 && opts.ReposScanned <= 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Matches: %d in %d files across %d repositories\n", res.MatchCount(), res.FileCount(), len(res.Repositories))
	if opts.ReposScanned > 0 {
		fmt.Fprintf(w, "Repositories scanned: %d\n", opts.ReposScanned)
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
}

// WriteJSON writes res as indented JSON.
func WriteJSON(w io.Writer, res *types.ScanResult) error {
	if res == nil {
		res = &types.ScanResult{}
	}
	if res.Repositories == nil {
		cp := *res
		cp.Repositories = []types.RepositoryResult{}
		res = &cp
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
