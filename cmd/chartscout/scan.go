package chartscout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chartscout/chartscout/internal/audit"
	"github.com/chartscout/chartscout/internal/cache"
	"github.com/chartscout/chartscout/internal/config"
	"github.com/chartscout/chartscout/internal/engine"
	"github.com/chartscout/chartscout/internal/ghclient"
	"github.com/chartscout/chartscout/internal/logging"
	"github.com/chartscout/chartscout/internal/patterns"
	"github.com/chartscout/chartscout/internal/report"
	"github.com/chartscout/chartscout/internal/types"
)

type scanOptions struct {
	org            string
	apiURL         string
	token          string
	include        string
	exclude        string
	includeRepos   string
	excludeRepos   string
	extensions     []string
	ref            string
	maxBytes       int64
	fileWorkers    int
	perPage        int
	skipArchived   bool
	skipForks      bool
	defaultExclude bool
	rawFallback    bool
	preset         string
	enable         string
	disable        string
	subject        string
	rate           float64
	burst          int
	retries        int
	requestTimeout time.Duration
	noCache        bool
	configFile     string

	baseline      string
	noBaseline    bool
	failOnMatch   bool
	failOnPattern []string
	auditLog      string
	output        string
	noSave        bool
}

func addScanFlags(cmd *cobra.Command, o *scanOptions) {
	f := cmd.Flags()
	f.StringVar(&o.org, "org", "", "GitHub organization to scan (or CHARTSCOUT_ORG)")
	f.StringVar(&o.apiURL, "api-url", "", "GitHub API base URL (or CHARTSCOUT_API_URL)")
	f.StringVar(&o.token, "token", "", "GitHub token; prefer CHARTSCOUT_TOKEN or GITHUB_TOKEN")
	f.StringVar(&o.include, "include", "", "comma-separated path include globs")
	f.StringVar(&o.exclude, "exclude", "", "comma-separated path exclude globs")
	f.StringVar(&o.includeRepos, "include-repos", "", "comma-separated repository name include globs")
	f.StringVar(&o.excludeRepos, "exclude-repos", "", "comma-separated repository name exclude globs")
	f.StringSliceVar(&o.extensions, "ext", nil, "file extensions to scan (default .yaml,.yml)")
	f.StringVar(&o.ref, "ref", "", "git ref whose tree is scanned (default HEAD)")
	f.Int64Var(&o.maxBytes, "max-bytes", 0, "skip files larger than this (default 1 MiB)")
	f.IntVar(&o.fileWorkers, "file-workers", 0, "files fetched concurrently per repository (default 4)")
	f.IntVar(&o.perPage, "per-page", 0, "repositories per listing page (default 100)")
	f.BoolVar(&o.skipArchived, "skip-archived", false, "skip archived repositories")
	f.BoolVar(&o.skipForks, "skip-forks", false, "skip forked repositories")
	f.BoolVar(&o.defaultExclude, "default-excludes", false, "also skip vendored directories, lockfiles and *.gen.* files")
	f.BoolVar(&o.rawFallback, "raw-fallback", true, "search raw text when a file does not parse")
	f.StringVar(&o.preset, "preset", "", "pattern preset: default|legacy")
	f.StringVar(&o.enable, "enable", "", "only use these patterns (comma-separated names)")
	f.StringVar(&o.disable, "disable", "", "skip these patterns (comma-separated names)")
	f.StringVar(&o.subject, "subject", "", "artifact source named in the report heading")
	f.Float64Var(&o.rate, "rate", 0, "maximum API requests per second (default 10, negative disables)")
	f.IntVar(&o.burst, "burst", 0, "request burst allowance (default 5)")
	f.IntVar(&o.retries, "retries", -1, "retries for 429 and 5xx responses (default 3)")
	f.DurationVar(&o.requestTimeout, "request-timeout", 0, "per-request timeout (default 30s)")
	f.BoolVar(&o.noCache, "no-cache", false, "match identical file contents again instead of reusing results")
	f.StringVar(&o.configFile, "config", "", "config file (default .chartscout.yml, then the global config)")
}

func newScanCmd(root *rootOptions) *cobra.Command {
	o := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan an organization's YAML files for artifact references",
		Example: `  chartscout scan --org my-org
  chartscout scan --org my-org --skip-archived --table
  chartscout scan --org my-org --json -o report.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, root, o)
		},
	}
	addScanFlags(cmd, o)
	f := cmd.Flags()
	f.StringVar(&o.baseline, "baseline", report.DefaultBaselineFile, "baseline file of accepted references")
	f.BoolVar(&o.noBaseline, "no-baseline", false, "report every reference, ignoring the baseline")
	f.BoolVar(&o.failOnMatch, "fail-on-match", false, "exit 1 when new references are found")
	f.StringSliceVar(&o.failOnPattern, "fail-on-pattern", nil, "with --fail-on-match, only these patterns fail the run")
	f.StringVar(&o.auditLog, "audit-log", "", "append a JSONL scan summary to this file")
	f.StringVarP(&o.output, "output", "o", "", "write the report to this file instead of stdout")
	f.BoolVar(&o.noSave, "no-save", false, "do not keep a copy of the report for 'chartscout show'")
	return cmd
}

// scanPlan is everything resolved from flags, files and the environment.
type scanPlan struct {
	engine  engine.Config
	client  ghclient.Config
	subject string
	noColor bool
}

func loadFileConfigs(explicit string) (local, global config.FileConfig, err error) {
	if explicit != "" {
		local, err = config.LoadFile(explicit)
		return local, global, err
	}
	if c, err := config.LoadGlobal(); err == nil {
		global = c
	} else if !errors.Is(err, config.ErrNotFound) {
		return local, global, fmt.Errorf("global config: %w", err)
	}
	wd, _ := os.Getwd()
	if c, err := config.LoadLocal(wd); err == nil {
		local = c
	} else if !errors.Is(err, config.ErrNotFound) {
		return local, global, err
	}
	return local, global, nil
}

// resolvePatterns builds the active set: preset, then file patterns, then
// enable/disable filtering.
func resolvePatterns(preset, enable, disable string, lcfg, gcfg config.FileConfig) (*patterns.Set, error) {
	name := pickString(preset, lcfg.Preset, gcfg.Preset)
	if name == "" {
		name = patterns.PresetDefault
	}
	set, err := patterns.FromPreset(name)
	if err != nil {
		return nil, err
	}
	for _, fc := range []config.FileConfig{gcfg, lcfg} {
		defs, err := fc.Definitions()
		if err != nil {
			return nil, fmt.Errorf("config patterns: %w", err)
		}
		if len(defs) == 0 {
			continue
		}
		if set, err = set.With(defs...); err != nil {
			return nil, fmt.Errorf("config patterns: %w", err)
		}
	}
	en := splitList(pickString(enable, lcfg.Enable, gcfg.Enable))
	dis := splitList(pickString(disable, lcfg.Disable, gcfg.Disable))
	return set.Filter(en, dis)
}

func resolveScan(cmd *cobra.Command, root *rootOptions, o *scanOptions) (*scanPlan, error) {
	lcfg, gcfg, err := loadFileConfigs(o.configFile)
	if err != nil {
		return nil, err
	}
	env := config.LoadEnv()
	changed := cmd.Flags().Changed

	org := o.org
	if org == "" {
		org = env.Org
	}
	org = pickString(org, lcfg.Org, gcfg.Org)
	if org == "" {
		return nil, errors.New("no organization given: use --org, CHARTSCOUT_ORG or 'org' in the config file")
	}

	set, err := resolvePatterns(o.preset, o.enable, o.disable, lcfg, gcfg)
	if err != nil {
		return nil, err
	}

	maxBytes := pickInt64(o.maxBytes, lcfg.MaxBytes, gcfg.MaxBytes)
	if maxBytes == 0 {
		maxBytes = engine.DefaultMaxBytes
	}
	ecfg := engine.Config{
		Org:             org,
		PerPage:         pickInt(o.perPage, lcfg.PerPage, gcfg.PerPage),
		Ref:             pickString(o.ref, lcfg.Ref, gcfg.Ref),
		Extensions:      pickList(o.extensions, lcfg.Extensions, gcfg.Extensions),
		IncludeRepos:    splitList(pickString(o.includeRepos, lcfg.IncludeRepos, gcfg.IncludeRepos)),
		ExcludeRepos:    splitList(pickString(o.excludeRepos, lcfg.ExcludeRepos, gcfg.ExcludeRepos)),
		IncludeGlobs:    splitList(pickString(o.include, lcfg.Include, gcfg.Include)),
		ExcludeGlobs:    splitList(pickString(o.exclude, lcfg.Exclude, gcfg.Exclude)),
		SkipArchived:    pickBool(changed("skip-archived"), o.skipArchived, lcfg.SkipArchived, gcfg.SkipArchived, false),
		SkipForks:       pickBool(changed("skip-forks"), o.skipForks, lcfg.SkipForks, gcfg.SkipForks, false),
		DefaultExcludes: pickBool(changed("default-excludes"), o.defaultExclude, lcfg.DefaultExcludes, gcfg.DefaultExcludes, false),
		RawFallback:     pickBool(changed("raw-fallback"), o.rawFallback, lcfg.RawFallback, gcfg.RawFallback, true),
		MaxBytes:        maxBytes,
		Threads:         pickInt(root.threads, lcfg.Threads, gcfg.Threads),
		FileWorkers:     pickInt(o.fileWorkers, lcfg.FileWorkers, gcfg.FileWorkers),
		NoCache:         o.noCache,
		Patterns:        set,
	}

	timeout, err := pickDuration(o.requestTimeout, lcfg.RequestTimeout, gcfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("request_timeout: %w", err)
	}
	retries := o.retries
	if retries < 0 {
		retries = pickInt(0, lcfg.MaxRetries, gcfg.MaxRetries)
		if retries == 0 && lcfg.MaxRetries == nil && gcfg.MaxRetries == nil {
			retries = ghclient.DefaultRetries
		}
	}
	token := o.token
	if token == "" {
		token = env.Token
	}
	apiURL := o.apiURL
	if apiURL == "" {
		apiURL = env.APIURL
	}
	ccfg := ghclient.Config{
		BaseURL:    pickString(apiURL, lcfg.APIURL, gcfg.APIURL),
		Token:      token,
		Timeout:    timeout,
		RPS:        pickFloat(o.rate, lcfg.RateLimit, gcfg.RateLimit),
		Burst:      pickInt(o.burst, lcfg.RateBurst, gcfg.RateBurst),
		MaxRetries: retries,
		UserAgent:  "chartscout/" + version,
	}

	return &scanPlan{
		engine:  ecfg,
		client:  ccfg,
		subject: pickString(o.subject, lcfg.Subject, gcfg.Subject),
		noColor: pickBool(changed("no-color"), root.noColor, lcfg.NoColor, gcfg.NoColor, false),
	}, nil
}

// execute runs the planned scan. On interruption the partial result is
// returned together with the error.
func (p *scanPlan) execute(ctx context.Context, logger *log.Logger) (*types.ScanResult, engine.Stats, error) {
	if p.client.Token == "" {
		logger.Warn("no GitHub token set; unauthenticated requests are heavily rate limited and see public repositories only")
	}
	api, err := ghclient.New(p.client, logging.Component(logger, "github"))
	if err != nil {
		return nil, engine.Stats{}, err
	}
	cfg := p.engine
	progress := logging.Component(logger, "engine")
	cfg.Progress = func(pr engine.Progress) {
		progress.Info("repository scanned",
			"repo", pr.Repository,
			"progress", fmt.Sprintf("%d/%d", pr.Done, pr.Total),
			"files", pr.Files,
			"matches", pr.Matches)
	}
	return engine.Scan(ctx, cfg, engine.Deps{API: api, Logger: logging.Component(logger, "crawl")})
}

func runScan(cmd *cobra.Command, root *rootOptions, o *scanOptions) error {
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

	logger.Info("starting scan", "org", plan.engine.Org, "patterns", plan.engine.Patterns.Names())
	res, stats, scanErr := plan.execute(ctx, logger)
	if res == nil {
		return scanErr
	}
	if scanErr != nil {
		logger.Warn("scan interrupted; the report below is partial", "err", scanErr)
	}

	shown := res
	if !o.noBaseline {
		base, err := report.LoadBaseline(o.baseline)
		switch {
		case err == nil:
			shown = report.FilterNew(res, base)
			if n := res.MatchCount() - shown.MatchCount(); n > 0 {
				logger.Info("baseline applied", "file", o.baseline, "accepted", n)
			}
		case report.IsNotExist(err):
		default:
			return err
		}
	}

	out := cmd.OutOrStdout()
	toTerminal := o.output == "" && stdoutIsTerminal()
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := render(out, root, shown, stats, plan.engine.Patterns, report.PrintOptions{
		Color:        toTerminal && !plan.noColor,
		Subject:      plan.subject,
		Duration:     stats.Duration,
		ReposScanned: stats.Repositories,
		FilesScanned: stats.FilesFetched,
	}); err != nil {
		return err
	}

	if !o.noSave && scanErr == nil {
		if dir, err := cache.Dir(); err == nil {
			if err := cache.SaveResults(dir, res); err != nil {
				logger.Debug("cannot save results", "err", err)
			}
		}
	}
	if o.auditLog != "" {
		baselineFile := o.baseline
		if o.noBaseline {
			baselineFile = ""
		}
		rec := audit.CreateScanRecord(res, shown, stats.Repositories, stats.FilesFetched, stats.Duration, baselineFile)
		rec.Stats = stats.Map()
		if err := audit.NewAuditLog(o.auditLog).LogScan(rec); err != nil {
			logger.Warn("cannot write audit log", "err", err)
		}
	}

	if scanErr != nil {
		return scanErr
	}
	if o.failOnMatch && report.ShouldFail(shown, o.failOnPattern) {
		return errMatchesFound
	}
	return nil
}

func render(w io.Writer, root *rootOptions, res *types.ScanResult, stats engine.Stats, set *patterns.Set, opts report.PrintOptions) error {
	switch {
	case root.sarif:
		if err := report.WriteSARIF(w, res, report.SARIFOptions{Version: version, Patterns: set, Stats: stats.Map()}); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case root.json:
		return report.WriteJSON(w, res)
	case root.table:
		return report.PrintTable(w, res, opts)
	default:
		report.PrintText(w, res, opts)
	}
	return nil
}
