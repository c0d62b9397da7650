package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/chartscout/chartscout/internal/cache"
	"github.com/chartscout/chartscout/internal/crawl"
	"github.com/chartscout/chartscout/internal/matcher"
	"github.com/chartscout/chartscout/internal/patterns"
	"github.com/chartscout/chartscout/internal/report"
	"github.com/chartscout/chartscout/internal/types"
)

const (
	DefaultThreads     = 4
	DefaultFileWorkers = 4
	DefaultMaxBytes    = 1 << 20
)

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Org          string
	PerPage      int
	Ref          string
	Extensions   []string
	IncludeRepos []string
	ExcludeRepos []string
	IncludeGlobs []string
	ExcludeGlobs []string
	SkipArchived bool
	SkipForks    bool
	// DefaultExcludes skips vendored directories and lockfiles. Off unless
	// asked for, so every recognized blob is listed.
	DefaultExcludes bool
	MaxBytes        int64
	Threads         int
	FileWorkers     int
	RawFallback     bool
	MaxNodes        int
	NoCache         bool
	Patterns        *patterns.Set
	// Progress is called once per repository after its files are recorded.
	Progress func(Progress)
}

// Progress describes one finished repository.
type Progress struct {
	Repository string
	Done       int
	Total      int
	Files      int
	Matches    int
}

// API is the subset of the GitHub client the engine needs.
type API interface {
	crawl.RepoLister
	crawl.TreeLister
	crawl.ContentGetter
}

// Deps are the engine's collaborators.
type Deps struct {
	API    API
	Logger *log.Logger
}

// Stats summarizes what a scan touched.
type Stats struct {
	Repositories  int
	ReposSkipped  int
	FilesListed   int
	FilesFetched  int
	FetchFailures int
	EmptyFiles    int
	ParseFailures int
	RawFallbacks  int
	MemoHits      int
	Duration      time.Duration
}

// Map flattens the counters for machine-readable output.
func (s Stats) Map() map[string]int {
	return map[string]int{
		"repositories":  s.Repositories,
		"reposSkipped":  s.ReposSkipped,
		"filesListed":   s.FilesListed,
		"filesFetched":  s.FilesFetched,
		"fetchFailures": s.FetchFailures,
		"emptyFiles":    s.EmptyFiles,
		"parseFailures": s.ParseFailures,
		"rawFallbacks":  s.RawFallbacks,
		"memoHits":      s.MemoHits,
	}
}

type counters struct {
	filesListed   atomic.Int64
	filesFetched  atomic.Int64
	fetchFailures atomic.Int64
	emptyFiles    atomic.Int64
	parseFailures atomic.Int64
	rawFallbacks  atomic.Int64
	done          atomic.Int64
}

type scanner struct {
	cfg     Config
	lister  *crawl.Lister
	fetcher *crawl.Fetcher
	memo    *cache.Memo
	agg     *report.Aggregator
	logger  *log.Logger
	c       counters
	total   int
}

// ErrNoOrg is returned when Config.Org is empty.
var ErrNoOrg = errors.New("organization is required")

// Scan runs a full scan of cfg.Org. Only enumeration failures (and
// configuration errors) are returned as errors; everything else degrades to
// a partial report. When ctx is cancelled mid-scan the partial result is
// returned together with ctx's error.
func Scan(ctx context.Context, cfg Config, deps Deps) (*types.ScanResult, Stats, error) {
	started := time.Now()
	var stats Stats

	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.Org == "" {
		return nil, stats, ErrNoOrg
	}
	if deps.API == nil {
		return nil, stats, errors.New("engine: nil API")
	}
	if cfg.Patterns == nil {
		cfg.Patterns = patterns.Default()
	}
	if cfg.Threads <= 0 {
		cfg.Threads = DefaultThreads
	}
	if cfg.FileWorkers <= 0 {
		cfg.FileWorkers = DefaultFileWorkers
	}

	repoFilter, err := crawl.NewGlobFilter(cfg.IncludeRepos, cfg.ExcludeRepos)
	if err != nil {
		return nil, stats, fmt.Errorf("repository filter: %w", err)
	}
	pathGlobs, err := crawl.NewGlobFilter(cfg.IncludeGlobs, cfg.ExcludeGlobs)
	if err != nil {
		return nil, stats, fmt.Errorf("path filter: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	repos, err := crawl.NewEnumerator(deps.API, cfg.Org, cfg.PerPage, logger).ListAll(ctx)
	if err != nil {
		cancel()
		stats.Duration = time.Since(started)
		return nil, stats, err
	}

	var selected []types.Repository
	for _, r := range repos {
		switch {
		case cfg.SkipArchived && r.Archived:
			logger.Debug("skipping archived repository", "repo", r.Name)
		case cfg.SkipForks && r.Fork:
			logger.Debug("skipping forked repository", "repo", r.Name)
		case !repoFilter.Allow(r.Name):
			logger.Debug("repository filtered out", "repo", r.Name)
		default:
			selected = append(selected, r)
			continue
		}
		stats.ReposSkipped++
	}
	logger.Info("scanning organization", "org", cfg.Org, "repositories", len(selected), "skipped", stats.ReposSkipped)

	s := &scanner{
		cfg: cfg,
		lister: crawl.NewLister(deps.API, cfg.Org, crawl.ListerOptions{
			Ref:        cfg.Ref,
			Extensions: cfg.Extensions,
			Allow:      crawl.PathFilter(pathGlobs, cfg.DefaultExcludes),
			MaxBytes:   cfg.MaxBytes,
		}, logger),
		fetcher: crawl.NewFetcher(deps.API, cfg.Org, logger),
		agg:     report.NewAggregator(cfg.Org),
		logger:  logger,
		total:   len(selected),
	}
	if !cfg.NoCache {
		s.memo = cache.NewMemo()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Threads)
	for _, r := range selected {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s.scanRepository(gctx, r.Name)
			return nil
		})
	}
	_ = g.Wait()

	stats.Repositories = len(selected)
	stats.FilesListed = int(s.c.filesListed.Load())
	stats.FilesFetched = int(s.c.filesFetched.Load())
	stats.FetchFailures = int(s.c.fetchFailures.Load())
	stats.EmptyFiles = int(s.c.emptyFiles.Load())
	stats.ParseFailures = int(s.c.parseFailures.Load())
	stats.RawFallbacks = int(s.c.rawFallbacks.Load())
	hits, _ := s.memo.Stats()
	stats.MemoHits = int(hits)
	stats.Duration = time.Since(started)

	res := s.agg.Finalize()
	if err := ctx.Err(); err != nil {
		return res, stats, fmt.Errorf("scan interrupted: %w", err)
	}
	return res, stats, nil
}

func (s *scanner) scanRepository(ctx context.Context, repo string) {
	if ctx.Err() != nil {
		return
	}
	files := s.lister.List(ctx, repo)
	s.c.filesListed.Add(int64(len(files)))
	s.logger.Debug("listed files", "repo", repo, "files", len(files))

	// Indexed by lister position so the report keeps tree order.
	results := make([][]types.Match, len(files))
	fg, fctx := errgroup.WithContext(ctx)
	fg.SetLimit(s.cfg.FileWorkers)
	for i, f := range files {
		fg.Go(func() error {
			results[i] = s.scanFile(fctx, repo, f.Path)
			return nil
		})
	}
	_ = fg.Wait()

	matches := 0
	for i, f := range files {
		s.agg.Record(repo, f.Path, results[i])
		matches += len(results[i])
	}
	done := int(s.c.done.Add(1))
	if s.cfg.Progress != nil {
		s.cfg.Progress(Progress{Repository: repo, Done: done, Total: s.total, Files: len(files), Matches: matches})
	}
}

func (s *scanner) scanFile(ctx context.Context, repo, path string) []types.Match {
	if ctx.Err() != nil {
		return nil
	}
	content, ok := s.fetcher.Fetch(ctx, repo, path)
	if !ok {
		s.c.fetchFailures.Add(1)
		return nil
	}
	s.c.filesFetched.Add(1)
	if content == "" {
		s.c.emptyFiles.Add(1)
		return nil
	}

	e := s.memo.Get(content, func() cache.Entry {
		m, mode, err := matcher.Scan(content, s.cfg.Patterns, matcher.Options{
			RawFallback: s.cfg.RawFallback,
			MaxNodes:    s.cfg.MaxNodes,
		})
		e := cache.Entry{Matches: m, Mode: mode}
		if err != nil {
			e.ParseErr = err.Error()
		}
		return e
	})
	if e.ParseErr != "" {
		s.c.parseFailures.Add(1)
		s.logger.Debug("cannot parse file", "repo", repo, "path", path, "err", e.ParseErr)
	}
	if e.Mode == matcher.ModeRaw {
		s.c.rawFallbacks.Add(1)
	}
	s.logger.Debug("scanned file", "repo", repo, "path", path, "mode", e.Mode, "matches", len(e.Matches))
	return e.Matches
}
