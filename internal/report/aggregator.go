// Package report accumulates scan matches into the organization → repository
// → file → match structure and renders it as text, a table, JSON or SARIF.
package report

import (
	"sync"

	"github.com/chartscout/chartscout/internal/types"
)

// Aggregator collects per-file matches from concurrent workers. Repositories
// keep the order in which they first recorded a match; files keep the order
// in which they were recorded.
type Aggregator struct {
	mu    sync.Mutex
	org   string
	order []string
	repos map[string]*types.RepositoryResult
}

func NewAggregator(org string) *Aggregator {
	return &Aggregator{org: org, repos: make(map[string]*types.RepositoryResult)}
}

// Record appends the matches found in path. Nothing is recorded when
// matches is empty. Duplicates are kept.
func (a *Aggregator) Record(repo, path string, matches []types.Match) {
	if len(matches) == 0 {
		return
	}
	recs := make([]types.MatchRecord, len(matches))
	for i, m := range matches {
		recs[i] = types.MatchRecord{Pattern: m.Pattern, Match: m.Text, Value: m.Value, Path: path}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.repos[repo]
	if !ok {
		r = &types.RepositoryResult{Name: repo}
		a.repos[repo] = r
		a.order = append(a.order, repo)
	}
	r.Files = append(r.Files, types.FileResult{Path: path, Matches: recs})
}

// Finalize returns a snapshot of everything recorded so far. Later calls to
// Record do not affect a returned snapshot.
func (a *Aggregator) Finalize() *types.ScanResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := &types.ScanResult{Org: a.org, Repositories: make([]types.RepositoryResult, 0, len(a.order))}
	for _, name := range a.order {
		src := a.repos[name]
		files := make([]types.FileResult, len(src.Files))
		for i, f := range src.Files {
			files[i] = types.FileResult{Path: f.Path, Matches: append([]types.MatchRecord(nil), f.Matches...)}
		}
		out.Repositories = append(out.Repositories, types.RepositoryResult{Name: name, Files: files})
	}
	return out
}
