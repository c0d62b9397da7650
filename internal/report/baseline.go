package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/chartscout/chartscout/internal/types"
)

// DefaultBaselineFile is where accepted references are stored.
const DefaultBaselineFile = "chartscout.baseline.json"

// Baseline is the set of references already known and accepted.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads path. A missing file yields an empty baseline and an
// error satisfying errors.Is(err, fs.ErrNotExist).
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, res *types.ScanResult) error {
	b := Baseline{Items: map[string]bool{}}
	for _, r := range res.Records() {
		b.Items[key(r)] = true
	}
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// FilterNew returns a copy of res without the matches present in base.
// Files and repositories left without matches are dropped.
func FilterNew(res *types.ScanResult, base Baseline) *types.ScanResult {
	if res == nil {
		return nil
	}
	out := &types.ScanResult{Org: res.Org, Repositories: []types.RepositoryResult{}}
	for _, repo := range res.Repositories {
		var files []types.FileResult
		for _, f := range repo.Files {
			var kept []types.MatchRecord
			for _, m := range f.Matches {
				if !base.Items[key(types.RepositoryRecord{Repository: repo.Name, MatchRecord: m})] {
					kept = append(kept, m)
				}
			}
			if len(kept) > 0 {
				files = append(files, types.FileResult{Path: f.Path, Matches: kept})
			}
		}
		if len(files) > 0 {
			out.Repositories = append(out.Repositories, types.RepositoryResult{Name: repo.Name, Files: files})
		}
	}
	return out
}

func key(r types.RepositoryRecord) string {
	return r.Repository + "|" + r.Path + "|" + r.Pattern + "|" + r.Match
}

// ShouldFail reports whether res carries any match, optionally restricted
// to the named patterns.
func ShouldFail(res *types.ScanResult, onlyPatterns []string) bool {
	if len(onlyPatterns) == 0 {
		return res.MatchCount() > 0
	}
	want := make(map[string]bool, len(onlyPatterns))
	for _, p := range onlyPatterns {
		want[p] = true
	}
	for _, r := range res.Records() {
		if want[r.Pattern] {
			return true
		}
	}
	return false
}

// IsNotExist reports whether err means the baseline file does not exist.
func IsNotExist(err error) bool { return errors.Is(err, os.ErrNotExist) }
