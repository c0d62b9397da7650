package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chartscout/chartscout/internal/types"
)

// ScanResults stores the last report for an organization so it can be
// rendered again without rescanning.
type ScanResults struct {
	Result    types.ScanResult `json:"result"`
	Timestamp time.Time        `json:"timestamp"`
	Count     int              `json:"count"`
}

// Dir returns the directory holding saved reports.
func Dir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		d, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		base = d
	}
	return filepath.Join(base, "chartscout"), nil
}

func resultsPath(dir, org string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(strings.ToLower(org))
	return filepath.Join(dir, safe+".last.json")
}

// SaveResults writes res under dir, replacing any previous report for the
// same organization.
func SaveResults(dir string, res *types.ScanResult) error {
	if res == nil {
		return fmt.Errorf("save results: nil result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(ScanResults{
		Result:    *res,
		Timestamp: time.Now().UTC(),
		Count:     res.MatchCount(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resultsPath(dir, res.Org), b, 0o644)
}

// LoadResults reads the last report saved for org.
func LoadResults(dir, org string) (ScanResults, error) {
	var results ScanResults
	f, err := os.ReadFile(resultsPath(dir, org))
	if err != nil {
		return results, err
	}
	if err := json.Unmarshal(f, &results); err != nil {
		return results, fmt.Errorf("parse saved results: %w", err)
	}
	return results, nil
}
