// Package audit keeps an append-only JSONL history of scans.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/chartscout/chartscout/internal/types"
)

// DefaultFile is the history file name used when no path is configured.
const DefaultFile = ".chartscout_audit.jsonl"

const maxRecordBytes = 4 << 20

type ScanRecord struct {
	Timestamp      time.Time         `json:"timestamp"`
	ScanID         string            `json:"scan_id"`
	Org            string            `json:"org"`
	TotalMatches   int               `json:"total_matches"`
	NewMatches     int               `json:"new_matches"`
	BaselinedCount int               `json:"baselined_count"`
	PatternCounts  map[string]int    `json:"pattern_counts"`
	Repositories   int               `json:"repositories"`
	ReposMatched   int               `json:"repos_matched"`
	FilesScanned   int               `json:"files_scanned"`
	Duration       string            `json:"duration"`
	BaselineFile   string            `json:"baseline_file,omitempty"`
	TopArtifacts   []ArtifactSummary `json:"top_artifacts,omitempty"`
	Stats          map[string]int    `json:"stats,omitempty"`
}

// ArtifactSummary counts how often an extracted artifact name was seen.
type ArtifactSummary struct {
	Pattern string `json:"pattern"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog writes to path, or DefaultFile in the working directory when
// path is empty.
func NewAuditLog(path string) *AuditLog {
	if path == "" {
		path = DefaultFile
	}
	return &AuditLog{logPath: path}
}

func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns the recorded scans, newest first. Corrupt lines are
// skipped.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var record ScanRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().UnixNano())
	}
	if dir := filepath.Dir(a.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create audit log dir: %w", err)
		}
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	// a write cut short by an interrupted run leaves no trailing newline
	if fi, err := f.Stat(); err == nil && fi.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, fi.Size()-1); err == nil && last[0] != '\n' {
			if _, err := f.Write([]byte{'\n'}); err != nil {
				return fmt.Errorf("failed to write audit record: %w", err)
			}
		}
	}

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateScanRecord summarizes a finished scan. fresh is the part of all not
// covered by the baseline (or all itself when no baseline is used).
func CreateScanRecord(
	all *types.ScanResult,
	fresh *types.ScanResult,
	repositories int,
	filesScanned int,
	duration time.Duration,
	baselineFile string,
) ScanRecord {
	patternCounts := make(map[string]int)
	artifacts := map[[2]string]int{}
	for _, r := range all.Records() {
		patternCounts[r.Pattern]++
		if r.Value != "" {
			artifacts[[2]string{r.Pattern, r.Value}]++
		}
	}

	top := make([]ArtifactSummary, 0, len(artifacts))
	for k, n := range artifacts {
		top = append(top, ArtifactSummary{Pattern: k[0], Name: k[1], Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		if top[i].Name != top[j].Name {
			return top[i].Name < top[j].Name
		}
		return top[i].Pattern < top[j].Pattern
	})
	if len(top) > 10 {
		top = top[:10]
	}

	org := ""
	matched := 0
	if all != nil {
		org = all.Org
		matched = len(all.Repositories)
	}
	return ScanRecord{
		Timestamp:      time.Now(),
		Org:            org,
		TotalMatches:   all.MatchCount(),
		NewMatches:     fresh.MatchCount(),
		BaselinedCount: all.MatchCount() - fresh.MatchCount(),
		PatternCounts:  patternCounts,
		Repositories:   repositories,
		ReposMatched:   matched,
		FilesScanned:   filesScanned,
		Duration:       duration.String(),
		BaselineFile:   baselineFile,
		TopArtifacts:   top,
	}
}
