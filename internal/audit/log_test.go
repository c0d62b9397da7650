package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartscout/chartscout/internal/types"
)

func result(org string, recs map[string][]types.MatchRecord) *types.ScanResult {
	res := &types.ScanResult{Org: org}
	for _, name := range []string{"api", "web"} {
		if m, ok := recs[name]; ok {
			res.Repositories = append(res.Repositories, types.RepositoryResult{
				Name:  name,
				Files: []types.FileResult{{Path: "values.yaml", Matches: m}},
			})
		}
	}
	return res
}

func TestCreateScanRecord(t *testing.T) {
	all := result("acme", map[string][]types.MatchRecord{
		"api": {
			{Pattern: "bitnami", Match: "bitnami/redis", Value: "redis"},
			{Pattern: "charts", Match: "https://charts.bitnami.com/bitnami"},
		},
		"web": {{Pattern: "bitnami", Match: "bitnami/redis", Value: "redis"}},
	})
	fresh := result("acme", map[string][]types.MatchRecord{
		"web": {{Pattern: "bitnami", Match: "bitnami/redis", Value: "redis"}},
	})

	rec := CreateScanRecord(all, fresh, 5, 40, 1500*time.Millisecond, "chartscout.baseline.json")
	assert.Equal(t, "acme", rec.Org)
	assert.Equal(t, 3, rec.TotalMatches)
	assert.Equal(t, 1, rec.NewMatches)
	assert.Equal(t, 2, rec.BaselinedCount)
	assert.Equal(t, map[string]int{"bitnami": 2, "charts": 1}, rec.PatternCounts)
	assert.Equal(t, 2, rec.ReposMatched)
	assert.Equal(t, "1.5s", rec.Duration)
	require.Len(t, rec.TopArtifacts, 1)
	assert.Equal(t, ArtifactSummary{Pattern: "bitnami", Name: "redis", Count: 2}, rec.TopArtifacts[0])
}

func TestLogScanAndLoadHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.jsonl")
	a := NewAuditLog(path)

	require.NoError(t, a.LogScan(ScanRecord{Org: "first"}))
	require.NoError(t, a.LogScan(ScanRecord{Org: "second"}))

	hist, err := a.LoadHistory()
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "second", hist[0].Org)
	assert.Equal(t, "first", hist[1].Org)
	assert.NotEmpty(t, hist[0].ScanID)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
}

func TestLoadHistory_Missing(t *testing.T) {
	_, err := NewAuditLog(filepath.Join(t.TempDir(), "none.jsonl")).LoadHistory()
	assert.Error(t, err)
}

func TestNewAuditLog_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultFile, NewAuditLog("").Path())
}

func appendRaw(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(s)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func scanIDs(recs []ScanRecord) []string {
	var ids []string
	for _, r := range recs {
		ids = append(ids, r.ScanID)
	}
	return ids
}

func TestLoadHistory_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a := NewAuditLog(path)

	require.NoError(t, a.LogScan(ScanRecord{ScanID: "one"}))
	appendRaw(t, path, "not json at all\n\n")
	require.NoError(t, a.LogScan(ScanRecord{ScanID: "two"}))
	require.NoError(t, a.LogScan(ScanRecord{ScanID: "three"}))

	hist, err := a.LoadHistory()
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "two", "one"}, scanIDs(hist))
}

func TestLogScan_AfterTruncatedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a := NewAuditLog(path)

	require.NoError(t, a.LogScan(ScanRecord{ScanID: "one"}))
	appendRaw(t, path, `{"scan_id": "trunc`)
	require.NoError(t, a.LogScan(ScanRecord{ScanID: "two"}))
	require.NoError(t, a.LogScan(ScanRecord{ScanID: "three"}))

	hist, err := a.LoadHistory()
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "two", "one"}, scanIDs(hist))
}
