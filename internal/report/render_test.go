package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartscout/chartscout/internal/patterns"
	"github.com/chartscout/chartscout/internal/types"
)

func sampleResult() *types.ScanResult {
	a := NewAggregator("acme")
	a.Record("api", "charts/values.yaml", []types.Match{
		{Pattern: "bitnami", Text: "bitnami/redis", Value: "redis"},
		{Pattern: "charts", Text: "https://charts.bitnami.com/bitnami"},
	})
	a.Record("web", "deploy.yml", []types.Match{{Pattern: "oci", Text: "oci://registry-1.docker.io/bitnamicharts/nginx", Value: "nginx"}})
	return a.Finalize()
}

func TestPrintText_NoMatches_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, &types.ScanResult{Org: "acme"}, PrintOptions{Duration: 1200 * time.Millisecond, FilesScanned: 10, ReposScanned: 3})
	out := buf.String()
	assert.Contains(t, out, "=== 🧾 Bitnami Usage Report ===")
	assert.Contains(t, out, "No Bitnami usage found in any repo.")
	assert.Contains(t, out, "Files scanned: 10")
	assert.Contains(t, out, "Repositories scanned: 3")
	assert.Contains(t, out, "Scan duration: 1.20s")
}

func TestPrintText_NilResult(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, nil, PrintOptions{})
	assert.Contains(t, buf.String(), "No Bitnami usage found")
}

func TestPrintText_WithMatches(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sampleResult(), PrintOptions{Subject: "Vendor"})
	out := buf.String()
	assert.Contains(t, out, "=== 🧾 Vendor Usage Report ===")
	assert.Contains(t, out, "📦 api\n  📄 charts/values.yaml\n    ➤ bitnami/redis → redis\n    ➤ https://charts.bitnami.com/bitnami\n")
	assert.Contains(t, out, "➤ oci://registry-1.docker.io/bitnamicharts/nginx → nginx")
	assert.Less(t, strings.Index(out, "📦 api"), strings.Index(out, "📦 web"))
	assert.NotContains(t, out, "\x1b[")
}

func TestPrintTable_WithMatches(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, sampleResult(), PrintOptions{}))
	out := buf.String()
	upper := strings.ToUpper(out)
	assert.Contains(t, upper, "REPOSITORY")
	assert.Contains(t, upper, "EXTRACTED")
	assert.Contains(t, out, "charts/values.yaml")
	assert.Contains(t, out, "bitnami/redis")
	assert.Contains(t, out, "nginx")
}

func TestPrintTable_NoMatches_ShowsFooter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, nil, PrintOptions{Duration: 1200 * time.Millisecond, FilesScanned: 10}))
	out := buf.String()
	assert.Contains(t, out, "No Bitnami usage found")
	assert.Contains(t, out, "Files scanned: 10")
}

func TestWriteJSON_Shape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "acme", doc["org"])
	repos := doc["repositories"].([]any)
	require.Len(t, repos, 2)
	files := repos[0].(map[string]any)["files"].([]any)
	matches := files[0].(map[string]any)["matches"].([]any)
	second := matches[1].(map[string]any)
	// extracted is always present, even when empty
	v, ok := second["extracted"]
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestWriteJSON_EmptyRepositoriesIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, &types.ScanResult{Org: "acme"}))
	assert.Contains(t, buf.String(), `"repositories": []`)
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSARIF(&buf, sampleResult(), SARIFOptions{
		Version:  "1.2.3",
		Patterns: patterns.Default(),
		Stats:    map[string]int{"filesScanned": 7},
	})
	require.NoError(t, err)

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Properties map[string]any `json:"properties"`
			Tool       struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				RuleIndex int    `json:"ruleIndex"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, "chartscout", run.Tool.Driver.Name)

	var ids []string
	for _, r := range run.Tool.Driver.Rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"bitnami", "docker", "charts", "oci"}, ids)

	require.Len(t, run.Results, 3)
	assert.Equal(t, "bitnami", run.Results[0].RuleID)
	assert.Equal(t, 0, run.Results[0].RuleIndex)
	assert.Equal(t, "oci", run.Results[2].RuleID)
	assert.Equal(t, 3, run.Results[2].RuleIndex)
	assert.Equal(t, "api/charts/values.yaml", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.NotNil(t, run.Properties["scanStats"])
}

func TestWriteSARIF_UnknownPatternAddsRule(t *testing.T) {
	var buf bytes.Buffer
	res := &types.ScanResult{Org: "acme", Repositories: []types.RepositoryResult{{
		Name:  "api",
		Files: []types.FileResult{{Path: "a.yaml", Matches: []types.MatchRecord{{Pattern: "custom", Match: "x", Path: "a.yaml"}}}},
	}}}
	require.NoError(t, WriteSARIF(&buf, res, SARIFOptions{}))
	assert.Contains(t, buf.String(), `"id": "custom"`)
}
