package report

import (
	"encoding/json"
	"io"

	"github.com/chartscout/chartscout/internal/patterns"
	"github.com/chartscout/chartscout/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID     string            `json:"ruleId"`
	RuleIndex  int               `json:"ruleIndex"`
	Level      string            `json:"level"`
	Message    sarifMessage      `json:"message"`
	Locations  []sarifLoc        `json:"locations"`
	Properties map[string]string `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt `json:"artifactLocation"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

// SARIFOptions describes the tool run embedded in a SARIF document.
type SARIFOptions struct {
	Version string
	// Patterns, when set, provides rule descriptions in declared order.
	Patterns *patterns.Set
	// Stats is attached to the run's properties when non-empty.
	Stats map[string]int
}

// WriteSARIF writes one SARIF 2.1.0 result per match. Rules are the
// pattern names and locations are "<repository>/<path>".
func WriteSARIF(w io.Writer, res *types.ScanResult, opts SARIFOptions) error {
	var rules []sarifRule
	index := map[string]int{}
	addRule := func(id, desc string) int {
		if i, ok := index[id]; ok {
			return i
		}
		index[id] = len(rules)
		rules = append(rules, sarifRule{ID: id, ShortDescription: sarifMessage{Text: desc}})
		return index[id]
	}
	if opts.Patterns != nil {
		for _, d := range opts.Patterns.Definitions() {
			addRule(d.Name, "matches "+d.Pattern.String())
		}
	}

	run := sarifRun{Results: []sarifResult{}}
	for _, r := range res.Records() {
		idx := addRule(r.Pattern, r.Pattern+" reference")
		text := r.Pattern + " reference " + r.Match
		var props map[string]string
		if r.Value != "" {
			props = map[string]string{"extracted": r.Value}
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    r.Pattern,
			RuleIndex: idx,
			Level:     "warning",
			Message:   sarifMessage{Text: text},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{ArtifactLocation: sarifArt{URI: r.Repository + "/" + r.Path}},
			}},
			Properties: props,
		})
	}
	if rules == nil {
		rules = []sarifRule{}
	}
	run.Tool = sarifTool{Driver: sarifDriver{
		Name:           "chartscout",
		Version:        opts.Version,
		InformationURI: "https://github.com/chartscout/chartscout",
		Rules:          rules,
	}}
	if len(opts.Stats) > 0 {
		run.Properties = map[string]any{"scanStats": opts.Stats}
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
