package core

import (
	"encoding/json"
	"io"

	"github.com/chartscout/chartscout/internal/report"
)

// MarshalResult pretty-prints a scan result as JSON for humans or pipelines.
func MarshalResult(w io.Writer, res *ScanResult) error {
	return report.WriteJSON(w, res)
}

// UnmarshalResult decodes a scan result, useful for ingestion tests.
func UnmarshalResult(r io.Reader) (*ScanResult, error) {
	var res ScanResult
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
