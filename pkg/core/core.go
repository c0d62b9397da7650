package core

import (
	"context"

	"github.com/chartscout/chartscout/internal/engine"
	"github.com/chartscout/chartscout/internal/ghclient"
	"github.com/chartscout/chartscout/internal/logging"
	"github.com/chartscout/chartscout/internal/patterns"
	"github.com/chartscout/chartscout/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type Config = engine.Config
type Stats = engine.Stats
type ClientConfig = ghclient.Config
type ScanResult = types.ScanResult
type MatchRecord = types.MatchRecord

// Scan audits cfg.Org through the GitHub API described by client.
func Scan(ctx context.Context, cfg Config, client ClientConfig) (*ScanResult, Stats, error) {
	logger := logging.Discard()
	api, err := ghclient.New(client, logger)
	if err != nil {
		return nil, Stats{}, err
	}
	return engine.Scan(ctx, cfg, engine.Deps{API: api, Logger: logger})
}

// ScanWith runs a scan against any implementation of the GitHub endpoints,
// which is useful for tests and mirrors.
func ScanWith(ctx context.Context, cfg Config, api engine.API) (*ScanResult, Stats, error) {
	return engine.Scan(ctx, cfg, engine.Deps{API: api})
}

// PatternNames returns the names of the default pattern set in match order.
func PatternNames() []string { return patterns.Default().Names() }
