// Package core provides a small, stable facade over chartscout's internal
// engine for external integrations. It re-exports a narrow API surface so
// other tools can depend on a stable import path without reaching into
// internal packages.
//
// Example:
//
//	cfg := core.Config{Org: "my-org", RawFallback: true}
//	res, _, err := core.Scan(ctx, cfg, core.ClientConfig{Token: os.Getenv("GITHUB_TOKEN")})
//	if err != nil { /* handle */ }
//	_ = core.MarshalResult(os.Stdout, res)
package core
