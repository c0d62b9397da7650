// Package engine drives an organization-wide scan: it enumerates
// repositories, lists and fetches their candidate files through bounded
// worker pools, matches each file's contents and aggregates the results.
// This package is internal; external consumers should use the stable facade
// in pkg/core.
package engine
