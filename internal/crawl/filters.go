package crawl

import (
	"fmt"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"third_party":  true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"coverage":     true,
}

// lockfiles and generated manifests that only ever repeat what the real
// configuration already says
var defaultExcludeFileNames = map[string]bool{
	"pnpm-lock.yaml":    true,
	"yarn.lock":         true,
	"package-lock.json": true,
	"chart.lock":        true,
	"requirements.lock": true,
}

func isDefaultExcluded(p string) bool {
	lower := strings.ToLower(p)
	parts := strings.Split(lower, "/")
	for _, dir := range parts[:len(parts)-1] {
		if defaultExcludeDirs[dir] {
			return true
		}
	}
	base := parts[len(parts)-1]
	if defaultExcludeFileNames[base] {
		return true
	}
	// generic generated artifacts pattern
	return strings.Contains(base, ".gen.")
}

// GlobFilter accepts names that match at least one include glob (when any
// are set) and no exclude glob. Globs use doublestar syntax and are also
// tried against the base name, so "*.yaml" matches at any depth.
type GlobFilter struct {
	include []string
	exclude []string
}

// NewGlobFilter builds a filter from include and exclude globs. Entries may
// themselves be comma-separated lists. Invalid globs are reported.
func NewGlobFilter(include, exclude []string) (*GlobFilter, error) {
	inc, err := expandGlobs(include)
	if err != nil {
		return nil, err
	}
	exc, err := expandGlobs(exclude)
	if err != nil {
		return nil, err
	}
	return &GlobFilter{include: inc, exclude: exc}, nil
}

// Allow reports whether name passes the filter. A nil filter allows everything.
func (f *GlobFilter) Allow(name string) bool {
	if f == nil {
		return true
	}
	n := strings.ReplaceAll(name, "\\", "/")
	if len(f.include) > 0 && !matchAnyGlob(n, f.include) {
		return false
	}
	if len(f.exclude) > 0 && matchAnyGlob(n, f.exclude) {
		return false
	}
	return true
}

// PathFilter combines a GlobFilter with the built-in excludes.
func PathFilter(globs *GlobFilter, defaultExcludes bool) func(string) bool {
	return func(p string) bool {
		if defaultExcludes && isDefaultExcluded(p) {
			return false
		}
		return globs.Allow(p)
	}
}

func expandGlobs(list []string) ([]string, error) {
	var out []string
	for _, item := range list {
		for _, g := range strings.Split(item, ",") {
			g = strings.TrimSpace(g)
			if g == "" {
				continue
			}
			if !doublestar.ValidatePattern(g) {
				return nil, &InvalidGlobError{Glob: g}
			}
			out = append(out, g)
			if t := trimGlobPrefix(g); t != g && t != "" {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// InvalidGlobError reports a malformed include or exclude glob.
type InvalidGlobError struct {
	Glob string
}

func (e *InvalidGlobError) Error() string { return fmt.Sprintf("invalid glob %q", e.Glob) }

func matchAnyGlob(name string, globs []string) bool {
	base := path.Base(name)
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, base); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
