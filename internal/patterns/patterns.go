package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/chartscout/chartscout/internal/types"
)

// Definition is a named pattern. When the expression has a capture group,
// the first group is reported as the extracted value.
type Definition struct {
	Name    string
	Pattern *regexp.Regexp
}

// HasGroup reports whether the pattern defines at least one capture group.
func (d Definition) HasGroup() bool { return d.Pattern.NumSubexp() > 0 }

// Compile builds a Definition from a name and a regular expression.
func Compile(name, expr string) (Definition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Definition{}, fmt.Errorf("pattern %q: empty name", expr)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Definition{}, fmt.Errorf("pattern %s: %w", name, err)
	}
	return Definition{Name: name, Pattern: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(name, expr string) Definition {
	d, err := Compile(name, expr)
	if err != nil {
		panic(err)
	}
	return d
}

// Set is an ordered, immutable collection of definitions.
type Set struct {
	defs []Definition
}

// NewSet returns a set holding defs in the given order. Later definitions
// with a name already present are rejected.
func NewSet(defs ...Definition) (*Set, error) {
	seen := make(map[string]bool, len(defs))
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if d.Pattern == nil {
			return nil, fmt.Errorf("pattern %s: nil expression", d.Name)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate pattern name %q", d.Name)
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return &Set{defs: out}, nil
}

// Definitions returns a copy of the definitions in declared order.
func (s *Set) Definitions() []Definition {
	out := make([]Definition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Len returns the number of definitions.
func (s *Set) Len() int { return len(s.defs) }

// Names returns definition names in declared order.
func (s *Set) Names() []string {
	out := make([]string, len(s.defs))
	for i, d := range s.defs {
		out[i] = d.Name
	}
	return out
}

// With returns a new set with extra appended after the existing definitions.
func (s *Set) With(extra ...Definition) (*Set, error) {
	return NewSet(append(s.Definitions(), extra...)...)
}

// Filter keeps definitions named in enable (all when empty) and drops those
// named in disable. Unknown names are an error so typos do not silently
// shrink the audit.
func (s *Set) Filter(enable, disable []string) (*Set, error) {
	known := make(map[string]bool, len(s.defs))
	for _, d := range s.defs {
		known[d.Name] = true
	}
	var unknown []string
	allowed := map[string]bool{}
	for _, n := range enable {
		if !known[n] {
			unknown = append(unknown, n)
		}
		allowed[n] = true
	}
	blocked := map[string]bool{}
	for _, n := range disable {
		if !known[n] {
			unknown = append(unknown, n)
		}
		blocked[n] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown pattern(s): %s", strings.Join(unknown, ","))
	}
	var out []Definition
	for _, d := range s.defs {
		if len(enable) > 0 && !allowed[d.Name] {
			continue
		}
		if blocked[d.Name] {
			continue
		}
		out = append(out, d)
	}
	return &Set{defs: out}, nil
}

type span struct {
	start, end int
	m          types.Match
}

// Match evaluates every definition, in declared order, against text using
// unanchored search. Each non-overlapping match of a pattern is reported.
// A match lying strictly inside a longer match of another pattern is
// dropped: "docker.io/bitnami/nginx" reports the docker reference once, not
// again as a bare "bitnami/nginx".
func (s *Set) Match(text string) []types.Match {
	if text == "" {
		return nil
	}
	var spans []span
	for _, d := range s.defs {
		for _, loc := range d.Pattern.FindAllStringSubmatchIndex(text, -1) {
			m := types.Match{Pattern: d.Name, Text: text[loc[0]:loc[1]]}
			if len(loc) >= 4 && loc[2] >= 0 {
				m.Value = text[loc[2]:loc[3]]
			}
			spans = append(spans, span{start: loc[0], end: loc[1], m: m})
		}
	}
	if len(spans) == 0 {
		return nil
	}
	drop := subsumed(spans)
	out := make([]types.Match, 0, len(spans))
	for i, sp := range spans {
		if drop[i] {
			continue
		}
		out = append(out, sp.m)
	}
	return out
}

// widest tracks the largest end seen per pattern, keeping only the top
// entry and the best end among all other patterns.
type widest struct {
	end1, end2 int
	pat1       string
}

func newWidest() widest { return widest{end1: -1, end2: -1} }

func (w *widest) add(sp span) {
	switch {
	case sp.m.Pattern == w.pat1:
		if sp.end > w.end1 {
			w.end1 = sp.end
		}
	case sp.end > w.end1:
		w.end2, w.end1, w.pat1 = w.end1, sp.end, sp.m.Pattern
	case sp.end > w.end2:
		w.end2 = sp.end
	}
}

// otherThan returns the largest end among patterns other than pattern.
func (w *widest) otherThan(pattern string) int {
	if pattern != w.pat1 {
		return w.end1
	}
	return w.end2
}

// subsumed marks every span lying inside a strictly longer span of a
// different pattern. Spans are swept by start, longest first, so the cost
// is dominated by the sort.
func subsumed(spans []span) []bool {
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		sa, sb := spans[order[a]], spans[order[b]]
		if sa.start != sb.start {
			return sa.start < sb.start
		}
		return sa.end > sb.end
	})

	drop := make([]bool, len(spans))
	before := newWidest()
	for i := 0; i < len(order); {
		j := i
		start := spans[order[i]].start
		for j < len(order) && spans[order[j]].start == start {
			j++
		}
		same := newWidest()
		for _, idx := range order[i:j] {
			sp := spans[idx]
			// an earlier start contains sp when it reaches at least as far;
			// the same start needs a strictly later end
			if before.otherThan(sp.m.Pattern) >= sp.end || same.otherThan(sp.m.Pattern) > sp.end {
				drop[idx] = true
			}
			same.add(sp)
		}
		for _, idx := range order[i:j] {
			before.add(spans[idx])
		}
		i = j
	}
	return drop
}
