// Package matcher applies a pattern set to configuration content, either
// over the parsed document tree or over the raw text.
package matcher

import (
	"github.com/chartscout/chartscout/internal/ctxparse"
	"github.com/chartscout/chartscout/internal/patterns"
	"github.com/chartscout/chartscout/internal/types"
)

// Mode records how a piece of content was searched.
type Mode int

const (
	// ModeNone means nothing was searched: the document was empty or did
	// not parse and raw fallback is disabled.
	ModeNone Mode = iota
	ModeStructured
	ModeRaw
)

func (m Mode) String() string {
	switch m {
	case ModeStructured:
		return "structured"
	case ModeRaw:
		return "raw"
	default:
		return "none"
	}
}

// Search applies set to every textual scalar of docs, mapping keys
// included, in document order.
func Search(docs []*ctxparse.Node, set *patterns.Set) []types.Match {
	var out []types.Match
	ctxparse.Walk(docs, func(n *ctxparse.Node) {
		if n.Kind != ctxparse.Scalar || !n.Textual {
			return
		}
		out = append(out, set.Match(n.Value)...)
	})
	return out
}

// SearchText applies set directly to unparsed content.
func SearchText(content string, set *patterns.Set) []types.Match {
	return set.Match(content)
}

// Options tunes Scan.
type Options struct {
	// RawFallback runs SearchText when content does not parse or parses to
	// nothing.
	RawFallback bool
	// MaxNodes bounds alias expansion; zero uses ctxparse.DefaultMaxNodes.
	MaxNodes int
}

// Scan parses content and searches it structurally, falling back to raw
// text per opts. A parse failure is never an error for the caller; it is
// returned only so it can be logged.
func Scan(content string, set *patterns.Set, opts Options) ([]types.Match, Mode, error) {
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = ctxparse.DefaultMaxNodes
	}
	docs, err := ctxparse.ParseYAMLWithLimit([]byte(content), maxNodes)
	if err == nil && len(docs) > 0 {
		return Search(docs, set), ModeStructured, nil
	}
	if !opts.RawFallback {
		return nil, ModeNone, err
	}
	return SearchText(content, set), ModeRaw, err
}
