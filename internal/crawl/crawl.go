package crawl

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/chartscout/chartscout/internal/types"
)

// ErrEnumeration marks a failure to list the organization's repositories.
var ErrEnumeration = errors.New("repository enumeration failed")

const (
	DefaultPerPage = 100
	DefaultRef     = "HEAD"
)

// DefaultExtensions are the file extensions scanned when none are configured.
var DefaultExtensions = []string{".yaml", ".yml"}

// RepoLister returns one page of an organization's repositories.
type RepoLister interface {
	ListOrgRepos(ctx context.Context, org string, page, perPage int) ([]types.Repository, error)
}

// TreeLister returns the recursive tree of a repository at ref.
type TreeLister interface {
	Tree(ctx context.Context, owner, repo, ref string) ([]types.FileDescriptor, bool, error)
}

// ContentGetter returns a file's encoded payload and its encoding.
type ContentGetter interface {
	Contents(ctx context.Context, owner, repo, path string) (string, string, error)
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

// Enumerator pages through an organization's repositories.
type Enumerator struct {
	api     RepoLister
	org     string
	perPage int
	logger  *log.Logger
}

func NewEnumerator(api RepoLister, org string, perPage int, logger *log.Logger) *Enumerator {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Enumerator{api: api, org: org, perPage: perPage, logger: orDiscard(logger)}
}

// ListAll requests pages 1, 2, ... until a page comes back empty. Any page
// failure aborts with an error wrapping ErrEnumeration.
func (e *Enumerator) ListAll(ctx context.Context) ([]types.Repository, error) {
	var all []types.Repository
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
		}
		repos, err := e.api.ListOrgRepos(ctx, e.org, page, e.perPage)
		if err != nil {
			return nil, fmt.Errorf("%w: org %s page %d: %w", ErrEnumeration, e.org, page, err)
		}
		if len(repos) == 0 {
			break
		}
		e.logger.Debug("listed repositories", "page", page, "count", len(repos))
		all = append(all, repos...)
	}
	return all, nil
}

// ListerOptions tunes which tree entries a Lister keeps.
type ListerOptions struct {
	Ref        string
	Extensions []string
	// Allow, when set, must accept a path for it to be kept.
	Allow func(path string) bool
	// MaxBytes skips blobs whose tree size exceeds it. Zero disables the check.
	MaxBytes int64
}

// Lister selects the candidate files of a repository.
type Lister struct {
	api    TreeLister
	org    string
	ref    string
	exts   map[string]struct{}
	allow  func(string) bool
	max    int64
	logger *log.Logger
}

func NewLister(api TreeLister, org string, opts ListerOptions, logger *log.Logger) *Lister {
	ref := opts.Ref
	if ref == "" {
		ref = DefaultRef
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return &Lister{
		api:    api,
		org:    org,
		ref:    ref,
		exts:   set,
		allow:  opts.Allow,
		max:    opts.MaxBytes,
		logger: orDiscard(logger),
	}
}

// List returns the repository's blobs with a recognized extension, in tree
// order. Failures are logged and yield an empty list.
func (l *Lister) List(ctx context.Context, repo string) []types.FileDescriptor {
	entries, truncated, err := l.api.Tree(ctx, l.org, repo, l.ref)
	if err != nil {
		if ctx.Err() == nil {
			l.logger.Warn("cannot list files", "repo", repo, "err", err)
		}
		return nil
	}
	if truncated {
		l.logger.Warn("file tree truncated by the API, some files are not scanned", "repo", repo)
	}
	var out []types.FileDescriptor
	for _, e := range entries {
		if e.Kind != types.KindBlob || !l.Recognized(e.Path) {
			continue
		}
		if l.allow != nil && !l.allow(e.Path) {
			continue
		}
		if l.max > 0 && e.Size > l.max {
			l.logger.Debug("skipping large file", "repo", repo, "path", e.Path, "size", e.Size)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Recognized reports whether p ends in one of the configured extensions,
// ignoring case.
func (l *Lister) Recognized(p string) bool {
	_, ok := l.exts[strings.ToLower(path.Ext(p))]
	return ok
}

// Fetcher retrieves and decodes file contents.
type Fetcher struct {
	api    ContentGetter
	org    string
	logger *log.Logger
}

func NewFetcher(api ContentGetter, org string, logger *log.Logger) *Fetcher {
	return &Fetcher{api: api, org: org, logger: orDiscard(logger)}
}

// Fetch returns the decoded text of path. The boolean is false when the
// file could not be retrieved or decoded.
func (f *Fetcher) Fetch(ctx context.Context, repo, p string) (string, bool) {
	raw, enc, err := f.api.Contents(ctx, f.org, repo, p)
	if err != nil {
		f.logger.Debug("cannot fetch file", "repo", repo, "path", p, "err", err)
		return "", false
	}
	text, err := Decode(raw, enc)
	if err != nil {
		f.logger.Debug("cannot decode file", "repo", repo, "path", p, "err", err)
		return "", false
	}
	return text, true
}

// Decode turns a contents-API payload into text. Embedded line breaks in
// the base64 payload are tolerated and invalid UTF-8 sequences are dropped.
func Decode(raw, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case "base64", "":
	default:
		return "", fmt.Errorf("unsupported content encoding %q", encoding)
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, raw)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	return strings.ToValidUTF8(string(b), ""), nil
}
