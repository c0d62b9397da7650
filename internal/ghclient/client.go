// Package ghclient wraps the GitHub REST endpoints the scanner needs behind
// a paced, retrying, token-authenticated HTTP client.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"

	"github.com/chartscout/chartscout/internal/types"
)

const (
	DefaultBaseURL   = "https://api.github.com/"
	DefaultRPS       = 10
	DefaultBurst     = 5
	DefaultTimeout   = 30 * time.Second
	DefaultRetries   = 3
	defaultUserAgent = "chartscout"
)

// Config holds everything needed to build a Client.
type Config struct {
	BaseURL              string
	Token                string
	Timeout              time.Duration
	RPS                  float64
	Burst                int
	MaxRetries           int
	RetryInitialInterval time.Duration
	UserAgent            string
}

// Client talks to the organization, tree and contents endpoints.
type Client struct {
	gh      *github.Client
	limiter *RateLimiter
}

// ErrNotFound is returned when GitHub answers 404 for a resource.
var ErrNotFound = errors.New("not found")

// New builds a Client. The per-request timeout lives on the HTTP client so
// callers never deal with it.
func New(cfg Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RPS == 0 {
		cfg.RPS = DefaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	limiter := NewRateLimiter(cfg.RPS, cfg.Burst)
	var rt http.RoundTripper = &pacedTransport{
		base:        http.DefaultTransport,
		limiter:     limiter,
		ceiling:     cfg.RPS,
		maxRetries:  uint64(cfg.MaxRetries),
		initialWait: cfg.RetryInitialInterval,
		logger:      logger,
	}
	if cfg.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
			Base:   rt,
		}
	}

	gh := github.NewClient(&http.Client{Transport: rt, Timeout: cfg.Timeout})
	gh.BaseURL = base
	gh.UserAgent = cfg.UserAgent
	return &Client{gh: gh, limiter: limiter}, nil
}

// Limiter exposes the shared request pacer.
func (c *Client) Limiter() *RateLimiter { return c.limiter }

// ListOrgRepos returns one page of the organization's repositories.
func (c *Client) ListOrgRepos(ctx context.Context, org string, page, perPage int) ([]types.Repository, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	repos, _, err := c.gh.Repositories.ListByOrg(ctx, org, opts)
	if err != nil {
		return nil, wrapAPIError(err)
	}
	out := make([]types.Repository, 0, len(repos))
	for _, r := range repos {
		if r == nil {
			continue
		}
		out = append(out, types.Repository{
			Name:     r.GetName(),
			Archived: r.GetArchived(),
			Fork:     r.GetFork(),
		})
	}
	return out, nil
}

// Tree returns every entry of the recursive tree at ref.
func (c *Client) Tree(ctx context.Context, owner, repo, ref string) ([]types.FileDescriptor, bool, error) {
	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, false, wrapAPIError(err)
	}
	out := make([]types.FileDescriptor, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e == nil {
			continue
		}
		kind := types.KindTree
		if e.GetType() == "blob" {
			kind = types.KindBlob
		}
		out = append(out, types.FileDescriptor{
			Path: e.GetPath(),
			Kind: kind,
			Size: int64(e.GetSize()),
		})
	}
	return out, tree.GetTruncated(), nil
}

// Contents returns the still-encoded payload of a file and its encoding.
func (c *Client) Contents(ctx context.Context, owner, repo, path string) (string, string, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return "", "", wrapAPIError(err)
	}
	if file == nil {
		return "", "", fmt.Errorf("%s is a directory", path)
	}
	var raw string
	if file.Content != nil {
		raw = *file.Content
	}
	return raw, file.GetEncoding(), nil
}

func wrapAPIError(err error) error {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
