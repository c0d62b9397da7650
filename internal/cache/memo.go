// Package cache holds the scanner's caches: an in-memory memo of match
// results keyed by content hash, and the on-disk copy of the last report.
package cache

import (
	"sync"
	"sync/atomic"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/chartscout/chartscout/internal/matcher"
	"github.com/chartscout/chartscout/internal/types"
)

// Entry is the memoized outcome of matching one piece of content.
type Entry struct {
	Matches []types.Match
	Mode    matcher.Mode
	// ParseErr is the parse failure message, if any.
	ParseErr string
}

type memoKey struct {
	sum uint64
	n   int
}

// slot keeps the content next to its entry so a hash collision is never
// mistaken for a hit.
type slot struct {
	content string
	entry   Entry
}

// Memo maps content to its match outcome. Vendored charts and copied
// manifests are common across an organization, so identical files are
// matched only once. Safe for concurrent use.
type Memo struct {
	mu      sync.RWMutex
	entries map[memoKey][]slot
	size    int
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewMemo() *Memo {
	return &Memo{entries: make(map[memoKey][]slot)}
}

func fastHash(content string) memoKey {
	return memoKey{sum: xxhash.Sum64String(content), n: len(content)}
}

func (m *Memo) lookup(k memoKey, content string) (Entry, bool) {
	for _, s := range m.entries[k] {
		if s.content == content {
			return s.entry, true
		}
	}
	return Entry{}, false
}

// Get returns the memoized entry for content, computing and storing it on a
// miss. A nil Memo always computes.
func (m *Memo) Get(content string, compute func() Entry) Entry {
	if m == nil {
		return compute()
	}
	k := fastHash(content)
	m.mu.RLock()
	e, ok := m.lookup(k, content)
	m.mu.RUnlock()
	if ok {
		m.hits.Add(1)
		return e
	}
	m.misses.Add(1)
	e = compute()
	m.mu.Lock()
	if _, ok := m.lookup(k, content); !ok {
		m.entries[k] = append(m.entries[k], slot{content: content, entry: e})
		m.size++
	}
	m.mu.Unlock()
	return e
}

// Stats returns the hit and miss counts so far.
func (m *Memo) Stats() (hits, misses int64) {
	if m == nil {
		return 0, 0
	}
	return m.hits.Load(), m.misses.Load()
}

// Len is the number of distinct contents seen.
func (m *Memo) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}
