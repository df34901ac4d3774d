// Package cache keeps recent results of quick edits in memory.
package cache

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zeebo/xxh3"

	"quickedit/internal/models"
)

const (
	DefaultCapacity = 100
	DefaultTTL      = 10 * time.Minute
)

// Stats tracks cache effectiveness.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// ResultCache is a bounded, expiring cache of edit results. It is safe for
// concurrent use.
type ResultCache struct {
	lru    *expirable.LRU[string, models.EditResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// New returns a cache holding at most capacity results for ttl each.
// Non-positive arguments fall back to the defaults.
func New(capacity int, ttl time.Duration) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{lru: expirable.NewLRU[string, models.EditResult](capacity, nil, ttl)}
}

// Key hashes the normalized request text with the sorted involved paths and
// their current contents.
func Key(message string, files map[string]string, paths []string) string {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var b strings.Builder
	b.WriteString(Normalize(message))
	for _, p := range sorted {
		b.WriteByte(0)
		b.WriteString(p)
		b.WriteByte(0)
		fmt.Fprintf(&b, "%016x", xxh3.HashString(files[p]))
	}
	return fmt.Sprintf("%016x", xxh3.HashString(b.String()))
}

// Normalize lowercases message and collapses whitespace.
func Normalize(message string) string {
	return strings.Join(strings.Fields(strings.ToLower(message)), " ")
}

// Get returns a copy of the cached result marked as cached.
func (c *ResultCache) Get(key string) (*models.EditResult, bool) {
	r, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	r.Cached = true
	r.UpdatedFiles = copyFiles(r.UpdatedFiles)
	return &r, true
}

// Put stores a copy of r under key.
func (c *ResultCache) Put(key string, r *models.EditResult) {
	if r == nil {
		return
	}
	stored := *r
	stored.UpdatedFiles = copyFiles(r.UpdatedFiles)
	c.lru.Add(key, stored)
}

// Purge drops every entry.
func (c *ResultCache) Purge() {
	c.lru.Purge()
}

// Stats returns the hit and miss counters and the current size.
func (c *ResultCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: c.lru.Len()}
}

func copyFiles(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
