package resolver

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vmunix/fafo/internal/policy"
)

type cacheKey struct {
	ref     string
	quality policy.Quality
}

func (k cacheKey) String() string {
	return k.ref + "\x00" + string(k.quality)
}

// streamCache is a capacity-bounded LRU of resolved streams with a fixed
// freshness window per entry. The LRU itself is safe for concurrent use.
type streamCache struct {
	entries *lru.Cache[cacheKey, PlayableStream]
	now     func() time.Time
}

func newStreamCache(capacity int, now func() time.Time) (*streamCache, error) {
	entries, err := lru.New[cacheKey, PlayableStream](capacity)
	if err != nil {
		return nil, err
	}
	return &streamCache{entries: entries, now: now}, nil
}

// get returns a fresh entry. Expired entries are dropped on read.
func (c *streamCache) get(k cacheKey) (PlayableStream, bool) {
	s, ok := c.entries.Get(k)
	if !ok {
		return PlayableStream{}, false
	}
	if !c.now().Before(s.ExpiresAt) {
		c.entries.Remove(k)
		return PlayableStream{}, false
	}
	return s, true
}

// add stores s and reports whether an older entry was evicted to make room.
func (c *streamCache) add(k cacheKey, s PlayableStream) bool {
	return c.entries.Add(k, s)
}

// removeRef drops every quality variant cached for ref.
func (c *streamCache) removeRef(ref string) int {
	n := 0
	for _, k := range c.entries.Keys() {
		if k.ref == ref && c.entries.Remove(k) {
			n++
		}
	}
	return n
}

func (c *streamCache) purge() { c.entries.Purge() }

func (c *streamCache) len() int { return c.entries.Len() }
