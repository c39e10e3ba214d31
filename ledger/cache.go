package ledger

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ReadCache is a bounded recency-evicting cache in front of read paths.
// Structural mutations clear it wholesale; partial invalidation risks
// serving a count that no longer matches the store.
type ReadCache struct {
	entries *lru.Cache[string, any]
}

// NewReadCache creates a cache with a fixed maximum entry count.
func NewReadCache(capacity int) (*ReadCache, error) {
	entries, err := lru.New[string, any](capacity)
	if err != nil {
		return nil, fmt.Errorf("create read cache: %w", err)
	}
	return &ReadCache{entries: entries}, nil
}

func (rc *ReadCache) Get(key string) (any, bool) { return rc.entries.Get(key) }

func (rc *ReadCache) Set(key string, value any) { rc.entries.Add(key, value) }

// Clear drops every entry.
func (rc *ReadCache) Clear() { rc.entries.Purge() }

// Len reports the current entry count.
func (rc *ReadCache) Len() int { return rc.entries.Len() }
