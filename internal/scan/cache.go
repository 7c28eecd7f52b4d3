package scan

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheEntries bounds the prefix cache when no size is configured.
const DefaultCacheEntries = 2048

// Prefix is a sampled file head plus the file's full size, which tells readers
// whether the sample already covers the whole file.
type Prefix struct {
	Data []byte
	Size int64
}

// Complete reports whether Data holds the entire file.
func (p Prefix) Complete() bool { return int64(len(p.Data)) >= p.Size }

// PrefixCache keeps the prefixes sampled during the walk so later stages
// (excerpt selection) can avoid re-reading small files.
type PrefixCache struct {
	c *lru.Cache[string, Prefix]
}

// NewPrefixCache creates a bounded LRU cache keyed by repo-relative path.
func NewPrefixCache(entries int) (*PrefixCache, error) {
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	c, err := lru.New[string, Prefix](entries)
	if err != nil {
		return nil, err
	}
	return &PrefixCache{c: c}, nil
}

// Put stores a copy of data for rel.
func (p *PrefixCache) Put(rel string, data []byte, size int64) {
	if p == nil || p.c == nil {
		return
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	p.c.Add(rel, Prefix{Data: cp, Size: size})
}

// Get returns the cached prefix for rel.
func (p *PrefixCache) Get(rel string) (Prefix, bool) {
	if p == nil || p.c == nil {
		return Prefix{}, false
	}
	return p.c.Get(rel)
}

// Len returns the number of cached entries.
func (p *PrefixCache) Len() int {
	if p == nil || p.c == nil {
		return 0
	}
	return p.c.Len()
}
