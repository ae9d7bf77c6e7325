package pipeline

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/repoindexer/repoindexer/internal/model"
)

// cacheKey is (contentHash, path) per SPEC_FULL.md §9's Open Question
// resolution: a path-qualified key, not a bare content hash, so the same
// body at two different paths gets independent origin/path metadata.
type cacheKey struct {
	contentHash string
	path        string
}

type cacheEntry struct {
	file           model.FileMetadata
	chunks         []model.IndexChunk
	secretFindings []model.SecretFinding
	policyFindings []model.PolicyFinding
}

// ContentCache is the per-manager content-hash cache (SPEC_FULL.md §4.7.h),
// an lru.Cache from hashicorp/golang-lru/v2 guarded by a mutex for the
// deep-copy-on-read discipline SPEC_FULL §5 requires.
type ContentCache struct {
	mu   sync.Mutex
	lru  *lru.Cache[cacheKey, *cacheEntry]
	seen *lru.Cache[uint64, struct{}]
}

// NewContentCache builds a cache holding up to size entries. The quickDigest
// pre-check set is bounded at the same size so it cannot outlive the LRU it
// gates (an unbounded pre-check set would defeat the LRU's own memory bound).
func NewContentCache(size int) *ContentCache {
	if size <= 0 {
		size = 10000
	}
	l, _ := lru.New[cacheKey, *cacheEntry](size)
	s, _ := lru.New[uint64, struct{}](size)
	return &ContentCache{lru: l, seen: s}
}

// Get returns a deep copy of the cached entry for (contentHash, path), if
// present, so the caller can never alias the cache's own chunk slice. The
// quickDigest pre-check rejects definite misses before touching the LRU.
func (c *ContentCache) Get(contentHash, path string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen.Get(quickDigest(contentHash, path)); !ok {
		return cacheEntry{}, false
	}
	entry, ok := c.lru.Get(cacheKey{contentHash: contentHash, path: path})
	if !ok {
		return cacheEntry{}, false
	}
	return deepCopyEntry(*entry), true
}

// Put stores a deep copy of entry so later mutation by the caller cannot
// leak into the cache.
func (c *ContentCache) Put(contentHash, path string, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := deepCopyEntry(entry)
	c.lru.Add(cacheKey{contentHash: contentHash, path: path}, &copied)
	c.seen.Add(quickDigest(contentHash, path), struct{}{})
}

func deepCopyEntry(e cacheEntry) cacheEntry {
	out := cacheEntry{file: e.file}
	if e.chunks != nil {
		out.chunks = make([]model.IndexChunk, len(e.chunks))
		for i, c := range e.chunks {
			out.chunks[i] = c.Clone()
		}
	}
	if e.secretFindings != nil {
		out.secretFindings = append([]model.SecretFinding(nil), e.secretFindings...)
	}
	if e.policyFindings != nil {
		out.policyFindings = append([]model.PolicyFinding(nil), e.policyFindings...)
	}
	return out
}
