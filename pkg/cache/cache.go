// Package cache implements a TTL cache for generated summaries. Entries expire lazily on read
// and on periodic sweeps; concurrent misses for the same key share a single generation call.
// An optional Store persists entries across restarts; store failures never block callers.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/singleflight"

	"github.com/umputun/newsdigest/pkg/domain"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store

const (
	defaultTTL   = 7 * 24 * time.Hour
	storeTimeout = 5 * time.Second
)

// Store persists cache entries
type Store interface {
	LoadCache(ctx context.Context) ([]domain.CacheEntry, error)
	SaveCacheEntry(ctx context.Context, entry domain.CacheEntry) error
	DeleteCacheEntry(ctx context.Context, key string) error
	DeleteExpiredCache(ctx context.Context, now time.Time) (int64, error)
}

// Options for the cache
type Options struct {
	DefaultTTL time.Duration // used when Set is called with ttl <= 0
	MaxEntries int           // 0 means unbounded
	Store      Store         // optional persistence
}

// Stats are cache counters
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Cache is a TTL key-value cache safe for concurrent use
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]domain.CacheEntry
	defaultTTL time.Duration
	maxEntries int
	store      Store
	group      singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	now    func() time.Time
}

// New makes a cache. Call Load to populate it from the store.
func New(opts Options) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = defaultTTL
	}
	return &Cache{
		entries:    map[string]domain.CacheEntry{},
		defaultTTL: opts.DefaultTTL,
		maxEntries: opts.MaxEntries,
		store:      opts.Store,
		now:        time.Now,
	}
}

// Key makes a cache key from the content fingerprint and generation parameters
func Key(fingerprint string, params domain.GenerationParams) string {
	sum := sha256.Sum256([]byte(fingerprint + "|" + params.Canonical()))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached value if present and not expired. Expired entries are evicted.
func (c *Cache) Get(key string) (string, bool) {
	now := c.now()
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && !entry.Expired(now) {
		c.hits.Add(1)
		return entry.Value, true
	}
	c.misses.Add(1)

	if ok {
		c.mu.Lock()
		// recheck, the entry could be refreshed between the locks
		if e, found := c.entries[key]; found && e.Expired(now) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	return "", false
}

// Set stores the value with expiry now+ttl, overwriting any previous entry.
// The entry is written through to the store, store errors are logged and ignored.
func (c *Cache) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now()
	entry := domain.CacheEntry{Key: key, Value: value, CreatedAt: now, ExpiresAt: now.Add(ttl)}

	c.mu.Lock()
	c.entries[key] = entry
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictLocked(now, key)
	}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.SaveCacheEntry(ctx, entry); err != nil {
		lgr.Printf("[WARN] %v", &domain.CacheError{Op: "save", Key: key, Err: err})
	}
}

// Delete removes the entry from memory and from the store, store errors are logged and ignored
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := c.store.DeleteCacheEntry(ctx, key); err != nil {
		lgr.Printf("[WARN] %v", &domain.CacheError{Op: "delete", Key: key, Err: err})
	}
}

// GetOrGenerate returns the cached value or calls gen to produce it and caches the result.
// Concurrent calls for the same key wait for a single gen call and share its result.
// The returned hit flag is true when this caller didn't run gen. Errors are not cached.
func (c *Cache) GetOrGenerate(ctx context.Context, key string, ttl time.Duration,
	gen func(ctx context.Context) (string, error)) (value string, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	generated := false
	res, err, _ := c.group.Do(key, func() (any, error) {
		// another flight may have completed between Get and Do
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		generated = true
		v, genErr := gen(ctx)
		if genErr != nil {
			return "", genErr
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return "", false, err
	}
	return res.(string), !generated, nil
}

// Len returns the number of entries including not yet evicted expired ones
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache counters
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: c.Len()}
}

// Sweep removes expired entries from memory and the store, returns the number removed from memory
func (c *Cache) Sweep(ctx context.Context) int {
	now := c.now()
	c.mu.Lock()
	removed := c.removeExpiredLocked(now)
	c.mu.Unlock()

	if c.store != nil {
		if n, err := c.store.DeleteExpiredCache(ctx, now); err != nil {
			lgr.Printf("[WARN] %v", &domain.CacheError{Op: "sweep", Err: err})
		} else if n > 0 {
			lgr.Printf("[DEBUG] removed %d expired entries from cache store", n)
		}
	}
	if removed > 0 {
		lgr.Printf("[DEBUG] swept %d expired cache entries", removed)
	}
	return removed
}

// Run sweeps expired entries every interval until the context is canceled
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Load purges expired entries from the store and loads the rest into memory.
// A failure leaves the cache empty and usable, the error is a *domain.CacheError.
func (c *Cache) Load(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	now := c.now()
	if _, err := c.store.DeleteExpiredCache(ctx, now); err != nil {
		return 0, &domain.CacheError{Op: "purge", Err: err}
	}
	entries, err := c.store.LoadCache(ctx)
	if err != nil {
		return 0, &domain.CacheError{Op: "load", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	loaded := 0
	for _, e := range entries {
		if e.Expired(now) {
			continue
		}
		c.entries[e.Key] = e
		loaded++
	}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictLocked(now, "")
	}
	return loaded, nil
}

// peek returns an unexpired value without touching counters
func (c *Cache) peek(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.Expired(c.now()) {
		return "", false
	}
	return e.Value, true
}

func (c *Cache) removeExpiredLocked(now time.Time) int {
	removed := 0
	for k, e := range c.entries {
		if e.Expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// evictLocked drops expired entries, then the ones closest to expiry until the size fits.
// The keep entry is never evicted.
func (c *Cache) evictLocked(now time.Time, keep string) {
	c.removeExpiredLocked(now)
	for len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if k == keep {
				continue
			}
			if oldestKey == "" || e.ExpiresAt.Before(oldest) {
				oldestKey, oldest = k, e.ExpiresAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
	}
}
