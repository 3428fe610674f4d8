// Package query caches server resources by key until a mutation invalidates them.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Resource keys.
const (
	KeyWallets      = "wallets"
	KeyTransactions = "transactions"
	KeyUserBanks    = "user-banks"
	KeyBanks        = "banks"

	// TransactionPrefix prefixes per-transaction detail keys.
	TransactionPrefix = "transaction:"
)

// TransactionKey is the key of one transaction's detail.
func TransactionKey(id string) string {
	return TransactionPrefix + id
}

// Variant is a parameterised form of key, e.g. one page of transactions.
// Invalidating key also invalidates its variants.
func Variant(key, params string) string {
	if params == "" {
		return key
	}
	return key + "?" + params
}

var ErrTypeMismatch = errors.New("cached value has unexpected type")

// Fetcher loads the value for one key.
type Fetcher func(ctx context.Context) (interface{}, error)

// Result is what a consumer sees for a key.
type Result struct {
	Data      interface{}
	IsLoading bool
	Err       error
}

// Config configures the cache. A zero TTL keeps entries until invalidated.
type Config struct {
	TTL time.Duration
	Now func() time.Time
}

// Stats are counters for diagnostics.
type Stats struct {
	Hits          int64         `json:"hits"`
	Misses        int64         `json:"misses"`
	Fetches       int64         `json:"fetches"`
	Discarded     int64         `json:"discarded"`
	Invalidations int64         `json:"invalidations"`
	Size          int           `json:"size"`
	TTL           time.Duration `json:"ttl"`
}

// Cache is safe for concurrent use. Concurrent fetches of one key are not
// coalesced; only the newest one started may store its result, and only if
// the key was not invalidated after it started.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSeq uint64
	ttl     time.Duration
	now     func() time.Time

	// counters
	hits          int64
	misses        int64
	fetches       int64
	discarded     int64
	invalidations int64
}

type entry struct {
	data      interface{}
	hasData   bool
	err       error
	fetchedAt time.Time
	stale     bool
	loading   bool
	seq       uint64
}

func New(c Config) *Cache {
	if c.Now == nil {
		c.Now = time.Now
	}
	return &Cache{
		entries: make(map[string]*entry),
		ttl:     c.TTL,
		now:     c.Now,
	}
}

func (c *Cache) fresh(e *entry) bool {
	if !e.hasData || e.stale || e.err != nil {
		return false
	}
	return c.ttl <= 0 || c.now().Sub(e.fetchedAt) <= c.ttl
}

// Query returns the cached value for key while it is fresh and otherwise
// calls fetch. The caller always receives the outcome of its own fetch.
func (c *Cache) Query(ctx context.Context, key string, fetch Fetcher) Result {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.fresh(e) {
		data := e.data
		c.mu.Unlock()
		atomic.AddInt64(&c.hits, 1)
		return Result{Data: data}
	}
	atomic.AddInt64(&c.misses, 1)

	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	c.nextSeq++
	seq := c.nextSeq
	e.seq = seq
	e.loading = true
	c.mu.Unlock()

	atomic.AddInt64(&c.fetches, 1)
	data, err := fetch(ctx)

	c.mu.Lock()
	if cur, ok := c.entries[key]; ok && cur == e && e.seq == seq {
		e.loading = false
		e.err = err
		if err == nil {
			e.data = data
			e.hasData = true
			e.stale = false
			e.fetchedAt = c.now()
		}
	} else {
		atomic.AddInt64(&c.discarded, 1)
	}
	c.mu.Unlock()

	return Result{Data: data, Err: err}
}

// Peek reports the entry's last known state without fetching.
func (c *Cache) Peek(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return Result{Data: e.data, IsLoading: e.loading, Err: e.err}, true
}

// Invalidate marks keys and their variants stale. In-flight fetches for them
// will not be stored.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		for _, key := range keys {
			if k == key || strings.HasPrefix(k, key+"?") {
				c.invalidateLocked(e)
				break
			}
		}
	}
}

// InvalidatePrefix marks every key starting with prefix stale.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if strings.HasPrefix(k, prefix) {
			c.invalidateLocked(e)
		}
	}
}

func (c *Cache) invalidateLocked(e *entry) {
	c.nextSeq++
	e.seq = c.nextSeq
	e.stale = true
	e.loading = false
	atomic.AddInt64(&c.invalidations, 1)
}

// Clear drops every entry. It runs whenever the session is lost so one
// user's data never leaks into the next.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Fetches:       atomic.LoadInt64(&c.fetches),
		Discarded:     atomic.LoadInt64(&c.discarded),
		Invalidations: atomic.LoadInt64(&c.invalidations),
		Size:          c.Len(),
		TTL:           c.ttl,
	}
}

// Get is Query with a typed fetcher and result.
func Get[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	res := c.Query(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})

	var zero T
	if res.Err != nil {
		return zero, res.Err
	}
	v, ok := res.Data.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T", ErrTypeMismatch, key, res.Data)
	}
	return v, nil
}
