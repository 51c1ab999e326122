// Package cache memoizes materialization results in memory. Materialization
// is a pure function of the plan, so a digest hit can always be served
// without regenerating the notebook.
package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// InMemoryCache is a thread-safe TTL cache keyed by plan digest.
type InMemoryCache struct {
	store map[string]cacheItem
	mutex sync.RWMutex
	ttl   time.Duration
	stop  chan struct{}
}

type cacheItem struct {
	value      interface{}
	expiration int64
}

// NewInMemoryCache creates a cache whose entries live for defaultTTL.
func NewInMemoryCache(defaultTTL time.Duration) *InMemoryCache {
	c := &InMemoryCache{
		store: make(map[string]cacheItem),
		ttl:   defaultTTL,
		stop:  make(chan struct{}),
	}
	go c.cleanupLoop(10 * time.Minute)
	return c
}

// Get retrieves a cached result by plan digest. Misses and expired entries
// both return a not-found error.
func (c *InMemoryCache) Get(ctx context.Context, digest string) (interface{}, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, found := c.store[digest]
	if !found {
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("no cached result for digest", nil))
	}

	if time.Now().UnixNano() > item.expiration {
		// Lazy expiry; the cleanup loop reclaims the entry later.
		log.Printf("cached result expired: %s", digest)
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cached result expired", nil))
	}

	return item.value, nil
}

// Set stores a result under the plan digest.
func (c *InMemoryCache) Set(ctx context.Context, digest string, value interface{}) error {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.store[digest] = cacheItem{
		value:      value,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	}
	return nil
}

// Invalidate drops a single entry.
func (c *InMemoryCache) Invalidate(digest string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.store, digest)
}

// Close stops the background cleanup loop.
func (c *InMemoryCache) Close() {
	close(c.stop)
}

func (c *InMemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now().UnixNano()
			for key, item := range c.store {
				if now > item.expiration {
					delete(c.store, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}
