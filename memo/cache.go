// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/luxfi/memocache"
	"github.com/luxfi/memocache/fifo"
	"github.com/luxfi/memocache/key"
)

// Cache memoizes a function of one comparable argument.
//
// Cache is safe for concurrent use. The table and counters are guarded by a
// mutex; the wrapped function always runs outside of it.
type Cache[K comparable, V any] struct {
	fn  func(K) (V, error)
	cfg config

	// checkKey is set when K is an interface type, whose dynamic values may
	// not be comparable.
	checkKey bool

	mu     sync.Mutex
	table  memocache.Cacher[K, V] // nil when caching is disabled
	hits   uint64
	misses uint64

	group singleflight.Group
}

// New wraps fn in a Cache.
func New[K comparable, V any](fn func(K) (V, error), opts ...Option) (*Cache[K, V], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", memocache.ErrConfiguration)
	}
	return newCache(fn, opts)
}

// Wrap returns fn memoized, together with the Cache behind it for Stats and
// Clear.
func Wrap[K comparable, V any](fn func(K) (V, error), opts ...Option) (func(K) (V, error), *Cache[K, V], error) {
	c, err := New(fn, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c.Call, c, nil
}

func newCache[K comparable, V any](fn func(K) (V, error), opts []Option) (*Cache[K, V], error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	c := &Cache[K, V]{
		fn:       fn,
		cfg:      cfg,
		checkKey: reflect.TypeFor[K]().Kind() == reflect.Interface,
	}
	switch {
	case !cfg.bounded:
		c.table = fifo.New[K, V](0)
	case cfg.maxSize > 0:
		c.table = fifo.New[K, V](cfg.maxSize)
	}
	return c, nil
}

// Call returns fn(k), from the cache when a live entry exists.
func (c *Cache[K, V]) Call(k K) (V, error) {
	return c.call(k, func() (V, error) { return c.fn(k) })
}

func (c *Cache[K, V]) call(k K, compute func() (V, error)) (V, error) {
	var zero V
	if c.checkKey {
		if err := key.Check(k); err != nil {
			return zero, err
		}
	}

	// A key that is not equal to itself, such as NaN, can never be found
	// again. It is computed every time and never stored.
	if c.table == nil || k != k {
		return c.invoke(compute)
	}

	if v, ok := c.lookup(k); ok {
		return v, nil
	}

	if c.cfg.singleflight {
		return c.callShared(k, compute)
	}

	v, err := c.invoke(compute)
	if err != nil {
		return zero, err
	}
	c.store(k, v)
	return v, nil
}

func (c *Cache[K, V]) callShared(k K, compute func() (V, error)) (V, error) {
	var zero V
	sk, err := key.Of(k)
	if err != nil {
		return zero, err
	}

	invoked := false
	v, err, _ := c.group.Do(string(sk), func() (any, error) {
		invoked = true
		v, err := c.invoke(compute)
		if err != nil {
			return nil, err
		}
		c.store(k, v)
		return v, nil
	})
	if err != nil {
		return zero, err
	}

	if !invoked {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		c.cfg.metrics.Hit()
	}
	out, _ := v.(V)
	return out, nil
}

// invoke runs the wrapped function and counts the miss whether or not it
// fails.
func (c *Cache[K, V]) invoke(compute func() (V, error)) (V, error) {
	start := time.Now()
	v, err := compute()
	c.cfg.metrics.Miss(time.Since(start))

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return v, err
}

func (c *Cache[K, V]) lookup(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.table.Get(k)
	if !ok {
		return zero, false
	}

	if c.cfg.ttlSet {
		if age := c.cfg.now().Sub(e.CreatedAt); age >= c.cfg.ttl {
			c.table.Evict(k)
			c.cfg.metrics.Expired()
			c.cfg.log.WithField("age", age).Debug("memo: entry expired")
			c.reportLen()
			return zero, false
		}
	}

	c.hits++
	c.cfg.metrics.Hit()
	return e.Value, true
}

func (c *Cache[K, V]) store(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if evicted, ok := c.table.Put(k, v, c.cfg.now()); ok {
		c.cfg.metrics.Evicted()
		c.cfg.log.WithFields(log.Fields{
			"size":    c.table.Len(),
			"created": evicted.CreatedAt,
		}).Debug("memo: evicted oldest entry")
	}
	c.reportLen()
}

func (c *Cache[K, V]) reportLen() {
	c.cfg.metrics.Len(c.table.Len(), c.table.PortionFilled())
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() memocache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := memocache.Stats{
		MaxSize: memocache.Unbounded,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if c.cfg.bounded {
		s.MaxSize = c.cfg.maxSize
	}
	if c.table != nil {
		s.Size = c.table.Len()
	}
	return s
}

// Clear empties the cache and resets its counters. The configuration is
// kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hits = 0
	c.misses = 0
	if c.table != nil {
		c.table.Flush()
		c.reportLen()
	}
}
