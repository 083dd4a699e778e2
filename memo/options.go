// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import (
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/luxfi/memocache"
)

type config struct {
	maxSize      int
	bounded      bool
	ttl          time.Duration
	ttlSet       bool
	now          func() time.Time
	log          log.Interface
	metrics      memocache.Metrics
	singleflight bool
}

// Option configures a Cache.
type Option func(*config)

// WithMaxSize bounds the cache to n entries. Zero disables caching; without
// this option the cache is unbounded.
func WithMaxSize(n int) Option {
	return func(c *config) {
		c.maxSize = n
		c.bounded = true
	}
}

// WithTTL expires entries d after they were stored.
func WithTTL(d time.Duration) Option {
	return func(c *config) {
		c.ttl = d
		c.ttlSet = true
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// WithLogger sets the logger used for eviction and expiry events.
func WithLogger(l log.Interface) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithMetrics reports cache events to m.
func WithMetrics(m memocache.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithSingleflight makes concurrent callers of the same missing key share a
// single invocation of the wrapped function.
func WithSingleflight() Option {
	return func(c *config) {
		c.singleflight = true
	}
}

func newConfig(opts []Option) (config, error) {
	c := config{
		now:     time.Now,
		log:     log.Log,
		metrics: memocache.NopMetrics(),
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.bounded && c.maxSize < 0 {
		return c, fmt.Errorf("%w: max size %d is negative", memocache.ErrConfiguration, c.maxSize)
	}
	if c.ttlSet && c.ttl <= 0 {
		return c, fmt.Errorf("%w: ttl %s is not positive", memocache.ErrConfiguration, c.ttl)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = log.Log
	}
	if c.metrics == nil {
		c.metrics = memocache.NopMetrics()
	}
	return c, nil
}
