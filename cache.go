// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memocache provides the shared types for memoizing function results.
package memocache

import (
	"errors"
	"time"
)

// Unbounded is reported as Stats.MaxSize when no size bound is configured.
const Unbounded = -1

var (
	// ErrConfiguration is returned when a cache is built with an invalid
	// size bound or time-to-live.
	ErrConfiguration = errors.New("invalid cache configuration")

	// ErrUnhashableArgument is returned when call arguments cannot form a
	// stable key.
	ErrUnhashableArgument = errors.New("unhashable argument")
)

// Entry is one memoized result.
type Entry[K comparable, V any] struct {
	Key       K
	Value     V
	CreatedAt time.Time
}

// Cacher stores memoized entries ordered by creation time.
type Cacher[K comparable, V any] interface {
	// Put inserts or replaces an element in the cache. If a new key had to
	// make room, the evicted entry is returned with ok set.
	Put(key K, value V, createdAt time.Time) (evicted Entry[K, V], ok bool)

	// Get returns the entry with the key, if it exists.
	Get(key K) (Entry[K, V], bool)

	// Evict removes the specified entry from the cache.
	Evict(key K) bool

	// Flush removes all entries from the cache.
	Flush()

	// Len returns the number of elements in the cache.
	Len() int

	// Full reports whether the next new key has to evict an entry.
	Full() bool

	// PortionFilled returns fraction of cache currently filled (0 --> 1).
	PortionFilled() float64
}

// Stats is a point-in-time snapshot of a cache.
type Stats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
}

// HitRate returns the fraction of calls answered from the cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
