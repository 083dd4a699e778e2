// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memocache

import "time"

// Metrics receives cache events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// Hit records a call answered from the cache.
	Hit()
	// Miss records a call that invoked the wrapped function and how long
	// the function took.
	Miss(d time.Duration)
	// Evicted records an entry removed to stay within the size bound.
	Evicted()
	// Expired records an entry removed because it outlived its TTL.
	Expired()
	// Len records the current table size.
	Len(size int, portionFilled float64)
}

type nopMetrics struct{}

func (nopMetrics) Hit()               {}
func (nopMetrics) Miss(time.Duration) {}
func (nopMetrics) Evicted()           {}
func (nopMetrics) Expired()           {}
func (nopMetrics) Len(int, float64)   {}

// NopMetrics returns Metrics that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }
