// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metercacher reports memo cache activity to Prometheus.
package metercacher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/memocache"
)

var _ memocache.Metrics = (*Metrics)(nil)

// Metrics implements memocache.Metrics on top of a Prometheus registry.
type Metrics struct {
	*cacheMetrics
}

// New creates metrics under namespace and registers them with registry.
func New(namespace string, registry prometheus.Registerer) (*Metrics, error) {
	metrics, err := newMetrics(namespace, registry)
	return &Metrics{cacheMetrics: metrics}, err
}

func (m *Metrics) Hit() {
	m.calls.With(hitLabels).Inc()
}

func (m *Metrics) Miss(d time.Duration) {
	m.calls.With(missLabels).Inc()
	m.computeTime.Observe(d.Seconds())
}

func (m *Metrics) Evicted() {
	m.evictions.Inc()
}

func (m *Metrics) Expired() {
	m.expirations.Inc()
}

func (m *Metrics) Len(size int, portionFilled float64) {
	m.len.Set(float64(size))
	m.portionFilled.Set(portionFilled)
}
