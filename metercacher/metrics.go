// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const resultLabel = "result"

var (
	resultLabels = []string{resultLabel}
	hitLabels    = prometheus.Labels{
		resultLabel: "hit",
	}
	missLabels = prometheus.Labels{
		resultLabel: "miss",
	}

	// Latency buckets in seconds.
	computeBuckets = []float64{
		.0001, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10,
	}
)

type cacheMetrics struct {
	calls       *prometheus.CounterVec
	computeTime prometheus.Histogram

	evictions   prometheus.Counter
	expirations prometheus.Counter

	// len is the number of entries in the cache
	len prometheus.Gauge

	// portionFilled is the fraction of the size bound in use
	portionFilled prometheus.Gauge
}

func newMetrics(
	namespace string,
	reg prometheus.Registerer,
) (*cacheMetrics, error) {
	m := &cacheMetrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "number of calls, by whether they were answered from the cache",
			},
			resultLabels,
		),
		computeTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compute_duration_seconds",
				Help:      "time spent in the wrapped function on a miss",
				Buckets:   computeBuckets,
			},
		),
		evictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evictions_total",
				Help:      "number of entries evicted to stay within the size bound",
			},
		),
		expirations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "expirations_total",
				Help:      "number of entries removed after their ttl",
			},
		),
		len: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "len",
				Help:      "number of entries",
			},
		),
		portionFilled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "portion_filled",
				Help:      "fraction of the size bound that is filled",
			},
		),
	}
	return m, errors.Join(
		reg.Register(m.calls),
		reg.Register(m.computeTime),
		reg.Register(m.evictions),
		reg.Register(m.expirations),
		reg.Register(m.len),
		reg.Register(m.portionFilled),
	)
}
