// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package retry re-invokes failing calls with a fixed wait between attempts.
package retry

import (
	"context"
	"time"

	"github.com/apex/log"
)

const (
	defaultRetries = 1
	defaultWait    = time.Second
)

type options struct {
	retries int
	wait    time.Duration
	untilOK bool
	onError func(error)
	log     log.Interface
}

// Option configures Do.
type Option func(*options)

// WithRetries sets the total number of attempts. Values below 1 mean 1.
func WithRetries(n int) Option {
	return func(o *options) {
		o.retries = n
	}
}

// WithWait sets the delay between attempts.
func WithWait(d time.Duration) Option {
	return func(o *options) {
		o.wait = d
	}
}

// UntilOK retries until the call succeeds or the context ends, ignoring
// WithRetries.
func UntilOK() Option {
	return func(o *options) {
		o.untilOK = true
	}
}

// WithErrorCallback calls cb after every failed attempt that is going to be
// retried.
func WithErrorCallback(cb func(error)) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// WithLogger logs the error that ends the retries.
func WithLogger(l log.Interface) Option {
	return func(o *options) {
		o.log = l
	}
}

func newOptions(opts []Option) options {
	o := options{
		retries: defaultRetries,
		wait:    defaultWait,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.retries < 1 {
		o.retries = 1
	}
	return o
}

// Do calls fn until it succeeds and returns the last error of fn unchanged.
// It stops early when ctx ends.
func Do(ctx context.Context, fn func(context.Context) error, opts ...Option) error {
	_, err := DoValue(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)
	return err
}

// DoValue is Do for functions returning a value.
func DoValue[T any](ctx context.Context, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	o := newOptions(opts)

	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		last := !o.untilOK && attempt >= o.retries
		if last {
			if o.log != nil {
				o.log.WithError(err).WithField("attempts", attempt).Error("retry: giving up")
			}
			return v, err
		}

		if o.onError != nil {
			o.onError(err)
		}
		if sleep(ctx, o.wait) != nil {
			return v, err
		}
	}
}

// Result calls fn until it reports ok, at most retries times, and returns
// the last value.
func Result[T any](ctx context.Context, fn func(context.Context) (T, bool), retries int, wait time.Duration) (T, bool) {
	if retries < 1 {
		retries = 1
	}
	var (
		v  T
		ok bool
	)
	for attempt := 1; attempt <= retries; attempt++ {
		if v, ok = fn(ctx); ok {
			return v, true
		}
		if attempt == retries {
			break
		}
		if err := sleep(ctx, wait); err != nil {
			break
		}
	}
	return v, false
}

// Each calls fn on every item in order. A failing item is retried in place;
// after retries failed passes the item and everything after it is returned.
func Each[T any](ctx context.Context, items []T, fn func(T) error, retries int) (bool, []T) {
	if retries < 1 {
		retries = 1
	}
	next := 0
	for pass := 0; pass < retries; pass++ {
		for next < len(items) {
			if ctx.Err() != nil {
				return false, items[next:]
			}
			if err := fn(items[next]); err != nil {
				break
			}
			next++
		}
		if next == len(items) {
			return true, nil
		}
	}
	return false, items[next:]
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
