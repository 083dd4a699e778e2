// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package repeat re-runs a call forever with a fixed pause between runs.
package repeat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
)

// ErrInvalidInterval is returned for a negative interval.
var ErrInvalidInterval = errors.New("interval must not be negative")

type options struct {
	exitOn []error
	log    log.Interface
}

// Option configures Every.
type Option func(*options)

// ExitOn makes errors matching any of errs (by errors.Is) stop the loop.
func ExitOn(errs ...error) Option {
	return func(o *options) {
		o.exitOn = append(o.exitOn, errs...)
	}
}

// WithLogger sets the logger for failed runs. Defaults to log.Log.
func WithLogger(l log.Interface) Option {
	return func(o *options) {
		o.log = l
	}
}

// Every runs fn, waits interval and runs it again until ctx ends or fn
// returns a terminal error. Other errors, and panics, are logged and the loop
// goes on.
//
// Every returns the terminal error, or ctx.Err().
func Every(ctx context.Context, interval time.Duration, fn func(context.Context) error, opts ...Option) error {
	if interval < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	o := options{log: log.Log}
	for _, opt := range opts {
		opt(&o)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := run(ctx, fn); err != nil {
			o.log.WithError(err).Error("repeat: run failed")
			if o.terminal(err) {
				return err
			}
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (o *options) terminal(err error) bool {
	for _, target := range o.exitOn {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// run calls fn, turning a panic into an error.
func run(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
