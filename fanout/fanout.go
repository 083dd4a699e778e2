// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fanout spreads work over a fixed pool of goroutines.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Failure pairs an input with the error it produced.
type Failure[T any] struct {
	Input T
	Err   error
}

type outcome[R any] struct {
	value R
	err   error
	done  bool
}

// Map applies fn to every item on workers goroutines. It returns the results
// of the successful calls and the failed inputs, both in input order.
//
// A panic in fn is reported as a failure of that input. Items not started
// before ctx ends fail with ctx.Err().
func Map[T, R any](ctx context.Context, items []T, fn func(T) (R, error), workers int) ([]R, []Failure[T]) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	outcomes := make([]outcome[R], len(items))
	tasks := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				v, err := call(fn, items[i])
				outcomes[i] = outcome[R]{value: v, err: err, done: true}
			}
		}()
	}

dispatch:
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case tasks <- i:
		}
	}
	close(tasks)
	wg.Wait()

	var (
		results  []R
		failures []Failure[T]
	)
	for i, o := range outcomes {
		switch {
		case !o.done:
			failures = append(failures, Failure[T]{Input: items[i], Err: ctx.Err()})
		case o.err != nil:
			failures = append(failures, Failure[T]{Input: items[i], Err: o.err})
		default:
			results = append(results, o.value)
		}
	}
	return results, failures
}

// call runs fn, turning a panic into an error.
func call[T, R any](fn func(T) (R, error), item T) (v R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in task processing: %v", r)
		}
	}()
	return fn(item)
}

// Open marks an unbounded side of a Part range.
const Open = -1

// ErrPartRange is returned when a Part bound lies outside [0, parts].
var ErrPartRange = errors.New("part bound out of range")

// Part splits s into parts equal chunks of len(s)/parts elements and returns
// chunks [start, end). Either bound may be Open. With an Open end the last
// chunk also takes the remainder.
func Part[T any](s []T, parts, start, end int) ([]T, error) {
	if parts <= 0 {
		return nil, fmt.Errorf("%w: parts %d", ErrPartRange, parts)
	}
	if start != Open && (start < 0 || start > parts) {
		return nil, fmt.Errorf("%w: start %d not in [0, %d]", ErrPartRange, start, parts)
	}
	if end != Open && (end < 0 || end > parts) {
		return nil, fmt.Errorf("%w: end %d not in [0, %d]", ErrPartRange, end, parts)
	}

	chunk := len(s) / parts
	lo, hi := 0, len(s)
	if start != Open {
		lo = start * chunk
	}
	if end != Open {
		hi = end * chunk
	}
	if hi < lo {
		return s[lo:lo], nil
	}
	return s[lo:hi], nil
}
