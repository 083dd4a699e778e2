// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memo memoizes function results with an optional size bound and
// time-to-live.
//
// # Modes
//
// The size bound picks one of three modes:
//
//   - no [WithMaxSize]: unbounded, entries live until [Cache.Clear] or expiry
//   - WithMaxSize(0): disabled, every call invokes the function
//   - WithMaxSize(n): at most n entries; a new key inserted into a full cache
//     evicts the entry created first
//
// Eviction is by creation time, not by access: reading an entry does not
// protect it. Storing a key again after it expired refreshes its creation
// time and never evicts another entry.
//
// [WithTTL] expires entries once their age reaches the given duration, in
// bounded and unbounded mode alike. Expired entries are removed lazily, on the
// next call for their key.
//
// # Accounting
//
// Every call answered from the cache counts as a hit. Every invocation of the
// wrapped function counts as a miss, including invocations that fail. Errors
// from the wrapped function are returned unchanged and never cached.
//
// # Usage
//
//	lookup, c, err := memo.Wrap(resolveHost,
//	    memo.WithMaxSize(1024),
//	    memo.WithTTL(5*time.Minute),
//	)
//	addr, err := lookup("example.com") // invokes resolveHost
//	addr, err = lookup("example.com")  // hit
//	fmt.Println(c.Stats().Hits)        // 1
//
// Functions with several arguments either take a comparable struct, or are
// wrapped with [NewFunc], which derives keys through package key:
//
//	search, err := memo.NewFunc(func(a key.Args) ([]Result, error) {
//	    return index.Search(a.Positional[0].(string), a.Named["limit"].(int))
//	}, memo.WithMaxSize(64))
//	res, err := search.CallArgs(key.Args{
//	    Positional: []any{"lux"},
//	    Named:      map[string]any{"limit": 10},
//	})
//
// # Concurrency
//
// A Cache is safe for concurrent use. Without [WithSingleflight], two callers
// missing the same key both invoke the function and the later result wins.
// With it, only one invocation runs per key at a time and the other callers
// receive its result, which counts as a hit for them.
package memo
