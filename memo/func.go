// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package memo

import (
	"fmt"

	"github.com/luxfi/memocache"
	"github.com/luxfi/memocache/key"
)

// Func memoizes a function of an arbitrary argument list. Arguments are
// turned into a key.Key on every call.
//
// Entries hold on to the arguments they were computed for. A pointer argument
// is keyed by its address, so the object must not be freed and its address
// reused while the entry is live.
type Func[V any] struct {
	cache *Cache[key.Key, funcEntry[V]]
	fn    func(key.Args) (V, error)
}

type funcEntry[V any] struct {
	args  key.Args
	value V
}

// NewFunc wraps fn in a Func.
func NewFunc[V any](fn func(key.Args) (V, error), opts ...Option) (*Func[V], error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", memocache.ErrConfiguration)
	}
	c, err := newCache[key.Key, funcEntry[V]](nil, opts)
	if err != nil {
		return nil, err
	}
	return &Func[V]{cache: c, fn: fn}, nil
}

// Call invokes the function with positional arguments.
func (f *Func[V]) Call(args ...any) (V, error) {
	return f.CallArgs(key.Args{Positional: args})
}

// CallArgs invokes the function with positional and keyword arguments.
func (f *Func[V]) CallArgs(args key.Args) (V, error) {
	k, err := key.Make(args)
	if err != nil {
		var zero V
		return zero, err
	}
	e, err := f.cache.call(k, func() (funcEntry[V], error) {
		v, err := f.fn(args)
		return funcEntry[V]{args: pin(args), value: v}, err
	})
	return e.value, err
}

// pin copies args so that later changes by the caller to the slice or map do
// not release the values the key was made from.
func pin(args key.Args) key.Args {
	p := key.Args{Positional: append([]any(nil), args.Positional...)}
	if len(args.Named) > 0 {
		p.Named = make(map[string]any, len(args.Named))
		for name, v := range args.Named {
			p.Named[name] = v
		}
	}
	return p
}

// Stats returns a snapshot of the cache counters.
func (f *Func[V]) Stats() memocache.Stats {
	return f.cache.Stats()
}

// Clear empties the cache and resets its counters.
func (f *Func[V]) Clear() {
	f.cache.Clear()
}
