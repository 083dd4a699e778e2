// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package key derives cache keys from call arguments.
//
// A Key is a canonical encoding of the argument types and values. Two argument
// lists produce the same Key iff they hold values of the same types that
// compare equal, bound to the same keyword names. Pointers, channels and
// unsafe pointers are keyed by identity. Slices, maps and funcs have no stable
// identity and are rejected with memocache.ErrUnhashableArgument.
//
// A Key records addresses, not references. Whoever stores a Key must keep the
// arguments it was made from reachable for as long as the Key is in use.
package key

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/luxfi/memocache"
)

// Key identifies one argument list.
type Key string

// Args is a full argument list: positional values plus keyword bindings.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Of returns the Key of a positional argument list.
func Of(args ...any) (Key, error) {
	return Make(Args{Positional: args})
}

// Make returns the Key of args. Keyword order does not matter.
func Make(args Args) (Key, error) {
	var e encoder
	e.b.WriteByte('(')
	for i, arg := range args.Positional {
		if err := e.encode(reflect.ValueOf(arg)); err != nil {
			return "", fmt.Errorf("positional argument %d: %w", i, err)
		}
	}
	if len(args.Named) > 0 {
		names := make([]string, 0, len(args.Named))
		for name := range args.Named {
			names = append(names, name)
		}
		sort.Strings(names)

		e.b.WriteByte(';')
		for _, name := range names {
			e.atom(name)
			if err := e.encode(reflect.ValueOf(args.Named[name])); err != nil {
				return "", fmt.Errorf("keyword argument %q: %w", name, err)
			}
		}
	}
	e.b.WriteByte(')')
	return Key(e.b.String()), nil
}

// Check reports whether v can be part of a Key.
func Check(v any) error {
	var e encoder
	return e.encode(reflect.ValueOf(v))
}

type encoder struct {
	b strings.Builder
}

// atom writes s length-prefixed so that concatenations stay unambiguous.
func (e *encoder) atom(s string) {
	e.b.WriteString(strconv.Itoa(len(s)))
	e.b.WriteByte(':')
	e.b.WriteString(s)
}

func (e *encoder) encode(v reflect.Value) error {
	if !v.IsValid() {
		e.atom("nil")
		return nil
	}

	t := v.Type()
	e.atom(typeName(t))

	switch v.Kind() {
	case reflect.Bool:
		e.atom(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.atom(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.atom(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		e.float(v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		e.float(real(c))
		e.float(imag(c))
	case reflect.String:
		e.atom(v.String())
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		e.atom(strconv.FormatUint(uint64(v.Pointer()), 16))
	case reflect.Interface:
		if v.IsNil() {
			e.atom("nil")
			return nil
		}
		return e.encode(v.Elem())
	case reflect.Array:
		e.b.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if err := e.encode(v.Index(i)); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		e.b.WriteByte(']')
	case reflect.Struct:
		e.b.WriteByte('{')
		for i := 0; i < v.NumField(); i++ {
			if err := e.encode(v.Field(i)); err != nil {
				return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
			}
		}
		e.b.WriteByte('}')
	default:
		return fmt.Errorf("%w: %s", memocache.ErrUnhashableArgument, t)
	}
	return nil
}

func (e *encoder) float(f float64) {
	if f == 0 {
		// -0 == +0
		f = 0
	}
	if math.IsNaN(f) {
		e.atom("NaN")
		return
	}
	e.atom(strconv.FormatUint(math.Float64bits(f), 16))
}

func typeName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
