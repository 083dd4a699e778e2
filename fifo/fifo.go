// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fifo provides a cache table that evicts the oldest entry by
// creation time.
package fifo

import (
	"container/list"
	"time"

	"github.com/luxfi/memocache"
)

var _ memocache.Cacher[struct{}, struct{}] = (*Table[struct{}, struct{}])(nil)

// Table is a creation-ordered cache table. Reads do not change the order;
// only inserting a key does.
//
// Table is not safe for concurrent use. The owner serializes access.
type Table[K comparable, V any] struct {
	maxSize  int
	full     bool
	elements map[K]*list.Element
	order    *list.List // front = newest, back = oldest
}

// New creates a table holding at most maxSize entries. A maxSize <= 0 means
// the table is unbounded.
func New[K comparable, V any](maxSize int) *Table[K, V] {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Table[K, V]{
		maxSize:  maxSize,
		elements: make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Put inserts an element into the table. A key that is not equal to itself,
// such as NaN, is not stored.
func (t *Table[K, V]) Put(key K, value V, createdAt time.Time) (memocache.Entry[K, V], bool) {
	if key != key {
		return memocache.Entry[K, V]{}, false
	}
	if elem, ok := t.elements[key]; ok {
		// Replace in place; a re-inserted key never counts twice.
		e := elem.Value.(*memocache.Entry[K, V])
		e.Value = value
		e.CreatedAt = createdAt
		t.order.MoveToFront(elem)
		return memocache.Entry[K, V]{}, false
	}

	var (
		evicted    memocache.Entry[K, V]
		hasEvicted bool
	)
	if t.full {
		if oldest := t.order.Back(); oldest != nil {
			evicted = *oldest.Value.(*memocache.Entry[K, V])
			hasEvicted = true
			t.removeElement(oldest)
		}
	}

	e := &memocache.Entry[K, V]{Key: key, Value: value, CreatedAt: createdAt}
	t.elements[key] = t.order.PushFront(e)
	t.full = t.maxSize > 0 && t.order.Len() >= t.maxSize
	return evicted, hasEvicted
}

// Get returns the entry with the key, if it exists.
func (t *Table[K, V]) Get(key K) (memocache.Entry[K, V], bool) {
	if elem, ok := t.elements[key]; ok {
		return *elem.Value.(*memocache.Entry[K, V]), true
	}
	return memocache.Entry[K, V]{}, false
}

// Oldest returns the entry that would be evicted next.
func (t *Table[K, V]) Oldest() (memocache.Entry[K, V], bool) {
	if back := t.order.Back(); back != nil {
		return *back.Value.(*memocache.Entry[K, V]), true
	}
	return memocache.Entry[K, V]{}, false
}

// Evict removes the specified entry from the table.
func (t *Table[K, V]) Evict(key K) bool {
	elem, ok := t.elements[key]
	if !ok {
		return false
	}
	t.removeElement(elem)
	return true
}

// Flush removes all entries from the table.
func (t *Table[K, V]) Flush() {
	t.elements = make(map[K]*list.Element)
	t.order.Init()
	t.full = false
}

// Len returns the number of elements in the table.
func (t *Table[K, V]) Len() int {
	return t.order.Len()
}

// Full reports whether the next new key evicts the oldest entry.
func (t *Table[K, V]) Full() bool {
	return t.full
}

// PortionFilled returns fraction of table currently filled. An unbounded
// table always reports 0.
func (t *Table[K, V]) PortionFilled() float64 {
	if t.maxSize == 0 {
		return 0
	}
	return float64(t.order.Len()) / float64(t.maxSize)
}

// Keys returns the keys from oldest to newest.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, 0, t.order.Len())
	for elem := t.order.Back(); elem != nil; elem = elem.Prev() {
		keys = append(keys, elem.Value.(*memocache.Entry[K, V]).Key)
	}
	return keys
}

func (t *Table[K, V]) removeElement(elem *list.Element) {
	e := elem.Value.(*memocache.Entry[K, V])
	delete(t.elements, e.Key)
	t.order.Remove(elem)
	if t.order.Len() < t.maxSize {
		t.full = false
	}
}
