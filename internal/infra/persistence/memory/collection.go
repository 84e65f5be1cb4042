package memory

import "sort"

// collection is a keyed set of records with deep-copy semantics on every
// read and write. The clone function must return a copy that shares no
// mutable state with its input.
type collection[T any] struct {
	items map[string]T
	clone func(T) T
}

func newCollection[T any](clone func(T) T) collection[T] {
	return collection[T]{items: make(map[string]T), clone: clone}
}

func (c collection[T]) get(key string) (T, bool) {
	v, ok := c.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(v), true
}

func (c collection[T]) set(key string, v T) {
	c.items[key] = c.clone(v)
}

func (c collection[T]) delete(key string) {
	delete(c.items, key)
}

func (c collection[T]) has(key string) bool {
	_, ok := c.items[key]
	return ok
}

func (c collection[T]) len() int {
	return len(c.items)
}

// values returns cloned records ordered by key so listings are stable.
func (c collection[T]) values() []T {
	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.clone(c.items[k]))
	}
	return out
}

func (c collection[T]) copy() collection[T] {
	cp := newCollection(c.clone)
	for k, v := range c.items {
		cp.items[k] = c.clone(v)
	}
	return cp
}

func (c collection[T]) export() map[string]T {
	out := make(map[string]T, len(c.items))
	for k, v := range c.items {
		out[k] = c.clone(v)
	}
	return out
}
