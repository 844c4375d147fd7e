package messenger

import (
	"reflect"
	"slices"
	"strings"
	"sync"
)

// typeKey identifies a bucket. Named types are keyed by package path and name
// with any type arguments stripped, so every instantiation of a generic type
// shares one bucket. Pointers to named types are keyed the same way with the
// pointer flag set, so *Envelope[int] and *Envelope[string] share a bucket
// apart from Envelope[int]. Other unnamed types are keyed by the type itself.
type typeKey struct {
	pkg     string
	name    string
	pointer bool
	unnamed reflect.Type
}

func keyOf(t reflect.Type) typeKey {
	pointer := false
	if t.Name() == "" && t.Kind() == reflect.Pointer && t.Elem().Name() != "" {
		t, pointer = t.Elem(), true
	}

	name := t.Name()
	if name == "" {
		return typeKey{unnamed: t}
	}
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return typeKey{pkg: t.PkgPath(), name: name, pointer: pointer}
}

// related reports whether a bucket registered for k receives messages routed as m.
// Matching is bidirectional: an interface bucket receives the types that
// implement it, and a concrete bucket receives sends routed through an
// interface it implements.
func related(k, m reflect.Type) bool {
	return k == m || keyOf(k) == keyOf(m) || m.AssignableTo(k) || k.AssignableTo(m)
}

type bucket struct {
	typ     reflect.Type
	entries []*Subscription
}

// table maps message types to subscription entries in registration order.
type table struct {
	mu      sync.Mutex
	buckets map[typeKey]*bucket
	keys    []typeKey
}

func newTable() *table {
	return &table{buckets: make(map[typeKey]*bucket)}
}

func (t *table) add(typ reflect.Type, s *Subscription) {
	key := keyOf(typ)

	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{typ: typ}
		t.buckets[key] = b
		t.keys = append(t.keys, key)
	}
	b.entries = append(b.entries, s)
}

// exact snapshots the bucket keyed by typ.
func (t *table) exact(typ reflect.Type) []*Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[keyOf(typ)]
	if !ok {
		return nil
	}
	return slices.Clone(b.entries)
}

// matching snapshots every bucket related to typ, in bucket creation order.
func (t *table) matching(typ reflect.Type) []*Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*Subscription
	for _, key := range t.keys {
		b := t.buckets[key]
		if related(b.typ, typ) {
			out = append(out, b.entries...)
		}
	}
	return out
}

// markAll marks every entry satisfying match for deletion and returns how many it marked.
func (t *table) markAll(match func(*Subscription) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	marked := 0
	for _, b := range t.buckets {
		marked += markEntries(b.entries, match)
	}
	return marked
}

// markType is markAll restricted to the bucket keyed by typ.
func (t *table) markType(typ reflect.Type, match func(*Subscription) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[keyOf(typ)]
	if !ok {
		return 0
	}
	return markEntries(b.entries, match)
}

func markEntries(entries []*Subscription, match func(*Subscription) bool) int {
	marked := 0
	for _, s := range entries {
		if s.handle.IsAlive() && match(s) {
			s.handle.MarkForDeletion()
			marked++
		}
	}
	return marked
}

// purge removes dead entries and empty buckets. It returns the number of entries removed.
func (t *table) purge() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	t.keys = slices.DeleteFunc(t.keys, func(key typeKey) bool {
		b := t.buckets[key]
		before := len(b.entries)
		b.entries = slices.DeleteFunc(b.entries, func(s *Subscription) bool {
			return !s.handle.IsAlive()
		})
		removed += before - len(b.entries)
		if len(b.entries) == 0 {
			delete(t.buckets, key)
			return true
		}
		return false
	})
	return removed
}

func (t *table) size() (types, entries int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, b := range t.buckets {
		entries += len(b.entries)
	}
	return len(t.buckets), entries
}
