package messenger

import (
	"context"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
	"weak"
)

// liveRef is a non-owning reference whose target may be collected.
type liveRef interface {
	// alive reports whether the reference still counts as live.
	alive() bool
	// resolved reports whether the reference currently points to a value.
	resolved() bool
	// same reports whether p is the referenced pointer.
	same(p any) bool
}

type weakRef[S any] struct {
	wp    weak.Pointer[S]
	isNil bool
}

func makeWeakRef[S any](p *S) weakRef[S] {
	return weakRef[S]{wp: weak.Make(p), isNil: p == nil}
}

// A nil target never dies: there is nothing to collect.
func (r weakRef[S]) alive() bool {
	return r.isNil || r.wp.Value() != nil
}

func (r weakRef[S]) resolved() bool {
	return r.wp.Value() != nil
}

func (r weakRef[S]) same(p any) bool {
	sp, ok := p.(*S)
	if !ok || sp == nil || r.isNil {
		return false
	}
	return weak.Make(sp) == r.wp
}

type handleState struct {
	subscriber liveRef
	owner      liveRef
}

func (st *handleState) alive() bool {
	if st == nil || !st.subscriber.alive() {
		return false
	}
	return st.owner == nil || st.owner.alive()
}

// weakHandle pairs a callback with non-owning references to the subscriber
// and, for method callbacks, the owner the method is bound to.
// A nil state means the handle was marked for deletion.
type weakHandle struct {
	state  atomic.Pointer[handleState]
	method string
	call   func(ctx context.Context, st *handleState, msg any) (bool, error)
}

func newHandle[T, S any](subscriber *S, fn func(context.Context, T) error) *weakHandle {
	h := &weakHandle{method: funcName(fn)}
	h.state.Store(&handleState{subscriber: makeWeakRef(subscriber)})
	h.call = func(ctx context.Context, _ *handleState, msg any) (bool, error) {
		v, ok := convert[T](msg)
		if !ok {
			return false, nil
		}
		return true, fn(ctx, v)
	}
	return h
}

func newMethodHandle[T, S, O any](subscriber *S, owner *O, method func(*O, context.Context, T) error) *weakHandle {
	h := &weakHandle{method: funcName(method)}
	h.state.Store(&handleState{subscriber: makeWeakRef(subscriber), owner: makeWeakRef(owner)})
	h.call = func(ctx context.Context, st *handleState, msg any) (bool, error) {
		v, ok := convert[T](msg)
		if !ok {
			return false, nil
		}
		ref, _ := st.owner.(weakRef[O])
		o := ref.wp.Value()
		if o == nil {
			return false, nil
		}
		return true, method(o, ctx, v)
	}
	return h
}

// IsAlive reports whether the handle may still be invoked.
func (h *weakHandle) IsAlive() bool {
	return h.state.Load().alive()
}

// MarkForDeletion drops every reference the handle holds. It is permanent.
func (h *weakHandle) MarkForDeletion() {
	h.state.Store(nil)
}

// subscribedBy reports whether subscriber is the pointer this handle was registered with.
func (h *weakHandle) subscribedBy(subscriber any) bool {
	st := h.state.Load()
	return st != nil && st.subscriber.same(subscriber)
}

// execute runs the callback if the handle is alive, the subscriber resolves
// and msg converts to the callback parameter. The bool reports whether the
// callback ran.
func (h *weakHandle) execute(ctx context.Context, msg any) (bool, error) {
	st := h.state.Load()
	if !st.alive() || !st.subscriber.resolved() {
		return false, nil
	}
	return h.call(ctx, st, msg)
}

// convert asserts msg to T. A nil msg converts to the zero T when T is nilable.
func convert[T any](msg any) (T, bool) {
	if v, ok := msg.(T); ok {
		return v, true
	}
	var zero T
	if msg != nil {
		return zero, false
	}
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return zero, true
	}
	return zero, false
}

// funcName returns the bare name of a function or method value,
// e.g. "OnOrderPlaced" for (*Inbox).OnOrderPlaced or inbox.OnOrderPlaced.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := strings.TrimSuffix(f.Name(), "-fm")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
