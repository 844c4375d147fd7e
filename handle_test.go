package messenger

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	name  string
	calls int
}

func (p *probe) Handle(_ context.Context, msg string) error {
	p.calls++
	if msg == "fail" {
		return errors.New("failed")
	}
	return nil
}

func TestWeakHandle_Closure(t *testing.T) {
	t.Parallel()
	sub := &probe{name: "sub"}
	var got string

	h := newHandle(sub, func(_ context.Context, msg string) error {
		got = msg
		return nil
	})
	require.True(t, h.IsAlive())
	assert.True(t, h.subscribedBy(sub))
	assert.False(t, h.subscribedBy(&probe{name: "other"}))
	assert.False(t, h.subscribedBy("sub"))

	delivered, err := h.execute(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, "hello", got)

	delivered, err = h.execute(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, delivered, "a message that does not convert is skipped")

	h.MarkForDeletion()
	assert.False(t, h.IsAlive())
	assert.False(t, h.subscribedBy(sub))

	delivered, err = h.execute(context.Background(), "again")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Equal(t, "hello", got)

	runtime.KeepAlive(sub)
}

func TestWeakHandle_Method(t *testing.T) {
	t.Parallel()
	sub := &probe{name: "sub"}
	owner := &probe{name: "owner"}

	h := newMethodHandle(sub, owner, (*probe).Handle)
	assert.Equal(t, "Handle", h.method)

	delivered, err := h.execute(context.Background(), "fail")
	assert.True(t, delivered)
	require.Error(t, err)
	assert.Equal(t, 1, owner.calls)
	assert.Equal(t, 0, sub.calls)

	runtime.KeepAlive(sub)
	runtime.KeepAlive(owner)
}

func TestWeakHandle_NilSubscriber(t *testing.T) {
	t.Parallel()
	called := false
	h := newHandle[string, probe](nil, func(context.Context, string) error {
		called = true
		return nil
	})

	assert.True(t, h.IsAlive())
	assert.False(t, h.subscribedBy((*probe)(nil)))

	delivered, err := h.execute(context.Background(), "hello")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.False(t, called)
}

func TestConvert(t *testing.T) {
	t.Parallel()

	v, ok := convert[string]("x")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = convert[string](1)
	assert.False(t, ok)

	_, ok = convert[string](nil)
	assert.False(t, ok)

	e, ok := convert[error](nil)
	assert.True(t, ok)
	assert.Nil(t, e)

	p, ok := convert[*probe](nil)
	assert.True(t, ok)
	assert.Nil(t, p)
}

func freeHandler(context.Context, string) error { return nil }

func TestFuncName(t *testing.T) {
	t.Parallel()
	p := &probe{}

	assert.Equal(t, "Handle", funcName((*probe).Handle))
	assert.Equal(t, "Handle", funcName(p.Handle))
	assert.Equal(t, "freeHandler", funcName(freeHandler))
	assert.Empty(t, funcName(nil))
	assert.Empty(t, funcName("not a func"))
	assert.Empty(t, funcName((func())(nil)))
}

func TestTokens(t *testing.T) {
	t.Parallel()

	assert.True(t, tokensMatch(nil, nil))
	assert.False(t, tokensMatch("a", nil))
	assert.False(t, tokensMatch(nil, "a"))
	assert.True(t, tokensMatch("a", "a"))
	assert.False(t, tokensMatch("a", "b"))
	assert.False(t, tokensMatch(1, int64(1)), "tokens of different types never match")
	assert.True(t, tokensMatch([]int{1, 2}, []int{1, 2}))
	assert.False(t, tokensMatch([]int{1, 2}, []int{2, 1}))
	assert.True(t, tokensMatch(map[string]int{"a": 1}, map[string]int{"a": 1}))
}
