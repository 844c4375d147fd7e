package loop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/messenger/core/logger"
	"github.com/dmitrymomot/messenger/pkg/async"
)

type task struct {
	ctx    context.Context
	work   func(context.Context) error
	future *async.ExecFuture
	settle func(error)
}

type onLoopCtx struct{}

// Loop runs work items one at a time on a single goroutine locked to its OS
// thread. Work submitted from inside the loop runs inline.
type Loop struct {
	queueSize       int
	shutdownTimeout time.Duration
	logger          *slog.Logger

	work chan task
	wake chan struct{}
	quit chan struct{}

	// gate serializes the closed flag against in-flight Invoke calls.
	gate   sync.RWMutex
	closed bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	idleMu sync.Mutex
	idle   []func()

	processed atomic.Int64
	failed    atomic.Int64
	idleRuns  atomic.Int64
	running   atomic.Bool
}

// Stats reports loop activity.
type Stats struct {
	Processed int64
	Failed    int64
	IdleRuns  int64
	Queued    int
	IsRunning bool
}

// New creates a loop. It does nothing until Start or Run is called; work
// submitted before that waits in the queue.
func New(opts ...Option) *Loop {
	l := &Loop{
		queueSize:       DefaultConfig().QueueSize,
		shutdownTimeout: DefaultConfig().ShutdownTimeout,
		logger:          logger.Discard(),
		wake:            make(chan struct{}, 1),
		quit:            make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	l.work = make(chan task, l.queueSize)
	return l
}

// Start runs the loop on the calling goroutine until ctx is cancelled or Stop
// is called. It is blocking; use Run for errgroup integration.
// A loop cannot be restarted once it has exited.
func (l *Loop) Start(ctx context.Context) error {
	l.gate.RLock()
	closed := l.closed
	l.gate.RUnlock()
	if closed {
		return ErrLoopStopped
	}

	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return ErrLoopAlreadyStarted
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.running.Store(true)
	defer close(done)
	defer l.shutdown()

	l.logger.InfoContext(ctx, "loop started", logger.Component("loop"), logger.Count("queue_size", l.queueSize))

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loop stopping", logger.Component("loop"))
			return ctx.Err()
		case t := <-l.work:
			l.execute(t)
			if len(l.work) == 0 {
				l.runIdle()
			}
		case <-l.wake:
			if len(l.work) == 0 {
				l.runIdle()
			}
		}
	}
}

// Stop cancels the loop and waits up to the shutdown timeout for it to exit.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if l.cancel == nil {
		l.mu.Unlock()
		return ErrLoopNotStarted
	}
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.mu.Unlock()

	cancel()

	timer := time.NewTimer(l.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		l.logger.Info("loop stopped cleanly", logger.Component("loop"))
		return nil
	case <-timer.C:
		l.logger.Warn("loop shutdown timeout exceeded",
			logger.Component("loop"),
			logger.Duration(l.shutdownTimeout))
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, l.shutdownTimeout)
	}
}

// Run provides errgroup compatibility. The returned function starts the loop
// and stops it when ctx is cancelled.
func (l *Loop) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- l.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = l.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Invoke schedules work on the loop goroutine and returns its completion.
// Called from work already running on this loop, it runs inline.
// Blocks while the queue is full, bounded by ctx.
func (l *Loop) Invoke(ctx context.Context, work func(context.Context) error) *async.ExecFuture {
	if work == nil {
		return async.Completed(nil)
	}
	if l.OnLoop(ctx) {
		return async.Completed(l.call(ctx, work))
	}

	future, settle := async.NewPromise()
	t := task{ctx: ctx, work: work, future: future, settle: settle}

	l.gate.RLock()
	defer l.gate.RUnlock()

	if l.closed {
		settle(ErrLoopStopped)
		return future
	}

	select {
	case l.work <- t:
	case <-l.quit:
		settle(ErrLoopStopped)
	case <-ctx.Done():
		settle(ctx.Err())
	}
	return future
}

// ScheduleIdle runs work once the queue is drained. After the loop has exited
// the work runs on its own goroutine so it is not lost.
func (l *Loop) ScheduleIdle(work func()) {
	if work == nil {
		return
	}

	l.gate.RLock()
	closed := l.closed
	if !closed {
		l.idleMu.Lock()
		l.idle = append(l.idle, work)
		l.idleMu.Unlock()
	}
	l.gate.RUnlock()

	if closed {
		go l.runSafe(work)
		return
	}

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// OnLoop reports whether ctx belongs to work running on this loop.
func (l *Loop) OnLoop(ctx context.Context) bool {
	owner, ok := ctx.Value(onLoopCtx{}).(*Loop)
	return ok && owner == l
}

// Stats returns current loop statistics.
func (l *Loop) Stats() Stats {
	return Stats{
		Processed: l.processed.Load(),
		Failed:    l.failed.Load(),
		IdleRuns:  l.idleRuns.Load(),
		Queued:    len(l.work),
		IsRunning: l.running.Load(),
	}
}

// Healthcheck returns ErrLoopNotRunning unless the loop is processing work.
func (l *Loop) Healthcheck(_ context.Context) error {
	if !l.running.Load() {
		return ErrLoopNotRunning
	}
	return nil
}

func (l *Loop) execute(t task) {
	if err := t.ctx.Err(); err != nil {
		l.failed.Add(1)
		t.settle(err)
		return
	}

	err := l.call(context.WithValue(t.ctx, onLoopCtx{}, l), t.work)
	l.processed.Add(1)
	if err != nil {
		l.failed.Add(1)
	}
	t.settle(err)
}

func (l *Loop) call(ctx context.Context, work func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.ErrorContext(ctx, "loop work panicked",
				logger.Component("loop"),
				logger.Panic(r))
			err = fmt.Errorf("%w: %v", ErrWorkPanicked, r)
		}
	}()
	return work(ctx)
}

func (l *Loop) runIdle() {
	l.idleMu.Lock()
	pending := l.idle
	l.idle = nil
	l.idleMu.Unlock()

	for _, fn := range pending {
		l.runSafe(fn)
		l.idleRuns.Add(1)
	}
}

func (l *Loop) runSafe(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("idle work panicked", logger.Component("loop"), logger.Panic(r))
		}
	}()
	fn()
}

// shutdown rejects new work, fails queued work and hands remaining idle work
// to goroutines.
func (l *Loop) shutdown() {
	close(l.quit)

	l.gate.Lock()
	l.closed = true
	l.gate.Unlock()

	l.running.Store(false)

	for {
		select {
		case t := <-l.work:
			t.settle(ErrLoopStopped)
		default:
			l.idleMu.Lock()
			pending := l.idle
			l.idle = nil
			l.idleMu.Unlock()
			for _, fn := range pending {
				go l.runSafe(fn)
			}
			return
		}
	}
}
