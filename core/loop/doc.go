// Package loop provides a designated goroutine for work that must run
// sequentially on one OS thread, plus idle-time scheduling.
//
// A Loop is the marshaling primitive the messenger uses for
// SendOnDesignatedThread and the idle scheduler it uses for deferred cleanup:
//
//	l := loop.New(loop.WithLogger(log))
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(l.Run(ctx))
//
//	err := l.Invoke(ctx, func(ctx context.Context) error {
//		return render(ctx)
//	}).Await()
//
// Work items run one at a time in submission order. Invoke called from work
// that is already on the loop runs inline instead of queueing, so nested
// submissions never deadlock. ScheduleIdle defers a function until the queue is
// empty; multiple idle functions run in scheduling order.
//
// Hosts without a designated thread can use AfterFunc as the idle scheduler.
package loop
