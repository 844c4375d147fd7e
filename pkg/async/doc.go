// Package async provides completion futures for asynchronous work.
//
// ExecFuture represents the completion of a unit of work that only reports an error.
// It is the completion type returned by the messenger for asynchronous sends and by
// the designated loop when work is marshaled onto its goroutine.
//
// # Usage
//
// Run a function on a new goroutine:
//
//	future := async.Exec(ctx, userID, func(ctx context.Context, id int) error {
//		return notify(ctx, id)
//	})
//
//	if err := future.Await(); err != nil {
//		log.Println(err)
//	}
//
// Resolve a future from somewhere else, for example from a work queue:
//
//	future, resolve := async.NewPromise()
//	work <- func() { resolve(process()) }
//	err := future.AwaitWithTimeout(time.Second)
//
// # Coordination
//
// JoinAll waits for every future and aggregates all failures with errors.Join,
// which is how a fan-out that must not lose errors is joined:
//
//	futures := []*async.ExecFuture{
//		async.Go(stepOne),
//		async.Go(stepTwo),
//	}
//	err := async.JoinAll(futures...)
//
// # Concurrency Safety
//
// All operations are safe for concurrent use. A future is resolved exactly once;
// later resolutions are ignored.
package async
