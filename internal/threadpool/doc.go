// Package threadpool provides a fixed-size pool of worker goroutines with a
// signal-driven shutdown protocol.
//
// Every submitted job is paired with a callback. A worker runs the job and,
// only when the job reports Terminate, runs the callback on the same
// goroutine. The callback is how a job tells the pool's owner that the
// application should stop submitting work. It never stops a worker by itself.
//
// # Basic Usage
//
//	pool, err := threadpool.New(4)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	var stop atomic.Bool
//	pool.Execute(func() threadpool.Status {
//	    // do work
//	    return threadpool.Active
//	}, func() {
//	    stop.Store(true)
//	})
//
// # Shutdown
//
// Close enqueues one terminate message per worker and then joins every
// worker in id order. It blocks until all workers have exited. Messages
// already queued ahead of the terminate messages are still executed.
// If a worker died from a panic, Close reports it as a *WorkerPanicError.
//
// # Queue
//
// The work queue is unbounded. Execute never blocks on a full queue and
// there is no backpressure.
package threadpool
