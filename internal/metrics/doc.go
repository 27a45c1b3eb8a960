// Package metrics exposes thread pool activity as Prometheus metrics.
//
// Metrics implements threadpool.Observer, so it can be handed straight to a
// pool (or to server.WithObserver):
//
//	m := metrics.New("hello_web")
//	srv, _ := server.New(cfg, server.WithObserver(m))
//	go m.Serve(ctx, "127.0.0.1:9100")
//
// # Collected Metrics
//
//   - jobs_submitted_total: jobs accepted by Execute
//   - jobs_executed_total{status}: jobs finished, by returned status
//   - shutdown_requests_total: jobs that returned Terminate
//   - busy_workers: workers currently running a job
//   - worker_exits_total{result}: worker exits, "clean" or "panic"
//   - job_duration_seconds: job run time histogram
//
// Snapshot returns the counters without going through the registry, which
// is what the command prints on exit.
//
// # Thread Safety
//
// All operations are safe for concurrent access.
package metrics
