// Package server serves a handful of static pages over plain TCP, one
// connection per thread pool job.
//
// The accept loop hands every connection to a threadpool.Pool. A POST to
// /shutdown with the configured password makes the connection's job report
// threadpool.Terminate; the paired callback flips the server's
// ShutdownSignal, the accept loop stops, and Serve closes the pool, which
// waits for every queued connection to be answered.
//
// # Routes
//
//	GET  /            hello.html
//	GET  /sleep       sleep.html after Config.SleepDelay
//	GET  /shutdown    shutdown.html (password form)
//	GET  /styles.css  styles.css
//	POST /shutdown    shutdown_successful.html when the password matches,
//	                  shutdown.html otherwise
//	anything else     404.html
//
// Pages come from the embedded static/ directory unless Config.DocRoot
// points at a directory on disk.
package server
