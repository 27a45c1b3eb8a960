package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"hello-web/internal/logger"
	"hello-web/internal/threadpool"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はスレッドプールのメトリクスを収集する
type Metrics struct {
	registry *prometheus.Registry

	jobsSubmitted    prometheus.Counter
	jobsExecuted     *prometheus.CounterVec
	shutdownRequests prometheus.Counter
	busyWorkers      prometheus.Gauge
	workerExits      *prometheus.CounterVec
	jobDuration      prometheus.Histogram

	// Snapshot 用
	submitted atomic.Uint64
	executed  atomic.Uint64
	shutdowns atomic.Uint64
	panics    atomic.Uint64
	startTime time.Time
}

var _ threadpool.Observer = (*Metrics)(nil)

// New は新しいメトリクスを作成し、専用のレジストリに登録する
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs submitted to the thread pool.",
		}),
		jobsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_executed_total",
			Help:      "Total number of jobs executed, by status (active, terminate, panicked).",
		}, []string{"status"}),
		shutdownRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shutdown_requests_total",
			Help:      "Total number of jobs that requested shutdown.",
		}),
		busyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "busy_workers",
			Help:      "Number of workers currently running a job.",
		}),
		workerExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_exits_total",
			Help:      "Total number of worker exits, by result.",
		}, []string{"result"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Histogram of job execution time.",
			Buckets:   prometheus.DefBuckets,
		}),
		startTime: time.Now(),
	}

	m.registry.MustRegister(
		m.jobsSubmitted,
		m.jobsExecuted,
		m.shutdownRequests,
		m.busyWorkers,
		m.workerExits,
		m.jobDuration,
	)
	return m
}

// JobSubmitted はジョブの投入を記録する
func (m *Metrics) JobSubmitted() {
	m.jobsSubmitted.Inc()
	m.submitted.Add(1)
}

// JobStarted はジョブの開始を記録する
func (m *Metrics) JobStarted(int) {
	m.busyWorkers.Inc()
}

// JobFinished はジョブの完了を記録する
func (m *Metrics) JobFinished(_ int, status threadpool.Status, elapsed time.Duration) {
	m.busyWorkers.Dec()
	m.jobsExecuted.WithLabelValues(status.String()).Inc()
	m.jobDuration.Observe(elapsed.Seconds())
	m.executed.Add(1)
	if status == threadpool.Terminate {
		m.shutdownRequests.Inc()
		m.shutdowns.Add(1)
	}
}

// WorkerExited はワーカーの終了を記録する
func (m *Metrics) WorkerExited(_ int, err error) {
	if err != nil {
		m.workerExits.WithLabelValues("panic").Inc()
		m.panics.Add(1)
		return
	}
	m.workerExits.WithLabelValues("clean").Inc()
}

// Registry はメトリクスのレジストリを返す
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler は Prometheus 形式でメトリクスを返すハンドラー
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve は addr で /metrics を公開し、ctx が終了するまでブロックする
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics", "Serving metrics on http://%s/metrics", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	JobsSubmitted    uint64
	JobsExecuted     uint64
	ShutdownRequests uint64
	WorkerPanics     uint64
	Elapsed          time.Duration
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		JobsSubmitted:    m.submitted.Load(),
		JobsExecuted:     m.executed.Load(),
		ShutdownRequests: m.shutdowns.Load(),
		WorkerPanics:     m.panics.Load(),
		Elapsed:          time.Since(m.startTime),
	}
}

// String はスナップショットを1行で表す
func (s Snapshot) String() string {
	return fmt.Sprintf("jobs submitted=%d executed=%d shutdown_requests=%d worker_panics=%d uptime=%v",
		s.JobsSubmitted, s.JobsExecuted, s.ShutdownRequests, s.WorkerPanics, s.Elapsed.Round(time.Millisecond))
}
