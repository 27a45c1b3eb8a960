package threadpool

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"hello-web/internal/logger"
)

var (
	// ErrInvalidSize はプールサイズが正でない場合に返される
	ErrInvalidSize = errors.New("threadpool: size must be greater than 0")
	// ErrClosed は Close 開始後の操作で返される
	ErrClosed = errors.New("threadpool: pool is closed")
	// ErrNilJob は nil ジョブが投入された場合に返される
	ErrNilJob = errors.New("threadpool: nil job")

	errAlreadyJoined = errors.New("threadpool: worker already joined")
)

// Status はジョブの完了ステータス
type Status int

const (
	// Active は通常の完了
	Active Status = iota
	// Terminate はプールの所有者に停止を求める完了
	Terminate

	// panicked は Observer にだけ渡される。ジョブが panic で戻らなかったことを表す
	panicked Status = -1
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Terminate:
		return "terminate"
	case panicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// Job はワーカーが一度だけ実行する作業単位
type Job func() Status

// Callback はジョブが Terminate を返したときに同じワーカー上で一度だけ呼ばれる
type Callback func()

// Observer はプールの動作を観測する。並行に呼ばれる
// JobStarted と JobFinished は必ず対になる。ジョブが panic した場合の status は "panicked"
type Observer interface {
	JobSubmitted()
	JobStarted(workerID int)
	JobFinished(workerID int, status Status, elapsed time.Duration)
	WorkerExited(workerID int, err error)
}

type nopObserver struct{}

func (nopObserver) JobSubmitted() {}
func (nopObserver) JobStarted(int) {}
func (nopObserver) JobFinished(int, Status, time.Duration) {}
func (nopObserver) WorkerExited(int, error) {}

// WorkerPanicError はワーカーが panic で終了したことを表す
type WorkerPanicError struct {
	WorkerID int
	Value    any
	Stack    []byte
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("threadpool: worker %d panicked: %v", e.WorkerID, e.Value)
}

// Config はプールの設定
type Config struct {
	Size        int      // ワーカー数（正であること）
	QueueFactor int      // キュー初期容量 = Size * QueueFactor（上限ではない）
	Observer    Observer // nil の場合は観測しない
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Size:        runtime.NumCPU(),
		QueueFactor: 100,
	}
}

// handle はワーカーのゴルーチンの終了を待つためのハンドル
type handle struct {
	done chan struct{}
	err  error
}

type worker struct {
	id     int
	thread *handle // join で一度だけ取り出される
}

// Pool は固定数のワーカーと作業キューの送信側を所有する
type Pool struct {
	workers  []*worker
	queue    *workQueue
	observer Observer

	mu     sync.RWMutex // closed の確認と投入を Close に対して直列化する
	closed bool
}

// New は size 個のワーカーを持つプールを作成する
func New(size int) (*Pool, error) {
	config := DefaultConfig()
	config.Size = size
	return NewWithConfig(config)
}

// NewWithConfig は設定を指定してプールを作成する
// ワーカーは全て即座に起動される
func NewWithConfig(config Config) (*Pool, error) {
	if config.Size <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, config.Size)
	}
	queueFactor := config.QueueFactor
	if queueFactor <= 0 {
		queueFactor = 100
	}
	observer := config.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	p := &Pool{
		workers:  make([]*worker, 0, config.Size),
		queue:    newWorkQueue(int64(config.Size * queueFactor)),
		observer: observer,
	}
	for id := range config.Size {
		p.workers = append(p.workers, spawnWorker(id, p.queue, observer))
	}

	logger.Info("pool", "ThreadPool started with %d workers", config.Size)
	return p, nil
}

func spawnWorker(id int, q *workQueue, observer Observer) *worker {
	h := &handle{done: make(chan struct{})}
	go runWorker(id, q, observer, h)
	return &worker{id: id, thread: h}
}

// runWorker は Terminate メッセージを受け取るまでメッセージを処理し続ける
func runWorker(id int, q *workQueue, observer Observer, h *handle) {
	tag := fmt.Sprintf("worker-%d", id)
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			h.err = &WorkerPanicError{WorkerID: id, Value: r, Stack: debug.Stack()}
			logger.Error(tag, "Worker panicked: %v", r)
		}
		observer.WorkerExited(id, h.err)
	}()

	for {
		msg := q.take()
		switch msg.kind {
		case msgNewJob:
			logger.Debug(tag, "Worker %d got a job; executing.", id)
			if runJob(id, msg.job, observer) == Terminate {
				msg.callback()
			}
		case msgTerminate:
			logger.Info(tag, "Terminating worker %d.", id)
			return
		}
	}
}

// runJob はジョブを実行する。panic しても JobFinished は呼ばれる
func runJob(id int, job Job, observer Observer) (status Status) {
	observer.JobStarted(id)
	start := time.Now()
	status = panicked
	defer func() {
		observer.JobFinished(id, status, time.Since(start))
	}()
	return job()
}

// join はワーカーの終了を待つ。二度目の呼び出しはエラーになる
func (w *worker) join() error {
	h := w.thread
	if h == nil {
		return fmt.Errorf("%w: %d", errAlreadyJoined, w.id)
	}
	w.thread = nil
	<-h.done
	return h.err
}

// Execute はジョブとコールバックの組をキューに追加する
// ジョブの実行は待たない。callback は nil でもよい
// nil を返したジョブは Close が戻る前に必ず実行される
func (p *Pool) Execute(job Job, callback Callback) error {
	if job == nil {
		return ErrNilJob
	}
	if callback == nil {
		callback = func() {}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	if err := p.queue.put(message{kind: msgNewJob, job: job, callback: callback}); err != nil {
		return err
	}
	p.observer.JobSubmitted()
	return nil
}

// Close はワーカー数と同数の Terminate メッセージを送り、全ワーカーの終了を待つ
// panic で終了したワーカーがあればそのエラーを返す
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	p.mu.Unlock()

	logger.Info("pool", "Sending termination messages to workers.")
	for range p.workers {
		if err := p.queue.put(terminateMessage); err != nil {
			panic(fmt.Sprintf("threadpool: failed to send terminate: %v", err))
		}
	}

	logger.Info("pool", "Shutting down all workers")
	var errs []error
	for _, w := range p.workers {
		logger.Debug("pool", "Shutting down worker %d", w.id)
		if err := w.join(); err != nil {
			errs = append(errs, err)
		}
	}

	if n := p.queue.len(); n > 0 {
		logger.Warn("pool", "Dropping %d undelivered messages", n)
	}
	p.queue.dispose()

	return errors.Join(errs...)
}

// Size はワーカー数を返す
func (p *Pool) Size() int {
	return len(p.workers)
}

// Pending はまだワーカーに取り出されていないメッセージ数を返す
func (p *Pool) Pending() int64 {
	return p.queue.len()
}
