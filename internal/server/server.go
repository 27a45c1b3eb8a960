package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"time"

	"hello-web/internal/logger"
	"hello-web/internal/threadpool"

	"golang.org/x/net/netutil"
)

//go:embed static/*
var staticFiles embed.FS

// Config はサーバーの設定
type Config struct {
	Address          string        // 待ち受けアドレス
	Threads          int           // スレッドプールのワーカー数
	ShutdownPassword string        // 空の場合は POST /shutdown を受け付けない
	DocRoot          string        // 空の場合は埋め込みページを使う
	MaxConnections   int           // 同時接続数の上限（0で無制限）
	SleepDelay       time.Duration // GET /sleep の待ち時間
	ReadTimeout      time.Duration // リクエスト読み込みのタイムアウト（0で無制限）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Address:          "127.0.0.1:7878",
		Threads:          4,
		ShutdownPassword: "password",
		SleepDelay:       5 * time.Second,
		ReadTimeout:      10 * time.Second,
	}
}

// Option はサーバーのオプション
type Option func(*Server)

// WithObserver はスレッドプールの観測者を設定する
func WithObserver(observer threadpool.Observer) Option {
	return func(s *Server) {
		s.observer = observer
	}
}

// WithShutdownSignal は外部で作成した停止フラグを使う
func WithShutdownSignal(signal *ShutdownSignal) Option {
	return func(s *Server) {
		s.signal = signal
	}
}

// Server は接続ごとにジョブをスレッドプールへ投入する静的ページサーバー
type Server struct {
	config   Config
	pages    fs.FS
	observer threadpool.Observer
	signal   *ShutdownSignal

	mu       sync.Mutex
	listener net.Listener
}

// New は新しいサーバーを作成する
func New(config Config, opts ...Option) (*Server, error) {
	s := &Server{
		config: config,
		signal: NewShutdownSignal(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if config.DocRoot != "" {
		info, err := os.Stat(config.DocRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to open doc root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("doc root %s is not a directory", config.DocRoot)
		}
		s.pages = os.DirFS(config.DocRoot)
	} else {
		pages, err := fs.Sub(staticFiles, "static")
		if err != nil {
			return nil, fmt.Errorf("failed to get static files: %w", err)
		}
		s.pages = pages
	}

	return s, nil
}

// Signal はサーバーの停止フラグを返す
func (s *Server) Signal() *ShutdownSignal {
	return s.signal
}

// Addr は待ち受け中のアドレスを返す。開始前は nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe は Config.Address で待ち受けて Serve を呼ぶ
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	if s.config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConnections)
	}
	return s.Serve(ctx, ln)
}

// Serve は停止が要求されるか ctx が終了するまで接続を受け付ける
// 戻る前にスレッドプールを閉じ、全ワーカーの終了を待つ
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	pool, err := threadpool.NewWithConfig(threadpool.Config{
		Size:     s.config.Threads,
		Observer: s.observer,
	})
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to start thread pool: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	logger.Info("server", "Listening on %s with %d threads", ln.Addr(), pool.Size())

	// 停止要求で Accept を解除する
	stopWatch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-s.signal.Done():
		case <-stopWatch:
			return
		}
		_ = ln.Close()
	}()

	serveErr := s.acceptLoop(ctx, ln, pool)

	close(stopWatch)
	_ = ln.Close()

	logger.Info("server", "Shutting down...")
	if err := pool.Close(); err != nil {
		return errors.Join(serveErr, fmt.Errorf("thread pool: %w", err))
	}
	return serveErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, pool *threadpool.Pool) error {
	for {
		conn, err := ln.Accept()

		// 停止フラグは接続を受け付けるたびに確認する
		if s.signal.Requested() || ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			return nil
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.Warn("server", "Accept timeout: %v", err)
				continue
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		if err := pool.Execute(s.connectionJob(conn), s.signal.Request); err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to dispatch connection: %w", err)
		}
	}
}
