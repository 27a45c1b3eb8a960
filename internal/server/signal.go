package server

import (
	"sync/atomic"

	"hello-web/internal/logger"
)

// ShutdownSignal はサーバーの所有者が持つ停止フラグ
// プールのコールバックから並行に呼ばれても安全
type ShutdownSignal struct {
	requested atomic.Bool
	done      chan struct{}
}

// NewShutdownSignal は新しい停止フラグを作成する
func NewShutdownSignal() *ShutdownSignal {
	return &ShutdownSignal{done: make(chan struct{})}
}

// Request は停止を要求する。二度目以降は何もしない
func (s *ShutdownSignal) Request() {
	if s.requested.CompareAndSwap(false, true) {
		logger.Info("server", "Shutdown requested")
		close(s.done)
	}
}

// Requested は停止が要求済みかどうかを返す
func (s *ShutdownSignal) Requested() bool {
	return s.requested.Load()
}

// Done は停止要求時に閉じられるチャネルを返す
func (s *ShutdownSignal) Done() <-chan struct{} {
	return s.done
}
