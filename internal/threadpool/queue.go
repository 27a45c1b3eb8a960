package threadpool

import (
	"errors"
	"fmt"

	"github.com/Workiva/go-datastructures/queue"
)

type messageKind int

const (
	msgNewJob messageKind = iota
	msgTerminate
)

// message は作業キューで運ばれる単位
type message struct {
	kind     messageKind
	job      Job
	callback Callback
}

var terminateMessage = message{kind: msgTerminate}

// workQueue は複数の送信者と複数のワーカーが共有する無制限キュー
// 取り出しは queue 内部のロックで直列化され、各メッセージはちょうど一つのワーカーに渡る
type workQueue struct {
	q *queue.Queue
}

func newWorkQueue(hint int64) *workQueue {
	return &workQueue{q: queue.New(hint)}
}

// put はメッセージをキューに追加する
func (wq *workQueue) put(msg message) error {
	if err := wq.q.Put(msg); err != nil {
		if errors.Is(err, queue.ErrDisposed) {
			return fmt.Errorf("%w: %v", ErrClosed, err)
		}
		return err
	}
	return nil
}

// take は次のメッセージが届くまでブロックする
// キューが破棄されている場合は回復不能として panic する
func (wq *workQueue) take() message {
	items, err := wq.q.Get(1)
	if err != nil {
		panic(fmt.Sprintf("threadpool: work queue broken: %v", err))
	}
	return items[0].(message)
}

func (wq *workQueue) len() int64 {
	return wq.q.Len()
}

func (wq *workQueue) dispose() {
	wq.q.Dispose()
}
