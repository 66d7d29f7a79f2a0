package mavsdk

import "sync"

// callbackQueue runs user callbacks in order on a dedicated goroutine. The
// MAVLink receive loop only waits on a slow subscriber once the queue is full;
// jobs are never dropped while the queue is open.
type callbackQueue struct {
	jobs      chan func()
	closed    chan struct{}
	closeOnce sync.Once
	waitGroup sync.WaitGroup
}

func newCallbackQueue(size int) *callbackQueue {
	q := &callbackQueue{
		jobs:   make(chan func(), size),
		closed: make(chan struct{}),
	}

	q.waitGroup.Add(1)
	go q.worker()

	return q
}

func (q *callbackQueue) worker() {
	defer q.waitGroup.Done()
	for {
		select {
		case job := <-q.jobs:
			job()
		case <-q.closed:
			return
		}
	}
}

// push queues fn. It blocks while the queue is full and drops fn once the
// queue has been closed.
func (q *callbackQueue) push(fn func()) {
	select {
	case q.jobs <- fn:
	case <-q.closed:
	}
}

// close stops the worker and waits for the running callback to return.
// Queued callbacks that have not started are discarded.
func (q *callbackQueue) close() {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
	q.waitGroup.Wait()
}
