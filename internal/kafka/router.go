package kafka

import (
	"sync"

	"github.com/gammazero/deque"
	"github.com/gammazero/workerpool"
)

// eventRouter runs tasks for the same chat one at a time, in submit order.
// Every chat with pending work has its own queue, drained by one pool worker
// and dropped once empty, so a slow chat only delays itself.
type eventRouter struct {
	pool *workerpool.WorkerPool

	mu     sync.Mutex
	queues map[int64]*deque.Deque[func()]
}

func newEventRouter(workers int) *eventRouter {
	if workers < 1 {
		workers = 1
	}
	return &eventRouter{
		pool:   workerpool.New(workers),
		queues: make(map[int64]*deque.Deque[func()]),
	}
}

func (r *eventRouter) Dispatch(chatID int64, task func()) {
	r.mu.Lock()
	q, active := r.queues[chatID]
	if !active {
		q = deque.New[func()]()
		r.queues[chatID] = q
	}
	q.PushBack(task)
	r.mu.Unlock()

	if !active {
		r.pool.Submit(func() {
			r.drain(chatID, q)
		})
	}
}

func (r *eventRouter) drain(chatID int64, q *deque.Deque[func()]) {
	for {
		r.mu.Lock()
		if q.Len() == 0 {
			delete(r.queues, chatID)
			r.mu.Unlock()
			return
		}
		task := q.PopFront()
		r.mu.Unlock()

		task()
	}
}

// ActiveChats is the number of chats with queued or running tasks.
func (r *eventRouter) ActiveChats() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queues)
}

// Stop waits for queued tasks to finish.
func (r *eventRouter) Stop() {
	r.pool.StopWait()
}
