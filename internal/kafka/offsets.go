package kafka

import (
	"sync"

	"github.com/IBM/sarama"
	"github.com/gammazero/deque"
)

// offsetTracker marks a claim's messages only once they and every earlier
// message of the partition are handled. Chats finish out of order, so the
// committed offset never passes an event that is still queued.
type offsetTracker struct {
	session sarama.ConsumerGroupSession

	mu      sync.Mutex
	pending *deque.Deque[*sarama.ConsumerMessage]
	done    map[int64]bool
}

func newOffsetTracker(session sarama.ConsumerGroupSession) *offsetTracker {
	return &offsetTracker{
		session: session,
		pending: deque.New[*sarama.ConsumerMessage](),
		done:    make(map[int64]bool),
	}
}

// Add registers msg in arrival order.
func (t *offsetTracker) Add(msg *sarama.ConsumerMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending.PushBack(msg)
}

// Done records msg as handled and marks the newest contiguous handled message.
func (t *offsetTracker) Done(msg *sarama.ConsumerMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done[msg.Offset] = true
	var last *sarama.ConsumerMessage
	for t.pending.Len() > 0 && t.done[t.pending.Front().Offset] {
		last = t.pending.PopFront()
		delete(t.done, last.Offset)
	}
	if last != nil {
		t.session.MarkMessage(last, "")
	}
}
