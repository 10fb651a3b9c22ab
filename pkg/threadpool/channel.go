package threadpool

import (
	"sync"

	wperrors "github.com/vnykmshr/webpool/pkg/common/errors"
)

// queue is the unbounded FIFO shared by one sender and one receiver.
type queue struct {
	mu           sync.Mutex
	ready        *sync.Cond
	items        []message
	senderGone   bool
	receiverGone bool
}

// sender is the producing end of the control channel. Sends never block.
type sender struct {
	q *queue
}

// receiver is the consuming end of the control channel. It must only be
// used by one goroutine at a time; workers go through sharedReceiver.
type receiver struct {
	q *queue
}

func newChannel() (*sender, *receiver) {
	q := &queue{}
	q.ready = sync.NewCond(&q.mu)
	return &sender{q: q}, &receiver{q: q}
}

// send appends msg to the queue. It fails with ErrChannelBroken once the
// receiving end has been dropped.
func (s *sender) send(msg message) error {
	q := s.q
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.receiverGone {
		return wperrors.ErrChannelBroken
	}
	q.items = append(q.items, msg)
	q.ready.Signal()
	return nil
}

// close drops the sending end. Messages already queued stay receivable.
func (s *sender) close() {
	q := s.q
	q.mu.Lock()
	q.senderGone = true
	q.mu.Unlock()
	q.ready.Broadcast()
}

// receive blocks until a message is available. It fails with
// ErrChannelBroken when the sender is gone and nothing is left to deliver.
func (r *receiver) receive() (message, error) {
	q := r.q
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.senderGone {
			return message{}, wperrors.ErrChannelBroken
		}
		q.ready.Wait()
	}

	msg := q.items[0]
	q.items[0] = message{}
	q.items = q.items[1:]
	return msg, nil
}

// close drops the receiving end; later sends fail.
func (r *receiver) close() {
	q := r.q
	q.mu.Lock()
	q.receiverGone = true
	q.items = nil
	q.mu.Unlock()
}

func (r *receiver) len() int {
	q := r.q
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// sharedReceiver lets every worker contend for the single receiving end.
// The guard is held for exactly one receive, never while a job runs.
type sharedReceiver struct {
	mu sync.Mutex
	rx *receiver
}

func newSharedReceiver(rx *receiver) *sharedReceiver {
	return &sharedReceiver{rx: rx}
}

func (s *sharedReceiver) receive() (message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rx.receive()
}

// pending reports queued messages without taking the receive guard, so it
// never waits behind a worker blocked in receive.
func (s *sharedReceiver) pending() int {
	return s.rx.len()
}
