package rpcerror

import "sync"

// Queue accumulates errors for a single inbound message. It is owned by the
// message's parse control block and read once parsing of every subtree has
// completed, per spec.md §4.F "Error aggregation": siblings keep parsing
// after one subtree fails, and every failure the message accrued is
// reported, not just the first.
type Queue struct {
	mu     sync.Mutex
	errors []*RPCError
}

// NewQueue returns an empty error queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Add appends err to the queue. Safe for concurrent use, though in this
// core a message's parse always runs on the single multiplexer goroutine
// (spec.md §5); the lock exists so admin/metrics code can snapshot the
// queue from another goroutine without racing the parser.
func (q *Queue) Add(err *RPCError) {
	if err == nil {
		return
	}
	q.mu.Lock()
	q.errors = append(q.errors, err)
	q.mu.Unlock()
}

// Errors returns a snapshot slice of recorded errors in insertion order.
func (q *Queue) Errors() []*RPCError {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*RPCError, len(q.errors))
	copy(out, q.errors)
	return out
}

// HasErrors reports whether any error was recorded. Per spec.md §4.H, the
// presence of any error blocks a positive RPC reply.
func (q *Queue) HasErrors() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.errors) > 0
}

// Len returns the number of recorded errors.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.errors)
}

// First returns the first recorded error, or nil if the queue is empty.
func (q *Queue) First() *RPCError {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.errors) == 0 {
		return nil
	}
	return q.errors[0]
}
