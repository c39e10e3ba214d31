package ledger

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TaskResult is what a submitted task resolves to.
type TaskResult struct {
	ID    uuid.UUID
	Value any
	Err   error
}

type task struct {
	id     uuid.UUID
	kind   string
	fn     func() (any, error)
	result chan TaskResult
}

// Worker runs tasks one at a time off a bounded queue. It exists for
// long-running I/O (persistence flush, stat aggregation) so callers don't
// block on it; actual state changes are still serialized by the Ledger's
// mutation lock no matter how many workers run.
type Worker struct {
	tasks chan task

	closeOnce sync.Once
	done      chan struct{}
}

// NewWorker starts the consuming goroutine with the given queue capacity.
func NewWorker(queueSize int) *Worker {
	w := &Worker{
		tasks: make(chan task, queueSize),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for t := range w.tasks {
		value, err := t.fn()
		if err != nil {
			logger.Error().Str("task", t.kind).Str("task_id", t.id.String()).Err(err).Msg("background task failed")
		}
		t.result <- TaskResult{ID: t.id, Value: value, Err: err}
	}
}

// Submit enqueues fn and returns a channel that yields its result. The
// queue is bounded; a full queue fails fast with ErrQueueFull instead of
// blocking the caller.
func (w *Worker) Submit(kind string, fn func() (any, error)) (<-chan TaskResult, error) {
	t := task{
		id:     uuid.New(),
		kind:   kind,
		fn:     fn,
		result: make(chan TaskResult, 1),
	}
	select {
	case w.tasks <- t:
		return t.result, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrQueueFull, kind)
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.tasks) })
	<-w.done
}
