package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jcmexdev/grocery-storefront/internal/order"
)

type TaskState int

const (
	TaskPending TaskState = iota
	TaskSucceeded
	TaskFailed
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskSucceeded:
		return "succeeded"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Task is one asynchronous lookup. It ends exactly once, in one of the
// succeeded, failed or cancelled states; after Cancel the lookup's outcome is
// discarded.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     TaskState
	cancelled bool
	result    order.Confirmation
	err       error
}

// StartTask runs lookup in a new goroutine bounded by timeout (no bound when
// timeout <= 0). onDone, if set, is called once the task has settled.
func StartTask(parent context.Context, lookup Lookup, req Request, timeout time.Duration, onDone func(*Task)) *Task {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	t := &Task{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer cancel()
		rec, err := lookup.Track(ctx, req)
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimedOut
		}
		t.settle(rec, err)
		if onDone != nil {
			onDone(t)
		}
		close(t.done)
	}()
	return t
}

func (t *Task) settle(rec order.Confirmation, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.cancelled:
		t.state = TaskCancelled
		t.err = context.Canceled
	case err != nil:
		t.state = TaskFailed
		t.err = err
	default:
		t.state = TaskSucceeded
		t.result = rec
	}
}

// Cancel aborts the lookup. It is safe to call more than once and after the
// task has finished, in which case it does nothing.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.state == TaskPending {
		t.cancelled = true
	}
	t.mu.Unlock()
	t.cancel()
}

func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result is meaningful once Done is closed.
func (t *Task) Result() (order.Confirmation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Wait blocks until the task settles or ctx ends.
func (t *Task) Wait(ctx context.Context) (order.Confirmation, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		return order.Confirmation{}, ctx.Err()
	}
}
