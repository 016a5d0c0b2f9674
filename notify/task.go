package notify

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single send attempt.
const DefaultTimeout = 20 * time.Second

// Task is an in-flight send. It completes exactly once with a Result.
type Task struct {
	done   chan struct{}
	result Result
}

// Dispatch starts sending msg in the background. The send is abandoned when
// timeout elapses or ctx ends; it is never retried.
func Dispatch(ctx context.Context, s Sender, msg Message, timeout time.Duration) *Task {
	return dispatch(ctx, s, msg, timeout, nil)
}

func dispatch(ctx context.Context, s Sender, msg Message, timeout time.Duration, after func(Result)) *Task {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		sctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		errc := make(chan error, 1)
		go func() { errc <- s.Send(sctx, msg) }()

		select {
		case err := <-errc:
			t.result = Classify(err)
		case <-sctx.Done():
			t.result = Classify(sctx.Err())
		}
		if after != nil {
			after(t.result)
		}
	}()
	return t
}

// Completed returns a task that already holds r.
func Completed(r Result) *Task {
	t := &Task{done: make(chan struct{}), result: r}
	close(t.done)
	return t
}

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task completes.
func (t *Task) Wait() Result {
	<-t.done
	return t.result
}
