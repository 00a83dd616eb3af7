package async

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Task is a background goroutine started by Go. Unlike a bare `go func()`,
// its outcome can be joined with Wait.
type Task struct {
	name string
	done chan struct{}
	err  error
}

// Go executes a function in a goroutine with:
// - Context propagation
// - Panic recovery (the panic becomes the task error)
// - Error logging
//
// The caller decides whether to join the task. A task that is never joined
// still logs its failure.
//
// Example:
//
//	task := async.Go(ctx, "version file", log, func(ctx context.Context) error {
//	    return writer.Write(ctx, coder, app)
//	})
//	// ...
//	_ = task.Wait()
func Go(ctx context.Context, name string, log logrus.FieldLogger, fn func(context.Context) error) *Task {
	if log == nil {
		log = logrus.StandardLogger()
	}

	task := &Task{
		name: name,
		done: make(chan struct{}),
	}

	go func() {
		defer close(task.done)

		defer func() {
			if r := recover(); r != nil {
				task.err = fmt.Errorf("panic in %s: %v", name, r)
				log.WithField("task", name).Errorf("PANIC: %v\nStack trace:\n%s", r, string(debug.Stack()))
			}
		}()

		if err := fn(ctx); err != nil {
			task.err = err
			log.WithField("task", name).WithError(err).Warn("Background task failed")
		}
	}()

	return task
}

// Name returns the name the task was started with
func (t *Task) Name() string {
	return t.name
}

// Done is closed when the task finishes
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its error.
// A nil task is treated as already finished.
func (t *Task) Wait() error {
	if t == nil {
		return nil
	}
	<-t.done
	return t.err
}
