// Copyright 2026 The VaultView Authors.
// SPDX-License-Identifier: Apache-2.0

package view

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// TaskState is the lifecycle state of a Task.
type TaskState int

const (
	// TaskIdle means Start has not been called.
	TaskIdle TaskState = iota
	// TaskRunning means the work function is in flight.
	TaskRunning
	// TaskSucceeded means the work function returned a value.
	TaskSucceeded
	// TaskFailed means the work function returned an error.
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "idle"
	case TaskRunning:
		return "running"
	case TaskSucceeded:
		return "succeeded"
	case TaskFailed:
		return "failed"
	default:
		return fmt.Sprintf("TaskState(%d)", int(s))
	}
}

// TaskDoneMsg is delivered into a bubbletea update loop when a
// watched task settles. Err is nil on success.
type TaskDoneMsg[T any] struct {
	Value T
	Err   error
}

// Task adapts a one-shot asynchronous function into observable state
// for a view: Idle until started, Running while in flight, then
// Succeeded or Failed with the settled value or error. A Task settles
// exactly once; restarting a settled task is a programming error.
type Task[T any] struct {
	mu    sync.Mutex
	state TaskState
	value T
	err   error
	done  chan struct{}
}

// NewTask creates an idle task.
func NewTask[T any]() *Task[T] {
	return &Task[T]{done: make(chan struct{})}
}

// State reports the task's current state.
func (t *Task[T]) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Result returns the settled value and error. Before the task
// settles it returns the zero value and no error; check State first.
func (t *Task[T]) Result() (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// Start runs fn on its own goroutine and records the outcome. It
// returns an error if the task was already started.
func (t *Task[T]) Start(ctx context.Context, fn func(context.Context) (T, error)) error {
	t.mu.Lock()
	if t.state != TaskIdle {
		t.mu.Unlock()
		return fmt.Errorf("task already %s", t.state)
	}
	t.state = TaskRunning
	t.mu.Unlock()

	go func() {
		value, err := fn(ctx)
		t.mu.Lock()
		t.value = value
		t.err = err
		if err != nil {
			t.state = TaskFailed
		} else {
			t.state = TaskSucceeded
		}
		t.mu.Unlock()
		close(t.done)
	}()
	return nil
}

// Watch returns a bubbletea command that blocks until the task
// settles and delivers a TaskDoneMsg carrying the outcome. Call it
// from Update right after Start so the loop repaints on completion.
func (t *Task[T]) Watch() tea.Cmd {
	return func() tea.Msg {
		<-t.done
		value, err := t.Result()
		return TaskDoneMsg[T]{Value: value, Err: err}
	}
}

// Done returns a channel closed when the task settles, for callers
// outside a bubbletea loop.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}
