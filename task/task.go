package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ember/vm"
)

// TaskState represents the current state of a task
type TaskState int

const (
	TaskCreated TaskState = iota
	TaskRunning
	TaskSuspended
	TaskCompleted
	TaskFailed
	TaskKilled
)

func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "created"
	case TaskRunning:
		return "running"
	case TaskSuspended:
		return "suspended"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// Finished reports whether the task will never run again
func (s TaskState) Finished() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskKilled
}

// Task is one Process run on its own goroutine
type Task struct {
	ID        uuid.UUID
	Name      string
	StartTime time.Time
	Process   *vm.Process

	state     TaskState
	endTime   time.Time
	err       error
	traceback []vm.Frame

	resume chan struct{}
	kill   chan struct{}
	done   chan struct{}
	once   sync.Once

	mu sync.RWMutex
}

func newTask(name string, p *vm.Process) *Task {
	return &Task{
		ID:        uuid.New(),
		Name:      name,
		StartTime: time.Now(),
		Process:   p,
		state:     TaskCreated,
		resume:    make(chan struct{}, 1),
		kill:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// GetState returns the current state (thread-safe)
func (t *Task) GetState() TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// SetState sets the state (thread-safe)
func (t *Task) SetState(state TaskState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
}

// Err returns the error that ended the task, if any
func (t *Task) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Traceback returns the frames active when the task failed
func (t *Task) Traceback() []vm.Frame {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.traceback
}

// EndTime returns when the task finished, zero while it runs
func (t *Task) EndTime() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.endTime
}

// Done is closed when the task finishes
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Suspend asks the running process to pause after its current statement
func (t *Task) Suspend() bool {
	if t.GetState() != TaskRunning {
		return false
	}
	t.Process.Suspend(true)
	return true
}

// Resume wakes a suspended task
func (t *Task) Resume() bool {
	if t.GetState() != TaskSuspended {
		return false
	}
	select {
	case t.resume <- struct{}{}:
	default:
	}
	return true
}

// Kill stops the task wherever it is
func (t *Task) Kill() bool {
	if t.GetState().Finished() {
		return false
	}
	t.once.Do(func() { close(t.kill) })
	t.Process.RequestStop()
	return true
}

// run executes the process until it finishes, parking while it is
// suspended
func (t *Task) run() {
	defer close(t.done)
	p := t.Process
	for {
		t.SetState(TaskRunning)
		err := p.Execute()

		select {
		case <-t.kill:
			t.finish(TaskKilled, nil)
			return
		default:
		}
		if err != nil {
			t.finish(TaskFailed, err)
			return
		}
		if p.State() != vm.SUSPENDED {
			t.finish(TaskCompleted, nil)
			return
		}

		t.SetState(TaskSuspended)
		select {
		case <-t.resume:
			p.Suspend(false)
		case <-t.kill:
			p.Stop()
			t.finish(TaskKilled, nil)
			return
		}
	}
}

func (t *Task) finish(state TaskState, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.err = err
	t.endTime = time.Now()
	if err != nil {
		t.traceback = t.Process.Traceback()
	}
}
