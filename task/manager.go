package task

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ember/db"
	"ember/parser"
	"ember/vm"
)

var (
	// ErrNoSuchTask is returned for an unknown task id
	ErrNoSuchTask = errors.New("no such task")
	// ErrTaskState is returned when a task is not in a state the request applies to
	ErrTaskState = errors.New("task is not in a state for this request")
)

// forgetter is implemented by module loaders that keep per-store state
type forgetter interface {
	Forget(store *db.Store)
}

// Manager runs independent Processes. Each task gets its own store, so
// tasks share nothing but the options: the module registry in them is
// expected to guard itself.
type Manager struct {
	opts  vm.Options
	tasks map[uuid.UUID]*Task
	mu    sync.RWMutex
}

// NewManager creates a manager whose processes are built with opts
func NewManager(opts vm.Options) *Manager {
	return &Manager{
		opts:  opts,
		tasks: make(map[uuid.UUID]*Task),
	}
}

// Spawn starts prog in a new process on its own goroutine
func (m *Manager) Spawn(name string, prog *parser.Program) (*Task, error) {
	p := vm.NewProcess(nil, m.opts)
	if err := p.Run(prog); err != nil {
		return nil, err
	}
	t := newTask(name, p)

	m.mu.Lock()
	m.tasks[t.ID] = t
	m.mu.Unlock()

	go t.run()
	return t, nil
}

// Get retrieves a task by ID
func (m *Manager) Get(id uuid.UUID) *Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tasks[id]
}

// Kill stops a task
func (m *Manager) Kill(id uuid.UUID) error {
	t := m.Get(id)
	if t == nil {
		return ErrNoSuchTask
	}
	if !t.Kill() {
		return ErrTaskState
	}
	return nil
}

// Suspend pauses a running task after its current statement
func (m *Manager) Suspend(id uuid.UUID) error {
	t := m.Get(id)
	if t == nil {
		return ErrNoSuchTask
	}
	if !t.Suspend() {
		return ErrTaskState
	}
	return nil
}

// Resume wakes a suspended task
func (m *Manager) Resume(id uuid.UUID) error {
	t := m.Get(id)
	if t == nil {
		return ErrNoSuchTask
	}
	if !t.Resume() {
		return ErrTaskState
	}
	return nil
}

// List returns all tasks, oldest first
func (m *Manager) List() []*Task {
	m.mu.RLock()
	tasks := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	m.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].StartTime.Before(tasks[j].StartTime)
	})
	return tasks
}

// Cleanup removes finished tasks and returns how many were removed
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	var removed []*Task
	for id, t := range m.tasks {
		if t.GetState().Finished() {
			delete(m.tasks, id)
			removed = append(removed, t)
		}
	}
	m.mu.Unlock()

	if f, ok := m.opts.Modules.(forgetter); ok {
		for _, t := range removed {
			f.Forget(t.Process.Store())
		}
	}
	if len(removed) > 0 {
		log.Printf("Cleaned up %d finished task(s)", len(removed))
	}
	return len(removed)
}
