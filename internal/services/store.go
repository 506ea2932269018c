package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/ytakahashi/todo-list/internal/models"
	"github.com/ytakahashi/todo-list/internal/storage"
)

const DefaultStorageKey = "todo.tasks.v1"

type Task = models.Task

// TaskStore owns the task collection and the current filter. All changes go
// through its methods; each one persists and re-projects before returning.
type TaskStore struct {
	mu       sync.Mutex
	kv       storage.KV
	key      string
	ids      IDGenerator
	clock    Clock
	onChange func(models.Projection)

	tasks  []Task
	filter models.Filter
}

type Option func(*TaskStore)

func WithKey(key string) Option {
	return func(s *TaskStore) { s.key = key }
}

func WithIDGenerator(g IDGenerator) Option {
	return func(s *TaskStore) { s.ids = g }
}

func WithClock(c Clock) Option {
	return func(s *TaskStore) { s.clock = c }
}

// WithOnChange registers a listener that receives the fresh projection after
// every successful mutation. It is called with the store lock held, so it must
// not call back into the store.
func WithOnChange(fn func(models.Projection)) Option {
	return func(s *TaskStore) { s.onChange = fn }
}

func NewTaskStore(kv storage.KV, opts ...Option) *TaskStore {
	s := &TaskStore{
		kv:     kv,
		key:    DefaultStorageKey,
		ids:    uuidGenerator{},
		clock:  systemClock{},
		tasks:  []Task{},
		filter: models.FilterAll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with what the KV store holds. Missing or
// unreadable data leaves an empty collection; the failure is only logged.
func (s *TaskStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.read(ctx)
	if err != nil {
		log.Printf("Failed to load tasks: %v", err)
		tasks = []Task{}
	}
	s.tasks = tasks
}

func (s *TaskStore) read(ctx context.Context) ([]Task, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []Task{}, nil
	}

	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %v", s.key, err)
	}
	// "null" decodes without error but is not an array
	if tasks == nil {
		return nil, fmt.Errorf("failed to parse %s: not an array", s.key)
	}
	return tasks, nil
}

func (s *TaskStore) saveLocked(ctx context.Context) error {
	b, err := json.Marshal(s.tasks)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %v", err)
	}
	return s.kv.Set(ctx, s.key, string(b))
}

// commitLocked persists the collection and hands the new view to the listener.
func (s *TaskStore) commitLocked(ctx context.Context) error {
	if err := s.saveLocked(ctx); err != nil {
		return err
	}
	if s.onChange != nil {
		s.onChange(s.viewLocked())
	}
	return nil
}

// Tasks returns a copy of the collection in insertion order.
func (s *TaskStore) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Task(nil), s.tasks...)
}

func (s *TaskStore) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

func (s *TaskStore) Filter() models.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filter
}

// SetFilter changes the current filter and returns the re-projected view.
func (s *TaskStore) SetFilter(f models.Filter) (models.Projection, error) {
	if !f.Valid() {
		return models.Projection{}, fmt.Errorf("%w: %q", models.ErrUnknownFilter, f)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = f
	return s.viewLocked(), nil
}

// View projects the collection through the current filter.
func (s *TaskStore) View() models.Projection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.viewLocked()
}

func (s *TaskStore) viewLocked() models.Projection {
	p, _ := Project(s.tasks, s.filter)
	return p
}

func (s *TaskStore) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// newIDLocked draws ids until one is unused. taken holds ids claimed by an
// in-flight import that are not yet in the collection.
func (s *TaskStore) newIDLocked(taken map[string]bool) string {
	for {
		id := s.ids.NewID()
		if id == "" || taken[id] || s.indexLocked(id) >= 0 {
			continue
		}
		return id
	}
}
