package services

import (
	"context"
	"strings"

	"github.com/ytakahashi/todo-list/internal/models"
)

// Add appends a new task. A blank title is a no-op and returns a nil task.
// A due date that is not YYYY-MM-DD is dropped.
func (s *TaskStore) Add(ctx context.Context, title, dueDate string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	if !models.ValidDueDate(dueDate) {
		dueDate = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := Task{
		ID:        s.newIDLocked(nil),
		Title:     title,
		DueDate:   dueDate,
		Completed: false,
		CreatedAt: formatTimestamp(s.clock.Now()),
	}
	s.tasks = append(s.tasks, task)

	if err := s.commitLocked(ctx); err != nil {
		return nil, err
	}
	return &task, nil
}

// ToggleComplete flips the completed flag. Unknown ids return a nil task.
func (s *TaskStore) ToggleComplete(ctx context.Context, id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	task := s.tasks[i]

	if err := s.commitLocked(ctx); err != nil {
		return nil, err
	}
	return &task, nil
}

// Edit replaces title and due date. A blank title keeps the old one, an empty
// due date clears it, and a malformed due date fails with ErrInvalidDueDate
// without touching the task.
func (s *TaskStore) Edit(ctx context.Context, id, newTitle, newDueDate string) (*Task, error) {
	if newDueDate != "" && !models.ValidDueDate(newDueDate) {
		return nil, ErrInvalidDueDate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}

	if title := strings.TrimSpace(newTitle); title != "" {
		s.tasks[i].Title = title
	}
	s.tasks[i].DueDate = newDueDate
	task := s.tasks[i]

	if err := s.commitLocked(ctx); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes the task with the given id and reports whether it existed.
func (s *TaskStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)

	if err := s.commitLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// ClearCompleted removes every completed task and returns how many went.
func (s *TaskStore) ClearCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept

	return removed, s.commitLocked(ctx)
}

// ClearAll empties the collection.
func (s *TaskStore) ClearAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.tasks)
	s.tasks = []Task{}

	return removed, s.commitLocked(ctx)
}
