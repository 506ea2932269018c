package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ytakahashi/todo-list/internal/models"
)

const (
	ExportFilename = "todo-export.json"
	untitled       = "Untitled"
)

// Export renders the whole collection, unfiltered, as an indented JSON array.
func (s *TaskStore) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export tasks: %v", err)
	}
	return b, nil
}

// Import merges a JSON array of task-like objects into the collection and
// returns how many were added. Missing or colliding ids are replaced, missing
// fields get defaults. If the payload is not an array of objects nothing
// changes and the error wraps ErrInvalidFormat.
func (s *TaskStore) Import(ctx context.Context, data []byte) (int, error) {
	items, err := decodeImport(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]bool, len(s.tasks)+len(items))
	for _, t := range s.tasks {
		taken[t.ID] = true
	}

	now := formatTimestamp(s.clock.Now())
	merged := make([]Task, 0, len(items))
	for _, it := range items {
		task := normalizeImported(it, now)
		if task.ID == "" || taken[task.ID] {
			task.ID = s.newIDLocked(taken)
		}
		taken[task.ID] = true
		merged = append(merged, task)
	}

	s.tasks = append(s.tasks, merged...)
	if err := s.commitLocked(ctx); err != nil {
		return len(merged), err
	}
	return len(merged), nil
}

// ImportFrom reads r in the background and imports its contents once the read
// finishes. If ctx is done first the merge never runs.
func (s *TaskStore) ImportFrom(ctx context.Context, r io.Reader) (int, error) {
	type readResult struct {
		data []byte
		err  error
	}

	done := make(chan readResult, 1)
	go func() {
		b, err := io.ReadAll(r)
		done <- readResult{data: b, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return 0, fmt.Errorf("failed to read import file: %v", res.err)
		}
		return s.Import(ctx, res.data)
	}
}

func decodeImport(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrInvalidFormat)
	}

	arr, ok := top.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidFormat)
	}

	items := make([]map[string]any, 0, len(arr))
	for i, v := range arr {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrInvalidFormat, i)
		}
		items = append(items, obj)
	}
	return items, nil
}

func normalizeImported(it map[string]any, now string) Task {
	task := Task{
		Title:     untitled,
		Completed: truthy(it["completed"]),
		CreatedAt: now,
	}

	if id, ok := it["id"].(string); ok {
		task.ID = id
	}
	if title, ok := it["title"].(string); ok && strings.TrimSpace(title) != "" {
		task.Title = title
	}
	if due, ok := it["dueDate"].(string); ok && models.ValidDueDate(due) {
		task.DueDate = due
	}
	if created, ok := it["createdAt"].(string); ok && created != "" {
		task.CreatedAt = created
	}
	return task
}

// truthy follows JSON-in-JavaScript truthiness: null, false, 0, NaN and ""
// are false, everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return true
		}
		return f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}
