package services

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/ytakahashi/todo-list/internal/models"
)

// Project filters and orders tasks for display. Incomplete tasks come first;
// within each group dated tasks precede undated ones (earliest due first) and
// undated tasks run newest-created first. Summary counts cover every task,
// whatever the filter. The input slice is never modified.
func Project(tasks []Task, filter models.Filter) (models.Projection, error) {
	if !filter.Valid() {
		return models.Projection{}, fmt.Errorf("%w: %q", models.ErrUnknownFilter, filter)
	}

	out := make([]Task, 0, len(tasks))
	summary := models.Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			summary.Completed++
		}
		if filter.Match(t) {
			out = append(out, t)
		}
	}

	slices.SortStableFunc(out, compareTasks)

	return models.Projection{
		Filter:  filter,
		Tasks:   out,
		Summary: summary,
	}, nil
}

func compareTasks(a, b Task) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}

	aDue, bDue := a.HasDueDate(), b.HasDueDate()
	switch {
	case aDue && bDue:
		// YYYY-MM-DD orders lexically
		return cmp.Compare(a.DueDate, b.DueDate)
	case aDue:
		return -1
	case bDue:
		return 1
	}

	return compareCreatedDesc(a.CreatedAt, b.CreatedAt)
}

func compareCreatedDesc(a, b string) int {
	at, aErr := time.Parse(time.RFC3339Nano, a)
	bt, bErr := time.Parse(time.RFC3339Nano, b)
	if aErr == nil && bErr == nil {
		return bt.Compare(at)
	}
	return cmp.Compare(b, a)
}
