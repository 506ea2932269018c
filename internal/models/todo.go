package models

import (
	"errors"
	"fmt"
	"regexp"
)

// Task represents a todo item
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DueDate   string `json:"dueDate"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

// HasDueDate reports whether the task carries a well-formed due date.
func (t Task) HasDueDate() bool {
	return t.DueDate != "" && ValidDueDate(t.DueDate)
}

var dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDueDate checks the YYYY-MM-DD shape only; calendar validity is not checked.
func ValidDueDate(s string) bool {
	return dueDatePattern.MatchString(s)
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

var ErrUnknownFilter = errors.New("unknown filter")

// ParseFilter maps user input onto a Filter. An empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
	}
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

func (f Filter) Valid() bool {
	return f == FilterAll || f == FilterActive || f == FilterCompleted
}

// Summary counts are always taken over the whole collection.
type Summary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

func (s Summary) String() string {
	plural := "s"
	if s.Total == 1 {
		plural = ""
	}
	return fmt.Sprintf("%d task%s • %d completed", s.Total, plural, s.Completed)
}

// Projection is the filtered, sorted view handed to a renderer.
type Projection struct {
	Filter  Filter  `json:"filter"`
	Tasks   []Task  `json:"tasks"`
	Summary Summary `json:"summary"`
}
