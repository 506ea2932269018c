package services

import (
	"time"

	"github.com/google/uuid"
)

// IDGenerator hands out task ids. It must never repeat an id it has returned.
type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) NewID() string {
	return uuid.New().String()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// IDFunc adapts a plain function to IDGenerator.
type IDFunc func() string

func (f IDFunc) NewID() string { return f() }

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

const timestampLayout = "2006-01-02T15:04:05.000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
