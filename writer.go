package pichecker

import (
	"context"
	"time"
)

type StatusWriter interface {
	Type() string
	Version() string
	WriteStatus(ctx context.Context, entry StatusEntry) error
}

type StatusEntry struct {
	TickID     string
	Label      string
	Command    string
	Up         bool
	Failure    FailureKind
	Message    *string
	ReturnCode *int
	Elapsed    time.Duration
	Timestamp  time.Time
}
