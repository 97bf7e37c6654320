package extractor

import (
	"context"
	"errors"
)

var (
	// ErrBackendUnreachable indicates a transport-level failure talking to
	// the extraction backend, distinct from a failure the backend reported
	ErrBackendUnreachable = errors.New("extraction backend unreachable")
	// ErrBackendFailure indicates the backend reported an explicit failure
	// for a submitted job
	ErrBackendFailure = errors.New("extraction backend failure")
	// ErrPollTimeout indicates the poll budget was exhausted without a
	// terminal backend status
	ErrPollTimeout = errors.New("extraction poll timeout")
	// ErrUnknownTask indicates a poll or fetch referenced a task the
	// backend doesn't know
	ErrUnknownTask = errors.New("unknown extraction task")
)

// JobState is the lifecycle state of a submitted extraction job.
type JobState string

const (
	JobPending JobState = "pending"
	JobSuccess JobState = "success"
	JobFailure JobState = "failure"
)

// Job is the poll-time view of a submitted extraction task.
type Job struct {
	TaskID string
	State  JobState
	Error  string // backend-reported error text, verbatim, on JobFailure
}

// Result is the recovered output of a successful extraction job.
type Result struct {
	Text     string
	Pages    int
	Tables   int
	Images   int
	Metadata map[string]string
}

// Backend is the asynchronous document-conversion contract: submit a file,
// poll until a terminal state, then fetch the artifact. Implementations
// without real asynchronous semantics may report JobSuccess immediately
// from the first poll.
type Backend interface {
	// Submit sends a file for conversion and returns a task ID.
	Submit(ctx context.Context, path string) (string, error)

	// Poll reports the current state of a task.
	Poll(ctx context.Context, taskID string) (*Job, error)

	// Fetch retrieves the artifact of a successfully completed task.
	Fetch(ctx context.Context, taskID string) (*Result, error)

	// Name identifies the backend for logging.
	Name() string
}
