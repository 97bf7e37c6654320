package extractor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

// InlineBackend reads text files in-process while honoring the same
// submit/poll/fetch contract as a remote backend. Submission reads the file
// immediately and the first poll reports a terminal state, so there is no
// real asynchronous phase.
type InlineBackend struct {
	mu   sync.Mutex
	jobs map[string]*inlineJob
}

type inlineJob struct {
	state  JobState
	errMsg string
	result *Result
}

// NewInlineBackend creates the in-process plain-text backend.
func NewInlineBackend() *InlineBackend {
	return &InlineBackend{
		jobs: make(map[string]*inlineJob),
	}
}

func (b *InlineBackend) Name() string {
	return "inline"
}

func (b *InlineBackend) Submit(ctx context.Context, path string) (string, error) {
	taskID := uuid.NewString()

	data, err := os.ReadFile(path)
	if err != nil {
		// I/O failure reading the source is the caller's error, not a job
		return "", err
	}

	job := &inlineJob{}
	if !utf8.Valid(data) {
		job.state = JobFailure
		job.errMsg = fmt.Sprintf("%s is not valid UTF-8 text", path)
	} else {
		job.state = JobSuccess
		job.result = &Result{
			Text: string(data),
			Metadata: map[string]string{
				"source": "inline",
			},
		}
	}

	b.mu.Lock()
	b.jobs[taskID] = job
	b.mu.Unlock()

	return taskID, nil
}

func (b *InlineBackend) Poll(ctx context.Context, taskID string) (*Job, error) {
	b.mu.Lock()
	job, ok := b.jobs[taskID]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return &Job{TaskID: taskID, State: job.state, Error: job.errMsg}, nil
}

func (b *InlineBackend) Fetch(ctx context.Context, taskID string) (*Result, error) {
	b.mu.Lock()
	job, ok := b.jobs[taskID]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if job.result == nil {
		return nil, fmt.Errorf("%w: task %s has no result", ErrBackendFailure, taskID)
	}
	return job.result, nil
}
