package extractor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/b08x/zDB/internal/catalog"
	"github.com/b08x/zDB/internal/hasher"
	"github.com/b08x/zDB/internal/logger"
)

// ErrNotClaimable is returned when a file is not in a state from which
// processing may be initiated (only Discovered and Error qualify).
var ErrNotClaimable = errors.New("file is not in a claimable state")

// Config carries the poll policy. Both values are caller-configured,
// never hardcoded at the call sites.
type Config struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// DefaultConfig returns the poll policy used when none is configured.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		PollTimeout:  5 * time.Minute,
	}
}

// Coordinator drives the per-file state machine from Discovered to
// Processed. Text-like files go through the in-process backend, binary
// documents through the configured conversion backend; the coordinator only
// depends on the submit/poll/fetch contract, not on which implementation
// answers.
type Coordinator struct {
	store  catalog.Store
	binary Backend
	inline Backend
	cfg    Config
}

// NewCoordinator wires a coordinator. binary may be nil when no conversion
// backend is deployed; binary documents then fail with a configuration error.
func NewCoordinator(store catalog.Store, binary Backend, cfg Config) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultConfig().PollTimeout
	}
	return &Coordinator{
		store:  store,
		binary: binary,
		inline: NewInlineBackend(),
		cfg:    cfg,
	}
}

// Stats summarizes a batch extraction run.
type Stats struct {
	Processed int
	Failed    int
	Skipped   int
}

// Process runs extraction for one FileRecord identified by hash.
//
// The claim transition is atomic: when two workers race on the same record,
// exactly one proceeds and the other returns ErrNotClaimable. Any failure
// after a successful claim transitions the record to Error so a retry stays
// possible; failures are never retried automatically.
func (c *Coordinator) Process(ctx context.Context, hash hasher.Digest) error {
	file, err := c.store.GetFileByHash(ctx, hash)
	if err != nil {
		return err
	}

	claimed, err := c.store.ClaimFile(ctx, hash)
	if err != nil {
		return err
	}
	if !claimed {
		return fmt.Errorf("%w: status %s", ErrNotClaimable, file.Status)
	}

	backend := c.binary
	contentType := catalog.ContentExtracted
	if IsTextLike(file.OriginalPath) {
		backend = c.inline
		contentType = catalog.ContentRaw
	}
	if backend == nil {
		return c.fail(ctx, hash, "no extraction backend configured for binary documents")
	}

	logger.Debug("extracting %s via %s backend", file.OriginalPath, backend.Name())

	result, err := c.runJob(ctx, backend, file.OriginalPath, hash)
	if err != nil {
		return err
	}

	content := &catalog.ContentRecord{
		FileID:      file.ID,
		ContentType: contentType,
		Text:        result.Text,
		Language:    DetectLanguage(file.OriginalPath),
		Annotations: resultAnnotations(result),
	}
	if err := c.store.UpsertContent(ctx, content); err != nil {
		return c.fail(ctx, hash, err.Error())
	}

	if err := c.store.SetStatus(ctx, hash, catalog.StatusProcessed, ""); err != nil {
		return err
	}
	return nil
}

// runJob drives submit -> poll -> fetch against one backend, bounded by the
// configured poll budget and cancellable through ctx. On any terminal
// failure the record is moved to Error and an error is returned.
func (c *Coordinator) runJob(ctx context.Context, backend Backend, path string, hash hasher.Digest) (*Result, error) {
	taskID, err := backend.Submit(ctx, path)
	if err != nil {
		return nil, c.failErr(ctx, hash, err)
	}

	deadline := time.Now().Add(c.cfg.PollTimeout)
	for {
		job, err := backend.Poll(ctx, taskID)
		if err != nil {
			return nil, c.failErr(ctx, hash, err)
		}

		switch job.State {
		case JobSuccess:
			result, err := backend.Fetch(ctx, taskID)
			if err != nil {
				return nil, c.failErr(ctx, hash, err)
			}
			return result, nil

		case JobFailure:
			// The backend's error text is recorded verbatim
			if err := c.store.SetStatus(ctx, hash, catalog.StatusError, job.Error); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrBackendFailure, job.Error)

		case JobPending:
			if time.Now().After(deadline) {
				timeoutMsg := fmt.Sprintf("extraction timed out after %s", c.cfg.PollTimeout)
				if err := c.store.SetStatus(ctx, hash, catalog.StatusError, timeoutMsg); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("%w: task %s", ErrPollTimeout, taskID)
			}
			select {
			case <-ctx.Done():
				// Never leave the record parked in Processing
				_ = c.store.SetStatus(ctx, hash, catalog.StatusError, "extraction canceled: "+ctx.Err().Error())
				return nil, ctx.Err()
			case <-time.After(c.cfg.PollInterval):
			}

		default:
			return nil, c.fail(ctx, hash, fmt.Sprintf("unknown job state %q", job.State))
		}
	}
}

// ProcessPending runs extraction over every record currently in Discovered
// or Error state. Per-file failures are counted, not fatal to the batch.
func (c *Coordinator) ProcessPending(ctx context.Context) (*Stats, error) {
	files, err := c.store.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, file := range files {
		if file.Status != catalog.StatusDiscovered && file.Status != catalog.StatusError {
			stats.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := c.Process(ctx, file.ContentHash); err != nil {
			logger.Warn("extraction failed for %s: %v", file.OriginalPath, err)
			stats.Failed++
			continue
		}
		stats.Processed++
	}
	return stats, nil
}

func (c *Coordinator) fail(ctx context.Context, hash hasher.Digest, msg string) error {
	if err := c.store.SetStatus(ctx, hash, catalog.StatusError, msg); err != nil {
		return err
	}
	return errors.New(msg)
}

func (c *Coordinator) failErr(ctx context.Context, hash hasher.Digest, cause error) error {
	if err := c.store.SetStatus(ctx, hash, catalog.StatusError, cause.Error()); err != nil {
		return err
	}
	return cause
}

func resultAnnotations(result *Result) map[string]string {
	annotations := make(map[string]string, len(result.Metadata)+3)
	for k, v := range result.Metadata {
		annotations[k] = v
	}
	if result.Pages > 0 {
		annotations["pages"] = strconv.Itoa(result.Pages)
	}
	if result.Tables > 0 {
		annotations["tables"] = strconv.Itoa(result.Tables)
	}
	if result.Images > 0 {
		annotations["images"] = strconv.Itoa(result.Images)
	}
	return annotations
}
