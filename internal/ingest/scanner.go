package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/b08x/zDB/internal/catalog"
	"github.com/b08x/zDB/internal/hasher"
	"github.com/b08x/zDB/internal/logger"
)

// Scanner walks directories, hashes files, and registers them in the
// catalog. Re-scanning is idempotent: a known hash adds at most a path
// observation, never a second file row.
type Scanner struct {
	store   catalog.Store
	workers int
}

// ScanConfig contains configuration for a scan
type ScanConfig struct {
	Workers int  // Number of concurrent workers (default: runtime.NumCPU())
	DryRun  bool // Report what would happen without writing
}

// ScanStats summarizes a scan operation
type ScanStats struct {
	Scanned       int
	Added         int
	Duplicates    int
	Skipped       int
	Errors        int
	Duration      time.Duration
	ErrorMessages []string
}

// New creates a new Scanner instance
func New(store catalog.Store) *Scanner {
	return &Scanner{
		store:   store,
		workers: runtime.NumCPU(),
	}
}

// Scan walks rootPath and registers every regular file. Unreadable files
// are counted and skipped; the scan itself keeps going.
func (s *Scanner) Scan(ctx context.Context, rootPath string, config *ScanConfig) (*ScanStats, error) {
	if config == nil {
		config = &ScanConfig{Workers: runtime.NumCPU()}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	startTime := time.Now()
	stats := &ScanStats{
		ErrorMessages: make([]string, 0),
	}

	files, skipped, err := discoverFiles(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	stats.Skipped = skipped
	stats.Scanned = len(files)

	var (
		added      int32
		duplicates int32
		failed     int32
		mu         sync.Mutex
	)
	// Dry runs never write, so hashes already counted this scan must be
	// tracked in memory or intra-scan duplicates would report as added.
	seen := make(map[hasher.Digest]struct{})

	semaphore := make(chan struct{}, workers)
	g, gctx := errgroup.WithContext(ctx)

	for _, path := range files {
		g.Go(func() error {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			info, err := hasher.SumFile(path)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				logger.Warn("skipping unreadable file %s: %v", path, err)
				return nil
			}

			if config.DryRun {
				mu.Lock()
				_, dup := seen[info.Digest]
				seen[info.Digest] = struct{}{}
				mu.Unlock()
				if dup {
					atomic.AddInt32(&duplicates, 1)
					return nil
				}

				_, err := s.store.GetFileByHash(gctx, info.Digest)
				switch {
				case err == nil:
					atomic.AddInt32(&duplicates, 1)
				case err == catalog.ErrNotFound:
					atomic.AddInt32(&added, 1)
				default:
					return err
				}
				return nil
			}

			_, created, err := s.store.FindOrCreateFile(gctx, path, info)
			if err != nil {
				return err
			}
			if created {
				atomic.AddInt32(&added, 1)
				logger.Debug("added %s (%s)", path, info.Digest.Hex())
			} else {
				atomic.AddInt32(&duplicates, 1)
				logger.Debug("duplicate content %s (%s)", path, info.Digest.Hex())
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Added = int(added)
	stats.Duplicates = int(duplicates)
	stats.Errors = int(failed)
	stats.Duration = time.Since(startTime)

	if !config.DryRun && stats.Duplicates > 0 {
		if _, err := s.store.RefreshDuplicateSummary(ctx); err != nil {
			return stats, fmt.Errorf("failed to refresh duplicate summary: %w", err)
		}
	}

	return stats, nil
}

// ProcessFile registers a single file. Unlike Scan, the first error stops
// the operation and is returned to the caller.
func (s *Scanner) ProcessFile(ctx context.Context, path string) (*catalog.FileRecord, bool, error) {
	info, err := hasher.SumFile(path)
	if err != nil {
		return nil, false, err
	}
	return s.store.FindOrCreateFile(ctx, path, info)
}

// discoverFiles finds all regular files under rootPath. Hidden directories
// are skipped; non-regular entries (symlinks, devices, sockets) are counted
// as skipped.
func discoverFiles(rootPath string) ([]string, int, error) {
	var files []string
	skipped := 0

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != rootPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() || strings.HasPrefix(info.Name(), ".") {
			skipped++
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, skipped, err
}
