// Package resources maintains the mod/resource catalog: the set of files
// under the configured resources directory that get offered to connecting
// clients. The dispatcher and heartbeat engine only ever need a count, a
// total size, and a trimmed name list (spec.md §2), so the catalog is kept
// as a small read-mostly snapshot, rebuilt on a gocron-scheduled rescan
// rather than re-walking the filesystem on every query.
package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// snapshot is the immutable result of one directory scan.
type snapshot struct {
	names    []string
	totalSz  int64
	fileCount int
}

// Catalog is a lock-free, periodically refreshed view of a resources
// directory. The zero value is not usable — create with New.
type Catalog struct {
	dir    string
	ptr    atomic.Pointer[snapshot]
	logger *zap.Logger
}

// New creates a Catalog rooted at dir and performs an initial synchronous
// scan so the first query after construction already has data.
func New(dir string, logger *zap.Logger) *Catalog {
	c := &Catalog{dir: dir, logger: logger.Named("resources")}
	c.Rescan()
	return c
}

// Rescan walks the resources directory and atomically publishes a new
// snapshot. A missing or unreadable directory is treated as empty rather
// than an error — a fresh server install may not have one yet.
func (c *Catalog) Rescan() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		c.logger.Debug("resources directory unavailable, treating as empty", zap.String("dir", c.dir), zap.Error(err))
		c.ptr.Store(&snapshot{})
		return
	}

	next := &snapshot{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		next.names = append(next.names, entry.Name())
		next.totalSz += info.Size()
		next.fileCount++
	}
	c.ptr.Store(next)
}

// Count returns the number of resource files as of the last rescan.
func (c *Catalog) Count() int {
	return c.load().fileCount
}

// MaxSize returns the combined byte size of all resource files as of the
// last rescan.
func (c *Catalog) MaxSize() int64 {
	return c.load().totalSz
}

// TrimmedList returns the resource file names as of the last rescan, with
// their extensions stripped — the format the original server advertises
// to connecting clients in its resource manifest.
func (c *Catalog) TrimmedList() []string {
	names := c.load().names
	trimmed := make([]string, len(names))
	for i, n := range names {
		trimmed[i] = strings.TrimSuffix(n, filepath.Ext(n))
	}
	return trimmed
}

func (c *Catalog) load() *snapshot {
	s := c.ptr.Load()
	if s == nil {
		return &snapshot{}
	}
	return s
}

// Scheduler wraps a gocron scheduler dedicated to periodic rescans,
// following the teacher's one-scheduler-per-concern pattern.
type Scheduler struct {
	cron gocron.Scheduler
}

// NewScheduler creates a Scheduler that rescans catalog every interval
// and starts it immediately.
func NewScheduler(catalog *Catalog, interval time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("resources: create scheduler: %w", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(catalog.Rescan),
	); err != nil {
		return nil, fmt.Errorf("resources: schedule rescan: %w", err)
	}
	s.Start()
	return &Scheduler{cron: s}, nil
}

// Stop shuts the scheduler down, waiting for any in-flight rescan to
// finish.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}
