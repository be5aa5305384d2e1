package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/okian/rchpass/internal/adapters/mq/queue"
	"github.com/okian/rchpass/internal/adapters/mq/worker"
	"github.com/okian/rchpass/internal/adapters/rchfile"
	"github.com/okian/rchpass/internal/domain/model"
	"github.com/okian/rchpass/pkg/logger"
)

// ManifestFile is written next to the exported arrays.
const ManifestFile = "manifest.json"

// enqueueRetry is the pause before retrying a full queue.
const enqueueRetry = time.Millisecond

// ExportedFile is one written array.
type ExportedFile struct {
	Period int    `json:"period"`
	Path   string `json:"path"`
}

// Manifest describes one export of a run.
type Manifest struct {
	RunID     string         `json:"run_id"`
	Model     string         `json:"model"`
	Rows      int            `json:"rows"`
	Cols      int            `json:"cols"`
	Periods   int            `json:"periods"`
	Files     []ExportedFile `json:"files"`
	CreatedAt string         `json:"created_at"`
}

// collector gathers worker results.
type collector struct {
	mu      sync.Mutex
	results []model.Result
}

func (c *collector) Report(_ context.Context, r model.Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

// Export writes the arrays of periods 0..n-1 of the current run to the
// configured output directory, n being the configured period count or, when
// zero, every period all zones can serve. One job per period runs on the
// worker pool. Failed periods are joined into the returned error; the
// manifest lists only the files that were written.
func (s *Service) Export(ctx context.Context) (Manifest, error) {
	r, err := s.current()
	if err != nil {
		return Manifest{}, err
	}
	n, bounded := r.builder.Periods()
	if s.cfg.Periods > 0 {
		n = s.cfg.Periods
	} else if !bounded {
		return Manifest{}, ErrUnboundedExport
	}

	w, err := rchfile.NewWriter(s.cfg.OutputDir, rchfile.WithHeader(s.cfg.ArrayHeader))
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrExport, err)
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	results := &collector{}
	pool := worker.NewPool(s.cfg.WorkerCount, q, r.builder, w, worker.WithReporter(results))
	pool.Start(ctx)

	start := time.Now()
	s.logger.Info(ctx, "export started",
		logger.String("run_id", r.id),
		logger.Int("periods", n),
		logger.Int("workers", pool.Size()),
		logger.String("dir", s.cfg.OutputDir),
	)

	produceErr := s.produce(ctx, q, r.id, n)
	_ = q.Close()
	if err := pool.Wait(ctx); err != nil {
		_ = pool.Shutdown(context.Background())
		return Manifest{}, fmt.Errorf("%w: %w", ErrExport, err)
	}
	if produceErr != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrExport, produceErr)
	}

	sort.Slice(results.results, func(i, j int) bool {
		return results.results[i].Job.Period < results.results[j].Job.Period
	})
	d := r.builder.Descriptor()
	m := Manifest{
		RunID:     r.id,
		Model:     r.builder.Model(),
		Rows:      d.Rows,
		Cols:      d.Cols,
		Periods:   n,
		Files:     make([]ExportedFile, 0, len(results.results)),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	var errs []error
	for _, res := range results.results {
		if !res.OK() {
			errs = append(errs, fmt.Errorf("period %d: %w", res.Job.Period, res.Err))
			continue
		}
		m.Files = append(m.Files, ExportedFile{Period: res.Job.Period, Path: res.Path})
	}
	if err := writeManifest(filepath.Join(s.cfg.OutputDir, ManifestFile), m); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info(ctx, "export finished",
		logger.String("run_id", r.id),
		logger.Int("written", len(m.Files)),
		logger.Int("failed", len(errs)),
		logger.Duration("took", time.Since(start)),
	)
	if len(errs) > 0 {
		return m, fmt.Errorf("%w: %w", ErrExport, errors.Join(errs...))
	}
	return m, nil
}

// produce enqueues one job per period, waiting while the queue is full.
func (s *Service) produce(ctx context.Context, q *queue.InMemoryQueue, runID string, n int) error {
	for p := 0; p < n; p++ {
		job := model.Job{RunID: runID, Period: p}
		for {
			err := q.Enqueue(ctx, job)
			if err == nil {
				break
			}
			if !errors.Is(err, queue.ErrFull) {
				return fmt.Errorf("enqueue %s: %w", job, err)
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("enqueue %s: %w", job, ctx.Err())
			case <-time.After(enqueueRetry):
			}
		}
	}
	return nil
}

func writeManifest(path string, m Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
