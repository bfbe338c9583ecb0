// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mdmend/internal/core/models"
	"mdmend/internal/repair"
)

// Runner repairs every document under a directory. Each document gets its
// own execution context and path mapping, so workers share nothing but the
// filesystem and per-document failures never bleed into other documents.
type Runner struct {
	Orch    *repair.Orchestrator
	Workers int
	Log     *zap.SugaredLogger
}

// NewRunner creates a batch runner; workers below 1 means sequential.
func NewRunner(orch *repair.Orchestrator, workers int, log *zap.SugaredLogger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{Orch: orch, Workers: workers, Log: log}
}

// Run walks dir for repairable documents and repairs them with bounded
// parallelism. Structural failures are recorded per document and the batch
// continues; only cancellation stops the run early.
func (r *Runner) Run(ctx context.Context, dir string, opts models.RepairOptions) (*models.RepairSummary, error) {
	files, err := collectDocuments(dir)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	summary := &models.RepairSummary{Total: len(files)}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)

	for _, file := range files {
		file := file
		g.Go(func() error {
			report, err := r.Orch.RepairFile(ctx, file, opts)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			summary.Reports = append(summary.Reports, *report)
			if report.Failed() {
				summary.Failed++
			} else {
				summary.Repaired++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Workers finish in arbitrary order; keep the summary deterministic.
	sort.Slice(summary.Reports, func(i, j int) bool {
		return summary.Reports[i].Document < summary.Reports[j].Document
	})

	return summary, nil
}

// collectDocuments lists the repairable markdown files under dir, skipping
// hidden directories, backups and prior repair output.
func collectDocuments(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".md") || strings.HasSuffix(path, repair.OutputSuffix) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
