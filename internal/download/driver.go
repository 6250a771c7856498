// Package download orchestrates blob listing and fetching for the two log
// categories (audit, sign-in). One driver is parameterized by a fetch
// strategy: sequential or bounded worker pool.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xtxerr/entralog/internal/azure"
	"github.com/xtxerr/entralog/internal/config"
	"github.com/xtxerr/entralog/internal/datetoken"
	"github.com/xtxerr/entralog/internal/errors"
	"github.com/xtxerr/entralog/internal/logging"
)

// progressEvery controls how often fetch progress is logged.
const progressEvery = 50

// Category names the two fixed log categories.
type Category string

const (
	CategoryAudit  Category = "audit"
	CategorySignin Category = "signin"
)

// CategoryResult summarizes one category's run.
type CategoryResult struct {
	Category  Category
	Container string
	Listed    int
	Admitted  int
	Fetched   int
	Failed    []BlobError
}

// Result summarizes a full download run.
type Result struct {
	RunID      string
	Categories []CategoryResult
	Elapsed    time.Duration
}

// NewSource builds a BlobSource from a container SAS URI. Tests substitute
// a stub constructor.
type NewSource func(sasURI string) (azure.BlobSource, error)

// Driver orchestrates listing and fetching for both categories.
type Driver struct {
	cfg       *config.Config
	strategy  Strategy
	newSource NewSource
}

// NewDriver creates a driver using the Azure-backed blob source.
func NewDriver(cfg *config.Config, strategy Strategy) *Driver {
	return NewDriverWithSource(cfg, strategy, func(sasURI string) (azure.BlobSource, error) {
		return azure.NewContainerClient(sasURI)
	})
}

// NewDriverWithSource creates a driver with a custom blob source
// constructor.
func NewDriverWithSource(cfg *config.Config, strategy Strategy, newSource NewSource) *Driver {
	return &Driver{cfg: cfg, strategy: strategy, newSource: newSource}
}

// Run validates configuration, then lists and downloads both categories.
// rng optionally restricts downloads to blobs whose names carry a date
// token inside the range. A failed category does not abort the other; the
// returned error is non-nil if configuration is invalid or any category
// failed entirely.
func (d *Driver) Run(ctx context.Context, rng datetoken.Range) (*Result, error) {
	// Fail fast before any network call.
	if err := d.cfg.ValidateDownload(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	log := logging.Component("download").With("run_id", result.RunID)

	start := time.Now()
	log.Info("run started", "strategy", d.strategy.Name())

	var runErrs []error
	for _, cat := range []struct {
		name Category
		uri  string
	}{
		{CategorySignin, d.cfg.SigninLogsURI},
		{CategoryAudit, d.cfg.AuditLogsURI},
	} {
		cr, err := d.runCategory(ctx, log, cat.name, cat.uri, rng)
		if err != nil {
			log.Error("category failed", "category", cat.name, "error", err)
			runErrs = append(runErrs, fmt.Errorf("%s: %w", cat.name, err))
			continue
		}
		result.Categories = append(result.Categories, *cr)
	}

	result.Elapsed = time.Since(start)
	log.Info("run finished", "elapsed", result.Elapsed)

	if len(runErrs) > 0 {
		return result, errors.Join(runErrs...)
	}
	return result, nil
}

// runCategory lists one container and fetches its admitted blobs.
func (d *Driver) runCategory(ctx context.Context, log *slog.Logger, category Category, sasURI string, rng datetoken.Range) (*CategoryResult, error) {
	source, err := d.newSource(sasURI)
	if err != nil {
		return nil, err
	}

	clog := log.With("category", string(category), "container", source.ContainerName())

	names, err := source.List(ctx)
	if err != nil {
		return nil, err
	}
	clog.Info("listed blobs", "count", len(names))

	admitted := names
	if !rng.IsOpen() {
		admitted = make([]string, 0, len(names))
		for _, name := range names {
			if rng.Admits(name) {
				admitted = append(admitted, name)
			}
		}
		clog.Info("date filter applied", "admitted", len(admitted), "start", rng.Start, "end", rng.End)
	}

	destDir := filepath.Join(d.cfg.DataDir, source.ContainerName())
	fetcher := azure.NewFetcher(source, d.cfg.Download.MaxRetries, d.cfg.Download.Timeout)

	var done atomic.Int64
	failed := d.strategy.Run(ctx, admitted, func(ctx context.Context, blobName string) error {
		err := fetcher.Fetch(ctx, blobName, destDir)
		if err != nil {
			clog.Error("blob failed", "blob", blobName, "error", err)
		}
		if n := done.Add(1); n%progressEvery == 0 {
			clog.Info("progress", "processed", n, "total", len(admitted))
		}
		return err
	})

	cr := &CategoryResult{
		Category:  category,
		Container: source.ContainerName(),
		Listed:    len(names),
		Admitted:  len(admitted),
		Fetched:   len(admitted) - len(failed),
		Failed:    failed,
	}
	clog.Info("category finished", "fetched", cr.Fetched, "failed", len(failed))

	return cr, nil
}
