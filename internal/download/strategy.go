package download

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FetchFunc downloads a single blob by name.
type FetchFunc func(ctx context.Context, blobName string) error

// BlobError records a per-blob failure. Individual failures never abort
// the batch; they are collected and reported by the driver.
type BlobError struct {
	Blob string
	Err  error
}

// Strategy runs a batch of blob downloads. Both implementations run every
// submitted download to completion and return the collected failures.
type Strategy interface {
	Name() string
	Run(ctx context.Context, blobNames []string, fetch FetchFunc) []BlobError
}

// Sequential downloads blobs one at a time, logging and continuing on
// per-blob failure.
type Sequential struct{}

// Name implements Strategy.
func (Sequential) Name() string { return "sequential" }

// Run implements Strategy.
func (Sequential) Run(ctx context.Context, blobNames []string, fetch FetchFunc) []BlobError {
	var failed []BlobError
	for _, name := range blobNames {
		if err := fetch(ctx, name); err != nil {
			failed = append(failed, BlobError{Blob: name, Err: err})
		}
	}
	return failed
}

// Pool downloads blobs on a fixed-size worker pool. Workers share no
// mutable state beyond the filesystem; each writes a distinct path.
type Pool struct {
	Workers int
}

// Name implements Strategy.
func (p Pool) Name() string { return "pool" }

// Run implements Strategy. All downloads are submitted and run to
// completion; a failure does not cancel the remaining work, so the group
// carries no error and each outcome lands in its own slot.
func (p Pool) Run(ctx context.Context, blobNames []string, fetch FetchFunc) []BlobError {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]error, len(blobNames))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, name := range blobNames {
		i, name := i, name
		g.Go(func() error {
			outcomes[i] = fetch(ctx, name)
			return nil
		})
	}
	g.Wait()

	var failed []BlobError
	for i, err := range outcomes {
		if err != nil {
			failed = append(failed, BlobError{Blob: blobNames[i], Err: err})
		}
	}
	return failed
}
