package azure

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/xtxerr/entralog/internal/errors"
	"github.com/xtxerr/entralog/internal/logging"
)

// Fetcher downloads blobs from a BlobSource to local files, with bounded
// retries and a per-attempt timeout.
type Fetcher struct {
	source     BlobSource
	maxRetries int
	timeout    time.Duration
	log        *slog.Logger

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

// NewFetcher creates a fetcher over source. maxRetries is the number of
// attempts beyond the first; timeout bounds each attempt.
func NewFetcher(source BlobSource, maxRetries int, timeout time.Duration) *Fetcher {
	return &Fetcher{
		source:     source,
		maxRetries: maxRetries,
		timeout:    timeout,
		log:        logging.Component("fetcher").With("container", source.ContainerName()),
		sleep:      time.Sleep,
	}
}

// Fetch downloads one blob to destDir/<blobName>, creating parent
// directories as needed. Blob names may contain slashes; the resulting
// local path mirrors the blob path. A partial file from a failed attempt
// is removed before the next attempt or the final error return.
func (f *Fetcher) Fetch(ctx context.Context, blobName, destDir string) error {
	dest := filepath.Join(destDir, filepath.FromSlash(blobName))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, "create directory for %s", blobName)
	}

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s, ...
			f.sleep(time.Duration(1<<(attempt-1)) * time.Second)
			f.log.Warn("retrying download", "blob", blobName, "attempt", attempt+1)
		}

		lastErr = f.fetchOnce(ctx, blobName, dest)
		if lastErr == nil {
			return nil
		}

		os.Remove(dest)

		if !IsTransient(lastErr) {
			break
		}
	}

	return fmt.Errorf("blob %s: %w: %w", blobName, errors.ErrDownloadFailed, lastErr)
}

// fetchOnce performs a single download attempt.
func (f *Fetcher) fetchOnce(ctx context.Context, blobName, dest string) error {
	attemptCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "create %s", dest)
	}

	if err := f.source.Download(attemptCtx, blobName, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// IsTransient reports whether a download error is worth retrying:
// throttling and server-side failures, timeouts, and network errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
