package download

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/xtxerr/entralog/internal/errors"
)

func TestSequentialContinuesOnError(t *testing.T) {
	var fetched []string
	fail := errors.New("boom")

	failed := Sequential{}.Run(context.Background(), []string{"a", "b", "c"},
		func(ctx context.Context, name string) error {
			fetched = append(fetched, name)
			if name == "b" {
				return fail
			}
			return nil
		})

	if len(fetched) != 3 {
		t.Errorf("fetched %v, want all 3 attempted", fetched)
	}
	if len(failed) != 1 || failed[0].Blob != "b" {
		t.Errorf("failed = %v, want just b", failed)
	}
	if !errors.Is(failed[0].Err, fail) {
		t.Errorf("failed err = %v", failed[0].Err)
	}
}

func TestPoolFetchesEverything(t *testing.T) {
	names := make([]string, 100)
	for i := range names {
		names[i] = string(rune('a' + i%26))
	}

	var count atomic.Int64
	failed := Pool{Workers: 5}.Run(context.Background(), names,
		func(ctx context.Context, name string) error {
			count.Add(1)
			return nil
		})

	if count.Load() != 100 {
		t.Errorf("fetched = %d, want 100", count.Load())
	}
	if len(failed) != 0 {
		t.Errorf("failed = %v, want none", failed)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 4

	var mu sync.Mutex
	inFlight, peak := 0, 0

	names := make([]string, 50)
	for i := range names {
		names[i] = "blob"
	}

	Pool{Workers: workers}.Run(context.Background(), names,
		func(ctx context.Context, name string) error {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()

			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		})

	if peak > workers {
		t.Errorf("peak concurrency = %d, want <= %d", peak, workers)
	}
}

func TestPoolCollectsAllErrors(t *testing.T) {
	fail := errors.New("boom")
	failed := Pool{Workers: 3}.Run(context.Background(), []string{"a", "b", "c", "d"},
		func(ctx context.Context, name string) error {
			if name == "a" || name == "d" {
				return fail
			}
			return nil
		})

	if len(failed) != 2 {
		t.Fatalf("failed = %v, want 2 entries", failed)
	}
	// Failures keep submission order.
	if failed[0].Blob != "a" || failed[1].Blob != "d" {
		t.Errorf("failed order = %v, %v", failed[0].Blob, failed[1].Blob)
	}
}
