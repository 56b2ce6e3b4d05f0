package growi

import (
	"context"
	"sync"
	"time"
)

// DefaultBatchConcurrency is used when a BatchUpdater is built with a
// non-positive concurrency.
const DefaultBatchConcurrency = 4

// BatchResult is the outcome of one update in a batch.
type BatchResult struct {
	Index      int
	Request    *MutationRequest
	Descriptor *PageDescriptor
	Error      error
	Duration   time.Duration
}

// BatchUpdater runs many page updates with bounded concurrency. Each page's
// resolve and write happen inside a single Update call on one goroutine, so a
// descriptor resolved for one page is never applied to another.
type BatchUpdater struct {
	pages       PagesClient
	concurrency int
	timeout     time.Duration
}

// NewBatchUpdater creates a new batch updater.
func NewBatchUpdater(pages PagesClient, concurrency int) *BatchUpdater {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	return &BatchUpdater{
		pages:       pages,
		concurrency: concurrency,
	}
}

// SetTimeout bounds each individual update. Zero means no per-update timeout.
func (b *BatchUpdater) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Update applies every request and returns results in input order.
// Failures are reported per result; conflicting writes are not retried.
func (b *BatchUpdater) Update(ctx context.Context, requests []*MutationRequest) []BatchResult {
	results := make([]BatchResult, len(requests))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, request := range requests {
		waitGroup.Add(1)

		go func(index int, request *MutationRequest) {
			defer waitGroup.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			opCtx := ctx

			if b.timeout > 0 {
				var cancel context.CancelFunc

				opCtx, cancel = context.WithTimeout(ctx, b.timeout)
				defer cancel()
			}

			start := time.Now()
			descriptor, err := b.pages.Update(opCtx, request)
			results[index] = BatchResult{
				Index:      index,
				Request:    request,
				Descriptor: descriptor,
				Error:      err,
				Duration:   time.Since(start),
			}
		}(index, request)
	}

	waitGroup.Wait()

	return results
}

// Failed returns the results that carry an error.
func Failed(results []BatchResult) []BatchResult {
	var failed []BatchResult

	for _, result := range results {
		if result.Error != nil {
			failed = append(failed, result)
		}
	}

	return failed
}
