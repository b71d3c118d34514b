package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// translates one batch with one API request
type batchFunc func(ctx context.Context, items []TranslationItem) ([]TranslationResult, error)

// RunBatches splits items into batches of batchSize and runs fn on them
// with up to concurrency workers pulling from a shared queue. The first
// failing batch cancels the rest. Results are ordered by Index.
func RunBatches(
	ctx context.Context,
	items []TranslationItem,
	batchSize, concurrency int,
	fn batchFunc,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var batches [][]TranslationItem
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}

	if len(batches) == 1 {
		return fn(ctx, batches[0])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batchIdx := range workChan {
				if ctx.Err() != nil {
					return
				}
				results, err := fn(ctx, batches[batchIdx])
				if err != nil {
					cancel()
				}
				resultChan <- batchResult{
					Index:   batchIdx,
					Results: results,
					Error:   err,
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var (
		allResults []TranslationResult
		firstErr   error
	)
	for result := range resultChan {
		if result.Error != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf(
					"batch %d failed: %w",
					result.Index,
					result.Error,
				)
			}
			continue
		}
		allResults = append(allResults, result.Results...)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].Index < allResults[j].Index
	})

	return allResults, nil
}
