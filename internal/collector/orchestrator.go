package collector

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"gamedex/internal/models"
)

// BatchResult is one batch's outcome. A batch that failed carries its
// error here instead of affecting its siblings.
type BatchResult struct {
	Index      int    `json:"index"`
	Games      int    `json:"games"`
	Metadata   Stats  `json:"metadata"`
	Storefront *Stats `json:"storefront,omitempty"`
	Err        error  `json:"-"`
}

// Orchestrator fans the per-title collectors out over the identifier set:
// one goroutine per batch, metadata then (optionally) storefront
// collection sequentially within a batch, all batches concurrent with each
// other. The shared rate gate is the only concurrency bound.
type Orchestrator struct {
	Metadata   *MetadataCollector
	Storefront *StorefrontCollector
	Logger     *zap.Logger
}

func (o *Orchestrator) Run(ctx context.Context, games []models.Game, sink Sink, batchSize int, progress ProgressFunc) []BatchResult {
	if len(games) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 50
	}

	var batches [][]models.Game
	for start := 0; start < len(games); start += batchSize {
		end := start + batchSize
		if end > len(games) {
			end = len(games)
		}
		batches = append(batches, games[start:end])
	}

	results := make([]BatchResult, len(batches))
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []models.Game) {
			defer wg.Done()
			results[i] = o.runBatch(ctx, i, batch, sink, progress)
		}(i, batch)
	}
	wg.Wait()

	return results
}

func (o *Orchestrator) runBatch(ctx context.Context, index int, batch []models.Game, sink Sink, progress ProgressFunc) (result BatchResult) {
	result = BatchResult{Index: index, Games: len(batch)}

	// Batch isolation: a panicking batch surfaces in its own result slot
	// and never cancels the others.
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("batch %d panicked: %v", index, r)
			if o.Logger != nil {
				o.Logger.Error("batch panicked", zap.Int("batch", index), zap.Any("panic", r))
			}
		}
	}()

	metaStats, err := o.Metadata.CollectFor(ctx, batch, sink, len(batch), progress)
	result.Metadata = metaStats
	if err != nil {
		result.Err = err
		return result
	}

	if o.Storefront != nil {
		storeStats, err := o.Storefront.CollectFor(ctx, batch, sink, len(batch), progress)
		result.Storefront = &storeStats
		if err != nil {
			result.Err = err
			return result
		}
	}

	return result
}
