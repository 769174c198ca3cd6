package peers

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchResult reports a batch screening run. Per-symbol failures are
// isolated into Errors; one symbol's failure never aborts the batch.
type BatchResult struct {
	Processed int               `json:"processed"`
	Succeeded []string          `json:"succeeded"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Batch runs the screener over many symbols in chunks.
type Batch struct {
	screener *Screener
	// ChunkDelay spaces out chunks to respect provider rate limits.
	ChunkDelay time.Duration
}

// NewBatch creates a batch processor with the default 1s inter-chunk delay.
func NewBatch(screener *Screener) *Batch {
	return &Batch{screener: screener, ChunkDelay: time.Second}
}

// Process screens symbols in chunks of batchSize, fanning out within a
// chunk and sleeping ChunkDelay between chunks. There is no guard
// against two overlapping runs; callers serialize if they need that.
func (b *Batch) Process(ctx context.Context, symbols []string, batchSize int) *BatchResult {
	if batchSize <= 0 {
		batchSize = 5
	}

	result := &BatchResult{Errors: map[string]string{}}
	var mu sync.Mutex

	for start := 0; start < len(symbols); start += batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				mu.Lock()
				for _, sym := range symbols[start:] {
					result.Errors[strings.ToUpper(sym)] = ctx.Err().Error()
				}
				mu.Unlock()
				return result
			case <-time.After(b.ChunkDelay):
			}
		}

		end := min(start+batchSize, len(symbols))
		chunk := symbols[start:end]

		g, gctx := errgroup.WithContext(ctx)
		for _, sym := range chunk {
			sym := strings.ToUpper(sym)
			g.Go(func() error {
				_, err := b.screener.Screen(gctx, sym)
				mu.Lock()
				defer mu.Unlock()
				result.Processed++
				if err != nil {
					result.Errors[sym] = err.Error()
					zap.L().Warn("batch screen failed",
						zap.String("symbol", sym),
						zap.Error(err),
					)
					return nil
				}
				result.Succeeded = append(result.Succeeded, sym)
				return nil
			})
		}
		_ = g.Wait()
	}

	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result
}
