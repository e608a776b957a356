package binseq

import (
	"context"
	"sync"
	"time"

	"github.com/cznic/mathutil"
	"golang.org/x/sync/errgroup"
)

// computePartitions splits [0, numUnits) into up to numWorkers contiguous,
// roughly-equal, non-overlapping ranges. "Unit" is a record for BQ and a
// whole block for VBQ, since VBQ partitioning must happen over blocks,
// never mid-block. Bounds are clamped with mathutil.Max/Min so that a
// worker's slice is always intersected with the valid [0, numUnits) range.
func computePartitions(numUnits, numWorkers int) [][2]int {
	if numUnits <= 0 || numWorkers <= 0 {
		return nil
	}
	if numWorkers > numUnits {
		numWorkers = numUnits
	}

	base := numUnits / numWorkers
	rem := numUnits % numWorkers

	parts := make([][2]int, 0, numWorkers)
	lo := 0
	for w := 0; w < numWorkers; w++ {
		size := base
		if w < rem {
			size++
		}
		hi := mathutil.Min(lo+size, numUnits)
		lo = mathutil.Max(lo, 0)
		if hi > lo {
			parts = append(parts, [2]int{lo, hi})
		}
		lo = hi
	}
	return parts
}

// partitionRunner drives one worker's contiguous [lo, hi) unit range
// against proc, checking ctx between records for cooperative cancellation.
// It returns the count of records for which Process returned nil, and the
// first error encountered (already wrapped as a binseq *Error).
type partitionRunner interface {
	run(ctx context.Context, lo, hi int, proc Processor) (uint64, error)
}

// dispatch is the common fan-out/fan-in scaffolding shared by
// BqReader.ProcessParallel and VbqReader.ProcessParallel. It spreads work
// across N independent workers joined by golang.org/x/sync/errgroup, which
// surfaces exactly one (the first) worker error and discards the rest
// while still letting every worker drain cleanly, since errgroup cancels
// its shared context on the first error but still waits for every
// goroutine to return.
func dispatch(numWorkers, numUnits int, factory func() Processor, runner partitionRunner) (Stats, error) {
	start := time.Now()
	partitions := computePartitions(numUnits, numWorkers)

	g, ctx := errgroup.WithContext(context.Background())
	var (
		mu    sync.Mutex
		stats Stats
	)

	for _, part := range partitions {
		lo, hi := part[0], part[1]
		g.Go(func() error {
			proc := factory()
			n, runErr := runner.run(ctx, lo, hi, proc)
			summary := proc.Finalize()

			mu.Lock()
			stats.RecordsProcessed += n
			stats.Summaries = append(stats.Summaries, summary)
			mu.Unlock()

			return runErr
		})
	}

	err := g.Wait()
	stats.Elapsed = time.Since(start)
	return stats, err
}
