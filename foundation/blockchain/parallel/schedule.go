package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Schedule is an ordered sequence of batches of transaction indices. Every
// input index lands in exactly one batch, no two transactions in the same
// batch conflict, and a transaction always lands in a later batch than any
// earlier transaction it conflicts with. That makes batch order a valid
// serialization of the original submission order.
type Schedule struct {
	batches [][]int
	txCount int
}

// BuildSchedule assigns each transaction a batch using greedy level
// assignment in submission order. A transaction with no conflicting
// predecessor goes to level 0; otherwise it goes one level past its highest
// conflicting predecessor. Two transactions on the same level can never
// conflict, since the later one would have been pushed past the earlier.
func BuildSchedule(records []AccessRecord) Schedule {
	schedule := Schedule{
		txCount: len(records),
	}

	levels := make([]int, len(records))

	for i := range records {
		level := 0
		for j := 0; j < i; j++ {
			if Conflicts(&records[j], &records[i]) && levels[j]+1 > level {
				level = levels[j] + 1
			}
		}
		levels[i] = level

		if level == len(schedule.batches) {
			schedule.batches = append(schedule.batches, []int{})
		}
		schedule.batches[level] = append(schedule.batches[level], i)
	}

	return schedule
}

// TxCount returns the total number of scheduled transactions.
func (s Schedule) TxCount() int {
	return s.txCount
}

// BatchCount returns the number of batches in the schedule.
func (s Schedule) BatchCount() int {
	return len(s.batches)
}

// Batch returns the transaction indices for the specified batch.
func (s Schedule) Batch(level int) []int {
	return s.batches[level]
}

// AvgBatchSize returns transactions per batch. This is the expected
// speed-up factor over fully sequential execution under ideal hardware
// parallelism.
func (s Schedule) AvgBatchSize() float64 {
	if len(s.batches) == 0 {
		return 0
	}
	return float64(s.txCount) / float64(len(s.batches))
}

// =============================================================================

// Run drives an executor function through the schedule's ordering contract:
// batches execute strictly in order, the transactions within a batch execute
// concurrently with no ordering among themselves, and no batch starts until
// the previous batch has fully completed. The first error stops the run
// after the current batch drains.
func (s Schedule) Run(ctx context.Context, fn func(ctx context.Context, txIndex int) error) error {
	for _, batch := range s.batches {
		g, gCtx := errgroup.WithContext(ctx)
		for _, txIndex := range batch {
			g.Go(func() error {
				return fn(gCtx, txIndex)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	return nil
}
