package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/meowchain/meowchain/foundation/blockchain/database"
	"github.com/meowchain/meowchain/foundation/blockchain/parallel"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are no transactions in the mempool.
var ErrNoTransactions = errors.New("no transactions in mempool")

// ErrNotInTurn is returned when this node holds no key for the producer
// whose turn it is under the rotation.
var ErrNotInTurn = errors.New("no key held for the in-turn producer")

// ScheduleStats captures how the last produced block's transactions were
// grouped for concurrent execution.
type ScheduleStats struct {
	TxCount      int
	BatchCount   int
	AvgBatchSize float64
}

// =============================================================================

// ProduceBlock creates the next block in the chain from the best mempool
// transactions, executes them by conflict schedule, and seals the block
// with the in-turn producer's key.
func (s *State) ProduceBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: ProduceBlock: MINING: check mempool count")

	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	latestBlock := s.db.LatestBlock()
	nextNumber := latestBlock.Number() + 1

	producer := s.genesis.InTurn(nextNumber)
	if !s.signers.Has(producer) {
		return database.Block{}, fmt.Errorf("%w: blk[%d] needs %s", ErrNotInTurn, nextNumber, producer)
	}

	s.evHandler("state: ProduceBlock: MINING: pick best transactions")

	trans := s.mempool.PickBest(-1)

	s.evHandler("state: ProduceBlock: MINING: build conflict schedule: txs[%d]", len(trans))

	records := make([]parallel.AccessRecord, len(trans))
	for i, tx := range trans {
		records[i] = tx.Access
	}
	schedule := parallel.BuildSchedule(records)

	s.evHandler("state: ProduceBlock: MINING: schedule: txs[%d] batches[%d]", schedule.TxCount(), schedule.BatchCount())

	var gasUsed uint64
	gasCfg := s.genesis.GasConfig()
	for _, tx := range trans {
		gasUsed += gasCfg.IntrinsicGas(tx.Tx)
	}

	header := database.NewBlockHeader(s.genesis, latestBlock, producer, gasUsed, trans)
	block, err := database.SealBlock(ctx, s.sealer, producer, header, trans)
	if err != nil {
		return database.Block{}, err
	}

	// One more check we were not cancelled before committing.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: ProduceBlock: MINING: update local state")

	if err := s.updateLocalState(ctx, block, schedule); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// =============================================================================

// updateLocalState commits a block: it writes the block to the chain,
// executes its transactions batch by batch per the schedule, and prunes
// the mempool. Transactions that fail to apply are logged and dropped;
// the block they ride in is already sealed.
func (s *State) updateLocalState(ctx context.Context, block database.Block, schedule parallel.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: updateLocalState: write block to storage")

	if err := s.db.Write(block); err != nil {
		return err
	}
	s.db.UpdateLatestBlock(block)

	s.evHandler("state: updateLocalState: execute schedule and prune mempool")

	producer := block.Header.Coinbase
	err := schedule.Run(ctx, func(ctx context.Context, txIndex int) error {
		tx := block.Trans[txIndex]

		if err := s.db.ApplyTransaction(producer, tx); err != nil {
			s.evHandler("state: updateLocalState: WARNING : tx[%s] : %s", tx.Hash(), err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, tx := range block.Trans {
		s.mempool.Delete(tx)
	}

	s.lastSchedule = ScheduleStats{
		TxCount:      schedule.TxCount(),
		BatchCount:   schedule.BatchCount(),
		AvgBatchSize: schedule.AvgBatchSize(),
	}

	return nil
}
