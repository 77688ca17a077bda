package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/meowchain/meowchain/foundation/blockchain/state"
)

// CORE NOTE: The POA production operation is managed by this function which
// runs on its own goroutine. The node runs a loop on the genesis block
// interval. At the beginning of each cycle the rotation determines whether
// this node holds the key for the in-turn producer. If not, it waits for
// the next cycle. With eager mining configured, a submitted transaction
// signals production immediately instead of waiting for the tick.

// poaOperations handles block production.
func (w *Worker) poaOperations() {
	w.evHandler("worker: poaOperations: G started")
	defer w.evHandler("worker: poaOperations: G completed")

	ticker := time.NewTicker(w.state.Genesis().Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runProduceOperation()
			}
		case <-w.startMining:
			if !w.isShutdown() {
				w.runProduceOperation()
			}
		case <-w.shut:
			w.evHandler("worker: poaOperations: received shut signal")
			return
		}
	}
}

// runProduceOperation takes the best transactions from the mempool and
// writes a new sealed block to the chain.
func (w *Worker) runProduceOperation() {
	w.evHandler("worker: runProduceOperation: started")
	defer w.evHandler("worker: runProduceOperation: completed")

	// Make sure there are transactions in the mempool.
	length := w.state.MempoolLength()
	if length == 0 {
		w.evHandler("worker: runProduceOperation: MINING: no transactions to mine: Txs[%d]", length)
		return
	}

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runProduceOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so production can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the production operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runProduceOperation: MINING: CANCEL: requested")
		case <-ctx.Done():
		}
	}()

	// This G is performing the production.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err := w.state.ProduceBlock(ctx)
		duration := time.Since(t)

		w.evHandler("worker: runProduceOperation: MINING: production duration[%v]", duration)

		if err != nil {
			switch {
			case errors.Is(err, state.ErrNoTransactions):
				w.evHandler("worker: runProduceOperation: MINING: WARNING: no transactions in mempool")
			case errors.Is(err, state.ErrNotInTurn):
				w.evHandler("worker: runProduceOperation: MINING: not our turn: %s", err)
			case ctx.Err() != nil:
				w.evHandler("worker: runProduceOperation: MINING: CANCEL: complete")
			default:
				w.evHandler("worker: runProduceOperation: MINING: ERROR: %s", err)
			}
			return
		}

		w.evHandler("worker: runProduceOperation: MINING: sealed blk[%d] txs[%d]", block.Number(), len(block.Trans))
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}
