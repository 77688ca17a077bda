package state

import (
	"context"

	beacon "github.com/ethereum/go-ethereum/beacon/engine"

	"github.com/meowchain/meowchain/foundation/blockchain/database"
	"github.com/meowchain/meowchain/foundation/blockchain/engine"
	"github.com/meowchain/meowchain/foundation/blockchain/parallel"
)

// ProcessPayload takes an execution payload received from another node,
// converts and validates it, and commits it as the next block in the chain.
func (s *State) ProcessPayload(ctx context.Context, data beacon.ExecutableData) error {
	s.evHandler("state: ProcessPayload: started : blk[%d]", data.Number)
	defer s.evHandler("state: ProcessPayload: completed")

	ethBlock, err := engine.ConvertPayload(data, nil, nil, nil)
	if err != nil {
		return err
	}

	trans := make([]database.BlockTx, len(ethBlock.Transactions()))
	records := make([]parallel.AccessRecord, len(trans))
	for i, tx := range ethBlock.Transactions() {
		btx, err := database.NewBlockTx(s.genesis.ChainIDBig(), tx)
		if err != nil {
			return err
		}
		trans[i] = btx
		records[i] = btx.Access
	}

	block := database.Block{
		Header: ethBlock.Header(),
		Trans:  trans,
	}

	// Any in-flight production is now stale.
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}

	if err := block.ValidateBlock(s.db.LatestBlock(), s.genesis, s.evHandler); err != nil {
		return err
	}

	return s.updateLocalState(ctx, block, parallel.BuildSchedule(records))
}
