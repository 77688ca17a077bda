package state

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/meowchain/meowchain/foundation/blockchain/database"
	"github.com/meowchain/meowchain/foundation/blockchain/genesis"
)

// QueryLowest is a constant the query API uses to start from block 1.
const QueryLowest = uint64(1)

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// LatestBlock returns a copy of the current latest block.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// MempoolLength returns the current number of transactions in the pool.
func (s *State) MempoolLength() int {
	return s.mempool.Count()
}

// Mempool returns a copy of the mempool in selection order.
func (s *State) Mempool() []database.BlockTx {
	return s.mempool.PickBest(-1)
}

// QueryAccount returns the account state for the specified address.
func (s *State) QueryAccount(address common.Address) (database.Account, error) {
	return s.db.Query(address)
}

// Accounts returns a copy of the full account set, sorted by address.
func (s *State) Accounts() []database.Account {
	return s.db.CopyAccounts()
}

// QueryBlocksByNumber returns the set of blocks for the specified range
// inclusive. The range is clipped at the end of the chain.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) []database.Block {
	if from > to {
		return nil
	}

	var blocks []database.Block
	for num := from; num <= to; num++ {
		block, err := s.db.GetBlock(num)
		if err != nil {
			break
		}
		blocks = append(blocks, block)
	}

	return blocks
}

// LastSchedule returns how the last committed block's transactions were
// grouped for concurrent execution.
func (s *State) LastSchedule() ScheduleStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSchedule
}
