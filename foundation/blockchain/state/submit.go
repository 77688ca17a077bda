package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/meowchain/meowchain/foundation/blockchain/database"
)

// SubmitTransaction accepts a signed transaction into the mempool after
// validation. With eager mining configured, production is signaled
// immediately instead of waiting for the next interval tick.
func (s *State) SubmitTransaction(tx *types.Transaction) error {
	if tx.ChainId().Uint64() != s.genesis.ChainID {
		return fmt.Errorf("transaction has wrong chain id, got %d, exp %d", tx.ChainId(), s.genesis.ChainID)
	}

	btx, err := database.NewBlockTx(s.genesis.ChainIDBig(), tx)
	if err != nil {
		return err
	}

	if intrinsic := s.genesis.GasConfig().IntrinsicGas(tx); tx.Gas() < intrinsic {
		return fmt.Errorf("transaction gas limit %d below intrinsic gas %d", tx.Gas(), intrinsic)
	}

	n := s.mempool.Upsert(btx)
	s.evHandler("state: SubmitTransaction: accepted : tx[%s] : pool[%d]", btx.Hash(), n)

	if s.genesis.EagerMining && s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}
