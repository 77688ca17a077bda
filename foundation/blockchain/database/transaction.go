package database

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/meowchain/meowchain/foundation/blockchain/parallel"
)

// accountSlot marks an account level touch, balance and nonce, as opposed
// to a specific storage slot.
var accountSlot = common.Hash{}

// BlockTx is a transaction paired with the sender recovered from its
// signature and the access record the scheduler plans around.
type BlockTx struct {
	Tx     *types.Transaction
	From   common.Address
	Access parallel.AccessRecord
}

// NewBlockTx recovers the sender of a signed transaction and derives its
// access record. The record is conservative: the sender's account is always
// read and written for nonce and balance, the recipient's account is
// written for the value credit, and every slot in the declared access list
// counts as both read and written.
func NewBlockTx(chainID *big.Int, tx *types.Transaction) (BlockTx, error) {
	from, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return BlockTx{}, fmt.Errorf("recovering transaction sender: %w", err)
	}

	return BlockTx{
		Tx:     tx,
		From:   from,
		Access: deriveAccess(from, tx),
	}, nil
}

// deriveAccess builds the conservative access record for a transaction
// whose sender is already known.
func deriveAccess(from common.Address, tx *types.Transaction) parallel.AccessRecord {
	access := parallel.FromAccessList(tx.AccessList())
	access.AddRead(from, accountSlot)
	access.AddWrite(from, accountSlot)
	if to := tx.To(); to != nil {
		access.AddRead(*to, accountSlot)
		access.AddWrite(*to, accountSlot)
	}

	return access
}

// Nonce returns the transaction nonce.
func (btx BlockTx) Nonce() uint64 {
	return btx.Tx.Nonce()
}

// Hash returns the transaction hash.
func (btx BlockTx) Hash() common.Hash {
	return btx.Tx.Hash()
}

// Tip returns the priority fee the sender is offering, capped at uint64.
func (btx BlockTx) Tip() uint64 {
	return btx.Tx.GasTipCap().Uint64()
}

// =============================================================================

// blockTxJSON is the storage form of a block transaction. The access record
// is not stored, it derives deterministically from the transaction.
type blockTxJSON struct {
	Tx   hexutil.Bytes  `json:"tx"`
	From common.Address `json:"from"`
}

// MarshalJSON implements json.Marshaler.
func (btx BlockTx) MarshalJSON() ([]byte, error) {
	bin, err := btx.Tx.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return json.Marshal(blockTxJSON{Tx: bin, From: btx.From})
}

// UnmarshalJSON implements json.Unmarshaler, rebuilding the access record
// from the decoded transaction.
func (btx *BlockTx) UnmarshalJSON(data []byte) error {
	var raw blockTxJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw.Tx); err != nil {
		return err
	}

	btx.Tx = tx
	btx.From = raw.From
	btx.Access = deriveAccess(raw.From, tx)

	return nil
}
