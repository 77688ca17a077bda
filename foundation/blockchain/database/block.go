package database

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/meowchain/meowchain/foundation/blockchain/genesis"
	"github.com/meowchain/meowchain/foundation/blockchain/seal"
)

// ErrChainForked is returned from ValidateBlock if another node's chain
// is two or more blocks ahead of ours.
var ErrChainForked = errors.New("blockchain forked, start resync")

// =============================================================================

// Block represents a group of transactions sealed together under one header.
type Block struct {
	Header *types.Header
	Trans  []BlockTx
}

// NewBlockHeader constructs an unsealed header for the next block in the
// chain. The extra data carries 32 zero vanity bytes and room for the seal
// signature to be spliced in by the sealer.
func NewBlockHeader(gen genesis.Genesis, prevBlock Block, producer common.Address, gasUsed uint64, trans []BlockTx) *types.Header {
	prevBlockHash := common.Hash{}
	number := uint64(1)
	if prevBlock.Header != nil {
		prevBlockHash = prevBlock.Hash()
		number = prevBlock.Header.Number.Uint64() + 1
	}

	header := types.Header{
		ParentHash:  prevBlockHash,
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    producer,
		Root:        types.EmptyRootHash,
		TxHash:      txRoot(trans),
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  common.Big0,
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    30_000_000,
		GasUsed:     gasUsed,
		Time:        uint64(time.Now().UTC().Unix()),
		Extra:       make([]byte, seal.ExtraVanity+seal.ExtraSeal),
		BaseFee:     big.NewInt(1),
	}

	// Block validation requires strictly increasing timestamps even when
	// two blocks land inside the same second.
	if prevBlock.Header != nil && header.Time <= prevBlock.Header.Time {
		header.Time = prevBlock.Header.Time + 1
	}

	return &header
}

// txRoot computes the transaction trie root over the block transactions.
func txRoot(trans []BlockTx) common.Hash {
	if len(trans) == 0 {
		return types.EmptyTxsHash
	}

	txs := make(types.Transactions, len(trans))
	for i, tx := range trans {
		txs[i] = tx.Tx
	}

	return types.DeriveSha(txs, trie.NewStackTrie(nil))
}

// SealBlock signs the header of an assembled block with the producer's key
// and returns the block carrying the sealed header.
func SealBlock(ctx context.Context, sealer *seal.Sealer, producer common.Address, header *types.Header, trans []BlockTx) (Block, error) {
	sealed, err := sealer.Seal(ctx, header, producer)
	if err != nil {
		return Block{}, fmt.Errorf("sealing block %d: %w", header.Number.Uint64(), err)
	}

	return Block{
		Header: sealed,
		Trans:  trans,
	}, nil
}

// Hash returns the unique hash for the block. An unset block hashes to the
// zero hash so a genesis parent reference works without special casing.
func (b Block) Hash() common.Hash {
	if b.Header == nil {
		return common.Hash{}
	}

	return b.Header.Hash()
}

// Number returns the block number, with zero for an unset block.
func (b Block) Number() uint64 {
	if b.Header == nil {
		return 0
	}

	return b.Header.Number.Uint64()
}

// ToEthBlock converts the block to its canonical form for payload
// exchange. The header is used as is, including its seal.
func (b Block) ToEthBlock() *types.Block {
	txs := make(types.Transactions, len(b.Trans))
	for i, tx := range b.Trans {
		txs[i] = tx.Tx
	}

	return types.NewBlockWithHeader(b.Header).WithBody(types.Body{Transactions: txs})
}

// =============================================================================

// ValidateBlock performs the consensus checks linking this block to the
// previous block: sequence, parent hash, timestamp ordering, and that the
// seal recovers to a producer the genesis authorizes for this slot.
func (b Block) ValidateBlock(previousBlock Block, gen genesis.Genesis, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check block number", b.Number())

	if b.Number() >= previousBlock.Number()+2 {
		return ErrChainForked
	}

	if b.Number() != previousBlock.Number()+1 {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Number(), previousBlock.Number()+1)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check parent hash", b.Number())

	if b.Header.ParentHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.ParentHash, previousBlock.Hash())
	}

	if previousBlock.Header != nil {
		evHandler("database: ValidateBlock: validate: blk[%d]: check timestamp", b.Number())

		if b.Header.Time <= previousBlock.Header.Time {
			return fmt.Errorf("block timestamp is before the parent block, got %d, parent %d", b.Header.Time, previousBlock.Header.Time)
		}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check seal", b.Number())

	producer, err := seal.Verify(b.Header)
	if err != nil {
		return fmt.Errorf("block seal is invalid: %w", err)
	}

	if !gen.IsAuthorized(producer) {
		return fmt.Errorf("block producer %s is not in the authorized rotation", producer)
	}

	return nil
}

