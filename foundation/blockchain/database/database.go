// Package database handles the lower level support for maintaining the
// blockchain and an in memory database of account information.
package database

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/meowchain/meowchain/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by
// any package providing support for storing and reading the blockchain.
type Storage interface {
	Write(block Block) error
	GetBlock(num uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Database manages account state and access to the stored chain.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	accounts    map[common.Address]Account

	storage Storage
}

// New constructs a database, applies the genesis balances and replays any
// blocks already held by the storage.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	db := Database{
		genesis:  gen,
		accounts: make(map[common.Address]Account),
		storage:  storage,
	}

	for addressStr, balance := range gen.Balances {
		address := common.HexToAddress(addressStr)
		db.accounts[address] = newAccount(address, balance)
	}

	iter := db.storage.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if err := block.ValidateBlock(db.latestBlock, gen, evHandler); err != nil {
			return nil, err
		}

		for _, tx := range block.Trans {
			if err := db.ApplyTransaction(block.Header.Coinbase, tx); err != nil {
				return nil, err
			}
		}

		db.latestBlock = block
	}

	return &db, nil
}

// Close closes the underlying block storage.
func (db *Database) Close() {
	db.storage.Close()
}

// Reset re-initializes the database back to the genesis state.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.latestBlock = Block{}
	db.accounts = make(map[common.Address]Account)
	for addressStr, balance := range db.genesis.Balances {
		address := common.HexToAddress(addressStr)
		db.accounts[address] = newAccount(address, balance)
	}

	return nil
}

// =============================================================================

// Query returns the account for the specified address.
func (db *Database) Query(address common.Address) (Account, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	account, exists := db.accounts[address]
	if !exists {
		return Account{}, fmt.Errorf("account %s does not exist", address)
	}

	return account, nil
}

// CopyAccounts makes a copy of the current accounts, sorted by address.
func (db *Database) CopyAccounts() []Account {
	db.mu.RLock()
	defer db.mu.RUnlock()

	accounts := make([]Account, 0, len(db.accounts))
	for _, account := range db.accounts {
		accounts = append(accounts, account)
	}
	sortByAddress(accounts)

	return accounts
}

// ApplyTransaction performs the business logic for applying a transaction
// to account state. The gas fee goes to the producer regardless of whether
// the transfer itself succeeds; that is the only way to stop bad actors.
// Safe for concurrent use, so scheduled batches can apply side by side.
func (db *Database) ApplyTransaction(producer common.Address, tx BlockTx) error {
	gasFee := db.genesis.GasConfig().IntrinsicGas(tx.Tx)

	db.mu.Lock()
	defer db.mu.Unlock()

	from := db.accounts[tx.From]
	from.Address = tx.From

	if gasFee > from.Balance {
		gasFee = from.Balance
	}
	from.Balance -= gasFee
	db.accounts[tx.From] = from

	prod := db.accounts[producer]
	prod.Address = producer
	prod.Balance += gasFee
	db.accounts[producer] = prod

	if tx.Tx.ChainId().Uint64() != db.genesis.ChainID {
		return fmt.Errorf("transaction invalid, wrong chain id, got %d, exp %d", tx.Tx.ChainId(), db.genesis.ChainID)
	}

	if tx.Nonce() != from.Nonce {
		return fmt.Errorf("transaction invalid, wrong nonce, current %d, provided %d", from.Nonce, tx.Nonce())
	}

	value := tx.Tx.Value().Uint64()
	if from.Balance < value {
		return fmt.Errorf("transaction invalid, insufficient funds, bal %d, needed %d", from.Balance, value)
	}

	from.Balance -= value
	from.Nonce++
	db.accounts[tx.From] = from

	if to := tx.Tx.To(); to != nil {
		dest := db.accounts[*to]
		dest.Address = *to
		dest.Balance += value
		db.accounts[*to] = dest
	}

	return nil
}

// =============================================================================

// UpdateLatestBlock provides safe access to update the latest block.
func (db *Database) UpdateLatestBlock(block Block) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.latestBlock = block
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Write adds a new block to the chain.
func (db *Database) Write(block Block) error {
	return db.storage.Write(block)
}

// GetBlock returns the contents of the specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	return db.storage.GetBlock(num)
}

// ForEach returns an iterator to walk through all the blocks starting
// with block number 1.
func (db *Database) ForEach() Iterator {
	return db.storage.ForEach()
}
