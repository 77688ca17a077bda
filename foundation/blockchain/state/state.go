// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/meowchain/meowchain/foundation/blockchain/database"
	"github.com/meowchain/meowchain/foundation/blockchain/genesis"
	"github.com/meowchain/meowchain/foundation/blockchain/mempool"
	"github.com/meowchain/meowchain/foundation/blockchain/seal"
	"github.com/meowchain/meowchain/foundation/blockchain/signer"
)

// EventHandler defines a function that is called when events
// occur in the processing of producing blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for block production.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the blockchain node.
type Config struct {
	Genesis        genesis.Genesis
	Storage        database.Storage
	Signers        *signer.Signers
	SelectStrategy string
	EvHandler      EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.RWMutex

	evHandler    EventHandler
	genesis      genesis.Genesis
	signers      *signer.Signers
	sealer       *seal.Sealer
	mempool      *mempool.Mempool
	db           *database.Database
	lastSchedule ScheduleStats

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	mempool, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	state := State{
		evHandler: ev,
		genesis:   cfg.Genesis,
		signers:   cfg.Signers,
		sealer:    seal.NewSealer(cfg.Signers),
		mempool:   mempool,
		db:        db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Truncate resets the chain both in storage and in memory.
func (s *State) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Truncate()
	return s.db.Reset()
}

// =============================================================================

// AddSigner parses a hex encoded private key and adds it to the set of
// keys this node can produce blocks with.
func (s *State) AddSigner(privateKeyHex string) (common.Address, error) {
	return s.signers.AddHex(privateKeyHex)
}

// RemoveSigner deletes the key held for the specified address. It reports
// whether a key was actually removed.
func (s *State) RemoveSigner(address common.Address) bool {
	return s.signers.Remove(address)
}

// Signers returns the set of addresses this node holds keys for.
func (s *State) Signers() []common.Address {
	return s.signers.Addresses()
}
