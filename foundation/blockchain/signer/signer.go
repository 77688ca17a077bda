// Package signer maintains the signing keys for the authorized block
// producers this node can seal for.
package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidPrivateKey is returned when key material cannot be parsed into
// a valid secp256k1 signing key.
var ErrInvalidPrivateKey = errors.New("invalid private key")

// NoSignerError is returned when a signing request names an address this
// store does not hold a key for.
type NoSignerError struct {
	Address common.Address
}

// Error implements the error interface.
func (nse NoSignerError) Error() string {
	return fmt.Sprintf("no signer available for address %s", nse.Address)
}

// =============================================================================

// Signers manages the signing keys available for block production. The
// address for a key is always derived from the key material itself so the
// two can never drift apart. All operations are safe for concurrent use;
// reads share the lock, add and remove take it exclusively.
type Signers struct {
	mu   sync.RWMutex
	keys map[common.Address]*ecdsa.PrivateKey
}

// New constructs an empty signer store.
func New() *Signers {
	return &Signers{
		keys: make(map[common.Address]*ecdsa.PrivateKey),
	}
}

// AddHex parses a hex encoded private key and adds it to the store,
// returning the derived address.
func (s *Signers) AddHex(privateKeyHex string) (common.Address, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return common.Address{}, ErrInvalidPrivateKey
	}

	return s.Add(privateKey), nil
}

// Add stores an already constructed private key, returning the derived
// address. Re-adding the same key is idempotent.
func (s *Signers) Add(privateKey *ecdsa.PrivateKey) common.Address {
	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[address] = privateKey

	return address
}

// Has reports whether the store holds a key for the specified address.
func (s *Signers) Has(address common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.keys[address]
	return exists
}

// Addresses returns the set of addresses the store holds keys for.
func (s *Signers) Addresses() []common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addresses := make([]common.Address, 0, len(s.keys))
	for address := range s.keys {
		addresses = append(addresses, address)
	}

	return addresses
}

// Remove deletes the key for the specified address. It reports whether a
// key was actually removed.
func (s *Signers) Remove(address common.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.keys[address]
	delete(s.keys, address)

	return exists
}

// SignHash signs the specified digest with the key held for the address.
// The signature comes back in the 65 byte [R || S || V] format with V being
// 0 or 1. The key is captured under the read lock but the CPU bound signing
// work happens after the lock is released, so a slow signature can never
// starve concurrent readers.
func (s *Signers) SignHash(ctx context.Context, address common.Address, hash common.Hash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	privateKey, exists := s.keys[address]
	s.mu.RUnlock()

	if !exists {
		return nil, NoSignerError{Address: address}
	}

	sig, err := crypto.Sign(hash.Bytes(), privateKey)
	if err != nil {
		return nil, fmt.Errorf("signing hash: %w", err)
	}

	return sig, nil
}
