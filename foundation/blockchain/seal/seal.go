// Package seal implements authenticated block sealing. A producer signs a
// digest of the block header and splices the signature into the tail of the
// header's extra data; any node can then recover the producer's address
// from the sealed header alone.
package seal

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/meowchain/meowchain/foundation/blockchain/signer"
)

const (
	// ExtraVanity is the number of leading extra data bytes reserved for
	// arbitrary producer vanity.
	ExtraVanity = 32

	// ExtraSeal is the number of trailing extra data bytes holding the
	// producer's [R || S || V] signature.
	ExtraSeal = 65
)

var (
	// ErrMalformedSeal is returned when a header's extra data is too short
	// to contain a seal signature.
	ErrMalformedSeal = errors.New("extra data too short for seal signature")

	// ErrRecoveryFailed is returned when the seal signature does not
	// recover to a valid public key.
	ErrRecoveryFailed = errors.New("seal signature recovery failed")
)

// =============================================================================

// Hash computes the digest a producer commits to when sealing a header. The
// trailing seal bytes are stripped before hashing when present, so the
// digest of a sealed header equals the digest of the same header before it
// was sealed. Every other header field participates in the digest.
func Hash(header *types.Header) common.Hash {
	unsealed := types.CopyHeader(header)
	if len(unsealed.Extra) >= ExtraSeal {
		unsealed.Extra = unsealed.Extra[:len(unsealed.Extra)-ExtraSeal]
	}

	enc, err := rlp.EncodeToBytes(unsealed)
	if err != nil {

		// Headers from this codebase always encode. A failure here means
		// a corrupted header and there is no digest to return for it.
		panic(fmt.Sprintf("encoding header for seal digest: %v", err))
	}

	return crypto.Keccak256Hash(enc)
}

// =============================================================================

// Sealer signs and verifies header seals using a backing key store.
type Sealer struct {
	signers *signer.Signers
}

// NewSealer constructs a sealer over the specified key store.
func NewSealer(signers *signer.Signers) *Sealer {
	return &Sealer{
		signers: signers,
	}
}

// Seal signs the header's digest with the key held for the producer address
// and returns a copy of the header carrying the signature in its trailing
// extra data. Any previous seal bytes are replaced. The input header is not
// modified.
func (s *Sealer) Seal(ctx context.Context, header *types.Header, producer common.Address) (*types.Header, error) {
	sig, err := s.signers.SignHash(ctx, producer, Hash(header))
	if err != nil {
		return nil, err
	}

	sealed := types.CopyHeader(header)
	if len(sealed.Extra) >= ExtraSeal {
		sealed.Extra = sealed.Extra[:len(sealed.Extra)-ExtraSeal]
	}
	sealed.Extra = append(sealed.Extra, sig...)

	return sealed, nil
}

// Verify recovers the producer address from a sealed header. It does not
// consult the key store, so any node can verify seals for producers it
// holds no keys for.
func Verify(header *types.Header) (common.Address, error) {
	if len(header.Extra) < ExtraSeal {
		return common.Address{}, ErrMalformedSeal
	}
	sig := header.Extra[len(header.Extra)-ExtraSeal:]

	publicKey, err := crypto.SigToPub(Hash(header).Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrRecoveryFailed, err)
	}

	return crypto.PubkeyToAddress(*publicKey), nil
}
