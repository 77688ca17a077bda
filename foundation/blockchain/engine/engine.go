// Package engine converts execution payloads into blocks. The standard
// conversion caps extra data at 32 bytes, while sealed headers carry 97
// bytes of vanity plus signature, so the conversion detours around the cap:
// the extra data is held aside, the payload converts without it, and the
// full extra data is spliced back before the block hash is checked.
package engine

import (
	"fmt"

	beacon "github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// BlockHashMismatchError is returned when the block hash computed from a
// converted payload does not match the hash the payload declared.
type BlockHashMismatchError struct {
	Want common.Hash
	Got  common.Hash
}

// Error implements the error interface.
func (bhme BlockHashMismatchError) Error() string {
	return fmt.Sprintf("block hash mismatch: want %s, got %s", bhme.Want, bhme.Got)
}

// =============================================================================

// ConvertPayload turns an execution payload into a block, accepting extra
// data beyond the standard 32 byte cap. The declared block hash must match
// the hash of the converted block with its full extra data in place.
func ConvertPayload(data beacon.ExecutableData, versionedHashes []common.Hash, beaconRoot *common.Hash, requests [][]byte) (*types.Block, error) {
	extra := data.ExtraData
	if uint64(len(extra)) > params.MaximumExtraDataSize {
		data.ExtraData = nil
	}

	block, err := beacon.ExecutableDataToBlockNoHash(data, versionedHashes, beaconRoot, requests)
	if err != nil {
		return nil, fmt.Errorf("converting payload: %w", err)
	}

	header := block.Header()
	header.Extra = extra
	block = types.NewBlockWithHeader(header).WithBody(*block.Body())

	if block.Hash() != data.BlockHash {
		return nil, BlockHashMismatchError{Want: data.BlockHash, Got: block.Hash()}
	}

	return block, nil
}

// BlockToPayload flattens a block into an execution payload carrying the
// block's full extra data and declared hash.
func BlockToPayload(block *types.Block) beacon.ExecutableData {
	data := beacon.BlockToExecutableData(block, nil, nil, nil).ExecutionPayload
	return *data
}
