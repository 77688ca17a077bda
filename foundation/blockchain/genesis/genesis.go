// Package genesis maintains access to the genesis file and the producer
// rotation it defines.
package genesis

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"

	"github.com/meowchain/meowchain/foundation/blockchain/gas"
	"github.com/meowchain/meowchain/foundation/blockchain/signer"
)

// Genesis represents the genesis file. The signer list is ordered and the
// order drives the round robin production rotation.
type Genesis struct {
	Date               time.Time         `json:"date"`
	ChainID            uint64            `json:"chain_id" validate:"required"`        // Unique id for this running network.
	BlockIntervalMS    uint64            `json:"block_interval_ms" validate:"required"` // Target milliseconds between blocks.
	EagerMining        bool              `json:"eager_mining"`                        // Produce as soon as transactions arrive.
	CalldataGasPerByte uint64            `json:"calldata_gas_per_byte" validate:"min=1,max=16"`
	MaxContractSize    uint64            `json:"max_contract_size"`                   // 0 keeps the protocol default.
	Signers            []common.Address  `json:"signers" validate:"required,min=1"`   // Authorized block producers in rotation order.
	Balances           map[string]uint64 `json:"balances"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Dev constructs a genesis for local development. The first three dev keys
// form the production rotation and every dev account starts funded.
func Dev() Genesis {
	signers := make([]common.Address, 3)
	balances := make(map[string]uint64)

	for i, keyHex := range signer.DevKeys {
		privateKey, err := crypto.HexToECDSA(keyHex)
		if err != nil {
			panic(err)
		}
		address := crypto.PubkeyToAddress(privateKey.PublicKey)
		if i < len(signers) {
			signers[i] = address
		}
		balances[address.String()] = 1_000_000_000
	}

	return Genesis{
		Date:               time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:            9323310,
		BlockIntervalMS:    2000,
		CalldataGasPerByte: 4,
		Signers:            signers,
		Balances:           balances,
	}
}

// =============================================================================

// Validate checks the genesis carries a usable configuration.
func (g Genesis) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("validating genesis: %w", err)
	}

	if err := g.GasConfig().Validate(); err != nil {
		return err
	}

	seen := make(map[common.Address]struct{}, len(g.Signers))
	for _, address := range g.Signers {
		if _, exists := seen[address]; exists {
			return fmt.Errorf("duplicate signer %s in rotation", address)
		}
		seen[address] = struct{}{}
	}

	return nil
}

// GasConfig returns the gas accounting overrides the genesis declares.
func (g Genesis) GasConfig() gas.Config {
	return gas.Config{
		CalldataGasPerByte: g.CalldataGasPerByte,
		MaxContractSize:    g.MaxContractSize,
	}
}

// InTurn returns the producer whose turn it is for the specified block
// number under the round robin rotation.
func (g Genesis) InTurn(blockNumber uint64) common.Address {
	return g.Signers[blockNumber%uint64(len(g.Signers))]
}

// IsAuthorized reports whether the address is in the production rotation.
func (g Genesis) IsAuthorized(address common.Address) bool {
	for _, signer := range g.Signers {
		if signer == address {
			return true
		}
	}
	return false
}

// ChainIDBig returns the chain id as a big integer for transaction signing.
func (g Genesis) ChainIDBig() *big.Int {
	return new(big.Int).SetUint64(g.ChainID)
}

// Interval returns the target time between blocks.
func (g Genesis) Interval() time.Duration {
	return time.Duration(g.BlockIntervalMS) * time.Millisecond
}
