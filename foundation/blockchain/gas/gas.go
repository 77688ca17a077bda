// Package gas adapts the chain's gas accounting knobs: a configurable
// calldata byte price that discounts against the reference rate, and a
// configurable contract size ceiling with its matching initcode ceiling.
package gas

import (
	"errors"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

const (
	// ReferenceCalldataGas is the standard per byte price for non-zero
	// calldata that configured discounts are measured against.
	ReferenceCalldataGas = params.TxDataNonZeroGasEIP2028

	// TxGas is the base cost charged for every transaction.
	TxGas = params.TxGas

	// InitCodeSizeRatio is how much larger deployment initcode may be than
	// the deployed contract size limit.
	InitCodeSizeRatio = 2
)

// ErrInvalidCalldataGas is returned when a configured calldata price falls
// outside the accepted 1 to 16 range.
var ErrInvalidCalldataGas = errors.New("calldata gas per byte must be between 1 and 16")

// =============================================================================

// Config carries the chain's gas accounting overrides. Zero values select
// the reference behavior.
type Config struct {
	CalldataGasPerByte uint64
	MaxContractSize    uint64
}

// Validate checks the configured values are inside their accepted ranges.
func (cfg Config) Validate() error {
	if cfg.CalldataGasPerByte < 1 || cfg.CalldataGasPerByte > ReferenceCalldataGas {
		return ErrInvalidCalldataGas
	}

	return nil
}

// HasDiscount reports whether the configured calldata price is below the
// reference rate.
func (cfg Config) HasDiscount() bool {
	return cfg.CalldataGasPerByte < ReferenceCalldataGas
}

// DiscountFor returns the gas saved on the specified number of non-zero
// calldata bytes relative to the reference rate.
func (cfg Config) DiscountFor(nonZeroBytes uint64) uint64 {
	if !cfg.HasDiscount() {
		return 0
	}

	return nonZeroBytes * (ReferenceCalldataGas - cfg.CalldataGasPerByte)
}

// Limits returns the effective contract size limit and its matching
// initcode limit. An unset override keeps the protocol defaults.
func (cfg Config) Limits() (maxCodeSize uint64, maxInitCodeSize uint64) {
	if cfg.MaxContractSize == 0 {
		return params.MaxCodeSize, params.MaxInitCodeSize
	}

	return cfg.MaxContractSize, InitCodeSizeRatio * cfg.MaxContractSize
}

// =============================================================================

// IntrinsicGas computes the gas a transaction consumes before any execution,
// pricing non-zero calldata at the configured rate and zero calldata at the
// protocol rate.
func (cfg Config) IntrinsicGas(tx *types.Transaction) uint64 {
	var nonZero, zero uint64
	for _, b := range tx.Data() {
		if b == 0 {
			zero++
		} else {
			nonZero++
		}
	}

	gas := TxGas
	gas += zero * params.TxDataZeroGas
	gas += nonZero * cfg.CalldataGasPerByte

	if tx.To() == nil {
		gas += params.TxGasContractCreation - TxGas
		gas += params.InitCodeWordGas * ((uint64(len(tx.Data())) + 31) / 32)
	}

	for _, tuple := range tx.AccessList() {
		gas += params.TxAccessListAddressGas
		gas += params.TxAccessListStorageKeyGas * uint64(len(tuple.StorageKeys))
	}

	return gas
}
