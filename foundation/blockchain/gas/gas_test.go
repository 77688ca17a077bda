package gas_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/meowchain/meowchain/foundation/blockchain/gas"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_CalldataDiscount(t *testing.T) {
	t.Log("Given the need to discount calldata gas against the reference rate.")
	{
		t.Logf("\tTest 0:\tWhen pricing 1000 non-zero bytes at 4 gas per byte.")
		{
			cfg := gas.Config{CalldataGasPerByte: 4}

			if got := cfg.DiscountFor(1000); got != 12_000 {
				t.Errorf("\t%s\tTest 0:\tShould save 12000 gas, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 0:\tShould save 12000 gas.", success)
			}

			if !cfg.HasDiscount() {
				t.Errorf("\t%s\tTest 0:\tShould report a discount.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould report a discount.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen pricing at the reference rate of 16.")
		{
			cfg := gas.Config{CalldataGasPerByte: 16}

			if got := cfg.DiscountFor(1000); got != 0 {
				t.Errorf("\t%s\tTest 1:\tShould save nothing, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 1:\tShould save nothing.", success)
			}

			if cfg.HasDiscount() {
				t.Errorf("\t%s\tTest 1:\tShould report no discount.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould report no discount.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen pricing at the minimum rate of 1.")
		{
			cfg := gas.Config{CalldataGasPerByte: 1}

			if got := cfg.DiscountFor(1000); got != 15_000 {
				t.Errorf("\t%s\tTest 2:\tShould save 15000 gas, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 2:\tShould save 15000 gas.", success)
			}
		}
	}
}

func Test_Validate(t *testing.T) {
	t.Log("Given the need to reject calldata prices outside the accepted range.")
	{
		t.Logf("\tTest 0:\tWhen validating in-range prices.")
		{
			for _, rate := range []uint64{1, 4, 16} {
				if err := (gas.Config{CalldataGasPerByte: rate}).Validate(); err != nil {
					t.Errorf("\t%s\tTest 0:\tShould accept rate %d: %v", failed, rate, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould accept rates 1, 4 and 16.", success)
		}

		t.Logf("\tTest 1:\tWhen validating out-of-range prices.")
		{
			for _, rate := range []uint64{0, 17, 100} {
				if err := (gas.Config{CalldataGasPerByte: rate}).Validate(); !errors.Is(err, gas.ErrInvalidCalldataGas) {
					t.Errorf("\t%s\tTest 1:\tShould reject rate %d with ErrInvalidCalldataGas.", failed, rate)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould reject rates 0, 17 and 100.", success)
		}
	}
}

func Test_Limits(t *testing.T) {
	t.Log("Given the need to resolve contract size ceilings.")
	{
		t.Logf("\tTest 0:\tWhen no override is configured.")
		{
			cfg := gas.Config{CalldataGasPerByte: 16}

			code, initCode := cfg.Limits()
			if code != params.MaxCodeSize || initCode != params.MaxInitCodeSize {
				t.Errorf("\t%s\tTest 0:\tShould keep the protocol defaults, got %d/%d.", failed, code, initCode)
			} else {
				t.Logf("\t%s\tTest 0:\tShould keep the protocol defaults.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen a 128 KiB override is configured.")
		{
			cfg := gas.Config{CalldataGasPerByte: 16, MaxContractSize: 131_072}

			code, initCode := cfg.Limits()
			if code != 131_072 || initCode != 262_144 {
				t.Errorf("\t%s\tTest 1:\tShould double the override for initcode, got %d/%d.", failed, code, initCode)
			} else {
				t.Logf("\t%s\tTest 1:\tShould double the override for initcode.", success)
			}
		}
	}
}

func Test_IntrinsicGas(t *testing.T) {
	t.Log("Given the need to charge intrinsic gas at the configured rate.")
	{
		to := common.HexToAddress("0x1111")

		newTx := func(data []byte) *types.Transaction {
			return types.NewTx(&types.LegacyTx{
				Nonce:    1,
				To:       &to,
				Gas:      1_000_000,
				GasPrice: big.NewInt(1),
				Data:     data,
			})
		}

		t.Logf("\tTest 0:\tWhen a transaction carries no calldata.")
		{
			cfg := gas.Config{CalldataGasPerByte: 4}

			if got := cfg.IntrinsicGas(newTx(nil)); got != gas.TxGas {
				t.Errorf("\t%s\tTest 0:\tShould charge the base cost only, got %d.", failed, got)
			} else {
				t.Logf("\t%s\tTest 0:\tShould charge the base cost only.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen a transaction carries mixed calldata.")
		{
			cfg := gas.Config{CalldataGasPerByte: 4}
			data := []byte{0x00, 0x00, 0xaa, 0xbb, 0xcc}

			exp := gas.TxGas + 2*params.TxDataZeroGas + 3*4
			if got := cfg.IntrinsicGas(newTx(data)); got != exp {
				t.Errorf("\t%s\tTest 1:\tShould charge %d gas, got %d.", failed, exp, got)
			} else {
				t.Logf("\t%s\tTest 1:\tShould charge %d gas.", success, exp)
			}
		}

		t.Logf("\tTest 2:\tWhen the configured rate matches the reference.")
		{
			cheap := gas.Config{CalldataGasPerByte: 4}
			full := gas.Config{CalldataGasPerByte: 16}
			data := make([]byte, 1000)
			for i := range data {
				data[i] = 0xff
			}
			tx := newTx(data)

			if diff := full.IntrinsicGas(tx) - cheap.IntrinsicGas(tx); diff != cheap.DiscountFor(1000) {
				t.Errorf("\t%s\tTest 2:\tShould match DiscountFor, got diff %d.", failed, diff)
			} else {
				t.Logf("\t%s\tTest 2:\tShould match DiscountFor.", success)
			}
		}
	}
}
