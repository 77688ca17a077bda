package selector_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meowchain/meowchain/foundation/blockchain/database"
	"github.com/meowchain/meowchain/foundation/blockchain/genesis"
	"github.com/meowchain/meowchain/foundation/blockchain/mempool/selector"
	"github.com/meowchain/meowchain/foundation/blockchain/signer"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// signTx signs a transfer with the dev key at the specified index using
// the gas price as the tip.
func signTx(t *testing.T, keyIndex int, nonce uint64, tip uint64) database.BlockTx {
	t.Helper()

	gen := genesis.Dev()

	privateKey, err := crypto.HexToECDSA(signer.DevKeys[keyIndex])
	if err != nil {
		t.Fatalf("parsing dev key %d: %v", keyIndex, err)
	}

	to := common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76")
	tx, err := types.SignNewTx(privateKey, types.LatestSignerForChainID(gen.ChainIDBig()), &types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(1),
		Gas:      21_000,
		GasPrice: new(big.Int).SetUint64(tip),
	})
	if err != nil {
		t.Fatalf("signing tx: %v", err)
	}

	btx, err := database.NewBlockTx(gen.ChainIDBig(), tx)
	if err != nil {
		t.Fatalf("building block tx: %v", err)
	}

	return btx
}

// groupByFrom organizes the transactions the way the mempool hands them
// to a selector.
func groupByFrom(txs []database.BlockTx) map[common.Address][]database.BlockTx {
	m := make(map[common.Address][]database.BlockTx)
	for _, tx := range txs {
		m[tx.From] = append(m[tx.From], tx)
	}
	return m
}

func Test_TipSelect(t *testing.T) {
	t.Log("Given the need to select the best transactions respecting nonce order.")
	{
		t.Logf("\tTest 0:\tWhen asking for fewer transactions than available.")
		{
			txs := []database.BlockTx{
				signTx(t, 0, 1, 250),
				signTx(t, 0, 0, 150),
				signTx(t, 1, 1, 200),
				signTx(t, 1, 0, 75),
				signTx(t, 2, 1, 75),
				signTx(t, 2, 0, 100),
			}

			selectFn, err := selector.Retrieve(selector.StrategyTip)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to retrieve the strategy: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to retrieve the strategy.", success)

			final := selectFn(groupByFrom(txs), 4)

			if len(final) != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould select 4 transactions, got %d.", failed, len(final))
			}
			t.Logf("\t%s\tTest 0:\tShould select 4 transactions.", success)

			for i := 0; i < 3; i++ {
				if final[i].Nonce() != 0 {
					t.Errorf("\t%s\tTest 0:\tShould fill the first row with nonce 0 transactions.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould fill the first row with nonce 0 transactions.", success)

			if final[3].Nonce() != 1 || final[3].Tip() != 250 {
				t.Errorf("\t%s\tTest 0:\tShould take the best tip from the second row, got tip %d.", failed, final[3].Tip())
			} else {
				t.Logf("\t%s\tTest 0:\tShould take the best tip from the second row.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen asking for all transactions.")
		{
			txs := []database.BlockTx{
				signTx(t, 0, 1, 250),
				signTx(t, 0, 0, 150),
				signTx(t, 1, 0, 75),
			}

			selectFn, err := selector.Retrieve(selector.StrategyTip)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to retrieve the strategy: %v", failed, err)
			}

			final := selectFn(groupByFrom(txs), 3)

			if len(final) != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould select all 3 transactions, got %d.", failed, len(final))
			}
			t.Logf("\t%s\tTest 1:\tShould select all 3 transactions.", success)

			positions := make(map[uint64]int)
			for i, tx := range final {
				if tx.From == txs[0].From {
					positions[tx.Nonce()] = i
				}
			}
			if positions[0] > positions[1] {
				t.Errorf("\t%s\tTest 1:\tShould keep nonce order within a sender.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould keep nonce order within a sender.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen retrieving an unknown strategy.")
		{
			if _, err := selector.Retrieve("unknown"); err == nil {
				t.Errorf("\t%s\tTest 2:\tShould get an error for an unknown strategy.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould get an error for an unknown strategy.", success)
			}
		}
	}
}
