package state_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meowchain/meowchain/foundation/blockchain/database/storage/memory"
	"github.com/meowchain/meowchain/foundation/blockchain/engine"
	"github.com/meowchain/meowchain/foundation/blockchain/gas"
	"github.com/meowchain/meowchain/foundation/blockchain/genesis"
	"github.com/meowchain/meowchain/foundation/blockchain/mempool/selector"
	"github.com/meowchain/meowchain/foundation/blockchain/seal"
	"github.com/meowchain/meowchain/foundation/blockchain/signer"
	"github.com/meowchain/meowchain/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// nopHandler is used when the event output is not under test.
func nopHandler(v string, args ...any) {}

// newState constructs a state over fresh memory storage holding keys for
// the full dev production rotation.
func newState(t *testing.T) *state.State {
	t.Helper()

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("constructing storage: %v", err)
	}

	st, err := state.New(state.Config{
		Genesis:        genesis.Dev(),
		Storage:        storage,
		Signers:        signer.SetupDev(3),
		SelectStrategy: selector.StrategyTip,
		EvHandler:      nopHandler,
	})
	if err != nil {
		t.Fatalf("constructing state: %v", err)
	}

	return st
}

// signTransfer signs a simple value transfer from the dev key at the
// specified index.
func signTransfer(t *testing.T, keyIndex int, nonce uint64, to common.Address, value uint64) *types.Transaction {
	t.Helper()

	gen := genesis.Dev()

	privateKey, err := crypto.HexToECDSA(signer.DevKeys[keyIndex])
	if err != nil {
		t.Fatalf("parsing dev key %d: %v", keyIndex, err)
	}

	tx, err := types.SignNewTx(privateKey, types.LatestSignerForChainID(gen.ChainIDBig()), &types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    new(big.Int).SetUint64(value),
		Gas:      21_000,
		GasPrice: big.NewInt(1),
	})
	if err != nil {
		t.Fatalf("signing transfer: %v", err)
	}

	return tx
}

func Test_ProduceBlock(t *testing.T) {
	t.Log("Given the need to produce blocks from the mempool.")
	{
		ctx := context.Background()

		t.Logf("\tTest 0:\tWhen producing a block from mixed transactions.")
		{
			st := newState(t)

			recipientX := common.HexToAddress("0x1110")
			recipientY := common.HexToAddress("0x2220")

			for _, tx := range []*types.Transaction{
				signTransfer(t, 3, 0, recipientX, 1000),
				signTransfer(t, 3, 1, recipientX, 1000),
				signTransfer(t, 4, 0, recipientY, 1000),
			} {
				if err := st.SubmitTransaction(tx); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to submit the transaction: %v", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to submit 3 transactions.", success)

			if st.MempoolLength() != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould hold 3 transactions in the pool, got %d.", failed, st.MempoolLength())
			}

			block, err := st.ProduceBlock(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to produce a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to produce a block.", success)

			if block.Number() != 1 || len(block.Trans) != 3 {
				t.Errorf("\t%s\tTest 0:\tShould produce block 1 with 3 transactions, got blk[%d] txs[%d].", failed, block.Number(), len(block.Trans))
			} else {
				t.Logf("\t%s\tTest 0:\tShould produce block 1 with 3 transactions.", success)
			}

			producer, err := seal.Verify(block.Header)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to verify the seal: %v", failed, err)
			}
			if producer != st.Genesis().InTurn(1) {
				t.Errorf("\t%s\tTest 0:\tShould be sealed by the in-turn producer.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould be sealed by the in-turn producer.", success)
			}

			if st.MempoolLength() != 0 {
				t.Errorf("\t%s\tTest 0:\tShould drain the mempool, got %d.", failed, st.MempoolLength())
			} else {
				t.Logf("\t%s\tTest 0:\tShould drain the mempool.", success)
			}

			stats := st.LastSchedule()
			if stats.TxCount != 3 || stats.BatchCount != 2 {
				t.Errorf("\t%s\tTest 0:\tShould schedule 3 txs into 2 batches, got txs[%d] batches[%d].", failed, stats.TxCount, stats.BatchCount)
			} else {
				t.Logf("\t%s\tTest 0:\tShould schedule 3 txs into 2 batches.", success)
			}

			acct, err := st.QueryAccount(recipientX)
			if err != nil || acct.Balance != 2000 {
				t.Errorf("\t%s\tTest 0:\tShould credit the first recipient 2000, got %d.", failed, acct.Balance)
			} else {
				t.Logf("\t%s\tTest 0:\tShould credit the first recipient 2000.", success)
			}

			prodAcct, err := st.QueryAccount(producer)
			if err != nil || prodAcct.Balance != 1_000_000_000+3*gas.TxGas {
				t.Errorf("\t%s\tTest 0:\tShould credit the producer the gas fees, got %d.", failed, prodAcct.Balance)
			} else {
				t.Logf("\t%s\tTest 0:\tShould credit the producer the gas fees.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen producing with an empty mempool.")
		{
			st := newState(t)

			if _, err := st.ProduceBlock(ctx); err != state.ErrNoTransactions {
				t.Errorf("\t%s\tTest 1:\tShould get ErrNoTransactions: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould get ErrNoTransactions.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen this node does not hold the in-turn key.")
		{
			storage, _ := memory.New()
			st, err := state.New(state.Config{
				Genesis:        genesis.Dev(),
				Storage:        storage,
				Signers:        signer.New(),
				SelectStrategy: selector.StrategyTip,
				EvHandler:      nopHandler,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to construct the state: %v", failed, err)
			}

			if err := st.SubmitTransaction(signTransfer(t, 3, 0, common.HexToAddress("0x1110"), 1000)); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to submit the transaction: %v", failed, err)
			}

			if _, err := st.ProduceBlock(ctx); !errors.Is(err, state.ErrNotInTurn) {
				t.Errorf("\t%s\tTest 2:\tShould get ErrNotInTurn: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould get ErrNotInTurn.", success)
			}
		}

		t.Logf("\tTest 3:\tWhen submitting a transaction for another chain.")
		{
			st := newState(t)

			privateKey, err := crypto.HexToECDSA(signer.DevKeys[3])
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to parse the key: %v", failed, err)
			}

			to := common.HexToAddress("0x1110")
			tx, err := types.SignNewTx(privateKey, types.LatestSignerForChainID(big.NewInt(1)), &types.LegacyTx{
				Nonce:    0,
				To:       &to,
				Value:    big.NewInt(1),
				Gas:      21_000,
				GasPrice: big.NewInt(1),
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to sign the transaction: %v", failed, err)
			}

			if err := st.SubmitTransaction(tx); err == nil {
				t.Errorf("\t%s\tTest 3:\tShould reject the wrong chain id.", failed)
			} else {
				t.Logf("\t%s\tTest 3:\tShould reject the wrong chain id.", success)
			}
		}
	}
}

func Test_ProcessPayload(t *testing.T) {
	t.Log("Given the need to accept blocks produced by other nodes.")
	{
		ctx := context.Background()

		t.Logf("\tTest 0:\tWhen processing a payload from a peer block.")
		{
			producerState := newState(t)
			followerState := newState(t)

			recipient := common.HexToAddress("0x3330")
			if err := producerState.SubmitTransaction(signTransfer(t, 3, 0, recipient, 1000)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the transaction: %v", failed, err)
			}

			block, err := producerState.ProduceBlock(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to produce a block: %v", failed, err)
			}

			payload := engine.BlockToPayload(block.ToEthBlock())

			if err := followerState.ProcessPayload(ctx, payload); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to process the payload: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to process the payload.", success)

			if followerState.LatestBlock().Hash() != block.Hash() {
				t.Errorf("\t%s\tTest 0:\tShould adopt the producer's block.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould adopt the producer's block.", success)
			}

			acct, err := followerState.QueryAccount(recipient)
			if err != nil || acct.Balance != 1000 {
				t.Errorf("\t%s\tTest 0:\tShould apply the transfer on the follower, got %d.", failed, acct.Balance)
			} else {
				t.Logf("\t%s\tTest 0:\tShould apply the transfer on the follower.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen processing a payload with a bad declared hash.")
		{
			producerState := newState(t)
			followerState := newState(t)

			if err := producerState.SubmitTransaction(signTransfer(t, 3, 0, common.HexToAddress("0x3330"), 1000)); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit the transaction: %v", failed, err)
			}

			block, err := producerState.ProduceBlock(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to produce a block: %v", failed, err)
			}

			payload := engine.BlockToPayload(block.ToEthBlock())
			payload.BlockHash = common.HexToHash("0xbad")

			var bhme engine.BlockHashMismatchError
			if err := followerState.ProcessPayload(ctx, payload); !errors.As(err, &bhme) {
				t.Errorf("\t%s\tTest 1:\tShould get a BlockHashMismatchError: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould get a BlockHashMismatchError.", success)
			}
		}
	}
}
