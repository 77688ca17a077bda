package genesis_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/meowchain/meowchain/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	t.Log("Given the need to load and validate a genesis file.")
	{
		t.Logf("\tTest 0:\tWhen loading a well formed genesis file.")
		{
			doc := `{
				"date": "2024-01-01T00:00:00Z",
				"chain_id": 101,
				"block_interval_ms": 1000,
				"calldata_gas_per_byte": 8,
				"signers": ["0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"],
				"balances": {"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266": 5000}
			}`

			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to write the file: %v", failed, err)
			}

			gen, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the genesis file: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the genesis file.", success)

			if gen.ChainID != 101 {
				t.Errorf("\t%s\tTest 0:\tShould see chain id 101, got %d.", failed, gen.ChainID)
			} else {
				t.Logf("\t%s\tTest 0:\tShould see chain id 101.", success)
			}

			if gen.Interval() != time.Second {
				t.Errorf("\t%s\tTest 0:\tShould see a 1s block interval, got %v.", failed, gen.Interval())
			} else {
				t.Logf("\t%s\tTest 0:\tShould see a 1s block interval.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen the genesis file declares no signers.")
		{
			doc := `{
				"date": "2024-01-01T00:00:00Z",
				"chain_id": 101,
				"block_interval_ms": 1000,
				"calldata_gas_per_byte": 8,
				"signers": [],
				"balances": {}
			}`

			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to write the file: %v", failed, err)
			}

			if _, err := genesis.Load(path); err == nil {
				t.Errorf("\t%s\tTest 1:\tShould reject an empty rotation.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould reject an empty rotation.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen the calldata gas is above the protocol reference.")
		{
			doc := `{
				"date": "2024-01-01T00:00:00Z",
				"chain_id": 101,
				"block_interval_ms": 1000,
				"calldata_gas_per_byte": 17,
				"signers": ["0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"],
				"balances": {}
			}`

			path := filepath.Join(t.TempDir(), "genesis.json")
			if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to write the file: %v", failed, err)
			}

			if _, err := genesis.Load(path); err == nil {
				t.Errorf("\t%s\tTest 2:\tShould reject calldata gas above 16.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject calldata gas above 16.", success)
			}
		}
	}
}

func Test_Rotation(t *testing.T) {
	t.Log("Given the need to determine the in-turn producer.")
	{
		t.Logf("\tTest 0:\tWhen walking the round robin rotation.")
		{
			gen := genesis.Dev()

			for blockNumber := uint64(1); blockNumber <= 7; blockNumber++ {
				want := gen.Signers[blockNumber%uint64(len(gen.Signers))]
				if got := gen.InTurn(blockNumber); got != want {
					t.Fatalf("\t%s\tTest 0:\tShould see %s in turn for blk[%d], got %s.", failed, want, blockNumber, got)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould rotate through the signer list in order.", success)
		}

		t.Logf("\tTest 1:\tWhen checking production authorization.")
		{
			gen := genesis.Dev()

			for _, address := range gen.Signers {
				if !gen.IsAuthorized(address) {
					t.Fatalf("\t%s\tTest 1:\tShould authorize rotation member %s.", failed, address)
				}
			}
			t.Logf("\t%s\tTest 1:\tShould authorize every rotation member.", success)

			outsider := common.HexToAddress("0x0000000000000000000000000000000000000001")
			if gen.IsAuthorized(outsider) {
				t.Errorf("\t%s\tTest 1:\tShould not authorize an outsider.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould not authorize an outsider.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen validating a rotation with a duplicate signer.")
		{
			gen := genesis.Dev()
			gen.Signers = append(gen.Signers, gen.Signers[0])

			if err := gen.Validate(); err == nil {
				t.Errorf("\t%s\tTest 2:\tShould reject a duplicate signer.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould reject a duplicate signer.", success)
			}
		}
	}
}
