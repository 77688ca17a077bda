package signer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/meowchain/meowchain/foundation/blockchain/signer"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// devAddr0 is the address derived from the first development key.
var devAddr0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

func Test_AddRemove(t *testing.T) {
	t.Log("Given the need to manage signing keys in the store.")
	{
		t.Logf("\tTest 0:\tWhen adding a key from hex.")
		{
			signers := signer.New()

			address, err := signers.AddHex(signer.DevKeys[0])
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add a valid hex key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add a valid hex key.", success)

			if address != devAddr0 {
				t.Errorf("\t%s\tTest 0:\tShould derive the known dev address.", failed)
				t.Logf("\t\tTest 0:\tgot: %s", address)
				t.Logf("\t\tTest 0:\texp: %s", devAddr0)
			} else {
				t.Logf("\t%s\tTest 0:\tShould derive the known dev address.", success)
			}

			if !signers.Has(address) {
				t.Errorf("\t%s\tTest 0:\tShould report the address as held.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould report the address as held.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen adding an invalid hex key.")
		{
			signers := signer.New()

			if _, err := signers.AddHex("not-a-key"); !errors.Is(err, signer.ErrInvalidPrivateKey) {
				t.Errorf("\t%s\tTest 1:\tShould get ErrInvalidPrivateKey: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould get ErrInvalidPrivateKey.", success)
			}

			if len(signers.Addresses()) != 0 {
				t.Errorf("\t%s\tTest 1:\tShould leave the store empty.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould leave the store empty.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen removing and re-adding an address.")
		{
			signers := signer.New()

			address, err := signers.AddHex(signer.DevKeys[0])
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to add a valid hex key: %v", failed, err)
			}

			if !signers.Remove(address) {
				t.Errorf("\t%s\tTest 2:\tShould report a key was removed.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould report a key was removed.", success)
			}

			if signers.Has(address) {
				t.Errorf("\t%s\tTest 2:\tShould no longer hold the address.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould no longer hold the address.", success)
			}

			if signers.Remove(address) {
				t.Errorf("\t%s\tTest 2:\tShould report nothing removed the second time.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould report nothing removed the second time.", success)
			}

			again, err := signers.AddHex(signer.DevKeys[0])
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to re-add the key: %v", failed, err)
			}
			if again != address || !signers.Has(address) {
				t.Errorf("\t%s\tTest 2:\tShould hold the address again after re-add.", failed)
			} else {
				t.Logf("\t%s\tTest 2:\tShould hold the address again after re-add.", success)
			}
		}

		t.Logf("\tTest 3:\tWhen listing a multi-key store.")
		{
			signers := signer.SetupDev(3)

			addresses := signers.Addresses()
			if len(addresses) != 3 {
				t.Fatalf("\t%s\tTest 3:\tShould list 3 addresses, got %d.", failed, len(addresses))
			}
			t.Logf("\t%s\tTest 3:\tShould list 3 addresses.", success)

			for _, address := range addresses {
				if !signers.Has(address) {
					t.Errorf("\t%s\tTest 3:\tShould hold every listed address.", failed)
				}
			}
			t.Logf("\t%s\tTest 3:\tShould hold every listed address.", success)
		}
	}
}

func Test_SignHash(t *testing.T) {
	t.Log("Given the need to sign digests with held keys.")
	{
		ctx := context.Background()
		hash := crypto.Keccak256Hash([]byte("meowchain block digest"))

		t.Logf("\tTest 0:\tWhen signing with a held key.")
		{
			signers := signer.SetupDev(1)

			sig, err := signers.SignHash(ctx, devAddr0, hash)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the digest: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to sign the digest.", success)

			if len(sig) != 65 {
				t.Fatalf("\t%s\tTest 0:\tShould produce a 65 byte signature, got %d.", failed, len(sig))
			}
			t.Logf("\t%s\tTest 0:\tShould produce a 65 byte signature.", success)

			publicKey, err := crypto.SigToPub(hash.Bytes(), sig)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to recover the public key: %v", failed, err)
			}
			if crypto.PubkeyToAddress(*publicKey) != devAddr0 {
				t.Errorf("\t%s\tTest 0:\tShould recover the signing address.", failed)
			} else {
				t.Logf("\t%s\tTest 0:\tShould recover the signing address.", success)
			}
		}

		t.Logf("\tTest 1:\tWhen signing with an unknown address.")
		{
			signers := signer.New()

			var nse signer.NoSignerError
			if _, err := signers.SignHash(ctx, devAddr0, hash); !errors.As(err, &nse) {
				t.Errorf("\t%s\tTest 1:\tShould get a NoSignerError: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 1:\tShould get a NoSignerError.", success)
			}
			if nse.Address != devAddr0 {
				t.Errorf("\t%s\tTest 1:\tShould carry the requested address in the error.", failed)
			} else {
				t.Logf("\t%s\tTest 1:\tShould carry the requested address in the error.", success)
			}
		}

		t.Logf("\tTest 2:\tWhen signing after the key was removed.")
		{
			signers := signer.SetupDev(1)
			signers.Remove(devAddr0)

			var nse signer.NoSignerError
			if _, err := signers.SignHash(ctx, devAddr0, hash); !errors.As(err, &nse) {
				t.Errorf("\t%s\tTest 2:\tShould get a NoSignerError: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 2:\tShould get a NoSignerError.", success)
			}
		}

		t.Logf("\tTest 3:\tWhen signing concurrently across goroutines.")
		{
			signers := signer.SetupDev(5)
			addresses := signers.Addresses()

			var wg sync.WaitGroup
			errCh := make(chan error, 50)

			for g := 0; g < 10; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for _, address := range addresses {
						sig, err := signers.SignHash(ctx, address, hash)
						if err != nil {
							errCh <- err
							return
						}
						publicKey, err := crypto.SigToPub(hash.Bytes(), sig)
						if err != nil {
							errCh <- err
							return
						}
						if crypto.PubkeyToAddress(*publicKey) != address {
							errCh <- errors.New("recovered wrong address")
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errCh)

			if err := <-errCh; err != nil {
				t.Errorf("\t%s\tTest 3:\tShould sign correctly under concurrency: %v", failed, err)
			} else {
				t.Logf("\t%s\tTest 3:\tShould sign correctly under concurrency.", success)
			}
		}
	}
}
