// Package nameservice reads the zblock/accounts folder and creates a name
// service lookup for account addresses.
package nameservice

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	addresses map[common.Address]string
}

// New constructs a name service with the addresses derived from the key
// files in the specified folder.
func New(root string) (*NameService, error) {
	ns := NameService{
		addresses: make(map[common.Address]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		address := crypto.PubkeyToAddress(privateKey.PublicKey)
		ns.addresses[address] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. If the address is
// unknown, the address string is returned.
func (ns *NameService) Lookup(address common.Address) string {
	name, exists := ns.addresses[address]
	if !exists {
		return address.String()
	}
	return name
}

// Copy returns a copy of the name service map.
func (ns *NameService) Copy() map[common.Address]string {
	cpy := make(map[common.Address]string, len(ns.addresses))
	for address, name := range ns.addresses {
		cpy[address] = name
	}
	return cpy
}
