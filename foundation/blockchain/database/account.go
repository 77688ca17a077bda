package database

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Account represents information stored in the database for an individual
// account.
type Account struct {
	Address common.Address
	Nonce   uint64
	Balance uint64
}

// newAccount constructs a new account value for use.
func newAccount(address common.Address, balance uint64) Account {
	return Account{
		Address: address,
		Balance: balance,
	}
}

// =============================================================================

// sortByAddress orders accounts by address so listings are deterministic.
func sortByAddress(accounts []Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Address.Cmp(accounts[j].Address) < 0
	})
}
