// Package parallel determines which transactions in a block candidate can
// execute concurrently. Each transaction declares the storage it touches
// through an access record, and the schedule groups non-conflicting
// transactions into batches that run side by side while the batches
// themselves execute strictly in order.
package parallel

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// AccessKey identifies a single piece of state: one storage slot under
// one account.
type AccessKey struct {
	Address common.Address
	Slot    common.Hash
}

// AccessRecord captures the set of storage locations a transaction reads
// and writes. Membership is what matters; adding the same location twice
// has no effect. A location may appear in both sets for a read-modify-write.
type AccessRecord struct {
	reads  map[AccessKey]struct{}
	writes map[AccessKey]struct{}
}

// AddRead records that the transaction reads the specified slot.
func (ar *AccessRecord) AddRead(address common.Address, slot common.Hash) {
	if ar.reads == nil {
		ar.reads = make(map[AccessKey]struct{})
	}
	ar.reads[AccessKey{Address: address, Slot: slot}] = struct{}{}
}

// AddWrite records that the transaction writes the specified slot.
func (ar *AccessRecord) AddWrite(address common.Address, slot common.Hash) {
	if ar.writes == nil {
		ar.writes = make(map[AccessKey]struct{})
	}
	ar.writes[AccessKey{Address: address, Slot: slot}] = struct{}{}
}

// ReadCount returns the number of distinct locations read.
func (ar *AccessRecord) ReadCount() int {
	return len(ar.reads)
}

// WriteCount returns the number of distinct locations written.
func (ar *AccessRecord) WriteCount() int {
	return len(ar.writes)
}

// FromAccessList derives a conservative access record from a transaction's
// declared EIP-2930 access list. Without read/write intent in the declaration,
// every listed slot counts as both a read and a write.
func FromAccessList(list types.AccessList) AccessRecord {
	var ar AccessRecord
	for _, tuple := range list {
		for _, slot := range tuple.StorageKeys {
			ar.AddRead(tuple.Address, slot)
			ar.AddWrite(tuple.Address, slot)
		}
	}
	return ar
}

// =============================================================================

// Conflicts reports whether two transactions cannot safely execute in the
// same batch. A conflict exists on any read-after-write, write-after-read,
// or write-after-write overlap between the two records. The predicate is
// symmetric and has no side effects.
func Conflicts(a *AccessRecord, b *AccessRecord) bool {
	return intersects(a.writes, b.reads) ||
		intersects(a.reads, b.writes) ||
		intersects(a.writes, b.writes)
}

// intersects checks two sets for a common member by probing the smaller
// set against the larger, keeping the cost proportional to the smaller
// set even for large access lists.
func intersects(a map[AccessKey]struct{}, b map[AccessKey]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for key := range a {
		if _, exists := b[key]; exists {
			return true
		}
	}
	return false
}
