// Package ledger defines the narrow contracts for the two external
// collaborators the engine depends on: the ownership/custody registry
// and the value-transfer service. The engine talks only to these
// interfaces; the in-memory implementations in this package stand in
// for the real external services.
package ledger

import (
	"errors"

	"github.com/rdlucca/escrowd/internal/domain"
)

var (
	// ErrUnknownAsset is returned when the ownership registry has no
	// record of the asset.
	ErrUnknownAsset = errors.New("unknown_asset")
	// ErrNotHolder is returned when a transfer names a from-account
	// that does not currently hold the asset. The transfer fails
	// rather than partially applying.
	ErrNotHolder = errors.New("not_holder")
	// ErrInsufficientFunds is returned when a payment would overdraw
	// the paying account. No partial debit occurs.
	ErrInsufficientFunds = errors.New("insufficient_funds")
)

// Ownership is the ownership/custody registry contract. A successful
// Transfer atomically changes the result of subsequent OwnerOf calls.
type Ownership interface {
	OwnerOf(asset domain.AssetID) (domain.Account, error)
	Transfer(asset domain.AssetID, from, to domain.Account) error
}

// Payments is the value-transfer contract. Collect pulls a caller's
// declared payment into the engine's held balance; Pay debits the held
// balance. Both either fully move the amount or fail with no partial
// debit.
type Payments interface {
	Collect(from domain.Account, amount int64) error
	Pay(to domain.Account, amount int64) error
}
