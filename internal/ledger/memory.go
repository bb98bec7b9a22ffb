package ledger

import (
	"sync"

	"github.com/rdlucca/escrowd/internal/domain"
)

// InMemoryOwnership is a map-backed ownership registry.
type InMemoryOwnership struct {
	mu     sync.RWMutex
	owners map[domain.AssetID]domain.Account
}

// NewInMemoryOwnership creates an empty ownership registry.
func NewInMemoryOwnership() *InMemoryOwnership {
	return &InMemoryOwnership{
		owners: make(map[domain.AssetID]domain.Account),
	}
}

// Mint registers an asset under an owner, overwriting any prior record.
// Bootstrap helper; not part of the Ownership contract.
func (o *InMemoryOwnership) Mint(asset domain.AssetID, owner domain.Account) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owners[asset] = owner
}

// OwnerOf returns the current holder of the asset.
func (o *InMemoryOwnership) OwnerOf(asset domain.AssetID) (domain.Account, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	owner, ok := o.owners[asset]
	if !ok {
		return "", ErrUnknownAsset
	}
	return owner, nil
}

// Transfer moves the asset from one holder to another. It fails with
// ErrNotHolder if from does not currently hold the asset, leaving the
// record unchanged.
func (o *InMemoryOwnership) Transfer(asset domain.AssetID, from, to domain.Account) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	owner, ok := o.owners[asset]
	if !ok {
		return ErrUnknownAsset
	}
	if owner != from {
		return ErrNotHolder
	}
	o.owners[asset] = to
	return nil
}

// InMemoryPayments is a map-backed value-transfer service. The engine's
// held balance lives under the configured custody account.
type InMemoryPayments struct {
	mu       sync.Mutex
	balances map[domain.Account]int64
	held     domain.Account // the engine's custody account
}

// NewInMemoryPayments creates a payments ledger whose held balance is
// tracked under the given custody account.
func NewInMemoryPayments(held domain.Account) *InMemoryPayments {
	return &InMemoryPayments{
		balances: make(map[domain.Account]int64),
		held:     held,
	}
}

// Deposit credits an account. Bootstrap helper; not part of the
// Payments contract.
func (p *InMemoryPayments) Deposit(account domain.Account, amount int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[account] += amount
}

// Balance returns an account's current balance.
func (p *InMemoryPayments) Balance(account domain.Account) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[account]
}

// Collect moves amount from the payer into the engine's held balance.
func (p *InMemoryPayments) Collect(from domain.Account, amount int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balances[from] < amount {
		return ErrInsufficientFunds
	}
	p.balances[from] -= amount
	p.balances[p.held] += amount
	return nil
}

// Pay debits the engine's held balance in favor of to. The amount is
// fully moved or the call fails with no partial debit.
func (p *InMemoryPayments) Pay(to domain.Account, amount int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.balances[p.held] < amount {
		return ErrInsufficientFunds
	}
	p.balances[p.held] -= amount
	p.balances[to] += amount
	return nil
}
