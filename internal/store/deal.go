package store

import (
	"sync"

	"github.com/rdlucca/escrowd/internal/domain"
)

// DealStore is a thread-safe in-memory store for completed deals,
// keyed by asset. Deals are append-only and chronological.
type DealStore struct {
	mu    sync.RWMutex
	deals map[domain.AssetID][]*domain.Deal
}

// NewDealStore creates an empty DealStore.
func NewDealStore() *DealStore {
	return &DealStore{
		deals: make(map[domain.AssetID][]*domain.Deal),
	}
}

// Append adds a deal to the asset's chronological list.
func (s *DealStore) Append(d *domain.Deal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deals[d.Asset] = append(s.deals[d.Asset], d)
}

// GetByAsset returns all deals for an asset in chronological order.
// Returns an empty slice if the asset has no deals.
func (s *DealStore) GetByAsset(asset domain.AssetID) []*domain.Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deals := s.deals[asset]
	if deals == nil {
		return []*domain.Deal{}
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Deal, len(deals))
	copy(result, deals)
	return result
}
