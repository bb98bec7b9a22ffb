package store

import (
	"sync"

	"github.com/rdlucca/escrowd/internal/domain"
)

// ListingStore is the single source of truth for "which asset has which
// active listing". It enforces at-most-one listing per asset across
// both kinds: a sale and an auction on the same asset are mutually
// exclusive.
//
// Take* removes and returns the entry in one step so that a listing can
// never be consumed twice: callers must take the entry before issuing
// any external transfer.
type ListingStore struct {
	mu       sync.RWMutex
	sales    map[domain.AssetID]*domain.Sale
	auctions map[domain.AssetID]*domain.Auction
	idx      *listingIndex
}

// NewListingStore creates an empty ListingStore.
func NewListingStore() *ListingStore {
	return &ListingStore{
		sales:    make(map[domain.AssetID]*domain.Sale),
		auctions: make(map[domain.AssetID]*domain.Auction),
		idx:      newListingIndex(),
	}
}

// PutSale inserts a sale. It returns domain.ErrAssetAlreadyListed if
// the asset already has an active listing of either kind.
func (s *ListingStore) PutSale(sale *domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listed(sale.Asset) {
		return domain.ErrAssetAlreadyListed
	}
	s.sales[sale.Asset] = sale
	s.idx.insertSale(sale)
	return nil
}

// PutAuction inserts an auction. It returns domain.ErrAssetAlreadyListed
// if the asset already has an active listing of either kind.
func (s *ListingStore) PutAuction(a *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listed(a.Asset) {
		return domain.ErrAssetAlreadyListed
	}
	s.auctions[a.Asset] = a
	s.idx.insertAuction(a)
	return nil
}

// TakeSale atomically removes and returns the sale for the asset.
// It returns domain.ErrNoSuchListing if none exists.
func (s *ListingStore) TakeSale(asset domain.AssetID) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[asset]
	if !ok {
		return nil, domain.ErrNoSuchListing
	}
	delete(s.sales, asset)
	s.idx.remove(asset)
	return sale, nil
}

// TakeAuction atomically removes and returns the auction for the asset.
// It returns domain.ErrNoSuchListing if none exists.
func (s *ListingStore) TakeAuction(asset domain.AssetID) (*domain.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[asset]
	if !ok {
		return nil, domain.ErrNoSuchListing
	}
	delete(s.auctions, asset)
	s.idx.remove(asset)
	return a, nil
}

// GetSale returns the active sale for the asset without consuming it.
// It returns domain.ErrNoSuchListing if none exists.
func (s *ListingStore) GetSale(asset domain.AssetID) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[asset]
	if !ok {
		return nil, domain.ErrNoSuchListing
	}
	return sale, nil
}

// GetAuction returns the active auction for the asset without consuming
// it. It returns domain.ErrNoSuchListing if none exists.
func (s *ListingStore) GetAuction(asset domain.AssetID) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[asset]
	if !ok {
		return nil, domain.ErrNoSuchListing
	}
	return a, nil
}

// Has reports whether the asset has an active listing of either kind.
func (s *ListingStore) Has(asset domain.AssetID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listed(asset)
}

// listed must be called with s.mu held.
func (s *ListingStore) listed(asset domain.AssetID) bool {
	if _, ok := s.sales[asset]; ok {
		return true
	}
	_, ok := s.auctions[asset]
	return ok
}

// BrowseSales returns up to n active sales ordered by price ascending,
// then creation time.
func (s *ListingStore) BrowseSales(n int) []*domain.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Sale, 0, n)
	s.idx.walkSales(func(asset domain.AssetID) bool {
		if len(result) >= n {
			return false
		}
		if sale, ok := s.sales[asset]; ok {
			result = append(result, sale)
		}
		return true
	})
	return result
}

// BrowseAuctions returns up to n active auctions ordered by reserve
// price ascending, then creation time.
func (s *ListingStore) BrowseAuctions(n int) []*domain.Auction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Auction, 0, n)
	s.idx.walkAuctions(func(asset domain.AssetID) bool {
		if len(result) >= n {
			return false
		}
		if a, ok := s.auctions[asset]; ok {
			result = append(result, a)
		}
		return true
	})
	return result
}
