package store

import (
	"time"

	"github.com/google/btree"

	"github.com/rdlucca/escrowd/internal/domain"
)

// indexEntry is a single active listing in the browse index.
type indexEntry struct {
	Price     int64
	CreatedAt time.Time
	Asset     domain.AssetID
}

// entryLess orders the browse index: price ascending, then created_at
// ascending, then asset ID ascending. Min() is the cheapest, oldest
// listing.
func entryLess(a, b indexEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Asset < b.Asset
}

// listingIndex maintains price-ordered B-trees over active sales and
// auctions with a secondary index for O(log n) removal by asset ID.
// It is not safe for concurrent use; the ListingStore's lock guards it.
type listingIndex struct {
	sales    *btree.BTreeG[indexEntry]
	auctions *btree.BTreeG[indexEntry]
	byAsset  map[domain.AssetID]indexEntry
}

func newListingIndex() *listingIndex {
	const degree = 32
	return &listingIndex{
		sales:    btree.NewG[indexEntry](degree, entryLess),
		auctions: btree.NewG[indexEntry](degree, entryLess),
		byAsset:  make(map[domain.AssetID]indexEntry),
	}
}

func (ix *listingIndex) insertSale(s *domain.Sale) {
	entry := indexEntry{Price: s.Price, CreatedAt: s.CreatedAt, Asset: s.Asset}
	ix.sales.ReplaceOrInsert(entry)
	ix.byAsset[s.Asset] = entry
}

func (ix *listingIndex) insertAuction(a *domain.Auction) {
	entry := indexEntry{Price: a.ReservePrice, CreatedAt: a.StartTime, Asset: a.Asset}
	ix.auctions.ReplaceOrInsert(entry)
	ix.byAsset[a.Asset] = entry
}

// remove deletes the asset's entry using the secondary index. It tries
// both trees since the caller may not know which kind the listing is —
// Delete is a no-op if the entry isn't found.
func (ix *listingIndex) remove(asset domain.AssetID) {
	entry, ok := ix.byAsset[asset]
	if !ok {
		return
	}
	delete(ix.byAsset, asset)
	ix.sales.Delete(entry)
	ix.auctions.Delete(entry)
}

// walkSales iterates active sales cheapest first. The callback returns
// true to continue, false to stop.
func (ix *listingIndex) walkSales(fn func(asset domain.AssetID) bool) {
	ix.sales.Ascend(func(e indexEntry) bool {
		return fn(e.Asset)
	})
}

// walkAuctions iterates active auctions by reserve price ascending.
func (ix *listingIndex) walkAuctions(fn func(asset domain.AssetID) bool) {
	ix.auctions.Ascend(func(e indexEntry) bool {
		return fn(e.Asset)
	})
}
