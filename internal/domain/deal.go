package domain

import "time"

// Deal is the audit record of a completed exchange: a consumed sale or
// a settled auction. Deals are append-only and never mutated.
type Deal struct {
	DealID     string
	Asset      AssetID
	Kind       ListingKind
	Price      int64 // listing price / reserve price, the amount split
	Fee        int64
	Seller     Account
	Buyer      Account
	ExecutedAt time.Time
}
