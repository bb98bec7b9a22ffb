package domain

import "time"

// ListingKind distinguishes fixed-price sales from timed auctions.
type ListingKind string

const (
	ListingKindSale    ListingKind = "sale"
	ListingKindAuction ListingKind = "auction"
)

// Sale is a fixed-price listing. It exists from creation until consumed
// by a purchase or cancelled, and is owned exclusively by the listing
// registry for the duration of its life.
type Sale struct {
	Seller    Account
	Asset     AssetID
	Price     int64
	CreatedAt time.Time
}

// Auction is a timed first-bid-wins listing. The active window is
// [StartTime, StartTime+Duration); the first bid at or above the
// reserve price within the window settles it.
type Auction struct {
	Seller       Account
	Asset        AssetID
	ReservePrice int64
	Duration     time.Duration
	StartTime    time.Time
}

// EndTime returns the instant at which the auction window lapses.
// A bid arriving at or after this instant is rejected.
func (a *Auction) EndTime() time.Time {
	return a.StartTime.Add(a.Duration)
}

// Expired reports whether the auction window has lapsed at the given
// instant. The window check is strict: now == EndTime is expired.
func (a *Auction) Expired(now time.Time) bool {
	return !now.Before(a.EndTime())
}
