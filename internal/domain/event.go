package domain

import "time"

// Event types observable by external subscribers and auditors.
const (
	EventListingCreated   = "listing.created"
	EventListingCancelled = "listing.cancelled"
	EventSaleCompleted    = "sale.completed"
	EventAuctionCompleted = "auction.completed"
	EventSettlementFailed = "settlement.failed"
)

// Event is emitted exactly once per committed engine operation. A
// completed trade is announced as soon as its listing is consumed;
// settlement.failed additionally fires when an outbound transfer fails
// afterwards. Optional fields are nil when they don't apply to the
// event type.
type Event struct {
	EventID    string
	Type       string
	Asset      AssetID
	Kind       ListingKind
	Price      int64
	Duration   *time.Duration // listing.created for auctions only
	Buyer      *Account       // sale.completed / auction.completed
	Reason     string         // settlement.failed only
	OccurredAt time.Time
}
