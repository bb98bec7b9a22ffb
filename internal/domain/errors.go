package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrNotOwner              = errors.New("not_owner")
	ErrNotSeller             = errors.New("not_seller")
	ErrInvalidPrice          = errors.New("invalid_price")
	ErrInvalidDuration       = errors.New("invalid_duration")
	ErrNoSuchListing         = errors.New("no_such_listing")
	ErrAssetAlreadyListed    = errors.New("asset_already_listed")
	ErrAuctionExpired        = errors.New("auction_expired")
	ErrInsufficientBid       = errors.New("insufficient_bid")
	ErrInsufficientPayment   = errors.New("insufficient_payment")
	ErrCustodyTransferFailed = errors.New("custody_transfer_failed")
	ErrPaymentTransferFailed = errors.New("payment_transfer_failed")
	ErrWebhookNotFound       = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PostCommitError reports an external transfer failure that occurred
// after the listing had already been removed from the registry. The
// attempted transaction is not rolled back: the corresponding intent
// stays unresolved in the journal until the replayer (or an operator)
// completes it.
type PostCommitError struct {
	Op    string
	Asset AssetID
	Err   error
}

func (e *PostCommitError) Error() string {
	return fmt.Sprintf("post-commit transfer failed during %s for asset %s: %v", e.Op, e.Asset, e.Err)
}

func (e *PostCommitError) Unwrap() error {
	return e.Err
}
