package service

import (
	"regexp"
	"time"

	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/engine"
	"github.com/rdlucca/escrowd/internal/store"
)

var (
	accountRegex = regexp.MustCompile(`^[a-zA-Z0-9:_-]{1,64}$`)
	assetIDRegex = regexp.MustCompile(`^[a-zA-Z0-9:_-]{1,128}$`)
)

// ListingView is a read-model for a single active listing of either kind.
type ListingView struct {
	Kind    domain.ListingKind
	Sale    *domain.Sale
	Auction *domain.Auction
}

// MarketService validates request shapes ahead of the exchange engine
// and serves the read APIs over listings and deals.
type MarketService struct {
	exchange *engine.Exchange
	listings *store.ListingStore
	deals    *store.DealStore
}

// NewMarketService creates a new MarketService with the given dependencies.
func NewMarketService(exchange *engine.Exchange, listings *store.ListingStore, deals *store.DealStore) *MarketService {
	return &MarketService{
		exchange: exchange,
		listings: listings,
		deals:    deals,
	}
}

// CreateSaleRequest represents the input for a fixed-price listing.
type CreateSaleRequest struct {
	Seller  string
	AssetID string
	Price   int64
}

// CreateSale validates the request and lists the asset at a fixed price.
func (s *MarketService) CreateSale(req CreateSaleRequest) (*domain.Sale, error) {
	if !accountRegex.MatchString(req.Seller) {
		return nil, &domain.ValidationError{Message: "seller must match ^[a-zA-Z0-9:_-]{1,64}$"}
	}
	if !assetIDRegex.MatchString(req.AssetID) {
		return nil, &domain.ValidationError{Message: "asset_id must match ^[a-zA-Z0-9:_-]{1,128}$"}
	}
	return s.exchange.CreateSale(domain.Account(req.Seller), domain.AssetID(req.AssetID), req.Price)
}

// CreateAuctionRequest represents the input for a timed auction listing.
type CreateAuctionRequest struct {
	Seller          string
	AssetID         string
	ReservePrice    int64
	DurationSeconds int64
}

// CreateAuction validates the request and opens a first-bid-wins
// auction whose window starts now.
func (s *MarketService) CreateAuction(req CreateAuctionRequest) (*domain.Auction, error) {
	if !accountRegex.MatchString(req.Seller) {
		return nil, &domain.ValidationError{Message: "seller must match ^[a-zA-Z0-9:_-]{1,64}$"}
	}
	if !assetIDRegex.MatchString(req.AssetID) {
		return nil, &domain.ValidationError{Message: "asset_id must match ^[a-zA-Z0-9:_-]{1,128}$"}
	}
	return s.exchange.CreateAuction(
		domain.Account(req.Seller),
		domain.AssetID(req.AssetID),
		req.ReservePrice,
		time.Duration(req.DurationSeconds)*time.Second,
	)
}

// CancelAuction validates the request and cancels the caller's auction,
// returning custody to the seller.
func (s *MarketService) CancelAuction(seller, assetID string) error {
	if !accountRegex.MatchString(seller) {
		return &domain.ValidationError{Message: "seller must match ^[a-zA-Z0-9:_-]{1,64}$"}
	}
	if !assetIDRegex.MatchString(assetID) {
		return &domain.ValidationError{Message: "asset_id must match ^[a-zA-Z0-9:_-]{1,128}$"}
	}
	return s.exchange.CancelAuction(domain.Account(seller), domain.AssetID(assetID))
}

// BuyRequest represents the input for a fixed-price purchase.
type BuyRequest struct {
	Buyer      string
	AssetID    string
	PaidAmount int64
}

// Buy validates the request and completes a fixed-price purchase.
func (s *MarketService) Buy(req BuyRequest) (*domain.Deal, error) {
	if !accountRegex.MatchString(req.Buyer) {
		return nil, &domain.ValidationError{Message: "buyer must match ^[a-zA-Z0-9:_-]{1,64}$"}
	}
	if !assetIDRegex.MatchString(req.AssetID) {
		return nil, &domain.ValidationError{Message: "asset_id must match ^[a-zA-Z0-9:_-]{1,128}$"}
	}
	if req.PaidAmount <= 0 {
		return nil, &domain.ValidationError{Message: "paid_amount must be a positive integer"}
	}
	return s.exchange.Buy(domain.Account(req.Buyer), domain.AssetID(req.AssetID), req.PaidAmount)
}

// BidRequest represents the input for an auction bid.
type BidRequest struct {
	Bidder     string
	AssetID    string
	PaidAmount int64
}

// Bid validates the request and settles the auction if this is the
// first qualifying bid.
func (s *MarketService) Bid(req BidRequest) (*domain.Deal, error) {
	if !accountRegex.MatchString(req.Bidder) {
		return nil, &domain.ValidationError{Message: "bidder must match ^[a-zA-Z0-9:_-]{1,64}$"}
	}
	if !assetIDRegex.MatchString(req.AssetID) {
		return nil, &domain.ValidationError{Message: "asset_id must match ^[a-zA-Z0-9:_-]{1,128}$"}
	}
	if req.PaidAmount <= 0 {
		return nil, &domain.ValidationError{Message: "paid_amount must be a positive integer"}
	}
	return s.exchange.Bid(domain.Account(req.Bidder), domain.AssetID(req.AssetID), req.PaidAmount)
}

// GetListing returns the active listing for an asset, of either kind.
func (s *MarketService) GetListing(assetID string) (*ListingView, error) {
	if !assetIDRegex.MatchString(assetID) {
		return nil, &domain.ValidationError{Message: "asset_id must match ^[a-zA-Z0-9:_-]{1,128}$"}
	}

	asset := domain.AssetID(assetID)
	if sale, err := s.listings.GetSale(asset); err == nil {
		return &ListingView{Kind: domain.ListingKindSale, Sale: sale}, nil
	}
	auction, err := s.listings.GetAuction(asset)
	if err != nil {
		return nil, err
	}
	return &ListingView{Kind: domain.ListingKindAuction, Auction: auction}, nil
}

// BrowseListings returns up to limit active listings of the given kind,
// cheapest first. limit defaults to 20 and is capped at 100.
func (s *MarketService) BrowseListings(kind string, limit int) ([]ListingView, error) {
	if limit == 0 {
		limit = 20
	}
	if limit < 1 || limit > 100 {
		return nil, &domain.ValidationError{Message: "limit must be between 1 and 100"}
	}

	switch domain.ListingKind(kind) {
	case domain.ListingKindSale:
		sales := s.listings.BrowseSales(limit)
		views := make([]ListingView, len(sales))
		for i, sale := range sales {
			views[i] = ListingView{Kind: domain.ListingKindSale, Sale: sale}
		}
		return views, nil
	case domain.ListingKindAuction:
		auctions := s.listings.BrowseAuctions(limit)
		views := make([]ListingView, len(auctions))
		for i, a := range auctions {
			views[i] = ListingView{Kind: domain.ListingKindAuction, Auction: a}
		}
		return views, nil
	default:
		return nil, &domain.ValidationError{Message: "kind must be 'sale' or 'auction'"}
	}
}

// ListDeals returns the completed deals for an asset, oldest first.
func (s *MarketService) ListDeals(assetID string) ([]*domain.Deal, error) {
	if !assetIDRegex.MatchString(assetID) {
		return nil, &domain.ValidationError{Message: "asset_id must match ^[a-zA-Z0-9:_-]{1,128}$"}
	}
	return s.deals.GetByAsset(domain.AssetID(assetID)), nil
}
