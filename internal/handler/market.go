package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/service"
)

const timeFormat = "2006-01-02T15:04:05Z"

// MarketHandler handles HTTP requests for listing and trade endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// createSaleRequest is the JSON request body for POST /sales.
type createSaleRequest struct {
	Seller  string `json:"seller"`
	AssetID string `json:"asset_id"`
	Price   int64  `json:"price"`
}

// createAuctionRequest is the JSON request body for POST /auctions.
type createAuctionRequest struct {
	Seller          string `json:"seller"`
	AssetID         string `json:"asset_id"`
	ReservePrice    int64  `json:"reserve_price"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// cancelAuctionRequest is the JSON request body for POST /auctions/{asset_id}/cancel.
type cancelAuctionRequest struct {
	Seller string `json:"seller"`
}

// buyRequest is the JSON request body for POST /assets/{asset_id}/buy.
type buyRequest struct {
	Buyer      string `json:"buyer"`
	PaidAmount int64  `json:"paid_amount"`
}

// bidRequest is the JSON request body for POST /assets/{asset_id}/bids.
type bidRequest struct {
	Bidder     string `json:"bidder"`
	PaidAmount int64  `json:"paid_amount"`
}

// saleResponse is the JSON representation of a fixed-price listing.
type saleResponse struct {
	Kind      string `json:"kind"`
	Seller    string `json:"seller"`
	AssetID   string `json:"asset_id"`
	Price     int64  `json:"price"`
	CreatedAt string `json:"created_at"`
}

// auctionResponse is the JSON representation of an auction listing.
type auctionResponse struct {
	Kind            string `json:"kind"`
	Seller          string `json:"seller"`
	AssetID         string `json:"asset_id"`
	ReservePrice    int64  `json:"reserve_price"`
	DurationSeconds int64  `json:"duration_seconds"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
}

// dealResponse is the JSON representation of a completed exchange.
type dealResponse struct {
	DealID     string `json:"deal_id"`
	AssetID    string `json:"asset_id"`
	Kind       string `json:"kind"`
	Price      int64  `json:"price"`
	Fee        int64  `json:"fee"`
	Seller     string `json:"seller"`
	Buyer      string `json:"buyer"`
	ExecutedAt string `json:"executed_at"`
}

// listingsResponse is the JSON response for GET /listings.
type listingsResponse struct {
	Listings []any `json:"listings"`
}

// dealsResponse is the JSON response for GET /assets/{asset_id}/deals.
type dealsResponse struct {
	Deals []dealResponse `json:"deals"`
}

// CreateSale handles POST /sales.
func (h *MarketHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sale, err := h.marketSvc.CreateSale(service.CreateSaleRequest{
		Seller:  req.Seller,
		AssetID: req.AssetID,
		Price:   req.Price,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildSaleResponse(sale))
}

// CreateAuction handles POST /auctions.
func (h *MarketHandler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req createAuctionRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	auction, err := h.marketSvc.CreateAuction(service.CreateAuctionRequest{
		Seller:          req.Seller,
		AssetID:         req.AssetID,
		ReservePrice:    req.ReservePrice,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildAuctionResponse(auction))
}

// CancelAuction handles POST /auctions/{asset_id}/cancel.
func (h *MarketHandler) CancelAuction(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")

	var req cancelAuctionRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.marketSvc.CancelAuction(req.Seller, assetID); err != nil {
		mapMarketError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Buy handles POST /assets/{asset_id}/buy.
func (h *MarketHandler) Buy(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")

	var req buyRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	deal, err := h.marketSvc.Buy(service.BuyRequest{
		Buyer:      req.Buyer,
		AssetID:    assetID,
		PaidAmount: req.PaidAmount,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildDealResponse(deal))
}

// Bid handles POST /assets/{asset_id}/bids.
func (h *MarketHandler) Bid(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")

	var req bidRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	deal, err := h.marketSvc.Bid(service.BidRequest{
		Bidder:     req.Bidder,
		AssetID:    assetID,
		PaidAmount: req.PaidAmount,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildDealResponse(deal))
}

// GetListing handles GET /assets/{asset_id}/listing.
func (h *MarketHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")

	view, err := h.marketSvc.GetListing(assetID)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildListingResponse(view))
}

// ListDeals handles GET /assets/{asset_id}/deals.
func (h *MarketHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "asset_id")

	deals, err := h.marketSvc.ListDeals(assetID)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	result := make([]dealResponse, len(deals))
	for i, d := range deals {
		result[i] = buildDealResponse(d)
	}
	WriteJSON(w, http.StatusOK, dealsResponse{Deals: result})
}

// BrowseListings handles GET /listings.
func (h *MarketHandler) BrowseListings(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
			return
		}
		limit = n
	}

	views, err := h.marketSvc.BrowseListings(kind, limit)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	listings := make([]any, len(views))
	for i := range views {
		listings[i] = buildListingResponse(&views[i])
	}
	WriteJSON(w, http.StatusOK, listingsResponse{Listings: listings})
}

// buildListingResponse picks the response shape by listing kind.
func buildListingResponse(v *service.ListingView) any {
	if v.Kind == domain.ListingKindSale {
		return buildSaleResponse(v.Sale)
	}
	return buildAuctionResponse(v.Auction)
}

func buildSaleResponse(s *domain.Sale) saleResponse {
	return saleResponse{
		Kind:      string(domain.ListingKindSale),
		Seller:    string(s.Seller),
		AssetID:   string(s.Asset),
		Price:     s.Price,
		CreatedAt: s.CreatedAt.UTC().Format(timeFormat),
	}
}

func buildAuctionResponse(a *domain.Auction) auctionResponse {
	return auctionResponse{
		Kind:            string(domain.ListingKindAuction),
		Seller:          string(a.Seller),
		AssetID:         string(a.Asset),
		ReservePrice:    a.ReservePrice,
		DurationSeconds: int64(a.Duration.Seconds()),
		StartTime:       a.StartTime.UTC().Format(timeFormat),
		EndTime:         a.EndTime().UTC().Format(timeFormat),
	}
}

func buildDealResponse(d *domain.Deal) dealResponse {
	return dealResponse{
		DealID:     d.DealID,
		AssetID:    string(d.Asset),
		Kind:       string(d.Kind),
		Price:      d.Price,
		Fee:        d.Fee,
		Seller:     string(d.Seller),
		Buyer:      string(d.Buyer),
		ExecutedAt: d.ExecutedAt.UTC().Format(timeFormat),
	}
}

// mapMarketError maps domain errors to HTTP responses for market endpoints.
func mapMarketError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	// A post-commit failure means the trade is final but a transfer is
	// still owed; the journal replays it. Surface that distinctly.
	var postCommitErr *domain.PostCommitError
	if errors.As(err, &postCommitErr) {
		WriteError(w, http.StatusInternalServerError, "settlement_failed", err.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrNoSuchListing):
		WriteError(w, http.StatusNotFound, "no_such_listing", err.Error())
	case errors.Is(err, domain.ErrAssetAlreadyListed):
		WriteError(w, http.StatusConflict, "asset_already_listed", err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		WriteError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, domain.ErrNotSeller):
		WriteError(w, http.StatusForbidden, "not_seller", err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_price", err.Error())
	case errors.Is(err, domain.ErrInvalidDuration):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_duration", err.Error())
	case errors.Is(err, domain.ErrInsufficientBid):
		WriteError(w, http.StatusUnprocessableEntity, "insufficient_bid", err.Error())
	case errors.Is(err, domain.ErrInsufficientPayment):
		WriteError(w, http.StatusUnprocessableEntity, "insufficient_payment", err.Error())
	case errors.Is(err, domain.ErrAuctionExpired):
		WriteError(w, http.StatusGone, "auction_expired", err.Error())
	case errors.Is(err, domain.ErrCustodyTransferFailed):
		WriteError(w, http.StatusBadGateway, "custody_transfer_failed", err.Error())
	case errors.Is(err, domain.ErrPaymentTransferFailed):
		WriteError(w, http.StatusBadGateway, "payment_transfer_failed", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
