package service

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/engine"
	"github.com/rdlucca/escrowd/internal/journal"
	"github.com/rdlucca/escrowd/internal/ledger"
	"github.com/rdlucca/escrowd/internal/store"
)

func newTestMarket(t *testing.T) (*MarketService, *ledger.InMemoryOwnership, *ledger.InMemoryPayments) {
	t.Helper()

	jrnl, err := journal.OpenMem()
	if err != nil {
		t.Fatalf("OpenMem: %v", err)
	}
	t.Cleanup(func() { _ = jrnl.Close() })

	owners := ledger.NewInMemoryOwnership()
	payments := ledger.NewInMemoryPayments("escrow")
	listings := store.NewListingStore()
	deals := store.NewDealStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	x := engine.NewExchange(listings, deals, jrnl, owners, payments, nil, logger, engine.Config{
		FeePercent: 2,
		Custodian:  "escrow",
		FeePool:    "feepool",
	})
	return NewMarketService(x, listings, deals), owners, payments
}

func expectValidation(t *testing.T, err error) {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarketService_CreateSaleValidation(t *testing.T) {
	svc, _, _ := newTestMarket(t)

	_, err := svc.CreateSale(CreateSaleRequest{Seller: "bad seller!", AssetID: "asset-1", Price: 100})
	expectValidation(t, err)

	_, err = svc.CreateSale(CreateSaleRequest{Seller: "alice", AssetID: "no spaces", Price: 100})
	expectValidation(t, err)

	_, err = svc.CreateSale(CreateSaleRequest{Seller: "", AssetID: "asset-1", Price: 100})
	expectValidation(t, err)
}

func TestMarketService_CreateSaleDelegates(t *testing.T) {
	svc, owners, _ := newTestMarket(t)
	owners.Mint("asset-1", "alice")

	sale, err := svc.CreateSale(CreateSaleRequest{Seller: "alice", AssetID: "asset-1", Price: 100})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.Seller != "alice" || sale.Price != 100 {
		t.Fatalf("unexpected sale %+v", sale)
	}
}

func TestMarketService_CreateAuctionConvertsDuration(t *testing.T) {
	svc, owners, _ := newTestMarket(t)
	owners.Mint("asset-1", "alice")

	a, err := svc.CreateAuction(CreateAuctionRequest{
		Seller: "alice", AssetID: "asset-1", ReservePrice: 50, DurationSeconds: 90,
	})
	if err != nil {
		t.Fatalf("CreateAuction: %v", err)
	}
	if a.Duration != 90*time.Second {
		t.Fatalf("duration = %v, want 90s", a.Duration)
	}
}

func TestMarketService_BuyValidatesAmount(t *testing.T) {
	svc, _, _ := newTestMarket(t)

	_, err := svc.Buy(BuyRequest{Buyer: "bob", AssetID: "asset-1", PaidAmount: 0})
	expectValidation(t, err)

	_, err = svc.Bid(BidRequest{Bidder: "bob", AssetID: "asset-1", PaidAmount: -5})
	expectValidation(t, err)
}

func TestMarketService_GetListing(t *testing.T) {
	svc, owners, _ := newTestMarket(t)
	owners.Mint("asset-1", "alice")
	owners.Mint("asset-2", "alice")

	if _, err := svc.CreateSale(CreateSaleRequest{Seller: "alice", AssetID: "asset-1", Price: 100}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if _, err := svc.CreateAuction(CreateAuctionRequest{
		Seller: "alice", AssetID: "asset-2", ReservePrice: 50, DurationSeconds: 60,
	}); err != nil {
		t.Fatalf("CreateAuction: %v", err)
	}

	v, err := svc.GetListing("asset-1")
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if v.Kind != domain.ListingKindSale || v.Sale == nil {
		t.Fatalf("unexpected view %+v", v)
	}

	v, err = svc.GetListing("asset-2")
	if err != nil {
		t.Fatalf("GetListing: %v", err)
	}
	if v.Kind != domain.ListingKindAuction || v.Auction == nil {
		t.Fatalf("unexpected view %+v", v)
	}

	_, err = svc.GetListing("asset-3")
	if !errors.Is(err, domain.ErrNoSuchListing) {
		t.Fatalf("expected ErrNoSuchListing, got %v", err)
	}
}

func TestMarketService_BrowseListings(t *testing.T) {
	svc, owners, _ := newTestMarket(t)
	for _, a := range []domain.AssetID{"a", "b", "c"} {
		owners.Mint(a, "alice")
	}
	for i, a := range []string{"a", "b", "c"} {
		if _, err := svc.CreateSale(CreateSaleRequest{Seller: "alice", AssetID: a, Price: int64(300 - i*100)}); err != nil {
			t.Fatalf("CreateSale(%s): %v", a, err)
		}
	}

	views, err := svc.BrowseListings("sale", 0)
	if err != nil {
		t.Fatalf("BrowseListings: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("got %d listings, want 3", len(views))
	}
	// Cheapest first.
	if views[0].Sale.Price != 100 || views[2].Sale.Price != 300 {
		t.Fatalf("listings not price-ordered: %d, %d", views[0].Sale.Price, views[2].Sale.Price)
	}

	if _, err := svc.BrowseListings("sale", 500); err == nil {
		t.Fatal("expected limit validation error")
	}
	if _, err := svc.BrowseListings("bogus", 10); err == nil {
		t.Fatal("expected kind validation error")
	}
}

func TestMarketService_ListDeals(t *testing.T) {
	svc, owners, payments := newTestMarket(t)
	owners.Mint("asset-1", "alice")
	payments.Deposit("bob", 100)

	if _, err := svc.CreateSale(CreateSaleRequest{Seller: "alice", AssetID: "asset-1", Price: 100}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if _, err := svc.Buy(BuyRequest{Buyer: "bob", AssetID: "asset-1", PaidAmount: 100}); err != nil {
		t.Fatalf("Buy: %v", err)
	}

	deals, err := svc.ListDeals("asset-1")
	if err != nil {
		t.Fatalf("ListDeals: %v", err)
	}
	if len(deals) != 1 || deals[0].Buyer != "bob" {
		t.Fatalf("unexpected deals %+v", deals)
	}
}
