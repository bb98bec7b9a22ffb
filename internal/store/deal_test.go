package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/rdlucca/escrowd/internal/domain"
)

func TestDealStore_Append_and_GetByAsset(t *testing.T) {
	s := NewDealStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.Append(&domain.Deal{
			DealID:     fmt.Sprintf("deal-%d", i),
			Asset:      "asset-1",
			Kind:       domain.ListingKindSale,
			Price:      100,
			Fee:        2,
			Seller:     "seller-1",
			Buyer:      "buyer-1",
			ExecutedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	deals := s.GetByAsset("asset-1")
	if len(deals) != 3 {
		t.Fatalf("expected 3 deals, got %d", len(deals))
	}
	for i := 0; i < len(deals)-1; i++ {
		if deals[i].ExecutedAt.After(deals[i+1].ExecutedAt) {
			t.Fatalf("deals not chronological at index %d", i)
		}
	}
}

func TestDealStore_GetByAsset_Empty(t *testing.T) {
	s := NewDealStore()

	deals := s.GetByAsset("no-such-asset")
	if deals == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(deals) != 0 {
		t.Fatalf("expected 0 deals, got %d", len(deals))
	}
}

func TestDealStore_GetByAsset_ReturnsCopy(t *testing.T) {
	s := NewDealStore()
	s.Append(&domain.Deal{DealID: "deal-1", Asset: "asset-1"})

	deals := s.GetByAsset("asset-1")
	deals[0] = nil

	again := s.GetByAsset("asset-1")
	if again[0] == nil || again[0].DealID != "deal-1" {
		t.Fatal("mutating the returned slice should not affect the store")
	}
}
