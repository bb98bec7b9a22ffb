package domain

import (
	"testing"
	"time"
)

func TestAuction_Expired_StrictBoundary(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := &Auction{
		Seller:       "seller-1",
		Asset:        "asset-1",
		ReservePrice: 50,
		Duration:     1000 * time.Millisecond,
		StartTime:    start,
	}

	if a.Expired(start) {
		t.Fatal("auction should be live at start time")
	}
	if a.Expired(start.Add(999 * time.Millisecond)) {
		t.Fatal("auction should be live one unit before the window lapses")
	}
	if !a.Expired(start.Add(1000 * time.Millisecond)) {
		t.Fatal("auction should be expired exactly at start+duration")
	}
	if !a.Expired(start.Add(2 * time.Second)) {
		t.Fatal("auction should be expired after the window")
	}
}

func TestAuction_EndTime(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := &Auction{StartTime: start, Duration: time.Hour}

	want := start.Add(time.Hour)
	if !a.EndTime().Equal(want) {
		t.Fatalf("EndTime() = %v, want %v", a.EndTime(), want)
	}
}
