package engine

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/journal"
)

func newTestReplayer(f *fixture) *Replayer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReplayer(time.Second, f.jrnl.Journal, f.owners, f.payments, custodian, logger)
}

func TestReplayer_SettlesOwedPayments(t *testing.T) {
	f := newFixture(t, 2)
	f.owners.Mint("asset-A", "alice")
	f.payments.Deposit("bob", 100)

	if _, err := f.x.CreateSale("alice", "asset-A", 100); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	// Outbound payments fail mid-settlement, leaving owed intents.
	f.payments.setFailPay(true)
	_, err := f.x.Buy("bob", "asset-A", 100)
	if !errors.Is(err, domain.ErrPaymentTransferFailed) {
		t.Fatalf("expected payment failure, got %v", err)
	}
	if n := f.unresolvedCount(t); n != 2 {
		t.Fatalf("expected 2 unresolved intents, got %d", n)
	}

	r := newTestReplayer(f)

	// While the wire is still down, a tick bumps retry counters but
	// resolves nothing.
	r.tick()
	if n := f.unresolvedCount(t); n != 2 {
		t.Fatalf("expected 2 unresolved intents after failed tick, got %d", n)
	}
	var attempts uint32
	_ = f.jrnl.Unresolved(func(in *journal.Intent) error {
		attempts += in.Attempts
		return nil
	})
	if attempts == 0 {
		t.Fatal("failed tick should record attempts")
	}

	// Wire recovers: the next tick pays out and clears the journal.
	f.payments.setFailPay(false)
	r.tick()

	if n := f.unresolvedCount(t); n != 0 {
		t.Fatalf("expected 0 unresolved intents, got %d", n)
	}
	if got := f.payments.Balance("alice"); got != 98 {
		t.Fatalf("seller balance = %d, want 98", got)
	}
	if got := f.payments.Balance(feePool); got != 2 {
		t.Fatalf("fee pool balance = %d, want 2", got)
	}
}

func TestReplayer_AssetIntentAlreadyExecuted(t *testing.T) {
	f := newFixture(t, 2)
	f.owners.Mint("asset-A", "bob") // bob already holds the asset

	in := &journal.Intent{
		ID:    "intent-1",
		Kind:  journal.IntentAssetTransfer,
		Op:    "buy",
		Asset: "asset-A",
		To:    "bob",
	}
	if err := f.jrnl.Record(in); err != nil {
		t.Fatalf("Record: %v", err)
	}

	r := newTestReplayer(f)
	r.tick()

	// The recipient already holds the asset, so the intent resolves
	// without a transfer.
	if n := f.unresolvedCount(t); n != 0 {
		t.Fatalf("expected 0 unresolved intents, got %d", n)
	}
	owner, _ := f.owners.OwnerOf("asset-A")
	if owner != "bob" {
		t.Fatalf("owner should remain bob, got %s", owner)
	}
}

func TestReplayer_ExecutedPaymentNotPaidTwice(t *testing.T) {
	f := newFixture(t, 2)
	f.payments.Deposit(custodian, 100) // held balance could cover a second payout

	// A payment whose transfer completed but whose resolution was lost.
	in := &journal.Intent{
		ID:       "intent-1",
		Kind:     journal.IntentPayment,
		Op:       "buy",
		Asset:    "asset-A",
		To:       "alice",
		Amount:   98,
		Executed: true,
	}
	if err := f.jrnl.Record(in); err != nil {
		t.Fatalf("Record: %v", err)
	}

	r := newTestReplayer(f)
	r.tick()

	if n := f.unresolvedCount(t); n != 0 {
		t.Fatalf("expected 0 unresolved intents, got %d", n)
	}
	if got := f.payments.Balance("alice"); got != 0 {
		t.Fatalf("executed payment must not be paid again, alice got %d", got)
	}
}

func TestReplayer_RetriesAssetTransfer(t *testing.T) {
	f := newFixture(t, 2)
	f.owners.Mint("asset-A", custodian) // stuck in escrow

	in := &journal.Intent{
		ID:    "intent-1",
		Kind:  journal.IntentAssetTransfer,
		Op:    "cancelAuction",
		Asset: "asset-A",
		To:    "alice",
	}
	if err := f.jrnl.Record(in); err != nil {
		t.Fatalf("Record: %v", err)
	}

	r := newTestReplayer(f)
	r.tick()

	if n := f.unresolvedCount(t); n != 0 {
		t.Fatalf("expected 0 unresolved intents, got %d", n)
	}
	owner, _ := f.owners.OwnerOf("asset-A")
	if owner != "alice" {
		t.Fatalf("asset should be returned to alice, owner is %s", owner)
	}
}
