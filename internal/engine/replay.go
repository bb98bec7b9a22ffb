package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/journal"
	"github.com/rdlucca/escrowd/internal/ledger"
)

// Replayer periodically rescans unresolved settlement intents and
// retries the corresponding external transfer: assets still owed to a
// buyer or seller, payments still owed to a seller, the fee pool, or a
// refunded bidder. It is the recovery path for post-commit transfer
// failures and never touches the listing registry.
type Replayer struct {
	interval  time.Duration
	jrnl      *journal.Journal
	owners    ledger.Ownership
	payments  ledger.Payments
	custodian domain.Account
	logger    *slog.Logger
}

// NewReplayer creates a Replayer with the given dependencies.
func NewReplayer(
	interval time.Duration,
	jrnl *journal.Journal,
	owners ledger.Ownership,
	payments ledger.Payments,
	custodian domain.Account,
	logger *slog.Logger,
) *Replayer {
	return &Replayer{
		interval:  interval,
		jrnl:      jrnl,
		owners:    owners,
		payments:  payments,
		custodian: custodian,
		logger:    logger,
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and replays unresolved intents. It stops when ctx is
// cancelled.
func (r *Replayer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick()
			}
		}
	}()
}

// tick collects the unresolved intents, then attempts each outside the
// journal iterator.
func (r *Replayer) tick() {
	var pending []*journal.Intent
	err := r.jrnl.Unresolved(func(in *journal.Intent) error {
		pending = append(pending, in)
		return nil
	})
	if err != nil {
		r.logger.Error("intent scan failed", slog.String("error", err.Error()))
		return
	}

	for _, in := range pending {
		r.attempt(in)
	}
}

// attempt retries a single intent: resolve on success, bump the retry
// counter on failure.
func (r *Replayer) attempt(in *journal.Intent) {
	var err error
	switch {
	case in.Executed:
		// The transfer completed on an earlier attempt; only the
		// journal entry is owed.
	case in.Kind == journal.IntentAssetTransfer:
		// The transfer may have succeeded before the intent could be
		// resolved; treat "recipient already holds it" as done.
		if owner, ownerErr := r.owners.OwnerOf(in.Asset); ownerErr == nil && owner == in.To {
			break
		}
		err = r.owners.Transfer(in.Asset, r.custodian, in.To)
	case in.Kind == journal.IntentPayment:
		err = r.payments.Pay(in.To, in.Amount)
	default:
		r.logger.Error("unknown intent kind", slog.String("intent", in.ID), slog.String("kind", string(in.Kind)))
		return
	}

	if err != nil {
		if markErr := r.jrnl.MarkAttempt(in); markErr != nil {
			r.logger.Error("failed to record replay attempt",
				slog.String("intent", in.ID), slog.String("error", markErr.Error()))
		}
		r.logger.Warn("intent replay failed",
			slog.String("intent", in.ID),
			slog.String("op", in.Op),
			slog.String("asset", string(in.Asset)),
			slog.Uint64("attempts", uint64(in.Attempts)),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := r.jrnl.Resolve(in.ID); err != nil {
		r.logger.Error("failed to resolve replayed intent",
			slog.String("intent", in.ID), slog.String("error", err.Error()))
		return
	}
	r.logger.Info("settlement intent replayed",
		slog.String("intent", in.ID),
		slog.String("op", in.Op),
		slog.String("asset", string(in.Asset)),
	)
}
