package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/journal"
	"github.com/rdlucca/escrowd/internal/ledger"
	"github.com/rdlucca/escrowd/internal/store"
)

// EventDispatcher is an interface for publishing observable events
// from the engine layer without depending on the service layer
// directly. Dispatch must not block on network I/O.
type EventDispatcher interface {
	DispatchEvent(e *domain.Event)
}

// IntentJournal is the engine's write surface on the settlement intent
// journal. RecordAll must be atomic: either every intent in the set is
// durably stored or none are.
type IntentJournal interface {
	Record(in *journal.Intent) error
	RecordAll(ins []*journal.Intent) error
	MarkExecuted(in *journal.Intent) error
	Resolve(id string) error
}

// Config carries the engine's process-wide parameters. FeePercent is
// set once at construction and immutable thereafter.
type Config struct {
	FeePercent int64
	Custodian  domain.Account // account holding assets in custody
	FeePool    domain.Account // account retaining marketplace fees
	Now        func() time.Time
}

// Exchange implements the escrow state machine per asset: assets enter
// custody through CreateSale/CreateAuction, leave through Buy, Bid, or
// CancelAuction, and every terminal transition consumes the listing
// exactly once.
//
// Each entry point runs under the asset's mutex: validate, mutate the
// registry, perform external transfers, emit the event. The listing is
// always taken from the registry before any outbound transfer is
// issued, so a re-entrant or concurrent call can never re-consume it.
type Exchange struct {
	listings *store.ListingStore
	deals    *store.DealStore
	jrnl     IntentJournal
	owners   ledger.Ownership
	payments ledger.Payments
	events   EventDispatcher
	logger   *slog.Logger

	feePercent int64
	custodian  domain.Account
	feePool    domain.Account
	now        func() time.Time
	locks      *assetLocks
}

// NewExchange creates an Exchange with the given collaborators.
// cfg.Now defaults to time.Now.
func NewExchange(
	listings *store.ListingStore,
	deals *store.DealStore,
	jrnl IntentJournal,
	owners ledger.Ownership,
	payments ledger.Payments,
	events EventDispatcher,
	logger *slog.Logger,
	cfg Config,
) *Exchange {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Exchange{
		listings:   listings,
		deals:      deals,
		jrnl:       jrnl,
		owners:     owners,
		payments:   payments,
		events:     events,
		logger:     logger,
		feePercent: cfg.FeePercent,
		custodian:  cfg.Custodian,
		feePool:    cfg.FeePool,
		now:        now,
		locks:      newAssetLocks(),
	}
}

// CreateSale lists an asset at a fixed price and moves it into engine
// custody. The caller must be the asset's current owner of record.
func (x *Exchange) CreateSale(seller domain.Account, asset domain.AssetID, price int64) (*domain.Sale, error) {
	mu := x.locks.get(asset)
	mu.Lock()
	defer mu.Unlock()

	if price <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if x.listings.Has(asset) {
		return nil, domain.ErrAssetAlreadyListed
	}
	owner, err := x.owners.OwnerOf(asset)
	if err != nil || owner != seller {
		return nil, domain.ErrNotOwner
	}

	// Custody transfers to the engine atomically with listing creation.
	if err := x.owners.Transfer(asset, seller, x.custodian); err != nil {
		x.logger.Warn("custody transfer into escrow failed",
			slog.String("asset", string(asset)), slog.String("error", err.Error()))
		return nil, domain.ErrCustodyTransferFailed
	}

	sale := &domain.Sale{
		Seller:    seller,
		Asset:     asset,
		Price:     price,
		CreatedAt: x.now(),
	}
	if err := x.listings.PutSale(sale); err != nil {
		return nil, err
	}

	x.emit(&domain.Event{
		Type:  domain.EventListingCreated,
		Asset: asset,
		Kind:  domain.ListingKindSale,
		Price: price,
	})
	return sale, nil
}

// CreateAuction lists an asset for a timed first-bid-wins auction and
// moves it into engine custody. The active window starts now and lasts
// for duration.
func (x *Exchange) CreateAuction(seller domain.Account, asset domain.AssetID, reservePrice int64, duration time.Duration) (*domain.Auction, error) {
	mu := x.locks.get(asset)
	mu.Lock()
	defer mu.Unlock()

	if reservePrice <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if duration <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	if x.listings.Has(asset) {
		return nil, domain.ErrAssetAlreadyListed
	}
	owner, err := x.owners.OwnerOf(asset)
	if err != nil || owner != seller {
		return nil, domain.ErrNotOwner
	}

	if err := x.owners.Transfer(asset, seller, x.custodian); err != nil {
		x.logger.Warn("custody transfer into escrow failed",
			slog.String("asset", string(asset)), slog.String("error", err.Error()))
		return nil, domain.ErrCustodyTransferFailed
	}

	auction := &domain.Auction{
		Seller:       seller,
		Asset:        asset,
		ReservePrice: reservePrice,
		Duration:     duration,
		StartTime:    x.now(),
	}
	if err := x.listings.PutAuction(auction); err != nil {
		return nil, err
	}

	d := duration
	x.emit(&domain.Event{
		Type:     domain.EventListingCreated,
		Asset:    asset,
		Kind:     domain.ListingKindAuction,
		Price:    reservePrice,
		Duration: &d,
	})
	return auction, nil
}

// CancelAuction removes an auction and returns custody to the seller.
// Cancellation is allowed at any point, even after the window has
// lapsed, as long as nobody has bid.
func (x *Exchange) CancelAuction(caller domain.Account, asset domain.AssetID) error {
	mu := x.locks.get(asset)
	mu.Lock()
	defer mu.Unlock()

	auction, err := x.listings.GetAuction(asset)
	if err != nil {
		return err
	}
	if auction.Seller != caller {
		return domain.ErrNotSeller
	}

	intent := &journal.Intent{
		ID:    uuid.New().String(),
		Kind:  journal.IntentAssetTransfer,
		Op:    "cancelAuction",
		Asset: asset,
		To:    auction.Seller,
	}
	if err := x.jrnl.Record(intent); err != nil {
		return err
	}

	if _, err := x.listings.TakeAuction(asset); err != nil {
		return err
	}

	if err := x.owners.Transfer(asset, x.custodian, auction.Seller); err != nil {
		return x.postCommitFailure("cancelAuction", asset, domain.ErrCustodyTransferFailed, err)
	}
	x.resolve(intent)

	x.emit(&domain.Event{
		Type:  domain.EventListingCancelled,
		Asset: asset,
		Kind:  domain.ListingKindAuction,
		Price: auction.ReservePrice,
	})
	return nil
}

// Buy completes a fixed-price sale: the buyer's payment is collected,
// the sale entry is consumed, the asset moves to the buyer, and the
// price is split between seller and fee pool with any overpayment
// refunded.
func (x *Exchange) Buy(buyer domain.Account, asset domain.AssetID, paid int64) (*domain.Deal, error) {
	mu := x.locks.get(asset)
	mu.Lock()
	defer mu.Unlock()

	sale, err := x.listings.GetSale(asset)
	if err != nil {
		return nil, err
	}
	if paid < sale.Price {
		return nil, domain.ErrInsufficientPayment
	}

	if err := x.payments.Collect(buyer, paid); err != nil {
		x.logger.Warn("payment collection failed",
			slog.String("asset", string(asset)), slog.String("error", err.Error()))
		return nil, domain.ErrPaymentTransferFailed
	}

	return x.settle("buy", domain.ListingKindSale, asset, sale.Seller, buyer, sale.Price, paid)
}

// Bid settles an auction with the first qualifying bid: this is not a
// running-highest-bid mechanism. The bid must arrive strictly before
// startTime+duration and meet the reserve price; the split is computed
// off the reserve price, with the excess refunded to the bidder.
func (x *Exchange) Bid(bidder domain.Account, asset domain.AssetID, paid int64) (*domain.Deal, error) {
	mu := x.locks.get(asset)
	mu.Lock()
	defer mu.Unlock()

	auction, err := x.listings.GetAuction(asset)
	if err != nil {
		return nil, err
	}
	if auction.Expired(x.now()) {
		return nil, domain.ErrAuctionExpired
	}
	if paid < auction.ReservePrice {
		return nil, domain.ErrInsufficientBid
	}

	if err := x.payments.Collect(bidder, paid); err != nil {
		x.logger.Warn("payment collection failed",
			slog.String("asset", string(asset)), slog.String("error", err.Error()))
		return nil, domain.ErrPaymentTransferFailed
	}

	return x.settle("bid", domain.ListingKindAuction, asset, auction.Seller, bidder, auction.ReservePrice, paid)
}

// settle is the shared terminal transition for Buy and Bid. The caller
// has already validated preconditions and collected the payment; the
// asset's mutex is held.
//
// The intent set is recorded atomically before the listing is taken,
// the listing is taken before any outbound transfer, and each intent is
// resolved only after its transfer is confirmed. A transfer failure
// after the listing is taken is a post-commit failure: the deal stands,
// the listing stays consumed, and the remaining intents stay in the
// journal for the replayer.
func (x *Exchange) settle(op string, kind domain.ListingKind, asset domain.AssetID, seller, buyer domain.Account, price, paid int64) (*domain.Deal, error) {
	split := domain.SplitPayment(price, paid, x.feePercent)

	assetIntent := &journal.Intent{
		ID:    uuid.New().String(),
		Kind:  journal.IntentAssetTransfer,
		Op:    op,
		Asset: asset,
		To:    buyer,
	}
	payIntents := []*journal.Intent{
		{ID: uuid.New().String(), Kind: journal.IntentPayment, Op: op, Asset: asset, To: seller, Amount: split.Seller},
	}
	if split.Fee > 0 {
		payIntents = append(payIntents, &journal.Intent{
			ID: uuid.New().String(), Kind: journal.IntentPayment, Op: op, Asset: asset, To: x.feePool, Amount: split.Fee,
		})
	}
	if split.Refund > 0 {
		payIntents = append(payIntents, &journal.Intent{
			ID: uuid.New().String(), Kind: journal.IntentPayment, Op: op, Asset: asset, To: buyer, Amount: split.Refund,
		})
	}

	// The intent set is journaled in one atomic batch: a failure here
	// writes nothing, so the operation can abort as a full no-op with
	// the collected payment returned and the listing intact.
	if err := x.jrnl.RecordAll(append([]*journal.Intent{assetIntent}, payIntents...)); err != nil {
		if payErr := x.payments.Pay(buyer, paid); payErr != nil {
			x.logger.Error("failed to return collected payment",
				slog.String("asset", string(asset)), slog.String("error", payErr.Error()))
		}
		return nil, err
	}

	// Point of no return: the listing is consumed before any outbound
	// transfer so no second buy/bid can ever be processed.
	var takeErr error
	if kind == domain.ListingKindSale {
		_, takeErr = x.listings.TakeSale(asset)
	} else {
		_, takeErr = x.listings.TakeAuction(asset)
	}
	if takeErr != nil {
		return nil, takeErr
	}

	// The trade is final once the listing is consumed: record and
	// announce it now, so the audit trail carries the deal even when an
	// outbound transfer below fails and settles later through replay.
	deal := &domain.Deal{
		DealID:     uuid.New().String(),
		Asset:      asset,
		Kind:       kind,
		Price:      price,
		Fee:        split.Fee,
		Seller:     seller,
		Buyer:      buyer,
		ExecutedAt: x.now(),
	}
	x.deals.Append(deal)

	completedType := domain.EventSaleCompleted
	if kind == domain.ListingKindAuction {
		completedType = domain.EventAuctionCompleted
	}
	buyerCopy := buyer
	x.emit(&domain.Event{
		Type:  completedType,
		Asset: asset,
		Kind:  kind,
		Price: price,
		Buyer: &buyerCopy,
	})

	if err := x.owners.Transfer(asset, x.custodian, buyer); err != nil {
		return nil, x.postCommitFailure(op, asset, domain.ErrCustodyTransferFailed, err)
	}
	x.resolve(assetIntent)

	for _, in := range payIntents {
		if err := x.payments.Pay(in.To, in.Amount); err != nil {
			return nil, x.postCommitFailure(op, asset, domain.ErrPaymentTransferFailed, err)
		}
		x.resolve(in)
	}
	return deal, nil
}

// postCommitFailure logs and surfaces a transfer failure that occurred
// after the listing was consumed. The unresolved intents remain in the
// journal for the replayer; the listing is not restored.
func (x *Exchange) postCommitFailure(op string, asset domain.AssetID, sentinel, cause error) error {
	x.logger.Error("post-commit transfer failed, intent left for replay",
		slog.String("op", op),
		slog.String("asset", string(asset)),
		slog.String("error", cause.Error()),
	)
	x.emit(&domain.Event{
		Type:   domain.EventSettlementFailed,
		Asset:  asset,
		Reason: sentinel.Error(),
	})
	return &domain.PostCommitError{Op: op, Asset: asset, Err: sentinel}
}

// resolve clears a confirmed intent. A failure to clear does not fail
// the operation: the transfer did happen, so the lingering intent is
// flagged executed and the replayer resolves it without moving anything
// a second time.
func (x *Exchange) resolve(in *journal.Intent) {
	if err := x.jrnl.Resolve(in.ID); err != nil {
		x.logger.Warn("failed to resolve settlement intent",
			slog.String("intent", in.ID), slog.String("error", err.Error()))
		if markErr := x.jrnl.MarkExecuted(in); markErr != nil {
			x.logger.Error("failed to flag executed intent",
				slog.String("intent", in.ID), slog.String("error", markErr.Error()))
		}
	}
}

// emit publishes an event exactly once for a successful operation.
func (x *Exchange) emit(e *domain.Event) {
	if x.events == nil {
		return
	}
	e.EventID = uuid.New().String()
	e.OccurredAt = x.now()
	x.events.DispatchEvent(e)
}
