// Package journal persists settlement intents: transfers the engine has
// committed to (by deleting the listing) but whose external execution
// has not yet been confirmed. An intent is recorded before the listing
// is deleted and resolved only after the transfer succeeds, so that a
// post-commit transfer failure leaves a durable record for replay
// instead of silently losing custody.
package journal

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/rdlucca/escrowd/internal/domain"
)

// ErrIntentNotFound is returned when no intent exists for an ID.
var ErrIntentNotFound = errors.New("intent_not_found")

// IntentKind distinguishes custody transfers from fund movements.
type IntentKind string

const (
	IntentAssetTransfer IntentKind = "asset_transfer"
	IntentPayment       IntentKind = "payment"
)

// Intent is a single owed transfer: an asset owed to a buyer or seller,
// or an amount owed to a seller, the fee pool, or a refunded buyer.
// Executed marks an intent whose transfer completed but whose removal
// from the journal could not be written; replay resolves it without
// executing the transfer a second time.
type Intent struct {
	ID          string          `json:"id"`
	Kind        IntentKind      `json:"kind"`
	Op          string          `json:"op"` // engine operation that created it
	Asset       domain.AssetID  `json:"asset"`
	To          domain.Account  `json:"to"`
	Amount      int64           `json:"amount,omitempty"` // payments only
	Executed    bool            `json:"executed,omitempty"`
	Attempts    uint32          `json:"attempts"`
	CreatedAt   int64           `json:"created_at"` // unix nanos
	LastAttempt int64           `json:"last_attempt,omitempty"`
}

const keyPrefix = "intent/"

// Journal is a pebble-backed store of unresolved intents. Every write
// is synced; an intent present after a crash is by definition owed.
type Journal struct {
	db        *pebble.DB
	closeOnce sync.Once
	closeErr  error
}

// Open opens (or creates) a journal at dir.
func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

// OpenMem opens an ephemeral in-memory journal. Used in tests and when
// no journal path is configured.
func OpenMem() (*Journal, error) {
	db, err := pebble.Open("escrowd-journal", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database. Safe to call more than once;
// shutdown paths may close both explicitly and via defer.
func (j *Journal) Close() error {
	j.closeOnce.Do(func() { j.closeErr = j.db.Close() })
	return j.closeErr
}

// Record durably stores a new intent. Must be called before the
// listing that gives rise to it is deleted from the registry.
func (j *Journal) Record(in *Intent) error {
	if in.CreatedAt == 0 {
		in.CreatedAt = time.Now().UnixNano()
	}
	val, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return j.db.Set(keyFor(in.ID), val, pebble.Sync)
}

// RecordAll durably stores a set of intents in a single synced batch.
// Either every intent is written or none are, so a journal failure
// partway through a settlement cannot leave a partial intent set for
// the replayer to act on.
func (j *Journal) RecordAll(ins []*Intent) error {
	b := j.db.NewBatch()
	defer func() { _ = b.Close() }()

	now := time.Now().UnixNano()
	for _, in := range ins {
		if in.CreatedAt == 0 {
			in.CreatedAt = now
		}
		val, err := json.Marshal(in)
		if err != nil {
			return err
		}
		if err := b.Set(keyFor(in.ID), val, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// MarkExecuted flags an intent whose transfer has completed but whose
// removal from the journal failed. Replay then resolves it without
// re-executing the transfer.
func (j *Journal) MarkExecuted(in *Intent) error {
	in.Executed = true
	val, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return j.db.Set(keyFor(in.ID), val, pebble.Sync)
}

// Resolve removes an intent after its transfer has been confirmed.
func (j *Journal) Resolve(id string) error {
	return j.db.Delete(keyFor(id), pebble.Sync)
}

// MarkAttempt bumps the retry counter and timestamp after a failed
// replay attempt and rewrites the record.
func (j *Journal) MarkAttempt(in *Intent) error {
	in.Attempts++
	in.LastAttempt = time.Now().UnixNano()
	val, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return j.db.Set(keyFor(in.ID), val, pebble.Sync)
}

// Get returns the intent for an ID, or ErrIntentNotFound.
func (j *Journal) Get(id string) (*Intent, error) {
	val, closer, err := j.db.Get(keyFor(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrIntentNotFound
		}
		return nil, err
	}
	defer closer.Close()

	var in Intent
	if err := json.Unmarshal(val, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Unresolved iterates all unresolved intents in key order. The
// callback's error aborts the scan.
func (j *Journal) Unresolved(fn func(*Intent) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "\xff"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var in Intent
		if err := json.Unmarshal(iter.Value(), &in); err != nil {
			return err
		}
		if err := fn(&in); err != nil {
			return err
		}
	}
	return iter.Error()
}

func keyFor(id string) []byte {
	return []byte(keyPrefix + id)
}
