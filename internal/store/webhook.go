package store

import (
	"sync"
	"time"

	"github.com/rdlucca/escrowd/internal/domain"
)

// Webhook represents a subscriber's registration for an event type.
type Webhook struct {
	WebhookID    string
	SubscriberID string
	Event        string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WebhookStore is a thread-safe in-memory store for webhooks.
// Primary index: webhook_id → webhook.
// Secondary indexes: subscriber_id → event → webhook, and
// event → webhook_id → webhook for dispatch.
type WebhookStore struct {
	mu           sync.RWMutex
	webhooks     map[string]*Webhook
	bySubscriber map[string]map[string]*Webhook
	byEvent      map[string]map[string]*Webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		webhooks:     make(map[string]*Webhook),
		bySubscriber: make(map[string]map[string]*Webhook),
		byEvent:      make(map[string]map[string]*Webhook),
	}
}

// Upsert inserts or updates a subscription keyed by (subscriber_id,
// event). If one already exists, the URL and UpdatedAt are refreshed
// and the webhook_id remains stable. Returns true if a new
// subscription was created.
func (s *WebhookStore) Upsert(w *Webhook) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if events, ok := s.bySubscriber[w.SubscriberID]; ok {
		if existing, ok := events[w.Event]; ok {
			if existing.URL != w.URL {
				existing.URL = w.URL
				existing.UpdatedAt = w.UpdatedAt
			}
			return false
		}
	}

	s.webhooks[w.WebhookID] = w

	if s.bySubscriber[w.SubscriberID] == nil {
		s.bySubscriber[w.SubscriberID] = make(map[string]*Webhook)
	}
	s.bySubscriber[w.SubscriberID][w.Event] = w

	if s.byEvent[w.Event] == nil {
		s.byEvent[w.Event] = make(map[string]*Webhook)
	}
	s.byEvent[w.Event][w.WebhookID] = w

	return true
}

// Get retrieves a webhook by ID. It returns
// domain.ErrWebhookNotFound if the webhook does not exist.
func (s *WebhookStore) Get(id string) (*Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.webhooks[id]
	if !ok {
		return nil, domain.ErrWebhookNotFound
	}
	return w, nil
}

// ListBySubscriber returns all webhooks for a subscriber.
// Returns an empty slice if the subscriber has no subscriptions.
func (s *WebhookStore) ListBySubscriber(subscriberID string) []*Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.bySubscriber[subscriberID]
	if len(events) == 0 {
		return []*Webhook{}
	}

	result := make([]*Webhook, 0, len(events))
	for _, w := range events {
		result = append(result, w)
	}
	return result
}

// ListByEvent returns all webhooks subscribed to an event type.
// Used by the dispatcher; returns an empty slice when nobody listens.
func (s *WebhookStore) ListByEvent(event string) []*Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.byEvent[event]
	if len(subs) == 0 {
		return []*Webhook{}
	}

	result := make([]*Webhook, 0, len(subs))
	for _, w := range subs {
		result = append(result, w)
	}
	return result
}

// GetBySubscriberEvent returns the webhook for a specific
// subscriber+event pair, or nil if no subscription exists.
func (s *WebhookStore) GetBySubscriberEvent(subscriberID, event string) *Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.bySubscriber[subscriberID]
	if events == nil {
		return nil
	}
	return events[event]
}

// Delete removes a webhook by ID. It returns
// domain.ErrWebhookNotFound if the webhook does not exist.
// All indexes are cleaned up.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}

	delete(s.webhooks, id)

	if events, ok := s.bySubscriber[w.SubscriberID]; ok {
		delete(events, w.Event)
		if len(events) == 0 {
			delete(s.bySubscriber, w.SubscriberID)
		}
	}
	if subs, ok := s.byEvent[w.Event]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(s.byEvent, w.Event)
		}
	}

	return nil
}
