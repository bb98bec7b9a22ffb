package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/store"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	domain.EventListingCreated:   true,
	domain.EventListingCancelled: true,
	domain.EventSaleCompleted:    true,
	domain.EventAuctionCompleted: true,
	domain.EventSettlementFailed: true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	SubscriberID string
	URL          string
	Events       []string
}

// WebhookService handles webhook CRUD and event dispatch. It is the
// engine's EventDispatcher: each successful operation produces exactly
// one event, delivered to every subscriber of that event type.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
	logger *slog.Logger
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(webhookStore *store.WebhookStore, timeout time.Duration, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		store:  webhookStore,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Upsert validates the request and creates or updates webhook
// subscriptions. Returns the resulting webhooks, whether any new
// subscriptions were created, and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*store.Webhook, bool, error) {
	if !accountRegex.MatchString(req.SubscriberID) {
		return nil, false, &domain.ValidationError{Message: "subscriber_id must match ^[a-zA-Z0-9:_-]{1,64}$"}
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: listing.created, listing.cancelled, sale.completed, auction.completed, settlement.failed",
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	// Upsert each (subscriber_id, event) pair.
	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*store.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		w := &store.Webhook{
			WebhookID:    uuid.New().String(),
			SubscriberID: req.SubscriberID,
			Event:        event,
			URL:          req.URL,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		created := s.store.Upsert(w)
		if created {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else {
			existing := s.store.GetBySubscriberEvent(req.SubscriberID, event)
			if existing != nil {
				webhooks = append(webhooks, existing)
			}
		}
	}

	return webhooks, anyCreated, nil
}

// List validates the subscriber ID and returns all its subscriptions.
func (s *WebhookService) List(subscriberID string) ([]*store.Webhook, error) {
	if !accountRegex.MatchString(subscriberID) {
		return nil, &domain.ValidationError{Message: "subscriber_id must match ^[a-zA-Z0-9:_-]{1,64}$"}
	}
	return s.store.ListBySubscriber(subscriberID), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// eventPayload is the JSON payload POSTed to subscribers.
type eventPayload struct {
	EventID   string    `json:"event_id"`
	Event     string    `json:"event"`
	Timestamp string    `json:"timestamp"`
	Data      eventData `json:"data"`
}

type eventData struct {
	AssetID         string  `json:"asset_id"`
	Kind            string  `json:"kind,omitempty"`
	Price           int64   `json:"price,omitempty"`
	DurationSeconds *int64  `json:"duration_seconds,omitempty"`
	Buyer           *string `json:"buyer,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}

// DispatchEvent delivers an engine event to every subscriber of its
// type. Delivery is fire-and-forget: one goroutine per subscriber,
// failures are logged and not retried.
func (s *WebhookService) DispatchEvent(e *domain.Event) {
	subs := s.store.ListByEvent(e.Type)
	if len(subs) == 0 {
		return
	}

	data := eventData{
		AssetID: string(e.Asset),
		Kind:    string(e.Kind),
		Price:   e.Price,
		Reason:  e.Reason,
	}
	if e.Duration != nil {
		secs := int64(e.Duration.Seconds())
		data.DurationSeconds = &secs
	}
	if e.Buyer != nil {
		buyer := string(*e.Buyer)
		data.Buyer = &buyer
	}

	payload := eventPayload{
		EventID:   e.EventID,
		Event:     e.Type,
		Timestamp: e.OccurredAt.UTC().Format(time.RFC3339),
		Data:      data,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to encode webhook payload", slog.String("event", e.Type), slog.String("error", err.Error()))
		return
	}

	for _, sub := range subs {
		go s.deliver(sub.URL, e.Type, body)
	}
}

// deliver POSTs the payload to a single subscriber URL.
func (s *WebhookService) deliver(url, eventType string, body []byte) {
	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.Warn("webhook delivery failed",
			slog.String("event", eventType), slog.String("url", url), slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("webhook delivery rejected",
			slog.String("event", eventType), slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
}
