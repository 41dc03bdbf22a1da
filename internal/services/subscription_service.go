package services

import (
	"context"
	"fmt"
	"log/slog"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

// Store is the persistence surface the service needs; satisfied by both
// the SQLite repository and the in-memory store.
type Store interface {
	Insert(ctx context.Context, s core.Subscription) error
	Update(ctx context.Context, s core.Subscription) (version int64, err error)
	SoftDelete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (core.Subscription, error)
	List(ctx context.Context) ([]core.Subscription, error)
	ReplaceAll(ctx context.Context, subs []core.Subscription) error
	Close() error
}

// SubscriptionService orchestrates subscription writes across local
// storage and the AMQP backup pipeline. Storage is authoritative: an AMQP
// publish failure is logged, never surfaced to the caller.
type SubscriptionService struct {
	store      Store
	amqpClient *amqp.Client
}

func NewSubscriptionService(store Store, amqpClient *amqp.Client) *SubscriptionService {
	return &SubscriptionService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// Create validates, persists and queues a new subscription for backup.
// A missing id is filled in; the normalized record is returned.
func (s *SubscriptionService) Create(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if sub.ID == "" {
		sub.ID = core.NewID()
	}
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	if err := s.store.Insert(ctx, sub); err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}

	if err := s.publishSync(ctx, sub.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", sub.ID, "error", err)
	}

	return sub, nil
}

// Update replaces an existing subscription's fields and queues it for
// re-sync.
func (s *SubscriptionService) Update(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	version, err := s.store.Update(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription: %w", err)
	}

	if err := s.publishSync(ctx, sub.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", sub.ID, "version", version, "error", err)
	}

	return sub, nil
}

// Delete soft-deletes a subscription and queues its removal from the
// backup sheet.
func (s *SubscriptionService) Delete(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	if err := s.publishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"id", id, "error", err)
	}

	return nil
}

func (s *SubscriptionService) Get(ctx context.Context, id string) (core.Subscription, error) {
	return s.store.Get(ctx, id)
}

func (s *SubscriptionService) List(ctx context.Context) ([]core.Subscription, error) {
	return s.store.List(ctx)
}

// Import replaces the entire collection with the given records and queues
// each for backup.
func (s *SubscriptionService) Import(ctx context.Context, subs []core.Subscription) error {
	if err := s.store.ReplaceAll(ctx, subs); err != nil {
		return fmt.Errorf("import subscriptions: %w", err)
	}

	for _, sub := range subs {
		if err := s.publishSync(ctx, sub.ID, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message for imported subscription",
				"id", sub.ID, "error", err)
		}
	}
	return nil
}

func (s *SubscriptionService) publishSync(ctx context.Context, id string, version int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.amqpClient.PublishSubscriptionSync(ctx, id, version)
}

func (s *SubscriptionService) publishDelete(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.amqpClient.PublishSubscriptionDelete(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *SubscriptionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close subscription service: %v", errs)
	}

	return nil
}
