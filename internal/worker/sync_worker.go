// Package worker mirrors subscription changes into the Google Sheets
// backup. It consumes AMQP notifications for low latency and sweeps the
// pending sync queue in storage to recover from lost messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"subtrack/internal/amqp"
	"subtrack/internal/sheets"
	"subtrack/internal/storage"
)

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	appender  sheets.SubscriptionAppender
	remover   sheets.SubscriptionRemover
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, appender sheets.SubscriptionAppender, remover sheets.SubscriptionRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleSyncMessage backs up a single subscription announced over AMQP.
// The message carries only the id; the current record comes from storage.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SubscriptionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	sub, err := w.storage.Get(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get subscription from storage: %w", err)
	}

	if err := w.syncToSheets(ctx, sub.ID); err != nil {
		return fmt.Errorf("sync subscription to sheets: %w", err)
	}
	return nil
}

// HandleDeleteMessage removes a subscription's row from the backup sheet.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.SubscriptionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping sheet removal", "id", msg.ID)
		return nil
	}

	if err := w.remover.Remove(ctx, msg.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to remove subscription from sheet",
			"id", msg.ID,
			"error", err)
		return fmt.Errorf("remove subscription from sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, msg.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark deleted subscription as synced",
			"id", msg.ID, "error", err)
		// The removal worked, do not requeue.
	}

	slog.InfoContext(ctx, "Subscription removed from backup sheet", "id", msg.ID)
	return nil
}

// ProcessPending sweeps records still marked pending. This is the backup
// mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending subscriptions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending subscriptions", "count", len(pending))

	for _, p := range pending {
		if p.Deleted {
			if err := w.removePending(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to remove pending subscription",
					"id", p.ID, "error", err)
			}
			continue
		}
		if err := w.syncToSheets(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending subscription",
				"id", p.ID, "error", err)
		}
	}

	return nil
}

// StartupSyncCheck drains a larger pending backlog when the worker boots,
// recovering from missed messages or downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending subscriptions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending subscriptions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending subscriptions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		var err error
		if p.Deleted {
			err = w.removePending(ctx, p.ID)
		} else {
			err = w.syncToSheets(ctx, p.ID)
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process subscription during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) removePending(ctx context.Context, id string) error {
	if w.remover == nil {
		return nil
	}
	if err := w.remover.Remove(ctx, id); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("remove from sheet: %w", err)
	}
	if err := w.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}
	return nil
}

func (w *SyncWorker) syncToSheets(ctx context.Context, id string) error {
	sub, err := w.storage.Get(ctx, id)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("get subscription %s: %w", id, err)
	}

	ref, err := w.appender.Append(ctx, sub)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
		// The append worked, do not fail the operation.
	}

	slog.InfoContext(ctx, "Successfully synced subscription",
		"id", id,
		"sheets_ref", ref,
		"name", sub.Name)

	return nil
}
