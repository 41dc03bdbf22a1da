package sheets

import (
	"context"

	"subtrack/internal/core"
)

// Ports for the backup sheet adapters.
type (
	SubscriptionAppender interface {
		Append(ctx context.Context, s core.Subscription) (rowRef string, err error)
	}

	SubscriptionRemover interface {
		Remove(ctx context.Context, id string) error
	}
)
