package service

import (
	"context"

	"aperture/internal/middleware"
	"aperture/internal/notifications"
)

// notify publishes event and only logs failures; engagement writes never fail on delivery.
func notify(ctx context.Context, n *notifications.Notifier, recipientID uint, event notifications.Event) {
	if err := n.Notify(ctx, recipientID, event); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			"event", event.Type,
			"recipient_id", recipientID,
			"error", err,
		)
	}
}
