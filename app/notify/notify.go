// Package notify fans a lifecycle event out to the people and screens that
// care about it: a notification appended to the recipient's user record, and
// a listing-change frame broadcast to connected websocket clients so open
// pages refresh without polling.
package notify

import (
	"context"
	"encoding/json"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/pkg/event"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/metrics"
	"github.com/shashiranjanraj/giftbid/pkg/ws"
)

// Feed is the websocket hub streaming listing-change frames.
// internal/server starts its Run loop at boot.
var Feed = ws.NewHub()

// ListingChange is the frame broadcast when a listing's visible state moves
// (status between available/redeemed, or the bid list).
type ListingChange struct {
	ListingID string      `json:"listingID"`
	Kind      models.Kind `json:"type"`
}

// Sink delivers notifications and change broadcasts. Services hold one and
// never talk to the hub or the user collection directly.
type Sink struct {
	users store.Users
}

func NewSink(users store.Users) *Sink {
	return &Sink{users: users}
}

// Notify appends a notification to the recipient's user record. Delivery is
// best-effort: a failure is logged, never surfaced to the caller, because the
// state transition that triggered it has already committed.
func (s *Sink) Notify(ctx context.Context, email, message, redirect string) {
	n := models.Notification{Message: message, Redirect: redirect}
	if err := s.users.AppendNotification(ctx, email, n); err != nil {
		logger.WithCtx(ctx).Warn("notify: append failed",
			"email", email, "error", err)
	}
}

// ListingChanged broadcasts a change frame for the listing and fires the
// listing.changed event for in-process listeners (cache invalidation).
// Called synchronously by whichever component performed the transition.
func (s *Sink) ListingChanged(listingID string, kind models.Kind) {
	change := ListingChange{ListingID: listingID, Kind: kind}
	event.Fire(event.ListingChanged, change)

	frame, err := json.Marshal(change)
	if err != nil {
		return
	}
	select {
	case Feed.Broadcast <- frame:
		metrics.PushEvents.Inc()
	default:
		logger.Warn("notify: feed buffer full, frame dropped", "listing_id", listingID)
	}
}
