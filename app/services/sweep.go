package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/metrics"
	"github.com/shashiranjanraj/giftbid/pkg/workerpool"
)

// SweepService closes expired auctions. Each pass scans for auctions that are
// still available past their end date and settles every one independently:
// a failure on one listing never blocks the rest, and the conditional
// transition makes re-running a pass over the same listing a no-op.
type SweepService struct {
	store *store.Store
	sink  *notify.Sink
	pool  *workerpool.Pool
	now   func() time.Time
}

func NewSweepService(st *store.Store, sink *notify.Sink, pool *workerpool.Pool) *SweepService {
	return &SweepService{store: st, sink: sink, pool: pool, now: time.Now}
}

// Run executes one sweep pass. Safe to call concurrently with bidders: a
// last-second bid that extends the auction makes the close transition lose
// its condition, and the listing is simply picked up by a later pass.
func (s *SweepService) Run(ctx context.Context) error {
	defer metrics.ObserveSweep(time.Now())
	log := logger.WithCtx(ctx)

	now := s.now()
	expired, err := s.store.Listings.Expired(ctx, now)
	if err != nil {
		return fmt.Errorf("sweep: scan expired: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}
	log.Info("sweep: pass started", "expired", len(expired))

	var wg sync.WaitGroup
	for _, l := range expired {
		listing := l
		wg.Add(1)
		task := func() {
			defer wg.Done()
			s.settle(ctx, listing, now)
		}
		if err := s.pool.SubmitWait(task); err != nil {
			wg.Done()
			log.Warn("sweep: pool rejected task", "listing_id", listing.ID, "error", err)
		}
	}
	wg.Wait()
	return nil
}

// settle closes one expired auction: resolve to the top bidder when bids
// exist, renew for another duration when the ledger is empty.
func (s *SweepService) settle(ctx context.Context, l models.Listing, now time.Time) {
	log := logger.WithCtx(ctx)

	top, hasBids := l.TopBid()
	if !hasBids {
		s.renew(ctx, l, now)
		return
	}

	status := models.StatusRedeemed
	winner := top.BidderEmail
	endAt := l.EndDate
	// Pinning the end date makes a concurrent anti-snipe extension fail this
	// write instead of crowning a stale winner.
	err := s.store.Listings.Transition(ctx, l.ID,
		store.TransitionCondition{
			From:      []models.Status{models.StatusAvailable},
			EndDateAt: &endAt,
		},
		store.ListingPatch{Status: &status, RedeemerEmail: &winner},
	)
	if err != nil {
		// Lost to a concurrent bid extension or an earlier pass.
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
			metrics.SweepListings.WithLabelValues("skipped").Inc()
			log.Info("sweep: close skipped", "listing_id", l.ID, "error", err)
			return
		}
		metrics.SweepListings.WithLabelValues("skipped").Inc()
		log.Error("sweep: close failed", "listing_id", l.ID, "error", err)
		return
	}

	if err := s.store.Users.AppendRedeemedID(ctx, winner, l.ID); err != nil {
		log.Error("sweep: record win failed", "listing_id", l.ID, "winner", winner, "error", err)
	}

	s.sink.Notify(ctx, l.SellerEmail,
		fmt.Sprintf("Your auction %s has ended.", l.Name), "posts")
	s.sink.Notify(ctx, winner,
		fmt.Sprintf("You have won the auction for %s.", l.Name), "/aquisitions")
	s.sink.ListingChanged(l.ID, l.Kind)

	metrics.SweepListings.WithLabelValues("resolved").Inc()
	log.Info("sweep: auction resolved",
		"listing_id", l.ID, "winner", winner, "amount", top.Amount)
}

// renew restarts an auction that expired without a single bid.
func (s *SweepService) renew(ctx context.Context, l models.Listing, now time.Time) {
	log := logger.WithCtx(ctx)

	duration := l.DurationDays
	if duration <= 0 {
		duration = models.DefaultAuctionDays
	}
	newEnd := now.Add(time.Duration(duration) * 24 * time.Hour)

	endAt := l.EndDate
	err := s.store.Listings.Transition(ctx, l.ID,
		store.TransitionCondition{
			From:      []models.Status{models.StatusAvailable},
			EndDateAt: &endAt,
		},
		store.ListingPatch{ListingDate: &now, EndDate: &newEnd},
	)
	if err != nil {
		metrics.SweepListings.WithLabelValues("skipped").Inc()
		log.Info("sweep: renew skipped", "listing_id", l.ID, "error", err)
		return
	}

	s.sink.Notify(ctx, l.SellerEmail,
		fmt.Sprintf("Auction %s has ended and have been automatically renewed.", l.Name),
		"/posts")

	metrics.SweepListings.WithLabelValues("renewed").Inc()
	log.Info("sweep: auction renewed", "listing_id", l.ID, "until", newEnd)
}
