package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/pkg/apperr"
	"github.com/shashiranjanraj/giftbid/pkg/collection"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/metrics"
)

// NoShowReviewDelay is how long after an auction's end a seller must wait
// before reviewing a winner who never ordered.
const NoShowReviewDelay = 2 * 24 * time.Hour

// ReviewsService records reviews and finalizes or reopens listings.
type ReviewsService struct {
	store *store.Store
	sink  *notify.Sink
	now   func() time.Time
}

func NewReviewsService(st *store.Store, sink *notify.Sink) *ReviewsService {
	return &ReviewsService{store: st, sink: sink, now: time.Now}
}

// Submit records writerEmail's review on the listing's counterparty.
//
// With an order: either participant reviews the other once the fulfillment
// window has passed; each side reviews exactly once, and the second review
// finalizes the listing to complete.
//
// Without an order: the seller reviews a no-show redeemer once the grace
// period after the auction's end has passed, and the listing reopens.
func (s *ReviewsService) Submit(ctx context.Context, listingID, writerEmail, message string, rating int, callerSubject string) error {
	if rating < 1 || rating > 5 {
		return apperr.New(apperr.KindInvalidInput, "rating must be between 1 and 5")
	}

	writer, err := s.store.Users.Get(ctx, writerEmail)
	if err != nil {
		return userErr(err, writerEmail)
	}
	if writer.UserID != callerSubject {
		return apperr.New(apperr.KindUnauthorized, "caller does not own the reviewing account")
	}

	listing, err := s.store.Listings.Get(ctx, listingID)
	if err != nil {
		return listingErr(err, listingID)
	}

	order, err := s.store.Orders.Get(ctx, models.OrderID(listingID))
	switch {
	case err == nil:
		return s.submitWithOrder(ctx, listing, order, writer, message, rating)
	case errors.Is(err, store.ErrNotFound):
		return s.submitNoShow(ctx, listing, writer, message, rating)
	default:
		return fmt.Errorf("load order for %s: %w", listingID, err)
	}
}

func (s *ReviewsService) submitWithOrder(ctx context.Context, listing *models.Listing, order *models.Order, writer *models.User, message string, rating int) error {
	log := logger.WithCtx(ctx)

	var reviewed string
	var flipSeller bool // which flag SetReviewed flips
	switch writer.Email {
	case order.SellerEmail:
		reviewed = order.RedeemerEmail
		flipSeller = false
	case order.RedeemerEmail:
		reviewed = order.SellerEmail
		flipSeller = true
	default:
		return apperr.New(apperr.KindUnauthorized, "only the order's participants may review")
	}

	if s.now().Before(order.ExpirationDate) {
		return apperr.New(apperr.KindConflict, "the review window has not opened yet")
	}

	// The conditional flip is the once-only guard for this writer's side.
	// Finalization reads the post-flip order: the snapshot loaded above may
	// predate the counterpart's flip when both sides review at once.
	updated, err := s.store.Orders.SetReviewed(ctx, order.ID, flipSeller)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.StoreConflicts.WithLabelValues("orders").Inc()
			return apperr.Wrap(apperr.KindConflict, "you already reviewed this order", err)
		}
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "order not found")
		}
		return fmt.Errorf("flip review flag: %w", err)
	}

	if err := s.appendReview(ctx, reviewed, writer, message, rating); err != nil {
		return err
	}

	if updated.BothReviewed() {
		status := models.StatusComplete
		err := s.store.Listings.Transition(ctx, listing.ID,
			store.TransitionCondition{From: []models.Status{models.StatusOrdered}},
			store.ListingPatch{Status: &status},
		)
		if err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("finalize listing: %w", err)
		}
		log.Info("listing finalized", "listing_id", listing.ID)
	}

	metrics.ReviewsWritten.WithLabelValues("order").Inc()
	s.sink.Notify(ctx, reviewed,
		fmt.Sprintf("User %s reviewed you.", writer.Name), "/account")
	return nil
}

// submitNoShow handles the seller reviewing a winner who never placed an
// order. The listing reopens and the winner loses the redemption.
func (s *ReviewsService) submitNoShow(ctx context.Context, listing *models.Listing, writer *models.User, message string, rating int) error {
	log := logger.WithCtx(ctx)

	if writer.Email != listing.SellerEmail {
		return apperr.New(apperr.KindUnauthorized, "only the seller may review without an order")
	}
	reviewed := listing.RedeemerEmail
	if reviewed == "" {
		return apperr.New(apperr.KindConflict, "the listing has no redeemer to review")
	}

	now := s.now()
	if listing.EndDate.IsZero() || now.Sub(listing.EndDate) <= NoShowReviewDelay {
		return apperr.New(apperr.KindConflict, "the no-show review period has not opened yet")
	}

	// The conditional reopen claims the review; losing it means someone else
	// (a concurrent review, a refusal, an order) settled the listing first.
	err := reopenListing(ctx, s.store, listing,
		[]models.Status{models.StatusRedeemed}, now)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.StoreConflicts.WithLabelValues("listings").Inc()
			return apperr.Wrap(apperr.KindConflict, "the listing changed while reviewing", err)
		}
		return fmt.Errorf("reopen listing: %w", err)
	}

	if err := s.store.Users.RemoveRedeemedID(ctx, reviewed, listing.ID); err != nil {
		log.Error("review: unlink redeemed id failed", "redeemer", reviewed, "error", err)
	}

	if err := s.appendReview(ctx, reviewed, writer, message, rating); err != nil {
		return err
	}

	metrics.ReviewsWritten.WithLabelValues("no_order").Inc()
	s.sink.Notify(ctx, reviewed,
		fmt.Sprintf("User %s reviewed you.", writer.Name), "/account")
	s.sink.ListingChanged(listing.ID, listing.Kind)

	log.Info("no-show review recorded", "listing_id", listing.ID, "reviewed", reviewed)
	return nil
}

// appendReview stores the review on the reviewed user together with their
// recomputed average rating, rounded to one decimal.
func (s *ReviewsService) appendReview(ctx context.Context, reviewedEmail string, writer *models.User, message string, rating int) error {
	reviewed, err := s.store.Users.Get(ctx, reviewedEmail)
	if err != nil {
		return userErr(err, reviewedEmail)
	}

	review := models.Review{
		Message:     message,
		Rating:      rating,
		WriterEmail: writer.Email,
		WriterName:  writer.Name,
	}

	total := collection.Sum(reviewed.Reviews, func(r models.Review) float64 {
		return float64(r.Rating)
	}) + float64(rating)
	average := math.Round(total/float64(len(reviewed.Reviews)+1)*10) / 10

	if err := s.store.Users.AppendReview(ctx, reviewedEmail, review, average); err != nil {
		return fmt.Errorf("append review to %s: %w", reviewedEmail, err)
	}
	return nil
}
