// Package services holds the listing lifecycle logic. Every status mutation
// funnels into a single conditional store write that re-checks its
// precondition at write time, so concurrent callers race safely: the first
// writer wins and the loser gets apperr.Conflict.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/pkg/apperr"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/metrics"
)

// SnipeWindow is the tail of an auction during which an accepted bid pushes
// the end date out to now + SnipeWindow, giving others time to respond.
const SnipeWindow = 5 * time.Minute

// BiddingService accepts bids against auction listings.
type BiddingService struct {
	store *store.Store
	sink  *notify.Sink
	now   func() time.Time
}

func NewBiddingService(st *store.Store, sink *notify.Sink) *BiddingService {
	return &BiddingService{store: st, sink: sink, now: time.Now}
}

// PlaceBid validates and records a bid by bidderEmail on the given auction.
// callerSubject is the verified identity-provider subject from the token; it
// must match the subject bound to the bidder's account.
//
// The accepted bid is prepended to the ledger in one conditional write that
// also re-checks the listing is still available and the top bid unchanged.
func (s *BiddingService) PlaceBid(ctx context.Context, listingID, bidderEmail string, amount float64, callerSubject string) (*models.Bid, error) {
	log := logger.WithCtx(ctx)

	bidder, err := s.store.Users.Get(ctx, bidderEmail)
	if err != nil {
		return nil, userErr(err, bidderEmail)
	}
	if bidder.UserID != callerSubject {
		return nil, apperr.New(apperr.KindUnauthorized, "caller does not own the bidding account")
	}

	listing, err := s.store.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, listingErr(err, listingID)
	}

	now := s.now()
	if err := checkBid(listing, bidderEmail, amount, now); err != nil {
		metrics.BidsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	bid := models.Bid{
		BidderEmail: bidderEmail,
		BidderName:  bidder.Name,
		Amount:      amount,
		Time:        now,
	}

	cond := store.BidCondition{}
	prevTop, hadTop := listing.TopBid()
	if hadTop {
		cond.TopAmount = &prevTop.Amount
	}

	// Anti-sniping: a bid landing inside the closing window pushes the end
	// date to now + window, atomically with the bid itself.
	var newEnd *time.Time
	if listing.EndDate.Sub(now) <= SnipeWindow {
		extended := now.Add(SnipeWindow)
		newEnd = &extended
	}

	if err := s.store.Listings.AppendBid(ctx, listingID, bid, cond, newEnd); err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.BidsTotal.WithLabelValues("conflict").Inc()
			metrics.StoreConflicts.WithLabelValues("listings").Inc()
			return nil, apperr.Wrap(apperr.KindConflict, "the listing changed while you were bidding", err)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "listing %s not found", listingID)
		}
		return nil, fmt.Errorf("append bid: %w", err)
	}

	metrics.BidsTotal.WithLabelValues("accepted").Inc()
	log.Info("bid accepted",
		"listing_id", listingID, "bidder", bidderEmail, "amount", amount,
		"extended", newEnd != nil)

	if hadTop {
		s.sink.Notify(ctx, prevTop.BidderEmail,
			fmt.Sprintf("Someone outbid you on listing '%s'.", listing.Name),
			"/auction/"+listingID)
	}
	s.sink.ListingChanged(listingID, listing.Kind)

	return &bid, nil
}

// checkBid enforces the read-time bid preconditions. The write-time
// conditions (status, top amount) are re-checked by the store.
func checkBid(l *models.Listing, bidderEmail string, amount float64, now time.Time) error {
	if l.Kind != models.KindAuction {
		return apperr.New(apperr.KindInvalidInput, "bids are only accepted on auctions")
	}
	if l.SellerEmail == bidderEmail {
		return apperr.New(apperr.KindUnauthorized, "sellers cannot bid on their own listing")
	}
	if l.Status != models.StatusAvailable {
		return apperr.New(apperr.KindConflict, "the auction is no longer open")
	}
	if now.After(l.EndDate) {
		return apperr.New(apperr.KindConflict, "the auction has ended")
	}
	if top, ok := l.TopBid(); ok {
		if top.BidderEmail == bidderEmail {
			return apperr.New(apperr.KindConflict, "you already hold the top bid")
		}
		if amount <= top.Amount {
			return apperr.Newf(apperr.KindConflict, "bid must exceed the current top of %.2f", top.Amount)
		}
	} else if amount <= 0 {
		return apperr.New(apperr.KindInvalidInput, "bid amount must be positive")
	}
	return nil
}

// userErr and listingErr translate raw store errors into the apperr taxonomy.

func userErr(err error, email string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Newf(apperr.KindNotFound, "user %s not found", email)
	}
	return fmt.Errorf("load user %s: %w", email, err)
}

func listingErr(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Newf(apperr.KindNotFound, "listing %s not found", id)
	}
	return fmt.Errorf("load listing %s: %w", id, err)
}
