package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/config"
	"github.com/shashiranjanraj/giftbid/pkg/apperr"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/metrics"
)

// OrderLifetimeDays is the fulfillment window after which reviews open.
const OrderLifetimeDays = 10

// OrdersService creates fulfillment orders and handles the refusal path.
type OrdersService struct {
	store *store.Store
	sink  *notify.Sink
	now   func() time.Time
}

func NewOrdersService(st *store.Store, sink *notify.Sink) *OrdersService {
	return &OrdersService{store: st, sink: sink, now: time.Now}
}

// Create opens the fulfillment order for a redeemed listing. The redeemer
// initiates it; callerSubject must match the redeemer's bound subject.
//
// The order key is derived from the listing id, so the insert itself is the
// uniqueness guard: a concurrent duplicate hits the existing key and fails
// with Conflict before the listing is touched.
func (s *OrdersService) Create(ctx context.Context, listingID, sellerEmail, redeemerEmail, callerSubject string) (*models.Order, error) {
	log := logger.WithCtx(ctx)

	redeemer, err := s.store.Users.Get(ctx, redeemerEmail)
	if err != nil {
		return nil, userErr(err, redeemerEmail)
	}
	if redeemer.UserID != callerSubject {
		return nil, apperr.New(apperr.KindUnauthorized, "caller does not own the redeeming account")
	}
	if !redeemer.Redeemed(listingID) {
		return nil, apperr.New(apperr.KindUnauthorized, "listing is not redeemed by this account")
	}

	seller, err := s.store.Users.Get(ctx, sellerEmail)
	if err != nil {
		return nil, userErr(err, sellerEmail)
	}
	if !seller.Owns(listingID) {
		return nil, apperr.New(apperr.KindUnauthorized, "listing does not belong to this seller")
	}

	listing, err := s.store.Listings.Get(ctx, listingID)
	if err != nil {
		return nil, listingErr(err, listingID)
	}
	if listing.Status == models.StatusOrdered || listing.Status == models.StatusComplete {
		return nil, apperr.New(apperr.KindConflict, "an order already exists for this listing")
	}

	now := s.now()
	cost := config.BaseOrderFee()
	if listing.Kind == models.KindAuction {
		if top, ok := listing.TopBid(); ok {
			cost += top.Amount
		}
	}

	order := &models.Order{
		ID:             models.OrderID(listingID),
		ListingID:      listingID,
		TrackingNumber: newTrackingNumber(),
		SellerEmail:    sellerEmail,
		SellerPhone:    seller.PhoneNumber,
		RedeemerEmail:  redeemerEmail,
		RedeemerPhone:  redeemer.PhoneNumber,
		PickupPoint:    formatAddress(seller),
		DropPoint:      formatAddress(redeemer),
		OrderDate:      now,
		ExpirationDate: now.Add(OrderLifetimeDays * 24 * time.Hour),
		Cost:           cost,
	}

	if err := s.store.Orders.Insert(ctx, order); err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.StoreConflicts.WithLabelValues("orders").Inc()
			return nil, apperr.Wrap(apperr.KindConflict, "an order already exists for this listing", err)
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}

	status := models.StatusOrdered
	err = s.store.Listings.Transition(ctx, listingID,
		store.TransitionCondition{From: []models.Status{models.StatusRedeemed}},
		store.ListingPatch{Status: &status},
	)
	if err != nil {
		// The listing moved between our read and the transition; take the
		// freshly inserted order back out.
		if delErr := s.store.Orders.Delete(ctx, order.ID); delErr != nil {
			log.Error("order rollback failed", "order_id", order.ID, "error", delErr)
		}
		if errors.Is(err, store.ErrConflict) {
			metrics.StoreConflicts.WithLabelValues("listings").Inc()
			return nil, apperr.Wrap(apperr.KindConflict, "the listing is no longer ready for an order", err)
		}
		return nil, fmt.Errorf("mark listing ordered: %w", err)
	}

	metrics.OrdersCreated.Inc()
	log.Info("order created",
		"order_id", order.ID, "listing_id", listingID, "cost", cost)

	s.sink.Notify(ctx, sellerEmail,
		fmt.Sprintf("User %s ordered item %s.", redeemer.Name, listing.Name),
		"/posts")

	return order, nil
}

// RefuseRedeemer lets the seller reject the current redeemer and reopen the
// listing. Works from both redeemed and ordered states; the order, if one
// exists, is discarded. The refused party is always the redeemer on the
// listing record, never a caller-supplied email, so the unlink can't hit the
// wrong account.
func (s *OrdersService) RefuseRedeemer(ctx context.Context, listingID, sellerEmail, callerSubject string) error {
	log := logger.WithCtx(ctx)

	seller, err := s.store.Users.Get(ctx, sellerEmail)
	if err != nil {
		return userErr(err, sellerEmail)
	}
	if seller.UserID != callerSubject {
		return apperr.New(apperr.KindUnauthorized, "caller does not own the selling account")
	}
	if !seller.Owns(listingID) {
		return apperr.New(apperr.KindUnauthorized, "listing does not belong to this seller")
	}

	listing, err := s.store.Listings.Get(ctx, listingID)
	if err != nil {
		return listingErr(err, listingID)
	}
	if listing.Status != models.StatusOrdered && listing.Status != models.StatusRedeemed {
		return apperr.New(apperr.KindConflict, "the listing has no redeemer to refuse")
	}
	redeemerEmail := listing.RedeemerEmail

	// Claim the refusal first: the conditional reset is the guard against a
	// concurrent refusal or review finalization.
	err = reopenListing(ctx, s.store, listing,
		[]models.Status{models.StatusOrdered, models.StatusRedeemed}, s.now())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.StoreConflicts.WithLabelValues("listings").Inc()
			return apperr.Wrap(apperr.KindConflict, "the listing changed while refusing", err)
		}
		return fmt.Errorf("reopen listing: %w", err)
	}

	if err := s.store.Orders.Delete(ctx, models.OrderID(listingID)); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("refuse: delete order failed", "listing_id", listingID, "error", err)
	}
	if err := s.store.Users.RemoveRedeemedID(ctx, redeemerEmail, listingID); err != nil {
		log.Error("refuse: unlink redeemed id failed", "redeemer", redeemerEmail, "error", err)
	}

	redirect := "/donations"
	if listing.Kind == models.KindAuction {
		redirect = "/auctions"
	}
	s.sink.Notify(ctx, redeemerEmail,
		fmt.Sprintf("The seller refused your redemption for listing '%s' due to low rating.", listing.Name),
		redirect)
	s.sink.ListingChanged(listingID, listing.Kind)

	log.Info("redeemer refused", "listing_id", listingID, "redeemer", redeemerEmail)
	return nil
}

// reopenListing resets a listing to available: redeemer cleared, listing date
// refreshed; auctions get an empty ledger and a fresh end date, donations
// lose their end date. Shared by the refusal path and the no-order review.
func reopenListing(ctx context.Context, st *store.Store, l *models.Listing, from []models.Status, now time.Time) error {
	status := models.StatusAvailable
	empty := ""
	patch := store.ListingPatch{
		Status:        &status,
		RedeemerEmail: &empty,
		ListingDate:   &now,
	}
	if l.Kind == models.KindAuction {
		duration := l.DurationDays
		if duration <= 0 {
			duration = models.DefaultAuctionDays
		}
		newEnd := now.Add(time.Duration(duration) * 24 * time.Hour)
		patch.EndDate = &newEnd
		patch.ClearBids = true
	} else {
		patch.ClearEndDate = true
	}
	return st.Listings.Transition(ctx, l.ID, store.TransitionCondition{From: from}, patch)
}

// newTrackingNumber mints a carrier-style handle: "GOB" + 11 digits.
func newTrackingNumber() string {
	b := make([]byte, 11)
	_, _ = rand.Read(b)
	digits := make([]byte, 11)
	for i, v := range b {
		digits[i] = '0' + v%10
	}
	return "GOB" + string(digits)
}

// formatAddress renders a user's address fields into the single-line courier
// format used on orders.
func formatAddress(u *models.User) string {
	return fmt.Sprintf("country: %s, county: %s, city: %s, adress: %s %s",
		u.Country, u.County, u.City, u.Address, u.PostalCode)
}
