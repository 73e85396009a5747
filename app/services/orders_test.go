package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/pkg/apperr"
)

func newOrders(f *fixture, at time.Time) *OrdersService {
	svc := NewOrdersService(f.store, f.sink)
	svc.now = clock(at)
	return svc
}

// wonAuction seeds an auction already resolved to alice with a top bid.
func wonAuction(t *testing.T, f *fixture, amount float64) *models.Listing {
	t.Helper()
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")

	l := f.seedAuction(t, "seller@example.com", testNow.Add(-time.Hour))
	ctx := context.Background()
	require.NoError(t, f.store.Listings.AppendBid(ctx, l.ID,
		models.Bid{BidderEmail: "alice@example.com", BidderName: "Alice", Amount: amount, Time: testNow.Add(-2 * time.Hour)},
		store.BidCondition{}, nil))

	status := models.StatusRedeemed
	winner := "alice@example.com"
	require.NoError(t, f.store.Listings.Transition(ctx, l.ID,
		store.TransitionCondition{From: []models.Status{models.StatusAvailable}},
		store.ListingPatch{Status: &status, RedeemerEmail: &winner}))
	require.NoError(t, f.store.Users.AppendRedeemedID(ctx, winner, l.ID))
	return f.listing(t, l.ID)
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	l := wonAuction(t, f, 50)

	svc := newOrders(f, testNow)
	order, err := svc.Create(context.Background(), l.ID, "seller@example.com", "alice@example.com", "sub-alice")
	require.NoError(t, err)

	assert.Equal(t, models.OrderID(l.ID), order.ID)
	assert.Equal(t, 60.0, order.Cost, "cost is base fee plus winning bid")
	assert.True(t, strings.HasPrefix(order.TrackingNumber, "GOB"))
	assert.Len(t, order.TrackingNumber, 14)
	assert.True(t, order.ExpirationDate.Equal(testNow.Add(OrderLifetimeDays*24*time.Hour)))
	assert.Contains(t, order.PickupPoint, "Cluj-Napoca")

	stored := f.listing(t, l.ID)
	assert.Equal(t, models.StatusOrdered, stored.Status)

	seller := f.user(t, "seller@example.com")
	require.NotEmpty(t, seller.Notifications)
	assert.Contains(t, seller.Notifications[0].Message, "ordered")
}

func TestCreateOrder_DonationCostsBaseFee(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedDonation(t, "seller@example.com")

	ctx := context.Background()
	status := models.StatusRedeemed
	redeemer := "alice@example.com"
	now := testNow
	require.NoError(t, f.store.Listings.Transition(ctx, l.ID,
		store.TransitionCondition{From: []models.Status{models.StatusAvailable}},
		store.ListingPatch{Status: &status, RedeemerEmail: &redeemer, EndDate: &now}))
	require.NoError(t, f.store.Users.AppendRedeemedID(ctx, redeemer, l.ID))

	svc := newOrders(f, testNow)
	order, err := svc.Create(ctx, l.ID, "seller@example.com", "alice@example.com", "sub-alice")
	require.NoError(t, err)
	assert.Equal(t, 10.0, order.Cost)
}

func TestCreateOrder_OnlyOnePerListing(t *testing.T) {
	f := newFixture(t)
	l := wonAuction(t, f, 50)

	svc := newOrders(f, testNow)
	_, err := svc.Create(context.Background(), l.ID, "seller@example.com", "alice@example.com", "sub-alice")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), l.ID, "seller@example.com", "alice@example.com", "sub-alice")
	assert.ErrorIs(t, err, apperr.Conflict)
}

func TestCreateOrder_RequiresRedemption(t *testing.T) {
	f := newFixture(t)
	l := wonAuction(t, f, 50)
	f.seedUser(t, "bob@example.com", "sub-bob", "Bob")

	svc := newOrders(f, testNow)
	_, err := svc.Create(context.Background(), l.ID, "seller@example.com", "bob@example.com", "sub-bob")
	assert.ErrorIs(t, err, apperr.Unauthorized)
}

func TestCreateOrder_SubjectMismatch(t *testing.T) {
	f := newFixture(t)
	l := wonAuction(t, f, 50)

	svc := newOrders(f, testNow)
	_, err := svc.Create(context.Background(), l.ID, "seller@example.com", "alice@example.com", "sub-wrong")
	assert.ErrorIs(t, err, apperr.Unauthorized)
}

func TestRefuseRedeemer_ReopensAuction(t *testing.T) {
	f := newFixture(t)
	l := wonAuction(t, f, 50)

	svc := newOrders(f, testNow)
	_, err := svc.Create(context.Background(), l.ID, "seller@example.com", "alice@example.com", "sub-alice")
	require.NoError(t, err)

	require.NoError(t, svc.RefuseRedeemer(context.Background(), l.ID, "seller@example.com", "sub-seller"))

	stored := f.listing(t, l.ID)
	assert.Equal(t, models.StatusAvailable, stored.Status)
	assert.Empty(t, stored.RedeemerEmail)
	assert.Empty(t, stored.Bids, "the ledger restarts with the auction")
	assert.True(t, stored.EndDate.Equal(testNow.Add(7*24*time.Hour)))

	_, err = f.store.Orders.Get(context.Background(), models.OrderID(l.ID))
	assert.ErrorIs(t, err, store.ErrNotFound)

	alice := f.user(t, "alice@example.com")
	assert.False(t, alice.Redeemed(l.ID))
	require.NotEmpty(t, alice.Notifications)
	assert.Contains(t, alice.Notifications[len(alice.Notifications)-1].Message, "refused")
}

func TestRefuseRedeemer_DonationLosesEndDate(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedDonation(t, "seller@example.com")

	ctx := context.Background()
	status := models.StatusRedeemed
	redeemer := "alice@example.com"
	now := testNow
	require.NoError(t, f.store.Listings.Transition(ctx, l.ID,
		store.TransitionCondition{From: []models.Status{models.StatusAvailable}},
		store.ListingPatch{Status: &status, RedeemerEmail: &redeemer, EndDate: &now}))

	svc := newOrders(f, testNow.Add(time.Hour))
	require.NoError(t, svc.RefuseRedeemer(ctx, l.ID, "seller@example.com", "sub-seller"))

	stored := f.listing(t, l.ID)
	assert.Equal(t, models.StatusAvailable, stored.Status)
	assert.True(t, stored.EndDate.IsZero(), "donations carry no end date while open")
}

func TestRefuseRedeemer_NothingToRefuse(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newOrders(f, testNow)
	err := svc.RefuseRedeemer(context.Background(), l.ID, "seller@example.com", "sub-seller")
	assert.ErrorIs(t, err, apperr.Conflict)
}

func TestRefuseRedeemer_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	l := wonAuction(t, f, 50)
	f.seedUser(t, "bob@example.com", "sub-bob", "Bob")

	svc := newOrders(f, testNow)
	err := svc.RefuseRedeemer(context.Background(), l.ID, "bob@example.com", "sub-bob")
	assert.ErrorIs(t, err, apperr.Unauthorized)
}
