package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/pkg/apperr"
)

func newBidding(f *fixture, at time.Time) *BiddingService {
	svc := NewBiddingService(f.store, f.sink)
	svc.now = clock(at)
	return svc
}

func TestPlaceBid_FirstBid(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newBidding(f, testNow)
	bid, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 50, "sub-alice")
	require.NoError(t, err)
	assert.Equal(t, 50.0, bid.Amount)
	assert.Equal(t, "Alice", bid.BidderName)

	stored := f.listing(t, l.ID)
	require.Len(t, stored.Bids, 1)
	assert.Equal(t, "alice@example.com", stored.Bids[0].BidderEmail)
	// Far from the end date, no extension happens.
	assert.True(t, stored.EndDate.Equal(l.EndDate))
}

func TestPlaceBid_MustExceedTop(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	f.seedUser(t, "bob@example.com", "sub-bob", "Bob")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 50, "sub-alice")
	require.NoError(t, err)

	// Equal amount loses; ties go to the earlier bidder.
	_, err = svc.PlaceBid(context.Background(), l.ID, "bob@example.com", 50, "sub-bob")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.Conflict)

	_, err = svc.PlaceBid(context.Background(), l.ID, "bob@example.com", 49, "sub-bob")
	assert.ErrorIs(t, err, apperr.Conflict)

	_, err = svc.PlaceBid(context.Background(), l.ID, "bob@example.com", 51, "sub-bob")
	require.NoError(t, err)

	stored := f.listing(t, l.ID)
	require.Len(t, stored.Bids, 2)
	assert.Equal(t, "bob@example.com", stored.Bids[0].BidderEmail)
}

func TestPlaceBid_TopHolderCannotOutbidSelf(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 50, "sub-alice")
	require.NoError(t, err)

	_, err = svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 60, "sub-alice")
	assert.ErrorIs(t, err, apperr.Conflict)
}

func TestPlaceBid_SellerCannotBid(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "seller@example.com", 50, "sub-seller")
	assert.ErrorIs(t, err, apperr.Unauthorized)
}

func TestPlaceBid_SubjectMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 50, "sub-somebody-else")
	assert.ErrorIs(t, err, apperr.Unauthorized)
}

func TestPlaceBid_AfterEnd(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(-time.Minute))

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 50, "sub-alice")
	assert.ErrorIs(t, err, apperr.Conflict)
}

func TestPlaceBid_RejectsDonations(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedDonation(t, "seller@example.com")

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 50, "sub-alice")
	assert.ErrorIs(t, err, apperr.InvalidInput)
}

func TestPlaceBid_AntiSnipeExtendsEndDate(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	// Two minutes left — inside the closing window.
	l := f.seedAuction(t, "seller@example.com", testNow.Add(2*time.Minute))

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 50, "sub-alice")
	require.NoError(t, err)

	stored := f.listing(t, l.ID)
	assert.True(t, stored.EndDate.Equal(testNow.Add(SnipeWindow)),
		"end date should move to now + window, got %v", stored.EndDate)
}

func TestPlaceBid_OutbidNotifiesPreviousTop(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	f.seedUser(t, "bob@example.com", "sub-bob", "Bob")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 50, "sub-alice")
	require.NoError(t, err)
	_, err = svc.PlaceBid(context.Background(), l.ID, "bob@example.com", 60, "sub-bob")
	require.NoError(t, err)

	alice := f.user(t, "alice@example.com")
	require.Len(t, alice.Notifications, 1)
	assert.Contains(t, alice.Notifications[0].Message, "outbid")
}

func TestPlaceBid_FirstBidMustBePositive(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), l.ID, "alice@example.com", 0, "sub-alice")
	assert.ErrorIs(t, err, apperr.InvalidInput)
}

func TestPlaceBid_UnknownListing(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")

	svc := newBidding(f, testNow)
	_, err := svc.PlaceBid(context.Background(), models.NewListingID(models.KindAuction), "alice@example.com", 50, "sub-alice")
	assert.ErrorIs(t, err, apperr.NotFound)
}
