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

func newListings(f *fixture, at time.Time) *ListingsService {
	svc := NewListingsService(f.store, f.sink)
	svc.now = clock(at)
	return svc
}

func TestCreateListing_Auction(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")

	svc := newListings(f, testNow)
	l, err := svc.Create(context.Background(), CreateListingInput{
		SellerEmail: "seller@example.com",
		Kind:        models.KindAuction,
		Name:        "Vintage lamp",
		Category:    "home",
		Description: "A lamp.",
	}, "sub-seller")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(l.ID, "auction-"))
	assert.Equal(t, models.StatusAvailable, l.Status)
	assert.Equal(t, "Ana", l.SellerName)
	assert.Equal(t, models.DefaultAuctionDays, l.DurationDays)
	assert.True(t, l.EndDate.Equal(testNow.Add(models.DefaultAuctionDays*24*time.Hour)))

	seller := f.user(t, "seller@example.com")
	assert.True(t, seller.Owns(l.ID))
}

func TestCreateListing_DonationHasNoEndDate(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")

	svc := newListings(f, testNow)
	l, err := svc.Create(context.Background(), CreateListingInput{
		SellerEmail: "seller@example.com",
		Kind:        models.KindDonation,
		Name:        "Box of books",
		Category:    "books",
		Description: "Paperbacks.",
	}, "sub-seller")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(l.ID, "donation-"))
	assert.True(t, l.EndDate.IsZero())
	assert.Zero(t, l.DurationDays)
}

func TestCreateListing_SubjectMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")

	svc := newListings(f, testNow)
	_, err := svc.Create(context.Background(), CreateListingInput{
		SellerEmail: "seller@example.com",
		Kind:        models.KindAuction,
		Name:        "Lamp",
		Category:    "home",
		Description: "A lamp.",
	}, "sub-impostor")
	assert.ErrorIs(t, err, apperr.Unauthorized)
}

func TestRedeemDonation_FirstClaimantWins(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	f.seedUser(t, "bob@example.com", "sub-bob", "Bob")
	l := f.seedDonation(t, "seller@example.com")

	svc := newListings(f, testNow)
	require.NoError(t, svc.RedeemDonation(context.Background(), l.ID, "alice@example.com", "sub-alice"))

	err := svc.RedeemDonation(context.Background(), l.ID, "bob@example.com", "sub-bob")
	assert.ErrorIs(t, err, apperr.Conflict)

	stored := f.listing(t, l.ID)
	assert.Equal(t, models.StatusRedeemed, stored.Status)
	assert.Equal(t, "alice@example.com", stored.RedeemerEmail)
	assert.True(t, stored.EndDate.Equal(testNow), "redemption stamps the end date")

	alice := f.user(t, "alice@example.com")
	assert.True(t, alice.Redeemed(l.ID))
	bob := f.user(t, "bob@example.com")
	assert.False(t, bob.Redeemed(l.ID))

	seller := f.user(t, "seller@example.com")
	require.NotEmpty(t, seller.Notifications)
	assert.Contains(t, seller.Notifications[0].Message, "redeemed")
}

func TestRedeemDonation_NotOwnListing(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	l := f.seedDonation(t, "seller@example.com")

	svc := newListings(f, testNow)
	err := svc.RedeemDonation(context.Background(), l.ID, "seller@example.com", "sub-seller")
	assert.ErrorIs(t, err, apperr.Unauthorized)
}

func TestRedeemDonation_AuctionsNotRedeemable(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	svc := newListings(f, testNow)
	err := svc.RedeemDonation(context.Background(), l.ID, "alice@example.com", "sub-alice")
	assert.ErrorIs(t, err, apperr.InvalidInput)
}

func TestUpdateDetails(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	l := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))

	name := "Art deco lamp"
	svc := newListings(f, testNow)
	require.NoError(t, svc.UpdateDetails(context.Background(), l.ID, "seller@example.com",
		UpdateDetailsInput{Name: &name}, "sub-seller"))

	stored := f.listing(t, l.ID)
	assert.Equal(t, "Art deco lamp", stored.Name)
	assert.Equal(t, "home", stored.Category)
}

func TestUpdateDetails_LockedOnceRedeemed(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedDonation(t, "seller@example.com")

	svc := newListings(f, testNow)
	require.NoError(t, svc.RedeemDonation(context.Background(), l.ID, "alice@example.com", "sub-alice"))

	name := "Renamed"
	err := svc.UpdateDetails(context.Background(), l.ID, "seller@example.com",
		UpdateDetailsInput{Name: &name}, "sub-seller")
	assert.ErrorIs(t, err, apperr.Conflict)
}

func TestDeleteListing_AvailableOnly(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := f.seedDonation(t, "seller@example.com")

	svc := newListings(f, testNow)
	require.NoError(t, svc.RedeemDonation(context.Background(), l.ID, "alice@example.com", "sub-alice"))

	err := svc.Delete(context.Background(), l.ID, "seller@example.com", "sub-seller")
	assert.ErrorIs(t, err, apperr.Conflict)

	open := f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))
	require.NoError(t, svc.Delete(context.Background(), open.ID, "seller@example.com", "sub-seller"))

	_, err = svc.Get(context.Background(), open.ID)
	assert.ErrorIs(t, err, apperr.NotFound)

	seller := f.user(t, "seller@example.com")
	assert.False(t, seller.Owns(open.ID))
}

func TestBrowse(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	f.seedAuction(t, "seller@example.com", testNow.Add(48*time.Hour))
	f.seedDonation(t, "seller@example.com")

	svc := newListings(f, testNow)
	auctions, err := svc.Browse(context.Background(), models.KindAuction)
	require.NoError(t, err)
	require.Len(t, auctions, 1)
	assert.Equal(t, models.KindAuction, auctions[0].Kind)

	donations, err := svc.Browse(context.Background(), models.KindDonation)
	require.NoError(t, err)
	assert.Len(t, donations, 1)
}

func TestToday_DeduplicatesListedAndEnding(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "seller@example.com", "sub-seller", "Ana")

	// Listed today AND ending today: must appear once.
	l := f.seedAuction(t, "seller@example.com", testNow.Add(2*time.Hour))
	ctx := context.Background()
	day := testNow
	require.NoError(t, f.store.Listings.Transition(ctx, l.ID,
		store.TransitionCondition{From: []models.Status{models.StatusAvailable}},
		store.ListingPatch{ListingDate: &day}))

	svc := newListings(f, testNow)
	today, err := svc.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, l.ID, today[0].ID)
}
