package services

// Shared fixtures. All service tests run against the in-memory store, which
// mirrors the Mongo conditional-write semantics.

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/store"
)

var testNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fixture struct {
	store *store.Store
	sink  *notify.Sink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemory()
	return &fixture{store: st, sink: notify.NewSink(st.Users)}
}

func (f *fixture) seedUser(t *testing.T, email, subject, name string) *models.User {
	t.Helper()
	u := &models.User{
		Email:       email,
		UserID:      subject,
		Name:        name,
		PhoneNumber: "0700000000",
		Country:     "Romania",
		County:      "Cluj",
		City:        "Cluj-Napoca",
		Address:     "Str. Principala 1",
		PostalCode:  "400001",
	}
	require.NoError(t, f.store.Users.Insert(context.Background(), u))
	return u
}

// seedAuction creates an available auction ending at end, owned by sellerEmail.
func (f *fixture) seedAuction(t *testing.T, sellerEmail string, end time.Time) *models.Listing {
	t.Helper()
	l := &models.Listing{
		ID:           models.NewListingID(models.KindAuction),
		Kind:         models.KindAuction,
		Status:       models.StatusAvailable,
		Name:         "Vintage lamp",
		Category:     "home",
		Description:  "A lamp.",
		SellerEmail:  sellerEmail,
		ListingDate:  testNow.Add(-24 * time.Hour),
		EndDate:      end,
		DurationDays: 7,
		Bids:         []models.Bid{},
	}
	require.NoError(t, f.store.Listings.Insert(context.Background(), l))
	require.NoError(t, f.store.Users.AppendListingID(context.Background(), sellerEmail, l.ID))
	return l
}

func (f *fixture) seedDonation(t *testing.T, sellerEmail string) *models.Listing {
	t.Helper()
	l := &models.Listing{
		ID:          models.NewListingID(models.KindDonation),
		Kind:        models.KindDonation,
		Status:      models.StatusAvailable,
		Name:        "Box of books",
		Category:    "books",
		Description: "Assorted paperbacks.",
		SellerEmail: sellerEmail,
		ListingDate: testNow.Add(-24 * time.Hour),
		Bids:        []models.Bid{},
	}
	require.NoError(t, f.store.Listings.Insert(context.Background(), l))
	require.NoError(t, f.store.Users.AppendListingID(context.Background(), sellerEmail, l.ID))
	return l
}

func (f *fixture) listing(t *testing.T, id string) *models.Listing {
	t.Helper()
	l, err := f.store.Listings.Get(context.Background(), id)
	require.NoError(t, err)
	return l
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.store.Users.Get(context.Background(), email)
	require.NoError(t, err)
	return u
}
