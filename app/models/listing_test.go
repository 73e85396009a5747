package models_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/giftbid/app/models"
)

func TestCanTransition(t *testing.T) {
	legal := [][2]models.Status{
		{models.StatusAvailable, models.StatusRedeemed},
		{models.StatusAvailable, models.StatusOrdered},
		{models.StatusRedeemed, models.StatusOrdered},
		{models.StatusRedeemed, models.StatusAvailable},
		{models.StatusOrdered, models.StatusComplete},
		{models.StatusOrdered, models.StatusAvailable},
	}
	for _, edge := range legal {
		assert.True(t, models.CanTransition(edge[0], edge[1]), "%s → %s should be legal", edge[0], edge[1])
	}

	illegal := [][2]models.Status{
		{models.StatusComplete, models.StatusAvailable},
		{models.StatusComplete, models.StatusOrdered},
		{models.StatusAvailable, models.StatusComplete},
		{models.StatusRedeemed, models.StatusComplete},
	}
	for _, edge := range illegal {
		assert.False(t, models.CanTransition(edge[0], edge[1]), "%s → %s must be illegal", edge[0], edge[1])
	}
}

func TestNewListingID(t *testing.T) {
	assert.True(t, strings.HasPrefix(models.NewListingID(models.KindAuction), "auction-"))
	assert.True(t, strings.HasPrefix(models.NewListingID(models.KindDonation), "donation-"))
	assert.NotEqual(t, models.NewListingID(models.KindAuction), models.NewListingID(models.KindAuction))
}

func TestTopBid(t *testing.T) {
	l := &models.Listing{}
	_, ok := l.TopBid()
	assert.False(t, ok)

	l.Bids = []models.Bid{{Amount: 60}, {Amount: 50}}
	top, ok := l.TopBid()
	assert.True(t, ok)
	assert.Equal(t, 60.0, top.Amount, "index 0 holds the newest bid")
}

func TestExpired(t *testing.T) {
	now := time.Now()

	auction := &models.Listing{Kind: models.KindAuction, EndDate: now.Add(-time.Minute)}
	assert.True(t, auction.Expired(now))

	open := &models.Listing{Kind: models.KindAuction, EndDate: now.Add(time.Minute)}
	assert.False(t, open.Expired(now))

	donation := &models.Listing{Kind: models.KindDonation}
	assert.False(t, donation.Expired(now), "donations never expire")
}

func TestOrderID(t *testing.T) {
	assert.Equal(t, "order-auction-1", models.OrderID("auction-1"))
}
