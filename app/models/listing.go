package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes the two listing flavours.
type Kind string

const (
	KindAuction  Kind = "auction"
	KindDonation Kind = "donation"
)

// DefaultAuctionDays is the auction duration applied when the seller does not
// choose one, and the renewal period for auctions that expire without bids.
const DefaultAuctionDays = 7

// Status is the lifecycle state of a Listing.
type Status string

const (
	// StatusAvailable — open for bids (auction) or redemption (donation).
	StatusAvailable Status = "available"
	// StatusRedeemed — claimed by a redeemer or won by the top bidder.
	StatusRedeemed Status = "redeemed"
	// StatusOrdered — a fulfillment Order exists for the listing.
	StatusOrdered Status = "ordered"
	// StatusComplete — both parties reviewed; terminal.
	StatusComplete Status = "complete"
)

// transitions is the legal state graph. Every mutation of a listing's status
// must be one of these edges, re-checked by a conditional write at the store.
var transitions = map[Status][]Status{
	StatusAvailable: {StatusRedeemed, StatusOrdered},
	StatusRedeemed:  {StatusOrdered, StatusAvailable},
	StatusOrdered:   {StatusComplete, StatusAvailable},
	StatusComplete:  {},
}

// CanTransition reports whether from → to is a legal listing transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Bid is a single accepted offer on an auction listing. Bids are immutable
// once accepted and are only ever prepended, so index 0 is the current top.
type Bid struct {
	BidderEmail string    `bson:"bidderEmail" json:"bidderEmail"`
	BidderName  string    `bson:"bidderName"  json:"bidderName"`
	Amount      float64   `bson:"amount"      json:"amount"`
	Time        time.Time `bson:"time"        json:"time"`
}

// Listing is a sellable or donatable item with a lifecycle status.
// EndDate is the zero time for donations, which never expire.
type Listing struct {
	ID            string    `bson:"_id"           json:"listingID"`
	Kind          Kind      `bson:"type"          json:"type"`
	Status        Status    `bson:"status"        json:"status"`
	Name          string    `bson:"name"          json:"name"`
	Category      string    `bson:"category"      json:"category"`
	Description   string    `bson:"description"   json:"description"`
	SellerEmail   string    `bson:"sellerEmail"   json:"sellerEmail"`
	SellerName    string    `bson:"sellerName"    json:"sellerName"`
	RedeemerEmail string    `bson:"redeemerEmail" json:"redeemerEmail"`
	Images        []string  `bson:"images"        json:"images"`
	ListingDate   time.Time `bson:"listingDate"   json:"listingDate"`
	EndDate       time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	// Auction-only fields.
	DurationDays int   `bson:"duration,omitempty" json:"duration,omitempty"`
	Bids         []Bid `bson:"bids"               json:"bids"`
}

// NewListingID returns a fresh identifier prefixed by kind,
// e.g. "auction-4f3c…" or "donation-9a1b…".
func NewListingID(kind Kind) string {
	return string(kind) + "-" + uuid.NewString()
}

// TopBid returns the current highest bid (index 0) and whether one exists.
func (l *Listing) TopBid() (Bid, bool) {
	if len(l.Bids) == 0 {
		return Bid{}, false
	}
	return l.Bids[0], true
}

// Expired reports whether an auction listing's end date has passed.
// Donations never expire.
func (l *Listing) Expired(now time.Time) bool {
	if l.Kind != KindAuction || l.EndDate.IsZero() {
		return false
	}
	return !now.Before(l.EndDate)
}
