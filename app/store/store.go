// Package store is the record store behind the listing lifecycle engine.
//
// Three keyed collections — listings, users, orders — with point gets, point
// puts, filtered scans, and conditional updates. Every status transition goes
// through a conditional update that re-checks the expected prior state at
// write time; a transition whose precondition no longer holds fails with
// ErrConflict instead of overwriting. That discipline is what keeps
// concurrent bidders, the sweep, and sellers from trampling each other
// without any process-level lock.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/giftbid/app/models"
)

var (
	// ErrNotFound — the addressed record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict — the conditional predicate did not hold at write time,
	// or an insert hit an existing key.
	ErrConflict = errors.New("store: write condition failed")
)

// ListingPatch describes the mutation half of a conditional listing update.
// Nil pointer fields are left untouched.
type ListingPatch struct {
	Status        *models.Status
	RedeemerEmail *string
	ListingDate   *time.Time
	EndDate       *time.Time
	ClearEndDate  bool
	ClearBids     bool
}

// BidCondition is the write-time predicate for appending a bid: the listing
// must still be available and its top bid unchanged since the caller read it.
// TopAmount nil means the caller saw an empty ledger.
type BidCondition struct {
	TopAmount *float64
}

// TransitionCondition is the write-time predicate for a status transition.
// From is required; EndDateAt additionally pins the end date the caller read,
// so a concurrent anti-snipe extension invalidates the write.
type TransitionCondition struct {
	From      []models.Status
	EndDateAt *time.Time
}

// DetailsPatch updates the seller-editable listing fields.
type DetailsPatch struct {
	Name        *string
	Category    *string
	Description *string
	Images      []string
}

// Listings is keyed storage for listing records.
type Listings interface {
	Get(ctx context.Context, id string) (*models.Listing, error)
	Insert(ctx context.Context, l *models.Listing) error
	Delete(ctx context.Context, id string) error

	// AppendBid prepends bid and optionally sets a new end date, in one
	// write conditioned on cond. Returns ErrConflict when the listing is no
	// longer available or the top bid moved.
	AppendBid(ctx context.Context, id string, bid models.Bid, cond BidCondition, newEndDate *time.Time) error

	// Transition applies patch only while cond still holds.
	// ErrConflict when the source state moved under the caller.
	Transition(ctx context.Context, id string, cond TransitionCondition, patch ListingPatch) error

	// UpdateDetails edits the seller-facing fields while the listing is
	// still available.
	UpdateDetails(ctx context.Context, id string, patch DetailsPatch) error

	// Expired scans for auctions whose end date has passed and that are
	// still available — the sweep's work queue.
	Expired(ctx context.Context, now time.Time) ([]models.Listing, error)

	// ByKind scans listings of one kind in any of the given statuses.
	ByKind(ctx context.Context, kind models.Kind, statuses []models.Status) ([]models.Listing, error)

	// ListedOn scans listings created on the given UTC day.
	ListedOn(ctx context.Context, day time.Time) ([]models.Listing, error)

	// EndingOn scans auctions ending on the given UTC day that are still
	// available or redeemed.
	EndingOn(ctx context.Context, day time.Time) ([]models.Listing, error)

	BySeller(ctx context.Context, email string) ([]models.Listing, error)
	ByRedeemer(ctx context.Context, email string) ([]models.Listing, error)
}

// Users is keyed storage for user records (email is the key).
type Users interface {
	Get(ctx context.Context, email string) (*models.User, error)
	// BySubject looks a user up by their bound subject identifier.
	BySubject(ctx context.Context, subject string) (*models.User, error)
	// Insert creates the user; ErrConflict when the email is already bound.
	Insert(ctx context.Context, u *models.User) error

	UpdateProfile(ctx context.Context, email string, p ProfilePatch) error

	AppendNotification(ctx context.Context, email string, n models.Notification) error
	AppendListingID(ctx context.Context, email, listingID string) error
	RemoveListingID(ctx context.Context, email, listingID string) error
	AppendRedeemedID(ctx context.Context, email, listingID string) error
	RemoveRedeemedID(ctx context.Context, email, listingID string) error

	// AppendReview records a review and the recomputed average in one write.
	AppendReview(ctx context.Context, email string, r models.Review, newAverage float64) error
}

// ProfilePatch updates a user's mutable profile fields. The bound subject and
// email are immutable and deliberately absent.
type ProfilePatch struct {
	Country    *string
	County     *string
	City       *string
	Address    *string
	PostalCode *string
	Phone      *string
}

// Orders is keyed storage for fulfillment records.
type Orders interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	// Insert persists the order; ErrConflict when one already exists for
	// the listing (the id is derived from the listing id).
	Insert(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id string) error

	// SetReviewed flips one review flag, conditioned on it being false, and
	// returns the order as it stands after the flip. Finalization decisions
	// must read the returned record, not a pre-flip snapshot: two
	// counterparties can flip concurrently, and only the post-update state
	// shows whether this flip was the closing one.
	SetReviewed(ctx context.Context, id string, sellerReviewed bool) (*models.Order, error)

	// ByParticipant scans orders where email is the seller or redeemer.
	ByParticipant(ctx context.Context, email string) ([]models.Order, error)
}

// Store bundles the three collections for injection into services.
type Store struct {
	Listings Listings
	Users    Users
	Orders   Orders
}
