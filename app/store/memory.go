package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/giftbid/app/models"
)

// NewMemory returns a concurrency-safe in-memory store with the same
// conditional-write semantics as the Mongo implementation. It backs the
// service tests and local development without a database.
func NewMemory() *Store {
	return &Store{
		Listings: &memListings{items: map[string]models.Listing{}},
		Users:    &memUsers{items: map[string]models.User{}},
		Orders:   &memOrders{items: map[string]models.Order{}},
	}
}

// ─── Listings ─────────────────────────────────────────────────────────────────

type memListings struct {
	mu    sync.RWMutex
	items map[string]models.Listing
}

func (s *memListings) Get(_ context.Context, id string) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneListing(l)
	return &cp, nil
}

func (s *memListings) Insert(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[l.ID]; ok {
		return ErrConflict
	}
	s.items[l.ID] = cloneListing(*l)
	return nil
}

func (s *memListings) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *memListings) AppendBid(_ context.Context, id string, bid models.Bid, cond BidCondition, newEndDate *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if l.Status != models.StatusAvailable {
		return ErrConflict
	}
	if cond.TopAmount == nil {
		if len(l.Bids) != 0 {
			return ErrConflict
		}
	} else {
		if len(l.Bids) == 0 || l.Bids[0].Amount != *cond.TopAmount {
			return ErrConflict
		}
	}

	l.Bids = append([]models.Bid{bid}, l.Bids...)
	if newEndDate != nil {
		l.EndDate = *newEndDate
	}
	s.items[id] = l
	return nil
}

func (s *memListings) Transition(_ context.Context, id string, cond TransitionCondition, patch ListingPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if !statusIn(l.Status, cond.From) {
		return ErrConflict
	}
	if cond.EndDateAt != nil && !l.EndDate.Equal(*cond.EndDateAt) {
		return ErrConflict
	}

	if patch.Status != nil {
		l.Status = *patch.Status
	}
	if patch.RedeemerEmail != nil {
		l.RedeemerEmail = *patch.RedeemerEmail
	}
	if patch.ListingDate != nil {
		l.ListingDate = *patch.ListingDate
	}
	if patch.EndDate != nil {
		l.EndDate = *patch.EndDate
	}
	if patch.ClearEndDate {
		l.EndDate = time.Time{}
	}
	if patch.ClearBids {
		l.Bids = nil
	}
	s.items[id] = l
	return nil
}

func (s *memListings) UpdateDetails(_ context.Context, id string, patch DetailsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	if l.Status != models.StatusAvailable {
		return ErrConflict
	}

	if patch.Name != nil {
		l.Name = *patch.Name
	}
	if patch.Category != nil {
		l.Category = *patch.Category
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Images != nil {
		l.Images = append([]string(nil), patch.Images...)
	}
	s.items[id] = l
	return nil
}

func (s *memListings) Expired(_ context.Context, now time.Time) ([]models.Listing, error) {
	return s.scan(func(l models.Listing) bool {
		return l.Kind == models.KindAuction &&
			l.Status == models.StatusAvailable &&
			!l.EndDate.IsZero() && !l.EndDate.After(now)
	}), nil
}

func (s *memListings) ByKind(_ context.Context, kind models.Kind, statuses []models.Status) ([]models.Listing, error) {
	return s.scan(func(l models.Listing) bool {
		return l.Kind == kind && statusIn(l.Status, statuses)
	}), nil
}

func (s *memListings) ListedOn(_ context.Context, day time.Time) ([]models.Listing, error) {
	start, end := dayBounds(day)
	return s.scan(func(l models.Listing) bool {
		return !l.ListingDate.Before(start) && l.ListingDate.Before(end)
	}), nil
}

func (s *memListings) EndingOn(_ context.Context, day time.Time) ([]models.Listing, error) {
	start, end := dayBounds(day)
	return s.scan(func(l models.Listing) bool {
		return l.Kind == models.KindAuction &&
			(l.Status == models.StatusAvailable || l.Status == models.StatusRedeemed) &&
			!l.EndDate.Before(start) && l.EndDate.Before(end)
	}), nil
}

func (s *memListings) BySeller(_ context.Context, email string) ([]models.Listing, error) {
	return s.scan(func(l models.Listing) bool {
		return strings.EqualFold(l.SellerEmail, email)
	}), nil
}

func (s *memListings) ByRedeemer(_ context.Context, email string) ([]models.Listing, error) {
	return s.scan(func(l models.Listing) bool {
		return strings.EqualFold(l.RedeemerEmail, email)
	}), nil
}

func (s *memListings) scan(match func(models.Listing) bool) []models.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Listing
	for _, l := range s.items {
		if match(l) {
			out = append(out, cloneListing(l))
		}
	}
	return out
}

func cloneListing(l models.Listing) models.Listing {
	l.Bids = append([]models.Bid(nil), l.Bids...)
	l.Images = append([]string(nil), l.Images...)
	return l
}

func statusIn(s models.Status, in []models.Status) bool {
	for _, v := range in {
		if v == s {
			return true
		}
	}
	return false
}

// ─── Users ────────────────────────────────────────────────────────────────────

type memUsers struct {
	mu    sync.RWMutex
	items map[string]models.User
}

func (s *memUsers) Get(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.items[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneUser(u)
	return &cp, nil
}

func (s *memUsers) BySubject(_ context.Context, subject string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.items {
		if u.UserID == subject {
			cp := cloneUser(u)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUsers) Insert(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[u.Email]; ok {
		return ErrConflict
	}
	s.items[u.Email] = cloneUser(*u)
	return nil
}

func (s *memUsers) UpdateProfile(_ context.Context, email string, p ProfilePatch) error {
	return s.mutate(email, func(u *models.User) {
		if p.Country != nil {
			u.Country = *p.Country
		}
		if p.County != nil {
			u.County = *p.County
		}
		if p.City != nil {
			u.City = *p.City
		}
		if p.Address != nil {
			u.Address = *p.Address
		}
		if p.PostalCode != nil {
			u.PostalCode = *p.PostalCode
		}
		if p.Phone != nil {
			u.PhoneNumber = *p.Phone
		}
	})
}

func (s *memUsers) AppendNotification(_ context.Context, email string, n models.Notification) error {
	return s.mutate(email, func(u *models.User) {
		u.Notifications = append(u.Notifications, n)
	})
}

func (s *memUsers) AppendListingID(_ context.Context, email, listingID string) error {
	return s.mutate(email, func(u *models.User) {
		u.ListingIDs = append(u.ListingIDs, listingID)
	})
}

func (s *memUsers) RemoveListingID(_ context.Context, email, listingID string) error {
	return s.mutate(email, func(u *models.User) {
		u.ListingIDs = removeString(u.ListingIDs, listingID)
	})
}

func (s *memUsers) AppendRedeemedID(_ context.Context, email, listingID string) error {
	return s.mutate(email, func(u *models.User) {
		u.RedeemedIDs = append(u.RedeemedIDs, listingID)
	})
}

func (s *memUsers) RemoveRedeemedID(_ context.Context, email, listingID string) error {
	return s.mutate(email, func(u *models.User) {
		u.RedeemedIDs = removeString(u.RedeemedIDs, listingID)
	})
}

func (s *memUsers) AppendReview(_ context.Context, email string, r models.Review, newAverage float64) error {
	return s.mutate(email, func(u *models.User) {
		u.Reviews = append(u.Reviews, r)
		u.AverageRating = newAverage
	})
}

func (s *memUsers) mutate(email string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.items[email]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	s.items[email] = u
	return nil
}

func cloneUser(u models.User) models.User {
	u.ListingIDs = append([]string(nil), u.ListingIDs...)
	u.RedeemedIDs = append([]string(nil), u.RedeemedIDs...)
	u.WishlistIDs = append([]string(nil), u.WishlistIDs...)
	u.Reviews = append([]models.Review(nil), u.Reviews...)
	u.Notifications = append([]models.Notification(nil), u.Notifications...)
	return u
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// ─── Orders ───────────────────────────────────────────────────────────────────

type memOrders struct {
	mu    sync.RWMutex
	items map[string]models.Order
}

func (s *memOrders) Get(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := o
	return &cp, nil
}

func (s *memOrders) Insert(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[o.ID]; ok {
		return ErrConflict
	}
	s.items[o.ID] = *o
	return nil
}

func (s *memOrders) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

func (s *memOrders) SetReviewed(_ context.Context, id string, sellerReviewed bool) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sellerReviewed {
		if o.SellerReviewed {
			return nil, ErrConflict
		}
		o.SellerReviewed = true
	} else {
		if o.RedeemerReviewed {
			return nil, ErrConflict
		}
		o.RedeemerReviewed = true
	}
	s.items[id] = o

	updated := o
	return &updated, nil
}

func (s *memOrders) ByParticipant(_ context.Context, email string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Order
	for _, o := range s.items {
		if strings.EqualFold(o.SellerEmail, email) || strings.EqualFold(o.RedeemerEmail, email) {
			out = append(out, o)
		}
	}
	return out, nil
}
