package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/pkg/apperr"
	"github.com/shashiranjanraj/giftbid/pkg/cache"
	"github.com/shashiranjanraj/giftbid/pkg/collection"
	"github.com/shashiranjanraj/giftbid/pkg/event"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/metrics"
	"github.com/shashiranjanraj/giftbid/pkg/storage"
)

// browseTTL bounds how stale a cached browse page can get; the cache is also
// invalidated eagerly on every listing-change event.
const browseTTL = 30 * time.Second

// ListingsService owns listing CRUD, donation redemption, and browsing.
type ListingsService struct {
	store *store.Store
	sink  *notify.Sink
	now   func() time.Time
}

func NewListingsService(st *store.Store, sink *notify.Sink) *ListingsService {
	s := &ListingsService{store: st, sink: sink, now: time.Now}
	event.Listen(event.ListingChanged, func(payload interface{}) {
		change, ok := payload.(notify.ListingChange)
		if !ok {
			return
		}
		cache.Forget(browseKey(change.Kind)) //nolint:errcheck
	})
	return s
}

// CreateListingInput carries the seller-supplied fields for a new listing.
// Images are base64 data URLs as uploaded by the browser.
type CreateListingInput struct {
	SellerEmail  string      `json:"sellerEmail" validate:"required,email"`
	Kind         models.Kind `json:"type"        validate:"required,in=auction,donation"`
	Name         string      `json:"name"        validate:"required,max=120"`
	Category     string      `json:"category"    validate:"required"`
	Description  string      `json:"description" validate:"required"`
	DurationDays int         `json:"duration"    validate:"nullable,gte=1,lte=60"`
	Images       []string    `json:"images"      validate:"required"`
}

// Create publishes a new listing for the seller. Auction listings get an end
// date computed from their duration; donations stay open until redeemed.
func (s *ListingsService) Create(ctx context.Context, in CreateListingInput, callerSubject string) (*models.Listing, error) {
	log := logger.WithCtx(ctx)

	seller, err := s.store.Users.Get(ctx, in.SellerEmail)
	if err != nil {
		return nil, userErr(err, in.SellerEmail)
	}
	if seller.UserID != callerSubject {
		return nil, apperr.New(apperr.KindUnauthorized, "caller does not own the selling account")
	}

	id := models.NewListingID(in.Kind)
	keys, err := storeImages(id, in.Kind, in.Images)
	if err != nil {
		return nil, err
	}

	now := s.now()
	listing := &models.Listing{
		ID:          id,
		Kind:        in.Kind,
		Status:      models.StatusAvailable,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		SellerEmail: in.SellerEmail,
		SellerName:  seller.Name,
		Images:      keys,
		ListingDate: now,
		Bids:        []models.Bid{},
	}
	if in.Kind == models.KindAuction {
		duration := in.DurationDays
		if duration <= 0 {
			duration = models.DefaultAuctionDays
		}
		listing.DurationDays = duration
		listing.EndDate = now.Add(time.Duration(duration) * 24 * time.Hour)
	}

	if err := s.store.Listings.Insert(ctx, listing); err != nil {
		deleteImages(keys)
		return nil, fmt.Errorf("insert listing: %w", err)
	}
	if err := s.store.Users.AppendListingID(ctx, in.SellerEmail, id); err != nil {
		log.Error("create: link listing to seller failed", "listing_id", id, "error", err)
	}

	log.Info("listing created", "listing_id", id, "kind", in.Kind, "seller", in.SellerEmail)
	return listing, nil
}

// Get returns one listing by id.
func (s *ListingsService) Get(ctx context.Context, id string) (*models.Listing, error) {
	l, err := s.store.Listings.Get(ctx, id)
	if err != nil {
		return nil, listingErr(err, id)
	}
	return l, nil
}

// UpdateDetailsInput carries the seller-editable fields.
type UpdateDetailsInput struct {
	Name        *string `json:"name"        validate:"nullable,max=120"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
}

// UpdateDetails edits a listing's descriptive fields while it is still
// available. Lifecycle fields are untouchable here.
func (s *ListingsService) UpdateDetails(ctx context.Context, id, sellerEmail string, in UpdateDetailsInput, callerSubject string) error {
	if err := s.authorizeSeller(ctx, id, sellerEmail, callerSubject); err != nil {
		return err
	}

	patch := store.DetailsPatch{
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
	}
	if err := s.store.Listings.UpdateDetails(ctx, id, patch); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return apperr.Wrap(apperr.KindConflict, "the listing is no longer editable", err)
		}
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.KindNotFound, "listing %s not found", id)
		}
		return fmt.Errorf("update listing %s: %w", id, err)
	}
	return nil
}

// Delete removes an available listing along with its stored images.
func (s *ListingsService) Delete(ctx context.Context, id, sellerEmail, callerSubject string) error {
	log := logger.WithCtx(ctx)

	if err := s.authorizeSeller(ctx, id, sellerEmail, callerSubject); err != nil {
		return err
	}

	listing, err := s.store.Listings.Get(ctx, id)
	if err != nil {
		return listingErr(err, id)
	}
	if listing.Status != models.StatusAvailable {
		return apperr.New(apperr.KindConflict, "only available listings can be deleted")
	}

	if err := s.store.Listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}
	if err := s.store.Users.RemoveListingID(ctx, sellerEmail, id); err != nil {
		log.Error("delete: unlink listing failed", "listing_id", id, "error", err)
	}
	deleteImages(listing.Images)

	s.sink.ListingChanged(id, listing.Kind)
	log.Info("listing deleted", "listing_id", id)
	return nil
}

// RedeemDonation claims a donation listing for the redeemer. The conditional
// transition makes the first claimant win; everyone else gets Conflict.
func (s *ListingsService) RedeemDonation(ctx context.Context, listingID, redeemerEmail, callerSubject string) error {
	log := logger.WithCtx(ctx)

	redeemer, err := s.store.Users.Get(ctx, redeemerEmail)
	if err != nil {
		return userErr(err, redeemerEmail)
	}
	if redeemer.UserID != callerSubject {
		return apperr.New(apperr.KindUnauthorized, "caller does not own the redeeming account")
	}

	listing, err := s.store.Listings.Get(ctx, listingID)
	if err != nil {
		return listingErr(err, listingID)
	}
	if listing.Kind != models.KindDonation {
		return apperr.New(apperr.KindInvalidInput, "only donations can be redeemed directly")
	}
	if listing.SellerEmail == redeemerEmail {
		return apperr.New(apperr.KindUnauthorized, "you cannot redeem your own listing")
	}

	// The end date doubles as the redemption timestamp; it anchors the
	// no-show review window for donations.
	now := s.now()
	status := models.StatusRedeemed
	err = s.store.Listings.Transition(ctx, listingID,
		store.TransitionCondition{From: []models.Status{models.StatusAvailable}},
		store.ListingPatch{Status: &status, RedeemerEmail: &redeemerEmail, EndDate: &now},
	)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			metrics.StoreConflicts.WithLabelValues("listings").Inc()
			return apperr.Wrap(apperr.KindConflict, "the donation was already claimed", err)
		}
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.KindNotFound, "listing %s not found", listingID)
		}
		return fmt.Errorf("redeem donation %s: %w", listingID, err)
	}

	if err := s.store.Users.AppendRedeemedID(ctx, redeemerEmail, listingID); err != nil {
		log.Error("redeem: link redeemed id failed", "listing_id", listingID, "error", err)
	}

	s.sink.Notify(ctx, listing.SellerEmail,
		fmt.Sprintf("User %s redeemed the listing '%s'.", redeemer.Name, listing.Name),
		"/donation/"+listingID)
	s.sink.ListingChanged(listingID, listing.Kind)

	log.Info("donation redeemed", "listing_id", listingID, "redeemer", redeemerEmail)
	return nil
}

// ─── Browsing ─────────────────────────────────────────────────────────────────

// Browse returns open and redeemed listings of one kind, served from the
// redis cache when fresh.
func (s *ListingsService) Browse(ctx context.Context, kind models.Kind) ([]models.Listing, error) {
	key := browseKey(kind)
	var cached []models.Listing
	if cache.Get(key, &cached) {
		metrics.CacheHits.WithLabelValues("redis").Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("redis").Inc()

	listings, err := s.store.Listings.ByKind(ctx, kind,
		[]models.Status{models.StatusAvailable, models.StatusRedeemed})
	if err != nil {
		return nil, fmt.Errorf("browse %s: %w", kind, err)
	}

	cache.Set(key, listings, browseTTL) //nolint:errcheck
	return listings, nil
}

// Today returns listings posted today plus auctions closing today.
func (s *ListingsService) Today(ctx context.Context) ([]models.Listing, error) {
	day := s.now()

	listed, err := s.store.Listings.ListedOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("today: listed: %w", err)
	}
	ending, err := s.store.Listings.EndingOn(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("today: ending: %w", err)
	}

	// An auction posted and closing on the same day shows up in both scans.
	return collection.UniqueBy(append(listed, ending...),
		func(l models.Listing) string { return l.ID }), nil
}

// BySeller returns a user's posted listings.
func (s *ListingsService) BySeller(ctx context.Context, email string) ([]models.Listing, error) {
	return s.store.Listings.BySeller(ctx, email)
}

// ByRedeemer returns the listings a user has redeemed or won.
func (s *ListingsService) ByRedeemer(ctx context.Context, email string) ([]models.Listing, error) {
	return s.store.Listings.ByRedeemer(ctx, email)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *ListingsService) authorizeSeller(ctx context.Context, listingID, sellerEmail, callerSubject string) error {
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
	return nil
}

func browseKey(kind models.Kind) string { return "browse:" + string(kind) }

// storeImages decodes browser-supplied data URLs and writes them to the image
// store under the listing's key prefix. Returns the stored keys.
func storeImages(listingID string, kind models.Kind, images []string) ([]string, error) {
	prefix := "donations"
	if kind == models.KindAuction {
		prefix = "auctions"
	}

	keys := make([]string, 0, len(images))
	for i, img := range images {
		data, err := decodeDataURL(img)
		if err != nil {
			deleteImages(keys)
			return nil, apperr.Wrap(apperr.KindInvalidInput, fmt.Sprintf("image %d is not a valid data URL", i), err)
		}
		key := fmt.Sprintf("%s/%s-%d.jpg", prefix, listingID, i)
		if err := storage.Put(key, data); err != nil {
			deleteImages(keys)
			return nil, fmt.Errorf("store image %s: %w", key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func deleteImages(keys []string) {
	for _, key := range keys {
		if err := storage.Delete(key); err != nil {
			logger.Warn("delete image failed", "key", key, "error", err)
		}
	}
}

// decodeDataURL strips the "data:<mime>;base64," header and decodes the rest.
func decodeDataURL(s string) ([]byte, error) {
	payload := s
	if idx := strings.Index(s, ","); idx != -1 {
		payload = s[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	return data, nil
}
