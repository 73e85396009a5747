package routes_test

// End-to-end handler tests: real router, real middleware chain, services over
// the in-memory store.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/routes"
	"github.com/shashiranjanraj/giftbid/app/services"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/pkg/auth"
	"github.com/shashiranjanraj/giftbid/pkg/router"
	"github.com/shashiranjanraj/giftbid/pkg/storage"
	"github.com/shashiranjanraj/giftbid/pkg/workerpool"
)

// memDisk keeps listing images in memory so handler tests never touch the
// real filesystem.
type memDisk struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemDisk() *memDisk { return &memDisk{files: map[string][]byte{}} }

func (d *memDisk) Put(path string, content []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[path] = content
	return nil
}

func (d *memDisk) PutStream(path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return d.Put(path, data)
}

func (d *memDisk) Get(path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[path]
	if !ok {
		return nil, fmt.Errorf("memdisk: %s not found", path)
	}
	return data, nil
}

func (d *memDisk) GetStream(path string) (io.ReadCloser, error) {
	data, err := d.Get(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (d *memDisk) Exists(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.files[path]
	return ok
}

func (d *memDisk) Missing(path string) bool { return !d.Exists(path) }

func (d *memDisk) URL(path string) string { return "/storage/" + path }

func (d *memDisk) Delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	return nil
}

type api struct {
	store   *store.Store
	handler http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	storage.Connect()
	storage.RegisterDisk("local", newMemDisk())

	st := store.NewMemory()
	sink := notify.NewSink(st.Users)
	pool := workerpool.New(1)
	t.Cleanup(pool.Shutdown)

	r := router.New()
	routes.RegisterAPI(r, routes.Services{
		Listings: services.NewListingsService(st, sink),
		Bidding:  services.NewBiddingService(st, sink),
		Orders:   services.NewOrdersService(st, sink),
		Reviews:  services.NewReviewsService(st, sink),
		Users:    services.NewUsersService(st),
		Sweep:    services.NewSweepService(st, sink, pool),
	})
	return &api{store: st, handler: r.Handler()}
}

func (a *api) seedUser(t *testing.T, email, subject, name string) string {
	t.Helper()
	require.NoError(t, a.store.Users.Insert(context.Background(), &models.User{
		Email: email, UserID: subject, Name: name,
	}))
	token, err := auth.GenerateToken(subject, email)
	require.NoError(t, err)
	return token
}

func (a *api) seedAuction(t *testing.T, sellerEmail string) *models.Listing {
	t.Helper()
	l := &models.Listing{
		ID:          models.NewListingID(models.KindAuction),
		Kind:        models.KindAuction,
		Status:      models.StatusAvailable,
		Name:        "Vintage lamp",
		SellerEmail: sellerEmail,
		ListingDate: time.Now(),
		EndDate:     time.Now().Add(48 * time.Hour),
		Bids:        []models.Bid{},
	}
	require.NoError(t, a.store.Listings.Insert(context.Background(), l))
	require.NoError(t, a.store.Users.AppendListingID(context.Background(), sellerEmail, l.ID))
	return l
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body) //nolint:errcheck
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestBrowseIsPublic(t *testing.T) {
	a := newAPI(t)
	a.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	a.seedAuction(t, "seller@example.com")

	rec := a.do(http.MethodGet, "/api/browse/auction", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data []models.Listing `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Data, 1)
}

func TestBrowseRejectsUnknownKind(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/api/browse/raffle", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodPost, "/api/listings", "", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/api/listings", "not-a-jwt", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceBidOverHTTP(t *testing.T) {
	a := newAPI(t)
	a.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	aliceToken := a.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	l := a.seedAuction(t, "seller@example.com")

	rec := a.do(http.MethodPost, "/api/listings/"+l.ID+"/bids", aliceToken,
		map[string]float64{"amount": 50})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// A lower bid comes back as a conflict with the reason in the envelope.
	bobToken := a.seedUser(t, "bob@example.com", "sub-bob", "Bob")
	rec = a.do(http.MethodPost, "/api/listings/"+l.ID+"/bids", bobToken,
		map[string]float64{"amount": 40})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "must exceed")
}

func TestPlaceBidValidation(t *testing.T) {
	a := newAPI(t)
	token := a.seedUser(t, "alice@example.com", "sub-alice", "Alice")

	rec := a.do(http.MethodPost, "/api/listings/whatever/bids", token,
		map[string]float64{"amount": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateAndShowListing(t *testing.T) {
	a := newAPI(t)
	token := a.seedUser(t, "seller@example.com", "sub-seller", "Ana")

	rec := a.do(http.MethodPost, "/api/listings", token, map[string]interface{}{
		"sellerEmail": "seller@example.com",
		"type":        "donation",
		"name":        "Box of books",
		"category":    "books",
		"description": "Paperbacks.",
		"images":      []string{"data:image/jpeg;base64,aGVsbG8="},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data models.Listing `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	rec = a.do(http.MethodGet, "/api/listings/"+created.Data.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestShowUnknownListing(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/api/listings/auction-missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedeemDonationOverHTTP(t *testing.T) {
	a := newAPI(t)
	a.seedUser(t, "seller@example.com", "sub-seller", "Ana")
	aliceToken := a.seedUser(t, "alice@example.com", "sub-alice", "Alice")
	bobToken := a.seedUser(t, "bob@example.com", "sub-bob", "Bob")

	l := &models.Listing{
		ID:          models.NewListingID(models.KindDonation),
		Kind:        models.KindDonation,
		Status:      models.StatusAvailable,
		Name:        "Box of books",
		SellerEmail: "seller@example.com",
		ListingDate: time.Now(),
	}
	require.NoError(t, a.store.Listings.Insert(context.Background(), l))

	rec := a.do(http.MethodPost, fmt.Sprintf("/api/listings/%s/redeem", l.ID), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, fmt.Sprintf("/api/listings/%s/redeem", l.ID), bobToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignupOverHTTP(t *testing.T) {
	a := newAPI(t)
	token, err := auth.GenerateToken("sub-new", "new@example.com")
	require.NoError(t, err)

	rec := a.do(http.MethodPost, "/api/users", token, map[string]string{
		"name":        "Newcomer",
		"phoneNumber": "0722222222",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// A fully valid replay must fail on the conditional insert, not at the
	// binding layer.
	rec = a.do(http.MethodPost, "/api/users", token, map[string]string{
		"name":        "Replay",
		"phoneNumber": "0733333333",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}
