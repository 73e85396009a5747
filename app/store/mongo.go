package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/config"
)

// Connect opens the Mongo-backed store using the configured URI and database.
// The subject index on users backs BySubject lookups; creation is idempotent.
func Connect(ctx context.Context) (*Store, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI()))
	if err != nil {
		return nil, nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, fmt.Errorf("store: ping: %w", err)
	}

	db := client.Database(config.MongoDatabase())
	users := db.Collection("users")
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userID", Value: 1}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("store: ensure subject index: %w", err)
	}

	return &Store{
		Listings: &mongoListings{c: db.Collection("listings")},
		Users:    &mongoUsers{c: users},
		Orders:   &mongoOrders{c: db.Collection("orders")},
	}, client, nil
}

// ─── Listings ─────────────────────────────────────────────────────────────────

type mongoListings struct {
	c *mongo.Collection
}

func (s *mongoListings) Get(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get listing %s: %w", id, err)
	}
	return &l, nil
}

func (s *mongoListings) Insert(ctx context.Context, l *models.Listing) error {
	_, err := s.c.InsertOne(ctx, l)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("store: insert listing %s: %w", l.ID, err)
	}
	return nil
}

func (s *mongoListings) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("store: delete listing %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoListings) AppendBid(ctx context.Context, id string, bid models.Bid, cond BidCondition, newEndDate *time.Time) error {
	filter := bson.M{"_id": id, "status": models.StatusAvailable}
	if cond.TopAmount == nil {
		filter["bids.0"] = bson.M{"$exists": false}
	} else {
		filter["bids.0.amount"] = *cond.TopAmount
	}

	update := bson.M{
		"$push": bson.M{"bids": bson.M{"$each": []models.Bid{bid}, "$position": 0}},
	}
	if newEndDate != nil {
		update["$set"] = bson.M{"endDate": *newEndDate}
	}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("store: append bid to %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

func (s *mongoListings) Transition(ctx context.Context, id string, cond TransitionCondition, patch ListingPatch) error {
	filter := bson.M{"_id": id, "status": bson.M{"$in": cond.From}}
	if cond.EndDateAt != nil {
		filter["endDate"] = *cond.EndDateAt
	}

	set := bson.M{}
	unset := bson.M{}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.RedeemerEmail != nil {
		set["redeemerEmail"] = *patch.RedeemerEmail
	}
	if patch.ListingDate != nil {
		set["listingDate"] = *patch.ListingDate
	}
	if patch.EndDate != nil {
		set["endDate"] = *patch.EndDate
	}
	if patch.ClearEndDate {
		unset["endDate"] = ""
	}
	if patch.ClearBids {
		set["bids"] = []models.Bid{}
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return nil
	}

	res, err := s.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("store: transition listing %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

func (s *mongoListings) UpdateDetails(ctx context.Context, id string, patch DetailsPatch) error {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Images != nil {
		set["images"] = patch.Images
	}
	if len(set) == 0 {
		return nil
	}

	filter := bson.M{"_id": id, "status": models.StatusAvailable}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("store: update listing %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return s.missingOrConflict(ctx, id)
	}
	return nil
}

// missingOrConflict distinguishes "record absent" from "condition failed"
// after a zero-match conditional write.
func (s *mongoListings) missingOrConflict(ctx context.Context, id string) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("store: recheck listing %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (s *mongoListings) Expired(ctx context.Context, now time.Time) ([]models.Listing, error) {
	return s.scan(ctx, bson.M{
		"type":    models.KindAuction,
		"status":  models.StatusAvailable,
		"endDate": bson.M{"$lte": now},
	})
}

func (s *mongoListings) ByKind(ctx context.Context, kind models.Kind, statuses []models.Status) ([]models.Listing, error) {
	return s.scan(ctx, bson.M{
		"type":   kind,
		"status": bson.M{"$in": statuses},
	})
}

func (s *mongoListings) ListedOn(ctx context.Context, day time.Time) ([]models.Listing, error) {
	start, end := dayBounds(day)
	return s.scan(ctx, bson.M{
		"listingDate": bson.M{"$gte": start, "$lt": end},
	})
}

func (s *mongoListings) EndingOn(ctx context.Context, day time.Time) ([]models.Listing, error) {
	start, end := dayBounds(day)
	return s.scan(ctx, bson.M{
		"type":    models.KindAuction,
		"status":  bson.M{"$in": []models.Status{models.StatusAvailable, models.StatusRedeemed}},
		"endDate": bson.M{"$gte": start, "$lt": end},
	})
}

func (s *mongoListings) BySeller(ctx context.Context, email string) ([]models.Listing, error) {
	return s.scan(ctx, bson.M{"sellerEmail": email})
}

func (s *mongoListings) ByRedeemer(ctx context.Context, email string) ([]models.Listing, error) {
	return s.scan(ctx, bson.M{"redeemerEmail": email})
}

func (s *mongoListings) scan(ctx context.Context, filter bson.M) ([]models.Listing, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("store: scan listings: %w", err)
	}
	var out []models.Listing
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("store: decode listings: %w", err)
	}
	return out, nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// ─── Users ────────────────────────────────────────────────────────────────────

type mongoUsers struct {
	c *mongo.Collection
}

func (s *mongoUsers) Get(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user %s: %w", email, err)
	}
	return &u, nil
}

func (s *mongoUsers) BySubject(ctx context.Context, subject string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"userID": subject}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user by subject: %w", err)
	}
	return &u, nil
}

func (s *mongoUsers) Insert(ctx context.Context, u *models.User) error {
	_, err := s.c.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("store: insert user %s: %w", u.Email, err)
	}
	return nil
}

func (s *mongoUsers) UpdateProfile(ctx context.Context, email string, p ProfilePatch) error {
	set := bson.M{}
	if p.Country != nil {
		set["country"] = *p.Country
	}
	if p.County != nil {
		set["county"] = *p.County
	}
	if p.City != nil {
		set["city"] = *p.City
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.PostalCode != nil {
		set["postalCode"] = *p.PostalCode
	}
	if p.Phone != nil {
		set["phoneNumber"] = *p.Phone
	}
	if len(set) == 0 {
		return nil
	}
	return s.update(ctx, email, bson.M{"$set": set})
}

func (s *mongoUsers) AppendNotification(ctx context.Context, email string, n models.Notification) error {
	return s.update(ctx, email, bson.M{"$push": bson.M{"notifications": n}})
}

func (s *mongoUsers) AppendListingID(ctx context.Context, email, listingID string) error {
	return s.update(ctx, email, bson.M{"$push": bson.M{"listingsIDs": listingID}})
}

func (s *mongoUsers) RemoveListingID(ctx context.Context, email, listingID string) error {
	return s.update(ctx, email, bson.M{"$pull": bson.M{"listingsIDs": listingID}})
}

func (s *mongoUsers) AppendRedeemedID(ctx context.Context, email, listingID string) error {
	return s.update(ctx, email, bson.M{"$push": bson.M{"redeemedIDs": listingID}})
}

func (s *mongoUsers) RemoveRedeemedID(ctx context.Context, email, listingID string) error {
	return s.update(ctx, email, bson.M{"$pull": bson.M{"redeemedIDs": listingID}})
}

func (s *mongoUsers) AppendReview(ctx context.Context, email string, r models.Review, newAverage float64) error {
	return s.update(ctx, email, bson.M{
		"$push": bson.M{"reviews": r},
		"$set":  bson.M{"averageRating": newAverage},
	})
}

func (s *mongoUsers) update(ctx context.Context, email string, update bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": email}, update)
	if err != nil {
		return fmt.Errorf("store: update user %s: %w", email, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Orders ───────────────────────────────────────────────────────────────────

type mongoOrders struct {
	c *mongo.Collection
}

func (s *mongoOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get order %s: %w", id, err)
	}
	return &o, nil
}

func (s *mongoOrders) Insert(ctx context.Context, o *models.Order) error {
	_, err := s.c.InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("store: insert order %s: %w", o.ID, err)
	}
	return nil
}

func (s *mongoOrders) Delete(ctx context.Context, id string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("store: delete order %s: %w", id, err)
	}
	return nil
}

func (s *mongoOrders) SetReviewed(ctx context.Context, id string, sellerReviewed bool) (*models.Order, error) {
	field := "redeemerReviewed"
	if sellerReviewed {
		field = "sellerReviewed"
	}

	// ReturnDocument(After) hands back the post-flip order so the caller can
	// tell whether this flip completed the pair.
	var o models.Order
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, field: false},
		bson.M{"$set": bson.M{field: true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, fmt.Errorf("store: recheck order %s: %w", id, cerr)
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("store: set %s on %s: %w", field, id, err)
	}
	return &o, nil
}

func (s *mongoOrders) ByParticipant(ctx context.Context, email string) ([]models.Order, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sellerEmail": email},
		bson.M{"redeemerEmail": email},
	}}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("store: scan orders: %w", err)
	}
	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("store: decode orders: %w", err)
	}
	return out, nil
}
