package models

import "time"

// OrderIDPrefix derives the deterministic order key from a listing id.
// One listing can have at most one order, ever.
const OrderIDPrefix = "order-"

// OrderID returns the order key for a listing.
func OrderID(listingID string) string { return OrderIDPrefix + listingID }

// Order is the fulfillment record created once a listing's disposition is
// settled. Both review flags start false; the order is finalizable only once
// both are true.
type Order struct {
	ID               string    `bson:"_id"              json:"orderID"`
	ListingID        string    `bson:"listingID"        json:"listingID"`
	TrackingNumber   string    `bson:"awb"              json:"awb"`
	SellerEmail      string    `bson:"sellerEmail"      json:"sellerEmail"`
	SellerPhone      string    `bson:"sellerPhone"      json:"sellerPhone"`
	RedeemerEmail    string    `bson:"redeemerEmail"    json:"redeemerEmail"`
	RedeemerPhone    string    `bson:"redeemerPhone"    json:"redeemerPhone"`
	PickupPoint      string    `bson:"pickupPoint"      json:"pickupPoint"`
	DropPoint        string    `bson:"dropPoint"        json:"dropPoint"`
	OrderDate        time.Time `bson:"orderDate"        json:"orderDate"`
	ExpirationDate   time.Time `bson:"expirationDate"   json:"expirationDate"`
	Cost             float64   `bson:"cost"             json:"cost"`
	SellerReviewed   bool      `bson:"sellerReviewed"   json:"sellerReviewed"`
	RedeemerReviewed bool      `bson:"redeemerReviewed" json:"redeemerReviewed"`
}

// BothReviewed reports whether the order is eligible for finalization.
func (o *Order) BothReviewed() bool {
	return o.SellerReviewed && o.RedeemerReviewed
}
