package models

// Review is embedded in the reviewed user's review sequence; it is not
// separately addressable.
type Review struct {
	Message     string `bson:"message"     json:"message"`
	Rating      int    `bson:"rating"      json:"rating"`
	WriterEmail string `bson:"writerEmail" json:"writerEmail"`
	WriterName  string `bson:"writerName"  json:"writerName"`
}

// Notification is an entry appended to a user's notification sequence.
// Redirect is the client-side path the notification links to.
type Notification struct {
	Message  string `bson:"message"  json:"message"`
	Redirect string `bson:"redirect" json:"redirect"`
}

// User is keyed by email. UserID is the subject identifier bound by the
// external identity provider at account creation; it never changes, and every
// mutating operation checks the caller's verified subject against it.
type User struct {
	Email         string         `bson:"_id"           json:"userEmail"`
	UserID        string         `bson:"userID"        json:"userID"`
	Name          string         `bson:"name"          json:"name"`
	PhoneNumber   string         `bson:"phoneNumber"   json:"phoneNumber"`
	Country       string         `bson:"country"       json:"country"`
	County        string         `bson:"county"        json:"county"`
	City          string         `bson:"city"          json:"city"`
	Address       string         `bson:"address"       json:"address"`
	PostalCode    string         `bson:"postalCode"    json:"postalCode"`
	AverageRating float64        `bson:"averageRating" json:"averageRating"`
	ListingIDs    []string       `bson:"listingsIDs"   json:"listingsIDs"`
	RedeemedIDs   []string       `bson:"redeemedIDs"   json:"redeemedIDs"`
	WishlistIDs   []string       `bson:"wishlistIDs"   json:"wishlistIDs"`
	Reviews       []Review       `bson:"reviews"       json:"reviews"`
	Notifications []Notification `bson:"notifications" json:"notifications"`
}

// Owns reports whether the user's listing sequence contains id.
func (u *User) Owns(id string) bool {
	return containsString(u.ListingIDs, id)
}

// Redeemed reports whether the user's redeemed sequence contains id.
func (u *User) Redeemed(id string) bool {
	return containsString(u.RedeemedIDs, id)
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
