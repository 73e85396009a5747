package routes

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/giftbid/app/controllers"
	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/services"
	"github.com/shashiranjanraj/giftbid/pkg/metrics"
	"github.com/shashiranjanraj/giftbid/pkg/middleware"
	"github.com/shashiranjanraj/giftbid/pkg/router"
	"github.com/shashiranjanraj/giftbid/pkg/ws"
)

// Services bundles the constructed service layer for route registration and
// for the scheduler, which shares the sweep service with the CLI.
type Services struct {
	Listings *services.ListingsService
	Bidding  *services.BiddingService
	Orders   *services.OrdersService
	Reviews  *services.ReviewsService
	Users    *services.UsersService
	Sweep    *services.SweepService
}

// RegisterAPI mounts every route on r.
func RegisterAPI(r *router.Router, svc Services) {
	listingsCtl := controllers.NewListingsController(svc.Listings)
	bidsCtl := controllers.NewBidsController(svc.Bidding)
	ordersCtl := controllers.NewOrdersController(svc.Orders)
	reviewsCtl := controllers.NewReviewsController(svc.Reviews)
	usersCtl := controllers.NewUsersController(svc.Users, svc.Listings)

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Handle("/ws/listings", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws.Upgrade(w, req, notify.Feed)
	}))

	api := r.Group("/api")
	api.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public browsing.
	api.Get("/browse/today", "browse.today", listingsCtl.Today)
	api.Get("/browse/{kind}", "browse.kind", listingsCtl.Browse)
	api.Get("/listings/{id}", "listings.show", listingsCtl.Show)
	api.Post("/contact", "contact", usersCtl.Contact, middleware.RateLimit(10, time.Minute))

	// Everything below requires a verified token.
	protected := api.Group("", middleware.Auth)

	protected.Post("/users", "users.create", usersCtl.Create)
	protected.Get("/users/me", "users.me", usersCtl.Me)
	protected.Put("/users/me", "users.update", usersCtl.UpdateMe)
	protected.Get("/users/me/listings", "users.listings", usersCtl.MyListings)
	protected.Get("/users/me/redeems", "users.redeems", usersCtl.MyRedeems)
	protected.Get("/users/me/orders", "users.orders", usersCtl.MyOrders)

	protected.Post("/listings", "listings.create", listingsCtl.Create)
	protected.Put("/listings/{id}", "listings.update", listingsCtl.Update)
	protected.Delete("/listings/{id}", "listings.delete", listingsCtl.Delete)
	protected.Post("/listings/{id}/bids", "bids.place", bidsCtl.Place)
	protected.Post("/listings/{id}/redeem", "listings.redeem", listingsCtl.Redeem)
	protected.Post("/listings/{id}/refuse", "listings.refuse", ordersCtl.Refuse)
	protected.Post("/listings/{id}/reviews", "reviews.submit", reviewsCtl.Submit)
	protected.Post("/orders", "orders.create", ordersCtl.Create)
}
