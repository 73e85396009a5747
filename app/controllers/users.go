package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/giftbid/app/services"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/pkg/bind"
	"github.com/shashiranjanraj/giftbid/pkg/middleware"
	"github.com/shashiranjanraj/giftbid/pkg/response"
)

type UsersController struct {
	users    *services.UsersService
	listings *services.ListingsService
}

func NewUsersController(users *services.UsersService, listings *services.ListingsService) *UsersController {
	return &UsersController{users: users, listings: listings}
}

// Create handles POST /api/users — the post-signup account binding.
// Email and subject come from the verified token, never the body.
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name  string `json:"name"        validate:"required,max=120"`
		Phone string `json:"phoneNumber" validate:"required,max=20"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.users.Create(r.Context(), middleware.Email(r.Context()),
		middleware.Subject(r.Context()), in.Name, in.Phone)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, user)
}

// Me handles GET /api/users/me.
func (c *UsersController) Me(w http.ResponseWriter, r *http.Request) {
	user, err := c.users.Get(r.Context(), middleware.Email(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, user)
}

// UpdateMe handles PUT /api/users/me.
func (c *UsersController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Country    *string `json:"country"`
		County     *string `json:"county"`
		City       *string `json:"city"`
		Address    *string `json:"address"`
		PostalCode *string `json:"postalCode"`
		Phone      *string `json:"phoneNumber"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	patch := store.ProfilePatch{
		Country:    in.Country,
		County:     in.County,
		City:       in.City,
		Address:    in.Address,
		PostalCode: in.PostalCode,
		Phone:      in.Phone,
	}
	err := c.users.UpdateProfile(r.Context(), middleware.Email(r.Context()),
		patch, middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Profile updated"})
}

// MyListings handles GET /api/users/me/listings.
func (c *UsersController) MyListings(w http.ResponseWriter, r *http.Request) {
	listings, err := c.listings.BySeller(r.Context(), middleware.Email(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, listings)
}

// MyRedeems handles GET /api/users/me/redeems.
func (c *UsersController) MyRedeems(w http.ResponseWriter, r *http.Request) {
	listings, err := c.listings.ByRedeemer(r.Context(), middleware.Email(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, listings)
}

// MyOrders handles GET /api/users/me/orders.
func (c *UsersController) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := c.users.OrdersFor(r.Context(), middleware.Email(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, orders)
}

// Contact handles POST /api/contact — no account required.
func (c *UsersController) Contact(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name    string `json:"name"    validate:"required,max=120"`
		Email   string `json:"email"   validate:"required,email"`
		Message string `json:"message" validate:"required,max=4000"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.users.Contact(r.Context(), in.Name, in.Email, in.Message); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Message sent"})
}
