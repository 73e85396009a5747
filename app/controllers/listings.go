// Package controllers holds the HTTP handlers. Controllers are thin: bind
// and validate the body, pull the verified caller identity from the request
// context, call the service, and map the result through pkg/response.
package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/giftbid/app/models"
	"github.com/shashiranjanraj/giftbid/app/services"
	"github.com/shashiranjanraj/giftbid/pkg/bind"
	"github.com/shashiranjanraj/giftbid/pkg/middleware"
	"github.com/shashiranjanraj/giftbid/pkg/response"
)

type ListingsController struct {
	listings *services.ListingsService
}

func NewListingsController(listings *services.ListingsService) *ListingsController {
	return &ListingsController{listings: listings}
}

// Create handles POST /api/listings.
func (c *ListingsController) Create(w http.ResponseWriter, r *http.Request) {
	var in services.CreateListingInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	listing, err := c.listings.Create(r.Context(), in, middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, listing)
}

// Show handles GET /api/listings/{id}.
func (c *ListingsController) Show(w http.ResponseWriter, r *http.Request) {
	listing, err := c.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, listing)
}

// Update handles PUT /api/listings/{id}.
func (c *ListingsController) Update(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateDetailsInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	err := c.listings.UpdateDetails(r.Context(), chi.URLParam(r, "id"),
		middleware.Email(r.Context()), in, middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Listing updated"})
}

// Delete handles DELETE /api/listings/{id}.
func (c *ListingsController) Delete(w http.ResponseWriter, r *http.Request) {
	err := c.listings.Delete(r.Context(), chi.URLParam(r, "id"),
		middleware.Email(r.Context()), middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Listing deleted"})
}

// Redeem handles POST /api/listings/{id}/redeem — a donation claim.
func (c *ListingsController) Redeem(w http.ResponseWriter, r *http.Request) {
	err := c.listings.RedeemDonation(r.Context(), chi.URLParam(r, "id"),
		middleware.Email(r.Context()), middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Donation redeemed"})
}

// Browse handles GET /api/browse/{kind}.
func (c *ListingsController) Browse(w http.ResponseWriter, r *http.Request) {
	kind := models.Kind(chi.URLParam(r, "kind"))
	if kind != models.KindAuction && kind != models.KindDonation {
		response.Error(w, http.StatusBadRequest, "kind must be auction or donation")
		return
	}

	listings, err := c.listings.Browse(r.Context(), kind)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, listings)
}

// Today handles GET /api/browse/today.
func (c *ListingsController) Today(w http.ResponseWriter, r *http.Request) {
	listings, err := c.listings.Today(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, listings)
}
