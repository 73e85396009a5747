package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/giftbid/app/services"
	"github.com/shashiranjanraj/giftbid/pkg/bind"
	"github.com/shashiranjanraj/giftbid/pkg/middleware"
	"github.com/shashiranjanraj/giftbid/pkg/response"
)

type BidsController struct {
	bidding *services.BiddingService
}

func NewBidsController(bidding *services.BiddingService) *BidsController {
	return &BidsController{bidding: bidding}
}

// Place handles POST /api/listings/{id}/bids.
func (c *BidsController) Place(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount float64 `json:"amount" validate:"required,gt=0"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	bid, err := c.bidding.PlaceBid(r.Context(), chi.URLParam(r, "id"),
		middleware.Email(r.Context()), in.Amount, middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, bid)
}
