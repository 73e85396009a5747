package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/giftbid/app/services"
	"github.com/shashiranjanraj/giftbid/pkg/bind"
	"github.com/shashiranjanraj/giftbid/pkg/middleware"
	"github.com/shashiranjanraj/giftbid/pkg/response"
)

type ReviewsController struct {
	reviews *services.ReviewsService
}

func NewReviewsController(reviews *services.ReviewsService) *ReviewsController {
	return &ReviewsController{reviews: reviews}
}

// Submit handles POST /api/listings/{id}/reviews.
func (c *ReviewsController) Submit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message" validate:"required,max=1000"`
		Rating  int    `json:"rating"  validate:"required,gte=1,lte=5"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	err := c.reviews.Submit(r.Context(), chi.URLParam(r, "id"),
		middleware.Email(r.Context()), in.Message, in.Rating,
		middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, map[string]string{"message": "Review submitted"})
}
