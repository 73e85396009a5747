package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/giftbid/app/services"
	"github.com/shashiranjanraj/giftbid/pkg/bind"
	"github.com/shashiranjanraj/giftbid/pkg/middleware"
	"github.com/shashiranjanraj/giftbid/pkg/response"
)

type OrdersController struct {
	orders *services.OrdersService
}

func NewOrdersController(orders *services.OrdersService) *OrdersController {
	return &OrdersController{orders: orders}
}

// Create handles POST /api/orders. The caller is the redeemer.
func (c *OrdersController) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ListingID   string `json:"listingID"   validate:"required"`
		SellerEmail string `json:"sellerEmail" validate:"required,email"`
	}
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.orders.Create(r.Context(), in.ListingID, in.SellerEmail,
		middleware.Email(r.Context()), middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, order)
}

// Refuse handles POST /api/listings/{id}/refuse. The caller is the seller.
func (c *OrdersController) Refuse(w http.ResponseWriter, r *http.Request) {
	err := c.orders.RefuseRedeemer(r.Context(), chi.URLParam(r, "id"),
		middleware.Email(r.Context()), middleware.Subject(r.Context()))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Redeemer refused"})
}
