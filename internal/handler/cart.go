package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/ecom-cart-api/internal/dto"
	"github.com/flicky/ecom-cart-api/internal/model"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	AddItem(ctx context.Context, userID, productID, variationID uuid.UUID, quantity int) (*model.CartItem, error)
	IncreaseQuantity(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error)
	DecreaseQuantity(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error)
}

type CartHandler struct {
	svc CartService
	log *slog.Logger
}

func NewCartHandler(svc CartService, log *slog.Logger) *CartHandler {
	return &CartHandler{svc: svc, log: log}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	cart, err := h.svc.GetCart(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if cart == nil {
		respond(c, http.StatusOK, "cart is empty", nil)
		return
	}
	respond(c, http.StatusOK, "cart fetched", dto.ToCartResponse(cart))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.svc.AddItem(c.Request.Context(), userID, req.ProductID, req.VariationID, req.Quantity)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "item added to cart", dto.ToCartItemResponse(item))
}

func (h *CartHandler) IncreaseQuantity(c *gin.Context) {
	h.mutateItem(c, h.svc.IncreaseQuantity, "quantity increased")
}

func (h *CartHandler) DecreaseQuantity(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.svc.DecreaseQuantity(c.Request.Context(), userID, req.CartItemID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if item == nil {
		respond(c, http.StatusOK, "item removed from cart", nil)
		return
	}
	respond(c, http.StatusOK, "quantity decreased", dto.ToCartItemResponse(item))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	h.mutateItem(c, h.svc.RemoveItem, "item removed from cart")
}

func (h *CartHandler) mutateItem(
	c *gin.Context,
	op func(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error),
	message string,
) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := op(c.Request.Context(), userID, req.CartItemID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, message, dto.ToCartItemResponse(item))
}
