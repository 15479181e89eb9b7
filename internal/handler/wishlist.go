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

type WishlistService interface {
	GetWishlist(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID) (*model.WishlistItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.WishlistItem, error)
}

type WishlistHandler struct {
	svc WishlistService
	log *slog.Logger
}

func NewWishlistHandler(svc WishlistService, log *slog.Logger) *WishlistHandler {
	return &WishlistHandler{svc: svc, log: log}
}

func (h *WishlistHandler) GetWishlist(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	w, err := h.svc.GetWishlist(c.Request.Context(), userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if w == nil {
		respond(c, http.StatusOK, "wishlist is empty", nil)
		return
	}
	respond(c, http.StatusOK, "wishlist fetched", dto.ToWishlistResponse(w))
}

func (h *WishlistHandler) AddItem(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.svc.AddItem(c.Request.Context(), userID, req.ProductID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "product added to wishlist", dto.ToWishlistItemResponse(item))
}

func (h *WishlistHandler) RemoveItem(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req dto.WishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	item, err := h.svc.RemoveItem(c.Request.Context(), userID, req.WishlistItemID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "product removed from wishlist", dto.ToWishlistItemResponse(item))
}
