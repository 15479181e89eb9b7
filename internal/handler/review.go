package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/ecom-cart-api/internal/dto"
)

type ReviewService interface {
	Create(ctx context.Context, userID, productID uuid.UUID, req dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	List(ctx context.Context, productID uuid.UUID, req dto.ListReviewsRequest) (*dto.ReviewListResponse, error)
}

type ReviewHandler struct {
	svc ReviewService
	log *slog.Logger
}

func NewReviewHandler(svc ReviewService, log *slog.Logger) *ReviewHandler {
	return &ReviewHandler{svc: svc, log: log}
}

func (h *ReviewHandler) List(c *gin.Context) {
	productID, ok := pathID(c, "id", "invalid product ID")
	if !ok {
		return
	}
	var req dto.ListReviewsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.List(c.Request.Context(), productID, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "product reviews fetched", resp)
}

func (h *ReviewHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id", "invalid product ID")
	if !ok {
		return
	}
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Create(c.Request.Context(), userID, productID, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "review created", resp)
}
