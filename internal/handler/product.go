package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/ecom-cart-api/internal/dto"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetVariationStock(ctx context.Context, productID, variationID uuid.UUID, stock int) (*dto.VariationResponse, error)
}

type ProductHandler struct {
	productService ProductService
	log            *slog.Logger
}

func NewProductHandler(productService ProductService, log *slog.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, log: log}
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	respond(c, http.StatusCreated, "product created", resp)
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid product ID")
	if !ok {
		return
	}

	resp, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "product fetched", resp)
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.productService.List(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "products fetched", resp)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid product ID")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "product updated", resp)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "invalid product ID")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		fail(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "product deleted", nil)
}

func (h *ProductHandler) SetVariationStock(c *gin.Context) {
	productID, ok := pathID(c, "id", "invalid product ID")
	if !ok {
		return
	}
	variationID, ok := pathID(c, "variationId", "invalid variation ID")
	if !ok {
		return
	}

	var req dto.SetStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.productService.SetVariationStock(c.Request.Context(), productID, variationID, *req.Stock)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	respond(c, http.StatusOK, "stock updated", resp)
}

func pathID(c *gin.Context, param, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		respond(c, http.StatusBadRequest, message, nil)
		return uuid.Nil, false
	}
	return id, true
}
