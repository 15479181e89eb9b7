package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/ecom-cart-api/internal/dto"
)

type UserService interface {
	List(ctx context.Context, req dto.ListUsersRequest) (*dto.UserListResponse, error)
}

type UserHandler struct {
	svc UserService
	log *slog.Logger
}

func NewUserHandler(svc UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

// List is admin-only; the router guards it.
func (h *UserHandler) List(c *gin.Context) {
	var req dto.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.List(c.Request.Context(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "users fetched", resp)
}
