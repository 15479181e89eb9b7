package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/ecom-cart-api/internal/middleware"
	"github.com/flicky/ecom-cart-api/internal/service"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: status < http.StatusBadRequest, Message: message, Data: data})
}

func badRequest(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, err.Error(), nil)
}

// fail maps the service error taxonomy onto HTTP statuses. Internal causes
// are logged and replaced by a generic message.
func fail(c *gin.Context, log *slog.Logger, err error) {
	var stockErr *service.StockError
	switch {
	case errors.As(err, &stockErr):
		respond(c, http.StatusBadRequest, stockErr.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respond(c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		respond(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidInput):
		respond(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrAlreadyExists):
		respond(c, http.StatusConflict, err.Error(), nil)
	default:
		_ = c.Error(err)
		log.ErrorContext(c.Request.Context(), "request failed",
			slog.String("route", c.FullPath()),
			slog.String("error", err.Error()),
		)
		respond(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// callerID reads the id AuthMiddleware stored. It never trusts ids from the
// request body.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respond(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return p.ID, true
}
