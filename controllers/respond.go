package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phillip/ngo-admin-console/accounts"
	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/middleware"
	"github.com/phillip/ngo-admin-console/store"
)

const defaultRequestTimeout = 10 * time.Second

// requestContext bounds the store calls of one request.
func requestContext(c *gin.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	timeout := cfg.App.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

// actor names the admin acting on this request.
func actor(c *gin.Context) string {
	if s, ok := middleware.SessionFrom(c); ok {
		return s.Username
	}
	return ""
}

// unavailable answers a failed read; the caller keeps whatever it showed
// before and may retry.
func unavailable(c *gin.Context, cfg *config.Config, msg string, err error) {
	cfg.Logger().Errorw(msg, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg, "retryable": true})
}

// fail maps a service error to a response.
func fail(c *gin.Context, cfg *config.Config, msg string, err error) {
	var verr *accounts.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, accounts.ErrNotFound), errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, accounts.ErrNoProfile):
		c.JSON(http.StatusNotFound, gin.H{"error": "NGO profile not found"})
	case errors.Is(err, accounts.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "NGO is not pending approval"})
	case errors.Is(err, store.ErrNoFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
	default:
		unavailable(c, cfg, msg, err)
	}
}
