package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phillip/ngo-admin-console/auth"
	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/middleware"
)

// ---------------- LOGIN ----------------
func Login(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}

		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		admin, err := auth.Authenticate(ctx, cfg.DB, input.Username, input.Password)
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		case errors.Is(err, auth.ErrNotAdmin):
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied. Only admins can log in."})
			return
		case err != nil:
			unavailable(c, cfg, "login failed", err)
			return
		}

		token, claims, err := cfg.Tokens.Issue(admin.ID, admin.Username, admin.Role)
		if err != nil {
			cfg.Logger().Errorw("could not sign token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}

		cfg.Logger().Infow("admin logged in", "username", admin.Username)
		c.JSON(http.StatusOK, gin.H{
			"token":     token,
			"expiresAt": claims.ExpiresAt.Time,
			"user":      admin,
		})
	}
}

// ---------------- LOGOUT ----------------
func Logout(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		if err := cfg.Revoker.Revoke(ctx, s.TokenID, s.ExpiresAt); err != nil {
			unavailable(c, cfg, "could not log out", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

// ---------------- ME ----------------
func Me(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":        s.UserID,
			"username":  s.Username,
			"role":      s.Role,
			"expiresAt": s.ExpiresAt,
		})
	}
}
