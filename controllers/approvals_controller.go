package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phillip/ngo-admin-console/accounts"
	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/models"
	"github.com/phillip/ngo-admin-console/notify"
)

// ---------------- PENDING ----------------
func ListPendingNGOs(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		pending, err := cfg.Accounts.PendingNGOs(ctx)
		if err != nil {
			unavailable(c, cfg, "could not fetch pending NGOs", err)
			return
		}
		c.JSON(http.StatusOK, accounts.Filter(pending, c.Query("q"), accounts.NGOSearchFields))
	}
}

// ---------------- APPROVE ----------------
func ApproveNGO(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		acc, err := cfg.Accounts.Approve(ctx, c.Param("id"), actor(c))
		if err != nil {
			fail(c, cfg, "could not approve NGO", err)
			return
		}

		result := notifyStatus(c, cfg, acc, "approved", "")
		c.JSON(http.StatusOK, gin.H{
			"message":      "NGO approved successfully",
			"account":      acc,
			"notification": result,
		})
	}
}

// ---------------- REJECT ----------------
func RejectNGO(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Reason string `json:"reason"`
		}
		// the reason is optional; an empty body is fine
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		acc, err := cfg.Accounts.Reject(ctx, c.Param("id"), actor(c), input.Reason)
		if err != nil {
			fail(c, cfg, "could not reject NGO", err)
			return
		}

		result := notifyStatus(c, cfg, acc, "rejected", input.Reason)
		c.JSON(http.StatusOK, gin.H{
			"message":      "NGO rejected successfully",
			"account":      acc,
			"notification": result,
		})
	}
}

// notifyStatus sends the status email and waits for its outcome. The decision
// is already stored, so a failed email is reported but not fatal. The send
// outlives a disconnected client.
func notifyStatus(c *gin.Context, cfg *config.Config, acc models.NGOAccount, status, reason string) notify.Result {
	email := acc.Email
	if email == models.NoEmailAvailable {
		email = ""
	}
	ctx := context.WithoutCancel(c.Request.Context())
	return cfg.Notifier.StatusChanged(ctx, notify.StatusData{
		Email:            email,
		OrganizationName: acc.OrganizationName,
		Status:           status,
		RejectionReason:  reason,
	}).Wait()
}
