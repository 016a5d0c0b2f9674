package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/notify"
)

// SendStatusEmail is POST /api/email with {"data": {email, organizationName,
// status, rejectionReason}}.
func SendStatusEmail(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Data notify.StatusData `json:"data"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			badEmailRequest(c, err)
			return
		}
		task := cfg.Notifier.StatusChanged(context.WithoutCancel(c.Request.Context()), body.Data)
		respondEmail(c, task.Wait(), "Email sent successfully")
	}
}

// SendEventEmail is POST /api/email/event-notification.
func SendEventEmail(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Data notify.EventData `json:"data"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			badEmailRequest(c, err)
			return
		}
		task := cfg.Notifier.EventCreated(context.WithoutCancel(c.Request.Context()), body.Data)
		respondEmail(c, task.Wait(), "Event notification email sent successfully")
	}
}

// badEmailRequest answers a body that could not be bound, in the same shape
// as a validation failure.
func badEmailRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Missing required fields",
		"details": err.Error(),
		"code":    "EMISSING",
	})
}

func respondEmail(c *gin.Context, r notify.Result, success string) {
	if r.OK() {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": success})
		return
	}
	if r.Kind == notify.KindValidation {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(r), "details": r.Detail, "code": r.Code})
		return
	}
	c.JSON(r.HTTPStatus(), gin.H{
		"error":   "Failed to send email",
		"details": r.Detail,
		"code":    r.Code,
	})
}

func validationMessage(r notify.Result) string {
	if r.Code == "EINVALID" {
		return "Invalid status value"
	}
	return "Missing required fields"
}
