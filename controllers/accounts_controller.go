package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phillip/ngo-admin-console/accounts"
	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/models"
)

// ---------------- NGO ACCOUNTS ----------------

func ListNGOAccounts(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		list, err := cfg.Accounts.ListNGOs(ctx)
		if err != nil {
			unavailable(c, cfg, "could not fetch NGO accounts", err)
			return
		}
		c.JSON(http.StatusOK, accounts.Filter(list, c.Query("q"), accounts.NGOSearchFields))
	}
}

func GetNGOAccount(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		acc, err := cfg.Accounts.GetNGO(ctx, c.Param("id"))
		if err != nil {
			fail(c, cfg, "could not fetch NGO account", err)
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}

func UpdateNGOAccount(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input accounts.NGOUpdate
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		acc, err := cfg.Accounts.UpdateNGO(ctx, c.Param("id"), input, actor(c))
		if err != nil {
			fail(c, cfg, "could not update NGO account", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "NGO account updated successfully", "account": acc})
	}
}

func DeleteNGOAccount(cfg *config.Config) gin.HandlerFunc {
	return deleteAccount(cfg, models.RoleNGO)
}

// ---------------- VOLUNTEER ACCOUNTS ----------------

func ListVolunteerAccounts(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		list, err := cfg.Accounts.ListVolunteers(ctx)
		if err != nil {
			unavailable(c, cfg, "could not fetch volunteer accounts", err)
			return
		}
		c.JSON(http.StatusOK, accounts.Filter(list, c.Query("q"), accounts.VolunteerSearchFields))
	}
}

func GetVolunteerAccount(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		acc, err := cfg.Accounts.GetVolunteer(ctx, c.Param("id"))
		if err != nil {
			fail(c, cfg, "could not fetch volunteer account", err)
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}

func UpdateVolunteerAccount(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input accounts.VolunteerUpdate
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		acc, err := cfg.Accounts.UpdateVolunteer(ctx, c.Param("id"), input, actor(c))
		if err != nil {
			fail(c, cfg, "could not update volunteer account", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Volunteer account updated successfully", "account": acc})
	}
}

func DeleteVolunteerAccount(cfg *config.Config) gin.HandlerFunc {
	return deleteAccount(cfg, models.RoleVolunteer)
}

// deleteAccount removes the users row; ?cascade=true removes the profile too.
func deleteAccount(cfg *config.Config, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cascade, _ := strconv.ParseBool(c.DefaultQuery("cascade", "false"))
		id := c.Param("id")

		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		if err := cfg.Accounts.Delete(ctx, id, role, cascade, actor(c)); err != nil {
			fail(c, cfg, "could not delete account", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "account deleted successfully",
			"id":      id,
			"cascade": cascade,
		})
	}
}
