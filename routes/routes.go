package routes

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/controllers"
	"github.com/phillip/ngo-admin-console/metrics"
	"github.com/phillip/ngo-admin-console/middleware"
)

const loginWindow = time.Minute

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// public
	r.GET("/healthz", controllers.Health(cfg))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	login := []gin.HandlerFunc{}
	if cfg.RedisClient != nil && cfg.App.LoginAttempts > 0 {
		limiter := middleware.NewLoginLimiter(cfg.RedisClient, cfg.App.LoginAttempts, loginWindow, cfg.Logger())
		login = append(login, limiter.Handler())
	}
	r.POST("/auth/login", append(login, controllers.Login(cfg))...)

	// protected
	auth := middleware.AuthMiddleware(cfg)

	session := r.Group("/auth")
	session.Use(auth)
	{
		session.POST("/logout", controllers.Logout(cfg))
		session.GET("/me", controllers.Me(cfg))
	}

	r.GET("/dashboard", auth, controllers.Dashboard(cfg))

	ngos := r.Group("/ngo-accounts")
	ngos.Use(auth)
	{
		ngos.GET("", controllers.ListNGOAccounts(cfg))
		ngos.GET("/:id", controllers.GetNGOAccount(cfg))
		ngos.PATCH("/:id", controllers.UpdateNGOAccount(cfg))
		ngos.DELETE("/:id", controllers.DeleteNGOAccount(cfg))
	}

	volunteers := r.Group("/volunteer-accounts")
	volunteers.Use(auth)
	{
		volunteers.GET("", controllers.ListVolunteerAccounts(cfg))
		volunteers.GET("/:id", controllers.GetVolunteerAccount(cfg))
		volunteers.PATCH("/:id", controllers.UpdateVolunteerAccount(cfg))
		volunteers.DELETE("/:id", controllers.DeleteVolunteerAccount(cfg))
	}

	approval := r.Group("/ngo-approval")
	approval.Use(auth)
	{
		approval.GET("", controllers.ListPendingNGOs(cfg))
		approval.POST("/:id/approve", controllers.ApproveNGO(cfg))
		approval.POST("/:id/reject", controllers.RejectNGO(cfg))
	}

	events := r.Group("/events")
	events.Use(auth)
	{
		events.POST("", controllers.CreateEvent(cfg))
		events.GET("", controllers.ListEvents(cfg))
		events.GET("/:id", controllers.GetEvent(cfg))
		events.PATCH("/:id", controllers.UpdateEvent(cfg))
		events.DELETE("/:id", controllers.DeleteEvent(cfg))
	}

	email := r.Group("/api/email")
	email.Use(auth)
	{
		email.POST("", controllers.SendStatusEmail(cfg))
		email.POST("/event-notification", controllers.SendEventEmail(cfg))
	}
}
