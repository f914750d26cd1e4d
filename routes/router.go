package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/config"
	"github.com/songbirdapp/songbird/controllers"
	"github.com/songbirdapp/songbird/middleware"
	"github.com/songbirdapp/songbird/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.FrontendURL == "" || cfg.FrontendURL == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.FrontendURL}
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	entryController := controllers.NewEntryController(db)
	streakController := controllers.NewStreakController(db)
	birdController := controllers.NewBirdController(db)
	milestoneController := controllers.NewMilestoneController(db)
	commentController := controllers.NewCommentController(db)
	friendController := controllers.NewFriendController(db)
	notificationController := controllers.NewNotificationController(db)
	pushController := controllers.NewPushController(db)
	checkoutController := controllers.NewCheckoutController(db)
	waitlistController := controllers.NewWaitlistController(db)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit("auth", 20, time.Minute))
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.Auth(), authController.Logout)
	authGroup.GET("/me", middleware.Auth(), authController.Me)
	authGroup.PATCH("/profile", middleware.Auth(), authController.UpdateProfile)

	// public surface
	api.GET("/stats", statsController.Get)
	api.GET("/users/:username", authController.ProfileByUsername)
	waitlistGroup := api.Group("/waitlist", middleware.RateLimit("waitlist", 30, time.Minute))
	waitlistGroup.POST("/join", waitlistController.Join)
	waitlistGroup.GET("/count", waitlistController.Count)
	waitlistGroup.GET("/status", waitlistController.Status)
	api.GET("/config/app", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"vapid_public_key": cfg.VAPIDPublicKey})
	})
	api.POST("/webhooks/stripe", checkoutController.Webhook)

	protected := api.Group("")
	protected.Use(middleware.Auth(), middleware.RateLimit("api", 120, time.Minute))

	protected.POST("/entries", entryController.Create)
	protected.GET("/entries", entryController.List)
	// Detail also serves /entries/today and /entries/on-this-day
	protected.GET("/entries/:id", entryController.Detail)
	protected.DELETE("/entries/:id", entryController.Delete)

	protected.GET("/streak", streakController.Get)
	protected.POST("/streak", streakController.Restore)

	protected.GET("/birds", birdController.List)
	protected.POST("/birds/select", birdController.Select)

	protected.GET("/milestones", milestoneController.Get)

	protected.GET("/entries/:id/comments", commentController.List)
	protected.POST("/entries/:id/comments", commentController.Create)
	protected.DELETE("/comments/:commentId", commentController.Delete)
	protected.POST("/entries/:id/vibes", commentController.ToggleVibe)

	protected.POST("/friends/requests", friendController.Request)
	protected.PATCH("/friends/requests/:id", friendController.Respond)
	protected.GET("/friends", friendController.List)
	protected.GET("/friends/today", entryController.FriendsToday)
	protected.DELETE("/friends/:id", friendController.Remove)

	protected.GET("/notifications", notificationController.List)
	protected.POST("/notifications/read", notificationController.MarkRead)
	protected.GET("/notifications/preferences", notificationController.GetPreferences)
	protected.PUT("/notifications/preferences", notificationController.UpdatePreferences)

	protected.POST("/push/subscribe", pushController.Subscribe)
	protected.DELETE("/push/subscribe", pushController.Unsubscribe)

	protected.POST("/checkout/birds", checkoutController.CreateBirdSession)
	protected.POST("/checkout/premium", checkoutController.CreatePremiumSession)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
