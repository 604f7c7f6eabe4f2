package server

import (
	"auction-site/internal/config"
	auctionHandler "auction-site/services/auctions/handler"
	biddingHandler "auction-site/services/bidding/handler"
	systemHandler "auction-site/services/system/handler"
	userHandler "auction-site/services/users/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies are the services the router exposes
type Dependencies struct {
	Users    userHandler.UserServiceInterface
	Auth     Authenticator
	Auctions auctionHandler.AuctionServiceInterface
	Bidding  biddingHandler.BiddingServiceInterface
	Seeder   systemHandler.Seeder
	Images   systemHandler.ImageClearer
	Checks   []systemHandler.Check
}

func corsConfig(c config.CORSConfig) cors.Config {
	cfg := cors.Config{
		AllowMethods:     c.AllowMethods,
		AllowHeaders:     c.AllowHeaders,
		ExposeHeaders:    c.ExposeHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge.Duration,
	}
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(c.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = c.AllowOrigins
	return cfg
}

// SetupRouter configures all Gin routes for the application under /api/v1
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestIDMiddleware)     // tag each request
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(cors.New(corsConfig(cfg.CORS)))

	users := userHandler.NewUserHandler(deps.Users, cfg.Images.MaxBytes)
	auctions := auctionHandler.NewAuctionHandler(deps.Auctions, cfg.Images.MaxBytes)
	bids := biddingHandler.NewBiddingHandler(deps.Bidding)
	system := systemHandler.NewSystemHandler(deps.Seeder, deps.Images, deps.Checks...)

	requireAuth := RequireAuth(deps.Auth)
	optionalAuth := OptionalAuth(deps.Auth)

	api := router.Group("/api/v1")

	userRoutes := api.Group("/users")
	{
		userRoutes.POST("/register", users.RegisterHandler)
		userRoutes.POST("/login", users.LoginHandler)
		userRoutes.POST("/logout", requireAuth, users.LogoutHandler)
		userRoutes.GET("/:id", optionalAuth, users.GetUserHandler)
		userRoutes.PATCH("/:id", requireAuth, users.UpdateUserHandler)
		userRoutes.GET("/:id/image", users.GetUserImageHandler)
		userRoutes.PUT("/:id/image", requireAuth, users.SetUserImageHandler)
		userRoutes.DELETE("/:id/image", requireAuth, users.DeleteUserImageHandler)
	}

	auctionRoutes := api.Group("/auctions")
	{
		auctionRoutes.GET("", auctions.ListAuctionsHandler)
		auctionRoutes.POST("", requireAuth, auctions.CreateAuctionHandler)
		auctionRoutes.GET("/categories", auctions.ListCategoriesHandler)
		auctionRoutes.GET("/:id", auctions.GetAuctionHandler)
		auctionRoutes.PATCH("/:id", requireAuth, auctions.UpdateAuctionHandler)
		auctionRoutes.DELETE("/:id", requireAuth, auctions.DeleteAuctionHandler)
		auctionRoutes.GET("/:id/image", auctions.GetAuctionImageHandler)
		auctionRoutes.PUT("/:id/image", requireAuth, auctions.SetAuctionImageHandler)
		auctionRoutes.GET("/:id/bids", bids.GetBidsHandler)
		auctionRoutes.POST("/:id/bids", requireAuth, bids.PlaceBidHandler)
	}

	api.GET("/health", system.HealthHandler)
	if !cfg.IsProd() && deps.Seeder != nil {
		api.POST("/reset", system.ResetHandler)
		api.POST("/resample", system.ResampleHandler)
		api.POST("/reload", system.ReloadHandler)
	}

	return router
}
