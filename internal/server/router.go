package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	handler "auction-house/services/auction/handler"
)

// AccountService is what the router needs from the identity collaborator
type AccountService interface {
	handler.AccountServiceInterface
	TokenValidator
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService handler.AuctionServiceInterface, accountService AccountService) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(MetricsMiddleware)

	auctionHandler := handler.NewAuctionHandler(auctionService)
	accountHandler := handler.NewAccountHandler(accountService)
	requireAuth := AuthMiddleware(accountService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/auth")
	{
		auth.POST("/register", accountHandler.RegisterHandler)
		auth.POST("/login", accountHandler.LoginHandler)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", auctionHandler.ListCategoriesHandler)
		categories.GET("/:name/listings", auctionHandler.ListByCategoryHandler)
	}

	listings := router.Group("/listings")
	{
		listings.GET("", auctionHandler.ListActiveListingsHandler)
		listings.GET("/:listing_id", auctionHandler.GetListingHandler)
		listings.GET("/:listing_id/bids", auctionHandler.GetBidsHandler)
		listings.GET("/:listing_id/winning", auctionHandler.GetWinningBidHandler)
		listings.GET("/:listing_id/price", auctionHandler.GetPriceHandler)
		listings.GET("/:listing_id/comments", auctionHandler.ListCommentsHandler)
		listings.GET("/:listing_id/watchers", auctionHandler.ListWatchersHandler)

		listings.POST("", requireAuth, auctionHandler.CreateListingHandler)
		listings.POST("/:listing_id/close", requireAuth, auctionHandler.CloseListingHandler)
		listings.POST("/:listing_id/bids", requireAuth, auctionHandler.PlaceBidHandler)
		listings.POST("/:listing_id/comments", requireAuth, auctionHandler.AddCommentHandler)
		listings.POST("/:listing_id/watch", requireAuth, auctionHandler.ToggleWatchHandler)
	}

	router.GET("/watchlist", requireAuth, auctionHandler.ListWatchlistHandler)

	users := router.Group("/users")
	{
		users.GET("/:user_id/listings", auctionHandler.GetListingsByBidderHandler)
	}

	return router
}
