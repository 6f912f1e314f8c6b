package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auction-house/services/auction/helpers"
	"auction-house/utils"
)

// ToggleWatchHandler handles POST /listings/:listing_id/watch
func (h *AuctionHandler) ToggleWatchHandler(c *gin.Context) {
	userID, ok := helpers.RequireUser(c, "ToggleWatchHandler")
	if !ok {
		return
	}
	listingID := c.Param("listing_id")

	watching, err := h.service.ToggleWatchlist(c.Request.Context(), userID, listingID)
	if err != nil {
		helpers.HandleServiceError(c, "ToggleWatchHandler", err, map[string]any{"listing_id": listingID, "user_id": userID})
		return
	}

	message := "listing removed from watchlist"
	if watching {
		message = "listing added to watchlist"
	}
	utils.JSONResponse(c, http.StatusOK, helpers.WatchResponse{ListingID: listingID, Watching: watching}, message)
	helpers.LogSuccess("ToggleWatchHandler", message, map[string]any{"listing_id": listingID, "user_id": userID})
}

// ListWatchersHandler handles GET /listings/:listing_id/watchers
func (h *AuctionHandler) ListWatchersHandler(c *gin.Context) {
	listingID := c.Param("listing_id")

	watchers, err := h.service.ListWatchers(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "ListWatchersHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewUserResponses(watchers), "watchers retrieved successfully")
}

// ListWatchlistHandler handles GET /watchlist
func (h *AuctionHandler) ListWatchlistHandler(c *gin.Context) {
	userID, ok := helpers.RequireUser(c, "ListWatchlistHandler")
	if !ok {
		return
	}

	summaries, err := h.service.ListWatchlist(c.Request.Context(), userID)
	if err != nil {
		helpers.HandleServiceError(c, "ListWatchlistHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewSummaryResponses(summaries), "watchlist retrieved successfully")
}

// AddCommentHandler handles POST /listings/:listing_id/comments
func (h *AuctionHandler) AddCommentHandler(c *gin.Context) {
	userID, ok := helpers.RequireUser(c, "AddCommentHandler")
	if !ok {
		return
	}
	listingID := c.Param("listing_id")

	var req helpers.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AddCommentHandler", err)
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), userID, listingID, req.Text)
	if err != nil {
		helpers.HandleServiceError(c, "AddCommentHandler", err, map[string]any{"listing_id": listingID, "user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewCommentResponse(comment), "comment added successfully")
	helpers.LogSuccess("AddCommentHandler", "comment added successfully", map[string]any{
		"comment_id": comment.CommentID,
		"listing_id": listingID,
		"user_id":    userID,
	})
}

// ListCommentsHandler handles GET /listings/:listing_id/comments
func (h *AuctionHandler) ListCommentsHandler(c *gin.Context) {
	listingID := c.Param("listing_id")

	comments, err := h.service.ListComments(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "ListCommentsHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewCommentResponses(comments), "comments retrieved successfully")
}

// ListCategoriesHandler handles GET /categories
func (h *AuctionHandler) ListCategoriesHandler(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "ListCategoriesHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewCategoryResponses(categories), "categories retrieved successfully")
}

// ListByCategoryHandler handles GET /categories/:name/listings
func (h *AuctionHandler) ListByCategoryHandler(c *gin.Context) {
	name := c.Param("name")

	summaries, err := h.service.ListByCategory(c.Request.Context(), name)
	if err != nil {
		helpers.HandleServiceError(c, "ListByCategoryHandler", err, map[string]any{"category": name})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewSummaryResponses(summaries), "listings retrieved successfully")
	helpers.LogSuccess("ListByCategoryHandler", "listings retrieved successfully", map[string]any{
		"category": name,
		"count":    len(summaries),
	})
}
