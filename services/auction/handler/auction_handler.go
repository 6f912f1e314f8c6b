package handler

//go:generate mockgen -source=auction_handler.go -destination=mock_auction_service.go -package=handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	auction "auction-house/internal/auctionService"
	model "auction-house/internal/models"
	"auction-house/services/auction/helpers"
	"auction-house/utils"
)

type AuctionServiceInterface interface {
	CreateListing(ctx context.Context, sellerID string, in auction.NewListing) (model.Listing, error)
	CloseListing(ctx context.Context, requesterID, listingID string) (model.Listing, error)
	GetListing(ctx context.Context, listingID string) (auction.ListingView, error)
	ListActiveListings(ctx context.Context) ([]auction.ListingSummary, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)
	PlaceBid(ctx context.Context, bidderID, listingID string, amount decimal.Decimal) (model.Bid, error)
	GetBidsForListing(ctx context.Context, listingID string) ([]model.Bid, error)
	CurrentHighBid(ctx context.Context, listingID string) (decimal.Decimal, error)
	GetWinningBid(ctx context.Context, listingID string) (model.Bid, error)
	ToggleWatchlist(ctx context.Context, userID, listingID string) (bool, error)
	ListWatchers(ctx context.Context, listingID string) ([]model.User, error)
	ListWatchlist(ctx context.Context, userID string) ([]auction.ListingSummary, error)
	AddComment(ctx context.Context, authorID, listingID, text string) (model.Comment, error)
	ListComments(ctx context.Context, listingID string) ([]model.Comment, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListByCategory(ctx context.Context, name string) ([]auction.ListingSummary, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateListingHandler handles POST /listings
func (h *AuctionHandler) CreateListingHandler(c *gin.Context) {
	userID, ok := helpers.RequireUser(c, "CreateListingHandler")
	if !ok {
		return
	}

	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), userID, auction.NewListing{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		StartingBid: req.StartingBid,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		helpers.HandleServiceError(c, "CreateListingHandler", err, map[string]any{"seller_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewListingResponse(listing), "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"listing_id":   listing.ListingID,
		"seller_id":    userID,
		"starting_bid": helpers.FormatMoney(listing.StartingBid),
	})
}

// CloseListingHandler handles POST /listings/:listing_id/close
func (h *AuctionHandler) CloseListingHandler(c *gin.Context) {
	userID, ok := helpers.RequireUser(c, "CloseListingHandler")
	if !ok {
		return
	}
	listingID := c.Param("listing_id")

	listing, err := h.service.CloseListing(c.Request.Context(), userID, listingID)
	if err != nil {
		helpers.HandleServiceError(c, "CloseListingHandler", err, map[string]any{"listing_id": listingID, "user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponse(listing), "listing closed successfully")
	helpers.LogSuccess("CloseListingHandler", "listing closed successfully", map[string]any{
		"listing_id": listingID,
		"user_id":    userID,
	})
}

// GetListingHandler handles GET /listings/:listing_id
func (h *AuctionHandler) GetListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")

	view, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingDetailResponse(view), "listing retrieved successfully")
}

// ListActiveListingsHandler handles GET /listings
func (h *AuctionHandler) ListActiveListingsHandler(c *gin.Context) {
	summaries, err := h.service.ListActiveListings(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "ListActiveListingsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewSummaryResponses(summaries), "listings retrieved successfully")
	helpers.LogSuccess("ListActiveListingsHandler", "listings retrieved successfully", map[string]any{
		"count": len(summaries),
	})
}

// GetListingsByBidderHandler handles GET /users/:user_id/listings
func (h *AuctionHandler) GetListingsByBidderHandler(c *gin.Context) {
	userID := c.Param("user_id")

	listings, err := h.service.GetListingsByBidder(c.Request.Context(), userID)
	if err != nil {
		helpers.HandleServiceError(c, "GetListingsByBidderHandler", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewListingResponses(listings), "listings retrieved successfully")
	helpers.LogSuccess("GetListingsByBidderHandler", "listings retrieved successfully", map[string]any{
		"user_id":        userID,
		"listings_count": len(listings),
	})
}

// PlaceBidHandler handles POST /listings/:listing_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	userID, ok := helpers.RequireUser(c, "PlaceBidHandler")
	if !ok {
		return
	}
	listingID := c.Param("listing_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), userID, listingID, req.Amount)
	if err != nil {
		helpers.HandleServiceError(c, "PlaceBidHandler", err, map[string]any{
			"listing_id": listingID,
			"user_id":    userID,
			"amount":     req.Amount.String(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": listingID,
		"user_id":    userID,
		"amount":     helpers.FormatMoney(bid.Amount),
	})
}

// GetBidsHandler handles GET /listings/:listing_id/bids
func (h *AuctionHandler) GetBidsHandler(c *gin.Context) {
	listingID := c.Param("listing_id")

	bids, err := h.service.GetBidsForListing(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetBidsHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(bids),
	})
}

// GetWinningBidHandler handles GET /listings/:listing_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	listingID := c.Param("listing_id")

	bid, err := h.service.GetWinningBid(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetWinningBidHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponse(bid), "winning bid retrieved successfully")
}

// GetPriceHandler handles GET /listings/:listing_id/price
func (h *AuctionHandler) GetPriceHandler(c *gin.Context) {
	listingID := c.Param("listing_id")

	price, err := h.service.CurrentHighBid(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetPriceHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.PriceResponse{
		ListingID:    listingID,
		CurrentPrice: helpers.FormatMoney(price),
	}, "price retrieved successfully")
}
