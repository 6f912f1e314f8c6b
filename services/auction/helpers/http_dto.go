package helpers

import (
	"time"

	"github.com/shopspring/decimal"

	auction "auction-house/internal/auctionService"
	model "auction-house/internal/models"
)

// Request DTOs. Amounts are decimals so that both 12.5 and "12.50" bind;
// range checks happen in the service.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateListingRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description" binding:"required"`
	ImageURL    string          `json:"image_url"`
	StartingBid decimal.Decimal `json:"starting_bid"`
	CategoryIDs []string        `json:"category_ids"`
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

// Response DTOs
type UserResponse struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type CategoryResponse struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

type ListingResponse struct {
	ListingID    string             `json:"listing_id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	ImageURL     string             `json:"image_url,omitempty"`
	StartingBid  string             `json:"starting_bid"`
	CurrentPrice string             `json:"current_price,omitempty"`
	BidCount     int                `json:"bid_count"`
	SellerID     string             `json:"seller_id"`
	Active       bool               `json:"active"`
	Categories   []CategoryResponse `json:"categories"`
	CreatedAt    string             `json:"created_at"`
}

type ListingDetailResponse struct {
	ListingResponse
	WinningBid *BidResponse      `json:"winning_bid,omitempty"`
	Winner     *UserResponse     `json:"winner,omitempty"`
	Watchers   []UserResponse    `json:"watchers"`
	Comments   []CommentResponse `json:"comments"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	ListingID string `json:"listing_id"`
	UserID    string `json:"user_id"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type CommentResponse struct {
	CommentID string `json:"comment_id"`
	ListingID string `json:"listing_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type PriceResponse struct {
	ListingID    string `json:"listing_id"`
	CurrentPrice string `json:"current_price"`
}

type WatchResponse struct {
	ListingID string `json:"listing_id"`
	Watching  bool   `json:"watching"`
}

// FormatMoney renders an amount with exactly two decimal places
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func NewUserResponse(u model.User) UserResponse {
	return UserResponse{UserID: u.UserID, Username: u.Username, DisplayName: u.DisplayName}
}

func NewUserResponses(users []model.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, NewUserResponse(u))
	}
	return resp
}

func NewCategoryResponses(categories []model.Category) []CategoryResponse {
	resp := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, CategoryResponse{CategoryID: c.CategoryID, Name: c.Name})
	}
	return resp
}

func NewListingResponse(l model.Listing) ListingResponse {
	return ListingResponse{
		ListingID:   l.ListingID,
		Title:       l.Title,
		Description: l.Description,
		ImageURL:    l.ImageURL,
		StartingBid: FormatMoney(l.StartingBid),
		SellerID:    l.SellerID,
		Active:      l.Active,
		Categories:  NewCategoryResponses(l.Categories),
		CreatedAt:   formatTime(l.CreatedAt),
	}
}

func NewListingResponses(listings []model.Listing) []ListingResponse {
	resp := make([]ListingResponse, 0, len(listings))
	for _, l := range listings {
		resp = append(resp, NewListingResponse(l))
	}
	return resp
}

func NewSummaryResponse(s auction.ListingSummary) ListingResponse {
	resp := NewListingResponse(s.Listing)
	resp.CurrentPrice = FormatMoney(s.CurrentPrice)
	resp.BidCount = s.BidCount
	return resp
}

func NewSummaryResponses(summaries []auction.ListingSummary) []ListingResponse {
	resp := make([]ListingResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, NewSummaryResponse(s))
	}
	return resp
}

func NewListingDetailResponse(v auction.ListingView) ListingDetailResponse {
	resp := ListingDetailResponse{
		ListingResponse: NewSummaryResponse(v.ListingSummary),
		Watchers:        NewUserResponses(v.Watchers),
		Comments:        NewCommentResponses(v.Comments),
	}
	if v.WinningBid != nil {
		bid := NewBidResponse(*v.WinningBid)
		resp.WinningBid = &bid
	}
	if v.Winner != nil {
		winner := NewUserResponse(*v.Winner)
		resp.Winner = &winner
	}
	return resp
}

func NewBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		ListingID: b.ListingID,
		UserID:    b.UserID,
		Amount:    FormatMoney(b.Amount),
		CreatedAt: formatTime(b.CreatedAt),
	}
}

func NewBidResponses(bids []model.Bid) []BidResponse {
	resp := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		resp = append(resp, NewBidResponse(b))
	}
	return resp
}

func NewCommentResponse(c model.Comment) CommentResponse {
	return CommentResponse{
		CommentID: c.CommentID,
		ListingID: c.ListingID,
		UserID:    c.UserID,
		Text:      c.Text,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func NewCommentResponses(comments []model.Comment) []CommentResponse {
	resp := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, NewCommentResponse(c))
	}
	return resp
}
