package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/locker"
	"auction-house/internal/metrics"
	model "auction-house/internal/models"
	"auction-house/internal/pricing"
	"auction-house/internal/repository"
)

// MaxCategoriesPerListing caps how many categories a new listing may be filed under
const MaxCategoriesPerListing = 3

// AuctionService holds the marketplace business rules: listing lifecycle,
// bid ledger, watchlists, comments and category browsing. Every mutating
// call takes the acting user's id explicitly.
type AuctionService struct {
	repo   repository.AuctionDB
	locker locker.Locker
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, l locker.Locker) *AuctionService {
	if l == nil {
		l = locker.NewLocalLocker(0)
	}
	return &AuctionService{
		repo:   repo,
		locker: l,
	}
}

// NewListing is the seller-supplied content of a listing
type NewListing struct {
	Title       string
	Description string
	ImageURL    string
	StartingBid decimal.Decimal
	CategoryIDs []string
}

// ListingSummary is a listing with its derived price, as shown in lists
type ListingSummary struct {
	model.Listing
	CurrentPrice decimal.Decimal `json:"current_price"`
	BidCount     int             `json:"bid_count"`
}

// ListingView is everything the listing detail page shows
type ListingView struct {
	ListingSummary
	WinningBid *model.Bid      `json:"winning_bid,omitempty"`
	Winner     *model.User     `json:"winner,omitempty"`
	Watchers   []model.User    `json:"watchers"`
	Comments   []model.Comment `json:"comments"`
}

// resolveUser loads the acting user; a missing user stops the operation
func (s *AuctionService) resolveUser(ctx context.Context, userID string) (model.User, error) {
	if userID == "" {
		return model.User{}, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrUserNotFound)
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, fmt.Errorf("service: failed to resolve user %s: %w", userID, err)
	}
	return user, nil
}

// lockListing takes the per-listing lock that serializes bids and closes
func (s *AuctionService) lockListing(ctx context.Context, listingID string) (func(), error) {
	start := time.Now()
	unlock, err := s.locker.Lock(ctx, locker.ListingKey(listingID))
	metrics.LockWait.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return unlock, nil
}

func (s *AuctionService) summarize(ctx context.Context, listing model.Listing) (ListingSummary, error) {
	bids, err := s.repo.GetBidsByListing(ctx, listing.ListingID)
	if err != nil {
		return ListingSummary{}, fmt.Errorf("service: failed to get bids for listing %s: %w", listing.ListingID, err)
	}
	return ListingSummary{
		Listing:      listing,
		CurrentPrice: pricing.CurrentHighBid(listing, bids),
		BidCount:     len(bids),
	}, nil
}

func (s *AuctionService) summarizeAll(ctx context.Context, listings []model.Listing) ([]ListingSummary, error) {
	summaries := make([]ListingSummary, 0, len(listings))
	for _, l := range listings {
		summary, err := s.summarize(ctx, l)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
