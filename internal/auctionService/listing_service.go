package auction

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/metrics"
	model "auction-house/internal/models"
	"auction-house/internal/pricing"
	"auction-house/internal/repository"
	"auction-house/utils"
)

const maxTitleLength = 64

// CreateListing validates and stores a new, active listing owned by sellerID
func (s *AuctionService) CreateListing(ctx context.Context, sellerID string, in NewListing) (model.Listing, error) {
	if _, err := s.resolveUser(ctx, sellerID); err != nil {
		return model.Listing{}, err
	}

	if len(in.CategoryIDs) > MaxCategoriesPerListing {
		return model.Listing{}, fmt.Errorf("service: %w - got %d, at most %d allowed",
			auctionerrors.ErrTooManyCategories, len(in.CategoryIDs), MaxCategoriesPerListing)
	}
	if err := pricing.ValidateStartingBid(in.StartingBid); err != nil {
		return model.Listing{}, fmt.Errorf("service: %w", err)
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	imageURL := strings.TrimSpace(in.ImageURL)
	if err := validateListingContent(title, description, imageURL); err != nil {
		return model.Listing{}, err
	}

	listing := model.Listing{
		ListingID:   utils.GenerateID(),
		Title:       title,
		Description: description,
		ImageURL:    imageURL,
		StartingBid: in.StartingBid,
		SellerID:    sellerID,
		Active:      true,
		Categories:  categoryRefs(in.CategoryIDs),
		CreatedAt:   utils.Now(),
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to create listing for seller %s: %w", sellerID, err)
	}
	metrics.ListingsCreated.Inc()

	created, err := s.repo.GetListing(ctx, listing.ListingID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to reload listing %s: %w", listing.ListingID, err)
	}
	return created, nil
}

func validateListingContent(title, description, imageURL string) error {
	if title == "" {
		return fmt.Errorf("service: %w - title is required", auctionerrors.ErrInvalidListing)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("service: %w - title must be at most %d characters", auctionerrors.ErrInvalidListing, maxTitleLength)
	}
	if description == "" {
		return fmt.Errorf("service: %w - description is required", auctionerrors.ErrInvalidListing)
	}
	if imageURL != "" {
		u, err := url.Parse(imageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("service: %w - image URL must be an absolute http(s) URL", auctionerrors.ErrInvalidListing)
		}
	}
	return nil
}

// categoryRefs collapses duplicate ids, keeping first-seen order
func categoryRefs(ids []string) []model.Category {
	seen := make(map[string]bool, len(ids))
	refs := make([]model.Category, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, model.Category{CategoryID: id})
	}
	return refs
}

// CloseListing deactivates a listing. Only its seller may close it; closing
// an already closed listing is a no-op.
func (s *AuctionService) CloseListing(ctx context.Context, requesterID, listingID string) (model.Listing, error) {
	if _, err := s.resolveUser(ctx, requesterID); err != nil {
		return model.Listing{}, err
	}

	unlock, err := s.lockListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, err
	}
	defer unlock()

	var wasActive bool
	listing, err := s.repo.UpdateListingWithLock(ctx, listingID, func(listing model.Listing, _ []model.Bid) (repository.ListingChange, error) {
		if listing.SellerID != requesterID {
			return repository.ListingChange{}, fmt.Errorf("%w - only the seller can close listing %s", auctionerrors.ErrForbidden, listingID)
		}
		wasActive = listing.Active
		return repository.ListingChange{Deactivate: listing.Active}, nil
	})
	if err != nil {
		return model.Listing{}, fmt.Errorf("service: failed to close listing %s: %w", listingID, err)
	}

	if wasActive {
		metrics.ListingsClosed.Inc()
		utils.Info("listing closed", map[string]any{
			"listing_id": listingID,
			"seller_id":  requesterID,
		})
	}
	return listing, nil
}

// GetListing returns the listing detail view: price, winner, watchers and comments
func (s *AuctionService) GetListing(ctx context.Context, listingID string) (ListingView, error) {
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return ListingView{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}

	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return ListingView{}, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}

	view := ListingView{
		ListingSummary: ListingSummary{
			Listing:      listing,
			CurrentPrice: pricing.CurrentHighBid(listing, bids),
			BidCount:     len(bids),
		},
	}

	if winning, ok := pricing.CurrentWinner(bids); ok {
		winner, err := s.repo.GetUser(ctx, winning.UserID)
		if err != nil {
			return ListingView{}, fmt.Errorf("service: failed to resolve winner of listing %s: %w", listingID, err)
		}
		view.WinningBid = &winning
		view.Winner = &winner
	}

	if view.Watchers, err = s.repo.ListWatchers(ctx, listingID); err != nil {
		return ListingView{}, fmt.Errorf("service: failed to list watchers of listing %s: %w", listingID, err)
	}
	if view.Comments, err = s.repo.ListComments(ctx, listingID); err != nil {
		return ListingView{}, fmt.Errorf("service: failed to list comments of listing %s: %w", listingID, err)
	}
	return view, nil
}

// ListActiveListings returns every open listing with its current price
func (s *AuctionService) ListActiveListings(ctx context.Context) ([]ListingSummary, error) {
	listings, err := s.repo.ListActiveListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active listings: %w", err)
	}
	return s.summarizeAll(ctx, listings)
}

// GetListingsByBidder returns all listings a user has placed bids on
func (s *AuctionService) GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error) {
	if _, err := s.resolveUser(ctx, userID); err != nil {
		return nil, err
	}

	listings, err := s.repo.GetListingsByBidder(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get listings for bidder %s: %w", userID, err)
	}
	return listings, nil
}
