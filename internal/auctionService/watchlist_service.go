package auction

import (
	"context"
	"fmt"

	model "auction-house/internal/models"
)

// ToggleWatchlist adds the listing to the user's watchlist, or removes it if
// already there, and reports whether the user now watches it
func (s *AuctionService) ToggleWatchlist(ctx context.Context, userID, listingID string) (bool, error) {
	if _, err := s.resolveUser(ctx, userID); err != nil {
		return false, err
	}

	watching, err := s.repo.ToggleWatchlist(ctx, userID, listingID)
	if err != nil {
		return false, fmt.Errorf("service: failed to toggle watchlist of user %s for listing %s: %w", userID, listingID, err)
	}
	return watching, nil
}

// ListWatchers returns the users watching a listing
func (s *AuctionService) ListWatchers(ctx context.Context, listingID string) ([]model.User, error) {
	users, err := s.repo.ListWatchers(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list watchers of listing %s: %w", listingID, err)
	}
	return users, nil
}

// ListWatchlist returns the listings a user watches, with current prices
func (s *AuctionService) ListWatchlist(ctx context.Context, userID string) ([]ListingSummary, error) {
	if _, err := s.resolveUser(ctx, userID); err != nil {
		return nil, err
	}

	listings, err := s.repo.ListWatchlist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list watchlist of user %s: %w", userID, err)
	}
	return s.summarizeAll(ctx, listings)
}
