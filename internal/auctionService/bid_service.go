package auction

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/metrics"
	model "auction-house/internal/models"
	"auction-house/internal/pricing"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// PlaceBid validates and records a user's bid on a listing. Reading the
// ledger, validating and appending all happen under the listing lock.
func (s *AuctionService) PlaceBid(ctx context.Context, bidderID, listingID string, amount decimal.Decimal) (bid model.Bid, err error) {
	defer func() {
		metrics.BidsPlaced.WithLabelValues(metrics.BidResult(err)).Inc()
	}()

	if _, err := s.resolveUser(ctx, bidderID); err != nil {
		return model.Bid{}, err
	}

	unlock, err := s.lockListing(ctx, listingID)
	if err != nil {
		return model.Bid{}, err
	}
	defer unlock()

	_, err = s.repo.UpdateListingWithLock(ctx, listingID, func(listing model.Listing, bids []model.Bid) (repository.ListingChange, error) {
		if !listing.Active {
			return repository.ListingChange{}, fmt.Errorf("%w - listing %s no longer accepts bids", auctionerrors.ErrAuctionClosed, listingID)
		}
		if err := pricing.ValidateAmount(amount); err != nil {
			return repository.ListingChange{}, err
		}
		if err := pricing.ValidateBid(listing, bids, amount); err != nil {
			return repository.ListingChange{}, err
		}

		bid = model.Bid{
			BidID:     utils.GenerateID(),
			ListingID: listingID,
			UserID:    bidderID,
			Amount:    amount,
			CreatedAt: utils.Now(),
		}
		return repository.ListingChange{Bid: &bid}, nil
	})
	if err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to place bid on listing %s by user %s: %w", listingID, bidderID, err)
	}

	utils.Info("bid placed", map[string]any{
		"listing_id": listingID,
		"user_id":    bidderID,
		"amount":     amount.StringFixed(2),
	})
	return bid, nil
}

// GetBidsForListing returns all bids for a listing in placement order
func (s *AuctionService) GetBidsForListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

// CurrentHighBid returns the price to beat on a listing
func (s *AuctionService) CurrentHighBid(ctx context.Context, listingID string) (decimal.Decimal, error) {
	listing, bids, err := s.listingWithBids(ctx, listingID)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.CurrentHighBid(listing, bids), nil
}

// ValidateBid reports whether amount would currently be accepted as a bid.
// It does not check whether the listing is still open.
func (s *AuctionService) ValidateBid(ctx context.Context, listingID string, amount decimal.Decimal) error {
	listing, bids, err := s.listingWithBids(ctx, listingID)
	if err != nil {
		return err
	}
	if err := pricing.ValidateAmount(amount); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if err := pricing.ValidateBid(listing, bids, amount); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}

// CurrentWinner returns the user holding the highest bid, or nil if nobody has bid
func (s *AuctionService) CurrentWinner(ctx context.Context, listingID string) (*model.User, error) {
	_, bids, err := s.listingWithBids(ctx, listingID)
	if err != nil {
		return nil, err
	}

	winning, ok := pricing.CurrentWinner(bids)
	if !ok {
		return nil, nil
	}

	user, err := s.repo.GetUser(ctx, winning.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve winner of listing %s: %w", listingID, err)
	}
	return &user, nil
}

// GetWinningBid returns the highest bid for a listing, or ErrNoBids
func (s *AuctionService) GetWinningBid(ctx context.Context, listingID string) (model.Bid, error) {
	_, bids, err := s.listingWithBids(ctx, listingID)
	if err != nil {
		return model.Bid{}, err
	}

	winning, ok := pricing.CurrentWinner(bids)
	if !ok {
		return model.Bid{}, fmt.Errorf("service: failed to get winning bid for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}
	return winning, nil
}

func (s *AuctionService) listingWithBids(ctx context.Context, listingID string) (model.Listing, []model.Bid, error) {
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, nil, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}

	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}
	return listing, bids, nil
}
