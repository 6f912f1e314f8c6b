package auction

import (
	"context"
	"fmt"
	"strings"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/utils"
)

// AddComment appends a comment to a listing
func (s *AuctionService) AddComment(ctx context.Context, authorID, listingID, text string) (model.Comment, error) {
	if _, err := s.resolveUser(ctx, authorID); err != nil {
		return model.Comment{}, err
	}

	if _, err := s.repo.GetListing(ctx, listingID); err != nil {
		return model.Comment{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return model.Comment{}, fmt.Errorf("service: %w", auctionerrors.ErrEmptyComment)
	}

	comment := model.Comment{
		CommentID: utils.GenerateID(),
		ListingID: listingID,
		UserID:    authorID,
		Text:      text,
		CreatedAt: utils.Now(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return model.Comment{}, fmt.Errorf("service: failed to add comment to listing %s: %w", listingID, err)
	}
	return comment, nil
}

// ListComments returns a listing's comments, oldest first
func (s *AuctionService) ListComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	comments, err := s.repo.ListComments(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list comments of listing %s: %w", listingID, err)
	}
	return comments, nil
}
