package auction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/utils"
)

const maxCategoryNameLength = 64

// ListByCategory returns the open listings filed under the named category.
// An unknown category is an error; a known one with no open listings is not.
func (s *AuctionService) ListByCategory(ctx context.Context, name string) ([]ListingSummary, error) {
	category, err := s.repo.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get category %q: %w", name, err)
	}

	listings, err := s.repo.ListActiveListingsByCategory(ctx, category.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings in category %q: %w", name, err)
	}
	return s.summarizeAll(ctx, listings)
}

// ListCategories returns every category ordered by name
func (s *AuctionService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a new category label
func (s *AuctionService) CreateCategory(ctx context.Context, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxCategoryNameLength {
		return model.Category{}, fmt.Errorf("service: %w - name must be 1 to %d characters", auctionerrors.ErrInvalidCategory, maxCategoryNameLength)
	}

	category := model.Category{CategoryID: utils.GenerateID(), Name: name}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return model.Category{}, fmt.Errorf("service: failed to create category %q: %w", name, err)
	}
	return category, nil
}

// EnsureCategories creates whichever of names do not exist yet and returns
// how many were created
func (s *AuctionService) EnsureCategories(ctx context.Context, names []string) (int, error) {
	created := 0
	for _, name := range names {
		_, err := s.CreateCategory(ctx, name)
		switch {
		case err == nil:
			created++
		case errors.Is(err, auctionerrors.ErrCategoryExists):
			utils.Debug("category already exists", map[string]any{"name": name})
		default:
			return created, err
		}
	}
	return created, nil
}
