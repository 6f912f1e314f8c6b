package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"context"

	model "auction-house/internal/models"
)

// ListingChange is what an UpdateListingWithLock callback asks the store to apply
type ListingChange struct {
	Deactivate bool
	Bid        *model.Bid
}

// ListingUpdateFunc inspects a listing and its bid ledger while the listing is
// locked and returns the change to persist. Returning an error aborts the update.
type ListingUpdateFunc func(listing model.Listing, bids []model.Bid) (ListingChange, error)

// AuctionDB defines the storage interface for the auction system
type AuctionDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUser(ctx context.Context, userID string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	CreateCategory(ctx context.Context, category model.Category) error
	GetCategoryByName(ctx context.Context, name string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CreateListing persists a listing and its category links atomically.
	// Unknown category ids fail with ErrCategoryNotFound and persist nothing.
	CreateListing(ctx context.Context, listing model.Listing) error
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListActiveListings(ctx context.Context) ([]model.Listing, error)
	ListActiveListingsByCategory(ctx context.Context, categoryID string) ([]model.Listing, error)
	// UpdateListingWithLock runs fn with the listing exclusively locked and
	// applies the returned change in the same transaction.
	UpdateListingWithLock(ctx context.Context, listingID string, fn ListingUpdateFunc) (model.Listing, error)

	GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error)
	GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error)

	AddComment(ctx context.Context, comment model.Comment) error
	ListComments(ctx context.Context, listingID string) ([]model.Comment, error)

	// ToggleWatchlist flips membership of the pair and reports whether the user now watches the listing
	ToggleWatchlist(ctx context.Context, userID, listingID string) (bool, error)
	ListWatchers(ctx context.Context, listingID string) ([]model.User, error)
	ListWatchlist(ctx context.Context, userID string) ([]model.Listing, error)

	Close() error
}
