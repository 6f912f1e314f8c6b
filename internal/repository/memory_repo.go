package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu             sync.RWMutex
	users          map[string]model.User    // key: userID -> value: user
	categories     map[string]model.Category // key: categoryID -> value: category
	listings       map[string]model.Listing  // key: listingID -> value: listing
	listingOrder   []string                  // listingIDs in creation order
	bids           map[string][]model.Bid    // key: listingID -> value: list of bids
	comments       map[string][]model.Comment
	bidderListings map[string][]string // key: userID -> value: list of listingIDs user has bid on
	watchlist      []model.WatchlistEntry
}

var _ AuctionDB = (*MemoryRepo)(nil)

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:          make(map[string]model.User),
		categories:     make(map[string]model.Category),
		listings:       make(map[string]model.Listing),
		bids:           make(map[string][]model.Bid),
		comments:       make(map[string][]model.Comment),
		bidderListings: make(map[string][]string),
	}
}

// CreateUser stores a user with a unique username
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("create user %s: %w", user.Username, auctionerrors.ErrUsernameTaken)
		}
	}
	r.users[user.UserID] = user
	return nil
}

// GetUser returns a user by id
func (r *MemoryRepo) GetUser(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// GetUserByUsername returns a user by username
func (r *MemoryRepo) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("get user by username %s: %w", username, auctionerrors.ErrUserNotFound)
}

// CreateCategory stores a category with a unique name
func (r *MemoryRepo) CreateCategory(_ context.Context, category model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.categories {
		if c.Name == category.Name {
			return fmt.Errorf("create category %s: %w", category.Name, auctionerrors.ErrCategoryExists)
		}
	}
	r.categories[category.CategoryID] = category
	return nil
}

// GetCategoryByName returns a category by its label
func (r *MemoryRepo) GetCategoryByName(_ context.Context, name string) (model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return model.Category{}, fmt.Errorf("get category %s: %w", name, auctionerrors.ErrCategoryNotFound)
}

// ListCategories returns all categories ordered by name
func (r *MemoryRepo) ListCategories(_ context.Context) ([]model.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		categories = append(categories, c)
	}
	sortCategories(categories)
	return categories, nil
}

// CreateListing stores a listing after resolving every category it names
func (r *MemoryRepo) CreateListing(_ context.Context, listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.listings[listing.ListingID]; exists {
		return fmt.Errorf("create listing %s: already exists", listing.ListingID)
	}

	resolved := make([]model.Category, 0, len(listing.Categories))
	for _, c := range listing.Categories {
		stored, ok := r.categories[c.CategoryID]
		if !ok {
			return fmt.Errorf("create listing %s: category %s: %w", listing.ListingID, c.CategoryID, auctionerrors.ErrCategoryNotFound)
		}
		resolved = append(resolved, stored)
	}
	listing.Categories = resolved

	r.listings[listing.ListingID] = listing
	r.listingOrder = append(r.listingOrder, listing.ListingID)
	return nil
}

// GetListing returns a listing by id
func (r *MemoryRepo) GetListing(_ context.Context, listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return copyListing(listing), nil
}

// ListActiveListings returns open listings in creation order
func (r *MemoryRepo) ListActiveListings(_ context.Context) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filterListings(func(l model.Listing) bool { return l.Active }), nil
}

// ListActiveListingsByCategory returns open listings filed under a category
func (r *MemoryRepo) ListActiveListingsByCategory(_ context.Context, categoryID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filterListings(func(l model.Listing) bool {
		if !l.Active {
			return false
		}
		for _, c := range l.Categories {
			if c.CategoryID == categoryID {
				return true
			}
		}
		return false
	}), nil
}

// UpdateListingWithLock applies fn's change while holding the repository write lock
func (r *MemoryRepo) UpdateListingWithLock(ctx context.Context, listingID string, fn ListingUpdateFunc) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return model.Listing{}, err
	}

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("update listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	change, err := fn(copyListing(listing), append([]model.Bid(nil), r.bids[listingID]...))
	if err != nil {
		return model.Listing{}, err
	}

	if change.Bid != nil {
		r.recordBid(*change.Bid)
	}
	if change.Deactivate {
		listing.Active = false
		r.listings[listingID] = listing
	}

	return copyListing(listing), nil
}

// recordBid appends a bid to the ledger; the caller must hold the write lock
func (r *MemoryRepo) recordBid(bid model.Bid) {
	r.bids[bid.ListingID] = append(r.bids[bid.ListingID], bid)

	for _, id := range r.bidderListings[bid.UserID] {
		if id == bid.ListingID {
			return
		}
	}
	r.bidderListings[bid.UserID] = append(r.bidderListings[bid.UserID], bid.ListingID)
}

// GetBidsByListing returns all bids for a listing in the order they were placed
func (r *MemoryRepo) GetBidsByListing(_ context.Context, listingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return append([]model.Bid{}, r.bids[listingID]...), nil
}

// GetListingsByBidder returns all listings a user has bid on
func (r *MemoryRepo) GetListingsByBidder(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listingIDs := r.bidderListings[userID]
	listings := make([]model.Listing, 0, len(listingIDs))
	for _, id := range listingIDs {
		if listing, exists := r.listings[id]; exists {
			listings = append(listings, copyListing(listing))
		}
	}
	return listings, nil
}

// AddComment appends a comment to a listing
func (r *MemoryRepo) AddComment(_ context.Context, comment model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[comment.ListingID]; !ok {
		return fmt.Errorf("add comment to listing %s: %w", comment.ListingID, auctionerrors.ErrListingNotFound)
	}
	r.comments[comment.ListingID] = append(r.comments[comment.ListingID], comment)
	return nil
}

// ListComments returns a listing's comments oldest first
func (r *MemoryRepo) ListComments(_ context.Context, listingID string) ([]model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("list comments for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return append([]model.Comment{}, r.comments[listingID]...), nil
}

// ToggleWatchlist adds the pair when absent and removes it when present
func (r *MemoryRepo) ToggleWatchlist(_ context.Context, userID, listingID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listingID]; !ok {
		return false, fmt.Errorf("toggle watchlist for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	for i, entry := range r.watchlist {
		if entry.UserID == userID && entry.ListingID == listingID {
			r.watchlist = append(r.watchlist[:i], r.watchlist[i+1:]...)
			return false, nil
		}
	}
	r.watchlist = append(r.watchlist, model.WatchlistEntry{UserID: userID, ListingID: listingID})
	return true, nil
}

// ListWatchers returns the users watching a listing
func (r *MemoryRepo) ListWatchers(_ context.Context, listingID string) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("list watchers for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	users := []model.User{}
	for _, entry := range r.watchlist {
		if entry.ListingID != listingID {
			continue
		}
		if user, ok := r.users[entry.UserID]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

// ListWatchlist returns the listings a user watches
func (r *MemoryRepo) ListWatchlist(_ context.Context, userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := []model.Listing{}
	for _, entry := range r.watchlist {
		if entry.UserID != userID {
			continue
		}
		if listing, ok := r.listings[entry.ListingID]; ok {
			listings = append(listings, copyListing(listing))
		}
	}
	return listings, nil
}

// Close is a no-op for the in-memory store
func (r *MemoryRepo) Close() error {
	return nil
}

func (r *MemoryRepo) filterListings(keep func(model.Listing) bool) []model.Listing {
	listings := []model.Listing{}
	for _, id := range r.listingOrder {
		if listing := r.listings[id]; keep(listing) {
			listings = append(listings, copyListing(listing))
		}
	}
	return listings
}

func copyListing(l model.Listing) model.Listing {
	l.Categories = append([]model.Category{}, l.Categories...)
	return l
}

func sortCategories(categories []model.Category) {
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
}
