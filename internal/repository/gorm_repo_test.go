package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/utils"

	"github.com/stretchr/testify/require"
)

// These tests need a disposable PostgreSQL database, for example:
//
//	AUCTION_TEST_POSTGRES_DSN="host=localhost user=auction password=auction dbname=auction_test sslmode=disable"
func openTestPostgres(t *testing.T) *GormRepo {
	t.Helper()

	dsn := os.Getenv("AUCTION_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AUCTION_TEST_POSTGRES_DSN not set")
	}

	repo, err := OpenPostgres(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestGormRepo_ListingLifecycle(t *testing.T) {
	repo := openTestPostgres(t)
	ctx := context.Background()

	// ids are random so reruns against the same database do not collide
	seller := model.User{UserID: utils.GenerateID(), Username: "seller-" + utils.GenerateID(), PasswordHash: "x", CreatedAt: utils.Now()}
	bidder := model.User{UserID: utils.GenerateID(), Username: "bidder-" + utils.GenerateID(), PasswordHash: "x", CreatedAt: utils.Now()}
	require.NoError(t, repo.CreateUser(ctx, seller))
	require.NoError(t, repo.CreateUser(ctx, bidder))

	err := repo.CreateUser(ctx, model.User{UserID: utils.GenerateID(), Username: seller.Username, PasswordHash: "x"})
	require.ErrorIs(t, err, auctionerrors.ErrUsernameTaken)

	category := model.Category{CategoryID: utils.GenerateID(), Name: "cat-" + utils.GenerateID()}
	require.NoError(t, repo.CreateCategory(ctx, category))

	listingID := utils.GenerateID()
	listing := newListing(listingID, "Robot", seller.UserID, 10, category)
	require.NoError(t, repo.CreateListing(ctx, listing))

	bad := newListing(utils.GenerateID(), "Lamp", seller.UserID, 10, model.Category{CategoryID: utils.GenerateID()})
	require.ErrorIs(t, repo.CreateListing(ctx, bad), auctionerrors.ErrCategoryNotFound)
	_, err = repo.GetListing(ctx, bad.ListingID)
	require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)

	got, err := repo.GetListing(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, []string{category.CategoryID}, got.CategoryIDs())

	bid := newBid(utils.GenerateID(), listingID, bidder.UserID, 11, time.Now().UTC())
	require.NoError(t, appendBid(ctx, repo, bid))

	bids, err := repo.GetBidsByListing(ctx, listingID)
	require.NoError(t, err)
	require.Len(t, bids, 1)

	byBidder, err := repo.GetListingsByBidder(ctx, bidder.UserID)
	require.NoError(t, err)
	require.Len(t, byBidder, 1)

	watching, err := repo.ToggleWatchlist(ctx, bidder.UserID, listingID)
	require.NoError(t, err)
	require.True(t, watching)

	// usernames sort the other way round, so this checks watch order
	late := model.User{UserID: utils.GenerateID(), Username: "a-" + utils.GenerateID(), PasswordHash: "x", CreatedAt: utils.Now()}
	require.NoError(t, repo.CreateUser(ctx, late))
	_, err = repo.ToggleWatchlist(ctx, late.UserID, listingID)
	require.NoError(t, err)

	watchers, err := repo.ListWatchers(ctx, listingID)
	require.NoError(t, err)
	require.Equal(t, []string{bidder.UserID, late.UserID}, userIDs(watchers))

	closed, err := repo.UpdateListingWithLock(ctx, listingID, func(model.Listing, []model.Bid) (ListingChange, error) {
		return ListingChange{Deactivate: true}, nil
	})
	require.NoError(t, err)
	require.False(t, closed.Active)

	active, err := repo.ListActiveListingsByCategory(ctx, category.CategoryID)
	require.NoError(t, err)
	require.Empty(t, active)
}
