package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedSQLiteRepo(t *testing.T) (*SQLiteRepo, model.Category, model.Category) {
	t.Helper()
	ctx := context.Background()

	repo, err := NewSQLiteRepo(ctx, filepath.Join(t.TempDir(), "data", "auction.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	for _, id := range []string{"seller", "user1", "user2"} {
		require.NoError(t, repo.CreateUser(ctx, model.User{UserID: id, Username: id, PasswordHash: "x", CreatedAt: time.Now().UTC()}))
	}

	toys := model.Category{CategoryID: "cat-toys", Name: "Toys"}
	books := model.Category{CategoryID: "cat-books", Name: "Books"}
	require.NoError(t, repo.CreateCategory(ctx, toys))
	require.NoError(t, repo.CreateCategory(ctx, books))
	return repo, toys, books
}

func TestSQLiteRepo_Users(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := seedSQLiteRepo(t)

	err := repo.CreateUser(ctx, model.User{UserID: "other", Username: "user1", PasswordHash: "x"})
	require.ErrorIs(t, err, auctionerrors.ErrUsernameTaken)

	user, err := repo.GetUserByUsername(ctx, "user2")
	require.NoError(t, err)
	require.Equal(t, "user2", user.UserID)
	require.Equal(t, time.UTC, user.CreatedAt.Location())

	_, err = repo.GetUser(ctx, "ghost")
	require.ErrorIs(t, err, auctionerrors.ErrUserNotFound)
	require.ErrorIs(t, err, auctionerrors.ErrNotFound)
}

func TestSQLiteRepo_Categories(t *testing.T) {
	ctx := context.Background()
	repo, toys, _ := seedSQLiteRepo(t)

	err := repo.CreateCategory(ctx, model.Category{CategoryID: "dup", Name: "Toys"})
	require.ErrorIs(t, err, auctionerrors.ErrCategoryExists)

	got, err := repo.GetCategoryByName(ctx, "Toys")
	require.NoError(t, err)
	require.Equal(t, toys, got)

	_, err = repo.GetCategoryByName(ctx, "Garden")
	require.ErrorIs(t, err, auctionerrors.ErrCategoryNotFound)

	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Books", "Toys"}, []string{categories[0].Name, categories[1].Name})
}

func TestSQLiteRepo_CreateListing(t *testing.T) {
	ctx := context.Background()
	repo, toys, books := seedSQLiteRepo(t)

	listing := newListing("listing1", "Robot", "seller", 10.5, toys, books)
	require.NoError(t, repo.CreateListing(ctx, listing))

	got, err := repo.GetListing(ctx, "listing1")
	require.NoError(t, err)
	require.Equal(t, "Robot", got.Title)
	require.True(t, got.Active)
	require.True(t, decimal.RequireFromString("10.5").Equal(got.StartingBid))
	require.Equal(t, []string{"cat-books", "cat-toys"}, got.CategoryIDs())
	require.True(t, listing.CreatedAt.Truncate(time.Microsecond).Equal(got.CreatedAt))

	t.Run("unknown_category_rolls_back", func(t *testing.T) {
		bad := newListing("listing2", "Lamp", "seller", 5, toys, model.Category{CategoryID: "nope"})
		err := repo.CreateListing(ctx, bad)
		require.ErrorIs(t, err, auctionerrors.ErrCategoryNotFound)

		_, err = repo.GetListing(ctx, "listing2")
		require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)

		listings, err := repo.ListActiveListingsByCategory(ctx, toys.CategoryID)
		require.NoError(t, err)
		require.Len(t, listings, 1)
	})
}

func TestSQLiteRepo_UpdateListingWithLock(t *testing.T) {
	ctx := context.Background()
	repo, toys, _ := seedSQLiteRepo(t)
	require.NoError(t, repo.CreateListing(ctx, newListing("listing1", "Robot", "seller", 10, toys)))

	t.Run("not_found", func(t *testing.T) {
		_, err := repo.UpdateListingWithLock(ctx, "ghost", func(model.Listing, []model.Bid) (ListingChange, error) {
			return ListingChange{}, nil
		})
		require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)
	})

	t.Run("callback_error_persists_nothing", func(t *testing.T) {
		boom := errors.New("boom")
		bid := newBid("b0", "listing1", "user1", 11, time.Now().UTC())
		_, err := repo.UpdateListingWithLock(ctx, "listing1", func(model.Listing, []model.Bid) (ListingChange, error) {
			return ListingChange{Bid: &bid}, boom
		})
		require.ErrorIs(t, err, boom)

		bids, err := repo.GetBidsByListing(ctx, "listing1")
		require.NoError(t, err)
		require.Empty(t, bids)
	})

	t.Run("bids_in_placement_order", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, appendBid(ctx, repo, newBid("b1", "listing1", "user1", 11, now)))
		require.NoError(t, appendBid(ctx, repo, newBid("b2", "listing1", "user2", 12.25, now)))

		bids, err := repo.GetBidsByListing(ctx, "listing1")
		require.NoError(t, err)
		require.Len(t, bids, 2)
		require.Equal(t, "b1", bids[0].BidID)
		require.Equal(t, "b2", bids[1].BidID)
		require.True(t, decimal.RequireFromString("12.25").Equal(bids[1].Amount))

		var seen []string
		_, err = repo.UpdateListingWithLock(ctx, "listing1", func(_ model.Listing, bids []model.Bid) (ListingChange, error) {
			for _, b := range bids {
				seen = append(seen, b.BidID)
			}
			return ListingChange{}, nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"b1", "b2"}, seen)
	})

	t.Run("deactivate", func(t *testing.T) {
		updated, err := repo.UpdateListingWithLock(ctx, "listing1", func(model.Listing, []model.Bid) (ListingChange, error) {
			return ListingChange{Deactivate: true}, nil
		})
		require.NoError(t, err)
		require.False(t, updated.Active)

		got, err := repo.GetListing(ctx, "listing1")
		require.NoError(t, err)
		require.False(t, got.Active)

		active, err := repo.ListActiveListings(ctx)
		require.NoError(t, err)
		require.Empty(t, active)
	})
}

func TestSQLiteRepo_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo, toys, _ := seedSQLiteRepo(t)
	require.NoError(t, repo.CreateListing(ctx, newListing("listing1", "Robot", "seller", 1, toys)))

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.UpdateListingWithLock(ctx, "listing1", func(_ model.Listing, bids []model.Bid) (ListingChange, error) {
				bid := newBid(fmt.Sprintf("b%d", i), "listing1", "user1", float64(len(bids)+2), time.Now().UTC())
				return ListingChange{Bid: &bid}, nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	bids, err := repo.GetBidsByListing(ctx, "listing1")
	require.NoError(t, err)
	require.Len(t, bids, workers)
	for i, b := range bids {
		require.True(t, decimal.NewFromInt(int64(i+2)).Equal(b.Amount), "bid %d saw a stale ledger", i)
	}
}

func TestSQLiteRepo_GetListingsByBidder(t *testing.T) {
	ctx := context.Background()
	repo, toys, _ := seedSQLiteRepo(t)
	require.NoError(t, repo.CreateListing(ctx, newListing("listing1", "Robot", "seller", 1, toys)))
	require.NoError(t, repo.CreateListing(ctx, newListing("listing2", "Car", "seller", 1, toys)))

	now := time.Now().UTC()
	require.NoError(t, appendBid(ctx, repo, newBid("b1", "listing1", "user1", 2, now)))
	require.NoError(t, appendBid(ctx, repo, newBid("b2", "listing1", "user1", 3, now)))
	require.NoError(t, appendBid(ctx, repo, newBid("b3", "listing2", "user2", 2, now)))

	listings, err := repo.GetListingsByBidder(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, listings, 1)
	require.Equal(t, "listing1", listings[0].ListingID)

	listings, err = repo.GetListingsByBidder(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, listings)
}

func TestSQLiteRepo_Comments(t *testing.T) {
	ctx := context.Background()
	repo, toys, _ := seedSQLiteRepo(t)
	require.NoError(t, repo.CreateListing(ctx, newListing("listing1", "Robot", "seller", 1, toys)))

	now := time.Now().UTC()
	require.NoError(t, repo.AddComment(ctx, model.Comment{CommentID: "c1", ListingID: "listing1", UserID: "user1", Text: "first", CreatedAt: now}))
	require.NoError(t, repo.AddComment(ctx, model.Comment{CommentID: "c2", ListingID: "listing1", UserID: "user2", Text: "second", CreatedAt: now}))

	comments, err := repo.ListComments(ctx, "listing1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, "first", comments[0].Text)
	require.Equal(t, "second", comments[1].Text)

	err = repo.AddComment(ctx, model.Comment{CommentID: "c3", ListingID: "ghost", UserID: "user1", Text: "x", CreatedAt: now})
	require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)

	_, err = repo.ListComments(ctx, "ghost")
	require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)
}

func TestSQLiteRepo_ToggleWatchlist(t *testing.T) {
	ctx := context.Background()
	repo, toys, _ := seedSQLiteRepo(t)
	require.NoError(t, repo.CreateListing(ctx, newListing("listing1", "Robot", "seller", 1, toys)))

	watching, err := repo.ToggleWatchlist(ctx, "user1", "listing1")
	require.NoError(t, err)
	require.True(t, watching)

	watchers, err := repo.ListWatchers(ctx, "listing1")
	require.NoError(t, err)
	require.Len(t, watchers, 1)
	require.Equal(t, "user1", watchers[0].UserID)

	listings, err := repo.ListWatchlist(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, listings, 1)

	watching, err = repo.ToggleWatchlist(ctx, "user1", "listing1")
	require.NoError(t, err)
	require.False(t, watching)

	watchers, err = repo.ListWatchers(ctx, "listing1")
	require.NoError(t, err)
	require.Empty(t, watchers)

	_, err = repo.ToggleWatchlist(ctx, "user1", "ghost")
	require.ErrorIs(t, err, auctionerrors.ErrListingNotFound)
}

func TestSQLiteRepo_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auction.db")

	repo, err := NewSQLiteRepo(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.CreateUser(ctx, model.User{UserID: "seller", Username: "seller", PasswordHash: "x"}))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepo(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.GetUser(ctx, "seller")
	require.NoError(t, err)
}

func TestSQLiteRepo_ListWatchersInWatchOrder(t *testing.T) {
	ctx := context.Background()
	repo, toys, _ := seedSQLiteRepo(t)
	require.NoError(t, repo.CreateListing(ctx, newListing("listing1", "Robot", "seller", 1, toys)))

	for _, userID := range []string{"user2", "user1", "seller"} {
		watching, err := repo.ToggleWatchlist(ctx, userID, "listing1")
		require.NoError(t, err)
		require.True(t, watching)
	}

	watchers, err := repo.ListWatchers(ctx, "listing1")
	require.NoError(t, err)
	require.Equal(t, []string{"user2", "user1", "seller"}, userIDs(watchers))

	// unwatching and watching again moves the user to the back
	for range 2 {
		_, err = repo.ToggleWatchlist(ctx, "user2", "listing1")
		require.NoError(t, err)
	}
	watchers, err = repo.ListWatchers(ctx, "listing1")
	require.NoError(t, err)
	require.Equal(t, []string{"user1", "seller", "user2"}, userIDs(watchers))
}
