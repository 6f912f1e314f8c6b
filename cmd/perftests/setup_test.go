package perftests

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	auction "auction-house/internal/auctionService"
	"auction-house/internal/locker"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

func init() {
	// keep benchmark output readable
	_ = utils.ConfigureLogger(utils.LogOptions{Level: "error"})
}

// benchEnv is a service over a store seeded with users and listings
type benchEnv struct {
	svc        *auction.AuctionService
	userIDs    []string
	listingIDs []string
}

// store names the backends benchmarks run against
type store struct {
	name string
	open func(b *testing.B) repository.AuctionDB
}

var stores = []store{
	{"memory", func(b *testing.B) repository.AuctionDB { return repository.NewMemoryRepo() }},
	{"sqlite", func(b *testing.B) repository.AuctionDB {
		repo, err := repository.NewSQLiteRepo(context.Background(), filepath.Join(b.TempDir(), "bench.db"))
		if err != nil {
			b.Fatalf("open sqlite: %v", err)
		}
		b.Cleanup(func() { repo.Close() })
		return repo
	}},
}

// setupEnv creates numUsers users and numListings listings starting at startingBid
func setupEnv(tb testing.TB, repo repository.AuctionDB, numUsers, numListings int, startingBid int64) *benchEnv {
	tb.Helper()
	ctx := context.Background()
	svc := auction.NewAuctionService(repo, locker.NewLocalLocker(30*time.Second))

	env := &benchEnv{svc: svc}
	for i := 0; i < numUsers; i++ {
		id := fmt.Sprintf("user_%d", i)
		if err := repo.CreateUser(ctx, model.User{UserID: id, Username: id}); err != nil {
			tb.Fatalf("failed to create user: %v", err)
		}
		env.userIDs = append(env.userIDs, id)
	}

	for i := 0; i < numListings; i++ {
		listing, err := svc.CreateListing(ctx, env.userIDs[0], auction.NewListing{
			Title:       fmt.Sprintf("Benchmark listing %d", i),
			Description: "Independent benchmark listing",
			StartingBid: decimal.NewFromInt(startingBid),
		})
		if err != nil {
			tb.Fatalf("failed to create listing: %v", err)
		}
		env.listingIDs = append(env.listingIDs, listing.ListingID)
	}
	return env
}
