package integrationtests

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auction-house/services/auction/helpers"
)

// PlaceBid Tests
func TestPlaceBidFlow(t *testing.T) {
	env := SetupTestEnv(t, "Electronics")
	seller := env.SignUp(t, "seller")
	alice := env.SignUp(t, "alice")
	bob := env.SignUp(t, "bob")

	listing := env.CreateListing(t, seller, "10.00", env.CategoryID(t, "Electronics"))
	require.Equal(t, "10.00", listing.StartingBid)
	require.Equal(t, seller.ID, listing.SellerID)
	require.True(t, listing.Active)

	bidsURL := "/listings/" + listing.ListingID + "/bids"

	tests := []struct {
		name       string
		bidder     user
		request    any
		wantStatus int
		wantPrice  string
	}{
		{"Starting_Bid_Accepted", alice, map[string]any{"amount": "10.00"}, http.StatusCreated, "10.00"},
		{"Equal_Bid_Rejected", bob, map[string]any{"amount": 10}, http.StatusConflict, "10.00"},
		{"Higher_Bid_Accepted", bob, map[string]any{"amount": 10.01}, http.StatusCreated, "10.01"},
		{"Zero_Bid_Rejected", alice, map[string]any{"amount": 0}, http.StatusBadRequest, "10.01"},
		{"Invalid_JSON", alice, "{amount: 'missing quotes'}", http.StatusBadRequest, "10.01"},
		{"Seller_May_Bid", seller, map[string]any{"amount": "11"}, http.StatusCreated, "11.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, bidsURL, tt.bidder.Token, tt.request)
			require.Equal(t, tt.wantStatus, w.Code, resp.Message)

			if tt.wantStatus == http.StatusCreated {
				var bid helpers.BidResponse
				resp.Decode(t, &bid)
				require.Equal(t, tt.bidder.ID, bid.UserID)
				require.NotEmpty(t, bid.BidID)
				_, err := time.Parse(time.RFC3339Nano, bid.CreatedAt)
				require.NoError(t, err)
			}

			resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/listings/"+listing.ListingID+"/price", "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			var price helpers.PriceResponse
			resp.Decode(t, &price)
			require.Equal(t, tt.wantPrice, price.CurrentPrice)
		})
	}

	resp, w := env.ExecuteRequestAndParse(t, http.MethodGet, bidsURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bids []helpers.BidResponse
	resp.Decode(t, &bids)
	require.Len(t, bids, 3)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/listings/"+listing.ListingID+"/winning", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var winning helpers.BidResponse
	resp.Decode(t, &winning)
	require.Equal(t, seller.ID, winning.UserID)
	require.Equal(t, "11.00", winning.Amount)
}

func TestBidWithoutToken(t *testing.T) {
	env := SetupTestEnv(t)
	seller := env.SignUp(t, "seller")
	listing := env.CreateListing(t, seller, "1")

	resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/listings/"+listing.ListingID+"/bids", "", map[string]any{"amount": 5})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotEmpty(t, resp.Error)

	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/listings/"+listing.ListingID+"/bids", "forged.token.value", map[string]any{"amount": 5})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCloseListingFlow(t *testing.T) {
	env := SetupTestEnv(t, "Toys")
	seller := env.SignUp(t, "seller")
	alice := env.SignUp(t, "alice")
	toys := env.CategoryID(t, "Toys")

	listing := env.CreateListing(t, seller, "5", toys)
	closeURL := "/listings/" + listing.ListingID + "/close"

	_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/listings/"+listing.ListingID+"/bids", alice.Token, map[string]any{"amount": 6})
	require.Equal(t, http.StatusCreated, w.Code)

	resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, closeURL, alice.Token, nil)
	require.Equal(t, http.StatusForbidden, w.Code, resp.Message)

	for i := 0; i < 2; i++ {
		resp, w = env.ExecuteRequestAndParse(t, http.MethodPost, closeURL, seller.Token, nil)
		require.Equal(t, http.StatusOK, w.Code, resp.Message)
		var closed helpers.ListingResponse
		resp.Decode(t, &closed)
		require.False(t, closed.Active)
	}

	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/listings/"+listing.ListingID+"/bids", alice.Token, map[string]any{"amount": 100})
	require.Equal(t, http.StatusConflict, w.Code)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active []helpers.ListingResponse
	resp.Decode(t, &active)
	require.Empty(t, active)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/categories/Toys/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var byCategory []helpers.ListingResponse
	resp.Decode(t, &byCategory)
	require.Empty(t, byCategory)

	// the detail view still names the winner after closing
	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/listings/"+listing.ListingID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail helpers.ListingDetailResponse
	resp.Decode(t, &detail)
	require.False(t, detail.Active)
	require.NotNil(t, detail.Winner)
	require.Equal(t, alice.ID, detail.Winner.UserID)
}

func TestCreateListingValidation(t *testing.T) {
	env := SetupTestEnv(t, "A", "B", "C", "D")
	seller := env.SignUp(t, "seller")
	ids := []string{env.CategoryID(t, "A"), env.CategoryID(t, "B"), env.CategoryID(t, "C"), env.CategoryID(t, "D")}

	tests := []struct {
		name       string
		request    map[string]any
		wantStatus int
	}{
		{"Too_Many_Categories", map[string]any{"title": "t", "description": "d", "starting_bid": 1, "category_ids": ids}, http.StatusBadRequest},
		{"Unknown_Category", map[string]any{"title": "t", "description": "d", "starting_bid": 1, "category_ids": []string{"ghost"}}, http.StatusNotFound},
		{"Zero_Starting_Bid", map[string]any{"title": "t", "description": "d", "starting_bid": 0}, http.StatusBadRequest},
		{"Bad_Image_URL", map[string]any{"title": "t", "description": "d", "starting_bid": 1, "image_url": "ftp://x/y.png"}, http.StatusBadRequest},
		{"Title_Too_Long", map[string]any{"title": fmt.Sprintf("%065d", 0), "description": "d", "starting_bid": 1}, http.StatusBadRequest},
		{"Three_Categories", map[string]any{"title": "t", "description": "d", "starting_bid": 1, "category_ids": ids[:3]}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/listings", seller.Token, tt.request)
			require.Equal(t, tt.wantStatus, w.Code, resp.Message)
		})
	}

	// only the valid listing was persisted
	resp, w := env.ExecuteRequestAndParse(t, http.MethodGet, "/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active []helpers.ListingResponse
	resp.Decode(t, &active)
	require.Len(t, active, 1)
	require.Len(t, active[0].Categories, 3)
}

func TestWatchlistAndComments(t *testing.T) {
	env := SetupTestEnv(t)
	seller := env.SignUp(t, "seller")
	alice := env.SignUp(t, "alice")
	listing := env.CreateListing(t, seller, "3")
	watchURL := "/listings/" + listing.ListingID + "/watch"

	resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, watchURL, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var watch helpers.WatchResponse
	resp.Decode(t, &watch)
	require.True(t, watch.Watching)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/watchlist", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var watchlist []helpers.ListingResponse
	resp.Decode(t, &watchlist)
	require.Len(t, watchlist, 1)
	require.Equal(t, listing.ListingID, watchlist[0].ListingID)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/listings/"+listing.ListingID+"/watchers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var watchers []helpers.UserResponse
	resp.Decode(t, &watchers)
	require.Len(t, watchers, 1)
	require.Equal(t, alice.ID, watchers[0].UserID)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodPost, watchURL, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp.Decode(t, &watch)
	require.False(t, watch.Watching)

	commentsURL := "/listings/" + listing.ListingID + "/comments"
	for _, text := range []string{"first", "second"} {
		resp, w = env.ExecuteRequestAndParse(t, http.MethodPost, commentsURL, alice.Token, helpers.AddCommentRequest{Text: text})
		require.Equal(t, http.StatusCreated, w.Code, resp.Message)
	}
	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, commentsURL, alice.Token, helpers.AddCommentRequest{Text: "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, commentsURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []helpers.CommentResponse
	resp.Decode(t, &comments)
	require.Len(t, comments, 2)
	require.Equal(t, "first", comments[0].Text)
	require.Equal(t, "second", comments[1].Text)
}

func TestListingsByBidder(t *testing.T) {
	env := SetupTestEnv(t)
	seller := env.SignUp(t, "seller")
	alice := env.SignUp(t, "alice")

	first := env.CreateListing(t, seller, "1")
	env.CreateListing(t, seller, "1")

	for _, amount := range []string{"2", "3"} {
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/listings/"+first.ListingID+"/bids", alice.Token, map[string]any{"amount": amount})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	resp, w := env.ExecuteRequestAndParse(t, http.MethodGet, "/users/"+alice.ID+"/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listings []helpers.ListingResponse
	resp.Decode(t, &listings)
	require.Len(t, listings, 1, "a listing appears once however many times the user bid")
	require.Equal(t, first.ListingID, listings[0].ListingID)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/users/"+seller.ID+"/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp.Decode(t, &listings)
	require.Empty(t, listings)

	_, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/users/ghost/listings", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	env := SetupTestEnv(t)
	env.SignUp(t, "alice")

	_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auth/register", "", helpers.RegisterRequest{Username: "alice", Password: "another-password"})
	require.Equal(t, http.StatusConflict, w.Code)

	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, "/auth/login", "", helpers.LoginRequest{Username: "alice", Password: "wrong-password"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConcurrentBidsOverHTTP(t *testing.T) {
	env := SetupTestEnv(t)
	seller := env.SignUp(t, "seller")
	listing := env.CreateListing(t, seller, "10")

	const bidders = 10
	users := make([]user, bidders)
	for i := range users {
		users[i] = env.SignUp(t, fmt.Sprintf("bidder%d", i))
	}

	var wg sync.WaitGroup
	codes := make([]int, bidders)
	for i, u := range users {
		wg.Add(1)
		go func(i int, u user) {
			defer wg.Done()
			_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/listings/"+listing.ListingID+"/bids", u.Token, map[string]any{"amount": "15.00"})
			codes[i] = w.Code
		}(i, u)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		if code == http.StatusCreated {
			created++
		} else {
			require.Equal(t, http.StatusConflict, code)
		}
	}
	require.Equal(t, 1, created)

	bids, err := env.auctions.GetBidsForListing(t.Context(), listing.ListingID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
}
