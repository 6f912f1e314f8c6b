package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	account "auction-house/internal/accountService"
	auction "auction-house/internal/auctionService"
	"auction-house/internal/config"
	"auction-house/internal/locker"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	"auction-house/services/auction/helpers"
)

// testEnv is a router over an in-memory store plus direct access to the services
type testEnv struct {
	router   *gin.Engine
	auctions *auction.AuctionService
	accounts *account.AccountService
}

// SetupTestEnv initializes the router with in-memory repository for integration testing.
func SetupTestEnv(t *testing.T, categories ...string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	auctions := auction.NewAuctionService(repo, locker.NewLocalLocker(5*time.Second))
	accounts := account.NewAccountService(repo, config.JWTConfig{Secret: "integration-secret", ExpireHours: 1})

	_, err := auctions.EnsureCategories(t.Context(), categories)
	require.NoError(t, err)

	return &testEnv{
		router:   server.SetupRouter(auctions, accounts),
		auctions: auctions,
		accounts: accounts,
	}
}

// response is the JSON envelope every endpoint replies with
type response struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Decode unmarshals the data member into v
func (r response) Decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses the envelope
func (e *testEnv) ExecuteRequestAndParse(t *testing.T, method, url, token string, body any) (response, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	e.router.ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response")
	}
	return resp, w
}

// user is a registered, logged-in account
type user struct {
	ID    string
	Token string
}

// SignUp registers username over HTTP and logs in
func (e *testEnv) SignUp(t *testing.T, username string) user {
	t.Helper()

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/auth/register", "", helpers.RegisterRequest{
		Username: username,
		Password: username + "-password",
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)
	var registered helpers.UserResponse
	resp.Decode(t, &registered)

	resp, w = e.ExecuteRequestAndParse(t, http.MethodPost, "/auth/login", "", helpers.LoginRequest{
		Username: username,
		Password: username + "-password",
	})
	require.Equal(t, http.StatusOK, w.Code, resp.Message)
	var token account.Token
	resp.Decode(t, &token)

	return user{ID: registered.UserID, Token: token.AccessToken}
}

// CategoryID looks up a seeded category over HTTP
func (e *testEnv) CategoryID(t *testing.T, name string) string {
	t.Helper()

	resp, w := e.ExecuteRequestAndParse(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categories []helpers.CategoryResponse
	resp.Decode(t, &categories)

	for _, c := range categories {
		if c.Name == name {
			return c.CategoryID
		}
	}
	t.Fatalf("category %q not seeded", name)
	return ""
}

// CreateListing posts a listing as seller and returns it
func (e *testEnv) CreateListing(t *testing.T, seller user, startingBid string, categoryIDs ...string) helpers.ListingResponse {
	t.Helper()

	resp, w := e.ExecuteRequestAndParse(t, http.MethodPost, "/listings", seller.Token, map[string]any{
		"title":        "Vintage camera",
		"description":  "Works, some scratches",
		"image_url":    "https://images.example.com/camera.jpg",
		"starting_bid": startingBid,
		"category_ids": categoryIDs,
	})
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)

	var listing helpers.ListingResponse
	resp.Decode(t, &listing)
	return listing
}
