package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// SQLiteRepo implements AuctionDB on an embedded SQLite database.
type SQLiteRepo struct {
	db        *sql.DB
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ AuctionDB = (*SQLiteRepo)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteRepo opens (creating if needed) the database at dbPath and runs migrations.
func NewSQLiteRepo(ctx context.Context, dbPath string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// pragmas go in the DSN so that every pooled connection gets them
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	return &SQLiteRepo{
		db:        db,
		writeLock: new(sync.Mutex),
	}, nil
}

// Close closes the database connection.
func (r *SQLiteRepo) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// CreateUser inserts a user; a taken username fails with ErrUsernameTaken
func (r *SQLiteRepo) CreateUser(ctx context.Context, user model.User) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, username, display_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		user.UserID, user.Username, user.DisplayName, user.PasswordHash, toUnixMicro(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(auctionerrors.ErrUsernameTaken, err)
		}
		return fmt.Errorf("insert user %s: %w", user.Username, err)
	}
	return nil
}

// GetUser returns a user by id
func (r *SQLiteRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	return r.scanUser(ctx, "SELECT id, username, display_name, password_hash, created_at FROM users WHERE id = ?", userID)
}

// GetUserByUsername returns a user by username
func (r *SQLiteRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return r.scanUser(ctx, "SELECT id, username, display_name, password_hash, created_at FROM users WHERE username = ?", username)
}

func (r *SQLiteRepo) scanUser(ctx context.Context, query, arg string) (model.User, error) {
	var user model.User
	var createdAt int64

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.UserID, &user.Username, &user.DisplayName, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(auctionerrors.ErrUserNotFound, err)
		}
		return model.User{}, fmt.Errorf("query user %s: %w", arg, err)
	}
	user.CreatedAt = fromUnixMicro(createdAt)
	return user, nil
}

// CreateCategory inserts a category; a taken name fails with ErrCategoryExists
func (r *SQLiteRepo) CreateCategory(ctx context.Context, category model.Category) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, "INSERT INTO categories (id, name) VALUES (?, ?)", category.CategoryID, category.Name)
	if err != nil {
		if isUniqueViolation(err) {
			err = errors.Join(auctionerrors.ErrCategoryExists, err)
		}
		return fmt.Errorf("insert category %s: %w", category.Name, err)
	}
	return nil
}

// GetCategoryByName returns a category by its label
func (r *SQLiteRepo) GetCategoryByName(ctx context.Context, name string) (model.Category, error) {
	var category model.Category
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM categories WHERE name = ?", name).
		Scan(&category.CategoryID, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(auctionerrors.ErrCategoryNotFound, err)
		}
		return model.Category{}, fmt.Errorf("query category %s: %w", name, err)
	}
	return category, nil
}

// ListCategories returns all categories ordered by name
func (r *SQLiteRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.CategoryID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateListing inserts the listing and its category links in one transaction
func (r *SQLiteRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range listing.Categories {
		var name string
		err := tx.QueryRowContext(ctx, "SELECT name FROM categories WHERE id = ?", c.CategoryID).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("create listing %s: category %s: %w", listing.ListingID, c.CategoryID, auctionerrors.ErrCategoryNotFound)
		}
		if err != nil {
			return fmt.Errorf("query category %s: %w", c.CategoryID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO listings (id, title, description, image_url, starting_bid, seller_id, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ListingID, listing.Title, listing.Description, listing.ImageURL,
		listing.StartingBid.String(), listing.SellerID, listing.Active, toUnixMicro(listing.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}

	for _, c := range listing.Categories {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO listing_categories (listing_id, category_id) VALUES (?, ?)",
			listing.ListingID, c.CategoryID,
		)
		if err != nil {
			return fmt.Errorf("insert listing category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const listingColumns = "l.id, l.title, l.description, l.image_url, l.starting_bid, l.seller_id, l.active, l.created_at"

// GetListing returns a listing with its categories
func (r *SQLiteRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	return r.getListing(ctx, r.db, listingID)
}

func (r *SQLiteRepo) getListing(ctx context.Context, q querier, listingID string) (model.Listing, error) {
	listings, err := r.queryListings(ctx, q, "SELECT "+listingColumns+" FROM listings l WHERE l.id = ?", listingID)
	if err != nil {
		return model.Listing{}, err
	}
	if len(listings) == 0 {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return listings[0], nil
}

// ListActiveListings returns open listings in creation order
func (r *SQLiteRepo) ListActiveListings(ctx context.Context) ([]model.Listing, error) {
	return r.queryListings(ctx, r.db,
		"SELECT "+listingColumns+" FROM listings l WHERE l.active = 1 ORDER BY l.created_at, l.rowid")
}

// ListActiveListingsByCategory returns open listings filed under a category
func (r *SQLiteRepo) ListActiveListingsByCategory(ctx context.Context, categoryID string) ([]model.Listing, error) {
	return r.queryListings(ctx, r.db,
		`SELECT `+listingColumns+` FROM listings l
		 JOIN listing_categories lc ON lc.listing_id = l.id
		 WHERE lc.category_id = ? AND l.active = 1
		 ORDER BY l.created_at, l.rowid`, categoryID)
}

// GetListingsByBidder returns all listings a user has bid on
func (r *SQLiteRepo) GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error) {
	return r.queryListings(ctx, r.db,
		`SELECT `+listingColumns+` FROM listings l
		 WHERE l.id IN (SELECT listing_id FROM bids WHERE user_id = ?)
		 ORDER BY l.created_at, l.rowid`, userID)
}

// ListWatchlist returns the listings a user watches
func (r *SQLiteRepo) ListWatchlist(ctx context.Context, userID string) ([]model.Listing, error) {
	return r.queryListings(ctx, r.db,
		`SELECT `+listingColumns+` FROM listings l
		 JOIN watchlist w ON w.listing_id = l.id
		 WHERE w.user_id = ?
		 ORDER BY w.rowid`, userID)
}

func (r *SQLiteRepo) queryListings(ctx context.Context, q querier, query string, args ...any) ([]model.Listing, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		var l model.Listing
		var createdAt int64
		if err := rows.Scan(&l.ListingID, &l.Title, &l.Description, &l.ImageURL, &l.StartingBid, &l.SellerID, &l.Active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		l.CreatedAt = fromUnixMicro(createdAt)
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	rows.Close()

	for i := range listings {
		categories, err := r.listingCategories(ctx, q, listings[i].ListingID)
		if err != nil {
			return nil, err
		}
		listings[i].Categories = categories
	}
	return listings, nil
}

func (r *SQLiteRepo) listingCategories(ctx context.Context, q querier, listingID string) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT c.id, c.name FROM categories c
		 JOIN listing_categories lc ON lc.category_id = c.id
		 WHERE lc.listing_id = ? ORDER BY c.name`, listingID)
	if err != nil {
		return nil, fmt.Errorf("query listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.CategoryID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan listing category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateListingWithLock runs fn inside a write transaction. Writers are
// serialized by writeLock, so fn's view of the bid ledger cannot go stale
// before the change is committed.
func (r *SQLiteRepo) UpdateListingWithLock(ctx context.Context, listingID string, fn ListingUpdateFunc) (model.Listing, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Listing{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	listing, err := r.getListing(ctx, tx, listingID)
	if err != nil {
		return model.Listing{}, fmt.Errorf("update listing: %w", err)
	}

	bids, err := r.queryBids(ctx, tx, listingID)
	if err != nil {
		return model.Listing{}, err
	}

	change, err := fn(listing, bids)
	if err != nil {
		return model.Listing{}, err
	}

	if change.Bid != nil {
		b := change.Bid
		_, err = tx.ExecContext(ctx,
			"INSERT INTO bids (id, listing_id, user_id, amount, created_at) VALUES (?, ?, ?, ?, ?)",
			b.BidID, b.ListingID, b.UserID, b.Amount.String(), toUnixMicro(b.CreatedAt),
		)
		if err != nil {
			return model.Listing{}, fmt.Errorf("insert bid: %w", err)
		}
	}

	if change.Deactivate {
		if _, err = tx.ExecContext(ctx, "UPDATE listings SET active = 0 WHERE id = ?", listingID); err != nil {
			return model.Listing{}, fmt.Errorf("deactivate listing: %w", err)
		}
		listing.Active = false
	}

	if err := tx.Commit(); err != nil {
		return model.Listing{}, fmt.Errorf("commit transaction: %w", err)
	}
	return listing, nil
}

// GetBidsByListing returns all bids for a listing in the order they were placed
func (r *SQLiteRepo) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	if err := r.requireListing(ctx, listingID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}
	return r.queryBids(ctx, r.db, listingID)
}

func (r *SQLiteRepo) queryBids(ctx context.Context, q querier, listingID string) ([]model.Bid, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, listing_id, user_id, amount, created_at FROM bids WHERE listing_id = ? ORDER BY created_at, rowid",
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("query bids: %w", err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var b model.Bid
		var createdAt int64
		if err := rows.Scan(&b.BidID, &b.ListingID, &b.UserID, &b.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		b.CreatedAt = fromUnixMicro(createdAt)
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// AddComment inserts a comment on an existing listing
func (r *SQLiteRepo) AddComment(ctx context.Context, comment model.Comment) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if err := r.requireListing(ctx, comment.ListingID); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (id, listing_id, user_id, text, created_at) VALUES (?, ?, ?, ?, ?)",
		comment.CommentID, comment.ListingID, comment.UserID, comment.Text, toUnixMicro(comment.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListComments returns a listing's comments oldest first
func (r *SQLiteRepo) ListComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	if err := r.requireListing(ctx, listingID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, listing_id, user_id, text, created_at FROM comments WHERE listing_id = ? ORDER BY created_at, rowid",
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		var createdAt int64
		if err := rows.Scan(&c.CommentID, &c.ListingID, &c.UserID, &c.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = fromUnixMicro(createdAt)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ToggleWatchlist deletes the pair if present, otherwise inserts it
func (r *SQLiteRepo) ToggleWatchlist(ctx context.Context, userID, listingID string) (bool, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.requireListingTx(ctx, tx, listingID); err != nil {
		return false, fmt.Errorf("toggle watchlist: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM watchlist WHERE user_id = ? AND listing_id = ?", userID, listingID)
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete watchlist entry: %w", err)
	}

	if removed == 0 {
		if _, err := tx.ExecContext(ctx, "INSERT INTO watchlist (user_id, listing_id) VALUES (?, ?)", userID, listingID); err != nil {
			return false, fmt.Errorf("insert watchlist entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return removed == 0, nil
}

// ListWatchers returns the users watching a listing
func (r *SQLiteRepo) ListWatchers(ctx context.Context, listingID string) ([]model.User, error) {
	if err := r.requireListing(ctx, listingID); err != nil {
		return nil, fmt.Errorf("list watchers: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.display_name, u.password_hash, u.created_at FROM users u
		 JOIN watchlist w ON w.user_id = u.id
		 WHERE w.listing_id = ? ORDER BY w.rowid`, listingID)
	if err != nil {
		return nil, fmt.Errorf("query watchers: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		var createdAt int64
		if err := rows.Scan(&u.UserID, &u.Username, &u.DisplayName, &u.PasswordHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scan watcher: %w", err)
		}
		u.CreatedAt = fromUnixMicro(createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepo) requireListing(ctx context.Context, listingID string) error {
	return r.requireListingTx(ctx, r.db, listingID)
}

func (r *SQLiteRepo) requireListingTx(ctx context.Context, q querier, listingID string) error {
	var exists int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM listings WHERE id = ?", listingID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return fmt.Errorf("query listing %s: %w", listingID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
}

func toUnixMicro(t time.Time) int64 {
	return t.UnixMicro()
}

func fromUnixMicro(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}
