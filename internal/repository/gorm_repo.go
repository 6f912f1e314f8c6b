package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

// GormRepo implements AuctionDB on PostgreSQL through gorm. Locked updates
// use SELECT ... FOR UPDATE so several processes can share one database.
type GormRepo struct {
	db *gorm.DB
}

var _ AuctionDB = (*GormRepo)(nil)

// OpenPostgres connects to PostgreSQL and migrates the schema
func OpenPostgres(dsn string, verbose bool) (*GormRepo, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if verbose {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	repo := NewGormRepo(db)
	if err := repo.AutoMigrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return repo, nil
}

// NewGormRepo wraps an open gorm connection
func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{db: db}
}

// AutoMigrate creates or updates every table the store needs
func (r *GormRepo) AutoMigrate() error {
	err := r.db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Listing{},
		&model.ListingCategory{},
		&model.Bid{},
		&model.Comment{},
		&model.WatchlistEntry{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (r *GormRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser stores a user; a username clash is ErrUsernameTaken
func (r *GormRepo) CreateUser(ctx context.Context, user model.User) error {
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = errors.Join(auctionerrors.ErrUsernameTaken, err)
		}
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

// GetUser returns a user by id
func (r *GormRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, notFound(err, auctionerrors.ErrUserNotFound))
	}
	return user, nil
}

// GetUserByUsername returns a user by username
func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return model.User{}, fmt.Errorf("get user by username %s: %w", username, notFound(err, auctionerrors.ErrUserNotFound))
	}
	return user, nil
}

// CreateCategory stores a category with a unique name
func (r *GormRepo) CreateCategory(ctx context.Context, category model.Category) error {
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = errors.Join(auctionerrors.ErrCategoryExists, err)
		}
		return fmt.Errorf("create category %s: %w", category.Name, err)
	}
	return nil
}

// GetCategoryByName returns a category by its label
func (r *GormRepo) GetCategoryByName(ctx context.Context, name string) (model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return model.Category{}, fmt.Errorf("get category %s: %w", name, notFound(err, auctionerrors.ErrCategoryNotFound))
	}
	return category, nil
}

// ListCategories returns all categories ordered by name
func (r *GormRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateListing inserts the listing and its category links in one transaction
func (r *GormRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, c := range listing.Categories {
			var count int64
			if err := tx.Model(&model.Category{}).Where("id = ?", c.CategoryID).Count(&count).Error; err != nil {
				return fmt.Errorf("query category %s: %w", c.CategoryID, err)
			}
			if count == 0 {
				return fmt.Errorf("create listing %s: category %s: %w", listing.ListingID, c.CategoryID, auctionerrors.ErrCategoryNotFound)
			}
		}

		if err := tx.Create(&listing).Error; err != nil {
			return fmt.Errorf("create listing %s: %w", listing.ListingID, err)
		}

		for _, c := range listing.Categories {
			link := model.ListingCategory{ListingID: listing.ListingID, CategoryID: c.CategoryID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return fmt.Errorf("link listing category: %w", err)
			}
		}
		return nil
	})
}

// GetListing returns a listing with its categories
func (r *GormRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	return r.getListing(r.db.WithContext(ctx), listingID)
}

func (r *GormRepo) getListing(tx *gorm.DB, listingID string) (model.Listing, error) {
	var listing model.Listing
	if err := tx.First(&listing, "id = ?", listingID).Error; err != nil {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, notFound(err, auctionerrors.ErrListingNotFound))
	}
	if err := r.loadCategories(tx, &listing); err != nil {
		return model.Listing{}, err
	}
	return listing, nil
}

// ListActiveListings returns open listings in creation order
func (r *GormRepo) ListActiveListings(ctx context.Context) ([]model.Listing, error) {
	return r.findListings(r.db.WithContext(ctx).Where("active = ?", true))
}

// ListActiveListingsByCategory returns open listings filed under a category
func (r *GormRepo) ListActiveListingsByCategory(ctx context.Context, categoryID string) ([]model.Listing, error) {
	return r.findListings(r.db.WithContext(ctx).
		Joins("JOIN listing_categories lc ON lc.listing_id = listings.id").
		Where("lc.category_id = ? AND listings.active = ?", categoryID, true))
}

// GetListingsByBidder returns all listings a user has bid on
func (r *GormRepo) GetListingsByBidder(ctx context.Context, userID string) ([]model.Listing, error) {
	db := r.db.WithContext(ctx)
	bidListings := db.Model(&model.Bid{}).Select("listing_id").Where("user_id = ?", userID)
	return r.findListings(db.Where("listings.id IN (?)", bidListings))
}

// ListWatchlist returns the listings a user watches
func (r *GormRepo) ListWatchlist(ctx context.Context, userID string) ([]model.Listing, error) {
	return r.findListings(r.db.WithContext(ctx).
		Joins("JOIN watchlist w ON w.listing_id = listings.id").
		Where("w.user_id = ?", userID))
}

func (r *GormRepo) findListings(query *gorm.DB) ([]model.Listing, error) {
	listings := []model.Listing{}
	if err := query.Select("listings.*").Order("listings.created_at, listings.id").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	for i := range listings {
		if err := r.loadCategories(query.Session(&gorm.Session{NewDB: true}), &listings[i]); err != nil {
			return nil, err
		}
	}
	return listings, nil
}

func (r *GormRepo) loadCategories(tx *gorm.DB, listing *model.Listing) error {
	categories := []model.Category{}
	err := tx.Model(&model.Category{}).
		Select("categories.*").
		Joins("JOIN listing_categories lc ON lc.category_id = categories.id").
		Where("lc.listing_id = ?", listing.ListingID).
		Order("categories.name").
		Find(&categories).Error
	if err != nil {
		return fmt.Errorf("load categories for listing %s: %w", listing.ListingID, err)
	}
	listing.Categories = categories
	return nil
}

// UpdateListingWithLock locks the listing row FOR UPDATE, runs fn, and
// applies the change before the transaction commits.
func (r *GormRepo) UpdateListingWithLock(ctx context.Context, listingID string, fn ListingUpdateFunc) (model.Listing, error) {
	var updated model.Listing

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&listing, "id = ?", listingID).Error
		if err != nil {
			return fmt.Errorf("update listing %s: %w", listingID, notFound(err, auctionerrors.ErrListingNotFound))
		}
		if err := r.loadCategories(tx, &listing); err != nil {
			return err
		}

		bids := []model.Bid{}
		if err := tx.Where("listing_id = ?", listingID).Order("created_at, id").Find(&bids).Error; err != nil {
			return fmt.Errorf("load bids: %w", err)
		}

		change, err := fn(listing, bids)
		if err != nil {
			return err
		}

		if change.Bid != nil {
			if err := tx.Create(change.Bid).Error; err != nil {
				return fmt.Errorf("create bid: %w", err)
			}
		}
		if change.Deactivate {
			if err := tx.Model(&model.Listing{}).Where("id = ?", listingID).Update("active", false).Error; err != nil {
				return fmt.Errorf("deactivate listing: %w", err)
			}
			listing.Active = false
		}

		updated = listing
		return nil
	})
	if err != nil {
		return model.Listing{}, err
	}
	return updated, nil
}

// GetBidsByListing returns all bids for a listing in the order they were placed
func (r *GormRepo) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	db := r.db.WithContext(ctx)
	if err := r.requireListing(db, listingID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}

	bids := []model.Bid{}
	if err := db.Where("listing_id = ?", listingID).Order("created_at, id").Find(&bids).Error; err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

// AddComment inserts a comment on an existing listing
func (r *GormRepo) AddComment(ctx context.Context, comment model.Comment) error {
	db := r.db.WithContext(ctx)
	if err := r.requireListing(db, comment.ListingID); err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	if err := db.Create(&comment).Error; err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// ListComments returns a listing's comments oldest first
func (r *GormRepo) ListComments(ctx context.Context, listingID string) ([]model.Comment, error) {
	db := r.db.WithContext(ctx)
	if err := r.requireListing(db, listingID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := []model.Comment{}
	if err := db.Where("listing_id = ?", listingID).Order("created_at, id").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments for listing %s: %w", listingID, err)
	}
	return comments, nil
}

// ToggleWatchlist deletes the pair if present, otherwise inserts it. The
// listing row is locked so concurrent toggles on it are serialized.
func (r *GormRepo) ToggleWatchlist(ctx context.Context, userID, listingID string) (bool, error) {
	var watching bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&listing, "id = ?", listingID).Error
		if err != nil {
			return fmt.Errorf("toggle watchlist for listing %s: %w", listingID, notFound(err, auctionerrors.ErrListingNotFound))
		}

		res := tx.Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&model.WatchlistEntry{})
		if res.Error != nil {
			return fmt.Errorf("delete watchlist entry: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		if err := tx.Create(&model.WatchlistEntry{UserID: userID, ListingID: listingID}).Error; err != nil {
			return fmt.Errorf("create watchlist entry: %w", err)
		}
		watching = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return watching, nil
}

// ListWatchers returns the users watching a listing in watch order
func (r *GormRepo) ListWatchers(ctx context.Context, listingID string) ([]model.User, error) {
	db := r.db.WithContext(ctx)
	if err := r.requireListing(db, listingID); err != nil {
		return nil, fmt.Errorf("list watchers: %w", err)
	}

	users := []model.User{}
	err := db.Select("users.*").
		Joins("JOIN watchlist w ON w.user_id = users.id").
		Where("w.listing_id = ?", listingID).
		Order("w.seq").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list watchers for listing %s: %w", listingID, err)
	}
	return users, nil
}

func (r *GormRepo) requireListing(db *gorm.DB, listingID string) error {
	var count int64
	if err := db.Model(&model.Listing{}).Where("id = ?", listingID).Count(&count).Error; err != nil {
		return fmt.Errorf("query listing %s: %w", listingID, err)
	}
	if count == 0 {
		return fmt.Errorf("listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return nil
}

// notFound maps gorm's record-not-found onto the domain sentinel
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(sentinel, err)
	}
	return err
}
