package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a participant in the auction
type User struct {
	UserID       string    `gorm:"column:id;primaryKey;size:36" json:"user_id"`
	Username     string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	DisplayName  string    `gorm:"size:150" json:"display_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// Category is a unique label listings can be filed under
type Category struct {
	CategoryID string `gorm:"column:id;primaryKey;size:36" json:"category_id"`
	Name       string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

func (Category) TableName() string {
	return "categories"
}

// Listing represents an item up for auction
type Listing struct {
	ListingID   string          `gorm:"column:id;primaryKey;size:36" json:"listing_id"`
	Title       string          `gorm:"size:64;not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	ImageURL    string          `gorm:"size:2048" json:"image_url,omitempty"`
	StartingBid decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"starting_bid"`
	SellerID    string          `gorm:"size:36;not null;index" json:"seller_id"`
	Active      bool            `gorm:"not null;default:true;index" json:"active"`
	Categories  []Category      `gorm:"-" json:"categories"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// CategoryIDs returns the ids of the categories the listing is filed under
func (l Listing) CategoryIDs() []string {
	ids := make([]string, 0, len(l.Categories))
	for _, c := range l.Categories {
		ids = append(ids, c.CategoryID)
	}
	return ids
}

// ListingCategory links a listing to one of its categories
type ListingCategory struct {
	ListingID  string `gorm:"primaryKey;size:36"`
	CategoryID string `gorm:"primaryKey;size:36;index"`
}

func (ListingCategory) TableName() string {
	return "listing_categories"
}

// Bid represents a user's bid on a listing
type Bid struct {
	BidID     string          `gorm:"column:id;primaryKey;size:36" json:"bid_id"`
	ListingID string          `gorm:"size:36;not null;index" json:"listing_id"`
	UserID    string          `gorm:"size:36;not null;index" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func (Bid) TableName() string {
	return "bids"
}

// Comment is a remark left by a user on a listing
type Comment struct {
	CommentID string    `gorm:"column:id;primaryKey;size:36" json:"comment_id"`
	ListingID string    `gorm:"size:36;not null;index" json:"listing_id"`
	UserID    string    `gorm:"size:36;not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// WatchlistEntry marks a listing as watched by a user
type WatchlistEntry struct {
	UserID    string `gorm:"primaryKey;size:36"`
	ListingID string `gorm:"primaryKey;size:36;index"`
	// Seq records watch order
	Seq int64 `gorm:"autoIncrement;not null"`
}

func (WatchlistEntry) TableName() string {
	return "watchlist"
}
