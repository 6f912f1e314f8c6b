package auctionerrors

import (
	"errors"
	"fmt"
)

// ErrNotFound is the kind shared by every "id does not resolve" error
var ErrNotFound = errors.New("not found")

// Repository-level errors
var (
	ErrListingNotFound  = fmt.Errorf("listing %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrNoBids           = errors.New("no bids found for listing")
)

// business logic errors
var (
	ErrForbidden         = errors.New("forbidden")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrAuctionClosed     = errors.New("auction is closed")
	ErrTooManyCategories = errors.New("too many categories")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidListing    = errors.New("invalid listing")
	ErrInvalidCategory   = errors.New("invalid category name")
	ErrEmptyComment      = errors.New("comment is empty")
)

// identity errors
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("username must be 3 to 150 characters")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrInvalidToken       = errors.New("invalid token")
)

// ErrLockTimeout is returned when a listing lock cannot be acquired in time
var ErrLockTimeout = errors.New("timed out waiting for listing lock")
