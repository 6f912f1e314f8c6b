// Package pricing decides what a listing currently costs and whether a new bid beats it.
package pricing

import (
	"fmt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"

	"github.com/shopspring/decimal"
)

// MinimumStartingBid is the lowest starting bid a listing may be created with
var MinimumStartingBid = decimal.RequireFromString("0.10")

// maxScale is the number of decimal places money is kept with
const maxScale = 2

// CurrentHighBid returns the price to beat: the highest bid, or the starting bid when there are none
func CurrentHighBid(listing models.Listing, bids []models.Bid) decimal.Decimal {
	high := listing.StartingBid
	for i, b := range bids {
		if i == 0 || b.Amount.GreaterThan(high) {
			high = b.Amount
		}
	}
	return high
}

// ValidateBid checks a proposed amount against the listing's bid ledger.
// The first bid may equal the starting bid; every later bid must be strictly higher.
func ValidateBid(listing models.Listing, bids []models.Bid, amount decimal.Decimal) error {
	high := CurrentHighBid(listing, bids)

	if len(bids) == 0 {
		if amount.LessThan(high) {
			return fmt.Errorf("%w - bid must be at least the starting bid of %s", auctionerrors.ErrBidTooLow, high.StringFixed(maxScale))
		}
		return nil
	}

	if amount.LessThanOrEqual(high) {
		return fmt.Errorf("%w - current highest bid is %s", auctionerrors.ErrBidTooLow, high.StringFixed(maxScale))
	}
	return nil
}

// CurrentWinner returns the highest bid. Equal amounts go to the earliest bid.
func CurrentWinner(bids []models.Bid) (models.Bid, bool) {
	if len(bids) == 0 {
		return models.Bid{}, false
	}

	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Amount.GreaterThan(winning.Amount) || (b.Amount.Equal(winning.Amount) && b.CreatedAt.Before(winning.CreatedAt)) {
			winning = b
		}
	}
	return winning, true
}

// ValidateAmount rejects non-positive amounts and amounts finer than a cent
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w - amount must be positive", auctionerrors.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Truncate(maxScale)) {
		return fmt.Errorf("%w - amount must have at most %d decimal places", auctionerrors.ErrInvalidAmount, maxScale)
	}
	return nil
}

// ValidateStartingBid applies ValidateAmount plus the marketplace minimum
func ValidateStartingBid(amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if amount.LessThan(MinimumStartingBid) {
		return fmt.Errorf("%w - starting bid must be at least %s", auctionerrors.ErrInvalidAmount, MinimumStartingBid.StringFixed(maxScale))
	}
	return nil
}
