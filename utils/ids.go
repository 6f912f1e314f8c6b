package utils

import (
	"time"

	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string
func GenerateID() string {
	return uuid.New().String()
}

// Now returns the current UTC time at microsecond precision, the finest
// resolution every store keeps, so timestamps survive a round trip unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
