// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"auction-house/internal/auctionerrors"
)

const namespace = "auction"

var (
	BidsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bids_placed_total",
		Help:      "Bids submitted, by outcome.",
	}, []string{"result"})

	ListingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_created_total",
		Help:      "Listings successfully created.",
	})

	ListingsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_closed_total",
		Help:      "Close requests that left a listing inactive.",
	})

	LockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "listing_lock_wait_seconds",
		Help:      "Time spent waiting for a listing lock.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// BidResult labels a PlaceBid outcome for BidsPlaced
func BidResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return "closed"
	case errors.Is(err, auctionerrors.ErrInvalidAmount):
		return "invalid"
	case errors.Is(err, auctionerrors.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// ObserveHTTP records one served request
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
