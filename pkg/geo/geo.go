// Package geo resolves classical place names to modern coordinates.
package geo

import "context"

// Client is the geocode gateway. Lookups never return an error: transport
// failures, non-zero API statuses and addresses the provider cannot place all
// collapse into ok=false so callers can walk their fallback chain.
type Client interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, ok bool)
}
