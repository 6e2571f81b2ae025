package external

import (
	"context"

	"ridecheck/internal/types"
)

// WeatherProvider returns current conditions for a free-text location.
// Implementations return a *types.AppError on failure; they never return a
// nil observation with a nil error.
type WeatherProvider interface {
	Name() types.WeatherProviderName
	Current(ctx context.Context, location string) (*types.Observation, error)
}

// Geocoder resolves a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lon float64, err error)
}
