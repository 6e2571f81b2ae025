package external

import (
	"context"
	"log/slog"

	"ridecheck/internal/types"
)

// StubWeatherProvider returns canned observations so the service runs
// without credentials in local and test mode.
type StubWeatherProvider struct {
	logger *slog.Logger

	// Observations overrides the reading for specific locations. A nil entry
	// simulates a provider failure for that location.
	Observations map[string]*types.Observation
	// Default is returned for locations not in Observations.
	Default types.Observation
}

// DefaultStubObservation is a mild, dry reading.
var DefaultStubObservation = types.Observation{
	TemperatureC: 18,
	WindSpeedMS:  3.2,
	HumidityPct:  55,
	Condition:    "clear sky",
}

// NewStubWeatherProvider creates a StubWeatherProvider returning
// DefaultStubObservation everywhere.
func NewStubWeatherProvider(logger *slog.Logger) *StubWeatherProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubWeatherProvider{
		logger:       logger,
		Observations: make(map[string]*types.Observation),
		Default:      DefaultStubObservation,
	}
}

// Name implements WeatherProvider.
func (s *StubWeatherProvider) Name() types.WeatherProviderName {
	return types.ProviderStub
}

// Current implements WeatherProvider.
func (s *StubWeatherProvider) Current(ctx context.Context, location string) (*types.Observation, error) {
	s.logger.InfoContext(ctx, "stub: Current called", "location", location)

	if obs, ok := s.Observations[location]; ok {
		if obs == nil {
			return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamWeather,
				"stub: no reading configured", nil, map[string]any{"location": location})
		}
		out := *obs
		return &out, nil
	}
	out := s.Default
	return &out, nil
}
