// Package weather turns provider calls into optional observations. A failed
// fetch is logged and counted, then reported as a nil observation so the
// commute can still be evaluated.
package weather

import (
	"context"
	"errors"
	"log/slog"

	"ridecheck/internal/external"
	"ridecheck/internal/metrics"
	"ridecheck/internal/ride"
	"ridecheck/internal/types"
)

// Service fetches current conditions for commute locations.
type Service struct {
	provider   external.WeatherProvider
	classifier *ride.Classifier
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClassifier sets how the city part is found for the not-found fallback.
func WithClassifier(c *ride.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// NewService creates a Service. A nil recorder disables metrics.
func NewService(provider external.WeatherProvider, rec metrics.Recorder, logger *slog.Logger, opts ...Option) *Service {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		provider:   provider,
		classifier: ride.NewClassifier(),
		metrics:    rec,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the name of the underlying provider.
func (s *Service) Provider() types.WeatherProviderName {
	return s.provider.Name()
}

// Observe returns the current observation at location, or nil when none
// could be obtained. If the full identifier is unknown to the provider and it
// carries a zone, the city part alone is tried once.
func (s *Service) Observe(ctx context.Context, role types.LocationRole, location string) *types.Observation {
	logger := types.LoggerFromContext(ctx, s.logger).With(
		"role", string(role),
		"location", location,
		"provider", string(s.provider.Name()),
	)

	obs, err := s.provider.Current(ctx, location)
	if err != nil && isNotFound(err) {
		if place := s.classifier.Split(location); place.HasZone && place.City != location {
			logger.InfoContext(ctx, "location not found, falling back to city", "city", place.City)
			obs, err = s.provider.Current(ctx, place.City)
		}
	}

	if err == nil && obs == nil {
		err = types.NewAppError(types.ErrCodeUpstreamBadPayload, "provider returned no observation", nil)
	}
	if err != nil {
		attrs := []any{"error", err.Error()}
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			attrs = append(attrs, "code", string(appErr.Code))
		}
		logger.WarnContext(ctx, "weather observation unavailable", attrs...)
		s.metrics.RecordObservationMissing(ctx, role, s.provider.Name())
		return nil
	}

	logger.DebugContext(ctx, "weather observation fetched",
		"temperature_c", obs.TemperatureC,
		"wind_speed_ms", obs.WindSpeedMS,
		"condition", obs.Condition,
	)
	return obs
}

func isNotFound(err error) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Code == types.ErrCodeNotFoundLocation
}
