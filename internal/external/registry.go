package external

import (
	"fmt"
	"log/slog"
	"net/http"

	"ridecheck/internal/config"
	"ridecheck/internal/types"
)

// ClientRegistry holds the outbound clients built from configuration.
type ClientRegistry struct {
	Weather WeatherProvider

	// Clients are the breaker-wrapped HTTP clients behind Weather, exposed so
	// the health endpoint can report open breakers.
	Clients []*BaseClient
}

// NewClientRegistry builds the weather provider named by cfg.Weather.Provider.
// Test mode and the "stub" provider both yield a StubWeatherProvider.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger) (*ClientRegistry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	wc := cfg.Weather
	if cfg.IsTestMode || wc.Provider == types.ProviderStub {
		logger.Info("initializing weather provider in STUB mode",
			"is_test_mode", cfg.IsTestMode,
			"environment", cfg.Environment,
		)
		return &ClientRegistry{Weather: NewStubWeatherProvider(logger.With("mode", "stub"))}, nil
	}

	httpClient := &http.Client{Timeout: wc.Timeout}

	switch wc.Provider {
	case types.ProviderQWeather:
		base := NewBaseClient(httpClient, "qweather", DefaultBreakerSettings(), wc.UserAgent)
		logger.Info("initializing weather provider", "provider", wc.Provider)
		return &ClientRegistry{
			Weather: NewQWeatherClient(base, QWeatherClientConfig{
				APIKey:     wc.APIKey.Unmask(),
				GeoBaseURL: wc.QWeatherGeoURL,
				APIBaseURL: wc.QWeatherAPIURL,
				Lang:       wc.Lang,
				Logger:     logger.With("client", "qweather"),
			}),
			Clients: []*BaseClient{base},
		}, nil

	case types.ProviderOpenWeather:
		geoBase := NewBaseClient(httpClient, "nominatim", DefaultBreakerSettings(), wc.UserAgent)
		owBase := NewBaseClient(httpClient, "openweather", DefaultBreakerSettings(), wc.UserAgent)
		geocoder := NewNominatimClient(geoBase, NominatimClientConfig{
			BaseURL: wc.NominatimURL,
			Logger:  logger.With("client", "nominatim"),
		})
		logger.Info("initializing weather provider", "provider", wc.Provider)
		return &ClientRegistry{
			Weather: NewOpenWeatherClient(owBase, geocoder, OpenWeatherClientConfig{
				APIKey:  wc.APIKey.Unmask(),
				BaseURL: wc.OpenWeatherURL,
				Lang:    wc.Lang,
				Logger:  logger.With("client", "openweather"),
			}),
			Clients: []*BaseClient{geoBase, owBase},
		}, nil

	default:
		return nil, fmt.Errorf("unknown weather provider %q", wc.Provider)
	}
}
