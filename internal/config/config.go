// Package config defines the runtime configuration for ridecheck.
//
// Configuration is loaded once at process start and is read-only afterwards.
// Values resolve through a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format is reported as a *ConfigError
// before any weather is fetched.
package config

import (
	"time"

	"ridecheck/internal/types"
)

// SecretString is an alias for types.SecretString so secrets resolved here
// print redacted wherever the config is logged.
type SecretString = types.SecretString

// Config is the top-level configuration. Sub-components receive only the
// subset they need.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"ridecheck"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	IsTestMode  bool   `envconfig:"IS_TEST_MODE" default:"false"`

	Commute       CommuteConfig
	Profile       ProfileConfig
	Weather       WeatherConfig
	Server        ServerConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// CommuteConfig names the two ends of the commute.
type CommuteConfig struct {
	HomeAddress string `envconfig:"HOME_ADDRESS" validate:"required,max=200"`
	WorkAddress string `envconfig:"WORK_ADDRESS" validate:"required,max=200"`

	// CityMarkers are the suffixes that end the city part of an address,
	// comma separated.
	CityMarkers []string `envconfig:"CITY_MARKERS" default:"City,市" validate:"dive,required"`
}

// ProfileConfig holds the rider's thresholds and precipitation matching
// options. The numeric thresholds have no defaults: zero is a meaningful
// temperature, so absence is detected by envconfig rather than validator.
type ProfileConfig struct {
	MinTemp            float64 `envconfig:"RIDE_MIN_TEMP" required:"true" validate:"gte=-90,lte=60"`
	MaxTemp            float64 `envconfig:"RIDE_MAX_TEMP" required:"true" validate:"gte=-90,lte=60,gtefield=MinTemp"`
	MaxWindSpeed       float64 `envconfig:"RIDE_MAX_WIND_SPEED" required:"true" validate:"gte=0"`
	AllowPrecipitation bool    `envconfig:"RIDE_ALLOW_PRECIPITATION" required:"true"`

	PrecipitationMatch types.PrecipitationMatch `envconfig:"RIDE_PRECIPITATION_MATCH" default:"insensitive" validate:"oneof=insensitive sensitive"`
	// VocabularyFile optionally points at a YAML token list that extends or
	// replaces the built-in rain/snow vocabulary.
	VocabularyFile string `envconfig:"RIDE_VOCABULARY_FILE"`
}

// PreferenceProfile returns the thresholds as the domain type.
func (p ProfileConfig) PreferenceProfile() types.PreferenceProfile {
	return types.PreferenceProfile{
		MinTemp:            p.MinTemp,
		MaxTemp:            p.MaxTemp,
		MaxWindSpeed:       p.MaxWindSpeed,
		AllowPrecipitation: p.AllowPrecipitation,
	}
}

// WeatherConfig selects and configures the weather provider.
type WeatherConfig struct {
	Provider types.WeatherProviderName `envconfig:"WEATHER_PROVIDER" default:"qweather" validate:"oneof=qweather openweather stub"`
	APIKey   SecretString              `envconfig:"WEATHER_API_KEY" validate:"required_unless=Provider stub"`

	QWeatherGeoURL string `envconfig:"QWEATHER_GEO_URL" default:"https://geoapi.qweather.com" validate:"url"`
	QWeatherAPIURL string `envconfig:"QWEATHER_API_URL" default:"https://devapi.qweather.com" validate:"url"`
	OpenWeatherURL string `envconfig:"OPENWEATHER_URL" default:"https://api.openweathermap.org" validate:"url"`
	NominatimURL   string `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org" validate:"url"`

	Lang      string        `envconfig:"WEATHER_LANG" default:"en"`
	Timeout   time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s" validate:"gt=0"`
	UserAgent string        `envconfig:"HTTP_USER_AGENT" default:"RideCheck/1.0"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// RecommendationQueue receives one message per scheduled commute check.
	// Empty disables publishing.
	RecommendationQueue string `envconfig:"SQS_RECOMMENDATIONS" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"RideCheck"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a value could not be parsed into its target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrVocabulary indicates the precipitation vocabulary file could not be
	// read or parsed.
	ErrVocabulary ConfigErrorType = "VOCABULARY_FAILED"
)
