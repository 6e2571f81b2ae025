// Package app wires the ridecheck components from a loaded Config. Every
// entrypoint (HTTP API, CLI, scheduled notifier) shares this cold-start path.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"ridecheck/internal/commute"
	"ridecheck/internal/config"
	"ridecheck/internal/core"
	"ridecheck/internal/external"
	"ridecheck/internal/metrics"
	"ridecheck/internal/ride"
	"ridecheck/internal/types"
	"ridecheck/internal/weather"
)

// App holds the wired services.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *external.ClientRegistry
	Metrics  metrics.Recorder
	Weather  *weather.Service
	Commute  *commute.Service
}

// New builds the weather provider, observation service and commute service.
// A nil rec disables telemetry.
func New(cfg *config.Config, logger *slog.Logger, rec metrics.Recorder) (*App, error) {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	vocab, err := config.LoadVocabulary(cfg.Profile)
	if err != nil {
		return nil, err
	}

	registry, err := external.NewClientRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building weather clients: %w", err)
	}

	classifier := ride.NewClassifier(cfg.Commute.CityMarkers...)
	observer := weather.NewService(registry.Weather, rec, logger.With("component", "weather"),
		weather.WithClassifier(classifier),
	)
	svc := commute.NewService(observer, logger.With("component", "commute"),
		commute.WithClassifier(classifier),
		commute.WithVocabulary(vocab),
		commute.WithMetrics(rec),
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Metrics:  rec,
		Weather:  observer,
		Commute:  svc,
	}, nil
}

// CommuteRequest is the configured home/work pair and profile.
func (a *App) CommuteRequest() types.CommuteRequest {
	return types.CommuteRequest{
		HomeAddress: a.Config.Commute.HomeAddress,
		WorkAddress: a.Config.Commute.WorkAddress,
		Profile:     a.Config.Profile.PreferenceProfile(),
	}
}

// HealthProbes reports the circuit breaker of each outbound client.
func (a *App) HealthProbes() []core.HealthProbe {
	probes := make([]core.HealthProbe, 0, len(a.Registry.Clients))
	for _, c := range a.Registry.Clients {
		probes = append(probes, c)
	}
	return probes
}

// NewLogger builds the JSON logger for level, writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// LoadAWSConfig loads the SDK configuration for cfg's region. A configured
// endpoint override (LocalStack) applies to every client.
func LoadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWS.Region)}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS SDK config: %w", err)
	}
	if cfg.AWS.EndpointURL != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
	}
	return awsCfg, nil
}

// NewRecorder returns a CloudWatch recorder when metrics are enabled and a
// NoopRecorder otherwise.
func NewRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (metrics.Recorder, error) {
	if !cfg.Observability.EnableMetrics {
		return metrics.NoopRecorder{}, nil
	}
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return metrics.NewCloudWatchRecorder(
		cloudwatch.NewFromConfig(awsCfg),
		cfg.Observability.MetricNamespace,
		logger.With("component", "metrics"),
	), nil
}

// SecretProvider returns the SSM provider for non-local environments and nil
// locally, where *_SSM_PARAM resolution is skipped.
func SecretProvider(appEnv, region, endpoint string) config.SecretProvider {
	if appEnv == "" || appEnv == "local" {
		return nil
	}
	var opts []config.SSMOption
	if endpoint != "" {
		opts = append(opts, config.WithSSMEndpoint(endpoint))
	}
	return config.NewSSMProvider(region, opts...)
}
