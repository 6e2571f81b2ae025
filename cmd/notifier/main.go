// Package main is the scheduled notifier Lambda. An EventBridge schedule
// invokes it before the morning commute; it composes the recommendation for
// the configured home and work locations and publishes it to SQS.
//
// With APP_ENV=local it runs once and exits instead of starting the Lambda
// runtime.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"ridecheck/internal/app"
	"ridecheck/internal/config"
	"ridecheck/internal/queue"
	"ridecheck/internal/types"
)

// Recommender produces a recommendation. *commute.Service implements it.
type Recommender interface {
	Recommend(ctx context.Context, req types.CommuteRequest) (types.Recommendation, error)
}

// RecommendationPublisher sends recommendations downstream. *queue.Publisher
// implements it.
type RecommendationPublisher interface {
	Publish(ctx context.Context, req types.CommuteRequest, rec types.Recommendation) (string, error)
}

// Handler runs one scheduled commute check.
type Handler struct {
	recommender Recommender
	publisher   RecommendationPublisher
	request     types.CommuteRequest
	logger      *slog.Logger
}

// Result is returned to the Lambda runtime for the invocation log.
type Result struct {
	MessageID   string             `json:"message_id,omitempty"`
	Topology    types.Topology     `json:"topology"`
	Tone        types.GuidanceTone `json:"tone"`
	RideAdvised bool               `json:"ride_advised"`
}

// Handle composes and publishes one recommendation. The scheduled event's ID
// becomes the trace ID. A nil publisher only logs the result.
func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) (Result, error) {
	if event.ID != "" {
		ctx = types.WithRequestID(ctx, event.ID)
	}
	logger := h.logger.With("event_id", event.ID)
	ctx = types.WithLogger(ctx, logger)

	logger.InfoContext(ctx, "scheduled commute check started",
		"source", event.Source,
		"scheduled_at", event.Time,
	)

	rec, err := h.recommender.Recommend(ctx, h.request)
	if err != nil {
		logger.ErrorContext(ctx, "recommendation failed", "error", err)
		return Result{}, fmt.Errorf("composing recommendation: %w", err)
	}

	result := Result{
		Topology:    rec.Topology,
		Tone:        rec.Guidance.Tone,
		RideAdvised: rec.RideAdvised(),
	}

	if h.publisher == nil {
		logger.InfoContext(ctx, "no recommendation queue configured; skipping publish")
		return result, nil
	}

	result.MessageID, err = h.publisher.Publish(ctx, h.request, rec)
	if err != nil {
		logger.ErrorContext(ctx, "publish failed", "error", err)
		return result, fmt.Errorf("publishing recommendation: %w", err)
	}
	return result, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	provider := app.SecretProvider(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION"), os.Getenv("AWS_ENDPOINT_URL"))
	cfg, err := config.LoadConfig(provider)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := app.NewLogger(cfg.LogLevel, os.Stdout).With("service", cfg.Service, "function", "notifier")
	logger.Info("notifier initializing (cold start)",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
	)

	rec, err := app.NewRecorder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, logger, rec)
	if err != nil {
		return err
	}

	h := &Handler{
		recommender: a.Commute,
		request:     a.CommuteRequest(),
		logger:      logger,
	}

	if cfg.AWS.RecommendationQueue != "" {
		awsCfg, err := app.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return err
		}
		h.publisher = queue.NewPublisher(sqs.NewFromConfig(awsCfg), cfg.AWS, nil, logger.With("component", "queue"))
	}

	if cfg.Environment == "local" {
		result, err := h.Handle(ctx, events.CloudWatchEvent{ID: "local", Source: "ridecheck.local"})
		if err != nil {
			return err
		}
		logger.Info("local run complete", "topology", result.Topology, "tone", result.Tone, "message_id", result.MessageID)
		return nil
	}

	lambda.Start(h.Handle)
	return nil
}
