// Package queue publishes commute recommendations to SQS for downstream
// consumers such as chat bots and mail workers.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"ridecheck/internal/config"
	"ridecheck/internal/ride"
	"ridecheck/internal/types"
)

// SQSSender abstracts SendMessage for testability. Production code passes
// *sqs.Client.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher sends RecommendationMessages to the recommendations queue.
type Publisher struct {
	client   SQSSender
	queueURL string
	clock    types.Clock
	logger   *slog.Logger
}

// NewPublisher creates a Publisher for the queue configured in awsCfg.
func NewPublisher(client SQSSender, awsCfg config.AWSConfig, clock types.Clock, logger *slog.Logger) *Publisher {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:   client,
		queueURL: awsCfg.RecommendationQueue,
		clock:    clock,
		logger:   logger,
	}
}

// Enabled reports whether a queue URL is configured.
func (p *Publisher) Enabled() bool {
	return p.queueURL != ""
}

// Publish wraps rec in a RecommendationMessage and sends it. The message ID
// is returned so callers can correlate logs.
func (p *Publisher) Publish(ctx context.Context, req types.CommuteRequest, rec types.Recommendation) (string, error) {
	if !p.Enabled() {
		return "", types.NewAppError(types.ErrCodeUpstreamQueueRejected, "recommendation queue is not configured", nil)
	}

	msg := types.RecommendationMessage{
		MessageID:      uuid.NewString(),
		TraceID:        types.GetRequestID(ctx),
		GeneratedAt:    p.clock.Now(),
		HomeAddress:    req.HomeAddress,
		WorkAddress:    req.WorkAddress,
		Recommendation: rec,
		Text:           ride.FormatText(rec),
	}
	if msg.TraceID == "" {
		msg.TraceID = msg.MessageID
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("queue: failed to marshal RecommendationMessage: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"topology":     stringAttr(string(rec.Topology)),
			"tone":         stringAttr(string(rec.Guidance.Tone)),
			"ride_advised": stringAttr(strconv.FormatBool(rec.RideAdvised())),
		},
	})
	if err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrCodeUpstreamQueueRejected,
			"failed to publish recommendation", err, map[string]any{"queue_url": p.queueURL})
	}

	p.logger.InfoContext(ctx, "recommendation published",
		"queue_url", p.queueURL,
		"message_id", msg.MessageID,
		"trace_id", msg.TraceID,
		"topology", string(rec.Topology),
		"tone", string(rec.Guidance.Tone),
	)
	return msg.MessageID, nil
}

func stringAttr(v string) sqsTypes.MessageAttributeValue {
	return sqsTypes.MessageAttributeValue{
		DataType:    aws.String("String"),
		StringValue: aws.String(v),
	}
}
