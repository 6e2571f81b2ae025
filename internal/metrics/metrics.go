// Package metrics records ridecheck telemetry to CloudWatch.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"ridecheck/internal/types"
)

// requestMetricTimeout bounds PutMetricData for RecordRequest, which has no
// caller context.
const requestMetricTimeout = 2 * time.Second

// Recorder is the telemetry surface used by the commute service, the weather
// service and the HTTP chassis.
type Recorder interface {
	RecordVerdict(ctx context.Context, role types.LocationRole, suitable bool)
	RecordObservationMissing(ctx context.Context, role types.LocationRole, provider types.WeatherProviderName)
	RecordRecommendation(ctx context.Context, topology types.Topology, tone types.GuidanceTone)
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// CloudWatchClient abstracts PutMetricData for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ Recorder = (*CloudWatchRecorder)(nil)

// CloudWatchRecorder emits:
//   - RideVerdict: Dims {Role, Result}
//   - ObservationMissing: Dims {Role, Provider}
//   - Recommendation: Dims {Topology, Tone}
//   - APIRequestCount and APILatency: Dims {Method, Endpoint, Status}
//
// Publish failures are logged and never returned; telemetry must not fail a
// recommendation.
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchRecorder creates a recorder publishing to namespace. An empty
// namespace selects types.DefaultMetricNamespace.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchRecorder {
	if namespace == "" {
		namespace = types.DefaultMetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchRecorder{client: client, namespace: namespace, logger: logger}
}

// RecordVerdict counts one evaluated location.
func (r *CloudWatchRecorder) RecordVerdict(ctx context.Context, role types.LocationRole, suitable bool) {
	result := "unsuitable"
	if suitable {
		result = "suitable"
	}
	r.put(ctx, "verdict", count(types.MetricVerdict,
		dim(types.DimRole, string(role)),
		dim(types.DimResult, result),
	))
}

// RecordObservationMissing counts a location whose weather could not be
// fetched.
func (r *CloudWatchRecorder) RecordObservationMissing(ctx context.Context, role types.LocationRole, provider types.WeatherProviderName) {
	r.put(ctx, "observation_missing", count(types.MetricObservationMissing,
		dim(types.DimRole, string(role)),
		dim(types.DimProvider, string(provider)),
	))
}

// RecordRecommendation counts one composed recommendation.
func (r *CloudWatchRecorder) RecordRecommendation(ctx context.Context, topology types.Topology, tone types.GuidanceTone) {
	r.put(ctx, "recommendation", count(types.MetricRecommendation,
		dim(types.DimTopology, string(topology)),
		dim(types.DimTone, string(tone)),
	))
}

// RecordRequest records API request count and latency in one call.
func (r *CloudWatchRecorder) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), requestMetricTimeout)
	defer cancel()

	dims := []cwtypes.Dimension{
		dim(types.DimMethod, method),
		dim(types.DimEndpoint, endpoint),
		dim(types.DimStatus, status),
	}
	r.put(ctx, "request",
		count(types.MetricAPIRequestCount, dims...),
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

func (r *CloudWatchRecorder) put(ctx context.Context, kind string, data ...cwtypes.MetricDatum) {
	_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: data,
	})
	if err != nil {
		r.logger.WarnContext(ctx, "failed to record metric",
			"kind", kind,
			"error", err.Error(),
			"datums", len(data),
		)
	}
}

func count(name string, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: dims,
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// NoopRecorder discards everything. Used when metrics are disabled.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

func (NoopRecorder) RecordVerdict(context.Context, types.LocationRole, bool) {}

func (NoopRecorder) RecordObservationMissing(context.Context, types.LocationRole, types.WeatherProviderName) {
}

func (NoopRecorder) RecordRecommendation(context.Context, types.Topology, types.GuidanceTone) {}

func (NoopRecorder) RecordRequest(string, string, string, time.Duration) {}
