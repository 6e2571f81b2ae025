package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"ridecheck/internal/types"
)

type mockCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func dims(d []cwtypes.Dimension) map[string]string {
	out := make(map[string]string, len(d))
	for _, x := range d {
		out[aws.ToString(x.Name)] = aws.ToString(x.Value)
	}
	return out
}

func TestRecordVerdict(t *testing.T) {
	cw := &mockCloudWatch{}
	r := NewCloudWatchRecorder(cw, "", nil)

	r.RecordVerdict(context.Background(), types.RoleWork, false)

	if len(cw.inputs) != 1 {
		t.Fatalf("PutMetricData called %d times, want 1", len(cw.inputs))
	}
	in := cw.inputs[0]
	if aws.ToString(in.Namespace) != types.DefaultMetricNamespace {
		t.Errorf("namespace = %q", aws.ToString(in.Namespace))
	}
	d := in.MetricData[0]
	if aws.ToString(d.MetricName) != types.MetricVerdict {
		t.Errorf("metric = %q", aws.ToString(d.MetricName))
	}
	got := dims(d.Dimensions)
	if got[types.DimRole] != "work" || got[types.DimResult] != "unsuitable" {
		t.Errorf("dimensions = %v", got)
	}
}

func TestRecordObservationMissingAndRecommendation(t *testing.T) {
	cw := &mockCloudWatch{}
	r := NewCloudWatchRecorder(cw, "RideCheckTest", nil)

	r.RecordObservationMissing(context.Background(), types.RoleHome, types.ProviderQWeather)
	r.RecordRecommendation(context.Background(), types.TopologyCrossCity, types.ToneStrongNegative)

	if len(cw.inputs) != 2 {
		t.Fatalf("PutMetricData called %d times, want 2", len(cw.inputs))
	}
	missing := dims(cw.inputs[0].MetricData[0].Dimensions)
	if missing[types.DimProvider] != "qweather" || missing[types.DimRole] != "home" {
		t.Errorf("missing dims = %v", missing)
	}
	rec := dims(cw.inputs[1].MetricData[0].Dimensions)
	if rec[types.DimTopology] != "cross_city" || rec[types.DimTone] != "strong_negative" {
		t.Errorf("recommendation dims = %v", rec)
	}
}

func TestRecordRequest(t *testing.T) {
	cw := &mockCloudWatch{}
	r := NewCloudWatchRecorder(cw, "", nil)

	r.RecordRequest("POST", "/v1/recommendations", "200", 150*time.Millisecond)

	if len(cw.inputs) != 1 || len(cw.inputs[0].MetricData) != 2 {
		t.Fatalf("expected one call with two datums, got %+v", cw.inputs)
	}
	latency := cw.inputs[0].MetricData[1]
	if aws.ToString(latency.MetricName) != types.MetricAPILatency {
		t.Errorf("metric = %q", aws.ToString(latency.MetricName))
	}
	if aws.ToFloat64(latency.Value) != 150 || latency.Unit != cwtypes.StandardUnitMilliseconds {
		t.Errorf("latency = %v %s", aws.ToFloat64(latency.Value), latency.Unit)
	}
}

func TestRecorderSwallowsErrors(t *testing.T) {
	cw := &mockCloudWatch{err: errors.New("throttled")}
	r := NewCloudWatchRecorder(cw, "", nil)

	// Must not panic or block.
	r.RecordVerdict(context.Background(), types.RoleHome, true)
	r.RecordRequest("GET", "/health", "200", time.Millisecond)

	if len(cw.inputs) != 2 {
		t.Errorf("calls = %d, want 2", len(cw.inputs))
	}
}
