package types

// Telemetry metric names for CloudWatch.
const (
	MetricVerdict            = "RideVerdict"
	MetricObservationMissing = "ObservationMissing"
	MetricRecommendation     = "Recommendation"
	MetricAPILatency         = "APILatency"
	MetricAPIRequestCount    = "APIRequestCount"

	// Dimension keys
	DimRole     = "Role"
	DimResult   = "Result"
	DimProvider = "Provider"
	DimTopology = "Topology"
	DimTone     = "Tone"
	DimEndpoint = "Endpoint"
	DimMethod   = "Method"
	DimStatus   = "Status"

	// DefaultMetricNamespace is used when no namespace is configured.
	DefaultMetricNamespace = "RideCheck"
)
