// Package commute orchestrates one commute check: validate the request,
// classify the topology, fetch the observations the topology needs, and
// compose the recommendation.
package commute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"ridecheck/internal/metrics"
	"ridecheck/internal/ride"
	"ridecheck/internal/types"
)

// Observer supplies optional weather observations. weather.Service is the
// production implementation.
type Observer interface {
	Observe(ctx context.Context, role types.LocationRole, location string) *types.Observation
}

// TopologyResult explains a classification.
type TopologyResult struct {
	Topology types.Topology `json:"topology"`
	Label    string         `json:"label"`
	Home     types.Place    `json:"home"`
	Work     types.Place    `json:"work"`
}

// Service is safe for concurrent use.
type Service struct {
	observer   Observer
	classifier *ride.Classifier
	evaluator  *ride.Evaluator
	composer   *ride.Composer
	validate   *validator.Validate
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithVocabulary sets the precipitation vocabulary used for evaluation.
func WithVocabulary(v *ride.Vocabulary) Option {
	return func(s *Service) {
		s.evaluator = ride.NewEvaluator(v)
		s.composer = ride.NewComposer(s.evaluator)
	}
}

// WithClassifier replaces the default city-marker classifier.
func WithClassifier(c *ride.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

// WithMetrics sets the telemetry recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// NewService creates a commute Service reading weather through observer.
func NewService(observer Observer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	eval := ride.NewEvaluator(nil)
	s := &Service{
		observer:   observer,
		classifier: ride.NewClassifier(),
		evaluator:  eval,
		composer:   ride.NewComposer(eval),
		validate:   validator.New(),
		metrics:    metrics.NoopRecorder{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend produces the recommendation for req. Only invalid input is an
// error; unavailable weather degrades the result instead.
func (s *Service) Recommend(ctx context.Context, req types.CommuteRequest) (types.Recommendation, error) {
	if err := s.validateRequest(req); err != nil {
		return types.Recommendation{}, err
	}

	topo := s.classifier.Classify(req.HomeAddress, req.WorkAddress)
	logger := types.LoggerFromContext(ctx, s.logger)
	logger.InfoContext(ctx, "commute classified",
		"home", req.HomeAddress,
		"work", req.WorkAddress,
		"topology", string(topo),
	)

	// Observe reports failure as a nil observation, so neither goroutine
	// returns an error and Wait only joins them.
	var home, work *types.Observation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		home = s.observer.Observe(gctx, types.RoleHome, req.HomeAddress)
		return nil
	})
	if topo != types.TopologyCoLocated {
		g.Go(func() error {
			work = s.observer.Observe(gctx, types.RoleWork, req.WorkAddress)
			return nil
		})
	}
	_ = g.Wait()

	rec := s.composer.Compose(ride.ComposeRequest{
		HomeLocation: req.HomeAddress,
		WorkLocation: req.WorkAddress,
		Home:         home,
		Work:         work,
		Profile:      req.Profile,
		Topology:     topo,
	})

	s.recordOutcome(ctx, rec)
	logger.InfoContext(ctx, "recommendation composed",
		"topology", string(rec.Topology),
		"tone", string(rec.Guidance.Tone),
		"destination_unknown", rec.Guidance.DestinationUnknown,
	)
	return rec, nil
}

// Evaluate checks a single observation against p. A nil observation yields
// the "no data available" verdict.
func (s *Service) Evaluate(obs *types.Observation, p types.PreferenceProfile) (types.Verdict, error) {
	if err := s.validateProfile(p); err != nil {
		return types.Verdict{}, err
	}
	if obs != nil {
		if err := s.validate.Struct(obs); err != nil {
			return types.Verdict{}, types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidReading,
				"observation is out of range", err, fieldDetails(err))
		}
	}
	return s.evaluator.Evaluate(obs, p), nil
}

// Classify reports the topology of two location identifiers.
func (s *Service) Classify(home, work string) (TopologyResult, error) {
	if err := types.ValidateLocation("home_address", home); err != nil {
		return TopologyResult{}, err
	}
	if err := types.ValidateLocation("work_address", work); err != nil {
		return TopologyResult{}, err
	}
	h, w := s.classifier.Split(home), s.classifier.Split(work)
	topo := ride.Topology(h, w)
	return TopologyResult{Topology: topo, Label: topo.Label(), Home: h, Work: w}, nil
}

func (s *Service) validateRequest(req types.CommuteRequest) error {
	if err := types.ValidateLocation("home_address", req.HomeAddress); err != nil {
		return err
	}
	if err := types.ValidateLocation("work_address", req.WorkAddress); err != nil {
		return err
	}
	return s.validateProfile(req.Profile)
}

func (s *Service) validateProfile(p types.PreferenceProfile) error {
	if err := s.validate.Struct(p); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidProfile,
			"preference profile is invalid", err, fieldDetails(err))
	}
	return nil
}

func (s *Service) recordOutcome(ctx context.Context, rec types.Recommendation) {
	if v := rec.Home.Verdict; v != nil {
		s.metrics.RecordVerdict(ctx, types.RoleHome, v.Suitable)
	}
	if rec.Work != nil && rec.Work.Verdict != nil {
		s.metrics.RecordVerdict(ctx, types.RoleWork, rec.Work.Verdict.Suitable)
	}
	s.metrics.RecordRecommendation(ctx, rec.Topology, rec.Guidance.Tone)
}

// fieldDetails lists the failing fields and rules of a validator error.
func fieldDetails(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule = fmt.Sprintf("%s=%s", rule, fe.Param())
		}
		fields[fe.Field()] = rule
	}
	return map[string]any{"fields": fields}
}
