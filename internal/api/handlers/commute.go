// Package handlers contains the HTTP handlers for the ridecheck API.
//
// Routes (mounted under /v1):
//   - POST /recommendations  compose a commute recommendation
//   - POST /evaluations      evaluate one observation against a profile
//   - GET  /topology         classify a home/work pair
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ridecheck/internal/commute"
	"ridecheck/internal/core"
	"ridecheck/internal/ride"
	"ridecheck/internal/types"
)

// CommuteService is the handler's view of commute.Service.
type CommuteService interface {
	Recommend(ctx context.Context, req types.CommuteRequest) (types.Recommendation, error)
	Evaluate(obs *types.Observation, p types.PreferenceProfile) (types.Verdict, error)
	Classify(home, work string) (commute.TopologyResult, error)
}

// CommuteHandler maps HTTP requests onto CommuteService.
type CommuteHandler struct {
	service        CommuteService
	validator      *core.Validator
	defaultProfile types.PreferenceProfile
	logger         *slog.Logger
}

// NewCommuteHandler creates a CommuteHandler. defaultProfile is used when a
// request omits its own profile.
func NewCommuteHandler(
	svc CommuteService,
	val *core.Validator,
	defaultProfile types.PreferenceProfile,
	logger *slog.Logger,
) *CommuteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommuteHandler{
		service:        svc,
		validator:      val,
		defaultProfile: defaultProfile,
		logger:         logger,
	}
}

// RegisterRoutes mounts the commute endpoints.
func (h *CommuteHandler) RegisterRoutes(r chi.Router) {
	r.Post("/recommendations", h.HandleRecommend)
	r.Post("/evaluations", h.HandleEvaluate)
	r.Get("/topology", h.HandleTopology)
}

// profileInput uses pointers so an explicit zero threshold can be told apart
// from an omitted one.
type profileInput struct {
	MinTemp            *float64 `json:"min_temp" validate:"required"`
	MaxTemp            *float64 `json:"max_temp" validate:"required"`
	MaxWindSpeed       *float64 `json:"max_wind_speed" validate:"required"`
	AllowPrecipitation *bool    `json:"allow_precipitation" validate:"required"`
}

func (p *profileInput) toProfile() types.PreferenceProfile {
	return types.PreferenceProfile{
		MinTemp:            *p.MinTemp,
		MaxTemp:            *p.MaxTemp,
		MaxWindSpeed:       *p.MaxWindSpeed,
		AllowPrecipitation: *p.AllowPrecipitation,
	}
}

type recommendRequest struct {
	HomeAddress string        `json:"home_address" validate:"required,max=200"`
	WorkAddress string        `json:"work_address" validate:"required,max=200"`
	Profile     *profileInput `json:"profile,omitempty"`
}

type recommendResponse struct {
	Recommendation types.Recommendation `json:"recommendation"`
	RideAdvised    bool                 `json:"ride_advised"`
	Text           string               `json:"text"`
}

type evaluateRequest struct {
	Observation *types.Observation `json:"observation"`
	Profile     *profileInput      `json:"profile,omitempty"`
}

type evaluateResponse struct {
	Verdict types.Verdict `json:"verdict"`
	Summary string        `json:"summary"`
}

// HandleRecommend handles POST /v1/recommendations. Unavailable weather is
// not an error: the recommendation degrades and a warning is attached.
func (h *CommuteHandler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req, types.ErrCodeValidationInvalidLocation); err != nil {
		core.Error(w, r, err)
		return
	}
	profile, err := h.resolveProfile(req.Profile)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	rec, err := h.service.Recommend(r.Context(), types.CommuteRequest{
		HomeAddress: req.HomeAddress,
		WorkAddress: req.WorkAddress,
		Profile:     profile,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{
		Data: recommendResponse{
			Recommendation: rec,
			RideAdvised:    rec.RideAdvised(),
			Text:           ride.FormatText(rec),
		},
		Meta: recommendationWarnings(rec),
	})
}

// HandleEvaluate handles POST /v1/evaluations. A null observation is
// accepted and yields the no-data verdict.
func (h *CommuteHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	profile, err := h.resolveProfile(req.Profile)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	verdict, err := h.service.Evaluate(req.Observation, profile)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: evaluateResponse{
		Verdict: verdict,
		Summary: ride.Summarize(req.Observation),
	}})
}

// HandleTopology handles GET /v1/topology?home=...&work=...
func (h *CommuteHandler) HandleTopology(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, name := range []string{"home", "work"} {
		if q.Get(name) == "" {
			core.Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeValidationMissingField,
				name+" query parameter is required",
				nil,
				map[string]any{"field": name},
			))
			return
		}
	}

	result, err := h.service.Classify(q.Get("home"), q.Get("work"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}

func (h *CommuteHandler) resolveProfile(in *profileInput) (types.PreferenceProfile, error) {
	if in == nil {
		return h.defaultProfile, nil
	}
	if err := h.validator.ValidateStruct(in, types.ErrCodeValidationInvalidProfile); err != nil {
		return types.PreferenceProfile{}, err
	}
	return in.toProfile(), nil
}

func recommendationWarnings(rec types.Recommendation) *core.ResponseMeta {
	var warnings []string
	if rec.Home.Observation == nil {
		warnings = append(warnings, "weather at the home location is unavailable")
	}
	if rec.Guidance.DestinationUnknown {
		warnings = append(warnings, ride.NoteDestinationUnknown)
	}
	if len(warnings) == 0 {
		return nil
	}
	return &core.ResponseMeta{Warnings: warnings}
}
