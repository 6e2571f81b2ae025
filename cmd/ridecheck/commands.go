package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ridecheck/internal/app"
	"ridecheck/internal/commute"
	"ridecheck/internal/config"
	"ridecheck/internal/render"
	"ridecheck/internal/types"
)

type configLoader func() (*config.Config, error)

// outputOptions are shared by every command.
type outputOptions struct {
	jsonOut bool
	plain   bool
}

func (o outputOptions) renderer(w io.Writer) *render.Renderer {
	if o.plain {
		return render.NewPlainRenderer()
	}
	return render.NewRenderer(w)
}

func newRootCmd(load configLoader) *cobra.Command {
	var (
		out        outputOptions
		home, work string
	)

	cmd := &cobra.Command{
		Use:          "ridecheck",
		Short:        "Decide whether today's commute is a good day to ride",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg.LogLevel, cmd.ErrOrStderr())

			rec, err := app.NewRecorder(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			a, err := app.New(cfg, logger, rec)
			if err != nil {
				return err
			}

			req := a.CommuteRequest()
			if home != "" {
				req.HomeAddress = home
			}
			if work != "" {
				req.WorkAddress = work
			}

			result, err := a.Commute.Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.jsonOut {
				return writeJSON(w, result)
			}
			_, err = io.WriteString(w, out.renderer(w).Recommendation(result))
			return err
		},
	}

	cmd.PersistentFlags().BoolVar(&out.jsonOut, "json", false, "print machine-readable JSON")
	cmd.PersistentFlags().BoolVar(&out.plain, "plain", false, "disable styled output even on a terminal")
	cmd.Flags().StringVar(&home, "home", "", "home location (overrides HOME_ADDRESS)")
	cmd.Flags().StringVar(&work, "work", "", "work location (overrides WORK_ADDRESS)")

	cmd.AddCommand(classifyCmd(&out), evaluateCmd(load, &out))
	return cmd
}

func classifyCmd(out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify HOME WORK",
		Short: "Classify the commute topology of two locations (no network)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := commute.NewService(nil, slog.New(slog.NewJSONHandler(io.Discard, nil)))
			result, err := svc.Classify(args[0], args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.jsonOut {
				return writeJSON(w, result)
			}
			_, err = io.WriteString(w, out.renderer(w).Topology(result.Topology, result.Home, result.Work))
			return err
		},
	}
}

func evaluateCmd(load configLoader, out *outputOptions) *cobra.Command {
	var (
		obs         types.Observation
		profilePath string
	)

	c := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one weather reading against a preference profile (no network)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				profile types.PreferenceProfile
				opts    []commute.Option
				err     error
			)
			if profilePath != "" {
				profile, err = readProfile(profilePath)
			} else {
				profile, opts, err = configuredProfile(load)
			}
			if err != nil {
				return err
			}

			svc := commute.NewService(nil, slog.New(slog.NewJSONHandler(io.Discard, nil)), opts...)
			verdict, err := svc.Evaluate(&obs, profile)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out.jsonOut {
				return writeJSON(w, verdict)
			}
			_, err = io.WriteString(w, out.renderer(w).Verdict(&obs, verdict))
			return err
		},
	}

	c.Flags().Float64Var(&obs.TemperatureC, "temp", 0, "temperature in °C (required)")
	c.Flags().Float64Var(&obs.WindSpeedMS, "wind", 0, "wind speed in m/s")
	c.Flags().IntVar(&obs.HumidityPct, "humidity", 0, "relative humidity in percent")
	c.Flags().StringVar(&obs.Condition, "condition", "", "condition label, e.g. \"light rain\" or \"小雨\"")
	c.Flags().StringVarP(&profilePath, "profile", "p", "", "YAML preference profile (defaults to the RIDE_* configuration)")
	_ = c.MarkFlagRequired("temp")
	return c
}

// profileFile mirrors types.PreferenceProfile with every key required; a
// zero threshold is meaningful, so absence is tracked with pointers.
type profileFile struct {
	MinTemp            *float64 `yaml:"min_temp" validate:"required"`
	MaxTemp            *float64 `yaml:"max_temp" validate:"required"`
	MaxWindSpeed       *float64 `yaml:"max_wind_speed" validate:"required"`
	AllowPrecipitation *bool    `yaml:"allow_precipitation" validate:"required"`
}

// readProfile loads a preference profile such as:
//
//	min_temp: 5
//	max_temp: 30
//	max_wind_speed: 8
//	allow_precipitation: false
//
// Every key must be present.
func readProfile(path string) (types.PreferenceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PreferenceProfile{}, fmt.Errorf("reading profile: %w", err)
	}
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return types.PreferenceProfile{}, &config.ConfigError{
			Type:    config.ErrParsing,
			Message: fmt.Sprintf("parsing profile %s", path),
			Err:     err,
		}
	}

	if err := profileValidator().Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return types.PreferenceProfile{}, err
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return types.PreferenceProfile{}, &config.ConfigError{
			Type:    config.ErrMissingEnv,
			Message: fmt.Sprintf("profile %s is missing: %s", path, strings.Join(missing, ", ")),
		}
	}

	return types.PreferenceProfile{
		MinTemp:            *f.MinTemp,
		MaxTemp:            *f.MaxTemp,
		MaxWindSpeed:       *f.MaxWindSpeed,
		AllowPrecipitation: *f.AllowPrecipitation,
	}, nil
}

// profileValidator reports fields by their YAML key.
func profileValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// configuredProfile also applies the configured precipitation vocabulary.
func configuredProfile(load configLoader) (types.PreferenceProfile, []commute.Option, error) {
	cfg, err := load()
	if err != nil {
		return types.PreferenceProfile{}, nil, err
	}
	vocab, err := config.LoadVocabulary(cfg.Profile)
	if err != nil {
		return types.PreferenceProfile{}, nil, err
	}
	return cfg.Profile.PreferenceProfile(), []commute.Option{commute.WithVocabulary(vocab)}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

