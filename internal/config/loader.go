package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"ridecheck/internal/ride"
)

// ConfigError is the diagnostic error returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ssmParamSuffix marks pointer variables: WEATHER_API_KEY_SSM_PARAM holds the
// SSM path whose value becomes WEATHER_API_KEY.
const ssmParamSuffix = "_SSM_PARAM"

// localEnv is the APP_ENV value that bypasses SSM resolution.
const localEnv = "local"

type envLookup func(key string) (string, bool)

type envSet func(key, value string) error

type environ func() []string

// loaderDeps lets tests drive the loader without touching the real
// environment.
type loaderDeps struct {
	lookupEnv envLookup
	setEnv    envSet
	environ   environ
	dotenv    func() error
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
		dotenv:    func() error { return godotenv.Load() },
	}
}

// LoadConfig loads and validates the configuration:
//  1. Sets the process timezone to UTC.
//  2. Loads a .env file if present (missing file is not an error).
//  3. Unless APP_ENV is "local", resolves *_SSM_PARAM pointers through
//     provider and injects the values into the environment.
//  4. Populates Config from envconfig tags.
//  5. Fills Build from linker-injected variables.
//  6. Validates the result.
//
// provider may be nil when no *_SSM_PARAM variables are set.
func LoadConfig(provider SecretProvider) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps())
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	if deps.dotenv != nil {
		_ = deps.dotenv()
	}

	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv != localEnv {
		if err := resolveSSMParams(provider, deps); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, classifyEnvconfigError(err)
	}

	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, classifyValidationError(err)
	}

	return &cfg, nil
}

// classifyEnvconfigError separates absent required keys from values that
// failed to parse.
func classifyEnvconfigError(err error) *ConfigError {
	if strings.Contains(err.Error(), "required key") {
		return &ConfigError{
			Type:    ErrMissingEnv,
			Message: "required environment variable is not set",
			Err:     err,
		}
	}
	return &ConfigError{
		Type:    ErrParsing,
		Message: "failed to process environment configuration",
		Err:     err,
	}
}

// classifyValidationError reports failed "required" rules as missing
// variables and everything else as a validation failure.
func classifyValidationError(err error) *ConfigError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var missing []string
		for _, fe := range verrs {
			if strings.HasPrefix(fe.Tag(), "required") {
				missing = append(missing, fe.Namespace())
			}
		}
		if len(missing) == len(verrs) {
			return &ConfigError{
				Type:    ErrMissingEnv,
				Message: fmt.Sprintf("missing required configuration: %s", strings.Join(missing, ", ")),
				Err:     err,
			}
		}
	}
	return &ConfigError{
		Type:    ErrValidation,
		Message: "configuration validation failed",
		Err:     err,
	}
}

// resolveSSMParams fetches every *_SSM_PARAM target that is not already set
// and writes the values back into the environment. Variables set directly
// win over SSM.
func resolveSSMParams(provider SecretProvider, deps loaderDeps) error {
	pathToTarget := make(map[string]string)

	for _, entry := range deps.environ() {
		key, path, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasSuffix(key, ssmParamSuffix) || path == "" {
			continue
		}
		target := strings.TrimSuffix(key, ssmParamSuffix)
		if _, exists := deps.lookupEnv(target); exists {
			continue
		}
		pathToTarget[path] = target
	}

	if len(pathToTarget) == 0 {
		return nil
	}

	paths := make([]string, 0, len(pathToTarget))
	for p := range pathToTarget {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if provider == nil {
		targets := make([]string, 0, len(paths))
		for _, p := range paths {
			targets = append(targets, pathToTarget[p])
		}
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SecretProvider is required for non-local environments (need to resolve: %s)", strings.Join(targets, ", ")),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, paths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("failed to resolve %d SSM parameters", len(paths)),
			Err:     err,
		}
	}

	var missing []string
	for _, p := range paths {
		target := pathToTarget[p]
		value, ok := resolved[p]
		if !ok {
			missing = append(missing, target)
			continue
		}
		if err := deps.setEnv(target, value); err != nil {
			return &ConfigError{
				Type:    ErrSSMResolution,
				Message: fmt.Sprintf("failed to set resolved value for %s", target),
				Err:     err,
			}
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SSM parameters not found for: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

// LoadVocabulary builds the precipitation vocabulary from the profile
// settings: the built-in table, optionally extended or replaced by
// VocabularyFile.
func LoadVocabulary(p ProfileConfig) (*ride.Vocabulary, error) {
	if p.VocabularyFile == "" {
		return ride.NewVocabulary(ride.DefaultPrecipitationTokens, p.PrecipitationMatch), nil
	}

	data, err := os.ReadFile(p.VocabularyFile)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrVocabulary,
			Message: fmt.Sprintf("reading vocabulary file %s", p.VocabularyFile),
			Err:     err,
		}
	}

	vocab, err := ride.ParseVocabulary(data, p.PrecipitationMatch)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrVocabulary,
			Message: fmt.Sprintf("parsing vocabulary file %s", p.VocabularyFile),
			Err:     err,
		}
	}
	return vocab, nil
}
