package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ridecheck/internal/types"
)

// Validator checks decoded request bodies against their struct tags and
// reports failures as validation AppErrors.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator that reports JSON field names.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Validator{validate: v, logger: logger}
}

// ValidateStruct returns nil when dst passes validation. A missing required
// field yields validation_missing_required_field; any other failure yields
// code.
func (v *Validator) ValidateStruct(dst any, code types.ErrorCode) error {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.logger.Error("validator misuse", "error", err)
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request validation failed", err)
	}

	fields := make(map[string]any, len(verrs))
	allRequired := true
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fe.Tag()
		if !strings.HasPrefix(fe.Tag(), "required") {
			allRequired = false
		}
	}

	if allRequired {
		code = types.ErrCodeValidationMissingField
	}
	return types.NewAppErrorWithDetails(code, "request failed validation", err, map[string]any{"fields": fields})
}

// fieldPath drops the root struct name from the namespace, e.g.
// "recommendRequest.profile.min_temp" becomes "profile.min_temp".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
