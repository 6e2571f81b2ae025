package core

import (
	"errors"
	"testing"

	"ridecheck/internal/types"
)

type testProfile struct {
	MinTemp *float64 `json:"min_temp" validate:"required"`
	MaxTemp *float64 `json:"max_temp" validate:"required"`
}

type testRequest struct {
	Home    string       `json:"home" validate:"required,max=20"`
	Work    string       `json:"work" validate:"required,max=20"`
	Profile *testProfile `json:"profile,omitempty" validate:"omitempty"`
}

func ptr(f float64) *float64 { return &f }

func TestValidateStruct(t *testing.T) {
	v := NewValidator(discardLogger())

	tests := []struct {
		name       string
		in         testRequest
		wantCode   types.ErrorCode
		wantFields []string
	}{
		{
			name: "valid",
			in:   testRequest{Home: "Anshan City", Work: "Anshan City"},
		},
		{
			name:       "missing work",
			in:         testRequest{Home: "Anshan City"},
			wantCode:   types.ErrCodeValidationMissingField,
			wantFields: []string{"work"},
		},
		{
			name:       "too long",
			in:         testRequest{Home: "Anshan City", Work: "a very long work address indeed"},
			wantCode:   types.ErrCodeValidationInvalidLocation,
			wantFields: []string{"work"},
		},
		{
			name:       "nested missing field uses json path",
			in:         testRequest{Home: "a", Work: "b", Profile: &testProfile{MinTemp: ptr(5)}},
			wantCode:   types.ErrCodeValidationMissingField,
			wantFields: []string{"profile.max_temp"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.in, types.ErrCodeValidationInvalidLocation)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var appErr *types.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, appErr.Code)
			}
			fields, _ := appErr.Details["fields"].(map[string]any)
			for _, f := range tt.wantFields {
				if _, ok := fields[f]; !ok {
					t.Errorf("expected field %q in details %v", f, fields)
				}
			}
		})
	}
}

func TestValidateStruct_NonStructIsInternal(t *testing.T) {
	v := NewValidator(discardLogger())

	err := v.ValidateStruct("not a struct", types.ErrCodeValidationInvalidProfile)

	var appErr *types.AppError
	if !errors.As(err, &appErr) || appErr.Code != types.ErrCodeInternalUnexpected {
		t.Errorf("expected internal error, got %v", err)
	}
}
