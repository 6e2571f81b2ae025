package types

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		wantCode ErrorCode
	}{
		{name: "valid", location: "Anshan City Tiedong District"},
		{name: "valid without marker", location: "Anshan"},
		{name: "empty", location: "", wantCode: ErrCodeValidationMissingField},
		{name: "blank", location: "   ", wantCode: ErrCodeValidationMissingField},
		{name: "too long", location: strings.Repeat("区", MaxLocationLength+1), wantCode: ErrCodeValidationInvalidLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocation("home_address", tt.location)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var appErr *AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected *AppError, got %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", appErr.Code, tt.wantCode)
			}
			if appErr.Details["field"] != "home_address" {
				t.Errorf("Details[field] = %v", appErr.Details["field"])
			}
		})
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(41.1, 122.99) {
		t.Error("expected Anshan coordinates to be valid")
	}
	if ValidCoordinates(91, 0) || ValidCoordinates(0, -181) {
		t.Error("expected out-of-range coordinates to be invalid")
	}
}
