package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

const testSecret = "qweather-key-0123456789"

func TestSecretString_Formatting(t *testing.T) {
	s := SecretString(testSecret)

	for _, verb := range []string{"%s", "%v", "%+v", "%#v"} {
		out := fmt.Sprintf(verb, s)
		if strings.Contains(out, testSecret) {
			t.Errorf("fmt.Sprintf(%q) leaked the secret: %s", verb, out)
		}
	}
}

func TestSecretString_JSON(t *testing.T) {
	payload := struct {
		Key SecretString `json:"key"`
	}{Key: SecretString(testSecret)}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}
	if strings.Contains(string(out), testSecret) {
		t.Errorf("JSON leaked the secret: %s", out)
	}
	if string(out) != `{"key":"***REDACTED***"}` {
		t.Errorf("JSON = %s", out)
	}
}

func TestSecretString_Unmask(t *testing.T) {
	s := SecretString(testSecret)
	if s.Unmask() != testSecret {
		t.Errorf("Unmask() = %q, want the raw value", s.Unmask())
	}
	if s.IsZero() {
		t.Error("IsZero() = true for a non-empty secret")
	}
	if !SecretString("").IsZero() {
		t.Error("IsZero() = false for an empty secret")
	}
}
