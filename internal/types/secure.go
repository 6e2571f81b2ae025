package types

const redacted = "***REDACTED***"

// SecretString holds a credential (such as the weather API key) and keeps it
// out of logs: fmt verbs and JSON encoding both print a placeholder.
type SecretString string

// String implements fmt.Stringer with the placeholder.
func (s SecretString) String() string {
	return redacted
}

// GoString covers the %#v verb.
func (s SecretString) GoString() string {
	return redacted
}

// MarshalJSON encodes the placeholder.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// IsZero reports whether no secret was supplied.
func (s SecretString) IsZero() bool {
	return s == ""
}

// Unmask returns the plaintext. Only provider clients building a request
// should call it.
func (s SecretString) Unmask() string {
	return string(s)
}
