package gaia

import (
	"os"
	"strings"
)

const (
	// DefaultTokenEnv is the primary access token variable.
	DefaultTokenEnv = "HF_TOKEN"
	// FallbackTokenEnv is checked when the primary variable is unset.
	FallbackTokenEnv = "HUGGING_FACE_API_KEY"
)

// ResolveToken looks the access token up from the environment, trying the
// primary variable first. Empty names fall back to the defaults. The token
// is not validated; a bad token surfaces as a fetch failure.
func ResolveToken(primary, fallback string) (string, error) {
	primary = strings.TrimSpace(primary)
	if primary == "" {
		primary = DefaultTokenEnv
	}
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		fallback = FallbackTokenEnv
	}

	if v := strings.TrimSpace(os.Getenv(primary)); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(fallback)); v != "" {
		return v, nil
	}
	return "", &MissingCredentialError{Primary: primary, Fallback: fallback}
}
