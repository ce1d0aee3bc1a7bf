package config

import (
	"strconv"
	"time"
)

type SecurityConfig interface {
	GetTokenLength() int
	GetSessionTTL() time.Duration
	GetAssertionKey() string
	GetAssertionExpiry() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetTokenLength returns the session token length in characters.
func (Security) GetTokenLength() int {
	if v, err := strconv.Atoi(GetEnv("TOKEN_LENGTH", "")); err == nil && v > 0 {
		return v
	}
	return 256
}

// GetSessionTTL returns how long a pending session stays scannable.
func (Security) GetSessionTTL() time.Duration {
	if v, err := time.ParseDuration(GetEnv("SESSION_TTL", "")); err == nil && v > 0 {
		return v
	}
	return 5 * time.Minute
}

// GetAssertionKey returns the HMAC key used to sign identity assertions.
// Empty disables assertions (partners then rely on the uid field alone).
func (Security) GetAssertionKey() string {
	return GetEnv("ASSERTION_KEY", "")
}

func (Security) GetAssertionExpiry() time.Duration {
	return 5 * time.Minute
}
