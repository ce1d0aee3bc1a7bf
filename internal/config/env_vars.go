package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	redisURLVar       = "REDIS_URL"
	partnerFileEnvVar = "PARTNER_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "QR Login Relay")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetRedisURL returns the Redis connection URL for the session store.
// An empty value selects the in-memory store (single-process deployments).
func (EnvVars) GetRedisURL() string {
	return GetEnv(redisURLVar, "")
}

// GetPartnerFile returns the path of the YAML partner registry. Empty means
// no partners are provisioned and every initiate call is rejected.
func (EnvVars) GetPartnerFile() string {
	return GetEnv(partnerFileEnvVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
