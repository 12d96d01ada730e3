package ciutil

import (
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Environment variables read by this package.
const (
	// CI environment detection variables
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	// Test service locations
	EnvTestDatabaseURL = "SMARTMARK_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvTestRedisAddr   = "SMARTMARK_TEST_REDIS_ADDR"
	EnvRedisAddr       = "REDIS_ADDR"
)

var ciVars = []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI}

// IsCI reports whether a common CI provider variable is set.
func IsCI() bool {
	for _, name := range ciVars {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the value of the first non-empty variable in
// envVars, or defaultValue. Using anything but the first name logs a warning.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}
		if i > 0 && logger != nil {
			logger.Warn("Using fallback environment variable",
				"used_var", envVar,
				"preferred_var", envVars[0],
				"value", MaskSensitiveValue(val),
			)
		}
		return val
	}
	return defaultValue
}

// TestDatabaseURL returns the postgres URL for integration tests, or "".
func TestDatabaseURL(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvTestDatabaseURL, EnvDatabaseURL}, "", logger)
}

// TestRedisAddr returns the redis address for integration tests, or "".
func TestRedisAddr(logger *slog.Logger) string {
	return GetEnvWithFallbacks([]string{EnvTestRedisAddr, EnvRedisAddr}, "", logger)
}

// MaskSensitiveValue hides the password of a URL with user info, and the
// middle of values that look like keys or tokens.
func MaskSensitiveValue(value string) string {
	if strings.Contains(value, "://") {
		if u, err := url.Parse(value); err == nil && u.User != nil {
			if _, hasPassword := u.User.Password(); hasPassword {
				u.User = url.UserPassword(u.User.Username(), "xxxxx")
				return u.String()
			}
			return value
		}
	}

	lower := strings.ToLower(value)
	if len(value) > 8 && (strings.Contains(lower, "key") ||
		strings.Contains(lower, "token") ||
		strings.Contains(lower, "secret")) {
		return value[:4] + "****" + value[len(value)-4:]
	}
	return value
}
