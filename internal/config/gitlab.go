package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/festy23/gitlab_enricher/pkg/retry"
)

// API generations understood by the GitLab clients.
const (
	APIVersionV3 = "v3"
	APIVersionV4 = "v4"
)

// GitLabConfig holds GitLab API client configuration.
type GitLabConfig struct {
	// URL is the server root, without the /api/vN suffix.
	URL string
	// Token is the private token sent with every request.
	Token string
	// APIVersion selects the client implementation (v3 or v4).
	APIVersion string
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// SSLVerify disables certificate verification when false.
	SSLVerify bool
	// PerPage is the page size used when walking list endpoints.
	PerPage int
	// RetryMaxAttempts is the number of attempts per request before giving up.
	RetryMaxAttempts int
	// RetryInitialDelay is the first backoff delay.
	RetryInitialDelay time.Duration
	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration
}

// LoadGitLabConfigFromEnv loads GitLab configuration from environment variables.
func LoadGitLabConfigFromEnv() GitLabConfig {
	defaults := retry.HTTPConfig()
	return GitLabConfig{
		URL:               GetEnv("GITLAB_URL", "https://gitlab.com"),
		Token:             GetEnv("GITLAB_TOKEN", ""),
		APIVersion:        GetEnv("GITLAB_API_VERSION", APIVersionV4),
		Timeout:           GetEnvDuration("GITLAB_TIMEOUT", 30*time.Second),
		SSLVerify:         GetEnvBool("GITLAB_SSL_VERIFY", true),
		PerPage:           GetEnvInt("GITLAB_PER_PAGE", 100),
		RetryMaxAttempts:  GetEnvInt("GITLAB_RETRY_MAX_ATTEMPTS", defaults.MaxAttempts),
		RetryInitialDelay: GetEnvDuration("GITLAB_RETRY_INITIAL_DELAY", defaults.InitialDelay),
		RetryMaxDelay:     GetEnvDuration("GITLAB_RETRY_MAX_DELAY", defaults.MaxDelay),
	}
}

// Validate validates GitLab configuration.
func (c GitLabConfig) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid GITLAB_URL: %q", c.URL)
	}
	if c.Token == "" {
		return fmt.Errorf("GITLAB_TOKEN is required")
	}
	if c.APIVersion != APIVersionV3 && c.APIVersion != APIVersionV4 {
		return fmt.Errorf("invalid GITLAB_API_VERSION: %s (must be: v3, v4)", c.APIVersion)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("GITLAB_TIMEOUT must be greater than 0")
	}
	if c.PerPage <= 0 || c.PerPage > 100 {
		return fmt.Errorf("GITLAB_PER_PAGE must be between 1 and 100")
	}
	if c.RetryMaxAttempts <= 0 {
		return fmt.Errorf("GITLAB_RETRY_MAX_ATTEMPTS must be greater than 0")
	}
	return nil
}

// RetryConfig builds the per-request retry policy. The transient-error
// classifier is supplied by the client.
func (c GitLabConfig) RetryConfig() retry.Config {
	cfg := retry.HTTPConfig()
	cfg.MaxAttempts = c.RetryMaxAttempts
	cfg.InitialDelay = c.RetryInitialDelay
	cfg.MaxDelay = c.RetryMaxDelay
	return cfg
}
