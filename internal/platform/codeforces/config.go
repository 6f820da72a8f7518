package codeforces

import "cfstats/internal/platform/config"

// ConfigFromApp maps the process configuration onto client settings.
func ConfigFromApp(c *config.Config) Config {
	return Config{
		BaseURL:           c.CodeforcesBaseURL,
		MaxAttempts:       c.CodeforcesMaxAttempts,
		BaseDelay:         c.CodeforcesBaseDelay,
		Timeout:           c.CodeforcesTimeout,
		RequestsPerSecond: c.CodeforcesRequestsPerSecond,
		SubmissionsCount:  c.SubmissionsCount,
		APIKey:            c.CodeforcesAPIKey,
		APISecret:         c.CodeforcesAPISecret,
	}
}
