package openrouter

import "time"

// Config holds the gateway client configuration. Values are immutable after
// load; every call shares the same instance read-only.
type Config struct {
	// APIKey authorizes requests. May be empty: the model catalog is public,
	// and chat calls will surface an authentication error at call time.
	APIKey string `mapstructure:"api_key"`

	// BaseURL is the gateway root, e.g. "https://openrouter.ai/api/v1".
	BaseURL string `mapstructure:"base_url"`

	// Referer and Title are attribution headers (HTTP-Referer, X-Title) the
	// gateway uses to credit traffic to an application.
	Referer string `mapstructure:"referer"`
	Title   string `mapstructure:"title"`

	// DefaultModel is used when a call does not specify one.
	DefaultModel string `mapstructure:"default_model"`

	// Timeout bounds each HTTP request. This is the only local deadline;
	// retries and comparisons are bounded per attempt, not overall.
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns sensible defaults for the OpenRouter gateway.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://openrouter.ai/api/v1",
		Referer:      "https://github.com/HerbHall/modelrelay",
		Title:        "ModelRelay",
		DefaultModel: "openrouter/auto",
		Timeout:      2 * time.Minute,
	}
}
