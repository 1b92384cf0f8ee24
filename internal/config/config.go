// Package config loads Viper-backed configuration and builds the process
// logger and typed component configs from it.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/HerbHall/modelrelay/internal/openrouter"
	"github.com/HerbHall/modelrelay/internal/retry"
)

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_key", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "modelrelay.db")

	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.referer", "https://github.com/HerbHall/modelrelay")
	v.SetDefault("openrouter.title", "ModelRelay")
	v.SetDefault("openrouter.default_model", "openrouter/auto")
	v.SetDefault("openrouter.timeout", "2m")

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.jitter", "1s")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("modelrelay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/modelrelay")
	}

	// Environment variable support: MODELRELAY_SERVER_PORT=9090
	v.SetEnvPrefix("MODELRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The gateway's conventional variables work without the prefix.
	_ = v.BindEnv("openrouter.api_key", "MODELRELAY_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("openrouter.base_url", "MODELRELAY_OPENROUTER_BASE_URL", "OPENROUTER_BASE_URL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

// OpenRouter extracts the gateway client configuration. Unset keys keep the
// client's own defaults.
func OpenRouter(v *viper.Viper) openrouter.Config {
	cfg := openrouter.DefaultConfig()
	cfg.APIKey = v.GetString("openrouter.api_key")
	if s := v.GetString("openrouter.base_url"); s != "" {
		cfg.BaseURL = s
	}
	if s := v.GetString("openrouter.referer"); s != "" {
		cfg.Referer = s
	}
	if s := v.GetString("openrouter.title"); s != "" {
		cfg.Title = s
	}
	if s := v.GetString("openrouter.default_model"); s != "" {
		cfg.DefaultModel = s
	}
	if d := v.GetDuration("openrouter.timeout"); d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

// Retry extracts the backoff policy shared by the chat and catalog services.
func Retry(v *viper.Viper) retry.Policy {
	p := retry.NewPolicy(nil)
	if v.IsSet("retry.max_retries") {
		if n := v.GetInt("retry.max_retries"); n >= 0 {
			p.MaxRetries = n
		}
	}
	if d := v.GetDuration("retry.base_delay"); d > 0 {
		p.BaseDelay = d
	}
	if d := v.GetDuration("retry.jitter"); d > 0 {
		p.Jitter = d
	}
	return p
}
