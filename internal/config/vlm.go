package config

import (
	"fmt"
	"os"
	"time"
)

// VLMConfig defines the OpenAI-compatible vision model used for captioning.
type VLMConfig struct {
	Provider   string        `mapstructure:"provider"`     // Provider type: "openai", "openai-compatible"
	Model      string        `mapstructure:"model"`        // Model name/ID
	APIKey     string        `mapstructure:"api_key"`      // API key (can be set directly or via env var)
	APIKeyEnv  string        `mapstructure:"api_key_env"`  // Environment variable name for API key
	BaseURL    string        `mapstructure:"base_url"`     // Base URL for the chat completions API
	BaseURLEnv string        `mapstructure:"base_url_env"` // Environment variable name for base URL
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ResolveEnvVars loads APIKey and BaseURL from the named environment variables
// when they are not set directly.
func (c *VLMConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}
	if c.BaseURLEnv != "" && c.BaseURL == "" {
		if val := os.Getenv(c.BaseURLEnv); val != "" {
			c.BaseURL = val
		}
	}
}

// Validate checks that the model can actually be called.
func (c *VLMConfig) Validate() error {
	switch c.Provider {
	case "openai", "openai-compatible":
	default:
		return fmt.Errorf("vlm: unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("vlm: model is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("vlm: base_url is required")
	}
	if c.APIKey == "" {
		env := c.APIKeyEnv
		if env == "" {
			env = "OPENAI_API_KEY"
		}
		return fmt.Errorf("vlm: api_key is required (set directly or via %s)", env)
	}
	return nil
}
