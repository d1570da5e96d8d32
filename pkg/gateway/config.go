package gateway

import (
	"fmt"
	"time"

	"github.com/ecosystem-trading/ibconnect/pkg/backoff"
)

// Config holds WebSocket session settings for the gateway client.
type Config struct {
	URL           string         `mapstructure:"url"`
	APIKey        string         `mapstructure:"api_key"`
	ClientID      string         `mapstructure:"client_id"`
	ReadTimeout   time.Duration  `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration  `mapstructure:"write_timeout"`
	LoginTimeout  time.Duration  `mapstructure:"login_timeout"`
	BackoffConfig backoff.Config `mapstructure:"backoff"`
}

// ApplyDefaults applies fallback defaults if values are unset.
func (c *Config) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "ibconnect"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = 10 * time.Second
	}
}

// Validate checks config for required fields.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("gateway: URL is required")
	}
	return nil
}
