package gateway

import (
	"fmt"
	"strings"
	"time"
)

// Config controls the gateway front door.
type Config struct {
	// Prefix is the route prefix flow endpoints are mounted under.
	Prefix string `mapstructure:"prefix"`

	// MaxConcurrent bounds how many client requests may be in dispatch at
	// once. Requests beyond the bound wait up to QueueTimeout for a slot.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// QueueTimeout is how long a request waits for a dispatch slot before
	// being rejected.
	QueueTimeout time.Duration `mapstructure:"queue_timeout"`

	// DefaultEndpoint is used when a request names no endpoint.
	DefaultEndpoint string `mapstructure:"default_endpoint"`
}

// ApplyDefaults sets sensible defaults for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "/flows"
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 64
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = 10 * time.Second
	}
	if c.DefaultEndpoint == "" {
		c.DefaultEndpoint = "/"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("gateway: prefix must start with '/', got %q", c.Prefix)
	}
	return nil
}

// Describe returns a human-readable one-liner for the startup summary.
func (c *Config) Describe() string {
	return fmt.Sprintf("%s max_concurrent=%d", c.Prefix, c.MaxConcurrent)
}
