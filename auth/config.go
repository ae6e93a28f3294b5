package auth

import (
	"fmt"

	"bitsyflow/core/auth/jwt"
)

// Config holds gateway authentication configuration. Sub-configs are
// pointers so unused features are nil and don't force unnecessary
// validation or defaults.
type Config struct {
	// Enabled controls whether authentication is active.
	Enabled bool `mapstructure:"enabled"`

	// JWT configures the JWT token service (nil if not used).
	JWT *jwt.Config `mapstructure:"jwt"`
}

// ApplyDefaults sets sensible defaults for non-nil sub-configurations.
func (c *Config) ApplyDefaults() {
	if c.JWT != nil {
		c.JWT.ApplyDefaults()
	}
}

// Validate checks all non-nil sub-configurations.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.JWT != nil {
		if err := c.JWT.Validate(); err != nil {
			return fmt.Errorf("auth.jwt: %w", err)
		}
	}
	return nil
}

// Describe returns a human-readable one-liner for the startup summary.
// Example: "JWT(HS256) TTL=15m0s"
func (c *Config) Describe() string {
	if !c.Enabled {
		return "disabled"
	}
	if c.JWT != nil {
		return fmt.Sprintf("JWT(%s) TTL=%s", c.JWT.Method, c.JWT.AccessTokenTTL)
	}
	return "enabled (no validators configured)"
}
