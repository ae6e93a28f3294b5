// Package config provides configuration loading and validation for bitsyflow
// applications.
//
// It uses Viper to load configuration from files and environment variables,
// supporting multiple formats (YAML, JSON, TOML) and environment-specific
// overrides.
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("my-service", &cfg)
//
// Environment variables override file values. They take no prefix: each
// variable is lower-cased and bound under its underscore and dot-nested
// key forms (e.g., GATEWAY_PREFIX sets gateway.prefix).
package config
