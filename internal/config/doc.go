// Package config loads, validates and defaults the TOML configuration.
package config
