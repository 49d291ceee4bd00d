// Package logging configures slog handlers and shared attribute helpers.
package logging
