// Package logging builds the application's zap logger from configuration.
package logging

import (
	"go.uber.org/zap"
)

// New returns the application logger: human-readable console output in debug
// or local/testing environments, JSON in production.
func New(env string, debug bool) (*zap.Logger, error) {
	if debug || env == "local" || env == "testing" {
		cfg := zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	return zap.NewProduction()
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
