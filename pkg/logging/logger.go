// Package logging provides zap logger construction and helpers for keeping
// secrets out of log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a zap logger appropriate for the given environment.
// "local" gets a human-readable development logger at debug level; everything
// else gets the production JSON logger at info level.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
