package config

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Resolver provides helper functions for applying env > CLI > default precedence.
type Resolver struct {
	logger *zap.Logger
	env    Env
}

// NewResolver creates a Resolver reading the provided environment.
func NewResolver(logger *zap.Logger, env Env) Resolver {
	return Resolver{logger: logger, env: env}
}

// Lookup reports an environment value; its method value satisfies version.LookupFunc.
func (r Resolver) Lookup(key string) (string, bool) {
	return r.env.Lookup(key)
}

func (r Resolver) logConflict(setting, envVal, cliVal string) {
	if r.logger == nil {
		return
	}
	r.logger.Warn(
		"config: conflict for "+setting,
		zap.String("env", envVal),
		zap.String("cli", cliVal),
		zap.String("decision", "using env value"),
	)
}

// String resolves a string setting using the precedence rules.
func (r Resolver) String(setting, envKey, cliVal string, cliSet bool, defaultVal string) string {
	envVal, envSet := r.lookupKey(envKey)
	envVal = strings.TrimSpace(envVal)
	if envSet && cliSet && envVal != cliVal {
		r.logConflict(setting, envVal, cliVal)
	}
	if envSet {
		return envVal
	}
	if cliSet {
		return cliVal
	}
	return defaultVal
}

// Bool resolves a boolean setting.
func (r Resolver) Bool(setting, envKey string, cliVal bool, cliSet bool, defaultVal bool) (bool, error) {
	envVal, envSet := r.lookupKey(envKey)
	if !envSet {
		if cliSet {
			return cliVal, nil
		}
		return defaultVal, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(envVal))
	if err != nil {
		return false, fmt.Errorf("config %s: invalid boolean %q: %w", setting, envVal, err)
	}

	if cliSet && parsed != cliVal {
		r.logConflict(setting, envVal, strconv.FormatBool(cliVal))
	}

	return parsed, nil
}

func (r Resolver) lookupKey(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	return r.env.Lookup(key)
}
