package backend

import (
	"errors"
	"fmt"
	"strings"

	"vulekamali/internal/config"
)

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(strings.ToLower(strings.TrimSpace(appConfig.DataBackend))),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		FixturePath:  appConfig.FixturePath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	if !cfg.Type.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type %q: must be one of %s",
			appConfig.DataBackend, strings.Join(BackendTypeStrings(), ", "))
	}
	return cfg, nil
}

// Validate reports every problem with the settings at once.
func (c Config) Validate() error {
	var errs []error
	if !c.Type.IsValid() {
		errs = append(errs, fmt.Errorf("invalid backend type %q", c.Type))
	}
	if c.Type == SQLiteBackend && strings.TrimSpace(c.SQLiteDBPath) == "" {
		errs = append(errs, errors.New("SQLite database path is required for sqlite backend"))
	}
	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errs = append(errs, errors.New("AMQP exchange is required when an AMQP URL is set"))
		}
		if c.AMQPQueue == "" {
			errs = append(errs, errors.New("AMQP queue is required when an AMQP URL is set"))
		}
	}
	return errors.Join(errs...)
}

// BackendTypes lists the supported backend types.
func BackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}

// BackendTypeStrings lists the supported backend types as strings.
func BackendTypeStrings() []string {
	types := BackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
