// Package container provides dependency injection for the allocation
// engine. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"fmt"

	"stacknest/internal/completion"
	"stacknest/internal/config"
	"stacknest/internal/engine"
	"stacknest/internal/logging"
	"stacknest/internal/matcher"
	"stacknest/internal/store"
)

// Container holds all application dependencies and provides methods to
// access them.
//
// Container is immutable after creation - all fields are private and can
// only be accessed through getter methods. This prevents accidental
// modification of dependencies after initialization.
type Container struct {
	logger logging.Logger
	config *config.Config
	store  store.Store
	engine *engine.Engine
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	st := store.NewMemoryStore()
	notifier := completion.NewLogNotifier(logger)

	eng := engine.New(st, logger, notifier, matcher.Options{
		MinConfidence:        cfg.Matching.MinConfidence,
		AutoConfirmThreshold: cfg.Matching.AutoConfirmThreshold,
		ScanLimit:            cfg.Matching.ScanLimit,
	})

	logger.Info("Container initialized successfully",
		logging.Field{Key: "min_confidence", Value: cfg.Matching.MinConfidence},
		logging.Field{Key: "auto_confirm_threshold", Value: cfg.Matching.AutoConfirmThreshold})

	return &Container{
		logger: logger,
		config: cfg,
		store:  st,
		engine: eng,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the container's store instance.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetEngine returns the container's engine instance.
func (c *Container) GetEngine() *engine.Engine {
	return c.engine
}

// Close performs cleanup of container resources.
// This method should be called when the container is no longer needed.
func (c *Container) Close() error {
	// Currently no resources need explicit cleanup
	// This method is provided for future extensibility
	c.logger.Info("Container closed")
	return nil
}
