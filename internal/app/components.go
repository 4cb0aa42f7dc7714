package app

import (
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
)

// Components holds the initialized application components.
type Components struct {
	App    *App
	Logger ports.Logger
	Config domain.Config
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, logger ports.Logger, cfg domain.Config) *Components {
	return &Components{
		App:    app,
		Logger: logger,
		Config: cfg,
	}
}
