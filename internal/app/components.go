package app

import (
	"go.trai.ch/stow/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry ports.Telemetry

	setConfigFile func(string)
}

// NewComponents creates a new Components struct from dependencies. setConfigFile changes
// the configuration file the App loads.
func NewComponents(app *App, logger ports.Logger, telemetry ports.Telemetry, setConfigFile func(string)) *Components {
	return &Components{
		App:           app,
		Logger:        logger,
		Telemetry:     telemetry,
		setConfigFile: setConfigFile,
	}
}

// SetConfigFile selects the configuration file. A bare file name is searched for upwards
// from the working directory.
func (c *Components) SetConfigFile(name string) {
	if c.setConfigFile != nil && name != "" {
		c.setConfigFile(name)
	}
}
