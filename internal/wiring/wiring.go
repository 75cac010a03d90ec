// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/stow/internal/adapters/config"
	_ "go.trai.ch/stow/internal/adapters/fs"
	_ "go.trai.ch/stow/internal/adapters/logger"
	_ "go.trai.ch/stow/internal/adapters/storage"
	_ "go.trai.ch/stow/internal/adapters/telemetry/progrock"
	// Register app nodes.
	_ "go.trai.ch/stow/internal/app"
)
