// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/envup/internal/adapters/config"
	_ "go.trai.ch/envup/internal/adapters/logger"
	_ "go.trai.ch/envup/internal/adapters/nix"
	_ "go.trai.ch/envup/internal/adapters/pip"
	_ "go.trai.ch/envup/internal/adapters/shell"
	_ "go.trai.ch/envup/internal/adapters/venv"
	_ "go.trai.ch/envup/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/envup/internal/app"
)
