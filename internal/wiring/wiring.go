// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/gridlock/internal/adapters/config"
	_ "go.trai.ch/gridlock/internal/adapters/digest"
	_ "go.trai.ch/gridlock/internal/adapters/fs"
	_ "go.trai.ch/gridlock/internal/adapters/git"
	_ "go.trai.ch/gridlock/internal/adapters/lockfile"
	_ "go.trai.ch/gridlock/internal/adapters/logger"
	_ "go.trai.ch/gridlock/internal/adapters/nar"
	_ "go.trai.ch/gridlock/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/gridlock/internal/app"
	_ "go.trai.ch/gridlock/internal/engine/resolver"
)
