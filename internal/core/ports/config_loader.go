package ports

import "go.trai.ch/gridlock/internal/core/domain"

// ConfigLoader defines the interface for loading the tool configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads configuration discovered from the given working directory
	// and layers the environment on top of it.
	Load(cwd string) (domain.Config, error)
}
