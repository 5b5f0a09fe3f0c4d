//go:build wireinject
// +build wireinject

package ai

import (
	"context"

	"github.com/google/wire"
)

// ModuleSet contains all providers for the AI module.
var ModuleSet = wire.NewSet(
	NewModule,
)

// InitializeModule is the wire injector for the AI module.
func InitializeModule(ctx context.Context, config *Config) (*Module, error) {
	wire.Build(ModuleSet)
	return nil, nil
}
