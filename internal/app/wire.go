//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/aidash/server/internal/shared/config"
	"github.com/google/wire"
)

// InitializeDependencies is the wire injector for the application graph.
// Wire will generate the implementation in wire_gen.go.
func InitializeDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
