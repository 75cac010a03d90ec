package ports

import (
	"context"

	"go.trai.ch/stow/internal/core/domain"
)

// Cache is driven by the compiler at fixed points of a build pass.
type Cache interface {
	// BeforeCompile runs before a compilation starts and may mark files as modified or removed.
	BeforeCompile(ctx context.Context, c *domain.Compilation) error
	// AfterCompile runs after a compilation finished and records its file dependencies.
	AfterCompile(ctx context.Context, c *domain.Compilation) error
	// BeforeMake runs before the module graph is built and may restore it.
	BeforeMake(ctx context.Context, artifact *domain.MakeArtifact) error
	// AfterMake runs after the module graph was built and persists it.
	AfterMake(ctx context.Context, artifact *domain.MakeArtifact) error
}
