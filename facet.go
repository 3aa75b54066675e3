package facet

import (
	"context"
	"log/slog"

	"github.com/aretw0/facet/internal/platform"
	"github.com/aretw0/facet/pkg/aspect"
	"github.com/aretw0/facet/pkg/core"
)

// --- Types ---

// Service is the aspect service bound to one repository.
type Service = aspect.Service

// Handle bundles a service with its repository and type lookup.
type Handle = platform.Handle

// Object is an immutable snapshot of a repository object.
type Object = core.Object

// Properties maps property ids to values.
type Properties = core.Properties

// ProtocolVersion selects the aspect representation.
type ProtocolVersion = core.ProtocolVersion

const (
	ProtocolV1 = core.ProtocolV1
	ProtocolV2 = core.ProtocolV2
)

// --- Configuration ---

// Option defines a functional option for configuring facet.
type Option = platform.Option

// WithLogger sets the logger for the service and the adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository injects a custom repository.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name ("fs" or "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithProtocolVersion sets the protocol a new repository speaks.
func WithProtocolVersion(v ProtocolVersion) Option {
	return platform.WithProtocolVersion(v)
}

// WithRepositoryID sets the id of a new repository.
func WithRepositoryID(id string) Option {
	return platform.WithRepositoryID(id)
}

// WithTypeCache enables or disables the type definition cache.
func WithTypeCache(enabled bool) Option {
	return platform.WithTypeCache(enabled)
}

// WithVersionOnUpdate makes updates of versionable documents create versions.
func WithVersionOnUpdate(enabled bool) Option {
	return platform.WithVersionOnUpdate(enabled)
}

// WithMustExist ensures the repository directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly enables read-only mode.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithTypes registers type definitions in addition to the base types.
func WithTypes(types ...*core.TypeDefinition) Option {
	return platform.WithTypes(types...)
}

// WithWatch keeps the catalog of a file repository in sync until ctx is done.
func WithWatch(ctx context.Context) Option {
	return platform.WithWatch(ctx)
}

// WithWatcherErrorHandler registers a callback for catalog watcher errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New opens the repository at uri and returns a connected aspect service.
func New(ctx context.Context, uri string, opts ...Option) (*Service, error) {
	return platform.New(ctx, uri, opts...)
}

// Open is like New but also returns the repository and type lookup.
func Open(ctx context.Context, uri string, opts ...Option) (*Handle, error) {
	return platform.Open(ctx, uri, opts...)
}

// Init initializes a repository without connecting a service.
func Init(ctx context.Context, uri string, opts ...Option) (core.Repository, error) {
	return platform.Init(ctx, uri, opts...)
}

// FindRoot looks upwards from startDir for a repository root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
