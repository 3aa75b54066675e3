package platform

import (
	"context"
	"log/slog"

	"github.com/aretw0/facet/pkg/core"
)

// options holds the internal configuration for a facet repository handle.
type options struct {
	repository core.Repository
	logger     *slog.Logger
	adapter    string
	config     map[string]any
	types      []*core.TypeDefinition
	watchCtx   context.Context
}

// Option defines a functional option for configuring facet.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]any),
	}
}

// WithLogger sets the logger for the service and the adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a ready repository. The adapter options are
// ignored and Initialize is still called.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default) or
// "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithProtocolVersion sets the protocol a new repository speaks. An
// existing file repository keeps the version from its repository.yaml.
func WithProtocolVersion(v core.ProtocolVersion) Option {
	return func(o *options) {
		o.config["protocol_version"] = v
	}
}

// WithRepositoryID sets the id of a new repository.
func WithRepositoryID(id string) Option {
	return func(o *options) {
		o.config["repository_id"] = id
	}
}

// WithTypeCache enables or disables the type definition cache between the
// service and the repository. Enabled by default.
func WithTypeCache(enabled bool) Option {
	return func(o *options) {
		o.config["type_cache"] = enabled
	}
}

// WithVersionOnUpdate makes updates of versionable documents create a new
// version with a new object id.
func WithVersionOnUpdate(enabled bool) Option {
	return func(o *options) {
		o.config["version_on_update"] = enabled
	}
}

// WithMustExist ensures the repository directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithReadOnly enables read-only mode. Writes return core.ErrReadOnly and
// initialization does not touch the disk.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithTypes registers type definitions in addition to the base types. The
// memory adapter holds them directly; the fs adapter writes them to its
// catalog.
func WithTypes(types ...*core.TypeDefinition) Option {
	return func(o *options) {
		o.types = append(o.types, types...)
	}
}

// WithWatch keeps the catalog of a file repository in sync with the disk
// until ctx is done. Catalog changes invalidate the type cache.
func WithWatch(ctx context.Context) Option {
	return func(o *options) {
		o.watchCtx = ctx
	}
}

// WithWatcherErrorHandler registers a callback for errors of the catalog
// watcher, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
