package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/facet/pkg/adapters/fs"
	"github.com/aretw0/facet/pkg/adapters/memory"
	"github.com/aretw0/facet/pkg/core"
)

// Init creates and initializes the repository selected by the options.
// The uri argument is adapter-specific: a directory for "fs", the
// repository id for "memory" (may be empty).
func Init(ctx context.Context, uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(ctx, uri, o, nil)
}

func initRepository(ctx context.Context, uri string, o *options, onChange func(core.Event)) (core.Repository, error) {
	// 1. Check for injected repository
	if o.repository != nil {
		if err := o.repository.Initialize(ctx); err != nil {
			return nil, err
		}
		return o.repository, nil
	}

	// 2. Initialize based on Adapter
	switch o.adapter {
	case "fs":
		return initFS(ctx, uri, o, onChange)
	case "memory":
		return initMemory(ctx, uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// info collects the repository info options.
func (o *options) info() core.RepositoryInfo {
	id, _ := o.config["repository_id"].(string)
	version, _ := o.config["protocol_version"].(core.ProtocolVersion)
	return core.RepositoryInfo{ID: id, ProtocolVersion: version}
}

// initFS handles the initialization logic for the filesystem adapter.
func initFS(ctx context.Context, path string, o *options, onChange func(core.Event)) (core.Repository, error) {
	if path == "" {
		path = "."
	}
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	versionOnUpdate, _ := o.config["version_on_update"].(bool)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	repo := fs.NewRepository(fs.Config{
		Path:            path,
		MustExist:       mustExist,
		ReadOnly:        readOnly,
		Info:            o.info(),
		VersionOnUpdate: versionOnUpdate,
		Logger:          o.logger,
		ErrorHandler:    errorHandler,
		OnCatalogChange: onChange,
	})
	if err := repo.Initialize(ctx); err != nil {
		return nil, err
	}

	for _, t := range o.types {
		if _, err := repo.GetTypeDefinition(ctx, t.ID); err == nil {
			continue
		}
		if err := repo.PutType(ctx, t); err != nil {
			return nil, fmt.Errorf("register type %s: %w", t.ID, err)
		}
	}
	return repo, nil
}

// initMemory creates an in-memory repository seeded with the base types.
func initMemory(ctx context.Context, id string, o *options) (core.Repository, error) {
	info := o.info()
	if id != "" {
		info.ID = id
	}
	versionOnUpdate, _ := o.config["version_on_update"].(bool)

	repo, err := memory.New(memory.Config{
		Info:            info,
		Types:           append(core.BaseTypes(), o.types...),
		VersionOnUpdate: versionOnUpdate,
		Logger:          o.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := repo.Initialize(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
