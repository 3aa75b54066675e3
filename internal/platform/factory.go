package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/facet/pkg/aspect"
	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/typecache"
)

// Handle bundles a connected service with the repository behind it.
type Handle struct {
	Service    *aspect.Service
	Repository core.Repository
	// Types is the lookup the service uses: the cache when enabled,
	// otherwise the repository.
	Types core.TypeLookup
	// Cache is nil when the type cache is disabled.
	Cache *typecache.Cache
}

// Watcher is implemented by repositories that report catalog changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan core.Event, error)
}

// Open initializes the repository selected by the options and connects an
// aspect service to it.
//
//	h, err := facet.Open("./repo", facet.WithProtocolVersion(core.ProtocolV1))
func Open(ctx context.Context, uri string, opts ...Option) (*Handle, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var cache *typecache.Cache
	onChange := func(e core.Event) {
		if cache != nil {
			cache.Invalidate()
		}
		if o.logger != nil {
			o.logger.Info("catalog changed", "event", e.String())
		}
	}

	repo, err := initRepository(ctx, uri, o, onChange)
	if err != nil {
		return nil, err
	}

	h := &Handle{Repository: repo, Types: repo}
	if enabled, ok := o.config["type_cache"].(bool); !ok || enabled {
		cache = typecache.New(repo, o.logger)
		h.Cache = cache
		h.Types = cache
	}

	svc, err := aspect.Connect(ctx, repo, h.Types, aspect.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	h.Service = svc

	if o.watchCtx != nil {
		if err := watch(o, repo); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// New is Open without the handle.
func New(ctx context.Context, uri string, opts ...Option) (*aspect.Service, error) {
	h, err := Open(ctx, uri, opts...)
	if err != nil {
		return nil, err
	}
	return h.Service, nil
}

// watch drains catalog events until the watch context is done. The
// invalidation itself happens in the adapter callback.
func watch(o *options, repo core.Repository) error {
	w, ok := repo.(Watcher)
	if !ok {
		return fmt.Errorf("adapter %s does not support watching", o.adapter)
	}
	events, err := w.Watch(o.watchCtx)
	if err != nil {
		return err
	}
	lifecycle.Go(o.watchCtx, func(ctx context.Context) error {
		for range events {
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		if o.logger != nil {
			o.logger.Error("catalog watch failed", "error", err)
		}
	}))
	return nil
}
