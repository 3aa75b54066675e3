// Package lifecycle bridges catalog change events of a file repository to
// the lifecycle event interface.
package lifecycle

import (
	"context"
	"log/slog"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/facet/pkg/core"
)

// Watcher is implemented by repositories that report catalog changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan core.Event, error)
}

type catalogSource struct {
	watcher Watcher
	logger  *slog.Logger
	out     chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that starts watching w when it is
// started and emits one event per reloaded catalog file. logger may be nil.
func NewSource(w Watcher, logger *slog.Logger) lifecycle.Source {
	return &catalogSource{
		watcher: w,
		logger:  logger,
		out:     make(chan lifecycle.Event),
	}
}

func (s *catalogSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *catalogSource) Start(ctx context.Context) error {
	events, err := s.watcher.Watch(ctx)
	if err != nil {
		return err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		if s.logger != nil {
			s.logger.Error("catalog event bridge failed", "error", err)
		}
	}))
	return nil
}
