package fs

import (
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/facet/pkg/core"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path            string               `json:"path"`
	RepositoryID    string               `json:"repository_id,omitempty"`
	ProtocolVersion core.ProtocolVersion `json:"protocol_version,omitempty"`
	ReadOnly        bool                 `json:"read_only"`
	Types           int                  `json:"types"`
	TypeFiles       int                  `json:"type_files"`
	WatcherActive   bool                 `json:"watcher_active"`
	LastReload      *time.Time           `json:"last_reload,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := RepositoryState{
		Path:          r.Path,
		ReadOnly:      r.config.ReadOnly,
		Types:         r.catalog.Len(),
		TypeFiles:     r.cache.Len(),
		WatcherActive: r.watcherActive,
		LastReload:    r.lastReload,
	}
	if r.engine != nil {
		info := r.engine.Info()
		state.RepositoryID = info.ID
		state.ProtocolVersion = info.ProtocolVersion
	}
	return state
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}
