package aspect

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryID    string `json:"repository_id"`
	ProtocolVersion string `json:"protocol_version"`
	TransportType   string `json:"transport_type"`
	Mutations       int    `json:"mutations"`
	NoOps           int    `json:"noops"`
	Refreshes       int    `json:"refreshes"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transportType := "transport"
	if comp, ok := s.transport.(introspection.Component); ok {
		transportType = comp.ComponentType()
	}

	return ServiceState{
		RepositoryID:    s.info.ID,
		ProtocolVersion: string(s.strategy.Version()),
		TransportType:   transportType,
		Mutations:       s.stats.mutations,
		NoOps:           s.stats.noops,
		Refreshes:       s.stats.refreshes,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "aspect-service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
