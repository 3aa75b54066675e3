package aspect

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
)

// Strategy holds everything that differs between the two protocol versions.
// Pick one with NewStrategy once per repository and keep it.
type Strategy interface {
	// Version returns the protocol the strategy speaks.
	Version() core.ProtocolVersion

	// Resolve discovers the aspects applied to obj.
	Resolve(ctx context.Context, obj core.Object, lookup core.TypeLookup) (Set, error)

	// Render encodes an aspect set and property values into the form a
	// repository uses when it returns an object. Values owned by an aspect
	// in set travel the protocol's way; the others come back as regular
	// properties. Resolve(Render(s)) yields s.
	Render(set Set, values core.Properties) (core.Properties, []*extension.Element, error)

	// Plan turns a mutation into its wire form.
	Plan(obj core.Object, current Set, m Mutation) (Plan, error)

	// ConvertProperties prepares a property map for create or update.
	// Properties are split between primary and aspects first.
	ConvertProperties(props core.Properties, primary *core.TypeDefinition, aspects []*core.TypeDefinition) (core.Properties, []*extension.Element, error)

	// DecodeProperties returns the object's property values including the
	// values of aspect properties.
	DecodeProperties(obj core.Object, set Set) (core.Properties, error)
}

// NewStrategy returns the strategy for version. A nil logger discards.
func NewStrategy(version core.ProtocolVersion, logger *slog.Logger) (Strategy, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	switch version {
	case core.ProtocolV1:
		return &extensionStrategy{logger: logger}, nil
	case core.ProtocolV2:
		return &secondaryTypeStrategy{
			logger: logger,
			legacy: &extensionStrategy{logger: logger},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported protocol version %q", version)
	}
}
