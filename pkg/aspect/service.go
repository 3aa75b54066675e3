// Package aspect reconciles the two ways a repository can represent
// aspects: extension elements (protocol v1) and secondary type ids
// (protocol v2).
//
// The protocol is decided once per repository, when a Service connects, and
// every operation afterwards goes through the matching Strategy.
package aspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
)

// Service applies aspect operations to object snapshots of one repository.
// It is safe for concurrent use.
type Service struct {
	transport core.Transport
	lookup    core.TypeLookup
	strategy  Strategy
	info      core.RepositoryInfo
	logger    *slog.Logger

	mu    sync.RWMutex
	stats serviceStats
}

type serviceStats struct {
	mutations int
	noops     int
	refreshes int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStrategy forces a strategy instead of the one matching the
// repository's protocol version.
func WithStrategy(strategy Strategy) Option {
	return func(s *Service) {
		s.strategy = strategy
	}
}

// Connect reads the repository info once and returns a Service speaking
// the repository's protocol version.
func Connect(ctx context.Context, transport core.Transport, lookup core.TypeLookup, opts ...Option) (*Service, error) {
	if transport == nil || lookup == nil {
		return nil, fmt.Errorf("aspect: transport and type lookup are required")
	}
	s := &Service{
		transport: transport,
		lookup:    lookup,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	info, err := transport.RepositoryInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("read repository info: %w", err)
	}
	s.info = info

	if s.strategy == nil {
		strategy, err := NewStrategy(info.ProtocolVersion, s.logger)
		if err != nil {
			return nil, err
		}
		s.strategy = strategy
	}
	s.logger.Debug("aspect service connected",
		"repository", info.ID,
		"protocol", s.strategy.Version())
	return s, nil
}

// Info returns the repository info read at connect time.
func (s *Service) Info() core.RepositoryInfo { return s.info }

// Strategy returns the protocol strategy in use.
func (s *Service) Strategy() Strategy { return s.strategy }

// Aspects returns the aspects applied to obj.
func (s *Service) Aspects(ctx context.Context, obj core.Object) (Set, error) {
	return s.strategy.Resolve(ctx, obj, s.lookup)
}

// HasAspect reports whether the aspect id is applied to obj.
func (s *Service) HasAspect(ctx context.Context, obj core.Object, id string) (bool, error) {
	set, err := s.Aspects(ctx, obj)
	if err != nil {
		return false, err
	}
	return set.Has(id), nil
}

// FindAspect returns the applied aspect that declares propertyID, or nil.
func (s *Service) FindAspect(ctx context.Context, obj core.Object, propertyID string) (*core.TypeDefinition, error) {
	set, err := s.Aspects(ctx, obj)
	if err != nil {
		return nil, err
	}
	return set.FindOwning(propertyID), nil
}

// TypeWithAspects returns the effective schema of obj.
func (s *Service) TypeWithAspects(ctx context.Context, obj core.Object) (*TypeWithAspects, error) {
	primary, err := s.lookup.GetTypeDefinition(ctx, obj.TypeID)
	if err != nil {
		return nil, fmt.Errorf("resolve type of %q: %w", obj.ID, err)
	}
	set, err := s.Aspects(ctx, obj)
	if err != nil {
		return nil, err
	}
	return NewTypeWithAspects(primary, set, s.lookup), nil
}

// Materialized is the protocol-independent view of an object.
type Materialized struct {
	Object     core.Object
	Aspects    Set
	Properties core.Properties
	Type       *TypeWithAspects
}

// Materialize decodes obj into its normalized view: applied aspects,
// every property value including aspect values, and the effective schema.
func (s *Service) Materialize(ctx context.Context, obj core.Object) (*Materialized, error) {
	view, err := s.TypeWithAspects(ctx, obj)
	if err != nil {
		return nil, err
	}
	props, err := s.strategy.DecodeProperties(obj, view.Aspects())
	if err != nil {
		return nil, fmt.Errorf("decode properties of %q: %w", obj.ID, err)
	}
	return &Materialized{
		Object:     obj,
		Aspects:    view.Aspects(),
		Properties: props,
		Type:       view,
	}, nil
}

// AddAspects applies the aspects with the given ids.
func (s *Service) AddAspects(ctx context.Context, obj core.Object, ids ...string) (core.Object, error) {
	return s.AddAspectsWithProperties(ctx, obj, ids, nil)
}

// AddAspectsWithProperties applies the aspects with the given ids and sets
// values on their properties in the same update.
func (s *Service) AddAspectsWithProperties(ctx context.Context, obj core.Object, ids []string, props core.Properties) (core.Object, error) {
	add, err := s.resolveAll(ctx, ids)
	if err != nil {
		return core.Object{}, err
	}
	return s.Mutate(ctx, obj, Mutation{Add: add, Properties: props})
}

// RemoveAspects detaches the aspects with the given ids.
func (s *Service) RemoveAspects(ctx context.Context, obj core.Object, ids ...string) (core.Object, error) {
	remove, err := s.resolveAll(ctx, ids)
	if err != nil {
		return core.Object{}, err
	}
	return s.Mutate(ctx, obj, Mutation{Remove: remove})
}

// Mutate plans m against the aspects currently applied to obj, submits it
// and returns a fresh snapshot. A no-op returns obj unchanged without any
// remote call.
func (s *Service) Mutate(ctx context.Context, obj core.Object, m Mutation) (core.Object, error) {
	current, err := s.Aspects(ctx, obj)
	if err != nil {
		return core.Object{}, err
	}
	plan, err := s.strategy.Plan(obj, current, m)
	if err != nil {
		return core.Object{}, err
	}
	if plan.NoOp {
		s.count(func(st *serviceStats) { st.noops++ })
		return obj, nil
	}
	return s.submit(ctx, obj, plan.Properties, plan.Extensions)
}

// UpdateProperties writes property values. Values of applied aspects are
// routed the protocol's way. The applied aspects always stay applied; a
// composite cmis:objectTypeId in props may only add aspects to them.
func (s *Service) UpdateProperties(ctx context.Context, obj core.Object, props core.Properties) (core.Object, error) {
	view, err := s.TypeWithAspects(ctx, obj)
	if err != nil {
		return core.Object{}, err
	}
	typeID := ObjectTypeIDValue(view.Primary(), view.Aspects().Types())
	if requested := props.String(core.PropObjectTypeID); requested != "" {
		primaryID, extra := SplitObjectTypeID(requested)
		if primaryID != view.Primary().ID {
			return core.Object{}, core.InvalidProperty(core.PropObjectTypeID,
				"object type cannot change from %q to %q", view.Primary().ID, primaryID)
		}
		for _, id := range extra {
			if !view.Aspects().Has(id) {
				typeID += "," + id
			}
		}
	}

	props = props.Clone()
	if props == nil {
		props = make(core.Properties)
	}
	props[core.PropObjectTypeID] = typeID

	converted, exts, err := s.ConvertProperties(ctx, props)
	if err != nil {
		return core.Object{}, err
	}
	// The type of an existing object cannot change.
	delete(converted, core.PropObjectTypeID)
	return s.submit(ctx, obj, converted, exts)
}

// ConvertProperties prepares props for a create or update call. props must
// carry cmis:objectTypeId, optionally in composite form
// ("primary,aspect1,aspect2").
func (s *Service) ConvertProperties(ctx context.Context, props core.Properties) (core.Properties, []*extension.Element, error) {
	typeID := props.String(core.PropObjectTypeID)
	if typeID == "" {
		return nil, nil, core.InvalidProperty(core.PropObjectTypeID, "type property must be set")
	}
	primaryID, aspectIDs := SplitObjectTypeID(typeID)
	primary, err := s.lookup.GetTypeDefinition(ctx, primaryID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve type %q: %w", primaryID, err)
	}
	aspects, err := s.resolveAll(ctx, aspectIDs)
	if err != nil {
		return nil, nil, err
	}
	return s.strategy.ConvertProperties(props, primary, aspects)
}

// Create stores a new object from props and returns its first snapshot.
// props must carry cmis:objectTypeId, optionally naming aspects in
// composite form. The transport must implement core.Creator.
func (s *Service) Create(ctx context.Context, props core.Properties) (core.Object, error) {
	creator, ok := s.transport.(core.Creator)
	if !ok {
		return core.Object{}, fmt.Errorf("create object: %w", errors.ErrUnsupported)
	}
	converted, exts, err := s.ConvertProperties(ctx, props)
	if err != nil {
		return core.Object{}, err
	}
	id, err := creator.CreateObject(ctx, s.info.ID, converted, exts)
	if err != nil {
		return core.Object{}, err
	}
	s.count(func(st *serviceStats) { st.mutations++ })
	return s.transport.GetObject(ctx, s.info.ID, id)
}

// MandatoryAspects returns the aspects the type requires. Types that carry
// no declaration yield an empty list.
func (s *Service) MandatoryAspects(ctx context.Context, typeID string) ([]string, error) {
	def, err := s.lookup.GetTypeDefinition(ctx, typeID)
	if err != nil {
		return nil, err
	}
	return MandatoryAspects(def), nil
}

// MandatoryAspects reads the mandatory aspects of def, preferring the
// extension declaration over the catalog field.
func MandatoryAspects(def *core.TypeDefinition) []string {
	if def == nil {
		return []string{}
	}
	if extension.FindElement(def.Extensions, extension.AlfrescoNamespace, extension.MandatoryAspects) != nil {
		return extension.ReadMandatoryAspects(def.Extensions)
	}
	return append([]string{}, def.MandatoryAspects...)
}

func (s *Service) submit(ctx context.Context, obj core.Object, props core.Properties, exts []*extension.Element) (core.Object, error) {
	s.logger.Debug("submitting update",
		"object", obj.ID,
		"properties", props.Keys(),
		"extensions", len(exts))

	newID, err := s.transport.UpdateProperties(ctx, s.info.ID, obj.ID, props, exts)
	if err != nil {
		return core.Object{}, err
	}
	if newID == "" {
		newID = obj.ID
	}
	s.count(func(st *serviceStats) { st.mutations++ })

	fresh, err := s.transport.GetObject(ctx, s.info.ID, newID)
	if err != nil {
		return core.Object{}, fmt.Errorf("refresh %q: %w", newID, err)
	}
	s.count(func(st *serviceStats) { st.refreshes++ })
	return fresh, nil
}

// resolveAll looks up every id; unlike reads, an unknown id is an error.
func (s *Service) resolveAll(ctx context.Context, ids []string) ([]*core.TypeDefinition, error) {
	out := make([]*core.TypeDefinition, 0, len(ids))
	for _, id := range ids {
		def, err := s.lookup.GetTypeDefinition(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve aspect %q: %w", id, err)
		}
		out = append(out, def)
	}
	return out, nil
}

func (s *Service) count(fn func(*serviceStats)) {
	s.mu.Lock()
	fn(&s.stats)
	s.mu.Unlock()
}
