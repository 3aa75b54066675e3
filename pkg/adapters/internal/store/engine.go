package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/facet/pkg/aspect"
	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
	"github.com/aretw0/facet/pkg/property"
)

// systemProperties are computed on read and cannot be written.
var systemProperties = map[string]bool{
	core.PropObjectID:              true,
	core.PropBaseTypeID:            true,
	core.PropVersionLabel:          true,
	core.PropIsLatestVersion:       true,
	core.PropContentStreamLength:   true,
	core.PropContentStreamMimeType: true,
	core.PropPath:                  true,
	core.PropSourceID:              true,
	core.PropTargetID:              true,
}

// Config wires an Engine.
type Config struct {
	Info    core.RepositoryInfo
	Lookup  core.TypeLookup
	Backend Backend
	Logger  *slog.Logger

	// VersionOnUpdate makes every update of a versionable document create
	// a new version with a new object id.
	VersionOnUpdate bool

	// NewID generates object ids. Defaults to random UUIDs.
	NewID func() string
}

// Engine answers transport calls the way a repository speaking
// Config.Info.ProtocolVersion would.
type Engine struct {
	cfg      Config
	strategy aspect.Strategy
	logger   *slog.Logger

	// mu serializes writes.
	mu sync.Mutex
}

// New validates cfg and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Lookup == nil || cfg.Backend == nil {
		return nil, errors.New("store: lookup and backend are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	strategy, err := aspect.NewStrategy(cfg.Info.ProtocolVersion, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, strategy: strategy, logger: logger}, nil
}

// Info returns the repository info.
func (e *Engine) Info() core.RepositoryInfo { return e.cfg.Info }

// CheckRepository rejects calls addressed to another repository.
// A blank id addresses this one.
func (e *Engine) CheckRepository(id string) error {
	if id != "" && id != e.cfg.Info.ID {
		return fmt.Errorf("%w: unknown repository %q", core.ErrTransport, id)
	}
	return nil
}

// GetObject renders the stored record in the repository's protocol.
func (e *Engine) GetObject(ctx context.Context, id string) (core.Object, error) {
	rec, err := e.cfg.Backend.Load(ctx, id)
	if err != nil {
		return core.Object{}, err
	}
	return e.render(ctx, rec)
}

// List renders every stored object.
func (e *Engine) List(ctx context.Context) ([]core.Object, error) {
	records, err := e.cfg.Backend.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Object, 0, len(records))
	for _, rec := range records {
		obj, err := e.render(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("render %q: %w", rec.ID, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// Create stores a new object. props must carry a plain cmis:objectTypeId;
// aspects travel in the protocol's form.
func (e *Engine) Create(ctx context.Context, props core.Properties, exts []*extension.Element) (string, error) {
	typeID := props.String(core.PropObjectTypeID)
	if typeID == "" {
		return "", core.InvalidProperty(core.PropObjectTypeID, "type property must be set")
	}
	primary, err := e.cfg.Lookup.GetTypeDefinition(ctx, typeID)
	if err != nil {
		return "", err
	}
	kind, err := core.KindOf(primary.BaseTypeID)
	if err != nil {
		return "", core.InvalidProperty(core.PropObjectTypeID, "%v", err)
	}

	props = props.Clone()
	rec := Record{ID: e.cfg.NewID(), TypeID: primary.ID}
	switch kind {
	case core.KindDocument:
		rec.Document = &core.DocumentFields{VersionLabel: "1.0", IsLatestVersion: true}
	case core.KindFolder:
		rec.Folder = &core.FolderFields{Path: "/" + props.String(core.PropName)}
	case core.KindRelationship:
		rec.Relationship = &core.RelationshipFields{
			SourceID: props.String(core.PropSourceID),
			TargetID: props.String(core.PropTargetID),
		}
		delete(props, core.PropSourceID)
		delete(props, core.PropTargetID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.apply(ctx, &rec, primary, props, exts); err != nil {
		return "", err
	}
	if err := e.cfg.Backend.Save(ctx, rec); err != nil {
		return "", err
	}
	e.logger.Debug("object created", "id", rec.ID, "type", rec.TypeID, "aspects", rec.Aspects)
	return rec.ID, nil
}

// Update applies props and exts to the object and returns its id, which is
// a new id when the update created a version.
func (e *Engine) Update(ctx context.Context, id string, props core.Properties, exts []*extension.Element) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.cfg.Backend.Load(ctx, id)
	if err != nil {
		return "", err
	}
	primary, err := e.cfg.Lookup.GetTypeDefinition(ctx, rec.TypeID)
	if err != nil {
		return "", err
	}

	next := rec.Clone()
	versioned := e.cfg.VersionOnUpdate && rec.Document != nil && primary.Versionable
	if versioned {
		next.ID = e.cfg.NewID()
		next.Document.VersionLabel = nextVersionLabel(rec.Document.VersionLabel)
		next.Document.IsLatestVersion = true
	}
	if err := e.apply(ctx, &next, primary, props, exts); err != nil {
		return "", err
	}
	if err := e.cfg.Backend.Save(ctx, next); err != nil {
		return "", err
	}
	if versioned {
		rec.Document.IsLatestVersion = false
		if err := e.cfg.Backend.Save(ctx, rec); err != nil {
			return "", err
		}
		e.logger.Debug("version created", "from", rec.ID, "to", next.ID, "label", next.Document.VersionLabel)
	}
	return next.ID, nil
}

// apply writes aspect changes and property values into rec.
func (e *Engine) apply(ctx context.Context, rec *Record, primary *core.TypeDefinition, props core.Properties, exts []*extension.Element) error {
	current, err := e.resolve(ctx, rec.Aspects)
	if err != nil {
		return err
	}
	next := current.Types()
	aspectValues := make(core.Properties)

	switch e.strategy.Version() {
	case core.ProtocolV2:
		if len(exts) > 0 {
			return core.Invalid("extension elements are not accepted by this repository")
		}
		if _, ok := props[core.PropSecondaryObjectTypeIDs]; ok {
			ids, _ := props.Strings(core.PropSecondaryObjectTypeIDs)
			next, err = e.resolveStrict(ctx, ids)
			if err != nil {
				return err
			}
		}
	case core.ProtocolV1:
		if _, ok := props[core.PropSecondaryObjectTypeIDs]; ok {
			return core.InvalidProperty(core.PropSecondaryObjectTypeIDs, "not supported by this repository")
		}
		if request := extension.FindElement(exts, extension.AlfrescoNamespace, extension.SetAspects); request != nil {
			add, err := e.resolveStrict(ctx, extension.Values(request.Children, extension.AspectsToAdd))
			if err != nil {
				return err
			}
			remove := aspect.NewSet(e.resolveKnown(ctx, extension.Values(request.Children, extension.AspectsToRemove))...)
			merged := aspect.NewSet(append(slices.Clone(next), add...)...)
			next = nil
			for _, t := range merged.Types() {
				if !remove.Has(t.ID) {
					next = append(next, t)
				}
			}

			owners := aspect.NewSet(next...)
			lookup := func(id string) *core.PropertyDefinition {
				return owners.FindOwning(id).PropertyDefinition(id)
			}
			for _, container := range extension.Named(request.Children, extension.Properties) {
				for _, el := range container.Children {
					id, value, err := property.DecodeElement(el, lookup)
					if err != nil {
						return err
					}
					aspectValues[id] = value
				}
			}
		}
	}

	applied := aspect.NewSet(next...)
	for key := range rec.Values {
		if !primary.Owns(key) && applied.FindOwning(key) == nil {
			delete(rec.Values, key)
		}
	}
	rec.Aspects = applied.IDs()

	for _, key := range props.Keys() {
		switch {
		case key == core.PropSecondaryObjectTypeIDs:
			continue
		case key == core.PropObjectTypeID:
			if props.String(key) != rec.TypeID {
				return core.InvalidProperty(key, "object type cannot change from %q", rec.TypeID)
			}
			continue
		case systemProperties[key]:
			return core.InvalidProperty(key, "property is read-only")
		}
		if err := e.setValue(rec, primary, applied, key, props[key]); err != nil {
			return err
		}
	}
	for _, key := range aspectValues.Keys() {
		if err := e.setValue(rec, primary, applied, key, aspectValues[key]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) setValue(rec *Record, primary *core.TypeDefinition, applied aspect.Set, key string, value any) error {
	def := primary.PropertyDefinition(key)
	if def == nil {
		def = applied.FindOwning(key).PropertyDefinition(key)
	}
	if def == nil {
		return core.InvalidProperty(key, "not defined by the object type or its aspects")
	}
	if def.Updatability == core.ReadOnly {
		return core.InvalidProperty(key, "property is read-only")
	}
	texts, err := property.Encode(def, value)
	if err != nil {
		return err
	}
	if value == nil {
		delete(rec.Values, key)
		return nil
	}
	if rec.Values == nil {
		rec.Values = make(map[string][]string)
	}
	rec.Values[key] = texts
	if key == core.PropName && rec.Folder != nil && len(texts) > 0 {
		rec.Folder.Path = "/" + texts[0]
	}
	return nil
}

// render builds the object snapshot a client would receive.
func (e *Engine) render(ctx context.Context, rec Record) (core.Object, error) {
	primary, err := e.cfg.Lookup.GetTypeDefinition(ctx, rec.TypeID)
	if err != nil {
		return core.Object{}, err
	}
	kind, err := core.KindOf(primary.BaseTypeID)
	if err != nil {
		return core.Object{}, err
	}
	set, err := e.resolve(ctx, rec.Aspects)
	if err != nil {
		return core.Object{}, err
	}

	props := make(core.Properties)
	aspectValues := make(core.Properties)
	for key, texts := range rec.Values {
		def := primary.PropertyDefinition(key)
		target := props
		if def == nil {
			def = set.FindOwning(key).PropertyDefinition(key)
			target = aspectValues
		}
		if def == nil {
			// Left behind by a catalog change.
			e.logger.Debug("dropping undefined stored value", "object", rec.ID, "property", key)
			continue
		}
		items, err := property.Decode(def, texts)
		if err != nil {
			return core.Object{}, err
		}
		target[key] = property.Value(def, items)
	}

	rendered, exts, err := e.strategy.Render(set, aspectValues)
	if err != nil {
		return core.Object{}, err
	}
	for k, v := range rendered {
		props[k] = v
	}

	props[core.PropObjectID] = rec.ID
	props[core.PropObjectTypeID] = rec.TypeID
	props[core.PropBaseTypeID] = string(primary.BaseTypeID)

	obj := core.Object{
		ID:         rec.ID,
		Kind:       kind,
		TypeID:     rec.TypeID,
		Extensions: exts,
	}
	clone := rec.Clone()
	switch kind {
	case core.KindDocument:
		obj.Document = clone.Document
		if obj.Document == nil {
			obj.Document = &core.DocumentFields{}
		}
		props[core.PropVersionLabel] = obj.Document.VersionLabel
		props[core.PropIsLatestVersion] = obj.Document.IsLatestVersion
		if obj.Document.MimeType != "" {
			props[core.PropContentStreamMimeType] = obj.Document.MimeType
		}
	case core.KindFolder:
		obj.Folder = clone.Folder
		if obj.Folder == nil {
			obj.Folder = &core.FolderFields{}
		}
		props[core.PropPath] = obj.Folder.Path
	case core.KindRelationship:
		obj.Relationship = clone.Relationship
		if obj.Relationship == nil {
			obj.Relationship = &core.RelationshipFields{}
		}
		props[core.PropSourceID] = obj.Relationship.SourceID
		props[core.PropTargetID] = obj.Relationship.TargetID
	}
	obj.Properties = props
	return obj, nil
}

// resolve maps stored aspect ids to definitions, skipping ids the catalog
// no longer knows.
func (e *Engine) resolve(ctx context.Context, ids []string) (aspect.Set, error) {
	var out []*core.TypeDefinition
	for _, id := range ids {
		def, err := e.cfg.Lookup.GetTypeDefinition(ctx, id)
		if err != nil {
			if core.IsUnknownType(err) {
				e.logger.Debug("stored aspect no longer in catalog", "aspect", id)
				continue
			}
			return aspect.Set{}, err
		}
		out = append(out, def)
	}
	return aspect.NewSet(out...), nil
}

// resolveStrict maps requested aspect ids to secondary type definitions.
func (e *Engine) resolveStrict(ctx context.Context, ids []string) ([]*core.TypeDefinition, error) {
	out := make([]*core.TypeDefinition, 0, len(ids))
	for _, id := range ids {
		def, err := e.cfg.Lookup.GetTypeDefinition(ctx, strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		if !def.IsSecondary() {
			return nil, core.Invalid("type %q is not an aspect", id)
		}
		out = append(out, def)
	}
	return out, nil
}

// resolveKnown resolves ids to remove. Unknown ids cannot be applied, so
// they are ignored.
func (e *Engine) resolveKnown(ctx context.Context, ids []string) []*core.TypeDefinition {
	var out []*core.TypeDefinition
	for _, id := range ids {
		if def, err := e.cfg.Lookup.GetTypeDefinition(ctx, id); err == nil {
			out = append(out, def)
		}
	}
	return out
}

// nextVersionLabel bumps the minor part of a "major.minor" label.
func nextVersionLabel(label string) string {
	major, minor, ok := strings.Cut(label, ".")
	if !ok {
		return "1.0"
	}
	n, err := strconv.Atoi(minor)
	if err != nil {
		return "1.0"
	}
	return major + "." + strconv.Itoa(n+1)
}
