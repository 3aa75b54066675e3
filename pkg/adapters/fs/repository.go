// Package fs implements a file-backed repository. A repository directory
// holds repository.yaml with the repository info, a types/ tree of YAML
// type definitions (multi-document files allowed) and an objects/ directory
// with one YAML record per object.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/facet/pkg/adapters/internal/store"
	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
)

const (
	// InfoFile holds the repository info at the repository root.
	InfoFile = "repository.yaml"
	// TypesDir holds the type catalog.
	TypesDir = "types"
	// ObjectsDir holds one record file per object.
	ObjectsDir = "objects"
	// TypePattern selects catalog files inside TypesDir.
	TypePattern = "**/*.{yaml,yml}"
)

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool

	// Info seeds repository.yaml when the repository is initialized for
	// the first time. Empty fields get defaults.
	Info core.RepositoryInfo

	VersionOnUpdate bool
	Logger          *slog.Logger

	// ErrorHandler receives watcher failures. When nil they are logged.
	ErrorHandler func(error)
	// OnCatalogChange runs after the watcher reloaded the catalog and
	// before the event is delivered.
	OnCatalogChange func(core.Event)
}

// Repository implements core.Repository on top of a directory tree.
type Repository struct {
	Path   string
	config Config
	logger *slog.Logger

	cache   *cache
	catalog *store.Catalog

	reloadMu sync.Mutex

	mu            sync.RWMutex
	engine        *store.Engine
	watcherActive bool
	lastReload    *time.Time
}

// NewRepository creates a new filesystem-backed repository. Call Initialize
// before use.
func NewRepository(config Config) *Repository {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{
		Path:    config.Path,
		config:  config,
		logger:  logger,
		cache:   newCache(),
		catalog: store.NewCatalog(),
	}
}

// Initialize prepares the directory layout, loads the repository info and
// the type catalog. A repository without repository.yaml is created with
// the base types unless the repository is read-only.
func (r *Repository) Initialize(ctx context.Context) error {
	// 1. Directory
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("repository path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("repository path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create repository directory: %w", err)
	}

	// 2. Repository info
	info, err := r.readInfo()
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !r.config.ReadOnly:
		if info, err = r.create(); err != nil {
			return err
		}
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s in %s", core.ErrNotFound, InfoFile, r.Path)
	default:
		return err
	}
	if info.ID == "" {
		return core.Invalid("%s: repository id is empty", InfoFile)
	}
	if info.ProtocolVersion != core.ProtocolV1 && info.ProtocolVersion != core.ProtocolV2 {
		return core.Invalid("%s: unsupported protocol version %q", InfoFile, info.ProtocolVersion)
	}

	// 3. Catalog
	if err := r.Reload(ctx); err != nil {
		return err
	}

	engine, err := store.New(store.Config{
		Info:            info,
		Lookup:          r.catalog,
		Backend:         (*backend)(r),
		Logger:          r.logger,
		VersionOnUpdate: r.config.VersionOnUpdate,
	})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.engine = engine
	r.mu.Unlock()

	r.logger.Debug("repository initialized", "path", r.Path, "id", info.ID,
		"protocol", info.ProtocolVersion, "types", r.catalog.Len())
	return nil
}

func (r *Repository) readInfo() (core.RepositoryInfo, error) {
	var info core.RepositoryInfo
	data, err := os.ReadFile(filepath.Join(r.Path, InfoFile))
	if err != nil {
		return info, err
	}
	if err := decodeYAML(data, &info); err != nil {
		return info, fmt.Errorf("%s: %w", InfoFile, err)
	}
	return info, nil
}

// create writes repository.yaml and seeds the base types.
func (r *Repository) create() (core.RepositoryInfo, error) {
	info := r.config.Info
	if info.ID == "" {
		info.ID = defaultID(r.Path)
	}
	if info.Name == "" {
		info.Name = info.ID
	}
	if info.ProtocolVersion == "" {
		info.ProtocolVersion = core.ProtocolV2
	}
	if info.ProductName == "" {
		info.ProductName = "facet"
	}

	for _, t := range core.BaseTypes() {
		target := filepath.Join(r.Path, TypesDir, "base", typeFileName(t.ID))
		if _, err := os.Stat(target); err == nil {
			continue
		}
		if err := writeYAML(target, t); err != nil {
			return info, err
		}
	}
	if err := os.MkdirAll(filepath.Join(r.Path, ObjectsDir), 0755); err != nil {
		return info, fmt.Errorf("failed to create objects directory: %w", err)
	}
	if err := writeYAML(filepath.Join(r.Path, InfoFile), info); err != nil {
		return info, err
	}
	r.logger.Info("repository created", "path", r.Path, "id", info.ID, "protocol", info.ProtocolVersion)
	return info, nil
}

func defaultID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return "facet"
	}
	return base
}

// typeFileName maps a type id such as P:cm:titled to P_cm_titled.yaml.
func typeFileName(id string) string {
	return strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(id) + ".yaml"
}

func (r *Repository) ready() (*store.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.engine == nil {
		return nil, fmt.Errorf("%w: repository %s is not initialized", core.ErrTransport, r.Path)
	}
	return r.engine, nil
}

// RepositoryInfo implements core.Transport.
func (r *Repository) RepositoryInfo(ctx context.Context) (core.RepositoryInfo, error) {
	engine, err := r.ready()
	if err != nil {
		return core.RepositoryInfo{}, err
	}
	return engine.Info(), nil
}

// GetObject implements core.Transport.
func (r *Repository) GetObject(ctx context.Context, repositoryID, objectID string) (core.Object, error) {
	engine, err := r.ready()
	if err != nil {
		return core.Object{}, err
	}
	if err := engine.CheckRepository(repositoryID); err != nil {
		return core.Object{}, err
	}
	return engine.GetObject(ctx, objectID)
}

// UpdateProperties implements core.Transport.
func (r *Repository) UpdateProperties(ctx context.Context, repositoryID, objectID string, properties core.Properties, extensions []*extension.Element) (string, error) {
	engine, err := r.ready()
	if err != nil {
		return "", err
	}
	if err := r.writable(); err != nil {
		return "", err
	}
	if err := engine.CheckRepository(repositoryID); err != nil {
		return "", err
	}
	return engine.Update(ctx, objectID, properties, extensions)
}

// CreateObject implements core.Creator.
func (r *Repository) CreateObject(ctx context.Context, repositoryID string, properties core.Properties, extensions []*extension.Element) (string, error) {
	engine, err := r.ready()
	if err != nil {
		return "", err
	}
	if err := r.writable(); err != nil {
		return "", err
	}
	if err := engine.CheckRepository(repositoryID); err != nil {
		return "", err
	}
	return engine.Create(ctx, properties, extensions)
}

// ListObjects implements core.ObjectLister.
func (r *Repository) ListObjects(ctx context.Context, repositoryID string) ([]core.Object, error) {
	engine, err := r.ready()
	if err != nil {
		return nil, err
	}
	if err := engine.CheckRepository(repositoryID); err != nil {
		return nil, err
	}
	return engine.List(ctx)
}

// GetTypeDefinition implements core.TypeLookup.
func (r *Repository) GetTypeDefinition(ctx context.Context, id string) (*core.TypeDefinition, error) {
	return r.catalog.GetTypeDefinition(ctx, id)
}

// GetTypeChildren implements core.TypeHierarchy.
func (r *Repository) GetTypeChildren(ctx context.Context, id string) ([]*core.TypeDefinition, error) {
	return r.catalog.GetTypeChildren(ctx, id)
}

// GetTypeDescendants implements core.TypeHierarchy.
func (r *Repository) GetTypeDescendants(ctx context.Context, id string, depth int) ([]*core.TypeDefinition, error) {
	return r.catalog.GetTypeDescendants(ctx, id, depth)
}

// Types returns every loaded definition ordered by id.
func (r *Repository) Types() []*core.TypeDefinition {
	return r.catalog.List()
}

// PutType writes the definition to the catalog and reloads it.
func (r *Repository) PutType(ctx context.Context, t *core.TypeDefinition) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := validateType(t); err != nil {
		return err
	}
	if err := writeYAML(filepath.Join(r.Path, TypesDir, typeFileName(t.ID)), t); err != nil {
		return err
	}
	return r.Reload(ctx)
}

func (r *Repository) writable() error {
	if r.config.ReadOnly {
		return fmt.Errorf("%w: %s", core.ErrReadOnly, r.Path)
	}
	return nil
}

// Watch reloads the catalog whenever a file under types/ changes and emits
// one event per changed file. The channel closes when ctx is done.
func (r *Repository) Watch(ctx context.Context) (<-chan core.Event, error) {
	if _, err := r.ready(); err != nil {
		return nil, err
	}
	events := make(chan core.Event)
	w := newWatchWorker(r, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

var (
	_ core.Repository    = (*Repository)(nil)
	_ core.TypeHierarchy = (*Repository)(nil)
	_ core.Creator       = (*Repository)(nil)
	_ core.ObjectLister  = (*Repository)(nil)
)
