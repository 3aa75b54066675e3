package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/facet/pkg/adapters/internal/store"
	"github.com/aretw0/facet/pkg/core"
)

// backend stores one YAML record per object under objects/.
type backend Repository

func (b *backend) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: invalid object id %q", core.ErrNotFound, id)
	}
	return filepath.Join(b.Path, ObjectsDir, id+".yaml"), nil
}

func (b *backend) Load(_ context.Context, id string) (store.Record, error) {
	path, err := b.path(id)
	if err != nil {
		return store.Record{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	var rec store.Record
	if err := decodeYAML(data, &rec); err != nil {
		return store.Record{}, fmt.Errorf("%w: object %s: %v", core.ErrTransport, id, err)
	}
	return rec, nil
}

func (b *backend) Save(_ context.Context, rec store.Record) error {
	if b.config.ReadOnly {
		return fmt.Errorf("%w: %s", core.ErrReadOnly, b.Path)
	}
	path, err := b.path(rec.ID)
	if err != nil {
		return err
	}
	if err := writeYAML(path, rec); err != nil {
		return fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	return nil
}

func (b *backend) List(ctx context.Context) ([]store.Record, error) {
	root := filepath.Join(b.Path, ObjectsDir)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(root), "*.yaml", doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	slices.Sort(matches)

	out := make([]store.Record, 0, len(matches))
	for _, name := range matches {
		if strings.HasPrefix(name, TempFilePrefix) {
			continue
		}
		rec, err := b.Load(ctx, strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
