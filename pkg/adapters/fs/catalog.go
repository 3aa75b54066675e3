package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/facet/pkg/core"
)

// Reload rescans the types directory and swaps the catalog. Files whose
// modification time did not change are not parsed again. A broken file
// fails the reload and leaves the previous catalog in place.
func (r *Repository) Reload(ctx context.Context) error {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	root := filepath.Join(r.Path, TypesDir)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		r.catalog.Replace(nil)
		r.cache.Prune(nil)
		r.recordReload()
		return nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), TypePattern, doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}
	slices.Sort(matches)

	var (
		types  []*core.TypeDefinition
		keep   = make(map[string]bool, len(matches))
		owners = make(map[string]string)
		parsed int
	)
	for _, rel := range matches {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if strings.HasPrefix(filepath.Base(rel), TempFilePrefix) {
			continue
		}
		keep[rel] = true

		fullPath := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(fullPath)
		if err != nil {
			// Removed between the scan and now.
			if os.IsNotExist(err) {
				delete(keep, rel)
				continue
			}
			return err
		}

		entry, ok := r.cache.Get(rel, info.ModTime())
		if !ok {
			data, err := os.ReadFile(fullPath)
			if err != nil {
				return err
			}
			defs, err := parseTypes(data)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.ToSlash(filepath.Join(TypesDir, rel)), err)
			}
			entry = &cacheEntry{Types: defs, LastModified: info.ModTime()}
			r.cache.Set(rel, entry)
			parsed++
		}

		for _, t := range entry.Types {
			if first, dup := owners[t.ID]; dup {
				r.logger.Warn("duplicate type definition ignored", "type", t.ID, "file", rel, "first", first)
				continue
			}
			owners[t.ID] = rel
			types = append(types, t)
		}
	}
	r.cache.Prune(keep)
	r.catalog.Replace(types)
	r.recordReload()

	r.logger.Debug("catalog loaded", "files", len(keep), "parsed", parsed, "types", len(types))
	return nil
}

func (r *Repository) recordReload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastReload = &now
}

// parseTypes decodes every YAML document in data as a type definition.
// Empty documents are skipped.
func parseTypes(data []byte) ([]*core.TypeDefinition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []*core.TypeDefinition
	for {
		var def core.TypeDefinition
		err := dec.Decode(&def)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if def.ID == "" && def.BaseTypeID == "" && len(def.PropertyDefinitions) == 0 {
			continue
		}
		if err := validateType(&def); err != nil {
			return nil, err
		}
		out = append(out, &def)
	}
	return out, nil
}

// validateType checks a definition and fills the defaults catalog files may
// leave out: property ids come from their map keys, cardinality defaults to
// single and updatability to readwrite.
func validateType(t *core.TypeDefinition) error {
	if t == nil || t.ID == "" {
		return core.Invalid("type definition without id")
	}
	if t.BaseTypeID == "" {
		return core.Invalid("type %q has no base type", t.ID)
	}
	for key, p := range t.PropertyDefinitions {
		if p == nil {
			return core.Invalid("type %q: property %q has no definition", t.ID, key)
		}
		if p.ID == "" {
			p.ID = key
		}
		if p.ID != key {
			return core.Invalid("type %q: property %q declared under key %q", t.ID, p.ID, key)
		}
		if !p.Kind.Valid() {
			return core.InvalidProperty(p.ID, "unknown kind %q", p.Kind)
		}
		if p.Cardinality == "" {
			p.Cardinality = core.Single
		}
		if p.Updatability == "" {
			p.Updatability = core.ReadWrite
		}
	}
	return nil
}

// decodeYAML decodes a single document, rejecting unknown fields.
func decodeYAML(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
