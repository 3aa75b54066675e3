package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/facet"
	"github.com/aretw0/facet/pkg/aspect"
	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
	"github.com/aretw0/facet/pkg/property"
)

// repoPath returns --repo, or the nearest repository root above the
// working directory, or the working directory itself.
func repoPath() (string, error) {
	if repoFlag != "" {
		return repoFlag, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if root, err := facet.FindRoot(wd); err == nil {
		return root, nil
	}
	return wd, nil
}

// openRepo opens an existing repository.
func openRepo(cmd *cobra.Command, opts ...facet.Option) (*facet.Handle, error) {
	path, err := repoPath()
	if err != nil {
		return nil, err
	}
	base := []facet.Option{
		facet.WithMustExist(true),
		facet.WithLogger(slog.Default()),
	}
	return facet.Open(cmd.Context(), path, append(base, opts...)...)
}

// assignments keeps k=v arguments in command line order. A key given more
// than once collects every value, which is how multi-valued properties are
// set.
type assignments struct {
	keys   []string
	values map[string][]string
}

func parseAssignments(args []string) (assignments, error) {
	a := assignments{values: make(map[string][]string)}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return a, fmt.Errorf("invalid assignment %q (want key=value)", arg)
		}
		if _, seen := a.values[key]; !seen {
			a.keys = append(a.keys, key)
		}
		if value == "" {
			// key= clears the property.
			a.values[key] = nil
			continue
		}
		a.values[key] = append(a.values[key], value)
	}
	return a, nil
}

func (a assignments) empty() bool { return len(a.keys) == 0 }

// definitions loads the type definitions for ids, in order.
func definitions(ctx context.Context, lookup core.TypeLookup, ids []string) ([]*core.TypeDefinition, error) {
	out := make([]*core.TypeDefinition, 0, len(ids))
	for _, id := range ids {
		def, err := lookup.GetTypeDefinition(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

// typed parses the assignment texts with the kind of the first definition
// in types that declares each property.
func (a assignments) typed(types []*core.TypeDefinition) (core.Properties, error) {
	props := make(core.Properties, len(a.keys))
	for _, key := range a.keys {
		var def *core.PropertyDefinition
		for _, t := range types {
			if def = t.PropertyDefinition(key); def != nil {
				break
			}
		}
		if def == nil {
			return nil, core.InvalidProperty(key, "not defined by the object type or its aspects")
		}
		texts := a.values[key]
		if texts == nil {
			props[key] = nil
			continue
		}
		if !def.IsMulti() && len(texts) > 1 {
			return nil, core.InvalidProperty(key, "single-valued property given %d values", len(texts))
		}
		items, err := property.Decode(def, texts)
		if err != nil {
			return nil, err
		}
		props[key] = property.Value(def, items)
	}
	return props, nil
}

// objectTypes returns the primary type of obj, its current aspects and the
// extra aspects, in lookup order.
func objectTypes(ctx context.Context, h *facet.Handle, obj core.Object, extra []string) ([]*core.TypeDefinition, error) {
	primary, err := h.Types.GetTypeDefinition(ctx, obj.TypeID)
	if err != nil {
		return nil, err
	}
	current, err := h.Service.Aspects(ctx, obj)
	if err != nil {
		return nil, err
	}
	added, err := definitions(ctx, h.Types, extra)
	if err != nil {
		return nil, err
	}
	return slices.Concat([]*core.TypeDefinition{primary}, current.Types(), added), nil
}

// objectView is the printable form of a materialized object.
type objectView struct {
	ID         string               `json:"id" yaml:"id"`
	Kind       core.ObjectKind      `json:"kind" yaml:"kind"`
	Type       string               `json:"type" yaml:"type"`
	Aspects    []string             `json:"aspects" yaml:"aspects"`
	Properties map[string]any       `json:"properties" yaml:"properties"`
	Extensions []*extension.Element `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

func newObjectView(m *aspect.Materialized, withExtensions bool) objectView {
	v := objectView{
		ID:         m.Object.ID,
		Kind:       m.Object.Kind,
		Type:       m.Object.TypeID,
		Aspects:    m.Aspects.IDs(),
		Properties: make(map[string]any, len(m.Properties)),
	}
	for key, value := range m.Properties {
		v.Properties[key] = displayValue(value)
	}
	if withExtensions {
		v.Extensions = m.Object.Extensions
	}
	return v
}

// displayValue renders runtime values as text so big numbers, decimals and
// datetimes print in wire form.
func displayValue(value any) any {
	switch v := value.(type) {
	case nil, string, bool:
		return v
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, displayValue(item))
		}
		return out
	}
	if text, err := property.Format(value); err == nil {
		return text
	}
	return fmt.Sprint(value)
}

// printValue writes v as YAML, or as indented JSON when asJSON is set.
func printValue(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// printObject materializes obj and prints it. With --verbose the raw
// extension tree follows: inside the JSON object, or as a second YAML
// document.
func printObject(cmd *cobra.Command, h *facet.Handle, obj core.Object, asJSON bool) error {
	m, err := h.Service.Materialize(cmd.Context(), obj)
	if err != nil {
		return err
	}
	if asJSON || !verbose || len(obj.Extensions) == 0 {
		return printValue(cmd.OutOrStdout(), newObjectView(m, verbose && asJSON), asJSON)
	}

	if err := printValue(cmd.OutOrStdout(), newObjectView(m, false), false); err != nil {
		return err
	}
	data, err := extension.MarshalTree(obj.Extensions)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "---")
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// getObject reads an object of the opened repository.
func getObject(ctx context.Context, h *facet.Handle, id string) (core.Object, error) {
	return h.Repository.GetObject(ctx, h.Service.Info().ID, id)
}
