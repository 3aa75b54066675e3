// Package store emulates the repository side of both aspect protocols on
// top of a pluggable record backend. The memory and fs adapters share it.
package store

import (
	"context"
	"slices"

	"github.com/aretw0/facet/pkg/core"
)

// Record is the stored form of an object. Property values are kept as
// wire text, one entry per value, so any backend can persist them.
type Record struct {
	ID      string              `yaml:"id" json:"id"`
	TypeID  string              `yaml:"typeId" json:"typeId"`
	Aspects []string            `yaml:"aspects,omitempty" json:"aspects,omitempty"`
	Values  map[string][]string `yaml:"values,omitempty" json:"values,omitempty"`

	Document     *core.DocumentFields     `yaml:"document,omitempty" json:"document,omitempty"`
	Folder       *core.FolderFields       `yaml:"folder,omitempty" json:"folder,omitempty"`
	Relationship *core.RelationshipFields `yaml:"relationship,omitempty" json:"relationship,omitempty"`
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := r
	out.Aspects = slices.Clone(r.Aspects)
	if r.Values != nil {
		out.Values = make(map[string][]string, len(r.Values))
		for k, v := range r.Values {
			out.Values[k] = slices.Clone(v)
		}
	}
	if r.Document != nil {
		d := *r.Document
		out.Document = &d
	}
	if r.Folder != nil {
		f := *r.Folder
		out.Folder = &f
	}
	if r.Relationship != nil {
		rel := *r.Relationship
		out.Relationship = &rel
	}
	return out
}

// Backend persists records.
type Backend interface {
	// Load returns the record or an error wrapping core.ErrNotFound.
	Load(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
}
