package core

import (
	"context"

	"github.com/aretw0/facet/pkg/extension"
)

// TypeLookup resolves type definitions by id.
// Implementations must return an error wrapping ErrUnknownType when the id
// cannot be resolved.
type TypeLookup interface {
	GetTypeDefinition(ctx context.Context, id string) (*TypeDefinition, error)
}

// TypeLookupFunc adapts a function to TypeLookup.
type TypeLookupFunc func(ctx context.Context, id string) (*TypeDefinition, error)

// GetTypeDefinition calls f.
func (f TypeLookupFunc) GetTypeDefinition(ctx context.Context, id string) (*TypeDefinition, error) {
	return f(ctx, id)
}

// TypeHierarchy is implemented by lookups that can navigate the type tree.
type TypeHierarchy interface {
	// GetTypeChildren returns the direct subtypes of id.
	GetTypeChildren(ctx context.Context, id string) ([]*TypeDefinition, error)

	// GetTypeDescendants returns subtypes of id down to depth levels.
	// A depth of -1 means unlimited.
	GetTypeDescendants(ctx context.Context, id string, depth int) ([]*TypeDefinition, error)
}

// Transport is the binding that talks to the remote repository.
// Every call is a single blocking operation; failures are returned as-is.
type Transport interface {
	// RepositoryInfo describes the repository, including the protocol
	// version that decides how aspects travel.
	RepositoryInfo(ctx context.Context) (RepositoryInfo, error)

	// GetObject reads a fresh snapshot.
	GetObject(ctx context.Context, repositoryID, objectID string) (Object, error)

	// UpdateProperties submits regular properties and extension elements for
	// an object and returns the id of the updated object, which may differ
	// from objectID when the repository creates a new version.
	UpdateProperties(ctx context.Context, repositoryID, objectID string, properties Properties, extensions []*extension.Element) (string, error)
}

// Creator is implemented by transports that can create objects.
type Creator interface {
	// CreateObject stores a new object and returns its id. properties carry
	// a plain cmis:objectTypeId; aspects travel in the protocol's form.
	CreateObject(ctx context.Context, repositoryID string, properties Properties, extensions []*extension.Element) (string, error)
}

// ObjectLister is implemented by transports that can enumerate objects.
type ObjectLister interface {
	ListObjects(ctx context.Context, repositoryID string) ([]Object, error)
}

// Repository bundles the collaborators a repository adapter provides.
type Repository interface {
	TypeLookup
	Transport

	// Initialize ensures the underlying storage is ready.
	Initialize(ctx context.Context) error
}
