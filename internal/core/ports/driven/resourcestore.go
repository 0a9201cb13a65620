// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/cybercache/internal/core/domain"
)

// ResourceStore is the durable record of resources and categories, plus a
// synchronised full-text search index. The store owns the resource rows and
// their index projections exclusively; callers never touch storage directly.
type ResourceStore interface {
	// Create persists a resource and its search-index projection atomically
	// and returns the assigned ID. A file-backed resource whose hash collides
	// with an existing row fails with domain.ErrAlreadyExists.
	Create(ctx context.Context, res *domain.Resource) (int64, error)

	// Get returns a resource by ID. The payload bytes are included only when
	// includeData is true, to keep metadata queries cheap.
	// Returns domain.ErrNotFound when the ID does not exist.
	Get(ctx context.Context, id int64, includeData bool) (*domain.Resource, error)

	// GetFileData returns only the payload bytes, MIME type and title of a
	// resource, for the file-serving path.
	GetFileData(ctx context.Context, id int64) (*domain.FilePayload, error)

	// GetFileDataByPath returns the payload of the resource whose stored
	// file path matches path exactly or ends with it as a filename. Lets
	// files be fetched by name regardless of where they were ingested from.
	// Returns domain.ErrNotFound when no resource matches.
	GetFileDataByPath(ctx context.Context, path string) (*domain.FilePayload, error)

	// List returns resource metadata newest-first, optionally filtered.
	List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, error)

	// Search runs a full-text query over title, description, tags and
	// category, ranked by relevance, optionally narrowed to one category.
	Search(ctx context.Context, query, category string, limit int) ([]domain.Resource, error)

	// Update applies the supplied fields and refreshes updated_at.
	// Returns domain.ErrNotFound when the ID does not exist.
	Update(ctx context.Context, id int64, update domain.ResourceUpdate) error

	// Delete removes a resource and its index projection together.
	// Returns domain.ErrNotFound when the ID does not exist.
	Delete(ctx context.Context, id int64) error

	// Stats returns catalogue totals grouped by category and type.
	Stats(ctx context.Context) (*domain.Stats, error)

	// ListCategories returns the curated category list ordered by name.
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// Close releases the underlying database handle.
	Close() error
}
