package domain

import (
	"strings"
	"time"
)

// ResourceType distinguishes file-backed resources from external links.
type ResourceType string

const (
	// ResourceTypeFile is a resource whose payload is stored as raw bytes.
	ResourceTypeFile ResourceType = "file"

	// ResourceTypeLink is a resource that points at an external URL.
	ResourceTypeLink ResourceType = "link"
)

// Valid returns true for the known resource types.
func (t ResourceType) Valid() bool {
	return t == ResourceTypeFile || t == ResourceTypeLink
}

// Resource is the central catalogued entity: a file or a link with metadata.
type Resource struct {
	// ID is assigned by the store on creation and is immutable.
	ID int64

	// Title is the display name. Non-empty, sanitised, max 500 chars.
	Title string

	// Description is optional free text, max 5000 chars.
	Description string

	// FilePath is the original (sanitised) filename or on-disk path for
	// file-backed resources. Informational only; payload lives in FileData.
	FilePath string

	// FileData holds the raw payload bytes for file-backed resources.
	// Excluded from list and metadata queries.
	FileData []byte

	// FileType is the declared MIME type of the payload.
	FileType string

	// FileSize is the payload size in bytes.
	FileSize int64

	// FileHash is the MD5 hex digest of the payload bytes. Unique across
	// the catalogue; file resources are deduplicated by this hash.
	// Empty for link resources.
	FileHash string

	// Category is a free-text label, optionally matching a curated Category.
	Category string

	// Tags is a comma-joined list of short labels, insertion order preserved.
	Tags string

	// URL is the external location for link resources.
	URL string

	// Type tags the resource as file- or link-backed.
	Type ResourceType

	// ThumbnailPath is an optional preview image reference.
	ThumbnailPath string

	// ClassifierUsed records which strategy assigned category/tags
	// ("openai", "anthropic" or "keywords"). Set once at creation.
	ClassifierUsed string

	// ClassificationConfidence is "high", "medium" or "low".
	ClassificationConfidence string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TagList splits the stored comma-joined tags, preserving order.
func (r *Resource) TagList() []string {
	if r.Tags == "" {
		return nil
	}
	parts := strings.Split(r.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ResourceUpdate is a typed partial update. Nil fields are left unchanged.
// Enumerating the updatable fields explicitly keeps unknown or internal
// columns (id, hash, payload, timestamps) out of reach of callers.
type ResourceUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Tags        *string
	URL         *string
}

// Empty returns true if no field is set.
func (u ResourceUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil &&
		u.Tags == nil && u.URL == nil
}

// ResourceFilter narrows List queries.
type ResourceFilter struct {
	// Category filters on the exact category label when non-empty.
	Category string

	// Type filters on resource type when non-empty.
	Type string

	// Limit bounds the result set when > 0; Offset applies only with Limit.
	Limit  int
	Offset int
}

// FilePayload is the narrow projection used by the file-serving path:
// payload bytes, declared MIME type and the title for a download filename.
type FilePayload struct {
	Data     []byte
	FileType string
	Title    string
}

// Stats summarises the catalogue contents.
type Stats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	ByType     map[string]int `json:"by_type"`
}
