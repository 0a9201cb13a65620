// Package sqlite implements the catalogue store on an embedded SQLite
// database with an FTS5 search projection kept in sync by triggers.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/cybercache/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/cybercache/internal/core/domain"
	"github.com/custodia-labs/cybercache/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ResourceStore = (*Store)(nil)

// metaColumns are the resource columns returned by metadata queries.
// file_data is deliberately excluded; the payload is fetched only through
// Get(id, includeData=true) or GetFileData.
const metaColumns = `id, title, description, file_path, file_type, file_size,
	file_hash, category, tags, url, resource_type, thumbnail_path,
	classifier_used, classification_confidence, created_at, updated_at`

// Store is the SQLite-backed resource catalogue.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.cybercache/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".cybercache", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "cybercache.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Create persists a resource and returns its assigned ID. The FTS projection
// is inserted by trigger within the same statement, so the row and its index
// entry commit together. A colliding file hash fails with ErrAlreadyExists;
// the UNIQUE constraint enforces this atomically, no pre-check involved.
func (s *Store) Create(ctx context.Context, res *domain.Resource) (int64, error) {
	now := time.Now().UTC()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	res.UpdatedAt = res.CreatedAt

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO resources
			(title, description, file_path, file_data, file_type, file_size,
			 file_hash, category, tags, url, resource_type, thumbnail_path,
			 classifier_used, classification_confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, res.Title, res.Description, res.FilePath, res.FileData, res.FileType,
		res.FileSize, nullString(res.FileHash), res.Category, res.Tags, res.URL,
		string(res.Type), res.ThumbnailPath, nullString(res.ClassifierUsed),
		nullString(res.ClassificationConfidence), res.CreatedAt, res.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrAlreadyExists
		}
		return 0, fmt.Errorf("inserting resource: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}
	res.ID = id

	return id, nil
}

// Get retrieves a resource by ID, with payload bytes only when includeData.
func (s *Store) Get(ctx context.Context, id int64, includeData bool) (*domain.Resource, error) {
	if includeData {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+metaColumns+`, file_data FROM resources WHERE id = ?
		`, id)
		return scanResource(row, true)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+metaColumns+` FROM resources WHERE id = ?
	`, id)
	return scanResource(row, false)
}

// GetFileData returns only the payload, MIME type and title of a resource.
func (s *Store) GetFileData(ctx context.Context, id int64) (*domain.FilePayload, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_data, file_type, title FROM resources WHERE id = ?
	`, id)

	var payload domain.FilePayload
	var fileType sql.NullString
	if err := row.Scan(&payload.Data, &fileType, &payload.Title); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file payload: %w", err)
	}
	payload.FileType = fileType.String

	return &payload, nil
}

// GetFileDataByPath returns the payload of the resource whose file path
// matches exactly, or whose path ends in the given filename. Watched-tree
// imports store absolute paths, so a bare filename must still resolve.
func (s *Store) GetFileDataByPath(ctx context.Context, path string) (*domain.FilePayload, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_data, file_type, title FROM resources
		WHERE file_path = ? OR file_path LIKE '%/' || ?
		ORDER BY id LIMIT 1
	`, path, filepath.Base(path))

	var payload domain.FilePayload
	var fileType sql.NullString
	if err := row.Scan(&payload.Data, &fileType, &payload.Title); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning file payload: %w", err)
	}
	payload.FileType = fileType.String

	return &payload, nil
}

// List returns resource metadata newest-first, optionally filtered.
func (s *Store) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, error) {
	query := `SELECT ` + metaColumns + ` FROM resources WHERE 1=1`
	var params []any

	if filter.Category != "" {
		query += " AND category = ?"
		params = append(params, filter.Category)
	}
	if filter.Type != "" {
		query += " AND resource_type = ?"
		params = append(params, filter.Type)
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		params = append(params, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying resources: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// Search runs a ranked full-text query over the FTS projection.
func (s *Store) Search(ctx context.Context, query, category string, limit int) ([]domain.Resource, error) {
	sqlQuery := `
		SELECT ` + prefixColumns("r.", metaColumns) + `
		FROM resources r
		JOIN resources_fts ON r.id = resources_fts.rowid
		WHERE resources_fts MATCH ?
	`
	params := []any{query}

	if category != "" {
		sqlQuery += " AND r.category = ?"
		params = append(params, category)
	}

	sqlQuery += " ORDER BY rank LIMIT ?"
	params = append(params, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("searching resources: %w", err)
	}
	defer rows.Close()

	return scanResources(rows)
}

// Update applies the supplied fields and refreshes updated_at. The FTS
// projection follows via the update trigger.
func (s *Store) Update(ctx context.Context, id int64, update domain.ResourceUpdate) error {
	if update.Empty() {
		return domain.ErrInvalidInput
	}

	var fields []string
	var params []any

	set := func(column string, value *string) {
		if value != nil {
			fields = append(fields, column+" = ?")
			params = append(params, *value)
		}
	}
	set("title", update.Title)
	set("description", update.Description)
	set("category", update.Category)
	set("tags", update.Tags)
	set("url", update.URL)

	fields = append(fields, "updated_at = ?")
	params = append(params, time.Now().UTC(), id)

	query := "UPDATE resources SET " + strings.Join(fields, ", ") + " WHERE id = ?"
	result, err := s.db.ExecContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("updating resource: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes a resource; its FTS entry goes with it via trigger.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Stats returns catalogue totals grouped by category and type.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := domain.Stats{
		ByCategory: make(map[string]int),
		ByType:     make(map[string]int),
	}

	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resources")
	if err := row.Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("counting resources: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM resources GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("counting by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category sql.NullString
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		stats.ByCategory[category.String] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category counts: %w", err)
	}

	typeRows, err := s.db.QueryContext(ctx, `
		SELECT resource_type, COUNT(*) FROM resources GROUP BY resource_type
	`)
	if err != nil {
		return nil, fmt.Errorf("counting by type: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var resourceType string
		var count int
		if err := typeRows.Scan(&resourceType, &count); err != nil {
			return nil, fmt.Errorf("scanning type count: %w", err)
		}
		stats.ByType[resourceType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating type counts: %w", err)
	}

	return &stats, nil
}

// ListCategories returns the curated category list ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, description, icon, created_at
		FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Category
		var description, icon sql.NullString
		var createdAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &description, &icon, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		c.Description = description.String
		c.Icon = icon.String
		if createdAt.Valid {
			c.CreatedAt = createdAt.Time
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}

	return categories, nil
}

// ==================== Helper Functions ====================

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullString maps "" to NULL so UNIQUE columns tolerate absent values.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// prefixColumns prefixes each column in a comma-separated list.
func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// scanResource scans a single resource row.
func scanResource(row rowScanner, includeData bool) (*domain.Resource, error) {
	var res domain.Resource
	var resourceType string
	var description, filePath, fileType, fileHash sql.NullString
	var category, tags, url, thumbnailPath sql.NullString
	var classifierUsed, confidence sql.NullString
	var fileSize sql.NullInt64
	var createdAt, updatedAt sql.NullTime

	dest := []any{
		&res.ID, &res.Title, &description, &filePath, &fileType, &fileSize,
		&fileHash, &category, &tags, &url, &resourceType, &thumbnailPath,
		&classifierUsed, &confidence, &createdAt, &updatedAt,
	}
	if includeData {
		dest = append(dest, &res.FileData)
	}

	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning resource: %w", err)
	}

	res.Description = description.String
	res.FilePath = filePath.String
	res.FileType = fileType.String
	res.FileSize = fileSize.Int64
	res.FileHash = fileHash.String
	res.Category = category.String
	res.Tags = tags.String
	res.URL = url.String
	res.Type = domain.ResourceType(resourceType)
	res.ThumbnailPath = thumbnailPath.String
	res.ClassifierUsed = classifierUsed.String
	res.ClassificationConfidence = confidence.String
	if createdAt.Valid {
		res.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		res.UpdatedAt = updatedAt.Time
	}

	return &res, nil
}

// scanResources scans metadata rows.
func scanResources(rows *sql.Rows) ([]domain.Resource, error) {
	var resources []domain.Resource //nolint:prealloc // size unknown from query
	for rows.Next() {
		res, err := scanResource(rows, false)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}

	return resources, nil
}
