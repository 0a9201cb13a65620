package services

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint for dedup, not security
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/cybercache/internal/core/domain"
	"github.com/custodia-labs/cybercache/internal/core/ports/driven"
	"github.com/custodia-labs/cybercache/internal/logger"
	"github.com/custodia-labs/cybercache/internal/validate"
)

// DefaultMaxUploadBytes caps upload payloads at 100 MB.
const DefaultMaxUploadBytes = 100 << 20

// extractMaxChars bounds the text handed to classifiers.
const extractMaxChars = 2000

// CatalogueService orchestrates validation, classification and storage for
// the resource catalogue. It is the only writer of resources; driving
// adapters (REST, watcher, CLI) all go through it.
type CatalogueService struct {
	store          driven.ResourceStore
	chain          *ClassifierChain
	extractor      driven.ContentExtractor
	uploadsDir     string
	maxUploadBytes int64
}

// NewCatalogueService creates a catalogue service. uploadsDir is where
// uploaded payloads get a disk copy; maxUploadBytes <= 0 selects the default.
func NewCatalogueService(
	store driven.ResourceStore,
	chain *ClassifierChain,
	extractor driven.ContentExtractor,
	uploadsDir string,
	maxUploadBytes int64,
) *CatalogueService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &CatalogueService{
		store:          store,
		chain:          chain,
		extractor:      extractor,
		uploadsDir:     uploadsDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreateResourceParams are the inputs for the JSON create path: links with
// a URL, or file-metadata rows pointing at an existing path.
type CreateResourceParams struct {
	Title        string
	Type         string
	URL          string
	Description  string
	Category     string
	Tags         string
	FilePath     string
	AutoClassify bool
}

// CreateResource validates and persists a resource, auto-classifying when
// category or tags are missing and AutoClassify is set. Link resources
// require a URL; file resources on this path carry no payload, only an
// informational file path.
func (s *CatalogueService) CreateResource(ctx context.Context, params CreateResourceParams) (*domain.Resource, error) {
	title, err := validate.Title(params.Title)
	if err != nil {
		return nil, err
	}

	resourceType, err := validate.ResourceType(params.Type)
	if err != nil {
		return nil, err
	}

	rawURL, err := validate.URL(params.URL)
	if err != nil {
		return nil, err
	}
	if resourceType == domain.ResourceTypeLink && rawURL == "" {
		return nil, fmt.Errorf("%w: url is required for link resources", domain.ErrInvalidInput)
	}

	category, err := validate.Category(params.Category)
	if err != nil {
		return nil, err
	}

	res := &domain.Resource{
		Title:       title,
		Description: validate.Description(params.Description),
		URL:         rawURL,
		Category:    category,
		Tags:        validate.Tags(params.Tags),
		FilePath:    params.FilePath,
		Type:        resourceType,
	}

	if params.AutoClassify && (res.Category == "" || res.Tags == "") {
		s.classify(ctx, res, domain.ClassifyInput{
			Title:       res.Title,
			Description: res.Description,
			Filename:    res.FilePath,
			URL:         res.URL,
		})
	}

	if _, err := s.store.Create(ctx, res); err != nil {
		return nil, err
	}

	logger.Info().
		Int64("id", res.ID).
		Str("title", res.Title).
		Str("category", res.Category).
		Str("type", string(res.Type)).
		Msg("Resource created")
	return res, nil
}

// UploadFileParams are the inputs for a file upload.
type UploadFileParams struct {
	Filename     string
	Data         []byte
	Title        string
	Description  string
	Category     string
	Tags         string
	AutoClassify bool
}

// UploadFile validates, classifies and persists an uploaded file. The
// payload is stored as a blob; a disk copy lands in the uploads directory.
// A payload whose hash matches an existing resource fails with
// domain.ErrAlreadyExists.
func (s *CatalogueService) UploadFile(ctx context.Context, params UploadFileParams) (*domain.Resource, error) {
	if len(params.Data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", domain.ErrInvalidInput)
	}
	if int64(len(params.Data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds maximum size of %d bytes",
			domain.ErrInvalidInput, s.maxUploadBytes)
	}

	filename, err := validate.Filename(params.Filename)
	if err != nil {
		return nil, err
	}
	if err := validate.FileExtension(filename); err != nil {
		return nil, err
	}

	title := params.Title
	if strings.TrimSpace(title) == "" {
		title = TitleFromFilename(filename)
	}
	title, err = validate.Title(title)
	if err != nil {
		return nil, err
	}

	category, err := validate.Category(params.Category)
	if err != nil {
		return nil, err
	}

	hash := md5.Sum(params.Data) //nolint:gosec // dedup fingerprint

	res := &domain.Resource{
		Title:       title,
		Description: validate.Description(params.Description),
		FileData:    params.Data,
		FileType:    sniffMIME(filename, params.Data),
		FileSize:    int64(len(params.Data)),
		FileHash:    hex.EncodeToString(hash[:]),
		Category:    category,
		Tags:        validate.Tags(params.Tags),
		Type:        domain.ResourceTypeFile,
	}

	if params.AutoClassify && (res.Category == "" || res.Tags == "") {
		content := ""
		if s.extractor != nil {
			content = s.extractor.ExtractText(filename, params.Data, extractMaxChars)
		}
		s.classify(ctx, res, domain.ClassifyInput{
			Title:       res.Title,
			Description: res.Description,
			Content:     content,
			Filename:    filename,
		})
	}

	if s.uploadsDir != "" {
		path, err := s.writeDiskCopy(filename, res.FileHash, params.Data)
		if err != nil {
			return nil, err
		}
		res.FilePath = path
	}

	if _, err := s.store.Create(ctx, res); err != nil {
		if res.FilePath != "" {
			os.Remove(res.FilePath)
		}
		return nil, err
	}

	logger.Info().
		Int64("id", res.ID).
		Str("title", res.Title).
		Str("category", res.Category).
		Int64("size", res.FileSize).
		Msg("File resource created")
	return res, nil
}

// ImportFileParams are the inputs for a watcher import. No classification
// runs on this path; the category comes from the directory layout.
type ImportFileParams struct {
	Path     string
	Data     []byte
	Title    string
	Category string
}

// ImportFile persists a file discovered by the directory watcher. The
// on-disk path is recorded as-is; duplicates surface as ErrAlreadyExists
// for the caller to log and skip.
func (s *CatalogueService) ImportFile(ctx context.Context, params ImportFileParams) (*domain.Resource, error) {
	if len(params.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", domain.ErrInvalidInput)
	}

	title, err := validate.Title(params.Title)
	if err != nil {
		return nil, err
	}

	category, err := validate.Category(params.Category)
	if err != nil {
		return nil, err
	}

	hash := md5.Sum(params.Data) //nolint:gosec // dedup fingerprint
	base := filepath.Base(params.Path)

	res := &domain.Resource{
		Title:       title,
		Description: "Auto-imported from " + base,
		FilePath:    params.Path,
		FileData:    params.Data,
		FileType:    sniffMIME(base, params.Data),
		FileSize:    int64(len(params.Data)),
		FileHash:    hex.EncodeToString(hash[:]),
		Category:    category,
		Type:        domain.ResourceTypeFile,
	}

	if _, err := s.store.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Get retrieves a resource by ID.
func (s *CatalogueService) Get(ctx context.Context, id int64, includeData bool) (*domain.Resource, error) {
	return s.store.Get(ctx, id, includeData)
}

// GetFileData returns the payload of a file resource for streaming.
func (s *CatalogueService) GetFileData(ctx context.Context, id int64) (*domain.FilePayload, error) {
	return s.store.GetFileData(ctx, id)
}

// GetFileDataByPath returns the payload of the file resource whose stored
// path matches, covering uploads and watcher imports alike.
func (s *CatalogueService) GetFileDataByPath(ctx context.Context, path string) (*domain.FilePayload, error) {
	return s.store.GetFileDataByPath(ctx, path)
}

// List returns resource metadata, newest first.
func (s *CatalogueService) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, error) {
	category, err := validate.Category(filter.Category)
	if err != nil {
		return nil, err
	}
	filter.Category = category

	if filter.Type != "" {
		if _, err := validate.ResourceType(filter.Type); err != nil {
			return nil, err
		}
	}

	return s.store.List(ctx, filter)
}

// Search runs a full-text query. limit <= 0 selects the default of 50;
// values above 1000 are rejected.
func (s *CatalogueService) Search(ctx context.Context, query, category string, limit int) ([]domain.Resource, error) {
	query = validate.SanitizeString(query, validate.MaxTitleLength, false)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidInput)
	}

	category, err := validate.Category(category)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		return nil, fmt.Errorf("%w: limit must be at most 1000", domain.ErrInvalidInput)
	}

	return s.store.Search(ctx, query, category, limit)
}

// Update applies a partial update after validating each supplied field.
func (s *CatalogueService) Update(ctx context.Context, id int64, update domain.ResourceUpdate) (*domain.Resource, error) {
	if update.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrInvalidInput)
	}

	if update.Title != nil {
		title, err := validate.Title(*update.Title)
		if err != nil {
			return nil, err
		}
		update.Title = &title
	}
	if update.Description != nil {
		description := validate.Description(*update.Description)
		update.Description = &description
	}
	if update.Category != nil {
		category, err := validate.Category(*update.Category)
		if err != nil {
			return nil, err
		}
		update.Category = &category
	}
	if update.Tags != nil {
		tags := validate.Tags(*update.Tags)
		update.Tags = &tags
	}
	if update.URL != nil {
		rawURL, err := validate.URL(*update.URL)
		if err != nil {
			return nil, err
		}
		update.URL = &rawURL
	}

	if err := s.store.Update(ctx, id, update); err != nil {
		return nil, err
	}

	return s.store.Get(ctx, id, false)
}

// Delete removes a resource. An uploaded file's disk copy is unlinked too;
// watched files stay where they are.
func (s *CatalogueService) Delete(ctx context.Context, id int64) error {
	res, err := s.store.Get(ctx, id, false)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if res.FilePath != "" && s.underUploadsDir(res.FilePath) {
		if err := os.Remove(res.FilePath); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", res.FilePath).Msg("Failed to remove uploaded file")
		}
	}

	logger.Info().Int64("id", id).Str("title", res.Title).Msg("Resource deleted")
	return nil
}

// Stats returns catalogue totals.
func (s *CatalogueService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.store.Stats(ctx)
}

// Categories returns the curated category list.
func (s *CatalogueService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

// classify fills missing category and tags from the fallback chain. The
// resource keeps any values the caller already supplied.
func (s *CatalogueService) classify(ctx context.Context, res *domain.Resource, in domain.ClassifyInput) {
	if s.chain == nil {
		return
	}

	result, err := s.chain.Classify(ctx, in)
	if err != nil {
		logger.Warn().Err(err).Msg("Classification unavailable, storing unclassified")
		return
	}

	if res.Category == "" {
		res.Category = result.Category
	}
	if res.Tags == "" {
		res.Tags = validate.JoinTags(result.Tags)
	}
	res.ClassifierUsed = result.Source
	res.ClassificationConfidence = result.Confidence
}

// writeDiskCopy stores the payload under the uploads directory, prefixing
// the name with the hash when the name is already taken.
func (s *CatalogueService) writeDiskCopy(filename, hash string, data []byte) (string, error) {
	if err := os.MkdirAll(s.uploadsDir, 0700); err != nil {
		return "", fmt.Errorf("creating uploads directory: %w", err)
	}

	path := filepath.Join(s.uploadsDir, filename)
	if _, err := os.Stat(path); err == nil {
		path = filepath.Join(s.uploadsDir, hash[:8]+"_"+filename)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing upload to disk: %w", err)
	}
	return path, nil
}

// underUploadsDir reports whether path sits inside the uploads directory.
func (s *CatalogueService) underUploadsDir(path string) bool {
	if s.uploadsDir == "" {
		return false
	}
	rel, err := filepath.Rel(s.uploadsDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// sniffMIME detects the payload MIME type from content, falling back to the
// extension when detection yields the generic octet-stream type.
func sniffMIME(filename string, data []byte) string {
	detected := mimetype.Detect(data)
	if detected.String() != "application/octet-stream" {
		return detected.String()
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	default:
		return detected.String()
	}
}

// TitleFromFilename derives a display title from a filename: the extension
// goes, underscores and hyphens become spaces, words get capitalised.
func TitleFromFilename(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)

	words := strings.Fields(name)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
