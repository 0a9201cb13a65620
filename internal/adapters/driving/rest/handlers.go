package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/cybercache/internal/core/domain"
	"github.com/custodia-labs/cybercache/internal/core/services"
	"github.com/custodia-labs/cybercache/internal/logger"
)

// resourceResponse is the JSON shape of a resource. Payload bytes never
// travel on metadata routes.
type resourceResponse struct {
	ID                       int64     `json:"id"`
	Title                    string    `json:"title"`
	Description              string    `json:"description,omitempty"`
	Category                 string    `json:"category,omitempty"`
	Tags                     string    `json:"tags,omitempty"`
	URL                      string    `json:"url,omitempty"`
	ResourceType             string    `json:"resource_type"`
	FilePath                 string    `json:"file_path,omitempty"`
	FileType                 string    `json:"file_type,omitempty"`
	FileSize                 int64     `json:"file_size,omitempty"`
	ThumbnailPath            string    `json:"thumbnail_path,omitempty"`
	ClassifierUsed           string    `json:"classifier_used,omitempty"`
	ClassificationConfidence string    `json:"classification_confidence,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func toResponse(res *domain.Resource) resourceResponse {
	return resourceResponse{
		ID:                       res.ID,
		Title:                    res.Title,
		Description:              res.Description,
		Category:                 res.Category,
		Tags:                     res.Tags,
		URL:                      res.URL,
		ResourceType:             string(res.Type),
		FilePath:                 res.FilePath,
		FileType:                 res.FileType,
		FileSize:                 res.FileSize,
		ThumbnailPath:            res.ThumbnailPath,
		ClassifierUsed:           res.ClassifierUsed,
		ClassificationConfidence: res.ClassificationConfidence,
		CreatedAt:                res.CreatedAt,
		UpdatedAt:                res.UpdatedAt,
	}
}

func toResponseList(resources []domain.Resource) []resourceResponse {
	out := make([]resourceResponse, 0, len(resources))
	for i := range resources {
		out = append(out, toResponse(&resources[i]))
	}
	return out
}

// writeError maps domain errors onto the HTTP taxonomy: invalid input and
// duplicates are the caller's problem, not-found is distinct, and anything
// else is logged in full but surfaced generically.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource already exists"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	default:
		logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid resource id", domain.ErrInvalidInput)
	}
	return id, nil
}

func (s *Server) listResources(c echo.Context) error {
	filter := domain.ResourceFilter{
		Category: c.QueryParam("category"),
		Type:     c.QueryParam("type"),
	}

	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return writeError(c, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidInput))
		}
		filter.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return writeError(c, fmt.Errorf("%w: offset must be a non-negative integer", domain.ErrInvalidInput))
		}
		filter.Offset = offset
	}

	resources, err := s.catalogue.List(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponseList(resources))
}

func (s *Server) getResource(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	res, err := s.catalogue.Get(c.Request().Context(), id, false)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(res))
}

type createResourceRequest struct {
	Title        string `json:"title"`
	ResourceType string `json:"resource_type"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Tags         string `json:"tags"`
	URL          string `json:"url"`
	FilePath     string `json:"file_path"`
}

func (s *Server) createResource(c echo.Context) error {
	var req createResourceRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput))
	}

	res, err := s.catalogue.CreateResource(c.Request().Context(), services.CreateResourceParams{
		Title:        req.Title,
		Type:         req.ResourceType,
		URL:          req.URL,
		Description:  req.Description,
		Category:     req.Category,
		Tags:         req.Tags,
		FilePath:     req.FilePath,
		AutoClassify: true,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toResponse(res))
}

type updateResourceRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Tags        *string `json:"tags"`
	URL         *string `json:"url"`
}

func (s *Server) updateResource(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req updateResourceRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput))
	}

	res, err := s.catalogue.Update(c.Request().Context(), id, domain.ResourceUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		URL:         req.URL,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponse(res))
}

func (s *Server) deleteResource(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := s.catalogue.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "resource deleted"})
}

func (s *Server) uploadFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fmt.Errorf("%w: file is required", domain.ErrInvalidInput))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return writeError(c, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, err)
	}

	// auto_classify defaults to on; only an explicit false disables it.
	autoClassify := true
	if v := c.FormValue("auto_classify"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			autoClassify = parsed
		}
	}

	res, err := s.catalogue.UploadFile(c.Request().Context(), services.UploadFileParams{
		Filename:     fileHeader.Filename,
		Data:         data,
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		Category:     c.FormValue("category"),
		Tags:         c.FormValue("tags"),
		AutoClassify: autoClassify,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toResponse(res))
}

func (s *Server) search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return writeError(c, fmt.Errorf("%w: query parameter q is required", domain.ErrInvalidInput))
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return writeError(c, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidInput))
		}
		limit = parsed
	}

	resources, err := s.catalogue.Search(c.Request().Context(), query, c.QueryParam("category"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toResponseList(resources))
}

func (s *Server) listCategories(c echo.Context) error {
	categories, err := s.catalogue.Categories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

// exportBrowsers are the accepted bookmark export targets.
var exportBrowsers = map[string]bool{
	"chrome": true, "firefox": true, "safari": true, "edge": true,
}

func (s *Server) exportBookmarks(c echo.Context) error {
	browser := strings.ToLower(c.Param("browser"))
	if !exportBrowsers[browser] {
		return writeError(c, fmt.Errorf("%w: unsupported browser %q", domain.ErrInvalidInput, browser))
	}

	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = "html"
	}

	resources, err := s.catalogue.List(c.Request().Context(), domain.ResourceFilter{})
	if err != nil {
		return writeError(c, err)
	}

	out, err := s.exporter.Export(resources, format, browser)
	if err != nil {
		return writeError(c, err)
	}

	contentType := "text/html"
	filename := "cybercache_bookmarks.html"
	if format == "json" {
		contentType = "application/json"
		filename = "cybercache_bookmarks.json"
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, []byte(out))
}

func (s *Server) serveFileByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}

	payload, err := s.catalogue.GetFileData(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if len(payload.Data) == 0 {
		return writeError(c, domain.ErrNotFound)
	}

	contentType := payload.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, contentType, payload.Data)
}

// serveFileByPath resolves a filename against the stored resource paths, so
// both uploads and watcher imports are reachable by name. Files on disk in
// the uploads directory that never landed in the database still serve as a
// fallback. The path parameter is reduced to its base name; traversal
// components never reach the filesystem.
func (s *Server) serveFileByPath(c echo.Context) error {
	name := filepath.Base(filepath.Clean(c.Param("path")))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return writeError(c, domain.ErrNotFound)
	}

	payload, err := s.catalogue.GetFileDataByPath(c.Request().Context(), name)
	switch {
	case err == nil && len(payload.Data) > 0:
		contentType := payload.FileType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return c.Blob(http.StatusOK, contentType, payload.Data)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return writeError(c, err)
	}

	if s.uploadsDir != "" {
		diskPath := filepath.Join(s.uploadsDir, name)
		if _, statErr := os.Stat(diskPath); statErr == nil {
			return c.File(diskPath)
		}
	}
	return writeError(c, domain.ErrNotFound)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"version": s.version,
	})
}

func (s *Server) stats(c echo.Context) error {
	stats, err := s.catalogue.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
