// Package watcher auto-imports files dropped into watched directories.
// It runs a recursive startup scan and then follows filesystem events.
// Imports on this path are never classified; the category comes from the
// directory the file lives in.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/cybercache/internal/core/domain"
	"github.com/custodia-labs/cybercache/internal/core/services"
	"github.com/custodia-labs/cybercache/internal/logger"
)

// defaultSettleDelay gives writers time to finish before the import reads
// the file. Create events fire on open, not on close.
const defaultSettleDelay = 500 * time.Millisecond

// supportedExtensions is the watcher's import allow-list. Wider than the
// upload allow-list on the media side; uploads answer to their own policy.
var supportedExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".svg": true, ".mp4": true, ".webm": true, ".mov": true,
	".avi": true, ".mkv": true, ".doc": true, ".docx": true, ".ppt": true,
	".pptx": true, ".xls": true, ".xlsx": true, ".txt": true, ".md": true,
	".csv": true, ".json": true, ".xml": true, ".zip": true, ".tar": true,
	".gz": true,
}

// directoryCategories maps path segments to catalogue categories. The first
// matching segment, walking from the root towards the file, decides.
var directoryCategories = map[string]string{
	"posters":      "Posters",
	"cheatsheets":  "Cheat Sheets",
	"publications": "Publications",
	"media":        "Media & Socials",
	"training":     "Training",
	"tooling":      "Tooling",
	"projects":     "Projects",
	"vms":          "Virtual Machines",
	"blue":         "Blue Team",
	"red":          "Red Team",
	"int":          "Threat Intelligence",
	"intelligence": "Threat Intelligence",
}

// defaultCategory is used when no directory segment matches.
const defaultCategory = "Uncategorized"

// importer is the slice of the catalogue service the watcher needs.
type importer interface {
	ImportFile(ctx context.Context, params services.ImportFileParams) (*domain.Resource, error)
}

// Watcher imports files from a set of watched directory trees.
type Watcher struct {
	catalogue   importer
	dirs        []string
	settleDelay time.Duration
	fsw         *fsnotify.Watcher
}

// New creates a watcher over the given directories. Missing directories are
// skipped with a warning when watching starts.
func New(catalogue importer, dirs []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		catalogue:   catalogue,
		dirs:        dirs,
		settleDelay: defaultSettleDelay,
		fsw:         fsw,
	}, nil
}

// Scan walks every watched tree once and imports the supported files found.
// Used at startup to pick up files dropped while the service was down.
// Returns the number of newly imported resources.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	imported := 0
	for _, dir := range w.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("Scan cannot access path")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if w.importFile(ctx, path) {
				imported++
			}
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				logger.Warn().Str("dir", dir).Msg("Watched directory does not exist, skipping")
				continue
			}
			return imported, err
		}
	}

	logger.Info().Int("imported", imported).Msg("Startup scan complete")
	return imported, nil
}

// Start watches for filesystem events until ctx is cancelled. New files are
// imported after a settle delay; modified files are only logged. fsnotify
// watches are non-recursive, so new directories join the watch set as they
// appear.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs {
		if err := w.watchTree(dir); err != nil {
			logger.Warn().Err(err).Str("dir", dir).Msg("Cannot watch directory")
		}
	}

	logger.Info().Strs("dirs", w.dirs).Msg("Directory watcher started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			logger.Debug().Err(err).Str("path", event.Name).Msg("Created path vanished")
			return
		}

		if info.IsDir() {
			if err := w.watchTree(event.Name); err != nil {
				logger.Warn().Err(err).Str("dir", event.Name).Msg("Cannot watch new directory")
			}
			return
		}

		if !supportedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
			return
		}

		// Give the writer time to finish before reading.
		select {
		case <-time.After(w.settleDelay):
		case <-ctx.Done():
			return
		}
		w.importFile(ctx, event.Name)

	case event.Has(fsnotify.Write):
		// Modifications are observed but never re-imported.
		logger.Debug().Str("path", event.Name).Msg("Watched file modified")
	}
}

// watchTree adds dir and all its subdirectories to the watch set.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsw.Add(path)
	})
}

// importFile imports a single file, returning true on success. Duplicates
// and per-file failures are logged and skipped.
func (w *Watcher) importFile(ctx context.Context, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Cannot read file for import")
		return false
	}
	if len(data) == 0 {
		logger.Debug().Str("path", path).Msg("Skipping empty file")
		return false
	}

	res, err := w.catalogue.ImportFile(ctx, services.ImportFileParams{
		Path:     path,
		Data:     data,
		Title:    services.TitleFromFilename(path),
		Category: CategoryForPath(path),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			logger.Debug().Str("path", path).Msg("File already catalogued, skipping")
		} else {
			logger.Warn().Err(err).Str("path", path).Msg("Import failed")
		}
		return false
	}

	logger.Info().
		Int64("id", res.ID).
		Str("path", path).
		Str("category", res.Category).
		Msg("File auto-imported")
	return true
}

// CategoryForPath derives a category from the directory layout. Segments
// are checked from the root towards the file, so the top-level watched
// directory beats any nested subdirectory that also matches.
func CategoryForPath(path string) string {
	dir := filepath.Dir(filepath.Clean(path))
	for _, segment := range strings.Split(dir, string(filepath.Separator)) {
		if category, ok := directoryCategories[strings.ToLower(segment)]; ok {
			return category
		}
	}
	return defaultCategory
}
