// Package validate sanitises and constrains untrusted input before it
// reaches the catalogue store. All functions are pure: no side effects,
// no I/O. Failures wrap domain.ErrInvalidInput so callers can map them to
// a 4xx response.
package validate

import (
	"fmt"
	"html"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/cybercache/internal/core/domain"
)

// Field length limits.
const (
	MaxTitleLength       = 500
	MaxDescriptionLength = 5000
	MaxTagLength         = 1000
	MaxURLLength         = 2000
	MaxCategoryLength    = 200
	MaxFilenameLength    = 255
)

// allowedURLSchemes are the schemes accepted for link resources. An empty
// scheme is tolerated for relative paths.
var allowedURLSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"sftp":  true,
}

// dangerousURLPatterns are rejected anywhere in a URL, case-insensitively,
// to defend against scheme confusion smuggled in fragments or queries.
var dangerousURLPatterns = []string{
	"javascript:",
	"data:",
	"vbscript:",
	"file:",
}

// DangerousExtensions fail unconditionally, even if also allow-listed.
var DangerousExtensions = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".com": true, ".pif": true,
	".scr": true, ".vbs": true, ".js": true, ".jar": true, ".msi": true,
	".app": true, ".deb": true, ".rpm": true, ".dmg": true, ".pkg": true,
	".sh": true, ".ps1": true, ".psm1": true, ".psd1": true, ".reg": true,
	".dll": true, ".so": true, ".dylib": true,
}

// AllowedExtensions is the upload allow-list.
var AllowedExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".mp4": true, ".webm": true, ".doc": true, ".docx": true,
	".txt": true, ".md": true, ".csv": true, ".json": true, ".xml": true,
	".zip": true, ".tar": true, ".gz": true,
}

var (
	categoryPattern     = regexp.MustCompile(`^[a-zA-Z0-9\s\-_&]+$`)
	tagStripPattern     = regexp.MustCompile(`[<>{}\\]`)
	filenameSafePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// SanitizeString trims whitespace, HTML-escapes unless allowHTML, and
// truncates to at most maxLength bytes when maxLength > 0. The cut never
// splits a multi-byte rune.
func SanitizeString(value string, maxLength int, allowHTML bool) string {
	value = strings.TrimSpace(value)
	if !allowHTML {
		value = html.EscapeString(value)
	}
	if maxLength > 0 && len(value) > maxLength {
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return value
}

// Title validates a resource title: required, non-empty after sanitisation.
func Title(title string) (string, error) {
	title = SanitizeString(title, MaxTitleLength, false)
	if title == "" {
		return "", fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
	}
	return title, nil
}

// Description sanitises an optional description, defaulting to empty.
func Description(description string) string {
	return SanitizeString(description, MaxDescriptionLength, false)
}

// URL validates a link target. Empty input is allowed and returned as-is.
func URL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}

	rawURL = SanitizeString(rawURL, MaxURLLength, false)

	lower := strings.ToLower(rawURL)
	for _, pattern := range dangerousURLPatterns {
		if strings.Contains(lower, pattern) {
			return "", fmt.Errorf("%w: dangerous URL pattern %q", domain.ErrInvalidInput, pattern)
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid URL: %v", domain.ErrInvalidInput, err)
	}
	if parsed.Scheme != "" && !allowedURLSchemes[strings.ToLower(parsed.Scheme)] {
		return "", fmt.Errorf("%w: URL scheme %q not allowed", domain.ErrInvalidInput, parsed.Scheme)
	}

	return rawURL, nil
}

// Tags sanitises a comma-joined tag string: strips < > { } \ and truncates.
func Tags(tags string) string {
	if tags == "" {
		return ""
	}
	tags = SanitizeString(tags, MaxTagLength, true)
	return tagStripPattern.ReplaceAllString(tags, "")
}

// JoinTags joins a tag list into the stored comma-joined form and sanitises it.
func JoinTags(tags []string) string {
	return Tags(strings.Join(tags, ", "))
}

// Category validates a category label: alphanumeric, spaces, - _ & only.
// Empty input is allowed.
func Category(category string) (string, error) {
	if category == "" {
		return "", nil
	}
	category = SanitizeString(category, MaxCategoryLength, true)
	if !categoryPattern.MatchString(category) {
		return "", fmt.Errorf("%w: category contains invalid characters", domain.ErrInvalidInput)
	}
	return category, nil
}

// ResourceType validates the resource type enum.
func ResourceType(resourceType string) (domain.ResourceType, error) {
	rt := domain.ResourceType(resourceType)
	if !rt.Valid() {
		return "", fmt.Errorf("%w: resource type must be %q or %q",
			domain.ErrInvalidInput, domain.ResourceTypeFile, domain.ResourceTypeLink)
	}
	return rt, nil
}

// Filename sanitises a filename against path traversal and hidden-file
// tricks: strips directory components, replaces unsafe characters with
// underscores, neutralises a leading dot and caps the length preserving
// the extension.
func Filename(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}

	filename = filepath.Base(filename)
	filename = filenameSafePattern.ReplaceAllString(filename, "_")

	if strings.HasPrefix(filename, ".") {
		filename = "_" + filename[1:]
	}

	if filename == "" || filename == "." {
		return "", fmt.Errorf("%w: invalid filename", domain.ErrInvalidInput)
	}

	if len(filename) > MaxFilenameLength {
		ext := filepath.Ext(filename)
		name := strings.TrimSuffix(filename, ext)
		keep := MaxFilenameLength - len(ext)
		if keep < 1 {
			keep = 1
		}
		if len(name) > keep {
			name = name[:keep]
		}
		filename = name + ext
	}

	return filename, nil
}

// FileExtension enforces the two-tier extension policy: the deny-list wins
// unconditionally, then the extension must appear in the allow-list.
func FileExtension(filename string) error {
	if filename == "" {
		return fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if DangerousExtensions[ext] {
		return fmt.Errorf("%w: file extension %q is not allowed for security reasons",
			domain.ErrInvalidInput, ext)
	}
	if !AllowedExtensions[ext] {
		return fmt.Errorf("%w: file extension %q is not supported", domain.ErrInvalidInput, ext)
	}
	return nil
}

// Integer parses a numeric value and enforces inclusive bounds.
func Integer(value string, minVal, maxVal int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: value must be an integer", domain.ErrInvalidInput)
	}
	if n < minVal {
		return 0, fmt.Errorf("%w: value must be at least %d", domain.ErrInvalidInput, minVal)
	}
	if n > maxVal {
		return 0, fmt.Errorf("%w: value must be at most %d", domain.ErrInvalidInput, maxVal)
	}
	return n, nil
}
