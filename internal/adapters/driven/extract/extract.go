// Package extract pulls classifiable text out of file payloads. Extraction
// is best-effort context for the classifier: unsupported formats and broken
// files yield empty text, never an error.
package extract

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/custodia-labs/cybercache/internal/core/ports/driven"
	"github.com/custodia-labs/cybercache/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.ContentExtractor = (*Extractor)(nil)

// maxPDFPages caps how many pages are read from a PDF. The opening pages
// carry enough signal for classification.
const maxPDFPages = 3

// Extractor extracts text from PDF, plain-text and markdown payloads.
type Extractor struct{}

// New creates a content extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractText returns up to maxChars characters of text from the payload.
func (e *Extractor) ExtractText(filename string, data []byte, maxChars int) string {
	var text string

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text = extractPDF(data)
	case ".txt", ".md":
		text = string(data)
	default:
		return ""
	}

	if len(text) > maxChars {
		text = text[:maxChars]
	}
	return text
}

// extractPDF reads text from the first pages of a PDF. Failures are logged
// at debug and produce empty text.
func extractPDF(data []byte) string {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to open PDF for extraction")
		return ""
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to read PDF page count")
		return ""
	}
	if numPages > maxPDFPages {
		numPages = maxPDFPages
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			logger.Debug().Err(err).Int("page", i).Msg("Failed to read PDF page")
			return strings.Join(pages, " ")
		}

		ex, err := extractor.New(page)
		if err != nil {
			logger.Debug().Err(err).Int("page", i).Msg("Failed to create PDF extractor")
			return strings.Join(pages, " ")
		}

		text, err := ex.ExtractText()
		if err != nil {
			logger.Debug().Err(err).Int("page", i).Msg("Failed to extract PDF text")
			return strings.Join(pages, " ")
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, " ")
}
