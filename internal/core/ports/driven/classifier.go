package driven

import (
	"context"

	"github.com/custodia-labs/cybercache/internal/core/domain"
)

// Classifier assigns a category and tags to a resource from its text context.
//
// Implementations form an ordered fallback chain: remote strategies (OpenAI,
// Anthropic) may fail for any reason (network, auth, malformed response) and
// return an error; the chain then moves on to the next strategy. The keyword
// strategy is deterministic and always succeeds.
type Classifier interface {
	// Name identifies the strategy ("openai", "anthropic", "keywords").
	Name() string

	// Classify produces a classification or an error. Errors are recovered
	// by the chain and never surface to API callers.
	Classify(ctx context.Context, in domain.ClassifyInput) (*domain.Classification, error)
}

// ContentExtractor pulls classifiable text out of file payloads.
type ContentExtractor interface {
	// ExtractText returns up to maxChars characters of text extracted from
	// the named payload. Unsupported formats and extraction failures yield
	// an empty string, not an error.
	ExtractText(filename string, data []byte, maxChars int) string
}
