package domain

// Classification confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Classifier source names, recorded as resource provenance.
const (
	ClassifierOpenAI    = "openai"
	ClassifierAnthropic = "anthropic"
	ClassifierKeywords  = "keywords"
)

// Classification is the result of assigning a category and tags to a resource.
type Classification struct {
	// Category is one of the built-in category names, or empty when no
	// category could be determined.
	Category string

	// Tags is an ordered list of short labels.
	Tags []string

	// Confidence is "high", "medium" or "low".
	Confidence string

	// Source names the strategy that produced this result.
	Source string
}

// ClassifyInput is the text context a classifier works from. All fields are
// optional; strategies concatenate whatever is present.
type ClassifyInput struct {
	Title       string
	Description string
	Content     string
	Filename    string
	URL         string
}
