package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/cybercache/internal/core/domain"
	"github.com/custodia-labs/cybercache/internal/core/ports/driven"
	"github.com/custodia-labs/cybercache/internal/logger"
)

// ClassifierChain tries each strategy in order and returns the first
// successful classification. Remote strategies fail for transient reasons
// (network, auth, malformed responses); their errors are logged at debug
// and swallowed so the next tier gets a chance. With the keyword strategy
// as the terminal tier the chain always produces a result.
type ClassifierChain struct {
	classifiers []driven.Classifier
}

// NewClassifierChain creates a chain over the given strategies, tried in
// the order supplied.
func NewClassifierChain(classifiers ...driven.Classifier) *ClassifierChain {
	return &ClassifierChain{classifiers: classifiers}
}

// Classify runs the chain. Returns domain.ErrClassifierUnavailable only
// when every tier fails.
func (c *ClassifierChain) Classify(ctx context.Context, in domain.ClassifyInput) (*domain.Classification, error) {
	for _, classifier := range c.classifiers {
		result, err := classifier.Classify(ctx, in)
		if err != nil {
			logger.Debug().
				Err(err).
				Str("classifier", classifier.Name()).
				Msg("Classifier failed, trying next")
			continue
		}

		logger.Debug().
			Str("classifier", classifier.Name()).
			Str("category", result.Category).
			Str("confidence", result.Confidence).
			Msg("Classification complete")
		return result, nil
	}

	return nil, fmt.Errorf("%w: all strategies failed", domain.ErrClassifierUnavailable)
}
