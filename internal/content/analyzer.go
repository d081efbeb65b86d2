// Package content derives plain text and call-to-action fields from a
// campaign template's rendered HTML, best-effort.
package content

import (
	"context"
	"log/slog"

	"campsight/internal/metrics"
)

// TemplateFetcher fetches a template's rendered HTML by id.
// *upstream.Client satisfies it.
type TemplateFetcher interface {
	TemplateHTML(ctx context.Context, templateID string) (string, error)
}

// Analyzer fetches a campaign's template and runs content extraction
type Analyzer struct {
	fetcher   TemplateFetcher
	extractor Extractor
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewAnalyzer creates a new Analyzer using the DOM-walking extractor
func NewAnalyzer(fetcher TemplateFetcher, logger *slog.Logger, m *metrics.Metrics) *Analyzer {
	return &Analyzer{
		fetcher:   fetcher,
		extractor: DOMExtractor{},
		logger:    logger,
		metrics:   m,
	}
}

// Analyze fetches the template's HTML and derives plain text and CTA
// fields. An empty template id is a normal outcome (not every campaign
// has a resolvable template) and returns an empty extract without a
// network call. Fetch failures degrade to an empty extract; they never
// propagate to the batch.
func (a *Analyzer) Analyze(ctx context.Context, templateID string) Extract {
	if templateID == "" {
		return Extract{}
	}

	src, err := a.fetcher.TemplateHTML(ctx, templateID)
	if err != nil {
		a.logger.Debug("template fetch failed",
			"template_id", templateID,
			"error", err,
		)
		a.metrics.ObserveEnrichmentFailure("template")
		return Extract{}
	}
	if src == "" {
		return Extract{}
	}

	return a.extractor.Extract(src)
}
