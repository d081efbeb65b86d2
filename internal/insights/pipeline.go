// Package insights orchestrates the campaign search pipeline: fetch the
// upstream listing, normalize and filter campaigns, then enrich each
// match with template content, performance metrics and themes.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"campsight/internal/campaign"
	"campsight/internal/content"
	"campsight/internal/metrics"
	"campsight/internal/themes"
	"campsight/internal/upstream"
)

// Request is one validated-shape search request from the shell. Zero
// Days/Limit select the configured defaults.
type Request struct {
	Keyword string `json:"keyword"`
	Days    int    `json:"days"`
	Limit   int    `json:"limit"`
}

// Options are the pipeline defaults and limits
type Options struct {
	DefaultDays  int
	DefaultLimit int
	MaxLimit     int
	Workers      int
}

func (o *Options) setDefaults() {
	if o.DefaultDays <= 0 {
		o.DefaultDays = 90
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = 200
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = 25
	}
	if o.DefaultLimit > o.MaxLimit {
		o.DefaultLimit = o.MaxLimit
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
}

// Pipeline composes the fetch, normalize, filter and enrichment stages.
// It holds no state across searches.
type Pipeline struct {
	client   *upstream.Client
	resolver *campaign.Resolver
	analyzer *content.Analyzer
	themes   *themes.Extractor
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a new Pipeline
func New(client *upstream.Client, resolver *campaign.Resolver, analyzer *content.Analyzer, extractor *themes.Extractor, opts Options, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	opts.setDefaults()
	return &Pipeline{
		client:   client,
		resolver: resolver,
		analyzer: analyzer,
		themes:   extractor,
		opts:     opts,
		logger:   logger,
		metrics:  m,
	}
}

// Search runs one keyword search end to end. It returns either a complete
// report or one of the named failure kinds; there is no partial payload.
func (p *Pipeline) Search(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()

	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		p.metrics.ObserveSearch("missing_parameter", 0, time.Since(start))
		return nil, ErrMissingParameter
	}
	if !p.client.HasAPIKey() {
		p.metrics.ObserveSearch("misconfigured", 0, time.Since(start))
		return nil, ErrServerMisconfigured
	}

	days := req.Days
	if days <= 0 {
		days = p.opts.DefaultDays
	}
	limit := req.Limit
	if limit <= 0 {
		limit = p.opts.DefaultLimit
	}
	if limit > p.opts.MaxLimit {
		limit = p.opts.MaxLimit
	}

	// The listing fetch is the only call whose failure fails the whole
	// search.
	listing, err := p.client.ListCampaigns(ctx)
	if err != nil {
		if ctx.Err() != nil {
			p.metrics.ObserveSearch("cancelled", 0, time.Since(start))
			return nil, ErrRequestCancelled
		}
		p.metrics.ObserveSearch("upstream_error", 0, time.Since(start))
		return nil, fmt.Errorf("campaign listing failed: %w", err)
	}

	normalized := make([]campaign.Normalized, 0, len(listing.Items))
	for _, item := range listing.Items {
		resolved := p.resolver.Resolve(ctx, item, listing.Included)
		normalized = append(normalized, campaign.Normalize(item, resolved))
	}

	// Filter before truncating: the limit bounds how many matches get
	// enriched, never which campaigns count as a match.
	var matches []campaign.Normalized
	for _, c := range normalized {
		if campaign.Matches(c, keyword) {
			matches = append(matches, c)
		}
	}
	matchCount := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	enriched, err := p.enrich(ctx, matches, days)
	if err != nil {
		p.metrics.ObserveSearch("cancelled", 0, time.Since(start))
		return nil, ErrRequestCancelled
	}

	report := assemble(keyword, matchCount, matches, enriched, days, limit)

	p.logger.Info("search completed",
		"keyword", keyword,
		"listed", len(listing.Items),
		"matched", matchCount,
		"enriched", len(matches),
		"duration", time.Since(start),
	)
	p.metrics.ObserveSearch("success", matchCount, time.Since(start))

	return report, nil
}

// enrich runs per-match enrichment through a bounded worker pool. Each
// campaign's failures stay isolated inside its own slot; results land in
// match order regardless of completion order. Only context cancellation
// returns an error.
func (p *Pipeline) enrich(ctx context.Context, matches []campaign.Normalized, days int) ([]enrichment, error) {
	enriched := make([]enrichment, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, c := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			extract := p.analyzer.Analyze(gctx, c.TemplateID)

			report := &upstream.Report{}
			if c.ID != "" {
				report = p.client.CampaignReport(gctx, c.ID, days)
			}

			parts := make([]string, 0, len(c.SubjectLines)+3)
			parts = append(parts, c.Name, c.PreviewText)
			parts = append(parts, c.SubjectLines...)
			parts = append(parts, extract.BodyText)

			enriched[i] = enrichment{
				extract: extract,
				report:  report,
				themes:  p.themes.Extract(strings.Join(parts, " ")),
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return enriched, nil
}
