package insights

import (
	"campsight/internal/campaign"
	"campsight/internal/content"
	"campsight/internal/upstream"
)

// Report is the complete result of one keyword search
type Report struct {
	Keyword            string            `json:"keyword"`
	CampaignCount      int               `json:"campaign_count"`
	SubjectLines       []SubjectLine     `json:"subject_lines"`
	PerformanceMetrics []CampaignMetrics `json:"performance_metrics"`
	Themes             []CampaignThemes  `json:"themes"`
	Campaigns          []CampaignRecord  `json:"campaigns"`
	DaysUsed           int               `json:"days_used"`
	RequestedLimit     int               `json:"requested_limit"`
}

// SubjectLine is one campaign's subject, flattened: one entry per
// campaign per subject
type SubjectLine struct {
	CampaignID *string `json:"campaign_id"`
	Subject    string  `json:"subject"`
}

// CampaignMetrics is one campaign's canonical performance record
type CampaignMetrics struct {
	CampaignID     *string  `json:"campaign_id"`
	OpenRate       *float64 `json:"open_rate"`
	ClickRate      *float64 `json:"click_rate"`
	ConversionRate *float64 `json:"conversion_rate"`
	Sent           *float64 `json:"sent"`
	Revenue        *float64 `json:"revenue"`
}

// CampaignThemes is one campaign's ranked recurring words
type CampaignThemes struct {
	CampaignID *string  `json:"campaign_id"`
	Themes     []string `json:"themes"`
}

// CampaignRecord is one fully enriched matched campaign
type CampaignRecord struct {
	ID           *string        `json:"id"`
	Name         string         `json:"name"`
	SubjectLines []string       `json:"subject_lines"`
	SentAt       *string        `json:"sent_at"`
	PreviewText  string         `json:"preview_text"`
	BodyHTML     string         `json:"body_html"`
	BodyText     string         `json:"body_text"`
	CTAText      *string        `json:"cta_text"`
	CTALink      *string        `json:"cta_link"`
	Metrics      map[string]any `json:"metrics"`
	Themes       []string       `json:"themes"`
}

// enrichment is the per-match enrichment bundle gathered by the worker
// pool, kept in match order.
type enrichment struct {
	extract content.Extract
	report  *upstream.Report
	themes  []string
}

// assemble shapes the final report. Slices are initialized so an empty
// result serializes as [] rather than null.
func assemble(keyword string, matchCount int, matches []campaign.Normalized, enriched []enrichment, days, limit int) *Report {
	rep := &Report{
		Keyword:            keyword,
		CampaignCount:      matchCount,
		SubjectLines:       make([]SubjectLine, 0),
		PerformanceMetrics: make([]CampaignMetrics, 0, len(matches)),
		Themes:             make([]CampaignThemes, 0, len(matches)),
		Campaigns:          make([]CampaignRecord, 0, len(matches)),
		DaysUsed:           days,
		RequestedLimit:     limit,
	}

	for i, c := range matches {
		id := nullable(c.ID)
		en := enriched[i]

		for _, subject := range c.SubjectLines {
			rep.SubjectLines = append(rep.SubjectLines, SubjectLine{
				CampaignID: id,
				Subject:    subject,
			})
		}

		rep.PerformanceMetrics = append(rep.PerformanceMetrics, CampaignMetrics{
			CampaignID:     id,
			OpenRate:       en.report.OpenRate,
			ClickRate:      en.report.ClickRate,
			ConversionRate: en.report.ConversionRate,
			Sent:           en.report.Sent,
			Revenue:        en.report.Revenue,
		})

		themes := en.themes
		if themes == nil {
			themes = []string{}
		}
		rep.Themes = append(rep.Themes, CampaignThemes{
			CampaignID: id,
			Themes:     themes,
		})

		subjects := c.SubjectLines
		if subjects == nil {
			subjects = []string{}
		}
		rep.Campaigns = append(rep.Campaigns, CampaignRecord{
			ID:           id,
			Name:         c.Name,
			SubjectLines: subjects,
			SentAt:       nullable(c.CreatedAt),
			PreviewText:  c.PreviewText,
			BodyHTML:     en.extract.BodyHTML,
			BodyText:     en.extract.BodyText,
			CTAText:      nullable(en.extract.CTAText),
			CTALink:      nullable(en.extract.CTALink),
			Metrics:      en.report.Raw,
			Themes:       themes,
		})
	}

	return rep
}

// nullable maps the internal empty-string convention to a JSON null
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
