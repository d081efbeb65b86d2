package upstream

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Report is the canonical performance record for one campaign. Numeric
// fields are nil unless the upstream value parsed to a finite number; Raw
// is nil when no report could be fetched at all.
type Report struct {
	OpenRate       *float64
	ClickRate      *float64
	ConversionRate *float64
	Sent           *float64
	Revenue        *float64
	Raw            map[string]any
}

// CampaignReport fetches the performance report for one campaign over the
// given day window. Reports are best-effort: any failure yields the
// all-nil record and never propagates, so one campaign's missing metrics
// cannot fail a batch.
func (c *Client) CampaignReport(ctx context.Context, campaignID string, sinceDays int) *Report {
	body := map[string]any{
		"campaign_id": campaignID,
		"since_days":  sinceDays,
	}

	doc, err := c.do(ctx, "campaign-report", http.MethodPost, "/campaign-report", nil, body)
	if err != nil {
		c.logger.Debug("campaign report unavailable",
			"campaign_id", campaignID,
			"error", err,
		)
		c.metrics.ObserveEnrichmentFailure("report")
		return &Report{}
	}

	return parseReport(doc)
}

// parseReport maps aliased metric field names onto the canonical record.
// For each field the first alias present in the document wins, even when
// its value is a legitimate zero; a present-but-garbage value maps to nil
// rather than falling through to an older alias.
func parseReport(doc any) *Report {
	r := AsResource(doc)
	if r == nil {
		return &Report{}
	}

	rec := r
	if attrs := r.Map("data", "attributes"); attrs != nil {
		rec = attrs
	} else if data := r.Map("data"); data != nil {
		rec = data
	}

	return &Report{
		OpenRate:       firstNumber(rec, "open_rate", "open_rate_pct"),
		ClickRate:      firstNumber(rec, "click_rate", "click_rate_pct"),
		ConversionRate: firstNumber(rec, "conversion_rate", "conversion_rate_pct"),
		Sent:           firstNumber(rec, "recipients", "number_sent", "sent"),
		Revenue:        firstNumber(rec, "revenue", "total_revenue"),
		Raw:            map[string]any(rec),
	}
}

func firstNumber(rec Resource, aliases ...string) *float64 {
	for _, key := range aliases {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		return toFiniteNumber(v)
	}
	return nil
}

// toFiniteNumber coerces an upstream value to a finite float64, or nil.
// NaN and infinities never escape.
func toFiniteNumber(v any) *float64 {
	var f float64

	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
