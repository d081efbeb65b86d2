package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"campsight/internal/campaign"
	"campsight/internal/config"
	"campsight/internal/content"
	"campsight/internal/themes"
	"campsight/internal/upstream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUpstream simulates the platform API for end-to-end pipeline tests
type fakeUpstream struct {
	listing      string
	templates    map[string]string
	failReports  map[string]bool
	listingCalls atomic.Int64
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/campaigns", func(w http.ResponseWriter, r *http.Request) {
		f.listingCalls.Add(1)
		w.Write([]byte(f.listing))
	})

	mux.HandleFunc("/templates/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/templates/"):]
		html, ok := f.templates[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		resp := map[string]any{"data": map[string]any{"attributes": map[string]any{"html": html}}}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/campaign-report", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		id, _ := body["campaign_id"].(string)
		if f.failReports[id] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"open_rate": 0.42, "recipients": 1000, "revenue": 99.5}`)
	})

	return mux
}

func newTestPipeline(t *testing.T, f *fakeUpstream, opts Options) *Pipeline {
	t.Helper()

	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	client := upstream.NewClient(config.UpstreamConfig{
		BaseURL: srv.URL,
		APIKey:  "pk_test",
	}, testLogger(), nil)

	resolver := campaign.NewResolver(client, testLogger())
	analyzer := content.NewAnalyzer(client, testLogger(), nil)
	extractor := themes.New(nil, []string{"unsubscribe"}, 5)

	return New(client, resolver, analyzer, extractor, opts, testLogger(), nil)
}

const summerListing = `{
  "data": [
    {
      "id": "c-1",
      "attributes": {"name": "Summer Sale Kickoff", "created_at": "2026-06-01T00:00:00Z"},
      "relationships": {"campaign-messages": {"data": [{"type": "campaign-message", "id": "m-1"}]}}
    },
    {
      "id": "c-2",
      "attributes": {"name": "Weekly digest", "subject": "Your weekly digest"}
    }
  ],
  "included": [
    {
      "id": "m-1",
      "attributes": {"content": {"subject": "Get 20% off", "preview_text": "beach season deals"}},
      "relationships": {"template": {"data": {"type": "template", "id": "t-1"}}}
    }
  ]
}`

const summerTemplate = `<html><body>
<p>Summer summer summer savings on sandals.</p>
<table><tr><td class="button"><p>Shop now</p><a href="https://shop.example/sale">go</a></td></tr></table>
</body></html>`

func TestSearchScenarioOneMatch(t *testing.T) {
	f := &fakeUpstream{
		listing:   summerListing,
		templates: map[string]string{"t-1": summerTemplate},
	}
	p := newTestPipeline(t, f, Options{})

	report, err := p.Search(context.Background(), Request{Keyword: "summer"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if report.CampaignCount != 1 {
		t.Fatalf("expected 1 match, got %d", report.CampaignCount)
	}
	if len(report.Campaigns) != 1 {
		t.Fatalf("expected 1 campaign record, got %d", len(report.Campaigns))
	}

	rec := report.Campaigns[0]
	if rec.ID == nil || *rec.ID != "c-1" {
		t.Errorf("expected campaign c-1, got %v", rec.ID)
	}
	if len(rec.SubjectLines) != 1 || rec.SubjectLines[0] != "Get 20% off" {
		t.Errorf("expected subject lines [Get 20%% off], got %v", rec.SubjectLines)
	}
	if rec.CTAText == nil || *rec.CTAText != "Shop now" {
		t.Errorf("expected CTA text, got %v", rec.CTAText)
	}
	if rec.CTALink == nil || *rec.CTALink != "https://shop.example/sale" {
		t.Errorf("expected CTA link, got %v", rec.CTALink)
	}
	if rec.Metrics == nil {
		t.Error("expected raw metrics to be present")
	}

	if len(report.PerformanceMetrics) != 1 {
		t.Fatalf("expected 1 metrics entry, got %d", len(report.PerformanceMetrics))
	}
	pm := report.PerformanceMetrics[0]
	if pm.OpenRate == nil || *pm.OpenRate != 0.42 {
		t.Errorf("expected open rate 0.42, got %v", pm.OpenRate)
	}
	if pm.Sent == nil || *pm.Sent != 1000 {
		t.Errorf("expected sent 1000, got %v", pm.Sent)
	}

	if len(report.Themes) != 1 || len(report.Themes[0].Themes) == 0 {
		t.Fatalf("expected themes for the match, got %v", report.Themes)
	}
	if report.Themes[0].Themes[0] != "summer" {
		t.Errorf("expected summer as the top theme, got %v", report.Themes[0].Themes)
	}

	if report.DaysUsed != 90 || report.RequestedLimit != 25 {
		t.Errorf("expected defaults 90/25, got %d/%d", report.DaysUsed, report.RequestedLimit)
	}
}

func TestSearchMatchingIsCaseInsensitive(t *testing.T) {
	f := &fakeUpstream{listing: summerListing, templates: map[string]string{"t-1": summerTemplate}}
	p := newTestPipeline(t, f, Options{})

	upper, err := p.Search(context.Background(), Request{Keyword: "SUMMER"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	lower, err := p.Search(context.Background(), Request{Keyword: "summer"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if upper.CampaignCount != lower.CampaignCount {
		t.Errorf("expected identical match sets, got %d and %d", upper.CampaignCount, lower.CampaignCount)
	}
}

func TestSearchScenarioNoMatches(t *testing.T) {
	f := &fakeUpstream{listing: summerListing}
	p := newTestPipeline(t, f, Options{})

	report, err := p.Search(context.Background(), Request{Keyword: "zebra"})
	if err != nil {
		t.Fatalf("expected success with zero matches, got %v", err)
	}

	if report.CampaignCount != 0 {
		t.Errorf("expected 0 matches, got %d", report.CampaignCount)
	}
	if report.Campaigns == nil || len(report.Campaigns) != 0 {
		t.Errorf("expected empty campaigns array, got %v", report.Campaigns)
	}
	if report.SubjectLines == nil || len(report.SubjectLines) != 0 {
		t.Errorf("expected empty subject lines, got %v", report.SubjectLines)
	}
	if report.PerformanceMetrics == nil || len(report.PerformanceMetrics) != 0 {
		t.Errorf("expected empty metrics, got %v", report.PerformanceMetrics)
	}
	if report.Themes == nil || len(report.Themes) != 0 {
		t.Errorf("expected empty themes, got %v", report.Themes)
	}
}

func TestSearchScenarioMissingKeyword(t *testing.T) {
	f := &fakeUpstream{listing: summerListing}
	p := newTestPipeline(t, f, Options{})

	for _, kw := range []string{"", "   "} {
		_, err := p.Search(context.Background(), Request{Keyword: kw})
		if !errors.Is(err, ErrMissingParameter) {
			t.Errorf("keyword %q: expected ErrMissingParameter, got %v", kw, err)
		}
	}

	if calls := f.listingCalls.Load(); calls != 0 {
		t.Errorf("expected no upstream calls for invalid keyword, got %d", calls)
	}
}

func TestSearchScenarioReportFailureIsIsolated(t *testing.T) {
	listing := `{
  "data": [
    {"id": "c-1", "attributes": {"name": "Flash Sale"}},
    {"id": "c-2", "attributes": {"name": "Mega Sale"}}
  ]
}`
	f := &fakeUpstream{
		listing:     listing,
		failReports: map[string]bool{"c-1": true},
	}
	p := newTestPipeline(t, f, Options{})

	report, err := p.Search(context.Background(), Request{Keyword: "sale"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(report.PerformanceMetrics) != 2 {
		t.Fatalf("expected 2 metrics entries, got %d", len(report.PerformanceMetrics))
	}

	failed := report.PerformanceMetrics[0]
	if failed.OpenRate != nil || failed.Sent != nil || failed.Revenue != nil {
		t.Errorf("expected all-nil metrics for failed report, got %+v", failed)
	}
	if report.Campaigns[0].Metrics != nil {
		t.Errorf("expected nil raw metrics for failed report, got %v", report.Campaigns[0].Metrics)
	}

	ok := report.PerformanceMetrics[1]
	if ok.OpenRate == nil || *ok.OpenRate != 0.42 {
		t.Errorf("expected the other campaign's metrics untouched, got %+v", ok)
	}
}

func TestSearchLimitClampAndFilterFirst(t *testing.T) {
	listing := `{"data": [
  {"id": "c-1", "attributes": {"name": "Sale one"}},
  {"id": "c-2", "attributes": {"name": "Sale two"}},
  {"id": "c-3", "attributes": {"name": "Sale three"}}
]}`
	f := &fakeUpstream{listing: listing}
	p := newTestPipeline(t, f, Options{MaxLimit: 2})

	report, err := p.Search(context.Background(), Request{Keyword: "sale", Limit: 9999})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if report.CampaignCount != 3 {
		t.Errorf("expected all 3 matches counted, got %d", report.CampaignCount)
	}
	if len(report.Campaigns) != 2 {
		t.Errorf("expected truncation to 2 enriched campaigns, got %d", len(report.Campaigns))
	}
	if report.RequestedLimit != 2 {
		t.Errorf("expected clamped limit 2, got %d", report.RequestedLimit)
	}

	// Output order follows match order, not completion order
	if *report.Campaigns[0].ID != "c-1" || *report.Campaigns[1].ID != "c-2" {
		t.Errorf("unexpected ordering: %v, %v", *report.Campaigns[0].ID, *report.Campaigns[1].ID)
	}
}

func TestSearchUpstreamListingFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/campaigns", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors": [{"detail": "invalid key"}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := upstream.NewClient(config.UpstreamConfig{BaseURL: srv.URL, APIKey: "pk_bad"}, testLogger(), nil)
	p := New(client, campaign.NewResolver(client, testLogger()), content.NewAnalyzer(client, testLogger(), nil), themes.New(nil, nil, 5), Options{}, testLogger(), nil)

	_, err := p.Search(context.Background(), Request{Keyword: "sale"})

	var fetchErr *upstream.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Status != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", fetchErr.Status)
	}
}

func TestSearchMisconfiguredWithoutAPIKey(t *testing.T) {
	client := upstream.NewClient(config.UpstreamConfig{BaseURL: "http://unused"}, testLogger(), nil)
	p := New(client, campaign.NewResolver(client, testLogger()), content.NewAnalyzer(client, testLogger(), nil), themes.New(nil, nil, 5), Options{}, testLogger(), nil)

	_, err := p.Search(context.Background(), Request{Keyword: "sale"})
	if !errors.Is(err, ErrServerMisconfigured) {
		t.Errorf("expected ErrServerMisconfigured, got %v", err)
	}
}

func TestSearchCancelledContext(t *testing.T) {
	f := &fakeUpstream{listing: summerListing}
	p := newTestPipeline(t, f, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Search(ctx, Request{Keyword: "summer"})
	if !errors.Is(err, ErrRequestCancelled) {
		t.Errorf("expected ErrRequestCancelled, got %v", err)
	}
}

func TestSearchMissingTemplateYieldsEmptyContent(t *testing.T) {
	// c-1 references a template the upstream no longer serves
	listing := `{
  "data": [{
    "id": "c-1",
    "attributes": {"name": "Sale"},
    "relationships": {"campaign-messages": {"data": [{"id": "m-1"}]}}
  }],
  "included": [{
    "id": "m-1",
    "attributes": {"content": {"subject": "Sale inside"}},
    "relationships": {"template": {"data": {"id": "t-gone"}}}
  }]
}`
	f := &fakeUpstream{listing: listing, templates: map[string]string{}}
	p := newTestPipeline(t, f, Options{})

	report, err := p.Search(context.Background(), Request{Keyword: "sale"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	rec := report.Campaigns[0]
	if rec.BodyHTML != "" || rec.BodyText != "" {
		t.Errorf("expected empty body fields, got %+v", rec)
	}
	if rec.CTAText != nil || rec.CTALink != nil {
		t.Errorf("expected nil CTA fields, got %+v", rec)
	}
}
