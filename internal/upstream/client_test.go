package upstream

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"campsight/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.UpstreamConfig{
		BaseURL:  srv.URL,
		APIKey:   "pk_test",
		Revision: "2024-10-15",
	}, testLogger(), nil)

	return client, srv
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotAuth, gotRevision, gotAccept string

	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRevision = r.Header.Get("revision")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"data": []}`))
	}))

	if _, err := client.ListCampaigns(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Klaviyo-API-Key pk_test" {
		t.Errorf("unexpected Authorization header: %q", gotAuth)
	}
	if gotRevision != "2024-10-15" {
		t.Errorf("unexpected revision header: %q", gotRevision)
	}
	if gotAccept != "application/vnd.api+json" {
		t.Errorf("unexpected Accept header: %q", gotAccept)
	}
}

func TestClientNon2xxIsFetchError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"errors": [{"detail": "rate limited"}]}`))
	}))

	_, err := client.ListCampaigns(context.Background())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Status != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", fetchErr.Status)
	}
	body, ok := fetchErr.Body.(map[string]any)
	if !ok {
		t.Fatalf("expected parsed JSON body, got %T", fetchErr.Body)
	}
	if _, ok := body["errors"]; !ok {
		t.Errorf("expected errors key in parsed body, got %v", body)
	}
}

func TestClientNonJSONErrorBodyKeptRaw(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway timeout</html>"))
	}))

	_, err := client.ListCampaigns(context.Background())

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if body, ok := fetchErr.Body.(string); !ok || body != "<html>gateway timeout</html>" {
		t.Errorf("expected raw body string, got %#v", fetchErr.Body)
	}
}

func TestHasAPIKey(t *testing.T) {
	with := NewClient(config.UpstreamConfig{BaseURL: "http://example", APIKey: "x"}, testLogger(), nil)
	without := NewClient(config.UpstreamConfig{BaseURL: "http://example"}, testLogger(), nil)

	if !with.HasAPIKey() {
		t.Error("expected HasAPIKey true")
	}
	if without.HasAPIKey() {
		t.Error("expected HasAPIKey false")
	}
}
