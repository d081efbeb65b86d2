package upstream

import (
	"context"
	"net/http"
	"net/url"
)

// TemplateHTML fetches a template resource and returns its rendered HTML
func (c *Client) TemplateHTML(ctx context.Context, templateID string) (string, error) {
	path := "/templates/" + url.PathEscape(templateID)
	doc, err := c.do(ctx, "templates", http.MethodGet, path, nil, nil)
	if err != nil {
		return "", err
	}
	return extractTemplateHTML(doc), nil
}

// extractTemplateHTML probes the shapes template documents have shipped
// in, newest first.
func extractTemplateHTML(doc any) string {
	r := AsResource(doc)
	if r == nil {
		return ""
	}

	for _, path := range [][]string{
		{"data", "attributes", "html"},
		{"attributes", "html"},
		{"attributes", "content"},
		{"html"},
		{"content"},
	} {
		if s := r.String(path...); s != "" {
			return s
		}
	}
	return ""
}
