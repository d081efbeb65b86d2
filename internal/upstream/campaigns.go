package upstream

import (
	"context"
	"net/http"
	"net/url"
)

// campaignFilter restricts the listing to sent email campaigns
const campaignFilter = `and(equals(messages.channel,"email"),equals(status,"Sent"))`

// Listing is a normalized campaign listing page: the raw campaign items
// plus any inlined related resources.
type Listing struct {
	Items    []Resource
	Included []Resource
}

// ListCampaigns fetches the sent-email campaign listing with campaign
// messages inlined where the upstream revision supports include.
func (c *Client) ListCampaigns(ctx context.Context) (*Listing, error) {
	q := url.Values{}
	q.Set("filter", campaignFilter)
	q.Set("include", "campaign-messages")

	doc, err := c.do(ctx, "campaigns", http.MethodGet, "/campaigns", q, nil)
	if err != nil {
		return nil, err
	}

	return parseListing(doc), nil
}

// parseListing reconciles the listing shapes the upstream API has shipped:
// a bare top-level array, a JSON:API {data, included} document, and the
// legacy {campaigns} / {results} envelopes.
func parseListing(doc any) *Listing {
	l := &Listing{}

	switch v := doc.(type) {
	case []any:
		l.Items = toResources(v)
	case map[string]any:
		r := Resource(v)
		for _, key := range []string{"data", "campaigns", "results"} {
			if items, ok := r[key].([]any); ok {
				l.Items = toResources(items)
				break
			}
		}
		l.Included = toResources(r.Slice("included"))
	}

	return l
}
