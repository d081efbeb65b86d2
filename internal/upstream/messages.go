package upstream

import (
	"context"
	"net/http"
	"net/url"
)

// CampaignMessages fetches the message resources attached to a campaign.
// Used when the listing response carried no inlined messages.
func (c *Client) CampaignMessages(ctx context.Context, campaignID string) ([]Resource, error) {
	path := "/campaigns/" + url.PathEscape(campaignID) + "/campaign-messages"
	doc, err := c.do(ctx, "campaign-messages", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return parseListing(doc).Items, nil
}

// CampaignMessage fetches one campaign message by its own id
func (c *Client) CampaignMessage(ctx context.Context, messageID string) (Resource, error) {
	path := "/campaign-messages/" + url.PathEscape(messageID)
	doc, err := c.do(ctx, "campaign-messages", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	r := AsResource(doc)
	if r == nil {
		return nil, nil
	}
	if data := r.Map("data"); data != nil {
		return data, nil
	}
	return r, nil
}
