package campaign

import (
	"context"
	"log/slog"

	"campsight/internal/upstream"
)

// MessageFetcher issues the secondary lookups the resolver needs when a
// listing arrived without inlined message resources. *upstream.Client
// satisfies it.
type MessageFetcher interface {
	CampaignMessages(ctx context.Context, campaignID string) ([]upstream.Resource, error)
	CampaignMessage(ctx context.Context, messageID string) (upstream.Resource, error)
}

// Resolver resolves a campaign's message relationship into the subject,
// preview text and template id the message contributes.
type Resolver struct {
	fetcher MessageFetcher
	logger  *slog.Logger
}

// NewResolver creates a new Resolver. fetcher may be nil, in which case
// only inlined resources are consulted.
func NewResolver(fetcher MessageFetcher, logger *slog.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve follows the campaign's first message relationship pointer into
// the included resources, falling back to secondary fetches when the
// upstream omitted them. Probe misses and lookup failures yield zero
// values; a single campaign's resolution never fails a batch.
func (r *Resolver) Resolve(ctx context.Context, item upstream.Resource, included []upstream.Resource) Resolved {
	campaignID := upstream.CoerceString(item["id"])
	messageID := messageRef(item)

	msg := findIncluded(included, messageID)
	if msg == nil && r.fetcher != nil {
		msg = r.fetchMessage(ctx, campaignID, messageID)
	}
	if msg == nil {
		return Resolved{}
	}

	// Older revisions put the message fields at the top level instead of
	// under attributes.
	view := msg.Map("attributes")
	if view == nil {
		view = msg
	}

	res := Resolved{
		Subject:     firstString(view, [][]string{{"content", "subject"}, {"definition", "content", "subject"}, {"subject"}}),
		PreviewText: firstString(view, [][]string{{"content", "preview_text"}, {"preview_text"}}),
		TemplateID:  templateRef(msg),
	}
	return res
}

// messageRef returns the id of the campaign's first message relationship
// pointer, or ""
func messageRef(item upstream.Resource) string {
	for _, key := range []string{"campaign-messages", "campaign_messages"} {
		rel := item.Map("relationships", key)
		if rel == nil {
			continue
		}
		switch data := rel["data"].(type) {
		case []any:
			for _, entry := range data {
				if res := upstream.AsResource(entry); res != nil {
					if id := upstream.CoerceString(res["id"]); id != "" {
						return id
					}
				}
			}
		case map[string]any:
			if id := upstream.CoerceString(data["id"]); id != "" {
				return id
			}
		}
	}
	return ""
}

// templateRef returns the id of the message's template relationship
// pointer, or ""
func templateRef(msg upstream.Resource) string {
	rel := msg.Map("relationships", "template")
	if rel == nil {
		return ""
	}
	switch data := rel["data"].(type) {
	case map[string]any:
		return upstream.CoerceString(data["id"])
	case []any:
		for _, entry := range data {
			if res := upstream.AsResource(entry); res != nil {
				if id := upstream.CoerceString(res["id"]); id != "" {
					return id
				}
			}
		}
	}
	return ""
}

func findIncluded(included []upstream.Resource, id string) upstream.Resource {
	if id == "" {
		return nil
	}
	for _, res := range included {
		if upstream.CoerceString(res["id"]) == id {
			return res
		}
	}
	return nil
}

// fetchMessage recovers the message resource via secondary lookups:
// the campaign's message listing first, then the message itself by id.
// All failures are swallowed and treated as "no message found".
func (r *Resolver) fetchMessage(ctx context.Context, campaignID, messageID string) upstream.Resource {
	if campaignID != "" {
		msgs, err := r.fetcher.CampaignMessages(ctx, campaignID)
		if err != nil {
			r.logger.Debug("campaign message listing failed",
				"campaign_id", campaignID,
				"error", err,
			)
		} else if len(msgs) > 0 {
			first := msgs[0]
			// Listing entries can be bare relationship pointers; follow
			// up with a direct fetch to get the full definition.
			if id := upstream.CoerceString(first["id"]); id != "" {
				if full, err := r.fetcher.CampaignMessage(ctx, id); err == nil && full != nil {
					return full
				}
			}
			return first
		}
	}

	if messageID != "" {
		msg, err := r.fetcher.CampaignMessage(ctx, messageID)
		if err != nil {
			r.logger.Debug("campaign message fetch failed",
				"message_id", messageID,
				"error", err,
			)
			return nil
		}
		return msg
	}

	return nil
}

func firstString(view upstream.Resource, paths [][]string) string {
	for _, path := range paths {
		if v, ok := view.Lookup(path...); ok && v != nil {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
