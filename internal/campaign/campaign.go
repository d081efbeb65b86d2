// Package campaign turns raw upstream campaign resources into the
// canonical shape the search pipeline works with. The upstream API has
// shipped multiple incompatible schema revisions for the same logical
// fields; normalization here is lossy only in favor of the most specific,
// most current value, surfacing legacy data when nothing newer exists.
package campaign

// Normalized is the canonical campaign shape. Empty strings stand in for
// absent values; SubjectLines never contains empty or duplicate entries.
type Normalized struct {
	ID           string
	Name         string
	SubjectLines []string
	CreatedAt    string
	PreviewText  string
	TemplateID   string
}

// Resolved carries the fields a campaign's message resource contributed
// during relationship resolution. It exists only between resolution and
// normalization of one campaign.
type Resolved struct {
	Subject     string
	PreviewText string
	TemplateID  string
}
