package campaign

import (
	"campsight/internal/upstream"
)

// Field-candidate chains, most specific and most current first. A
// candidate wins when its key is present with a non-null value; absent
// and explicit-null entries fall through to the next candidate.
var (
	idCandidates = [][]string{
		{"id"},
		{"campaign_id"},
		{"uid"},
		{"attributes", "id"},
	}
	nameCandidates = [][]string{
		{"attributes", "name"},
		{"attributes", "title"},
		{"name"},
		{"title"},
	}
	createdAtCandidates = [][]string{
		{"attributes", "created_at"},
		{"attributes", "created"},
		{"attributes", "sent_at"},
		{"attributes", "scheduled"},
		{"created_at"},
		{"sent_at"},
	}
)

// Normalize combines one raw campaign resource with its resolved
// relationship data into the canonical shape. Pure and idempotent.
func Normalize(item upstream.Resource, res Resolved) Normalized {
	n := Normalized{
		ID:          firstCandidate(item, idCandidates),
		Name:        firstCandidate(item, nameCandidates),
		CreatedAt:   firstCandidate(item, createdAtCandidates),
		PreviewText: res.PreviewText,
		TemplateID:  res.TemplateID,
	}

	if n.PreviewText == "" {
		n.PreviewText = item.String("attributes", "preview_text")
	}

	n.SubjectLines = subjectUnion(item, res)

	return n
}

// firstCandidate evaluates a candidate chain, coercing the winning value
// to a string. Ids that arrive as JSON numbers come out as decimal text.
func firstCandidate(item upstream.Resource, candidates [][]string) string {
	for _, path := range candidates {
		if v, ok := item.Lookup(path...); ok && v != nil {
			return upstream.CoerceString(v)
		}
	}
	return ""
}

// subjectUnion collects every subject candidate across schema variants
// into an ordered set: the resolved message subject, any
// attributes.subject_lines array, then the legacy single-subject fields.
// Empty entries and duplicates are dropped, insertion order kept.
func subjectUnion(item upstream.Resource, res Resolved) []string {
	var out []string
	seen := make(map[string]struct{})

	add := func(s string) {
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(res.Subject)
	for _, v := range item.Slice("attributes", "subject_lines") {
		if s, ok := v.(string); ok {
			add(s)
		}
	}
	add(item.String("attributes", "subject"))
	add(item.String("subject"))

	return out
}
