package campaign

import "strings"

// Matches reports whether the campaign's searchable text contains the
// keyword, case-insensitively. Haystacks are tested in order with a
// short-circuit: name, each subject line, preview text. The keyword must
// be non-empty; validating that is the caller's job, an empty keyword
// here never means "match everything".
func Matches(c Normalized, keyword string) bool {
	kw := strings.ToLower(keyword)
	if kw == "" {
		return false
	}

	if strings.Contains(strings.ToLower(c.Name), kw) {
		return true
	}
	for _, subject := range c.SubjectLines {
		if strings.Contains(strings.ToLower(subject), kw) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(c.PreviewText), kw)
}
