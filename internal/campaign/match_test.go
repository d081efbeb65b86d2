package campaign

import "testing"

func TestMatchesIsCaseInsensitive(t *testing.T) {
	c := Normalized{Name: "Summer Sale Kickoff"}

	for _, kw := range []string{"SALE", "sale", "SaLe"} {
		if !Matches(c, kw) {
			t.Errorf("expected %q to match", kw)
		}
	}
}

func TestMatchesSearchableFields(t *testing.T) {
	tests := []struct {
		name    string
		c       Normalized
		keyword string
		want    bool
	}{
		{"name", Normalized{Name: "Holiday Gift Guide"}, "gift", true},
		{"subject line", Normalized{SubjectLines: []string{"Nope", "Last chance for gifts"}}, "gift", true},
		{"preview text", Normalized{PreviewText: "gifts inside"}, "gift", true},
		{"no hit", Normalized{Name: "Weekly digest", SubjectLines: []string{"News"}, PreviewText: "read on"}, "gift", false},
		{"no textual content", Normalized{}, "gift", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.c, tt.keyword); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMatchesEmptyKeywordNeverMatches(t *testing.T) {
	c := Normalized{Name: "anything"}
	if Matches(c, "") {
		t.Error("empty keyword must not match everything")
	}
}
