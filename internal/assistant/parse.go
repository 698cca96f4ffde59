package assistant

import "strings"

// Response markers the model is asked to use.
const (
	DetailsMarker = "DETAILS:"
	SummaryMarker = "SUMMARY:"
)

// Parts is a reply split into its two sections.
type Parts struct {
	Details string `json:"details"`
	Summary string `json:"summary"`
}

// ParseResponse splits text on the first DETAILS: and SUMMARY: markers,
// matched without regard to case.
// Details is the trimmed text between them and Summary the trimmed text
// after SUMMARY:. Both are empty unless both markers are present. When
// SUMMARY: comes first Details is empty.
func ParseResponse(text string) Parts {
	di := indexFold(text, DetailsMarker)
	si := indexFold(text, SummaryMarker)
	if di < 0 || si < 0 {
		return Parts{}
	}

	var p Parts
	if start := di + len(DetailsMarker); si > start {
		p.Details = strings.TrimSpace(text[start:si])
	}
	p.Summary = strings.TrimSpace(text[si+len(SummaryMarker):])
	return p
}

// indexFold is strings.Index ignoring ASCII case. The offset is into s.
func indexFold(s, marker string) int {
	for i := 0; i+len(marker) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(marker)], marker) {
			return i
		}
	}
	return -1
}
