package drafts

import "strings"

// SanitizeModelOutput cleans one raw generation: strips a single trailing
// newline, removes any prompt wrapper tags that leaked into the output,
// normalizes em-dashes to plain hyphens, and trims surrounding whitespace.
func SanitizeModelOutput(text string, wrapperTags []string) string {
	s := strings.TrimSuffix(text, "\n")
	for _, tag := range wrapperTags {
		s = strings.ReplaceAll(s, tag, "")
	}
	s = strings.ReplaceAll(s, "—", "-")
	return strings.TrimSpace(s)
}
