package catalog

import "strings"

// NormalizeGenre rewrites a raw genre value as a comma-joined list of
// trimmed, non-empty entries ("  fantasy ,scifi  " becomes "fantasy, scifi").
// Nil stays nil, and a value with no surviving entries collapses to nil so
// the column is never stored as an empty string.
func NormalizeGenre(genre *string) *string {
	if genre == nil {
		return nil
	}

	parts := []string{}
	for _, part := range strings.Split(*genre, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	joined := strings.Join(parts, ", ")
	return &joined
}
