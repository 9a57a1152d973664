package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bookwormapp/bookworm/pkg/models"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// normalizeRecord converts a raw CSV row into a catalog model. It returns
// nil when the record is missing a required field (title or author) and
// should be dropped.
func normalizeRecord(row map[string]string, displayOrder int) *models.Book {
	title := strings.TrimSpace(row["title"])
	author := strings.TrimSpace(row["author"])
	if title == "" || author == "" {
		return nil
	}

	book := &models.Book{
		Title:        title,
		Author:       author,
		Genre:        cleanGenres(row["genres"]),
		Rating:       parseRating(row["rating"]),
		Description:  trimmed(row["description"]),
		CoverURL:     trimmed(row["coverImg"]),
		DisplayOrder: &displayOrder,
	}
	return book
}

// parseRating parses the catalog rating, falling back to absent on parse
// failure rather than erroring.
func parseRating(s string) *float64 {
	rating, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &rating
}

// cleanGenres strips the list artifacts the source carries, e.g.
// "['Fantasy', 'Fiction']" becomes "Fantasy, Fiction".
func cleanGenres(s string) *string {
	if s == "" {
		return nil
	}
	cleaned := strings.TrimPrefix(s, "[")
	cleaned = strings.TrimSuffix(cleaned, "]")
	cleaned = strings.ReplaceAll(cleaned, "'", "")
	cleaned = strings.TrimSpace(whitespaceRE.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func trimmed(s string) *string {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}
	return &t
}
