package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanGenres(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *string
	}{
		{"empty", "", nil},
		{"bracketed list", "['Fantasy', 'Fiction', 'Young Adult']", strP("Fantasy, Fiction, Young Adult")},
		{"plain value", "scifi", strP("scifi")},
		{"whitespace collapsed", "[ 'Fantasy',   'Fiction' ]", strP("Fantasy, Fiction")},
		{"only artifacts", "['']", nil},
		{"brackets only", "[]", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanGenres(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestParseRating(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got := parseRating("4.28")
		require.NotNil(t, got)
		assert.Equal(t, 4.28, *got)
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		got := parseRating(" 3.5 ")
		require.NotNil(t, got)
		assert.Equal(t, 3.5, *got)
	})

	t.Run("unparseable falls back to absent", func(t *testing.T) {
		assert.Nil(t, parseRating(""))
		assert.Nil(t, parseRating("not a number"))
		assert.Nil(t, parseRating("4.5 stars"))
	})

	t.Run("zero is a real rating", func(t *testing.T) {
		got := parseRating("0")
		require.NotNil(t, got)
		assert.Equal(t, 0.0, *got)
	})
}

func TestNormalizeRecord(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		book := normalizeRecord(map[string]string{
			"title":       "  Dune ",
			"author":      " Frank Herbert ",
			"rating":      "4.25",
			"description": " A classic. ",
			"coverImg":    "https://example.com/dune.jpg",
			"genres":      "['Science Fiction', 'Classics']",
		}, 3)
		require.NotNil(t, book)
		assert.Equal(t, "Dune", book.Title)
		assert.Equal(t, "Frank Herbert", book.Author)
		require.NotNil(t, book.Rating)
		assert.Equal(t, 4.25, *book.Rating)
		require.NotNil(t, book.Description)
		assert.Equal(t, "A classic.", *book.Description)
		require.NotNil(t, book.Genre)
		assert.Equal(t, "Science Fiction, Classics", *book.Genre)
		require.NotNil(t, book.DisplayOrder)
		assert.Equal(t, 3, *book.DisplayOrder)
	})

	t.Run("missing title is dropped", func(t *testing.T) {
		assert.Nil(t, normalizeRecord(map[string]string{"title": "  ", "author": "Someone"}, 1))
	})

	t.Run("missing author is dropped", func(t *testing.T) {
		assert.Nil(t, normalizeRecord(map[string]string{"title": "Orphaned", "author": ""}, 1))
	})

	t.Run("optional fields default to absent", func(t *testing.T) {
		book := normalizeRecord(map[string]string{"title": "Bare", "author": "Minimum"}, 1)
		require.NotNil(t, book)
		assert.Nil(t, book.Rating)
		assert.Nil(t, book.Description)
		assert.Nil(t, book.CoverURL)
		assert.Nil(t, book.Genre)
	})
}

func strP(s string) *string { return &s }
