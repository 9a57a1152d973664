package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bookwormapp/bookworm/pkg/config"
	"github.com/bookwormapp/bookworm/pkg/database"
	"github.com/bookwormapp/bookworm/pkg/migrations"
	"github.com/bookwormapp/bookworm/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// setupFileTestDB uses a temp file database so multiple connections share
// the same data, which is required for concurrency tests. It goes through
// database.New so every pooled connection carries the busy-retry wrapper.
func setupFileTestDB(t *testing.T) *bun.DB {
	t.Helper()

	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "test.db")

	db, err := database.New(cfg)
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *bun.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "test",
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestService_FindOrCreateBook(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t.Run("creates a new book", func(t *testing.T) {
		book := &models.Book{Title: "Dune", Author: "Frank Herbert", Genre: strPtr("scifi")}
		created, err := svc.FindOrCreateBook(ctx, book)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotZero(t, book.ID)
	})

	t.Run("returns the existing book on exact match", func(t *testing.T) {
		book := &models.Book{Title: "Dune", Author: "Frank Herbert"}
		created, err := svc.FindOrCreateBook(ctx, book)
		require.NoError(t, err)
		assert.False(t, created)
		require.NotNil(t, book.Genre)
		assert.Equal(t, "scifi", *book.Genre)
	})

	t.Run("matches case-insensitively on title and author", func(t *testing.T) {
		book := &models.Book{Title: "DUNE", Author: "frank herbert"}
		created, err := svc.FindOrCreateBook(ctx, book)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "Dune", book.Title)

		count, err := db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("normalizes the genre list before storing it", func(t *testing.T) {
		book := &models.Book{Title: "Hyperion", Author: "Dan Simmons", Genre: strPtr("  fantasy ,scifi  ")}
		created, err := svc.FindOrCreateBook(ctx, book)
		require.NoError(t, err)
		assert.True(t, created)

		got, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
		require.NoError(t, err)
		require.NotNil(t, got.Genre)
		assert.Equal(t, "fantasy, scifi", *got.Genre)
	})

	t.Run("different author creates a separate book", func(t *testing.T) {
		book := &models.Book{Title: "Dune", Author: "Someone Else"}
		created, err := svc.FindOrCreateBook(ctx, book)
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestService_FindOrCreateBook_Concurrent(t *testing.T) {
	db := setupFileTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	const numCallers = 10

	var wg sync.WaitGroup
	errs := make(chan error, numCallers)
	ids := make(chan int, numCallers)

	for i := 0; i < numCallers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			book := &models.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien"}
			_, err := svc.FindOrCreateBook(ctx, book)
			if err != nil {
				errs <- err
				return
			}
			ids <- book.ID
		}()
	}

	wg.Wait()
	close(errs)
	close(ids)

	// A losing racer must resolve to the winner's row, never error.
	for err := range errs {
		require.NoError(t, err)
	}

	var firstID int
	for id := range ids {
		if firstID == 0 {
			firstID = id
		}
		assert.Equal(t, firstID, id)
	}

	count, err := db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_ListBooks_Pagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	for i := 1; i <= 45; i++ {
		book := &models.Book{
			Title:        fmt.Sprintf("Book %02d", i),
			Author:       "Author",
			DisplayOrder: intPtr(i),
		}
		_, err := db.NewInsert().Model(book).Exec(ctx)
		require.NoError(t, err)
	}

	t.Run("pages of the fixed size", func(t *testing.T) {
		for page, want := range map[int]int{1: 20, 2: 20, 3: 5, 4: 0} {
			books, total, err := svc.ListBooksWithTotal(ctx, ListBooksOptions{Page: &page})
			require.NoError(t, err)
			assert.Len(t, books, want, "page %d", page)
			assert.Equal(t, 45, total)
		}
		assert.Equal(t, 3, TotalPages(45))
	})

	t.Run("first page starts at display_order 1", func(t *testing.T) {
		page := 1
		books, err := svc.ListBooks(ctx, ListBooksOptions{Page: &page})
		require.NoError(t, err)
		require.NotEmpty(t, books)
		assert.Equal(t, "Book 01", books[0].Title)
	})

	t.Run("clamps page numbers below 1", func(t *testing.T) {
		for _, page := range []int{0, -1} {
			p := page
			books, err := svc.ListBooks(ctx, ListBooksOptions{Page: &p})
			require.NoError(t, err)
			assert.Len(t, books, 20)
			assert.Equal(t, "Book 01", books[0].Title)
		}
	})
}

func TestService_ListBooks_Filters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	dune := &models.Book{Title: "Dune", Author: "Herbert", Genre: strPtr("scifi")}
	hobbit := &models.Book{Title: "Hobbit", Author: "Tolkien", Genre: strPtr("fantasy")}
	_, err := db.NewInsert().Model(dune).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(hobbit).Exec(ctx)
	require.NoError(t, err)

	t.Run("search matches title substring", func(t *testing.T) {
		books, total, err := svc.ListBooksWithTotal(ctx, ListBooksOptions{Search: strPtr("du")})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, books, 1)
		assert.Equal(t, "Dune", books[0].Title)
	})

	t.Run("search matches author substring", func(t *testing.T) {
		books, err := svc.ListBooks(ctx, ListBooksOptions{Search: strPtr("tolk")})
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Hobbit", books[0].Title)
	})

	t.Run("genre filter", func(t *testing.T) {
		books, err := svc.ListBooks(ctx, ListBooksOptions{Genre: strPtr("fantasy")})
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Hobbit", books[0].Title)
	})

	t.Run("empty filters return everything", func(t *testing.T) {
		books, err := svc.ListBooks(ctx, ListBooksOptions{Search: strPtr(""), Genre: strPtr("")})
		require.NoError(t, err)
		assert.Len(t, books, 2)
	})

	t.Run("filters combine conjunctively", func(t *testing.T) {
		books, err := svc.ListBooks(ctx, ListBooksOptions{Search: strPtr("du"), Genre: strPtr("fantasy")})
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}

func TestService_ListBooks_NullsLast(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	ordered := &models.Book{Title: "Ordered", Author: "A", DisplayOrder: intPtr(2)}
	unordered := &models.Book{Title: "Unordered", Author: "A"}
	first := &models.Book{Title: "First", Author: "A", DisplayOrder: intPtr(1)}
	for _, b := range []*models.Book{unordered, ordered, first} {
		_, err := db.NewInsert().Model(b).Exec(ctx)
		require.NoError(t, err)
	}

	books, err := svc.ListBooks(ctx, ListBooksOptions{})
	require.NoError(t, err)
	require.Len(t, books, 3)

	// Rows without display_order sort after every ordered row.
	assert.Equal(t, "First", books[0].Title)
	assert.Equal(t, "Ordered", books[1].Title)
	assert.Equal(t, "Unordered", books[2].Title)
}

func TestService_UpdateBook(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := &models.Book{
		Title:        "Original",
		Author:       "Author",
		Genre:        strPtr("scifi"),
		Description:  strPtr("keep me"),
		DisplayOrder: intPtr(7),
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	rating := 4.5
	book.Title = "Updated"
	book.Genre = nil
	book.Rating = &rating

	err = svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: []string{"title", "author", "genre", "rating"}})
	require.NoError(t, err)

	got, err := svc.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Title)
	assert.Nil(t, got.Genre)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.5, *got.Rating)

	// Fields outside the update set are untouched.
	require.NotNil(t, got.Description)
	assert.Equal(t, "keep me", *got.Description)
	require.NotNil(t, got.DisplayOrder)
	assert.Equal(t, 7, *got.DisplayOrder)
}

func TestService_UpdateBook_ColumnSliceAliasing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	book := &models.Book{Title: "Aliased", Author: "Author"}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	// A column slice with spare capacity must not have its backing array
	// written through by the internal updated_at append.
	backing := []string{"title", "sentinel"}
	columns := backing[:1]

	book.Title = "Renamed"
	err = svc.UpdateBook(ctx, book, UpdateBookOptions{Columns: columns})
	require.NoError(t, err)

	assert.Equal(t, []string{"title"}, columns)
	assert.Equal(t, "sentinel", backing[1])
}

func TestService_DeleteBook(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "reader")
	book := &models.Book{Title: "Doomed", Author: "Author"}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	userBook := &models.UserBook{UserID: user.ID, BookID: book.ID, Status: models.StatusSave}
	_, err = db.NewInsert().Model(userBook).Exec(ctx)
	require.NoError(t, err)

	t.Run("removes the book and its shelf entries", func(t *testing.T) {
		err := svc.DeleteBook(ctx, book.ID)
		require.NoError(t, err)

		bookCount, err := db.NewSelect().Model((*models.Book)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, bookCount)

		shelfCount, err := db.NewSelect().Model((*models.UserBook)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, shelfCount)
	})

	t.Run("deleting a missing book is a no-op", func(t *testing.T) {
		err := svc.DeleteBook(ctx, 99999)
		require.NoError(t, err)
	})
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0))
	assert.Equal(t, 1, TotalPages(1))
	assert.Equal(t, 1, TotalPages(20))
	assert.Equal(t, 2, TotalPages(21))
	assert.Equal(t, 3, TotalPages(45))
}
