package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/bookwormapp/bookworm/pkg/errcodes"
	"github.com/bookwormapp/bookworm/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// BooksPerPage is the fixed page size for catalog listings.
const BooksPerPage = 20

type RetrieveBookOptions struct {
	ID *int
}

type ListBooksOptions struct {
	Page   *int
	Search *string
	Genre  *string

	includeTotal bool
}

type UpdateBookOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// FindOrCreateBook looks up a book by its case-insensitive (title, author)
// natural key and inserts it if absent. The unique index is the source of
// truth: when a concurrent caller wins the insert race, the conflict is
// absorbed and the winning row is read back instead of surfacing an error.
// The passed model is populated with the canonical row either way. It
// returns whether a new row was inserted.
func (svc *Service) FindOrCreateBook(ctx context.Context, book *models.Book) (bool, error) {
	book.Genre = NormalizeGenre(book.Genre)

	existing, err := svc.retrieveByTitleAuthor(ctx, book.Title, book.Author)
	if err != nil {
		return false, err
	}
	if existing != nil {
		*book = *existing
		return false, nil
	}

	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	res, err := svc.db.
		NewInsert().
		Model(book).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}

	// Re-read through the natural key so the caller always gets the winning
	// row, whether it was ours or a concurrent insert's.
	existing, err = svc.retrieveByTitleAuthor(ctx, book.Title, book.Author)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, errors.New("book missing after insert")
	}
	*book = *existing

	return rows > 0, nil
}

func (svc *Service) retrieveByTitleAuthor(ctx context.Context, title, author string) (*models.Book, error) {
	book := &models.Book{}

	err := svc.db.
		NewSelect().
		Model(book).
		Where("b.title = ? COLLATE NOCASE", title).
		Where("b.author = ? COLLATE NOCASE", author).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book)

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	// Page numbers below 1 are clamped so the offset can never go negative.
	page := 1
	if opts.Page != nil && *opts.Page > 1 {
		page = *opts.Page
	}

	// Rows without an explicit display_order sort after ordered rows, never
	// interleaved. The id tiebreaker keeps pages stable between requests.
	q := svc.db.
		NewSelect().
		Model(&books).
		Order("b.display_order ASC NULLS LAST", "b.id ASC").
		Limit(BooksPerPage).
		Offset((page - 1) * BooksPerPage)

	if opts.Search != nil && *opts.Search != "" {
		pattern := "%" + *opts.Search + "%"
		q = q.Where("(b.title LIKE ? OR b.author LIKE ?)", pattern, pattern)
	}
	if opts.Genre != nil && *opts.Genre != "" {
		q = q.Where("b.genre LIKE ?", "%"+*opts.Genre+"%")
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

// TotalPages converts a filtered row count into a page count at the fixed
// page size.
func TotalPages(total int) int {
	return (total + BooksPerPage - 1) / BooksPerPage
}

func (svc *Service) UpdateBook(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	book.UpdatedAt = time.Now()

	// Copy before appending so the caller's slice is never written through.
	columns := make([]string, 0, len(opts.Columns)+1)
	columns = append(columns, opts.Columns...)
	columns = append(columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(book).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// DeleteBook removes a book and every personal shelf entry that references
// it. The user_books rows go first, inside the same transaction, so the
// catalog row is never left with dangling references. Deleting a missing
// book is a no-op.
func (svc *Service) DeleteBook(ctx context.Context, bookID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.UserBook)(nil)).
			Where("book_id = ?", bookID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", bookID).
			Exec(ctx)
		return errors.WithStack(err)
	})
}
