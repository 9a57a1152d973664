package library

import (
	"context"
	"time"

	"github.com/bookwormapp/bookworm/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type ListByStatusOptions struct {
	UserID int
	Status string
	Search *string

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// UpsertStatus is the single mutation path for a user's relationship to a
// book. It is a last-write-wins replace: status, rating, and review are all
// overwritten and created_at is refreshed as the last-modified time. The
// conflict clause makes the insert-or-update atomic, so concurrent requests
// for the same (user, book) pair can never produce duplicate rows. Unknown
// statuses are coerced rather than rejected.
func (svc *Service) UpsertStatus(ctx context.Context, userBook *models.UserBook) error {
	userBook.Status = models.CoerceStatus(userBook.Status)
	userBook.CreatedAt = time.Now()

	_, err := svc.db.
		NewInsert().
		Model(userBook).
		On("CONFLICT (user_id, book_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("rating = EXCLUDED.rating").
		Set("review = EXCLUDED.review").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Remove deletes the user's shelf entry for a book. Removing an absent entry
// is a no-op.
func (svc *Service) Remove(ctx context.Context, userID, bookID int) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.UserBook)(nil)).
		Where("user_id = ?", userID).
		Where("book_id = ?", bookID).
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) ListByStatus(ctx context.Context, opts ListByStatusOptions) ([]*models.UserBook, error) {
	ub, _, err := svc.listByStatusWithTotal(ctx, opts)
	return ub, errors.WithStack(err)
}

func (svc *Service) ListByStatusWithTotal(ctx context.Context, opts ListByStatusOptions) ([]*models.UserBook, int, error) {
	opts.includeTotal = true
	return svc.listByStatusWithTotal(ctx, opts)
}

func (svc *Service) listByStatusWithTotal(ctx context.Context, opts ListByStatusOptions) ([]*models.UserBook, int, error) {
	userBooks := []*models.UserBook{}
	var total int
	var err error

	// Ordered by the personal rating, not the catalog one. Unrated entries
	// sort last, with book_id as a stable tiebreaker.
	q := svc.db.
		NewSelect().
		Model(&userBooks).
		Relation("Book").
		Where("ub.user_id = ?", opts.UserID).
		Where("ub.status = ?", models.CoerceStatus(opts.Status)).
		Order("ub.rating DESC NULLS LAST", "ub.book_id ASC")

	if opts.Search != nil && *opts.Search != "" {
		pattern := "%" + *opts.Search + "%"
		q = q.Join("JOIN books b ON b.id = ub.book_id").
			Where("(b.title LIKE ? OR b.author LIKE ?)", pattern, pattern)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return userBooks, total, nil
}
