package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"os"

	"github.com/bookwormapp/bookworm/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// recordBufferSize bounds the channel between the CSV reader and the single
// store writer. The store serializes writes through the uniqueness
// constraint, so the reader is backpressured instead of flooding it.
const recordBufferSize = 64

// Pipeline bulk-loads the shared catalog from a CSV source. Running it is a
// full replace of the catalog, never an incremental merge: existing rows
// (and the shelf entries referencing them) are cleared first.
type Pipeline struct {
	db  *bun.DB
	log logger.Logger
}

func NewPipeline(db *bun.DB) *Pipeline {
	return &Pipeline{
		db:  db,
		log: logger.New(),
	}
}

// Run ingests the CSV file at sourcePath and returns the number of rows
// actually inserted. Duplicate and malformed records are excluded from the
// count. On a fatal store error the partial count is returned alongside it.
func (p *Pipeline) Run(ctx context.Context, sourcePath string) (int, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer f.Close()

	return p.RunFromReader(ctx, f)
}

// RunFromReader ingests CSV records from r. See Run.
func (p *Pipeline) RunFromReader(ctx context.Context, r io.Reader) (int, error) {
	if err := p.ensureDisplayOrderColumn(ctx); err != nil {
		return 0, err
	}
	if err := p.clearCatalog(ctx); err != nil {
		return 0, err
	}

	records := make(chan *models.Book, recordBufferSize)
	g, ctx := errgroup.WithContext(ctx)

	var skipped int
	g.Go(func() error {
		defer close(records)
		return p.produce(ctx, r, records, &skipped)
	})

	// A single writer keeps store writes sequential with respect to the
	// uniqueness constraint.
	var inserted int
	g.Go(func() error {
		for book := range records {
			created, err := p.insertBook(ctx, book)
			if err != nil {
				return err
			}
			if created {
				inserted++
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return inserted, errors.Wrap(err, "ingestion aborted")
	}

	p.log.Info("catalog seed finished", logger.Data{
		"inserted": inserted,
		"skipped":  skipped,
	})

	return inserted, nil
}

// produce reads and normalizes CSV records, pushing them onto the bounded
// channel. Records missing title or author are dropped and counted as
// skipped.
func (p *Pipeline) produce(ctx context.Context, r io.Reader, records chan<- *models.Book, skipped *int) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return errors.Wrap(err, "failed to read csv header")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	displayOrder := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to read csv record")
		}

		row := make(map[string]string, len(columns))
		for name, i := range columns {
			if i < len(record) {
				row[name] = record[i]
			}
		}

		displayOrder++
		book := normalizeRecord(row, displayOrder)
		if book == nil {
			*skipped++
			continue
		}

		select {
		case records <- book:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// insertBook writes a single catalog row, skipping duplicates on the
// case-insensitive (title, author) natural key. Re-running the pipeline is
// insert-if-absent, never upsert-latest.
func (p *Pipeline) insertBook(ctx context.Context, book *models.Book) (bool, error) {
	res, err := p.db.
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
	return rows > 0, nil
}

// ensureDisplayOrderColumn adds the display_order column if an older schema
// lacks it. Additive only, existing data is untouched.
func (p *Pipeline) ensureDisplayOrderColumn(ctx context.Context) error {
	var count int
	err := p.db.
		NewSelect().
		ColumnExpr("COUNT(*)").
		TableExpr("pragma_table_info('books')").
		Where("name = ?", "display_order").
		Scan(ctx, &count)
	if err != nil {
		return errors.WithStack(err)
	}
	if count > 0 {
		return nil
	}

	_, err = p.db.ExecContext(ctx, "ALTER TABLE books ADD COLUMN display_order INTEGER")
	return errors.WithStack(err)
}

// clearCatalog empties the catalog ahead of a reseed. Shelf entries
// referencing catalog rows go first, in the same transaction, so
// referential integrity holds even if the reseed is interrupted.
func (p *Pipeline) clearCatalog(ctx context.Context) error {
	return p.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.UserBook)(nil)).
			Where("1 = 1").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("1 = 1").
			Exec(ctx)
		return errors.WithStack(err)
	})
}
