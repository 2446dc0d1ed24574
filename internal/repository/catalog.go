package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/astlibr/loan-service/internal/errs"
	"github.com/astlibr/loan-service/internal/model"
)

var bookColumns = []string{
	"id", "title", "author", "isbn", "category", "location",
	"total_copies", "available_copies",
}

func (r *repository) GetBook(ctx context.Context, bookID int64) (model.Book, error) {
	return r.getBook(ctx, sq.Eq{"id": bookID})
}

func (r *repository) GetBookByISBN(ctx context.Context, isbn string) (model.Book, error) {
	return r.getBook(ctx, sq.Eq{"isbn": isbn})
}

func (r *repository) getBook(ctx context.Context, where sq.Eq) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}

// ReserveCopy takes one available copy off the shelf. The decrement is
// guarded so two concurrent issues cannot both take the last copy.
func (r *repository) ReserveCopy(ctx context.Context, bookID int64) error {
	q := `
update books
    set available_copies = available_copies - 1, updated_at = now()
where id = $1 and available_copies > 0`

	res, err := r.db.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNoCopies
	}
	return nil
}

// ReleaseCopy puts a copy back, capped at total_copies.
func (r *repository) ReleaseCopy(ctx context.Context, bookID int64) error {
	q := `
update books
    set available_copies = available_copies + 1, updated_at = now()
where id = $1 and available_copies < total_copies`

	res, err := r.db.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		r.log.Warn("ReleaseCopy: book already at total_copies", zap.Int64("book_id", bookID))
	}
	return nil
}
