package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/astlibr/loan-service/internal/errs"
	"github.com/astlibr/loan-service/internal/model"
)

func (r *repository) CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	q, args, err := qb.Insert(loansTableName).
		Columns("loan_uid", "book_id", "member_id", "issue_date", "due_date", "fine_amount", "status").
		Values(loan.LoanUid, loan.BookID, loan.MemberID, loan.IssueDate, loan.DueDate, loan.FineAmount, loan.Status).
		Suffix("returning " + strings.Join(loanColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var created model.Loan
	if err := r.db.GetContext(ctx, &created, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Loan{}, errs.ErrDuplicateLoan
		}
		r.log.Error("CreateLoan", zap.String("q", q), zap.Any("args", args))
		return model.Loan{}, err
	}
	return created, nil
}

func (r *repository) GetLoan(ctx context.Context, loanUid string) (model.Loan, error) {
	q, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"loan_uid": loanUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrLoanNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *repository) GetLoanView(ctx context.Context, loanUid string) (model.LoanView, error) {
	q, args, err := loanViewQuery().
		Where(sq.Eq{"l.loan_uid": loanUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.LoanView{}, err
	}

	var view model.LoanView
	if err := r.db.GetContext(ctx, &view, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LoanView{}, errs.ErrLoanNotFound
		}
		return model.LoanView{}, err
	}
	return view, nil
}

func (r *repository) HasActiveLoan(ctx context.Context, bookID, memberID int64) (bool, error) {
	q := `
	select exists(
		select 1 from loans
		where book_id = $1 and member_id = $2 and status in ('issued', 'overdue')
	)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, bookID, memberID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CloseLoan settles a loan and puts its copy back in one transaction.
// The status guard makes a second concurrent return lose cleanly instead
// of double-incrementing availability.
func (r *repository) CloseLoan(ctx context.Context, loanID int64, returnedAt time.Time, fine int) (model.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Loan{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	q := `
update loans
	set status = 'returned', return_date = $2, fine_amount = $3, updated_at = now()
where id = $1 and status <> 'returned'
returning ` + strings.Join(loanColumns, ", ")

	var loan model.Loan
	if err := tx.GetContext(ctx, &loan, q, loanID, returnedAt, fine); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrAlreadyReturned
		}
		return model.Loan{}, err
	}

	release := `
update books
	set available_copies = available_copies + 1, updated_at = now()
where id = $1 and available_copies < total_copies`
	if _, err := tx.ExecContext(ctx, release, loan.BookID); err != nil {
		return model.Loan{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Loan{}, err
	}
	return loan, nil
}

// MarkOverdue transitions a loan to overdue only if it is still issued,
// so overlapping sweep runs never double-process a loan. Reports whether
// the transition happened.
func (r *repository) MarkOverdue(ctx context.Context, loanID int64, fine int) (bool, error) {
	q := `
update loans
	set status = 'overdue', fine_amount = $2, updated_at = now()
where id = $1 and status = 'issued'`

	res, err := r.db.ExecContext(ctx, q, loanID, fine)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) ListLoans(ctx context.Context, status model.Status, page, size int) (model.ListLoans, error) {
	q := loanViewQuery().OrderBy("l.id desc")
	countQ := qb.Select("count(*)").From(loansTableName)
	if status != "" {
		q = q.Where(sq.Eq{"l.status": status})
		countQ = countQ.Where(sq.Eq{"status": status})
	}
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListLoans{}, err
	}
	var loans []model.LoanView
	if err := r.db.SelectContext(ctx, &loans, query, args...); err != nil {
		return model.ListLoans{}, err
	}

	query, args, err = countQ.ToSql()
	if err != nil {
		return model.ListLoans{}, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return model.ListLoans{}, err
	}

	return model.ListLoans{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: loans,
	}, nil
}

func (r *repository) MemberLoans(ctx context.Context, memberID int64) ([]model.LoanView, error) {
	q, args, err := loanViewQuery().
		Where(sq.Eq{"l.member_id": memberID}).
		OrderBy("l.id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var loans []model.LoanView
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *repository) OutstandingFine(ctx context.Context, memberID int64) (int, error) {
	q := `
	select coalesce(sum(fine_amount), 0) from loans
	where member_id = $1 and status in ('issued', 'overdue')
`
	var total int
	if err := r.db.QueryRowContext(ctx, q, memberID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) OverdueCandidates(ctx context.Context, now time.Time) ([]model.LoanView, error) {
	q, args, err := loanViewQuery().
		Where(sq.Eq{"l.status": model.StatusIssued}).
		Where(sq.Lt{"l.due_date": now}).
		OrderBy("l.due_date").
		ToSql()
	if err != nil {
		return nil, err
	}
	var loans []model.LoanView
	if err := r.db.SelectContext(ctx, &loans, q, args...); err != nil {
		return nil, err
	}
	return loans, nil
}
