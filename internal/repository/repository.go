package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/astlibr/loan-service/internal/model"
)

type Repository interface {
	GetBook(ctx context.Context, bookID int64) (model.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (model.Book, error)
	ReserveCopy(ctx context.Context, bookID int64) error
	ReleaseCopy(ctx context.Context, bookID int64) error

	GetActiveStudent(ctx context.Context, studentNumber string) (model.Member, error)
	GetStudent(ctx context.Context, studentNumber string) (model.Member, error)

	CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error)
	GetLoan(ctx context.Context, loanUid string) (model.Loan, error)
	GetLoanView(ctx context.Context, loanUid string) (model.LoanView, error)
	HasActiveLoan(ctx context.Context, bookID, memberID int64) (bool, error)
	CloseLoan(ctx context.Context, loanID int64, returnedAt time.Time, fine int) (model.Loan, error)
	MarkOverdue(ctx context.Context, loanID int64, fine int) (bool, error)

	ListLoans(ctx context.Context, status model.Status, page, size int) (model.ListLoans, error)
	MemberLoans(ctx context.Context, memberID int64) ([]model.LoanView, error)
	OutstandingFine(ctx context.Context, memberID int64) (int, error)
	OverdueCandidates(ctx context.Context, now time.Time) ([]model.LoanView, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName   = `books`
	membersTableName = `members`
	loansTableName   = `loans`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var loanColumns = []string{
	"id", "loan_uid", "book_id", "member_id",
	"issue_date", "due_date", "return_date", "fine_amount", "status",
}

// loanViewColumns resolves book and member display fields alongside the loan.
var loanViewColumns = []string{
	"l.id", "l.loan_uid", "l.book_id", "l.member_id",
	"l.issue_date", "l.due_date", "l.return_date", "l.fine_amount", "l.status",
	"b.title as book_title", "b.author as book_author",
	"b.isbn as book_isbn", "b.location as book_location",
	"m.name as student_name", "m.email as student_email", "m.student_number",
}

func loanViewQuery() sq.SelectBuilder {
	return qb.Select(loanViewColumns...).
		From(loansTableName + " l").
		Join(booksTableName + " b on b.id = l.book_id").
		Join(membersTableName + " m on m.id = l.member_id")
}
