package service

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/astlibr/loan-service/config"
	"github.com/astlibr/loan-service/internal/errs"
	"github.com/astlibr/loan-service/internal/model"
	"github.com/astlibr/loan-service/internal/repository"
)

// Notifier delivers member-facing notices. Delivery is best-effort:
// the engine logs failures and never fails the parent operation on them.
type Notifier interface {
	SendIssueNotice(ctx context.Context, loan model.LoanView) error
	SendReturnNotice(ctx context.Context, loan model.LoanView) error
	SendOverdueReminder(ctx context.Context, loan model.LoanView) error
}

// AuditSink records who did what. Best-effort, same as Notifier.
type AuditSink interface {
	RecordEvent(ctx context.Context, action, actor string, details map[string]any) error
}

const (
	actionBookIssued    = "BOOK_ISSUED"
	actionBookReturned  = "BOOK_RETURNED"
	actionOverdueUpdate = "OVERDUE_AUTO_UPDATE"
)

type Service struct {
	log      *zap.Logger
	repo     repository.Repository
	notifier Notifier
	audit    AuditSink
	cfg      config.Loan
	now      func() time.Time
}

func NewService(repo repository.Repository, notifier Notifier, audit AuditSink, cfg config.Loan, log *zap.Logger) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		notifier: notifier,
		audit:    audit,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Fine is the number of whole or partial days past due times the daily charge.
// On-time returns owe nothing.
func Fine(now, dueDate time.Time, finePerDay int) int {
	if !now.After(dueDate) {
		return 0
	}
	daysLate := int(math.Ceil(now.Sub(dueDate).Hours() / 24))
	return daysLate * finePerDay
}

// IssueLoan hands a copy of the book to the student identified by the
// external student number. The copy is reserved with a guarded decrement
// before the loan row exists; if the insert then fails the copy is released,
// so nobody ever observes a loan without its decrement.
func (s *Service) IssueLoan(ctx context.Context, actor string, req model.IssueLoanRequest) (model.LoanView, error) {
	book, err := s.repo.GetBook(ctx, req.BookID)
	if err != nil {
		return model.LoanView{}, err
	}
	if book.AvailableCopies <= 0 {
		return model.LoanView{}, errs.ErrNoCopies
	}

	student, err := s.repo.GetActiveStudent(ctx, req.StudentNumber)
	if err != nil {
		return model.LoanView{}, err
	}

	active, err := s.repo.HasActiveLoan(ctx, book.ID, student.ID)
	if err != nil {
		return model.LoanView{}, err
	}
	if active {
		return model.LoanView{}, errs.ErrDuplicateLoan
	}

	now := s.now()
	dueDate := now.AddDate(0, 0, s.cfg.DefaultBorrowDays)
	if req.DueDate != nil && req.DueDate.After(now) {
		dueDate = *req.DueDate
	}

	if err := s.repo.ReserveCopy(ctx, book.ID); err != nil {
		return model.LoanView{}, err
	}

	loan, err := s.repo.CreateLoan(ctx, model.Loan{
		LoanUid:   uuid.New().String(),
		BookID:    book.ID,
		MemberID:  student.ID,
		IssueDate: now,
		DueDate:   dueDate,
		Status:    model.StatusIssued,
	})
	if err != nil {
		if releaseErr := s.repo.ReleaseCopy(ctx, book.ID); releaseErr != nil {
			s.log.Error("IssueLoan: release after failed create",
				zap.Int64("book_id", book.ID), zap.Error(releaseErr))
		}
		return model.LoanView{}, err
	}

	view := model.LoanView{
		Loan:          loan,
		BookTitle:     book.Title,
		BookAuthor:    book.Author,
		BookISBN:      book.ISBN,
		BookLocation:  book.Location,
		StudentName:   student.Name,
		StudentEmail:  student.Email,
		StudentNumber: student.StudentNumber,
	}

	if err := s.notifier.SendIssueNotice(ctx, view); err != nil {
		s.log.Warn("issue notice", zap.String("loan_uid", loan.LoanUid), zap.Error(err))
	}
	s.recordEvent(ctx, actionBookIssued, actor, map[string]any{
		"loanUid":       loan.LoanUid,
		"bookId":        book.ID,
		"memberId":      student.ID,
		"studentNumber": student.StudentNumber,
		"dueDate":       dueDate,
	})

	return view, nil
}

// ReturnLoan settles the loan. The fine is recomputed here from the due
// date and overwrites anything the sweep assigned in the meantime.
func (s *Service) ReturnLoan(ctx context.Context, actor, loanUid string) (model.LoanView, error) {
	view, err := s.repo.GetLoanView(ctx, loanUid)
	if err != nil {
		return model.LoanView{}, err
	}
	if view.Status == model.StatusReturned {
		return model.LoanView{}, errs.ErrAlreadyReturned
	}

	now := s.now()
	fine := Fine(now, view.DueDate, s.cfg.FinePerDay)

	// the display fields are resolved up front so a committed return is
	// never reported as a failure afterwards
	closed, err := s.repo.CloseLoan(ctx, view.ID, now, fine)
	if err != nil {
		return model.LoanView{}, err
	}
	view.Loan = closed

	if err := s.notifier.SendReturnNotice(ctx, view); err != nil {
		s.log.Warn("return notice", zap.String("loan_uid", loanUid), zap.Error(err))
	}
	s.recordEvent(ctx, actionBookReturned, actor, map[string]any{
		"loanUid":    loanUid,
		"bookId":     view.BookID,
		"memberId":   view.MemberID,
		"fineAmount": fine,
	})

	return view, nil
}

func (s *Service) ListLoans(ctx context.Context, status model.Status, page, size int) (model.ListLoans, error) {
	return s.repo.ListLoans(ctx, status, page, size)
}

// GetMemberLoans returns a student's loan history newest-first together
// with the total fine outstanding on active loans.
func (s *Service) GetMemberLoans(ctx context.Context, studentNumber string) (model.MemberLoans, error) {
	student, err := s.repo.GetStudent(ctx, studentNumber)
	if err != nil {
		return model.MemberLoans{}, err
	}
	loans, err := s.repo.MemberLoans(ctx, student.ID)
	if err != nil {
		return model.MemberLoans{}, err
	}
	totalFine, err := s.repo.OutstandingFine(ctx, student.ID)
	if err != nil {
		return model.MemberLoans{}, err
	}
	return model.MemberLoans{Loans: loans, TotalFine: totalFine}, nil
}

func (s *Service) GetBook(ctx context.Context, bookID int64) (model.Book, error) {
	return s.repo.GetBook(ctx, bookID)
}

func (s *Service) GetBookByISBN(ctx context.Context, isbn string) (model.Book, error) {
	return s.repo.GetBookByISBN(ctx, isbn)
}

// Sweep reclassifies every issued loan past its due date as overdue.
// A failure on one loan is logged and the rest of the batch continues.
func (s *Service) Sweep(ctx context.Context) error {
	now := s.now()
	candidates, err := s.repo.OverdueCandidates(ctx, now)
	if err != nil {
		return err
	}
	s.log.Info("overdue sweep", zap.Int("candidates", len(candidates)))

	for _, loan := range candidates {
		fine := Fine(now, loan.DueDate, s.cfg.FinePerDay)
		moved, err := s.repo.MarkOverdue(ctx, loan.ID, fine)
		if err != nil {
			s.log.Error("sweep: mark overdue", zap.String("loan_uid", loan.LoanUid), zap.Error(err))
			continue
		}
		if !moved {
			// lost to a concurrent return or a parallel sweep run
			continue
		}

		loan.Status = model.StatusOverdue
		loan.FineAmount = fine
		if err := s.notifier.SendOverdueReminder(ctx, loan); err != nil {
			s.log.Warn("overdue reminder", zap.String("loan_uid", loan.LoanUid), zap.Error(err))
		}
		s.recordEvent(ctx, actionOverdueUpdate, loan.StudentNumber, map[string]any{
			"loanUid":    loan.LoanUid,
			"bookId":     loan.BookID,
			"fineAmount": fine,
		})
	}
	return nil
}

func (s *Service) recordEvent(ctx context.Context, action, actor string, details map[string]any) {
	if err := s.audit.RecordEvent(ctx, action, actor, details); err != nil {
		s.log.Warn("audit event", zap.String("action", action), zap.Error(err))
	}
}
