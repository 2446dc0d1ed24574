package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/astlibr/loan-service/internal/errs"
	"github.com/astlibr/loan-service/internal/model"
	"github.com/astlibr/loan-service/internal/repository"
)

// fakeRepo is an in-memory repository with the same guarded-update
// semantics as the SQL one, so concurrency and invariant tests exercise
// the engine against realistic storage behavior.
type fakeRepo struct {
	mu      sync.Mutex
	books   map[int64]*model.Book
	members map[int64]*model.Member
	loans   map[int64]*model.Loan
	nextID  int64

	createErr error
	viewErr   error
}

var _ repository.Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		books:   make(map[int64]*model.Book),
		members: make(map[int64]*model.Member),
		loans:   make(map[int64]*model.Loan),
	}
}

func (f *fakeRepo) addBook(b model.Book) {
	f.books[b.ID] = &b
}

func (f *fakeRepo) addMember(m model.Member) {
	f.members[m.ID] = &m
}

func (f *fakeRepo) GetBook(_ context.Context, bookID int64) (model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok {
		return model.Book{}, errs.ErrBookNotFound
	}
	return *b, nil
}

func (f *fakeRepo) GetBookByISBN(_ context.Context, isbn string) (model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.ISBN == isbn {
			return *b, nil
		}
	}
	return model.Book{}, errs.ErrBookNotFound
}

func (f *fakeRepo) ReserveCopy(_ context.Context, bookID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok || b.AvailableCopies <= 0 {
		return errs.ErrNoCopies
	}
	b.AvailableCopies--
	return nil
}

func (f *fakeRepo) ReleaseCopy(_ context.Context, bookID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	if !ok {
		return errs.ErrBookNotFound
	}
	if b.AvailableCopies < b.TotalCopies {
		b.AvailableCopies++
	}
	return nil
}

func (f *fakeRepo) GetActiveStudent(_ context.Context, studentNumber string) (model.Member, error) {
	return f.findStudent(studentNumber, true)
}

func (f *fakeRepo) GetStudent(_ context.Context, studentNumber string) (model.Member, error) {
	return f.findStudent(studentNumber, false)
}

func (f *fakeRepo) findStudent(studentNumber string, activeOnly bool) (model.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members {
		if m.StudentNumber != studentNumber || m.Role != model.RoleStudent {
			continue
		}
		if activeOnly && !m.IsActive {
			continue
		}
		return *m, nil
	}
	return model.Member{}, errs.ErrMemberNotFound
}

func (f *fakeRepo) CreateLoan(_ context.Context, loan model.Loan) (model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return model.Loan{}, f.createErr
	}
	// partial unique index on active (book, member)
	for _, l := range f.loans {
		if l.BookID == loan.BookID && l.MemberID == loan.MemberID && l.Status != model.StatusReturned {
			return model.Loan{}, errs.ErrDuplicateLoan
		}
	}
	f.nextID++
	loan.ID = f.nextID
	f.loans[loan.ID] = &loan
	return loan, nil
}

func (f *fakeRepo) GetLoan(_ context.Context, loanUid string) (model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, err := f.findLoan(loanUid)
	if err != nil {
		return model.Loan{}, err
	}
	return *l, nil
}

func (f *fakeRepo) GetLoanView(_ context.Context, loanUid string) (model.LoanView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.viewErr != nil {
		return model.LoanView{}, f.viewErr
	}
	l, err := f.findLoan(loanUid)
	if err != nil {
		return model.LoanView{}, err
	}
	return f.view(*l), nil
}

func (f *fakeRepo) findLoan(loanUid string) (*model.Loan, error) {
	for _, l := range f.loans {
		if l.LoanUid == loanUid {
			return l, nil
		}
	}
	return nil, errs.ErrLoanNotFound
}

func (f *fakeRepo) view(l model.Loan) model.LoanView {
	v := model.LoanView{Loan: l}
	if b, ok := f.books[l.BookID]; ok {
		v.BookTitle, v.BookAuthor, v.BookISBN, v.BookLocation = b.Title, b.Author, b.ISBN, b.Location
	}
	if m, ok := f.members[l.MemberID]; ok {
		v.StudentName, v.StudentEmail, v.StudentNumber = m.Name, m.Email, m.StudentNumber
	}
	return v
}

func (f *fakeRepo) HasActiveLoan(_ context.Context, bookID, memberID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.loans {
		if l.BookID == bookID && l.MemberID == memberID && l.Status != model.StatusReturned {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CloseLoan(_ context.Context, loanID int64, returnedAt time.Time, fine int) (model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.loans[loanID]
	if !ok {
		return model.Loan{}, errs.ErrLoanNotFound
	}
	if l.Status == model.StatusReturned {
		return model.Loan{}, errs.ErrAlreadyReturned
	}
	l.Status = model.StatusReturned
	l.ReturnDate = &returnedAt
	l.FineAmount = fine
	if b, ok := f.books[l.BookID]; ok && b.AvailableCopies < b.TotalCopies {
		b.AvailableCopies++
	}
	return *l, nil
}

func (f *fakeRepo) MarkOverdue(_ context.Context, loanID int64, fine int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.loans[loanID]
	if !ok {
		return false, errors.New("no such loan")
	}
	if l.Status != model.StatusIssued {
		return false, nil
	}
	l.Status = model.StatusOverdue
	l.FineAmount = fine
	return true, nil
}

func (f *fakeRepo) ListLoans(_ context.Context, status model.Status, page, size int) (model.ListLoans, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []model.LoanView
	for _, l := range f.loans {
		if status != "" && l.Status != status {
			continue
		}
		items = append(items, f.view(*l))
	}
	return model.ListLoans{
		Paging: model.Paging{Page: page, PageSize: size, TotalElements: len(items)},
		Items:  items,
	}, nil
}

func (f *fakeRepo) MemberLoans(_ context.Context, memberID int64) ([]model.LoanView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []model.LoanView
	for _, l := range f.loans {
		if l.MemberID == memberID {
			items = append(items, f.view(*l))
		}
	}
	return items, nil
}

func (f *fakeRepo) OutstandingFine(_ context.Context, memberID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, l := range f.loans {
		if l.MemberID == memberID && l.Status != model.StatusReturned {
			total += l.FineAmount
		}
	}
	return total, nil
}

func (f *fakeRepo) OverdueCandidates(_ context.Context, now time.Time) ([]model.LoanView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []model.LoanView
	for _, l := range f.loans {
		if l.Status == model.StatusIssued && l.DueDate.Before(now) {
			items = append(items, f.view(*l))
		}
	}
	return items, nil
}

// activeLoans counts loans holding a copy of the given book.
func (f *fakeRepo) activeLoans(bookID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, l := range f.loans {
		if l.BookID == bookID && l.Status != model.StatusReturned {
			n++
		}
	}
	return n
}

func (f *fakeRepo) book(bookID int64) model.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.books[bookID]
}
