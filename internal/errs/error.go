package errs

import (
	"errors"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrMemberNotFound = errors.New("student not found")
	ErrLoanNotFound   = errors.New("loan record not found")

	ErrNoCopies        = errors.New("no copies available for this book")
	ErrDuplicateLoan   = errors.New("student already has this book issued")
	ErrAlreadyReturned = errors.New("book already returned")

	ErrUserName = errors.New("username is required")
)
