package handler

import (
	"context"

	"github.com/astlibr/loan-service/internal/model"
	"github.com/astlibr/loan-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LoanService interface {
	IssueLoan(ctx context.Context, actor string, req model.IssueLoanRequest) (model.LoanView, error)
	ReturnLoan(ctx context.Context, actor, loanUid string) (model.LoanView, error)
	ListLoans(ctx context.Context, status model.Status, page, size int) (model.ListLoans, error)
	GetMemberLoans(ctx context.Context, studentNumber string) (model.MemberLoans, error)
	GetBook(ctx context.Context, bookID int64) (model.Book, error)
	GetBookByISBN(ctx context.Context, isbn string) (model.Book, error)
}

var _ LoanService = (*service.Service)(nil)
