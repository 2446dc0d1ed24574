package model

import "time"

type Status string

const (
	StatusIssued   Status = "issued"
	StatusOverdue  Status = "overdue"
	StatusReturned Status = "returned"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

type Book struct {
	ID              int64  `json:"id" db:"id"`
	Title           string `json:"title" db:"title"`
	Author          string `json:"author" db:"author"`
	ISBN            string `json:"isbn" db:"isbn"`
	Category        string `json:"category" db:"category"`
	Location        string `json:"location" db:"location"`
	TotalCopies     int    `json:"totalCopies" db:"total_copies"`
	AvailableCopies int    `json:"availableCopies" db:"available_copies"`
}

type Member struct {
	ID            int64  `json:"id" db:"id"`
	MemberUid     string `json:"memberUid" db:"member_uid"`
	Name          string `json:"name" db:"name"`
	Email         string `json:"email" db:"email"`
	StudentNumber string `json:"studentNumber" db:"student_number"`
	Role          Role   `json:"role" db:"role"`
	IsActive      bool   `json:"isActive" db:"is_active"`
}

type Loan struct {
	ID         int64      `json:"-" db:"id"`
	LoanUid    string     `json:"loanUid" db:"loan_uid"`
	BookID     int64      `json:"bookId" db:"book_id"`
	MemberID   int64      `json:"memberId" db:"member_id"`
	IssueDate  time.Time  `json:"issueDate" db:"issue_date"`
	DueDate    time.Time  `json:"dueDate" db:"due_date"`
	ReturnDate *time.Time `json:"returnDate,omitempty" db:"return_date"`
	FineAmount int        `json:"fineAmount" db:"fine_amount"`
	Status     Status     `json:"status" db:"status"`
}

// LoanView is a Loan with book and member fields resolved for display.
type LoanView struct {
	Loan
	BookTitle     string `json:"bookTitle" db:"book_title"`
	BookAuthor    string `json:"bookAuthor" db:"book_author"`
	BookISBN      string `json:"bookIsbn" db:"book_isbn"`
	BookLocation  string `json:"bookLocation" db:"book_location"`
	StudentName   string `json:"studentName" db:"student_name"`
	StudentEmail  string `json:"studentEmail" db:"student_email"`
	StudentNumber string `json:"studentNumber" db:"student_number"`
}

type IssueLoanRequest struct {
	BookID        int64      `json:"bookId" validate:"required"`
	StudentNumber string     `json:"studentNumber" validate:"required"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListLoans struct {
	Paging `json:",inline"`
	Items  []LoanView `json:"items"`
}

type MemberLoans struct {
	Loans     []LoanView `json:"loans"`
	TotalFine int        `json:"totalFine"`
}
