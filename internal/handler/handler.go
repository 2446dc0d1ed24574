package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/astlibr/loan-service/internal/errs"
	"github.com/astlibr/loan-service/internal/model"
	"github.com/astlibr/loan-service/pkg/validate"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Handler struct {
	loanSvc LoanService
	log     *zap.Logger
}

func New(loanSvc LoanService, log *zap.Logger) *Handler {
	return &Handler{
		loanSvc: loanSvc,
		log:     log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(requestLoggerConfig()),
		middleware.RequestID(),
		newRateLimiterMW(apiRPS),
	)

	api.POST("/loans", h.IssueLoan)
	api.POST("/loans/:loanUid/return", h.ReturnLoan)
	api.GET("/loans", h.ListLoans)
	api.GET("/loans/member/:studentNumber", h.GetMemberLoans)

	api.GET("/books/:id", h.GetBook)
	api.GET("/books/isbn/:isbn", h.GetBookByISBN)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) IssueLoan(c echo.Context) error {
	actor, err := actingUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req model.IssueLoanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	loan, err := h.loanSvc.IssueLoan(ctx, actor, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

func (h *Handler) ReturnLoan(c echo.Context) error {
	actor, err := actingUser(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	loanUid := c.Param("loanUid")
	if loanUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "loanUid is empty")
	}

	ctx := c.Request().Context()
	loan, err := h.loanSvc.ReturnLoan(ctx, actor, loanUid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) ListLoans(c echo.Context) error {
	status := model.Status(c.QueryParam("status"))
	switch status {
	case "", model.StatusIssued, model.StatusOverdue, model.StatusReturned:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	page, size := pageParams(c)

	ctx := c.Request().Context()
	loans, err := h.loanSvc.ListLoans(ctx, status, page, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) GetMemberLoans(c echo.Context) error {
	studentNumber := c.Param("studentNumber")
	if studentNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "studentNumber is empty")
	}

	ctx := c.Request().Context()
	loans, err := h.loanSvc.GetMemberLoans(ctx, studentNumber)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	ctx := c.Request().Context()
	book, err := h.loanSvc.GetBook(ctx, bookID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) GetBookByISBN(c echo.Context) error {
	isbn := c.Param("isbn")
	if isbn == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "isbn is empty")
	}

	ctx := c.Request().Context()
	book, err := h.loanSvc.GetBookByISBN(ctx, isbn)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrBookNotFound),
		errors.Is(err, errs.ErrMemberNotFound),
		errors.Is(err, errs.ErrLoanNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrNoCopies),
		errors.Is(err, errs.ErrDuplicateLoan),
		errors.Is(err, errs.ErrAlreadyReturned):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
