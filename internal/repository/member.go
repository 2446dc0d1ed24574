package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/astlibr/loan-service/internal/errs"
	"github.com/astlibr/loan-service/internal/model"
)

var memberColumns = []string{
	"id", "member_uid", "name", "email", "student_number", "role", "is_active",
}

// GetActiveStudent resolves a member by the external student number,
// restricted to active students. Used on the issue path.
func (r *repository) GetActiveStudent(ctx context.Context, studentNumber string) (model.Member, error) {
	return r.getStudent(ctx, studentNumber, true)
}

// GetStudent resolves a student regardless of the active flag,
// for loan-history lookups.
func (r *repository) GetStudent(ctx context.Context, studentNumber string) (model.Member, error) {
	return r.getStudent(ctx, studentNumber, false)
}

func (r *repository) getStudent(ctx context.Context, studentNumber string, activeOnly bool) (model.Member, error) {
	q := qb.Select(memberColumns...).
		From(membersTableName).
		Where(sq.Eq{"student_number": studentNumber}).
		Where(sq.Eq{"role": model.RoleStudent}).
		Limit(1)
	if activeOnly {
		q = q.Where(sq.Eq{"is_active": true})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.Member{}, err
	}

	var member model.Member
	if err := r.db.GetContext(ctx, &member, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, errs.ErrMemberNotFound
		}
		return model.Member{}, err
	}
	return member, nil
}
