package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
)

var feeColumns = []string{"id", "student_id", "amount", "paid_date", "month_paid", "status", "created_at"}

type feeRepository struct {
	repository
}

var _ billing.FeeRepository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *sqlx.DB) *feeRepository {
	return &feeRepository{repository: newRepository(db)}
}

func (repo feeRepository) InsertFee(ctx context.Context, fee billing.Fee, exec ...core.DBExecutor) (billing.Fee, error) {
	query := repo.sb.Insert("fee").
		Columns(feeColumns[1:]...).
		Values(fee.StudentID, fee.Amount, fee.PaidDate, fee.MonthPaid, fee.Status, fee.CreatedAt.UTC()).
		Suffix("RETURNING id")
	if err := repo.get(ctx, repo.getExec(exec), &fee.ID, query); err != nil {
		return billing.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return fee, nil
}

func (repo feeRepository) GetFee(ctx context.Context, id int64, exec ...core.DBExecutor) (billing.Fee, error) {
	var fee billing.Fee
	query := repo.sb.Select(feeColumns...).From("fee").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, repo.getExec(exec), &fee, query); err != nil {
		return billing.Fee{}, trapNoRowsErr(err, billing.ErrFeeNotFound, "getting fee")
	}
	return fee, nil
}

func (repo feeRepository) QueryFees(ctx context.Context, filter billing.FeeFilter, p core.Pagination, exec ...core.DBExecutor) ([]billing.Fee, int, error) {
	ex := repo.getExec(exec)
	where := sq.And{}
	if filter.StudentID > 0 {
		where = append(where, sq.Eq{"student_id": filter.StudentID})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if !filter.From.IsZero() {
		where = append(where, sq.GtOrEq{"paid_date": filter.From})
	}
	if !filter.To.IsZero() {
		where = append(where, sq.LtOrEq{"paid_date": filter.To})
	}

	total, err := repo.count(ctx, ex, repo.sb.Select("COUNT(*)").From("fee").Where(where))
	if err != nil {
		return nil, 0, err
	}

	fees := make([]billing.Fee, 0, p.Limit)
	query := paginate(repo.sb.Select(feeColumns...).From("fee").Where(where).OrderBy("id DESC"), p)
	if err = repo.selectAll(ctx, ex, &fees, query); err != nil {
		return nil, 0, errors.Wrap(err, "querying fees")
	}
	return fees, total, nil
}

func (repo feeRepository) SumFees(ctx context.Context, filter billing.FeeSumFilter, exec ...core.DBExecutor) (core.Money, error) {
	where := sq.Eq{}
	if filter.StudentID > 0 {
		where["student_id"] = filter.StudentID
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	if filter.MonthPaid != "" {
		where["month_paid"] = filter.MonthPaid
	}

	var sum core.Money
	query := repo.sb.Select("COALESCE(SUM(amount), 0)").From("fee").Where(where)
	if err := repo.get(ctx, repo.getExec(exec), &sum, query); err != nil {
		return core.Money{}, errors.Wrap(err, "summing fees")
	}
	return sum, nil
}
