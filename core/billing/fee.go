package billing

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/malipo/core"
)

func (svc *Service) CreateFee(ctx context.Context, nf NewFee) (Fee, error) {
	nf.clean()
	if err := svc.validate.Struct(nf); err != nil {
		return Fee{}, err
	}
	if err := svc.studentExists(ctx, nf.StudentID, "studentId"); err != nil {
		return Fee{}, err
	}
	return svc.fees.InsertFee(ctx, Fee{
		StudentID: nf.StudentID,
		Amount:    nf.Amount,
		PaidDate:  nf.PaidDate,
		MonthPaid: null.NewString(nf.MonthPaid, nf.MonthPaid != ""),
		Status:    nf.Status,
		CreatedAt: nowFunc().UTC(),
	})
}

func (svc *Service) GetFee(ctx context.Context, id int64) (Fee, error) {
	return svc.fees.GetFee(ctx, id)
}

func (svc *Service) QueryFees(ctx context.Context, filter FeeFilter, p core.Pagination) ([]Fee, core.PageInfo, error) {
	if filter.Status != "" && filter.Status != FeeStatusPaid && filter.Status != FeeStatusPending {
		err := core.NewValidationError(nil, core.FieldError{Field: "status", Error: "must be one of: Paid, Pending"})
		return nil, core.PageInfo{}, err
	}
	p.Clean(MaxFeePageSize)
	fees, total, err := svc.fees.QueryFees(ctx, filter, p)
	if err != nil {
		return nil, core.PageInfo{}, err
	}
	return fees, core.NewPageInfo(p, total), nil
}

// Summary rolls the fee ledger up for the dashboards. It never reads invoices or payments.
func (svc *Service) Summary(ctx context.Context) (Summary, error) {
	var (
		sum Summary
		err error
	)
	if sum.TotalPaid, err = svc.fees.SumFees(ctx, FeeSumFilter{Status: FeeStatusPaid}); err != nil {
		return Summary{}, errors.Wrap(err, "summing paid fees")
	}
	if sum.TotalPending, err = svc.fees.SumFees(ctx, FeeSumFilter{Status: FeeStatusPending}); err != nil {
		return Summary{}, errors.Wrap(err, "summing pending fees")
	}
	thisMonth := FeeSumFilter{Status: FeeStatusPaid, MonthPaid: svc.Today().MonthToken()}
	if sum.ThisMonth, err = svc.fees.SumFees(ctx, thisMonth); err != nil {
		return Summary{}, errors.Wrap(err, "summing this month fees")
	}
	if sum.TotalStudents, err = svc.students.CountStudents(ctx); err != nil {
		return Summary{}, errors.Wrap(err, "counting students")
	}
	return sum, nil
}

func (svc *Service) StudentSummary(ctx context.Context, studentID int64) (StudentSummary, error) {
	var err error
	sum := StudentSummary{StudentID: studentID}
	if sum.TotalPaid, err = svc.fees.SumFees(ctx, FeeSumFilter{StudentID: studentID, Status: FeeStatusPaid}); err != nil {
		return StudentSummary{}, errors.Wrap(err, "summing paid fees")
	}
	if sum.TotalPending, err = svc.fees.SumFees(ctx, FeeSumFilter{StudentID: studentID, Status: FeeStatusPending}); err != nil {
		return StudentSummary{}, errors.Wrap(err, "summing pending fees")
	}
	return sum, nil
}
