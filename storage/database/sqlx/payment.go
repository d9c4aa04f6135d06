package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
)

var (
	paymentColumns    = []string{"id", "invoice_id", "amount", "payment_date", "payment_method", "notes", "created_at"}
	paymentRowColumns = []string{
		"p.id", "p.invoice_id", "p.amount", "p.payment_date", "p.payment_method", "p.notes", "p.created_at",
		"i.invoice_number", "i.description AS invoice_description", "i.student_id",
		"s.name AS student_name", "s.roll_number", "s.class",
	}
)

type paymentRepository struct {
	repository
}

var _ billing.PaymentRepository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{repository: newRepository(db)}
}

func (repo paymentRepository) InsertPayment(ctx context.Context, pmt billing.Payment, exec ...core.DBExecutor) (billing.Payment, error) {
	query := repo.sb.Insert("payment").
		Columns(paymentColumns[1:]...).
		Values(pmt.InvoiceID, pmt.Amount, pmt.PaymentDate, pmt.PaymentMethod, pmt.Notes, pmt.CreatedAt.UTC()).
		Suffix("RETURNING id")
	if err := repo.get(ctx, repo.getExec(exec), &pmt.ID, query); err != nil {
		return billing.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pmt, nil
}

func (repo paymentRepository) DeletePayment(ctx context.Context, id int64, exec ...core.DBExecutor) (billing.Payment, error) {
	var pmt billing.Payment
	query := repo.sb.Delete("payment").
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(paymentColumns, ", "))
	if err := repo.get(ctx, repo.getExec(exec), &pmt, query); err != nil {
		return billing.Payment{}, trapNoRowsErr(err, billing.ErrPaymentNotFound, "deleting payment")
	}
	return pmt, nil
}

func (repo paymentRepository) rowsQuery(columns ...string) sq.SelectBuilder {
	return repo.sb.Select(columns...).
		From("payment p").
		Join("invoice i ON i.id = p.invoice_id").
		Join("student s ON s.id = i.student_id")
}

func (repo paymentRepository) QueryPayments(ctx context.Context, filter billing.PaymentFilter, p core.Pagination, exec ...core.DBExecutor) ([]billing.PaymentRow, int, error) {
	ex := repo.getExec(exec)
	where := sq.Eq{}
	if filter.StudentID > 0 {
		where["i.student_id"] = filter.StudentID
	}
	if filter.InvoiceID > 0 {
		where["p.invoice_id"] = filter.InvoiceID
	}

	total, err := repo.count(ctx, ex, repo.rowsQuery("COUNT(*)").Where(where))
	if err != nil {
		return nil, 0, err
	}

	rows := make([]billing.PaymentRow, 0, p.Limit)
	query := paginate(repo.rowsQuery(paymentRowColumns...).Where(where).OrderBy("p.payment_date DESC", "p.id DESC"), p)
	if err = repo.selectAll(ctx, ex, &rows, query); err != nil {
		return nil, 0, errors.Wrap(err, "querying payments")
	}
	return rows, total, nil
}

func (repo paymentRepository) ListInvoicePayments(ctx context.Context, invoiceID int64, exec ...core.DBExecutor) ([]billing.PaymentRow, error) {
	rows := make([]billing.PaymentRow, 0)
	query := repo.rowsQuery(paymentRowColumns...).
		Where(sq.Eq{"p.invoice_id": invoiceID}).
		OrderBy("p.payment_date DESC", "p.id DESC")
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, query); err != nil {
		return nil, errors.Wrap(err, "listing invoice payments")
	}
	return rows, nil
}
