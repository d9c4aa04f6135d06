package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
)

var (
	invoiceColumns = []string{
		"id", "student_id", "invoice_number", "description", "total_amount", "paid_amount",
		"due_date", "status", "created_at", "updated_at",
	}
	invoiceRowColumns = []string{
		"i.id", "i.student_id", "i.invoice_number", "i.description", "i.total_amount", "i.paid_amount",
		"i.due_date", "i.status", "i.created_at", "i.updated_at",
		"s.name AS student_name", "s.roll_number", "s.class",
	}
)

// effectiveStatusSQL is billing.EffectiveStatus evaluated by the database, against the date parameter.
const effectiveStatusSQL = "CASE WHEN i.status <> 'Paid' AND i.due_date < ? THEN 'Overdue' ELSE i.status END"

type invoiceRepository struct {
	repository
}

var _ billing.InvoiceRepository = (*invoiceRepository)(nil) // interface compliance check

func NewInvoiceRepository(db *sqlx.DB) *invoiceRepository {
	return &invoiceRepository{repository: newRepository(db)}
}

func (repo invoiceRepository) InsertInvoice(ctx context.Context, inv billing.Invoice, exec ...core.DBExecutor) (billing.Invoice, error) {
	query := repo.sb.Insert("invoice").
		Columns(invoiceColumns[1:]...).
		Values(
			inv.StudentID, inv.InvoiceNumber, inv.Description, inv.TotalAmount, inv.PaidAmount,
			inv.DueDate, inv.Status, inv.CreatedAt.UTC(), inv.UpdatedAt.UTC(),
		).
		Suffix("ON CONFLICT (invoice_number) DO NOTHING RETURNING id")
	if err := repo.get(ctx, repo.getExec(exec), &inv.ID, query); err != nil {
		// no row returned: the invoice number is taken
		return billing.Invoice{}, trapNoRowsErr(err, billing.ErrDuplicateInvoiceNumber, "inserting invoice")
	}
	return inv, nil
}

func (repo invoiceRepository) GetInvoice(ctx context.Context, id int64, exec ...core.DBExecutor) (billing.Invoice, error) {
	var inv billing.Invoice
	query := repo.sb.Select(invoiceColumns...).From("invoice").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, repo.getExec(exec), &inv, query); err != nil {
		return billing.Invoice{}, trapNoRowsErr(err, billing.ErrInvoiceNotFound, "getting invoice")
	}
	return inv, nil
}

func (repo invoiceRepository) rowsQuery(columns ...string) sq.SelectBuilder {
	return repo.sb.Select(columns...).From("invoice i").Join("student s ON s.id = i.student_id")
}

func (repo invoiceRepository) GetInvoiceRow(ctx context.Context, id int64, exec ...core.DBExecutor) (billing.InvoiceRow, error) {
	var row billing.InvoiceRow
	query := repo.rowsQuery(invoiceRowColumns...).Where(sq.Eq{"i.id": id})
	if err := repo.get(ctx, repo.getExec(exec), &row, query); err != nil {
		return billing.InvoiceRow{}, trapNoRowsErr(err, billing.ErrInvoiceNotFound, "getting invoice")
	}
	return row, nil
}

func invoiceFilterWhere(filter billing.InvoiceFilter, today core.Date) sq.And {
	where := sq.And{}
	if filter.StudentID > 0 {
		where = append(where, sq.Eq{"i.student_id": filter.StudentID})
	}
	if filter.Status != "" {
		where = append(where, sq.Expr(effectiveStatusSQL+" = ?", today, filter.Status))
	}
	return where
}

func (repo invoiceRepository) QueryInvoices(
	ctx context.Context,
	filter billing.InvoiceFilter,
	today core.Date,
	ord core.DBOrdering,
	p core.Pagination,
	exec ...core.DBExecutor,
) ([]billing.InvoiceRow, int, error) {
	ex := repo.getExec(exec)
	where := invoiceFilterWhere(filter, today)

	total, err := repo.count(ctx, ex, repo.rowsQuery("COUNT(*)").Where(where))
	if err != nil {
		return nil, 0, err
	}

	rows := make([]billing.InvoiceRow, 0, p.Limit)
	ordering := core.DBOrdering{Field: "i." + ord.Field, Ascending: ord.Ascending}
	query := paginate(repo.rowsQuery(invoiceRowColumns...).Where(where).OrderBy(ordering.String(), "i.id DESC"), p)
	if err = repo.selectAll(ctx, ex, &rows, query); err != nil {
		return nil, 0, errors.Wrap(err, "querying invoices")
	}
	return rows, total, nil
}

func (repo invoiceRepository) updateOne(ctx context.Context, exec core.DBExecutor, query sq.UpdateBuilder, msg string) error {
	affected, err := repo.execAffected(ctx, exec, query.Set("updated_at", time.Now().UTC()))
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if affected == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

func (repo invoiceRepository) AddPaidAmount(ctx context.Context, id int64, delta core.Money, exec ...core.DBExecutor) error {
	query := repo.sb.Update("invoice").
		Set("paid_amount", sq.Expr("paid_amount + ?", delta)).
		Where(sq.Eq{"id": id})
	return repo.updateOne(ctx, repo.getExec(exec), query, "updating invoice paid amount")
}

func (repo invoiceRepository) SetInvoiceStatus(ctx context.Context, id int64, status billing.Status, exec ...core.DBExecutor) error {
	query := repo.sb.Update("invoice").Set("status", status).Where(sq.Eq{"id": id})
	return repo.updateOne(ctx, repo.getExec(exec), query, "updating invoice status")
}

func (repo invoiceRepository) DeleteInvoice(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	affected, err := repo.execAffected(ctx, repo.getExec(exec), repo.sb.Delete("invoice").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting invoice")
	}
	if affected == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

func (repo invoiceRepository) MarkOverdue(ctx context.Context, today core.Date, exec ...core.DBExecutor) (int64, error) {
	query := repo.sb.Update("invoice").
		Set("status", billing.StatusOverdue).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Lt{"due_date": today}).
		Where(sq.NotEq{"status": []billing.Status{billing.StatusPaid, billing.StatusOverdue}})
	affected, err := repo.execAffected(ctx, repo.getExec(exec), query)
	if err != nil {
		return 0, errors.Wrap(err, "marking overdue invoices")
	}
	return affected, nil
}
