package billing

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
)

const maxInvoiceNumberAttempts = 5

var invoiceNumberFunc = newInvoiceNumber // mockable

// newInvoiceNumber returns INV-<unix millis>-<3 random digits>.
func newInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%d-%03d", now.UnixMilli(), rand.Intn(1000))
}

// insertInvoice inserts inv under a fresh invoice number, regenerating it on collisions.
func (svc *Service) insertInvoice(ctx context.Context, inv Invoice, exec ...core.DBExecutor) (Invoice, error) {
	for attempt := 0; attempt < maxInvoiceNumberAttempts; attempt++ {
		inv.InvoiceNumber = invoiceNumberFunc(nowFunc())
		created, err := svc.invoices.InsertInvoice(ctx, inv, exec...)
		if err != ErrDuplicateInvoiceNumber {
			return created, err
		}
	}
	return Invoice{}, ErrDuplicateInvoiceNumber
}

func newPendingInvoice(studentID int64, description string, total core.Money, due core.Date) Invoice {
	now := nowFunc().UTC()
	return Invoice{
		StudentID:   studentID,
		Description: description,
		TotalAmount: total,
		PaidAmount:  core.ZeroMoney,
		DueDate:     due,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (svc *Service) CreateInvoice(ctx context.Context, ni NewInvoice) (Invoice, error) {
	ni.clean()
	if err := svc.validate.Struct(ni); err != nil {
		return Invoice{}, err
	}
	if err := svc.studentExists(ctx, ni.StudentID, "studentId"); err != nil {
		return Invoice{}, err
	}
	return svc.insertInvoice(ctx, newPendingInvoice(ni.StudentID, ni.Description, ni.TotalAmount, ni.DueDate))
}

func (svc *Service) GetInvoice(ctx context.Context, id int64) (InvoiceDetail, error) {
	row, err := svc.invoices.GetInvoiceRow(ctx, id)
	if err != nil {
		return InvoiceDetail{}, err
	}
	row.decorate(svc.Today())

	payments, err := svc.payments.ListInvoicePayments(ctx, id)
	if err != nil {
		return InvoiceDetail{}, errors.Wrap(err, "listing invoice payments")
	}
	return InvoiceDetail{Invoice: row, Payments: payments}, nil
}

func (svc *Service) QueryInvoices(ctx context.Context, filter InvoiceFilter, ord core.DBOrdering, p core.Pagination) ([]InvoiceRow, core.PageInfo, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		err := core.NewValidationError(nil, core.FieldError{Field: "status", Error: invoiceStatusChoices})
		return nil, core.PageInfo{}, err
	}
	if !isInvoiceOrderingField(ord.Field) {
		ord = DefaultInvoiceOrdering
	}
	p.Clean()

	today := svc.Today()
	rows, total, err := svc.invoices.QueryInvoices(ctx, filter, today, ord, p)
	if err != nil {
		return nil, core.PageInfo{}, err
	}
	for i := range rows {
		rows[i].decorate(today)
	}
	return rows, core.NewPageInfo(p, total), nil
}

func isInvoiceOrderingField(field string) bool {
	for _, f := range InvoiceOrderingFields {
		if f == field {
			return true
		}
	}
	return false
}

// UpdateInvoiceStatus overrides the stored status. The next payment mutation reconciles it again.
func (svc *Service) UpdateInvoiceStatus(ctx context.Context, id int64, us UpdateInvoiceStatus) (InvoiceRow, error) {
	if err := svc.validate.Struct(us); err != nil {
		return InvoiceRow{}, err
	}
	if err := svc.invoices.SetInvoiceStatus(ctx, id, us.Status); err != nil {
		return InvoiceRow{}, err
	}
	row, err := svc.invoices.GetInvoiceRow(ctx, id)
	if err != nil {
		return InvoiceRow{}, err
	}
	row.decorate(svc.Today())
	return row, nil
}

// DeleteInvoice deletes the invoice & its payments.
func (svc *Service) DeleteInvoice(ctx context.Context, id int64) error {
	return svc.invoices.DeleteInvoice(ctx, id)
}

// MarkOverdue persists the Overdue status of every unpaid invoice past its due date, and
// returns how many invoices changed.
func (svc *Service) MarkOverdue(ctx context.Context) (int64, error) {
	return svc.invoices.MarkOverdue(ctx, svc.Today())
}
