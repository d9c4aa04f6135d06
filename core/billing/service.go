package billing

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/student"
)

var (
	// errors
	ErrInvoiceNotFound        = core.NewNotFoundError("invoice not found")
	ErrPaymentNotFound        = core.NewNotFoundError("payment not found")
	ErrFeeNotFound            = core.NewNotFoundError("fee record not found")
	ErrDuplicateInvoiceNumber = core.NewConflictError("could not generate a unique invoice number")
	ErrNegativePaidAmount     = core.NewConflictError("the invoice paid amount cannot become negative")
)

// invoice ordering fields accepted by QueryInvoices
var InvoiceOrderingFields = []string{"created_at", "due_date", "total_amount", "invoice_number"}

var DefaultInvoiceOrdering = core.DBOrdering{Field: "created_at"}

type (
	InvoiceRepository interface {
		// InsertInvoice returns ErrDuplicateInvoiceNumber when the invoice number is taken.
		InsertInvoice(ctx context.Context, inv Invoice, exec ...core.DBExecutor) (Invoice, error)
		GetInvoice(ctx context.Context, id int64, exec ...core.DBExecutor) (Invoice, error)
		GetInvoiceRow(ctx context.Context, id int64, exec ...core.DBExecutor) (InvoiceRow, error)
		// QueryInvoices filters on the effective status as of today.
		QueryInvoices(ctx context.Context, filter InvoiceFilter, today core.Date, ord core.DBOrdering, p core.Pagination, exec ...core.DBExecutor) ([]InvoiceRow, int, error)
		// AddPaidAmount atomically adds delta (possibly negative) to the invoice paid amount.
		AddPaidAmount(ctx context.Context, id int64, delta core.Money, exec ...core.DBExecutor) error
		SetInvoiceStatus(ctx context.Context, id int64, status Status, exec ...core.DBExecutor) error
		DeleteInvoice(ctx context.Context, id int64, exec ...core.DBExecutor) error
		MarkOverdue(ctx context.Context, today core.Date, exec ...core.DBExecutor) (int64, error)
	}

	PaymentRepository interface {
		InsertPayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)
		// DeletePayment returns the deleted payment.
		DeletePayment(ctx context.Context, id int64, exec ...core.DBExecutor) (Payment, error)
		QueryPayments(ctx context.Context, filter PaymentFilter, p core.Pagination, exec ...core.DBExecutor) ([]PaymentRow, int, error)
		// ListInvoicePayments returns every payment of an invoice, latest payment date first.
		ListInvoicePayments(ctx context.Context, invoiceID int64, exec ...core.DBExecutor) ([]PaymentRow, error)
	}

	FeeRepository interface {
		InsertFee(ctx context.Context, fee Fee, exec ...core.DBExecutor) (Fee, error)
		GetFee(ctx context.Context, id int64, exec ...core.DBExecutor) (Fee, error)
		QueryFees(ctx context.Context, filter FeeFilter, p core.Pagination, exec ...core.DBExecutor) ([]Fee, int, error)
		SumFees(ctx context.Context, filter FeeSumFilter, exec ...core.DBExecutor) (core.Money, error)
	}

	FeeSumFilter struct {
		StudentID int64
		Status    string
		MonthPaid string
	}

	Service struct {
		db       core.DB
		invoices InvoiceRepository
		payments PaymentRepository
		fees     FeeRepository
		students student.Repository
		validate *validator.Validate
		conf     core.BillingConfig
	}
)

var nowFunc = time.Now // mockable

func NewService(
	conf *core.Config,
	db core.DB,
	invoices InvoiceRepository,
	payments PaymentRepository,
	fees FeeRepository,
	students student.Repository,
	validate *validator.Validate,
) *Service {
	return &Service{
		db:       db,
		invoices: invoices,
		payments: payments,
		fees:     fees,
		students: students,
		validate: validate,
		conf:     conf.Billing,
	}
}

// Today is the current calendar date in the billing time zone.
func (svc *Service) Today() core.Date {
	return core.DateOf(nowFunc().In(svc.conf.Location()))
}

func (svc *Service) dueGraceDays() int {
	return int(svc.conf.DueGracePeriod / (24 * time.Hour))
}

// studentExists maps a missing student to a validation error on field.
func (svc *Service) studentExists(ctx context.Context, id int64, field string, exec ...core.DBExecutor) error {
	if _, err := svc.students.GetStudent(ctx, id, exec...); err != nil {
		if err == student.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
		}
		return errors.Wrap(err, "checking student")
	}
	return nil
}

// reconcile re-reads the invoice and persists its PaymentStatus.
func (svc *Service) reconcile(ctx context.Context, tx core.DBExecutor, invoiceID int64) (Invoice, error) {
	inv, err := svc.invoices.GetInvoice(ctx, invoiceID, tx)
	if err != nil {
		return Invoice{}, err
	}
	status := PaymentStatus(inv.TotalAmount, inv.PaidAmount)
	if status != inv.Status {
		if err = svc.invoices.SetInvoiceStatus(ctx, inv.ID, status, tx); err != nil {
			return Invoice{}, errors.Wrap(err, "persisting status")
		}
		inv.Status = status
	}
	return inv, nil
}
