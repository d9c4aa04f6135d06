package billing

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/malipo/core"
)

const (
	DefaultPaymentMethod = "Cash"
	MaxFeePageSize       = 50
)

type Invoice struct {
	ID            int64      `json:"id" db:"id"`
	StudentID     int64      `json:"studentId" db:"student_id"`
	InvoiceNumber string     `json:"invoiceNumber" db:"invoice_number"`
	Description   string     `json:"description" db:"description"`
	TotalAmount   core.Money `json:"totalAmount" db:"total_amount"`
	PaidAmount    core.Money `json:"paidAmount" db:"paid_amount"`
	DueDate       core.Date  `json:"dueDate" db:"due_date"`
	Status        Status     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"` // UTC
}

func (inv Invoice) Remaining() core.Money {
	return Remaining(inv.TotalAmount, inv.PaidAmount)
}

// InvoiceRow is an Invoice decorated for listings.
type InvoiceRow struct {
	Invoice
	StudentName     string     `json:"studentName" db:"student_name"`
	RollNumber      string     `json:"rollNumber" db:"roll_number"`
	Class           string     `json:"class" db:"class"`
	RemainingAmount core.Money `json:"remainingAmount" db:"-"`
	ActualStatus    Status     `json:"actualStatus" db:"-"`
}

func (row *InvoiceRow) decorate(today core.Date) {
	row.RemainingAmount = row.Remaining()
	row.ActualStatus = EffectiveStatus(row.Status, row.DueDate, today)
}

type InvoiceDetail struct {
	Invoice  InvoiceRow   `json:"invoice"`
	Payments []PaymentRow `json:"payments"`
}

type Payment struct {
	ID            int64       `json:"id" db:"id"`
	InvoiceID     int64       `json:"invoiceId" db:"invoice_id"`
	Amount        core.Money  `json:"amount" db:"amount"`
	PaymentDate   core.Date   `json:"paymentDate" db:"payment_date"`
	PaymentMethod string      `json:"paymentMethod" db:"payment_method"`
	Notes         null.String `json:"notes" db:"notes"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"` // UTC
}

// PaymentRow is a Payment decorated with its invoice & student for listings.
type PaymentRow struct {
	Payment
	InvoiceNumber      string `json:"invoiceNumber" db:"invoice_number"`
	InvoiceDescription string `json:"invoiceDescription" db:"invoice_description"`
	StudentID          int64  `json:"studentId" db:"student_id"`
	StudentName        string `json:"studentName" db:"student_name"`
	RollNumber         string `json:"rollNumber" db:"roll_number"`
	Class              string `json:"class" db:"class"`
}

// PaymentResult is the invoice state after a payment was recorded or deleted.
type PaymentResult struct {
	PaymentID       int64      `json:"paymentId,omitempty"`
	NewStatus       Status     `json:"newStatus"`
	RemainingAmount core.Money `json:"remainingAmount"`
}

// Fee statuses
const (
	FeeStatusPaid    = "Paid"
	FeeStatusPending = "Pending"
)

// Fee is a row of the legacy flat fee ledger, still read by the fee dashboards.
// It is not tied to any Invoice.
type Fee struct {
	ID        int64       `json:"id" db:"id"`
	StudentID int64       `json:"studentId" db:"student_id"`
	Amount    core.Money  `json:"amount" db:"amount"`
	PaidDate  core.Date   `json:"paidDate" db:"paid_date"` // zero when unpaid
	MonthPaid null.String `json:"monthPaid" db:"month_paid"`
	Status    string      `json:"status" db:"status"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"` // UTC
}

type Summary struct {
	TotalPaid     core.Money `json:"totalPaid"`
	TotalPending  core.Money `json:"totalPending"`
	ThisMonth     core.Money `json:"thisMonth"`
	TotalStudents int        `json:"totalStudents"`
}

type StudentSummary struct {
	StudentID    int64      `json:"studentId"`
	TotalPaid    core.Money `json:"totalPaid"`
	TotalPending core.Money `json:"totalPending"`
}

type BatchResult struct {
	InvoiceID     int64  `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	StudentID     int64  `json:"studentId"`
}

// Inputs

type NewInvoice struct {
	StudentID   int64      `json:"studentId" validate:"required"`
	Description string     `json:"description" validate:"required,max=500"`
	TotalAmount core.Money `json:"totalAmount" validate:"required,gt=0"`
	DueDate     core.Date  `json:"dueDate" validate:"required"`
}

func (ni *NewInvoice) clean() {
	ni.Description = core.CleanString(ni.Description)
}

type UpdateInvoiceStatus struct {
	Status Status `json:"status" validate:"required,invoicestatus"`
}

type NewPayment struct {
	InvoiceID     int64      `json:"invoiceId" validate:"required"`
	Amount        core.Money `json:"amount" validate:"required,gt=0"`
	PaymentDate   core.Date  `json:"paymentDate" validate:"required"`
	PaymentMethod string     `json:"paymentMethod" validate:"omitempty,max=50"`
	Notes         string     `json:"notes" validate:"omitempty,max=1000"`
}

func (np *NewPayment) clean() {
	np.PaymentMethod = core.CleanString(np.PaymentMethod)
	if np.PaymentMethod == "" {
		np.PaymentMethod = DefaultPaymentMethod
	}
	np.Notes = core.CleanString(np.Notes)
}

type BatchItem struct {
	StudentID     int64      `json:"studentId" validate:"required"`
	Amount        core.Money `json:"amount" validate:"required,gt=0"`
	Months        []string   `json:"months" validate:"required,min=1,dive,yearmonth"`
	RecordPayment bool       `json:"recordPayment"`
}

type NewBatch struct {
	Items []BatchItem `json:"items" validate:"required,min=1,dive"`
}

type NewFee struct {
	StudentID int64      `json:"studentId" validate:"required"`
	Amount    core.Money `json:"amount" validate:"required,gt=0"`
	PaidDate  core.Date  `json:"paidDate"`
	MonthPaid string     `json:"monthPaid" validate:"omitempty,yearmonth"`
	Status    string     `json:"status" validate:"omitempty,feestatus"`
}

func (nf *NewFee) clean() {
	nf.MonthPaid = core.CleanString(nf.MonthPaid)
	if nf.Status == "" {
		nf.Status = FeeStatusPending
	}
}

// Filters

type InvoiceFilter struct {
	Status    Status `query:"status"`
	StudentID int64  `query:"studentId"`
}

type PaymentFilter struct {
	StudentID int64 `query:"studentId"`
	InvoiceID int64 `query:"invoiceId"`
}

type FeeFilter struct {
	StudentID int64     `query:"studentId"`
	Status    string    `query:"status"`
	From      core.Date `query:"from"` // paid date, inclusive
	To        core.Date `query:"to"`   // paid date, inclusive
}
