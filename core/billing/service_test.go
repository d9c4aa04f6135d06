package billing_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
	"github.com/trezcool/malipo/core/student"
	sqlxrepos "github.com/trezcool/malipo/storage/database/sqlx"
	"github.com/trezcool/malipo/tests"
)

var (
	now   = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)
	today = core.DateOf(now)
	m     = core.MustMoney
)

type fixture struct {
	db       *sqlx.DB
	svc      *billing.Service
	invoices billing.InvoiceRepository
	payments billing.PaymentRepository
	fees     billing.FeeRepository
	students student.Repository
}

func setup(t *testing.T) fixture {
	t.Cleanup(billing.SetNow(now))

	db := testutil.PrepareDB(t)
	validate, _ := testutil.NewValidator()
	f := fixture{
		db:       db,
		invoices: sqlxrepos.NewInvoiceRepository(db),
		payments: sqlxrepos.NewPaymentRepository(db),
		fees:     sqlxrepos.NewFeeRepository(db),
		students: sqlxrepos.NewStudentRepository(db),
	}
	f.svc = billing.NewService(testutil.NewConfig(), db, f.invoices, f.payments, f.fees, f.students, validate)
	return f
}

func (f fixture) invoice(t *testing.T, id int64) billing.Invoice {
	inv, err := f.invoices.GetInvoice(context.Background(), id)
	require.NoError(t, err)
	return inv
}

func (f fixture) countInvoices(t *testing.T) int {
	_, page, err := f.svc.QueryInvoices(context.Background(), billing.InvoiceFilter{}, billing.DefaultInvoiceOrdering, core.Pagination{})
	require.NoError(t, err)
	return page.Total
}

func pay(invoiceID int64, amount string) billing.NewPayment {
	return billing.NewPayment{InvoiceID: invoiceID, Amount: m(amount), PaymentDate: today}
}

func TestService_Today(t *testing.T) {
	t.Cleanup(billing.SetNow(time.Date(2026, 3, 15, 23, 30, 0, 0, time.UTC)))
	validate, _ := testutil.NewValidator()

	conf := testutil.NewConfig()
	svc := billing.NewService(conf, nil, nil, nil, nil, nil, validate)
	assert.Equal(t, core.NewDate(2026, 3, 15), svc.Today())

	conf = testutil.NewConfig()
	require.NoError(t, conf.Billing.SetTimezone("Africa/Kinshasa"))
	svc = billing.NewService(conf, nil, nil, nil, nil, nil, validate)
	assert.Equal(t, core.NewDate(2026, 3, 16), svc.Today())
}

func TestService_CreateInvoice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")

	inv, err := f.svc.CreateInvoice(ctx, billing.NewInvoice{
		StudentID:   std.ID,
		Description: "  Term 2 fees ",
		TotalAmount: m("1000"),
		DueDate:     today.AddDays(30),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^INV-\d+-\d{3}$`, inv.InvoiceNumber)
	assert.Equal(t, "Term 2 fees", inv.Description)
	assert.Equal(t, billing.StatusPending, inv.Status)
	assert.Equal(t, "0.00", inv.PaidAmount.String())

	detail, err := f.svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amani Kabila", detail.Invoice.StudentName)
	assert.Equal(t, "1000.00", detail.Invoice.RemainingAmount.String())
	assert.Empty(t, detail.Payments)

	t.Run("invalid input", func(t *testing.T) {
		_, err := f.svc.CreateInvoice(ctx, billing.NewInvoice{StudentID: std.ID, Description: "x", DueDate: today})
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs))
		assert.Equal(t, "totalAmount", vErrs[0].Field())
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := f.svc.CreateInvoice(ctx, billing.NewInvoice{StudentID: 999, Description: "x", TotalAmount: m("10"), DueDate: today})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "studentId", vErr.Fields[0].Field)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := f.svc.GetInvoice(ctx, 999)
		assert.Equal(t, billing.ErrInvoiceNotFound, errors.Cause(err))
	})
}

func TestService_CreateInvoice_numberCollisions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	ni := billing.NewInvoice{StudentID: std.ID, Description: "Term 2", TotalAmount: m("100"), DueDate: today}

	numbers := []string{"INV-1-001", "INV-1-001", "INV-1-001", "INV-1-002"}
	calls := 0
	t.Cleanup(billing.SetInvoiceNumberFunc(func(time.Time) string {
		n := numbers[calls%len(numbers)]
		calls++
		return n
	}))

	first, err := f.svc.CreateInvoice(ctx, ni)
	require.NoError(t, err)
	assert.Equal(t, "INV-1-001", first.InvoiceNumber)

	second, err := f.svc.CreateInvoice(ctx, ni)
	require.NoError(t, err)
	assert.Equal(t, "INV-1-002", second.InvoiceNumber)
	assert.Equal(t, 4, calls)

	t.Cleanup(billing.SetInvoiceNumberFunc(func(time.Time) string { return "INV-1-001" }))
	_, err = f.svc.CreateInvoice(ctx, ni)
	assert.Equal(t, billing.ErrDuplicateInvoiceNumber, errors.Cause(err))
	assert.Equal(t, 2, f.countInvoices(t))
}

func TestService_RecordPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-001", "1000", "0", today.AddDays(10), billing.StatusPending)

	// 400 then 600 settle a 1000 invoice; deleting the 600 reopens it
	res, err := f.svc.RecordPayment(ctx, pay(inv.ID, "400"))
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartiallyPaid, res.NewStatus)
	assert.Equal(t, "600.00", res.RemainingAmount.String())
	assert.NotZero(t, res.PaymentID)

	res2, err := f.svc.RecordPayment(ctx, pay(inv.ID, "600"))
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, res2.NewStatus)
	assert.Equal(t, "0.00", res2.RemainingAmount.String())
	assert.Equal(t, "1000.00", f.invoice(t, inv.ID).PaidAmount.String())

	del, err := f.svc.DeletePayment(ctx, res2.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartiallyPaid, del.NewStatus)
	assert.Equal(t, "600.00", del.RemainingAmount.String())

	del, err = f.svc.DeletePayment(ctx, res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, del.NewStatus)
	assert.Equal(t, "1000.00", del.RemainingAmount.String())

	stored := f.invoice(t, inv.ID)
	assert.Equal(t, billing.StatusPending, stored.Status)
	assert.Equal(t, "0.00", stored.PaidAmount.String())

	t.Run("defaults", func(t *testing.T) {
		res, err := f.svc.RecordPayment(ctx, pay(inv.ID, "10"))
		require.NoError(t, err)
		rows, err := f.svc.InvoicePayments(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, res.PaymentID, rows[0].ID)
		assert.Equal(t, billing.DefaultPaymentMethod, rows[0].PaymentMethod)
		assert.False(t, rows[0].Notes.Valid)
		assert.Equal(t, "INV-1-001", rows[0].InvoiceNumber)
		assert.Equal(t, "R-001", rows[0].RollNumber)
	})

	t.Run("overpayment", func(t *testing.T) {
		res, err := f.svc.RecordPayment(ctx, pay(inv.ID, "1200"))
		require.NoError(t, err)
		assert.Equal(t, billing.StatusPaid, res.NewStatus)
		assert.Equal(t, "0.00", res.RemainingAmount.String())
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := f.svc.RecordPayment(ctx, pay(999, "10"))
		assert.Equal(t, billing.ErrInvoiceNotFound, errors.Cause(err))
	})

	t.Run("unknown payment", func(t *testing.T) {
		_, err := f.svc.DeletePayment(ctx, 999)
		assert.Equal(t, billing.ErrPaymentNotFound, errors.Cause(err))
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, err := f.svc.RecordPayment(ctx, pay(inv.ID, "0"))
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs))
		assert.Equal(t, "amount", vErrs[0].Field())
	})
}

func TestService_RecordPayment_lateInvoice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-001", "1000", "0", today.AddDays(-1), billing.StatusPending)

	// payments store the amount-derived status, even past the due date
	res, err := f.svc.RecordPayment(ctx, pay(inv.ID, "400"))
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartiallyPaid, res.NewStatus)
	assert.Equal(t, "600.00", res.RemainingAmount.String())
	assert.Equal(t, billing.StatusPartiallyPaid, f.invoice(t, inv.ID).Status)

	// ... while reads still report the lateness
	detail, err := f.svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusOverdue, detail.Invoice.ActualStatus)

	res, err = f.svc.RecordPayment(ctx, pay(inv.ID, "600"))
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, res.NewStatus)
	assert.Equal(t, "0.00", res.RemainingAmount.String())

	detail, err = f.svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, detail.Invoice.ActualStatus)
}

func TestService_RecordPayment_lateRoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-001", "1000", "0", today.AddDays(-1), billing.StatusPending)

	res, err := f.svc.RecordPayment(ctx, pay(inv.ID, "250"))
	require.NoError(t, err)
	del, err := f.svc.DeletePayment(ctx, res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, del.NewStatus)
	assert.Equal(t, "1000.00", del.RemainingAmount.String())

	stored := f.invoice(t, inv.ID)
	assert.Equal(t, billing.StatusPending, stored.Status)
	assert.Equal(t, "0.00", stored.PaidAmount.String())
}

func TestService_RecordPayment_concurrent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-001", "1000", "100", today.AddDays(10), billing.StatusPartiallyPaid)

	amounts := []string{"250", "350"}
	errs := make([]error, len(amounts))
	var wg sync.WaitGroup
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount string) {
			defer wg.Done()
			_, errs[i] = f.svc.RecordPayment(ctx, pay(inv.ID, amount))
		}(i, amount)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	stored := f.invoice(t, inv.ID)
	assert.Equal(t, "700.00", stored.PaidAmount.String())
	assert.Equal(t, billing.StatusPartiallyPaid, stored.Status)

	payments, err := f.svc.InvoicePayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestService_DeletePayment_negativeBalance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-001", "1000", "50", today.AddDays(10), billing.StatusPartiallyPaid)

	// a payment the invoice paid amount does not account for
	pmt, err := f.payments.InsertPayment(ctx, billing.Payment{
		InvoiceID:     inv.ID,
		Amount:        m("100"),
		PaymentDate:   today,
		PaymentMethod: billing.DefaultPaymentMethod,
		CreatedAt:     now,
	})
	require.NoError(t, err)

	_, err = f.svc.DeletePayment(ctx, pmt.ID)
	assert.Equal(t, billing.ErrNegativePaidAmount, errors.Cause(err))

	// rolled back
	stored := f.invoice(t, inv.ID)
	assert.Equal(t, "50.00", stored.PaidAmount.String())
	assert.Equal(t, billing.StatusPartiallyPaid, stored.Status)
	rows, err := f.svc.InvoicePayments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestService_CreateBatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	amani := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	neema := testutil.CreateStudent(t, f.students, "Neema Mwamba", "R-002", "6B")

	created, err := f.svc.CreateBatch(ctx, billing.NewBatch{Items: []billing.BatchItem{
		{StudentID: amani.ID, Amount: m("500"), Months: []string{"2026-02", " 2026-03 "}, RecordPayment: true},
		{StudentID: neema.ID, Amount: m("750"), Months: []string{"2026-03"}},
	}})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, amani.ID, created[0].StudentID)
	assert.Equal(t, neema.ID, created[1].StudentID)

	paid, err := f.svc.GetInvoice(ctx, created[0].InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "Fees for 2026-02, 2026-03", paid.Invoice.Description)
	assert.Equal(t, today.AddDays(14), paid.Invoice.DueDate)
	assert.Equal(t, "500.00", paid.Invoice.TotalAmount.String())
	assert.Equal(t, "1000.00", paid.Invoice.PaidAmount.String())
	assert.Equal(t, billing.StatusPaid, paid.Invoice.Status)
	require.Len(t, paid.Payments, 2)
	notes := []string{paid.Payments[0].Notes.String, paid.Payments[1].Notes.String}
	assert.ElementsMatch(t, []string{"Month 2026-02", "Month 2026-03"}, notes)

	pending, err := f.svc.GetInvoice(ctx, created[1].InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, pending.Invoice.Status)
	assert.Empty(t, pending.Payments)

	fees, page, err := f.svc.QueryFees(ctx, billing.FeeFilter{StudentID: amani.ID}, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, fee := range fees {
		assert.Equal(t, billing.FeeStatusPaid, fee.Status)
		assert.Equal(t, today, fee.PaidDate)
		assert.Equal(t, "500.00", fee.Amount.String())
	}

	sum, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", sum.TotalPaid.String())
	assert.Equal(t, "0.00", sum.TotalPending.String())
	assert.Equal(t, "500.00", sum.ThisMonth.String())
	assert.Equal(t, 2, sum.TotalStudents)
}

func TestService_CreateBatch_allOrNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	valid := billing.BatchItem{StudentID: std.ID, Amount: m("500"), Months: []string{"2026-03"}, RecordPayment: true}

	t.Run("empty", func(t *testing.T) {
		_, err := f.svc.CreateBatch(ctx, billing.NewBatch{})
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs))
		assert.Equal(t, "items", core.FieldKey(vErrs[0]))
	})

	t.Run("invalid month", func(t *testing.T) {
		_, err := f.svc.CreateBatch(ctx, billing.NewBatch{Items: []billing.BatchItem{
			valid,
			{StudentID: std.ID, Amount: m("500"), Months: []string{"March"}},
		}})
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs))
		assert.Equal(t, "items[1].months[0]", core.FieldKey(vErrs[0]))
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := f.svc.CreateBatch(ctx, billing.NewBatch{Items: []billing.BatchItem{
			valid,
			{StudentID: 999, Amount: m("500"), Months: []string{"2026-03"}},
		}})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "items[1].studentId", vErr.Fields[0].Field)
	})

	assert.Zero(t, f.countInvoices(t))
	sum, err := f.svc.StudentSummary(ctx, std.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", sum.TotalPaid.String())
}

func TestService_MarkOverdue(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	late := today.AddDays(-3)

	pending := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-001", "100", "0", late, billing.StatusPending)
	partial := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-002", "100", "40", late, billing.StatusPartiallyPaid)
	paid := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-003", "100", "100", late, billing.StatusPaid)
	dueToday := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-004", "100", "0", today, billing.StatusPending)
	testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-005", "100", "0", late, billing.StatusOverdue)

	n, err := f.svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	assert.Equal(t, billing.StatusOverdue, f.invoice(t, pending.ID).Status)
	assert.Equal(t, billing.StatusOverdue, f.invoice(t, partial.ID).Status)
	assert.Equal(t, billing.StatusPaid, f.invoice(t, paid.ID).Status)
	assert.Equal(t, billing.StatusPending, f.invoice(t, dueToday.ID).Status)

	n, err = f.svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// The status filter of QueryInvoices must select exactly the invoices whose EffectiveStatus matches.
func TestService_QueryInvoices_effectiveStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	other := testutil.CreateStudent(t, f.students, "Neema Mwamba", "R-002", "6B")

	dues := []core.Date{today.AddDays(-10), today.AddDays(-1), today, today.AddDays(1)}
	want := make(map[billing.Status][]int64)
	var n int
	for _, stored := range billing.Statuses {
		for _, due := range dues {
			n++
			inv := testutil.CreateInvoice(t, f.invoices, std.ID, fmt.Sprintf("INV-1-%03d", n), "100", "0", due, stored)
			effective := billing.EffectiveStatus(stored, due, today)
			want[effective] = append(want[effective], inv.ID)
		}
	}
	testutil.CreateInvoice(t, f.invoices, other.ID, "INV-2-001", "100", "0", today.AddDays(-1), billing.StatusPending)

	for _, status := range billing.Statuses {
		t.Run(string(status), func(t *testing.T) {
			filter := billing.InvoiceFilter{Status: status, StudentID: std.ID}
			rows, page, err := f.svc.QueryInvoices(ctx, filter, billing.DefaultInvoiceOrdering, core.Pagination{Limit: 100})
			require.NoError(t, err)

			got := make([]int64, 0, len(rows))
			for _, row := range rows {
				assert.Equal(t, status, row.ActualStatus)
				got = append(got, row.ID)
			}
			assert.ElementsMatch(t, want[status], got)
			assert.Equal(t, len(want[status]), page.Total)
		})
	}

	t.Run("invalid status", func(t *testing.T) {
		_, _, err := f.svc.QueryInvoices(ctx, billing.InvoiceFilter{Status: "Late"}, billing.DefaultInvoiceOrdering, core.Pagination{})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "status", vErr.Fields[0].Field)
	})
}

func TestService_QueryInvoices_paginationAndOrdering(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")

	var ids []int64
	for i := 1; i <= 5; i++ {
		inv := testutil.CreateInvoice(t, f.invoices, std.ID, fmt.Sprintf("INV-1-%03d", i), fmt.Sprint(i*100), "0", today.AddDays(i), billing.StatusPending)
		ids = append(ids, inv.ID)
	}

	rows, page, err := f.svc.QueryInvoices(ctx, billing.InvoiceFilter{}, core.DBOrdering{Field: "total_amount", Ascending: true}, core.Pagination{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, core.PageInfo{Page: 2, Limit: 2, Total: 5, Pages: 3}, page)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[2], rows[0].ID)
	assert.Equal(t, ids[3], rows[1].ID)

	// unknown fields fall back to the newest first
	rows, _, err = f.svc.QueryInvoices(ctx, billing.InvoiceFilter{}, core.DBOrdering{Field: "1; DROP TABLE invoice"}, core.Pagination{})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, ids[4], rows[0].ID)
}

func TestService_UpdateInvoiceStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-001", "1000", "0", today.AddDays(10), billing.StatusPending)

	row, err := f.svc.UpdateInvoiceStatus(ctx, inv.ID, billing.UpdateInvoiceStatus{Status: billing.StatusPaid})
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, row.Status)
	assert.Equal(t, billing.StatusPaid, row.ActualStatus)

	// the next payment mutation reconciles the manual override away
	res, err := f.svc.RecordPayment(ctx, pay(inv.ID, "100"))
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartiallyPaid, res.NewStatus)

	_, err = f.svc.UpdateInvoiceStatus(ctx, inv.ID, billing.UpdateInvoiceStatus{Status: "Settled"})
	var vErrs validator.ValidationErrors
	require.True(t, errors.As(err, &vErrs))
	assert.Equal(t, "status", vErrs[0].Field())

	_, err = f.svc.UpdateInvoiceStatus(ctx, 999, billing.UpdateInvoiceStatus{Status: billing.StatusPaid})
	assert.Equal(t, billing.ErrInvoiceNotFound, errors.Cause(err))
}

func TestService_DeleteInvoice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, f.invoices, std.ID, "INV-1-001", "1000", "0", today.AddDays(10), billing.StatusPending)
	res, err := f.svc.RecordPayment(ctx, pay(inv.ID, "100"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteInvoice(ctx, inv.ID))
	assert.Equal(t, billing.ErrInvoiceNotFound, errors.Cause(f.svc.DeleteInvoice(ctx, inv.ID)))

	// payments go with their invoice
	_, err = f.svc.DeletePayment(ctx, res.PaymentID)
	assert.Equal(t, billing.ErrPaymentNotFound, errors.Cause(err))
	_, err = f.svc.InvoicePayments(ctx, inv.ID)
	assert.Equal(t, billing.ErrInvoiceNotFound, errors.Cause(err))
}

func TestService_QueryPayments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	amani := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	neema := testutil.CreateStudent(t, f.students, "Neema Mwamba", "R-002", "6B")
	inv1 := testutil.CreateInvoice(t, f.invoices, amani.ID, "INV-1-001", "1000", "0", today, billing.StatusPending)
	inv2 := testutil.CreateInvoice(t, f.invoices, neema.ID, "INV-1-002", "1000", "0", today, billing.StatusPending)

	for _, np := range []billing.NewPayment{pay(inv1.ID, "100"), pay(inv1.ID, "200"), pay(inv2.ID, "300")} {
		_, err := f.svc.RecordPayment(ctx, np)
		require.NoError(t, err)
	}

	rows, page, err := f.svc.QueryPayments(ctx, billing.PaymentFilter{StudentID: amani.ID}, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, row := range rows {
		assert.Equal(t, amani.ID, row.StudentID)
		assert.Equal(t, "Amani Kabila", row.StudentName)
	}

	rows, page, err = f.svc.QueryPayments(ctx, billing.PaymentFilter{InvoiceID: inv2.ID}, core.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "300.00", rows[0].Amount.String())

	_, page, err = f.svc.QueryPayments(ctx, billing.PaymentFilter{}, core.Pagination{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, core.PageInfo{Page: 1, Limit: 1, Total: 3, Pages: 3}, page)
}

func TestService_Fees(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	amani := testutil.CreateStudent(t, f.students, "Amani Kabila", "R-001", "6A")
	neema := testutil.CreateStudent(t, f.students, "Neema Mwamba", "R-002", "6B")

	fee, err := f.svc.CreateFee(ctx, billing.NewFee{StudentID: amani.ID, Amount: m("300")})
	require.NoError(t, err)
	assert.Equal(t, billing.FeeStatusPending, fee.Status)
	assert.True(t, fee.PaidDate.IsZero())

	got, err := f.svc.GetFee(ctx, fee.ID)
	require.NoError(t, err)
	assert.Equal(t, fee.ID, got.ID)
	assert.False(t, got.MonthPaid.Valid)
	assert.True(t, got.PaidDate.IsZero())

	testutil.CreateFee(t, f.fees, amani.ID, "200", billing.FeeStatusPaid, "2026-03")
	testutil.CreateFee(t, f.fees, amani.ID, "150", billing.FeeStatusPaid, "2026-01")
	testutil.CreateFee(t, f.fees, neema.ID, "400", billing.FeeStatusPaid, "2026-03")
	testutil.CreateFee(t, f.fees, neema.ID, "50", billing.FeeStatusPending, "")

	sum, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "750.00", sum.TotalPaid.String())
	assert.Equal(t, "350.00", sum.TotalPending.String())
	assert.Equal(t, "600.00", sum.ThisMonth.String())
	assert.Equal(t, 2, sum.TotalStudents)

	stdSum, err := f.svc.StudentSummary(ctx, amani.ID)
	require.NoError(t, err)
	assert.Equal(t, amani.ID, stdSum.StudentID)
	assert.Equal(t, "350.00", stdSum.TotalPaid.String())
	assert.Equal(t, "300.00", stdSum.TotalPending.String())

	t.Run("filters", func(t *testing.T) {
		_, page, err := f.svc.QueryFees(ctx, billing.FeeFilter{Status: billing.FeeStatusPaid}, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)

		_, page, err = f.svc.QueryFees(ctx, billing.FeeFilter{StudentID: neema.ID, Status: billing.FeeStatusPending}, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)

		_, page, err = f.svc.QueryFees(ctx, billing.FeeFilter{}, core.Pagination{Limit: 500})
		require.NoError(t, err)
		assert.Equal(t, billing.MaxFeePageSize, page.Limit)

		_, _, err = f.svc.QueryFees(ctx, billing.FeeFilter{Status: "Overdue"}, core.Pagination{})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
	})

	t.Run("paid date range", func(t *testing.T) {
		_, err := f.svc.CreateFee(ctx, billing.NewFee{
			StudentID: neema.ID, Amount: m("10"), Status: billing.FeeStatusPaid, PaidDate: today.AddDays(-40), MonthPaid: "2026-02",
		})
		require.NoError(t, err)

		fees, page, err := f.svc.QueryFees(ctx, billing.FeeFilter{From: today.AddDays(-45), To: today.AddDays(-30)}, core.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, "2026-02", fees[0].MonthPaid.String)
	})

	t.Run("invalid fee", func(t *testing.T) {
		_, err := f.svc.CreateFee(ctx, billing.NewFee{StudentID: amani.ID, Amount: m("10"), Status: "Overdue", MonthPaid: "03-2026"})
		var vErrs validator.ValidationErrors
		require.True(t, errors.As(err, &vErrs))
		assert.Len(t, vErrs, 2)

		_, err = f.svc.GetFee(ctx, 999)
		assert.Equal(t, billing.ErrFeeNotFound, errors.Cause(err))
	})
}
