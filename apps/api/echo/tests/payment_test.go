package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/malipo/apps/api/echo"
	"github.com/trezcool/malipo/core"
	"github.com/trezcool/malipo/core/billing"
	"github.com/trezcool/malipo/tests"
)

func Test_paymentApi(t *testing.T) {
	app := setup(t)
	token := bursarToken(t, app)
	std := testutil.CreateStudent(t, app.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, app.invoices, std.ID, "INV-1-001", "1000", "0", today().AddDays(-1), billing.StatusPending)

	payment := func(invoiceID int64, amount string) []byte {
		return []byte(fmt.Sprintf(`{"invoiceId": %d, "amount": %s, "paymentDate": %q}`, invoiceID, amount, today()))
	}
	result := func(id int64, status billing.Status, remaining string) []byte {
		return marchallObj(t, billing.PaymentResult{PaymentID: id, NewStatus: status, RemainingAmount: core.MustMoney(remaining)})
	}

	// 400 then 600 settle the late invoice; deleting the 600 reopens it
	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/api/payments", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Missing fields", method: http.MethodPost, path: "/api/payments", token: token, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"invoiceId":   "this field is required",
				"amount":      "this field is required",
				"paymentDate": "this field is required",
			}),
		},
		{
			name: "Unknown invoice", method: http.MethodPost, path: "/api/payments", token: token, body: payment(999, "10"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "invoice not found"}),
		},
		{
			name: "400 paid", method: http.MethodPost, path: "/api/payments", token: token, body: payment(inv.ID, "400"),
			wantCode: http.StatusCreated, wantData: result(1, billing.StatusPartiallyPaid, "600"),
		},
		{
			name: "600 paid", method: http.MethodPost, path: "/api/payments", token: token, body: payment(inv.ID, "600"),
			wantCode: http.StatusCreated, wantData: result(2, billing.StatusPaid, "0"),
		},
		{name: "600 deleted", method: http.MethodDelete, path: "/api/payments/2", token: token, wantData: result(0, billing.StatusPartiallyPaid, "600")},
		{
			name: "Unknown payment", method: http.MethodDelete, path: "/api/payments/2", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "payment not found"}),
		},
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/api/payments?studentId=%d", std.ID), token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.PaymentListResponse
		unmarchall(t, rec, &resp)
		require.Len(t, resp.Payments, 1)
		assert.Equal(t, "400.00", resp.Payments[0].Amount.String())
		assert.Equal(t, billing.DefaultPaymentMethod, resp.Payments[0].PaymentMethod)
		assert.Equal(t, "INV-1-001", resp.Payments[0].InvoiceNumber)
		assert.Equal(t, core.PageInfo{Page: 1, Limit: core.DefaultPageSize, Total: 1, Pages: 1}, *resp.Pagination)
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "Invoice payments of unknown", method: http.MethodGet, path: "/api/payments/invoice/999", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "invoice not found"}),
		},
		{name: "Not an id", method: http.MethodDelete, path: "/api/payments/first", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
	})
}

func Test_paymentApi_negativeBalance(t *testing.T) {
	app := setup(t)
	token := bursarToken(t, app)
	std := testutil.CreateStudent(t, app.students, "Amani Kabila", "R-001", "6A")
	inv := testutil.CreateInvoice(t, app.invoices, std.ID, "INV-1-001", "1000", "0", today().AddDays(10), billing.StatusPending)

	// recorded in the ledger, but never added to the invoice paid amount
	pmt, err := app.payments.InsertPayment(context.Background(), billing.Payment{
		InvoiceID:     inv.ID,
		Amount:        core.MustMoney("100"),
		PaymentDate:   today(),
		PaymentMethod: billing.DefaultPaymentMethod,
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/api/payments/%d", pmt.ID)
	conflict := marchallObj(t, httpErr{Error: "the invoice paid amount cannot become negative"})
	runHTTPTests(t, app, []httpTest{
		{name: "Rejected", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusConflict, wantData: conflict},
		{name: "Still rejected", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusConflict, wantData: conflict},
	})
}
