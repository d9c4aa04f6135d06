package billing

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/malipo/core"
)

// RecordPayment adds a payment to its invoice and reconciles the invoice status, in one transaction.
func (svc *Service) RecordPayment(ctx context.Context, np NewPayment) (PaymentResult, error) {
	np.clean()
	if err := svc.validate.Struct(np); err != nil {
		return PaymentResult{}, err
	}

	var res PaymentResult
	err := core.RunInTx(ctx, svc.db, func(tx core.DBTransactor) error {
		// the increment locks the invoice row until commit
		if err := svc.invoices.AddPaidAmount(ctx, np.InvoiceID, np.Amount, tx); err != nil {
			return err
		}
		pmt, err := svc.payments.InsertPayment(ctx, Payment{
			InvoiceID:     np.InvoiceID,
			Amount:        np.Amount,
			PaymentDate:   np.PaymentDate,
			PaymentMethod: np.PaymentMethod,
			Notes:         null.NewString(np.Notes, np.Notes != ""),
			CreatedAt:     nowFunc().UTC(),
		}, tx)
		if err != nil {
			return errors.Wrap(err, "inserting payment")
		}

		inv, err := svc.reconcile(ctx, tx, np.InvoiceID)
		if err != nil {
			return err
		}
		res = PaymentResult{PaymentID: pmt.ID, NewStatus: inv.Status, RemainingAmount: inv.Remaining()}
		return nil
	})
	return res, err
}

// DeletePayment removes a payment, reverses it on its invoice and reconciles the invoice status, in one transaction.
func (svc *Service) DeletePayment(ctx context.Context, id int64) (PaymentResult, error) {
	var res PaymentResult
	err := core.RunInTx(ctx, svc.db, func(tx core.DBTransactor) error {
		pmt, err := svc.payments.DeletePayment(ctx, id, tx)
		if err != nil {
			return err
		}
		if err = svc.invoices.AddPaidAmount(ctx, pmt.InvoiceID, pmt.Amount.Neg(), tx); err != nil {
			return err
		}

		inv, err := svc.invoices.GetInvoice(ctx, pmt.InvoiceID, tx)
		if err != nil {
			return err
		}
		if inv.PaidAmount.IsNegative() {
			return ErrNegativePaidAmount
		}
		if inv, err = svc.reconcile(ctx, tx, inv.ID); err != nil {
			return err
		}
		res = PaymentResult{NewStatus: inv.Status, RemainingAmount: inv.Remaining()}
		return nil
	})
	return res, err
}

func (svc *Service) QueryPayments(ctx context.Context, filter PaymentFilter, p core.Pagination) ([]PaymentRow, core.PageInfo, error) {
	p.Clean()
	rows, total, err := svc.payments.QueryPayments(ctx, filter, p)
	if err != nil {
		return nil, core.PageInfo{}, err
	}
	return rows, core.NewPageInfo(p, total), nil
}

func (svc *Service) InvoicePayments(ctx context.Context, invoiceID int64) ([]PaymentRow, error) {
	if _, err := svc.invoices.GetInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return svc.payments.ListInvoicePayments(ctx, invoiceID)
}
