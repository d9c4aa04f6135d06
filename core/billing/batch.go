package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/malipo/core"
)

func (nb *NewBatch) clean() {
	for i := range nb.Items {
		for j, month := range nb.Items[i].Months {
			nb.Items[i].Months[j] = core.CleanString(month)
		}
	}
}

// CreateBatch creates one invoice per item and, when asked, records a cash payment per month of the item.
// Every item is validated first; the batch is then written in one transaction, all or nothing.
func (svc *Service) CreateBatch(ctx context.Context, nb NewBatch) ([]BatchResult, error) {
	nb.clean()
	if err := svc.validate.Struct(nb); err != nil {
		return nil, err
	}

	today := svc.Today()
	due := today.AddDays(svc.dueGraceDays())
	results := make([]BatchResult, 0, len(nb.Items))

	err := core.RunInTx(ctx, svc.db, func(tx core.DBTransactor) error {
		for i, item := range nb.Items {
			if err := svc.studentExists(ctx, item.StudentID, fmt.Sprintf("items[%d].studentId", i), tx); err != nil {
				return err
			}

			desc := "Fees for " + strings.Join(item.Months, ", ")
			inv, err := svc.insertInvoice(ctx, newPendingInvoice(item.StudentID, desc, item.Amount, due), tx)
			if err != nil {
				return errors.Wrapf(err, "creating invoice of item %d", i)
			}

			if item.RecordPayment {
				for _, month := range item.Months {
					if err = svc.recordMonthPayment(ctx, tx, inv, item.Amount, month, today); err != nil {
						return errors.Wrapf(err, "recording payment of item %d for %s", i, month)
					}
				}
				if inv, err = svc.reconcile(ctx, tx, inv.ID); err != nil {
					return err
				}
			}

			results = append(results, BatchResult{InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber, StudentID: inv.StudentID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// recordMonthPayment pays one month of a batch invoice and mirrors it into the fee ledger.
func (svc *Service) recordMonthPayment(ctx context.Context, tx core.DBExecutor, inv Invoice, amount core.Money, month string, today core.Date) error {
	now := nowFunc().UTC()
	_, err := svc.payments.InsertPayment(ctx, Payment{
		InvoiceID:     inv.ID,
		Amount:        amount,
		PaymentDate:   today,
		PaymentMethod: DefaultPaymentMethod,
		Notes:         null.StringFrom("Month " + month),
		CreatedAt:     now,
	}, tx)
	if err != nil {
		return err
	}
	if err = svc.invoices.AddPaidAmount(ctx, inv.ID, amount, tx); err != nil {
		return err
	}
	_, err = svc.fees.InsertFee(ctx, Fee{
		StudentID: inv.StudentID,
		Amount:    amount,
		PaidDate:  today,
		MonthPaid: null.StringFrom(month),
		Status:    FeeStatusPaid,
		CreatedAt: now,
	}, tx)
	return err
}
