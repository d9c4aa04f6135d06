package billing

import "github.com/trezcool/malipo/core"

type Status string

// Invoice statuses
const (
	StatusPending       Status = "Pending"
	StatusPartiallyPaid Status = "Partially Paid"
	StatusPaid          Status = "Paid"
	StatusOverdue       Status = "Overdue"
)

var Statuses = []Status{StatusPending, StatusPartiallyPaid, StatusPaid, StatusOverdue}

func (s Status) IsValid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Reconcile derives an invoice status from its amounts and due date, in priority order:
// fully paid (whatever the due date), then overdue, then partially paid, then pending.
// It is PaymentStatus followed by EffectiveStatus.
func Reconcile(total, paid core.Money, due, today core.Date) Status {
	return EffectiveStatus(PaymentStatus(total, paid), due, today)
}

// EffectiveStatus is the read-time status of a stored status: the lateness rule of Reconcile applied to it,
// so an invoice whose due date elapsed since its last write reads as Overdue.
func EffectiveStatus(stored Status, due, today core.Date) Status {
	return applyLateness(stored, due, today)
}

// PaymentStatus is the status stored by payment mutations. It only looks at amounts:
// lateness is left to EffectiveStatus at read time and to the overdue sweep.
func PaymentStatus(total, paid core.Money) Status {
	switch {
	case paid.GreaterThanOrEqual(total):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartiallyPaid
	default:
		return StatusPending
	}
}

// applyLateness is mirrored in SQL by the invoice repository (effective status filter & overdue sweep).
func applyLateness(status Status, due, today core.Date) Status {
	if status != StatusPaid && due.Before(today) {
		return StatusOverdue
	}
	return status
}

// Remaining is what is left to pay on an invoice; overpayments leave nothing remaining.
func Remaining(total, paid core.Money) core.Money {
	return total.Sub(paid).ClampedAtZero()
}
